package client

import (
	"github.com/gomlx/xlatest/pjrt"
	"github.com/gomlx/xlatest/xlabuilder"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

// GlobalData is a handle to data stored on the platform. It's owned by the caller, who should Destroy it
// when no longer needed (it's also freed when garbage collected).
//
// It can be used as argument for any number of executions.
type GlobalData struct {
	client *Client
	buffer *pjrt.Buffer
}

func newGlobalData(c *Client, buffer *pjrt.Buffer) *GlobalData {
	return &GlobalData{client: c, buffer: buffer}
}

// IsValid returns whether the data has not been destroyed.
func (d *GlobalData) IsValid() bool {
	return d != nil && d.buffer.IsValid()
}

// Client that owns the data.
func (d *GlobalData) Client() *Client {
	return d.client
}

// Buffer returns the underlying pjrt.Buffer.
func (d *GlobalData) Buffer() *pjrt.Buffer {
	return d.buffer
}

// Shape of the data, including its layout.
func (d *GlobalData) Shape() (xlabuilder.Shape, error) {
	if !d.IsValid() {
		return xlabuilder.Shape{}, errors.New("GlobalData is nil or was destroyed")
	}
	return d.buffer.Shape()
}

// Destroy releases the data. It's safe to call more than once: only the first call releases anything.
func (d *GlobalData) Destroy() error {
	if d == nil || d.buffer == nil {
		return nil
	}
	return d.buffer.Destroy()
}

func (d *GlobalData) destroyOrLog() {
	if err := d.Destroy(); err != nil {
		klog.Errorf("GlobalData.Destroy failed: %v", err)
	}
}
