package pjrt

import (
	"fmt"

	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

// Client manages the resources of one platform: its buffers, compilation and execution of computations.
type Client struct {
	plugin   *Plugin
	engine   Engine
	platform string
	options  NamedValuesMap
}

// newClient is called by Plugin.NewClient to create a new Client.
func newClient(plugin *Plugin, options NamedValuesMap) (*Client, error) {
	if err := options.Validate(); err != nil {
		return nil, errors.WithMessagef(err, "invalid options when creating a new pjrt.Client")
	}
	engine, err := plugin.api.NewEngine(options)
	if err != nil {
		return nil, errors.WithMessagef(err, "failed to create engine for plugin %s", plugin)
	}
	if engine == nil {
		return nil, errors.Errorf("plugin %s returned a nil engine", plugin)
	}
	c := &Client{plugin: plugin, engine: engine, platform: plugin.Name(), options: options}
	klog.V(1).Infof("pjrt: created %s", c)
	return c, nil
}

// Plugin returns the Plugin from which the Client was created.
func (c *Client) Plugin() *Plugin {
	return c.plugin
}

// Destroy the client, and Client is no longer valid. It's a no-op if it was already destroyed.
// Buffers and executables created by the client can no longer be used afterwards.
func (c *Client) Destroy() error {
	if c == nil || c.engine == nil {
		return nil
	}
	c.engine = nil
	return nil
}

// IsValid returns whether the client can still be used.
func (c *Client) IsValid() bool {
	return c != nil && c.engine != nil
}

// String implements fmt.Stringer.
func (c *Client) String() string {
	if !c.IsValid() {
		return "Invalid client"
	}
	return fmt.Sprintf("Client[plugin=%q, platform=%q, options=%s]", c.plugin.Name(), c.platform, c.options)
}

// Platform returns the name of the client platform.
func (c *Client) Platform() string {
	return c.platform
}

// Compile turns a computation into a LoadedExecutable, ready to run.
//
// It returns a CompileConfig that must be furthered configured: at least the computation must be given, with
// CompileConfig.WithComputation. Then the call to CompileConfig.Done triggers the compilation.
func (c *Client) Compile() *CompileConfig {
	return newCompileConfig(c)
}

// BufferFromHost creates an on-device buffer with the contents copied from host memory.
//
// It returns a BufferFromHostConfig that must be furthered configured -- at least the host data to transfer must be
// given. Call BufferFromHostConfig.Done to trigger the transfer.
func (c *Client) BufferFromHost() *BufferFromHostConfig {
	return &BufferFromHostConfig{client: c}
}

// checkValid returns an error if the client has been destroyed.
func (c *Client) checkValid() error {
	if !c.IsValid() {
		return errors.New("pjrt.Client is nil or has been destroyed")
	}
	return nil
}
