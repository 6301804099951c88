package pjrt

import (
	"runtime"
	"sync/atomic"

	"github.com/gomlx/xlatest/xlabuilder"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

// LoadedExecutable is a reference to a compiled program ready to be executed.
//
// All public attributes are read-only.
type LoadedExecutable struct {
	client     *Client
	executable Executable

	// Name of the executable: the name of the computation.
	Name string

	// ParameterShapes of the program, in parameter index order.
	ParameterShapes []xlabuilder.Shape

	// OutputShape of the program.
	OutputShape xlabuilder.Shape
}

var numLoadedExecutables atomic.Int64

// LoadedExecutablesAlive returns a count of the numbers of LoadedExecutables currently in memory and tracked by pjrt.
func LoadedExecutablesAlive() int64 {
	return numLoadedExecutables.Load()
}

// newLoadedExecutable creates LoadedExecutable and registers it for freeing.
func newLoadedExecutable(client *Client, computation *xlabuilder.XlaComputation, executable Executable) *LoadedExecutable {
	e := &LoadedExecutable{
		client:     client,
		executable: executable,
		Name:       computation.Name(),
	}
	e.ParameterShapes, e.OutputShape = computation.ProgramShape()
	numLoadedExecutables.Add(1)
	runtime.SetFinalizer(e, func(e *LoadedExecutable) { e.destroyOrLog() })
	return e
}

// Destroy the LoadedExecutable, release resources, and LoadedExecutable is no longer valid.
// This is automatically called if LoadedExecutable is garbage collected.
func (e *LoadedExecutable) Destroy() error {
	if e == nil || e.executable == nil {
		// Already destroyed, no-op.
		return nil
	}
	e.executable = nil
	e.client = nil
	numLoadedExecutables.Add(-1)
	return nil
}

// destroyOrLog destroys the LoadedExecutable and log any errors.
func (e *LoadedExecutable) destroyOrLog() {
	err := e.Destroy()
	if err != nil {
		klog.Errorf("LoadedExecutable.Destroy failed: %v", err)
	}
}

// Execute the compiled program with the given input buffers.
// It returns an ExecutionConfig for further optional configuration. Call ExecutionConfig.Done to trigger the
// execution.
func (e *LoadedExecutable) Execute(inputs ...*Buffer) *ExecutionConfig {
	return &ExecutionConfig{executable: e, inputs: inputs}
}

// ExecutionConfig holds the configuration for executing a LoadedExecutable.
// It is created with LoadedExecutable.Execute.
type ExecutionConfig struct {
	executable   *LoadedExecutable
	inputs       []*Buffer
	outputLayout *xlabuilder.Layout
}

// WithOutputLayout requests the output buffer to be stored with the given layout.
// It is only valid for array outputs.
func (c *ExecutionConfig) WithOutputLayout(layout xlabuilder.Layout) *ExecutionConfig {
	layout = layout.Clone()
	c.outputLayout = &layout
	return c
}

// Done executes the program and returns the output buffer.
//
// Tuple results are returned as one tuple buffer.
func (c *ExecutionConfig) Done() (*Buffer, error) {
	e := c.executable
	if e == nil || e.executable == nil {
		return nil, errors.New("LoadedExecutable is nil or has been destroyed")
	}
	if err := e.client.checkValid(); err != nil {
		return nil, err
	}
	if len(c.inputs) != len(e.ParameterShapes) {
		return nil, errors.Errorf("executable %q takes %d parameters, but %d inputs were given",
			e.Name, len(e.ParameterShapes), len(c.inputs))
	}
	literals := make([]*xlabuilder.Literal, len(c.inputs))
	for ii, input := range c.inputs {
		storage, err := input.storage()
		if err != nil {
			return nil, errors.WithMessagef(err, "input #%d of executable %q", ii, e.Name)
		}
		if input.client != e.client {
			return nil, errors.Errorf("input #%d of executable %q was created by a different client", ii, e.Name)
		}
		if shape := storage.Shape(); !shape.Equal(e.ParameterShapes[ii]) {
			return nil, errors.Errorf("input #%d of executable %q has shape %s, but parameter expects %s",
				ii, e.Name, shape.HumanString(), e.ParameterShapes[ii].HumanString())
		}
		literals[ii] = storage
	}

	output, err := e.executable.Run(literals)
	if err != nil {
		return nil, errors.WithMessagef(err, "failed to execute %q", e.Name)
	}
	if c.outputLayout != nil {
		if output.IsTuple() {
			if !c.outputLayout.IsEmpty() {
				return nil, errors.Errorf("executable %q returns tuple %s, which cannot have layout %s",
					e.Name, output.Shape().HumanString(), c.outputLayout)
			}
		} else {
			layout := *c.outputLayout
			if layout.IsEmpty() {
				layout = xlabuilder.DefaultLayout(output.Shape().Rank())
			}
			output, err = output.Relayout(layout)
			if err != nil {
				return nil, errors.WithMessagef(err, "output of executable %q", e.Name)
			}
		}
	}
	klog.V(1).Infof("pjrt: executed %q, output %s", e.Name, output.Shape().HumanStringWithLayout())
	return newBuffer(e.client, output), nil
}
