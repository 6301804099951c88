// Package clienttest is a harness for tests of computations executed by a client: it builds computations,
// executes them, and compares the results with expected literals, exactly or within an error spec.
//
// Comparisons can optionally be repeated for every possible output layout, or for every combination of
// input layouts, controlled by the DebugOptions of the harness ExecutionOptions (which by default are read
// from $XLA_FLAGS, see client.CreateDefaultExecutionOptions).
//
// Example:
//
//	func TestAdd(t *testing.T) {
//		h := clienttest.New("interpreter")
//		builder := xlabuilder.New(t.Name())
//		x, _ := xlabuilder.ScalarConstant(builder, float32(1))
//		_, _ = xlabuilder.Add(x, x)
//		clienttest.ComputeAndCompareR0Near(h, t, builder, float32(2), nil, literaltest.ErrorSpec{Abs: 1e-6})
//	}
package clienttest

import (
	"github.com/gomlx/exceptions"
	"github.com/gomlx/xlatest/client"
	"github.com/gomlx/xlatest/xlabuilder"
	"github.com/stretchr/testify/require"
	"k8s.io/klog/v2"
)

// TestingT is the subset of testing.T used by the harness.
type TestingT = require.TestingT

// ExecutionClient is the subset of client.Client used by the harness.
// It allows tests to wrap the client, e.g.: to count executions or inject failures.
type ExecutionClient interface {
	Platform() string
	Execute(computation *xlabuilder.XlaComputation, args []*client.GlobalData, options client.ExecutionOptions) (*client.GlobalData, error)
	ExecuteAndTransfer(computation *xlabuilder.XlaComputation, args []*client.GlobalData, options client.ExecutionOptions) (*xlabuilder.Literal, error)
	TransferToServer(literal *xlabuilder.Literal) (*client.GlobalData, error)
	Transfer(data *client.GlobalData, shapeWithLayout *xlabuilder.Shape) (*xlabuilder.Literal, error)
}

var _ ExecutionClient = (*client.Client)(nil)

// Harness executes computations and compares their results. Its configuration is immutable.
type Harness struct {
	client  ExecutionClient
	options client.ExecutionOptions
}

// DisabledPasses are disabled by default in the harness, so computations (often written only with constants)
// exercise the execution of the ops, instead of being folded at compile time.
var DisabledPasses = []string{"constant_folding"}

// GetOrCreateLocalClientOrDie returns the local client for the platform in options.
// It panics if the client can't be created: tests can't run without it.
func GetOrCreateLocalClientOrDie(options client.LocalClientOptions) *client.Client {
	c, err := client.GetOrCreateLocalClient(options)
	if err != nil {
		exceptions.Panicf("could not create local client for testing: %+v", err)
	}
	return c
}

// New creates a Harness for the given platform (if empty, the default platform).
// It panics if the client can't be created.
func New(platform string) *Harness {
	return NewWithClientOptions(client.LocalClientOptions{Platform: platform})
}

// NewWithClientOptions creates a Harness using the local client created with the given options.
// The execution options are read from $XLA_FLAGS, plus DisabledPasses.
func NewWithClientOptions(options client.LocalClientOptions) *Harness {
	c := GetOrCreateLocalClientOrDie(options)
	executionOptions := client.CreateDefaultExecutionOptions().WithDisabledPasses(DisabledPasses...)
	klog.V(1).Infof("clienttest: harness on %q with %s", c.Platform(), executionOptions)
	return NewWithClient(c, executionOptions)
}

// NewWithClient creates a Harness with any ExecutionClient and the given options.
func NewWithClient(c ExecutionClient, options client.ExecutionOptions) *Harness {
	return &Harness{client: c, options: options.Clone()}
}

// Client used by the harness.
func (h *Harness) Client() ExecutionClient {
	return h.client
}

// Platform of the client.
func (h *Harness) Platform() string {
	return h.client.Platform()
}

// ExecutionOptions returns a copy of the harness options.
func (h *Harness) ExecutionOptions() client.ExecutionOptions {
	return h.options.Clone()
}

// WithExecutionOptions returns a new Harness, with the same client and the given options.
func (h *Harness) WithExecutionOptions(options client.ExecutionOptions) *Harness {
	return NewWithClient(h.client, options)
}
