package pjrt

import (
	"slices"

	"github.com/gomlx/exceptions"
	"github.com/gomlx/xlatest/xlabuilder"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

// CompileConfig is created with Client.Compile, and is a "builder pattern" to configure a compilation call.
//
// At a minimum one has to set the program to compile (use CompileConfig.WithComputation).
// Optionally, passes can be disabled with CompileConfig.WithDisabledPasses.
//
// Once finished call CompileConfig.Done to trigger the compilation and get back a LoadedExecutable or an error.
type CompileConfig struct {
	client      *Client
	computation *xlabuilder.XlaComputation
	options     CompileOptions
}

func newCompileConfig(client *Client) *CompileConfig {
	return &CompileConfig{client: client}
}

// WithComputation configures the program to compile.
//
// It panics if called more than once.
//
// It returns itself (CompileConfig) to allow cascading configuration calls.
func (cc *CompileConfig) WithComputation(computation *xlabuilder.XlaComputation) *CompileConfig {
	if cc.computation != nil {
		exceptions.Panicf("pjrt.Client.Compile() was given the program more than once using WithComputation")
	}
	cc.computation = computation
	return cc
}

// WithDisabledPasses lists compilation passes (by name) that must not be run. It can be called more than once.
//
// It returns itself (CompileConfig) to allow cascading configuration calls.
func (cc *CompileConfig) WithDisabledPasses(passes ...string) *CompileConfig {
	for _, pass := range passes {
		if !slices.Contains(cc.options.DisabledPasses, pass) {
			cc.options.DisabledPasses = append(cc.options.DisabledPasses, pass)
		}
	}
	return cc
}

// Done triggers the compilation of the program. If the compilation succeeds a LoadedExecutable is returned, otherwise
// an error is returned.
func (cc *CompileConfig) Done() (*LoadedExecutable, error) {
	if cc.client == nil {
		return nil, errors.New("misconfigured CompileConfig, or an attempt of using it more than once, which is not supported -- call Client.Compile() again")
	}
	client := cc.client
	// CompileConfig can only be used once.
	cc.client = nil

	if err := client.checkValid(); err != nil {
		return nil, err
	}
	if cc.computation.IsNil() {
		return nil, errors.New("no program given to Client.Compile(), use Client.Compile().WithComputation() " +
			"to specify a program, before calling Done()")
	}
	if klog.V(2).Enabled() {
		klog.Infof("pjrt: compiling (disabled passes %q):\n%s", cc.options.DisabledPasses, cc.computation.TextHLO())
	}
	exec, err := client.engine.Compile(cc.computation, cc.options)
	if err != nil {
		return nil, errors.WithMessagef(err, "failed to compile computation %q on %s", cc.computation.Name(), client)
	}
	return newLoadedExecutable(client, cc.computation, exec), nil
}
