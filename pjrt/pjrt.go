// Package pjrt is the execution runtime used by xlatest: it loads platforms (plugins), creates clients that
// compile xlabuilder computations into LoadedExecutable objects, transfers values to/from on-device Buffer
// objects and executes the programs.
//
// Platforms implement the Engine interface and are registered with RegisterPlugin, usually on the init() of their
// package. See package pjrt/interpreter for the reference platform, enabled with:
//
//	import _ "github.com/gomlx/xlatest/pjrt/interpreter"
//
// Typical usage:
//
//	plugin := must.M1(pjrt.GetPlugin("interpreter"))
//	client := must.M1(plugin.NewClient(nil))
//	exec := must.M1(client.Compile().WithComputation(comp).Done())
//	input := must.M1(client.BufferFromHost().FromLiteral(literal).Done())
//	output := must.M1(exec.Execute(input).Done())
//	result := must.M1(output.ToLiteral())
package pjrt

import (
	"github.com/gomlx/xlatest/xlabuilder"
)

// Engine is implemented by the platforms: it compiles computations into executables.
type Engine interface {
	// Compile prepares the computation for execution.
	// Passes listed in options.DisabledPasses must not be run.
	Compile(computation *xlabuilder.XlaComputation, options CompileOptions) (Executable, error)
}

// Executable is a compiled program of an Engine.
type Executable interface {
	// Run executes the program with the given inputs, already validated to match the computation parameters.
	// Inputs may be stored in any layout. The result can be stored in any layout.
	Run(inputs []*xlabuilder.Literal) (*xlabuilder.Literal, error)
}

// PluginAPI is what a platform registers with RegisterPlugin.
type PluginAPI interface {
	// Version of the platform.
	Version() (major, minor int)

	// NewEngine creates an Engine for a new Client, configured with the given options.
	NewEngine(options NamedValuesMap) (Engine, error)
}

// CompileOptions are passed to Engine.Compile.
type CompileOptions struct {
	// DisabledPasses lists the names of the compilation passes that must be skipped.
	DisabledPasses []string
}
