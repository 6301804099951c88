// Package interpreter implements the "interpreter" platform: a pure Go reference engine that evaluates
// xlabuilder computations op by op, on the host.
//
// It registers itself as a pjrt plugin on import:
//
//	import _ "github.com/gomlx/xlatest/pjrt/interpreter"
//
// Compilation runs a small pipeline of passes (see PassNames), that can be individually disabled with
// pjrt.CompileConfig.WithDisabledPasses.
package interpreter

import (
	"github.com/gomlx/xlatest/pjrt"
	"github.com/gomlx/xlatest/xlabuilder"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

// PluginName is the name under which the interpreter is registered.
const PluginName = "interpreter"

func init() {
	if err := pjrt.RegisterPlugin(PluginName, pluginAPI{}); err != nil {
		klog.Errorf("failed to register %q plugin: %v", PluginName, err)
	}
}

type pluginAPI struct{}

// Version implements pjrt.PluginAPI.
func (pluginAPI) Version() (major, minor int) { return 0, 1 }

// NewEngine implements pjrt.PluginAPI. Options are not used.
func (pluginAPI) NewEngine(options pjrt.NamedValuesMap) (pjrt.Engine, error) {
	if len(options) > 0 {
		klog.V(1).Infof("interpreter: ignoring options %s", options)
	}
	return &Engine{}, nil
}

// Engine compiles computations into Executable objects.
type Engine struct{}

// Compile implements pjrt.Engine.
func (e *Engine) Compile(computation *xlabuilder.XlaComputation, options pjrt.CompileOptions) (pjrt.Executable, error) {
	prog, err := newProgram(computation)
	if err != nil {
		return nil, err
	}
	exec := &Executable{program: prog}
	for _, p := range passes {
		if isDisabled(p.name, options.DisabledPasses) {
			klog.V(1).Infof("interpreter: pass %q disabled for %q", p.name, prog.name)
			continue
		}
		if err := p.run(prog); err != nil {
			return nil, errors.WithMessagef(err, "pass %q failed for %q", p.name, prog.name)
		}
		exec.passesRun = append(exec.passesRun, p.name)
	}
	return exec, nil
}

func isDisabled(pass string, disabled []string) bool {
	for _, d := range disabled {
		if d == pass {
			return true
		}
	}
	return false
}
