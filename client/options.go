package client

import (
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/gomlx/xlatest/xlabuilder"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

// XLAFlagsEnv is the environment variable read by CreateDefaultExecutionOptions.
const XLAFlagsEnv = "XLA_FLAGS"

// DebugOptions control compilation and testing behavior.
type DebugOptions struct {
	// DisableHLOPasses lists compilation passes to skip (e.g.: "constant_folding").
	DisableHLOPasses []string

	// TestAllOutputLayouts makes layout-sweeping comparisons execute once per possible output layout.
	TestAllOutputLayouts bool

	// TestAllInputLayouts makes layout-sweeping comparisons execute once per combination of input layouts.
	TestAllInputLayouts bool
}

// ExecutionOptions configure Client.Execute.
//
// It's a value type: the With* methods return modified copies, and never change the receiver.
type ExecutionOptions struct {
	Debug DebugOptions

	// ShapeWithOutputLayout, if set, must match the result shape, and its layout is used for the result.
	ShapeWithOutputLayout *xlabuilder.Shape
}

// Clone returns a deep copy of the options.
func (o ExecutionOptions) Clone() ExecutionOptions {
	o.Debug.DisableHLOPasses = slices.Clone(o.Debug.DisableHLOPasses)
	if o.ShapeWithOutputLayout != nil {
		shape := o.ShapeWithOutputLayout.Clone()
		o.ShapeWithOutputLayout = &shape
	}
	return o
}

// WithShapeWithOutputLayout returns a copy of the options with the output shape (and layout) set.
// A nil shape clears it.
func (o ExecutionOptions) WithShapeWithOutputLayout(shape *xlabuilder.Shape) ExecutionOptions {
	o = o.Clone()
	o.ShapeWithOutputLayout = nil
	if shape != nil {
		s := shape.Clone()
		o.ShapeWithOutputLayout = &s
	}
	return o
}

// WithDisabledPasses returns a copy of the options with the given passes added to the list of disabled passes.
func (o ExecutionOptions) WithDisabledPasses(passes ...string) ExecutionOptions {
	o = o.Clone()
	for _, pass := range passes {
		if !slices.Contains(o.Debug.DisableHLOPasses, pass) {
			o.Debug.DisableHLOPasses = append(o.Debug.DisableHLOPasses, pass)
		}
	}
	return o
}

// WithTestAllOutputLayouts returns a copy of the options with Debug.TestAllOutputLayouts set.
func (o ExecutionOptions) WithTestAllOutputLayouts(enabled bool) ExecutionOptions {
	o = o.Clone()
	o.Debug.TestAllOutputLayouts = enabled
	return o
}

// WithTestAllInputLayouts returns a copy of the options with Debug.TestAllInputLayouts set.
func (o ExecutionOptions) WithTestAllInputLayouts(enabled bool) ExecutionOptions {
	o = o.Clone()
	o.Debug.TestAllInputLayouts = enabled
	return o
}

// String implements fmt.Stringer.
func (o ExecutionOptions) String() string {
	output := "<none>"
	if o.ShapeWithOutputLayout != nil {
		output = o.ShapeWithOutputLayout.HumanStringWithLayout()
	}
	return fmt.Sprintf("ExecutionOptions{output=%s, disabled_passes=%q, all_output_layouts=%v, all_input_layouts=%v}",
		output, o.Debug.DisableHLOPasses, o.Debug.TestAllOutputLayouts, o.Debug.TestAllInputLayouts)
}

// CreateDefaultExecutionOptions returns the options configured by $XLA_FLAGS.
// Malformed flags are logged and ignored.
func CreateDefaultExecutionOptions() ExecutionOptions {
	options, err := ParseXLAFlags(os.Getenv(XLAFlagsEnv))
	if err != nil {
		klog.Warningf("ignoring malformed $%s: %v", XLAFlagsEnv, err)
	}
	return options
}

// ParseXLAFlags parses the flags in the format of $XLA_FLAGS: space separated "--name" or "--name=value".
//
// Supported flags are --xla_test_all_output_layouts, --xla_test_all_input_layouts (booleans) and
// --xla_disable_hlo_passes (comma separated list). Other flags are ignored.
// Options parsed until the first error are returned along with the error.
func ParseXLAFlags(flags string) (ExecutionOptions, error) {
	var options ExecutionOptions
	for _, arg := range strings.Fields(flags) {
		name, value, hasValue := strings.Cut(strings.TrimLeft(arg, "-"), "=")
		switch name {
		case "xla_test_all_output_layouts", "xla_test_all_input_layouts":
			enabled := true
			if hasValue {
				var err error
				enabled, err = strconv.ParseBool(value)
				if err != nil {
					return options, errors.Wrapf(err, "invalid value for --%s", name)
				}
			}
			if name == "xla_test_all_output_layouts" {
				options.Debug.TestAllOutputLayouts = enabled
			} else {
				options.Debug.TestAllInputLayouts = enabled
			}
		case "xla_disable_hlo_passes":
			if !hasValue {
				return options, errors.Errorf("--%s requires a value", name)
			}
			for _, pass := range strings.Split(value, ",") {
				if pass = strings.TrimSpace(pass); pass != "" {
					options = options.WithDisabledPasses(pass)
				}
			}
		default:
			klog.V(2).Infof("%s: ignoring %q", XLAFlagsEnv, arg)
		}
	}
	return options, nil
}
