package pjrt_test

import (
	"testing"

	"github.com/gomlx/xlatest/dtypes"
	. "github.com/gomlx/xlatest/pjrt"
	_ "github.com/gomlx/xlatest/pjrt/interpreter"
	"github.com/gomlx/xlatest/xlabuilder"
	"github.com/janpfeifer/must"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"k8s.io/klog/v2"
)

func init() {
	klog.InitFlags(nil)
}

func getClient(t *testing.T) *Client {
	plugin, err := GetPlugin("interpreter")
	require.NoError(t, err)
	client, err := plugin.NewClient(nil)
	require.NoError(t, err)
	return client
}

// buildNegation returns the computation f(x) = -x for x of the given shape.
func buildNegation(t *testing.T, shape xlabuilder.Shape) *xlabuilder.XlaComputation {
	builder := xlabuilder.New("negation")
	x := must.M1(xlabuilder.Parameter(builder, "x", 0, shape))
	comp, err := builder.Build(must.M1(xlabuilder.Neg(x)))
	require.NoError(t, err)
	return comp
}

func TestPlugins(t *testing.T) {
	for _, name := range []string{"interpreter", "Interpreter", "host", "reference"} {
		plugin, err := GetPlugin(name)
		require.NoError(t, err, "plugin %q", name)
		assert.Equal(t, "interpreter", plugin.Name())
		assert.Equal(t, `PJRT "interpreter" plugin v0.1`, plugin.String())
	}

	_, err := GetPlugin("tpu_v9")
	require.ErrorContains(t, err, `plugin "tpu_v9" not found`)
	require.ErrorContains(t, err, "interpreter")

	plugin := must.M1(GetPlugin("interpreter"))
	require.Error(t, RegisterPlugin("interpreter", nil))
	require.Same(t, plugin, must.M1(GetPlugin("host")))
}

func TestNamedValuesMap(t *testing.T) {
	options := NamedValuesMap{"b": int64(1), "a": "x", "c": []int64{1, 2}}
	require.NoError(t, options.Validate())
	assert.Equal(t, "{a=x, b=1, c=[1 2]}", options.String())

	options["d"] = 1 // Plain int is not supported.
	require.ErrorContains(t, options.Validate(), `"d"`)

	plugin := must.M1(GetPlugin("interpreter"))
	_, err := plugin.NewClient(options)
	require.Error(t, err)
}

func TestClient(t *testing.T) {
	client := getClient(t)
	require.True(t, client.IsValid())
	assert.Equal(t, "interpreter", client.Platform())
	assert.Contains(t, client.String(), `plugin="interpreter"`)

	require.NoError(t, client.Destroy())
	require.False(t, client.IsValid())
	require.NoError(t, client.Destroy()) // Second time is a no-op.
	_, err := client.Compile().WithComputation(buildNegation(t, xlabuilder.MakeShape(dtypes.F32))).Done()
	require.Error(t, err)
}

func TestBuffers(t *testing.T) {
	client := getClient(t)
	aliveBefore := BuffersAlive()

	buffer, err := ArrayToBuffer(client, []float32{1, 2, 3, 4, 5, 6}, 2, 3)
	require.NoError(t, err)
	require.Equal(t, aliveBefore+1, BuffersAlive())
	dims, err := buffer.Dimensions()
	require.NoError(t, err)
	assert.Equal(t, []int{2, 3}, dims)
	dtype, err := buffer.DType()
	require.NoError(t, err)
	assert.Equal(t, dtypes.Float32, dtype)
	assert.Same(t, client, buffer.Client())

	flat, dims, err := BufferToArray[float32](buffer)
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 2, 3, 4, 5, 6}, flat)
	assert.Equal(t, []int{2, 3}, dims)

	// Transfer back with a column-major layout: the physical data changes, the logical values don't.
	colMajor, err := buffer.ToLiteralWithLayout(xlabuilder.MakeLayout(0, 1))
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 4, 2, 5, 3, 6}, colMajor.Data())
	assert.Equal(t, float32(4), colMajor.Value(1, 0))

	require.NoError(t, buffer.Destroy())
	require.NoError(t, buffer.Destroy())
	require.False(t, buffer.IsValid())
	require.Equal(t, aliveBefore, BuffersAlive())
	_, err = buffer.ToLiteral()
	require.ErrorContains(t, err, "destroyed")

	scalar, err := ScalarToBuffer(client, int32(7))
	require.NoError(t, err)
	value, err := BufferToScalar[int32](scalar)
	require.NoError(t, err)
	assert.Equal(t, int32(7), value)
	_, err = BufferToScalar[float32](scalar)
	require.Error(t, err)
	require.NoError(t, scalar.Destroy())
}

func TestBufferFromHostWithLayout(t *testing.T) {
	client := getClient(t)
	literal := must.M1(xlabuilder.NewArrayLiteral([]int32{1, 2, 3, 4, 5, 6}, 2, 3))
	buffer, err := client.BufferFromHost().FromLiteral(literal).WithLayout(xlabuilder.MakeLayout(0, 1)).Done()
	require.NoError(t, err)
	defer func() { require.NoError(t, buffer.Destroy()) }()

	shape, err := buffer.Shape()
	require.NoError(t, err)
	assert.Equal(t, "s32[2,3]{0,1}", shape.HumanStringWithLayout())

	// The layout is preserved when transferred back.
	back, err := buffer.ToLiteral()
	require.NoError(t, err)
	assert.Equal(t, []int32{1, 4, 2, 5, 3, 6}, back.Data())

	_, err = client.BufferFromHost().FromLiteral(literal).WithLayout(xlabuilder.MakeLayout(0, 0)).Done()
	require.Error(t, err)
	_, err = client.BufferFromHost().Done()
	require.Error(t, err)
}

func TestExecute(t *testing.T) {
	client := getClient(t)
	shape := xlabuilder.MakeShape(dtypes.F32, 2, 3)
	exec, err := client.Compile().WithComputation(buildNegation(t, shape)).Done()
	require.NoError(t, err)
	assert.Equal(t, "negation", exec.Name)
	require.Len(t, exec.ParameterShapes, 1)
	assert.True(t, exec.OutputShape.Equal(shape))

	input := must.M1(ArrayToBuffer(client, []float32{1, 2, 3, 4, 5, 6}, 2, 3))
	output, err := exec.Execute(input).Done()
	require.NoError(t, err)
	flat, _, err := BufferToArray[float32](output)
	require.NoError(t, err)
	assert.Equal(t, []float32{-1, -2, -3, -4, -5, -6}, flat)

	// With an output layout.
	output, err = exec.Execute(input).WithOutputLayout(xlabuilder.MakeLayout(0, 1)).Done()
	require.NoError(t, err)
	outShape := must.M1(output.Shape())
	assert.Equal(t, "f32[2,3]{0,1}", outShape.HumanStringWithLayout())
	flat, _, err = BufferToArray[float32](output)
	require.NoError(t, err)
	assert.Equal(t, []float32{-1, -2, -3, -4, -5, -6}, flat)

	// Invalid output layout.
	_, err = exec.Execute(input).WithOutputLayout(xlabuilder.MakeLayout(2, 0)).Done()
	require.Error(t, err)

	// Input shape mismatch.
	wrongInput := must.M1(ArrayToBuffer(client, []float32{1, 2, 3}))
	_, err = exec.Execute(wrongInput).Done()
	require.ErrorContains(t, err, "f32[3]")

	// Wrong number of inputs.
	_, err = exec.Execute().Done()
	require.ErrorContains(t, err, "takes 1 parameters")

	// Destroyed input.
	require.NoError(t, input.Destroy())
	_, err = exec.Execute(input).Done()
	require.ErrorContains(t, err, "destroyed")

	// Destroyed executable.
	aliveBefore := LoadedExecutablesAlive()
	require.NoError(t, exec.Destroy())
	require.NoError(t, exec.Destroy())
	require.Equal(t, aliveBefore-1, LoadedExecutablesAlive())
	_, err = exec.Execute(wrongInput).Done()
	require.Error(t, err)
}

func TestInputFromAnotherClient(t *testing.T) {
	client1, client2 := getClient(t), getClient(t)
	exec := must.M1(client1.Compile().WithComputation(buildNegation(t, xlabuilder.MakeShape(dtypes.S64))).Done())
	input := must.M1(ScalarToBuffer(client2, int64(3)))
	_, err := exec.Execute(input).Done()
	require.ErrorContains(t, err, "different client")
}

func TestCompileConfig(t *testing.T) {
	client := getClient(t)
	comp := buildNegation(t, xlabuilder.MakeShape(dtypes.F32))
	cc := client.Compile().WithComputation(comp).WithDisabledPasses("dce", "dce", "constant_folding")
	_, err := cc.Done()
	require.NoError(t, err)
	_, err = cc.Done()
	require.ErrorContains(t, err, "more than once")

	_, err = client.Compile().Done()
	require.ErrorContains(t, err, "no program")

	require.Panics(t, func() { client.Compile().WithComputation(comp).WithComputation(comp) })
}

func TestTupleOutput(t *testing.T) {
	client := getClient(t)
	builder := xlabuilder.New("pair")
	x := must.M1(xlabuilder.Parameter(builder, "x", 0, xlabuilder.MakeShape(dtypes.F64)))
	comp := must.M1(builder.Build(must.M1(xlabuilder.Tuple(x, must.M1(xlabuilder.Abs(x))))))
	exec := must.M1(client.Compile().WithComputation(comp).Done())
	input := must.M1(ScalarToBuffer(client, -2.0))

	output, err := exec.Execute(input).Done()
	require.NoError(t, err)
	literal := must.M1(output.ToLiteral())
	require.True(t, literal.IsTuple())
	assert.Equal(t, "(f64[] -2, f64[] 2)", literal.String())

	_, err = output.ToLiteralWithLayout(xlabuilder.MakeLayout(0))
	require.Error(t, err)
	_, err = exec.Execute(input).WithOutputLayout(xlabuilder.MakeLayout(0)).Done()
	require.Error(t, err)
	_, err = exec.Execute(input).WithOutputLayout(xlabuilder.Layout{}).Done()
	require.NoError(t, err)
}
