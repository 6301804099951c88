// run_fixture is a small testing program that prints one of the scalar fixture computations and executes it
// on the given float32 inputs.
package main

import (
	"flag"
	"fmt"
	"maps"
	"os"
	"slices"
	"strconv"

	"github.com/gomlx/xlatest/client"
	"github.com/gomlx/xlatest/clienttest"
	"github.com/gomlx/xlatest/pjrt"
	_ "github.com/gomlx/xlatest/pjrt/interpreter"
	"github.com/gomlx/xlatest/xlabuilder"
	"github.com/janpfeifer/must"
	"k8s.io/klog/v2"
)

var (
	flagPlatform = flag.String("platform", "", "Platform (PJRT plugin) name. If empty uses $"+client.PlatformEnv+" or "+client.DefaultPlatform)
	flagFixture  = flag.String("fixture", "relu", "Fixture to execute: relu, max or relu_sensitivity")
	flagHLO      = flag.Bool("hlo", false, "Print the text HLO of the fixture")
)

var fixtures = map[string]func() *xlabuilder.XlaComputation{
	"relu":             clienttest.CreateScalarRelu,
	"max":              clienttest.CreateScalarMax,
	"relu_sensitivity": clienttest.CreateScalarReluSensitivity,
}

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, `run_fixture will build one of the scalar fixture computations and execute it.

$ run_fixture -fixture=max <x> <y>

The execution options (disabled passes) are read from $%s.

Usage:
`, client.XLAFlagsEnv)
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nPlugins available: %v\n", pjrt.AvailablePlugins())
	}
	klog.InitFlags(flag.CommandLine)
	flag.Parse()

	newFixture, found := fixtures[*flagFixture]
	if !found {
		fmt.Fprintf(os.Stderr, "Unknown fixture %q, valid values are %v\n\n", *flagFixture, slices.Sorted(maps.Keys(fixtures)))
		flag.Usage()
		os.Exit(1)
	}
	computation := newFixture()
	if *flagHLO {
		fmt.Println(computation.TextHLO())
	}
	if flag.NArg() != computation.NumParameters() {
		fmt.Fprintf(os.Stderr, "Fixture %q takes %d float32 inputs, %d given.\n\n", *flagFixture, computation.NumParameters(), flag.NArg())
		flag.Usage()
		os.Exit(1)
	}

	c := clienttest.GetOrCreateLocalClientOrDie(client.LocalClientOptions{Platform: *flagPlatform})
	options := client.CreateDefaultExecutionOptions()
	args := make([]*client.GlobalData, flag.NArg())
	for ii, arg := range flag.Args() {
		value := float32(must.M1(strconv.ParseFloat(arg, 32)))
		args[ii] = must.M1(c.TransferToServer(xlabuilder.NewScalarLiteral(value)))
	}
	result := must.M1(c.ExecuteAndTransfer(computation, args, options))
	fmt.Printf("\t%s%v = %s\n", computation.Name(), flag.Args(), result)
	for _, arg := range args {
		must.M(arg.Destroy())
	}
}
