// Package client is the client library layer on top of pjrt: it creates (and caches) local clients per platform,
// transfers literals to and from the platform as GlobalData handles, and executes computations with
// ExecutionOptions.
//
// Example:
//
//	c, err := client.GetOrCreateLocalClient(client.LocalClientOptions{})
//	data, err := c.TransferToServer(literal)
//	result, err := c.ExecuteAndTransfer(computation, []*client.GlobalData{data}, client.CreateDefaultExecutionOptions())
package client

import (
	"os"
	"strings"
	"sync"

	"github.com/gomlx/xlatest/pjrt"
	"github.com/gomlx/xlatest/xlabuilder"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

// PlatformEnv is the environment variable that, if set, overrides DefaultPlatform.
const PlatformEnv = "XLATEST_PLATFORM"

// DefaultPlatform used when LocalClientOptions.Platform is not set and PlatformEnv is empty.
var DefaultPlatform = "interpreter"

// LocalClientOptions configures GetOrCreateLocalClient.
type LocalClientOptions struct {
	// Platform name (or alias) of a registered pjrt plugin. If empty, uses $XLATEST_PLATFORM or DefaultPlatform.
	Platform string

	// PluginOptions passed to the platform when the client is first created. They are ignored if a client
	// for the platform already exists.
	PluginOptions pjrt.NamedValuesMap
}

// Client executes computations and transfers data on one platform.
type Client struct {
	pjrtClient *pjrt.Client
}

var (
	muClients    sync.Mutex
	localClients = make(map[string]*Client)
)

func platformFor(options LocalClientOptions) string {
	if options.Platform != "" {
		return options.Platform
	}
	if platform := os.Getenv(PlatformEnv); platform != "" {
		return platform
	}
	return DefaultPlatform
}

// GetOrCreateLocalClient returns the process-wide client for the platform in options, creating it on first use.
// Clients are cached per plugin, so aliases of a platform return the same client.
func GetOrCreateLocalClient(options LocalClientOptions) (*Client, error) {
	platform := platformFor(options)
	plugin, err := pjrt.GetPlugin(platform)
	if err != nil {
		return nil, errors.WithMessagef(err, "GetOrCreateLocalClient(platform=%q)", platform)
	}

	muClients.Lock()
	defer muClients.Unlock()
	key := strings.ToLower(plugin.Name())
	if c, found := localClients[key]; found && c.pjrtClient.IsValid() {
		return c, nil
	}
	pjrtClient, err := plugin.NewClient(options.PluginOptions)
	if err != nil {
		return nil, errors.WithMessagef(err, "GetOrCreateLocalClient(platform=%q)", platform)
	}
	c := &Client{pjrtClient: pjrtClient}
	localClients[key] = c
	klog.V(1).Infof("client: created local client for %s", plugin)
	return c, nil
}

// NewClient wraps an existing pjrt.Client. It's not cached.
func NewClient(pjrtClient *pjrt.Client) *Client {
	return &Client{pjrtClient: pjrtClient}
}

// PJRT returns the underlying pjrt.Client.
func (c *Client) PJRT() *pjrt.Client {
	return c.pjrtClient
}

// Platform returns the name of the platform the client executes on.
func (c *Client) Platform() string {
	return c.pjrtClient.Platform()
}

// String implements fmt.Stringer.
func (c *Client) String() string {
	return c.pjrtClient.String()
}

// TransferToServer uploads the literal to the platform, preserving its layout.
func (c *Client) TransferToServer(literal *xlabuilder.Literal) (*GlobalData, error) {
	buffer, err := c.pjrtClient.BufferFromHost().FromLiteral(literal).Done()
	if err != nil {
		return nil, errors.WithMessagef(err, "TransferToServer")
	}
	return newGlobalData(c, buffer), nil
}

// Transfer downloads the data to a literal.
//
// If shapeWithLayout is nil, the literal keeps the layout of the data. Otherwise, shapeWithLayout must match
// the shape of the data, and its layout is used (an empty layout means the default row-major layout).
func (c *Client) Transfer(data *GlobalData, shapeWithLayout *xlabuilder.Shape) (*xlabuilder.Literal, error) {
	if !data.IsValid() {
		return nil, errors.New("Transfer of nil or destroyed GlobalData")
	}
	if shapeWithLayout == nil {
		return data.buffer.ToLiteral()
	}
	shape, err := data.Shape()
	if err != nil {
		return nil, err
	}
	if !shape.Equal(*shapeWithLayout) {
		return nil, errors.Errorf("Transfer of data with shape %s requested with incompatible shape %s",
			shape.HumanString(), shapeWithLayout.HumanStringWithLayout())
	}
	if shape.IsTuple() {
		return data.buffer.ToLiteral()
	}
	return data.buffer.ToLiteralWithLayout(shapeWithLayout.Layout)
}

// Execute compiles and runs the computation with the given arguments.
//
// The options select the compilation passes to disable and, with ShapeWithOutputLayout, the layout of the
// result. The arguments are not consumed: they can be reused in other executions.
func (c *Client) Execute(computation *xlabuilder.XlaComputation, args []*GlobalData, options ExecutionOptions) (*GlobalData, error) {
	if computation.IsNil() {
		return nil, errors.New("Execute called with a nil computation")
	}
	exec, err := c.pjrtClient.Compile().
		WithComputation(computation).
		WithDisabledPasses(options.Debug.DisableHLOPasses...).
		Done()
	if err != nil {
		return nil, errors.WithMessagef(err, "Execute(%q)", computation.Name())
	}
	defer func() {
		if err := exec.Destroy(); err != nil {
			klog.Errorf("failed to destroy executable %q: %v", exec.Name, err)
		}
	}()

	buffers := make([]*pjrt.Buffer, len(args))
	for ii, arg := range args {
		if !arg.IsValid() {
			return nil, errors.Errorf("Execute(%q): argument #%d is nil or was destroyed", computation.Name(), ii)
		}
		buffers[ii] = arg.buffer
	}
	execConfig := exec.Execute(buffers...)
	if shape := options.ShapeWithOutputLayout; shape != nil {
		if !shape.Equal(exec.OutputShape) {
			return nil, errors.Errorf("Execute(%q): requested output shape %s doesn't match the result shape %s",
				computation.Name(), shape.HumanStringWithLayout(), exec.OutputShape.HumanString())
		}
		if !shape.IsTuple() {
			execConfig = execConfig.WithOutputLayout(shape.Layout)
		}
	}
	buffer, err := execConfig.Done()
	if err != nil {
		return nil, errors.WithMessagef(err, "Execute(%q)", computation.Name())
	}
	return newGlobalData(c, buffer), nil
}

// ExecuteAndTransfer executes the computation and downloads the result, in the layout requested with
// options.ShapeWithOutputLayout (or the default layout if not set).
func (c *Client) ExecuteAndTransfer(computation *xlabuilder.XlaComputation, args []*GlobalData, options ExecutionOptions) (*xlabuilder.Literal, error) {
	data, err := c.Execute(computation, args, options)
	if err != nil {
		return nil, err
	}
	defer data.destroyOrLog()
	return c.Transfer(data, nil)
}
