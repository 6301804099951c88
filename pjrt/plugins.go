package pjrt

import (
	"fmt"
	"maps"
	"slices"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

// Plugin represents a registered platform, from which clients are created.
type Plugin struct {
	name string
	api  PluginAPI
}

var (
	// PluginAliases maps alternative names to the name of registered plugins.
	PluginAliases = map[string]string{
		"host":      "interpreter",
		"reference": "interpreter",
	}

	// registeredPlugins caches the plugins already registered. Protected by muPlugins.
	registeredPlugins = make(map[string]*Plugin)
	muPlugins         sync.Mutex
)

// RegisterPlugin makes a platform available under the given name. Names are case-insensitive.
//
// It is usually called from the init() function of the platform's package.
// It returns an error if a plugin with the same name is already registered.
func RegisterPlugin(name string, api PluginAPI) error {
	name = strings.ToLower(name)
	if name == "" || api == nil {
		return errors.Errorf("RegisterPlugin(%q) requires a name and a non-nil PluginAPI", name)
	}
	muPlugins.Lock()
	defer muPlugins.Unlock()
	if _, found := registeredPlugins[name]; found {
		return errors.Errorf("plugin %q already registered", name)
	}
	registeredPlugins[name] = &Plugin{name: name, api: api}
	klog.V(1).Infof("pjrt: registered plugin %q", name)
	return nil
}

// GetPlugin returns the plugin registered with the given name (or alias). It's a singleton per name.
//
// It returns an error listing the available plugins if none is found.
func GetPlugin(name string) (*Plugin, error) {
	name = strings.ToLower(name)
	muPlugins.Lock()
	defer muPlugins.Unlock()
	if plugin, found := registeredPlugins[name]; found {
		return plugin, nil
	}
	if aliased, found := PluginAliases[name]; found {
		if plugin, found := registeredPlugins[aliased]; found {
			return plugin, nil
		}
	}
	return nil, errors.Errorf("plugin %q not found, available plugins: %q -- did you forget to import the platform "+
		"package (e.g.: `import _ \"github.com/gomlx/xlatest/pjrt/interpreter\"`)?",
		name, slices.Sorted(maps.Keys(registeredPlugins)))
}

// AvailablePlugins returns the sorted names of the registered plugins.
func AvailablePlugins() []string {
	muPlugins.Lock()
	defer muPlugins.Unlock()
	return slices.Sorted(maps.Keys(registeredPlugins))
}

// Name returns the name of the plugin, usually the platform it executes on.
func (p *Plugin) Name() string {
	return p.name
}

// Version returns the version of the platform.
func (p *Plugin) Version() (major, minor int) {
	return p.api.Version()
}

// String implements fmt.Stringer.
func (p *Plugin) String() string {
	major, minor := p.Version()
	return fmt.Sprintf("PJRT %q plugin v%d.%d", p.Name(), major, minor)
}

// NewClient creates a new Client object to manage the platform's buffers and executables.
// Options are passed as is to the platform.
func (p *Plugin) NewClient(options NamedValuesMap) (*Client, error) {
	return newClient(p, options)
}
