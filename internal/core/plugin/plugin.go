// Package plugin tracks installed extensions. A plugin installs hooks and
// custom mappers through a Host when it is first used.
package plugin

import (
	"errors"

	"github.com/jhlee0409/cushion/internal/core"
	"github.com/jhlee0409/cushion/internal/core/mapping"
)

var ErrInvalidPlugin = errors.New("plugin needs a non-empty name")

// Host is the surface a plugin installs itself into.
type Host interface {
	OnRequest(h core.RequestHook)
	OnResponse(h core.ResponseHook)
	OnAbsorb(h core.AbsorbHook)
	AddMapper(name string, fn mapping.MapperFunc) error
}

// Plugin is an extension identified by name.
type Plugin interface {
	// Name is the unique plugin identifier.
	Name() string
	// Install registers the plugin's hooks on host. It must not call back
	// into the registry that is installing it.
	Install(host Host) error
}

// Func adapts a name and an install function into a Plugin.
func Func(name string, install func(Host) error) Plugin {
	return funcPlugin{name: name, install: install}
}

type funcPlugin struct {
	name    string
	install func(Host) error
}

func (f funcPlugin) Name() string { return f.name }

func (f funcPlugin) Install(host Host) error {
	if f.install == nil {
		return nil
	}
	return f.install(host)
}
