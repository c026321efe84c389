package plugin

import (
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/jhlee0409/cushion/internal/pkg/logger"
)

// Registry records which plugins have been installed.
//
// Unlike cushion rules, plugins are not overwritten: using a plugin whose
// name is already installed logs a warning and does nothing, so its hooks
// never fire twice. Remove only forgets the name; hooks the plugin
// registered stay in place.
type Registry struct {
	mu      sync.Mutex
	plugins map[string]Plugin
	order   []string
	log     *zap.Logger
}

// NewRegistry creates an empty plugin registry.
func NewRegistry(log *zap.Logger) *Registry {
	return &Registry{
		plugins: make(map[string]Plugin),
		log:     logger.Component(log, "plugin"),
	}
}

// Use installs p into host unless a plugin with the same name is already
// installed. It reports whether p was installed. A plugin whose Install
// fails is not recorded.
func (r *Registry) Use(p Plugin, host Host) (bool, error) {
	if p == nil || p.Name() == "" {
		return false, ErrInvalidPlugin
	}
	name := p.Name()

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.plugins[name]; exists {
		r.log.Warn("plugin already installed, skipping", logger.Plugin(name))
		return false, nil
	}

	if err := p.Install(host); err != nil {
		return false, fmt.Errorf("failed to install plugin %s: %w", name, err)
	}

	r.plugins[name] = p
	r.order = append(r.order, name)
	r.log.Debug("plugin installed", logger.Plugin(name))
	return true, nil
}

// Remove forgets the plugin registered under name.
func (r *Registry) Remove(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.plugins[name]; !ok {
		return false
	}
	delete(r.plugins, name)
	for i, n := range r.order {
		if n == name {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return true
}

// Has reports whether a plugin named name is installed.
func (r *Registry) Has(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.plugins[name]
	return ok
}

// Names lists installed plugins in installation order.
func (r *Registry) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Clear forgets every plugin.
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.plugins = make(map[string]Plugin)
	r.order = nil
}
