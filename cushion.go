// Package cushion reshapes the JSON responses of outbound HTTP calls into the
// shapes application code expects.
//
// Rules ("cushions") are registered per URL pattern. Once activated, a
// Cushion wraps the Transport of an *http.Client: successful JSON responses
// whose URL matches a rule are absorbed through the rule's field mapping
// before the caller reads them. Anything else passes through untouched, and
// any failure while reshaping hands back the original bytes.
package cushion

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sort"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/jhlee0409/cushion/internal/config"
	"github.com/jhlee0409/cushion/internal/core"
	"github.com/jhlee0409/cushion/internal/core/interceptor"
	"github.com/jhlee0409/cushion/internal/core/mapping"
	"github.com/jhlee0409/cushion/internal/core/plugin"
	"github.com/jhlee0409/cushion/internal/core/processors"
	"github.com/jhlee0409/cushion/internal/core/registry"
	"github.com/jhlee0409/cushion/internal/metrics"
	"github.com/jhlee0409/cushion/internal/pkg/logger"
)

type (
	Mapping       = mapping.Mapping
	Field         = mapping.Field
	TransformFunc = mapping.TransformFunc
	MapperFunc    = mapping.MapperFunc
	Rule          = registry.Rule
	Condition     = registry.Condition
	Plugin        = plugin.Plugin
	Host          = plugin.Host
	CallContext   = core.CallContext
	RequestHook   = core.RequestHook
	ResponseHook  = core.ResponseHook
	AbsorbHook    = core.AbsorbHook

	Rules      = config.Rules
	RuleConfig = config.RuleConfig

	Recorder           = metrics.Recorder
	Outcome            = metrics.Outcome
	NoopRecorder       = metrics.NoopRecorder
	PrometheusRecorder = metrics.PrometheusRecorder
)

const (
	OutcomeAbsorbed    = metrics.OutcomeAbsorbed
	OutcomeFallback    = metrics.OutcomeFallback
	OutcomePassthrough = metrics.OutcomePassthrough
	OutcomeErrorStatus = metrics.OutcomeErrorStatus
	OutcomeNotJSON     = metrics.OutcomeNotJSON
	OutcomeNoRule      = metrics.OutcomeNoRule
	OutcomeFailed      = metrics.OutcomeFailed
)

// ErrUnsupportedRule is returned by SetupCushion for values that are neither
// a Rule nor a mapping.
var ErrUnsupportedRule = errors.New("cushion: rule must be a Rule, Mapping or map[string]string")

// ErrInvalidRule wraps every failure to turn a RuleConfig into a Rule.
var ErrInvalidRule = config.ErrInvalidRule

// Path maps an output key to a dot path in the source object.
func Path(p string) Field { return mapping.Path(p) }

// Func maps an output key to the result of fn applied to the source object.
func Func(fn TransformFunc) Field { return mapping.Func(fn) }

// Mapper maps an output key through the named custom mapper.
func Mapper(name, path string) Field { return mapping.Mapper(name, path) }

// FromPaths builds a Mapping of path fields.
func FromPaths(paths map[string]string) Mapping { return mapping.FromPaths(paths) }

// PluginFunc adapts a name and an install function into a Plugin.
func PluginFunc(name string, install func(Host) error) Plugin { return plugin.Func(name, install) }

// RequestLogger returns the built-in plugin that logs every intercepted call.
func RequestLogger() Plugin { return processors.NewRequestLogger() }

// PIIGuard returns the built-in plugin that redacts personal data from
// absorbed values. With no paths the whole value is scanned.
func PIIGuard(paths ...string) Plugin { return processors.NewPIIGuard(paths...) }

// NewPrometheusRecorder registers the cushion collectors on reg.
func NewPrometheusRecorder(reg prometheus.Registerer) *PrometheusRecorder {
	return metrics.NewPrometheusRecorder(reg)
}

// Cushion owns one rule registry, hook pipeline, plugin set and interceptor.
type Cushion struct {
	log         *zap.Logger
	engine      *mapping.Engine
	registry    *registry.Registry
	pipeline    *core.Pipeline
	plugins     *plugin.Registry
	interceptor *interceptor.Interceptor
}

type options struct {
	log      *zap.Logger
	client   *http.Client
	recorder Recorder
}

// Option configures a Cushion.
type Option func(*options)

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) { o.log = l }
}

// WithClient sets the client whose Transport Activate wraps. The default is
// http.DefaultClient.
func WithClient(c *http.Client) Option {
	return func(o *options) { o.client = c }
}

// WithRecorder sets the metrics recorder.
func WithRecorder(r Recorder) Option {
	return func(o *options) { o.recorder = r }
}

// New creates an inactive Cushion with no rules.
func New(opts ...Option) *Cushion {
	o := options{client: http.DefaultClient, recorder: NoopRecorder{}}
	for _, opt := range opts {
		opt(&o)
	}
	log := logger.OrNop(o.log)

	c := &Cushion{
		log:      log,
		engine:   mapping.NewEngine(mapping.WithLogger(log)),
		registry: registry.New(log),
		pipeline: core.NewPipeline(log),
		plugins:  plugin.NewRegistry(log),
	}
	if o.recorder != nil {
		recorder := o.recorder
		c.pipeline.SetFailureObserver(func(kind core.HookKind) {
			recorder.IncHookFailure(string(kind))
		})
	}
	c.interceptor = interceptor.New(c.engine, c.registry, c.pipeline,
		interceptor.WithClient(o.client),
		interceptor.WithRecorder(o.recorder),
		interceptor.WithLogger(log),
	)
	return c
}

// SetupCushion registers v under pattern. v may be a Rule, a Mapping, a
// map[string]Field or a map[string]string of paths.
func (c *Cushion) SetupCushion(pattern string, v any) error {
	var rule Rule
	switch r := v.(type) {
	case Rule:
		rule = r
	case *Rule:
		if r == nil {
			return ErrUnsupportedRule
		}
		rule = *r
	case Mapping:
		rule = Rule{Mapping: r}
	case map[string]Field:
		rule = Rule{Mapping: r}
	case map[string]string:
		rule = Rule{Mapping: mapping.FromPaths(r)}
	default:
		return fmt.Errorf("%w: got %T", ErrUnsupportedRule, v)
	}
	return c.registry.Set(pattern, rule)
}

// SetupCushions registers every entry of rules in pattern order and
// returns all failures joined.
func (c *Cushion) SetupCushions(rules map[string]any) error {
	patterns := make([]string, 0, len(rules))
	for p := range rules {
		patterns = append(patterns, p)
	}
	sort.Strings(patterns)

	var errs []error
	for _, p := range patterns {
		if err := c.SetupCushion(p, rules[p]); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", p, err))
		}
	}
	return errors.Join(errs...)
}

// RemoveCushion deletes the rule registered under pattern.
func (c *Cushion) RemoveCushion(pattern string) { c.registry.Remove(pattern) }

// ClearAll removes every rule.
func (c *Cushion) ClearAll() { c.registry.ClearAll() }

// Patterns lists the registered patterns.
func (c *Cushion) Patterns() []string { return c.registry.Patterns() }

// Lookup resolves rawURL the way the interceptor does and returns the
// governing rule and the pattern it was registered under.
func (c *Cushion) Lookup(rawURL string) (Rule, string, bool) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return Rule{}, "", false
	}
	return c.registry.Match(u)
}

// LoadRules registers declarative rules on top of the current ones.
func (c *Cushion) LoadRules(rules Rules) error {
	built, err := rules.Build()
	if err != nil {
		return err
	}
	return c.registry.SetMany(built)
}

// ReplaceRules swaps the whole rule set for rules. On error the current
// rules are kept.
func (c *Cushion) ReplaceRules(rules Rules) error {
	built, err := rules.Build()
	if err != nil {
		return err
	}
	return c.registry.Replace(built)
}

// Absorb reshapes data with m. Field failures yield null values.
func (c *Cushion) Absorb(data any, m Mapping) any { return c.engine.Absorb(data, m) }

// AbsorbStrict is Absorb that also reports every field failure.
func (c *Cushion) AbsorbStrict(data any, m Mapping) (any, error) {
	return c.engine.AbsorbStrict(data, m)
}

// Use installs p unless a plugin with the same name is already installed.
// It reports whether p was installed.
func (c *Cushion) Use(p Plugin) (bool, error) { return c.plugins.Use(p, c) }

// RemovePlugin forgets the plugin registered under name. Hooks it installed
// stay in place until Reset.
func (c *Cushion) RemovePlugin(name string) bool { return c.plugins.Remove(name) }

// Plugins lists installed plugin names in install order.
func (c *Cushion) Plugins() []string { return c.plugins.Names() }

// OnRequest appends a request hook.
func (c *Cushion) OnRequest(h RequestHook) { c.pipeline.OnRequest(h) }

// OnResponse appends a response hook.
func (c *Cushion) OnResponse(h ResponseHook) { c.pipeline.OnResponse(h) }

// OnAbsorb appends an absorb hook.
func (c *Cushion) OnAbsorb(h AbsorbHook) { c.pipeline.OnAbsorb(h) }

// AddMapper registers a named custom mapper usable through Mapper fields.
func (c *Cushion) AddMapper(name string, fn MapperFunc) error {
	return c.engine.Mappers().Register(name, fn)
}

// Activate wraps the client's Transport. Calling it while active does
// nothing.
func (c *Cushion) Activate() { c.interceptor.Activate() }

// Deactivate restores the Transport captured by Activate.
func (c *Cushion) Deactivate() { c.interceptor.Deactivate() }

// IsActive reports whether the client's Transport is wrapped.
func (c *Cushion) IsActive() bool { return c.interceptor.IsActive() }

// Transport returns a RoundTripper that applies this Cushion over base
// without touching any client. A nil base means http.DefaultTransport.
func (c *Cushion) Transport(base http.RoundTripper) http.RoundTripper {
	return c.interceptor.Wrap(base)
}

// Reset deactivates and drops every rule, plugin, hook and custom mapper.
// Built-in mappers are restored.
func (c *Cushion) Reset() {
	c.interceptor.Deactivate()
	c.registry.ClearAll()
	c.plugins.Clear()
	c.pipeline.Reset()
	c.engine.ResetMappers()
	c.log.Debug("cushion reset")
}
