// Package interceptor reshapes JSON responses of outbound HTTP calls.
//
// An Interceptor swaps the Transport of an *http.Client for one that runs
// every call through the hook pipeline, resolves the governing rule and
// absorbs the response body with the mapping engine.
package interceptor

import (
	"net/http"
	"sync"

	"go.uber.org/zap"

	"github.com/jhlee0409/cushion/internal/core"
	"github.com/jhlee0409/cushion/internal/core/mapping"
	"github.com/jhlee0409/cushion/internal/core/registry"
	"github.com/jhlee0409/cushion/internal/metrics"
	"github.com/jhlee0409/cushion/internal/pkg/logger"
)

// Interceptor is either inactive (the client is untouched) or active (the
// client's Transport is replaced by a wrapping transport).
type Interceptor struct {
	engine   *mapping.Engine
	registry *registry.Registry
	pipeline *core.Pipeline
	recorder metrics.Recorder
	log      *zap.Logger

	mu       sync.Mutex
	client   *http.Client
	active   bool
	original http.RoundTripper
}

// Option configures an Interceptor.
type Option func(*Interceptor)

// WithClient sets the client whose Transport is swapped on activation.
// The default is http.DefaultClient.
func WithClient(c *http.Client) Option {
	return func(i *Interceptor) { i.client = c }
}

// WithRecorder sets the metrics recorder.
func WithRecorder(r metrics.Recorder) Option {
	return func(i *Interceptor) { i.recorder = r }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(i *Interceptor) { i.log = l }
}

// New creates an inactive Interceptor.
func New(engine *mapping.Engine, reg *registry.Registry, pipeline *core.Pipeline, opts ...Option) *Interceptor {
	i := &Interceptor{
		engine:   engine,
		registry: reg,
		pipeline: pipeline,
		recorder: metrics.NoopRecorder{},
		client:   http.DefaultClient,
	}
	for _, opt := range opts {
		opt(i)
	}
	i.log = logger.Component(i.log, "interceptor")
	if i.recorder == nil {
		i.recorder = metrics.NoopRecorder{}
	}
	return i
}

// Activate captures the client's current Transport and installs the
// wrapping transport over it. Calling it while active does nothing.
func (i *Interceptor) Activate() {
	i.mu.Lock()
	defer i.mu.Unlock()

	if i.active {
		return
	}
	i.original = i.client.Transport
	i.client.Transport = i.Wrap(i.original)
	i.active = true
	i.log.Info("interceptor activated")
}

// Deactivate restores exactly the Transport captured by the last
// Activate. Calling it while inactive does nothing.
func (i *Interceptor) Deactivate() {
	i.mu.Lock()
	defer i.mu.Unlock()

	if !i.active {
		return
	}
	i.client.Transport = i.original
	i.original = nil
	i.active = false
	i.log.Info("interceptor deactivated")
}

// IsActive reports whether the client's Transport is currently wrapped.
func (i *Interceptor) IsActive() bool {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.active
}

// Wrap returns a RoundTripper that runs the interception pipeline over
// base. A nil base means http.DefaultTransport.
func (i *Interceptor) Wrap(base http.RoundTripper) http.RoundTripper {
	return &transport{interceptor: i, base: base}
}
