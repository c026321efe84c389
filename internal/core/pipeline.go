package core

import (
	"fmt"
	"net/http"
	"slices"
	"sync"

	"go.uber.org/zap"

	"github.com/jhlee0409/cushion/internal/core/mapping"
	"github.com/jhlee0409/cushion/internal/pkg/logger"
)

// FailureObserver is told about every hook that failed.
type FailureObserver func(kind HookKind)

// Pipeline holds the three ordered hook sequences. Hooks run in
// registration order; a failing hook is logged and skipped, and for the
// reducing sequences the previous value carries on to the next hook.
type Pipeline struct {
	mu       sync.RWMutex
	request  []RequestHook
	response []ResponseHook
	absorb   []AbsorbHook

	log       *zap.Logger
	onFailure FailureObserver
}

// NewPipeline creates an empty pipeline.
func NewPipeline(log *zap.Logger) *Pipeline {
	return &Pipeline{log: logger.Component(log, "hooks")}
}

// SetFailureObserver installs fn to be called whenever a hook fails.
func (p *Pipeline) SetFailureObserver(fn FailureObserver) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.onFailure = fn
}

// OnRequest appends a request hook.
func (p *Pipeline) OnRequest(h RequestHook) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.request = append(p.request, h)
}

// OnResponse appends a raw-response hook.
func (p *Pipeline) OnResponse(h ResponseHook) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.response = append(p.response, h)
}

// OnAbsorb appends an absorb hook.
func (p *Pipeline) OnAbsorb(h AbsorbHook) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.absorb = append(p.absorb, h)
}

// ExecuteRequest runs every request hook; return values are ignored.
func (p *Pipeline) ExecuteRequest(ctx *CallContext, req *http.Request) {
	p.mu.RLock()
	hooks := slices.Clone(p.request)
	p.mu.RUnlock()

	fold(p, ctx, HookRequest, hooks, nil, func(h RequestHook, acc any) (any, error) {
		return acc, h(ctx, req)
	})
}

// ExecuteResponse folds data through the raw-response hooks.
func (p *Pipeline) ExecuteResponse(ctx *CallContext, data any) any {
	p.mu.RLock()
	hooks := slices.Clone(p.response)
	p.mu.RUnlock()

	return fold(p, ctx, HookResponse, hooks, data, func(h ResponseHook, acc any) (any, error) {
		return h(ctx, acc)
	})
}

// ExecuteAbsorb folds the absorbed data through the absorb hooks.
func (p *Pipeline) ExecuteAbsorb(ctx *CallContext, data any, m mapping.Mapping) any {
	p.mu.RLock()
	hooks := slices.Clone(p.absorb)
	p.mu.RUnlock()

	return fold(p, ctx, HookAbsorb, hooks, data, func(h AbsorbHook, acc any) (any, error) {
		return h(ctx, acc, m)
	})
}

// Len returns the number of hooks registered for kind.
func (p *Pipeline) Len(kind HookKind) int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	switch kind {
	case HookRequest:
		return len(p.request)
	case HookResponse:
		return len(p.response)
	case HookAbsorb:
		return len(p.absorb)
	default:
		return 0
	}
}

// Reset removes every hook.
func (p *Pipeline) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.request = nil
	p.response = nil
	p.absorb = nil
}

// fold threads acc through hooks, treating a failing hook as identity.
func fold[H any](p *Pipeline, ctx *CallContext, kind HookKind, hooks []H, seed any, call func(H, any) (any, error)) any {
	acc := seed
	for i, h := range hooks {
		next, err := invoke(func() (any, error) { return call(h, acc) })
		if err != nil {
			p.fail(ctx, kind, i, err)
			continue
		}
		acc = next
	}
	return acc
}

func invoke(fn func() (any, error)) (value any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("hook panicked: %v", r)
		}
	}()
	return fn()
}

func (p *Pipeline) fail(ctx *CallContext, kind HookKind, index int, err error) {
	log := p.log
	if ctx != nil {
		log = log.With(logger.RequestID(ctx.RequestID), logger.URL(ctx.URL))
	}
	log.Error("hook failed", logger.Hook(string(kind)), zap.Int("index", index), zap.Error(err))

	p.mu.RLock()
	observer := p.onFailure
	p.mu.RUnlock()
	if observer != nil {
		observer(kind)
	}
}
