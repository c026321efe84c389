package core

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/jhlee0409/cushion/internal/core/mapping"
)

func newTestPipeline() (*Pipeline, *observer.ObservedLogs) {
	core, logs := observer.New(zap.InfoLevel)
	return NewPipeline(zap.New(core)), logs
}

func appendStep(step string) AbsorbHook {
	return func(ctx *CallContext, data any, m mapping.Mapping) (any, error) {
		in, _ := data.(map[string]any)
		out := make(map[string]any, len(in)+1)
		for k, v := range in {
			out[k] = v
		}
		out[step] = true
		return out, nil
	}
}

func TestExecuteAbsorbFoldsInOrder(t *testing.T) {
	p, _ := newTestPipeline()
	p.OnAbsorb(appendStep("step1"))
	p.OnAbsorb(appendStep("step2"))
	p.OnAbsorb(appendStep("step3"))

	ctx := NewCallContext(context.Background(), http.MethodGet, "/api/user", nil)
	got := p.ExecuteAbsorb(ctx, map[string]any{}, mapping.Mapping{})

	assert.Equal(t, map[string]any{"step1": true, "step2": true, "step3": true}, got)
}

func TestExecuteAbsorbSeesMappingAndContext(t *testing.T) {
	p, _ := newTestPipeline()
	m := mapping.FromPaths(map[string]string{"name": "user_name"})

	var seenURL string
	var seenMapping mapping.Mapping
	p.OnAbsorb(func(ctx *CallContext, data any, m mapping.Mapping) (any, error) {
		seenURL = ctx.URL
		seenMapping = m
		return data, nil
	})

	ctx := NewCallContext(context.Background(), http.MethodGet, "/api/user", nil)
	p.ExecuteAbsorb(ctx, "data", m)

	assert.Equal(t, "/api/user", seenURL)
	assert.Equal(t, m, seenMapping)
}

func TestExecuteResponseFailingHookIsIdentity(t *testing.T) {
	p, logs := newTestPipeline()

	var failures []HookKind
	p.SetFailureObserver(func(kind HookKind) { failures = append(failures, kind) })

	p.OnResponse(func(ctx *CallContext, data any) (any, error) {
		return data.(float64) + 1, nil
	})
	p.OnResponse(func(ctx *CallContext, data any) (any, error) {
		return nil, errors.New("upstream monitor down")
	})
	p.OnResponse(func(ctx *CallContext, data any) (any, error) {
		panic("bad hook")
	})
	p.OnResponse(func(ctx *CallContext, data any) (any, error) {
		return data.(float64) * 10, nil
	})

	ctx := NewCallContext(context.Background(), http.MethodGet, "/x", nil)
	got := p.ExecuteResponse(ctx, 1.0)

	assert.Equal(t, 20.0, got)
	assert.Equal(t, []HookKind{HookResponse, HookResponse}, failures)

	failed := logs.FilterMessage("hook failed")
	require.Equal(t, 2, failed.Len())
	assert.Equal(t, "response", failed.All()[0].ContextMap()["hook"])
	assert.Equal(t, ctx.RequestID, failed.All()[0].ContextMap()["request_id"])
}

func TestExecuteRequestContinuesAfterFailure(t *testing.T) {
	p, logs := newTestPipeline()

	var calls []string
	p.OnRequest(func(ctx *CallContext, req *http.Request) error {
		calls = append(calls, "first")
		return errors.New("nope")
	})
	p.OnRequest(func(ctx *CallContext, req *http.Request) error {
		calls = append(calls, "second:"+req.URL.Path)
		return nil
	})

	req, err := http.NewRequest(http.MethodGet, "http://example.com/api/user", nil)
	require.NoError(t, err)

	p.ExecuteRequest(NewCallContext(req.Context(), req.Method, req.URL.String(), nil), req)

	assert.Equal(t, []string{"first", "second:/api/user"}, calls)
	assert.Equal(t, 1, logs.FilterMessage("hook failed").Len())
}

func TestExecuteWithoutHooksReturnsSeed(t *testing.T) {
	p, _ := newTestPipeline()
	ctx := NewCallContext(context.Background(), http.MethodGet, "/x", nil)

	seed := map[string]any{"a": 1.0}
	assert.Equal(t, seed, p.ExecuteResponse(ctx, seed))
	assert.Equal(t, seed, p.ExecuteAbsorb(ctx, seed, nil))
}

func TestPipelineReset(t *testing.T) {
	p, _ := newTestPipeline()
	p.OnRequest(func(*CallContext, *http.Request) error { return nil })
	p.OnResponse(func(_ *CallContext, d any) (any, error) { return d, nil })
	p.OnAbsorb(func(_ *CallContext, d any, _ mapping.Mapping) (any, error) { return d, nil })

	assert.Equal(t, 1, p.Len(HookRequest))
	assert.Equal(t, 1, p.Len(HookResponse))
	assert.Equal(t, 1, p.Len(HookAbsorb))

	p.Reset()
	assert.Equal(t, 0, p.Len(HookRequest))
	assert.Equal(t, 0, p.Len(HookResponse))
	assert.Equal(t, 0, p.Len(HookAbsorb))
}

func TestCallContextMetadata(t *testing.T) {
	ctx := NewCallContext(nil, http.MethodPost, "/api/user", nil)
	require.NotNil(t, ctx.Context)
	assert.NotEmpty(t, ctx.RequestID)

	ctx.SetMetadata("attempt", 2)
	v, ok := ctx.GetMetadata("attempt")
	assert.True(t, ok)
	assert.Equal(t, 2, v)

	snapshot := ctx.Metadata()
	snapshot["attempt"] = 3
	v, _ = ctx.GetMetadata("attempt")
	assert.Equal(t, 2, v)
}
