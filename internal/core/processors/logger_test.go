package processors

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/jhlee0409/cushion/internal/core"
	"github.com/jhlee0409/cushion/internal/core/mapping"
)

func observedContext(rawURL string) (*core.CallContext, *observer.ObservedLogs) {
	zc, logs := observer.New(zap.InfoLevel)
	return core.NewCallContext(context.Background(), http.MethodGet, rawURL, zap.New(zc)), logs
}

func TestRequestLoggerOnRequest(t *testing.T) {
	ctx, logs := observedContext("https://api.example.com/api/user")
	req, err := http.NewRequest(http.MethodGet, "https://api.example.com/api/user", nil)
	require.NoError(t, err)

	require.NoError(t, NewRequestLogger().OnRequest(ctx, req))

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "Request Started", entry.Message)

	fields := entry.ContextMap()
	assert.Equal(t, "GET", fields["method"])
	assert.Equal(t, "api.example.com", fields["host"])
	assert.Equal(t, ctx.RequestID, fields["request_id"])
	assert.Equal(t, "https://api.example.com/api/user", fields["url"])
}

func TestRequestLoggerOnAbsorb(t *testing.T) {
	ctx, logs := observedContext("/api/user/1")
	ctx.Pattern = "/api/user/:id"
	m := mapping.FromPaths(map[string]string{"name": "user_name", "email": "user_email"})
	data := map[string]any{"name": "Kim"}

	got, err := NewRequestLogger().OnAbsorb(ctx, data, m)
	require.NoError(t, err)
	assert.Equal(t, data, got)

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "Response Absorbed", entry.Message)

	fields := entry.ContextMap()
	assert.Equal(t, "/api/user/:id", fields["pattern"])
	assert.EqualValues(t, 2, fields["fields"])
	assert.Contains(t, fields, "latency")
}

func TestRequestLoggerInstall(t *testing.T) {
	host := core.NewPipeline(nil)
	adapter := pipelineHost{host}
	require.NoError(t, NewRequestLogger().Install(adapter))

	assert.Equal(t, 1, host.Len(core.HookRequest))
	assert.Equal(t, 1, host.Len(core.HookAbsorb))
	assert.Equal(t, RequestLoggerName, NewRequestLogger().Name())
}

// pipelineHost lets tests install plugins straight into a Pipeline.
type pipelineHost struct{ *core.Pipeline }

func (pipelineHost) AddMapper(string, mapping.MapperFunc) error { return nil }
