package processors

import (
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/jhlee0409/cushion/internal/core"
	"github.com/jhlee0409/cushion/internal/core/mapping"
	"github.com/jhlee0409/cushion/internal/core/plugin"
	"github.com/jhlee0409/cushion/internal/pkg/logger"
)

// RequestLoggerName is the plugin name of RequestLogger.
const RequestLoggerName = "request-logger"

// RequestLogger logs every intercepted request and every absorbed response.
type RequestLogger struct{}

// NewRequestLogger creates a request logging plugin.
func NewRequestLogger() *RequestLogger {
	return &RequestLogger{}
}

// Name returns the plugin name
func (r *RequestLogger) Name() string {
	return RequestLoggerName
}

// Install registers the request and absorb hooks.
func (r *RequestLogger) Install(host plugin.Host) error {
	host.OnRequest(r.OnRequest)
	host.OnAbsorb(r.OnAbsorb)
	return nil
}

// OnRequest logs the outgoing call. request_id and url are already on ctx.Log.
func (r *RequestLogger) OnRequest(ctx *core.CallContext, req *http.Request) error {
	ctx.Log.Info("Request Started",
		zap.String("method", req.Method),
		zap.String("host", req.URL.Host),
	)
	return nil
}

// OnAbsorb logs how long the call took and which rule reshaped it.
func (r *RequestLogger) OnAbsorb(ctx *core.CallContext, data any, m mapping.Mapping) (any, error) {
	ctx.Log.Info("Response Absorbed",
		logger.Latency(time.Since(ctx.StartTime)),
		logger.Pattern(ctx.Pattern),
		zap.Int("fields", len(m)),
	)
	return data, nil
}
