package interceptor

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"go.uber.org/zap"

	"github.com/jhlee0409/cushion/internal/core"
	"github.com/jhlee0409/cushion/internal/core/mapping"
	"github.com/jhlee0409/cushion/internal/core/registry"
	"github.com/jhlee0409/cushion/internal/metrics"
	"github.com/jhlee0409/cushion/internal/pkg/logger"
)

// ErrMalformedJSON is logged when a matched JSON response fails to decode.
var ErrMalformedJSON = errors.New("response body is not valid JSON")

type transport struct {
	interceptor *Interceptor
	base        http.RoundTripper
}

// RoundTrip implements http.RoundTripper.
func (t *transport) RoundTrip(req *http.Request) (*http.Response, error) {
	base := t.base
	if base == nil {
		base = http.DefaultTransport
	}
	return t.interceptor.roundTrip(base, req)
}

func (i *Interceptor) roundTrip(base http.RoundTripper, req *http.Request) (*http.Response, error) {
	ctx := core.NewCallContext(req.Context(), req.Method, req.URL.String(), i.log)

	i.pipeline.ExecuteRequest(ctx, req)

	resp, err := base.RoundTrip(req)
	if err != nil {
		return resp, err
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		ctx.Log.Debug("error status, passing response through", logger.Status(resp.StatusCode))
		i.recorder.IncOutcome("", metrics.OutcomeErrorStatus)
		return resp, nil
	}

	rule, pattern, ok := i.registry.Match(req.URL)
	if !ok {
		i.recorder.IncOutcome("", metrics.OutcomeNoRule)
		return resp, nil
	}
	ctx.Pattern = pattern

	if !isJSON(resp.Header.Get("Content-Type")) {
		i.recorder.IncOutcome(pattern, metrics.OutcomeNotJSON)
		return resp, nil
	}

	return i.absorbResponse(ctx, rule, resp), nil
}

// absorbResponse buffers the body so the original bytes stay available,
// then either returns a rebuilt response carrying the absorbed JSON or,
// on any failure, the original bytes.
func (i *Interceptor) absorbResponse(ctx *core.CallContext, rule registry.Rule, resp *http.Response) *http.Response {
	start := time.Now()

	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		ctx.Log.Error("failed to read response body", logger.Pattern(ctx.Pattern), zap.Error(err))
		i.recorder.IncOutcome(ctx.Pattern, metrics.OutcomeFailed)
		resp.Body = io.NopCloser(io.MultiReader(bytes.NewReader(body), errReader{err}))
		return resp
	}

	result, decision, err := i.transform(ctx, rule, body)
	if err == nil && decision != registry.DecisionPassthrough {
		var out []byte
		if out, err = sonic.Marshal(result); err == nil {
			i.recorder.ObserveAbsorbDuration(ctx.Pattern, time.Since(start))
			i.recorder.IncOutcome(ctx.Pattern, outcomeFor(decision))
			ctx.Log.Debug("response absorbed", logger.Pattern(ctx.Pattern), zap.Stringer("decision", decision))
			return rebuild(resp, out)
		}
		err = fmt.Errorf("failed to marshal absorbed data: %w", err)
	}

	if err != nil {
		ctx.Log.Error("absorption failed, returning original response", logger.Pattern(ctx.Pattern), zap.Error(err))
		i.recorder.IncOutcome(ctx.Pattern, metrics.OutcomeFailed)
	} else {
		i.recorder.IncOutcome(ctx.Pattern, metrics.OutcomePassthrough)
	}
	resp.Body = io.NopCloser(bytes.NewReader(body))
	return resp
}

func (i *Interceptor) transform(ctx *core.CallContext, rule registry.Rule, body []byte) (result any, decision registry.Decision, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic during absorption: %v", r)
		}
	}()

	data, err := mapping.Decode(body)
	if err != nil {
		return nil, registry.DecisionPassthrough, fmt.Errorf("%w: %v", ErrMalformedJSON, err)
	}

	data = i.pipeline.ExecuteResponse(ctx, data)
	ctx.OriginalData = data

	m, decision := rule.Evaluate(data)
	if decision == registry.DecisionPassthrough {
		return nil, decision, nil
	}

	absorbed := i.engine.Absorb(data, m)
	return i.pipeline.ExecuteAbsorb(ctx, absorbed, m), decision, nil
}

// rebuild returns a copy of resp carrying body, keeping status and headers.
func rebuild(resp *http.Response, body []byte) *http.Response {
	out := *resp
	out.Header = resp.Header.Clone()
	out.Header.Set("Content-Length", strconv.Itoa(len(body)))
	out.ContentLength = int64(len(body))
	out.Body = io.NopCloser(bytes.NewReader(body))
	return &out
}

func outcomeFor(d registry.Decision) metrics.Outcome {
	if d == registry.DecisionFallback {
		return metrics.OutcomeFallback
	}
	return metrics.OutcomeAbsorbed
}

func isJSON(contentType string) bool {
	if contentType == "" {
		return false
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return strings.Contains(contentType, "application/json")
	}
	return mediaType == "application/json" || strings.HasSuffix(mediaType, "+json")
}

type errReader struct{ err error }

func (r errReader) Read([]byte) (int, error) { return 0, r.err }
