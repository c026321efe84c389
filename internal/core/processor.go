package core

import (
	"net/http"

	"github.com/jhlee0409/cushion/internal/core/mapping"
)

// HookKind names one of the three pipeline extension points.
type HookKind string

const (
	HookRequest  HookKind = "request"
	HookResponse HookKind = "response"
	HookAbsorb   HookKind = "absorb"
)

// RequestHook observes an outbound request before it is sent. Its error is
// logged and never stops the request.
type RequestHook func(ctx *CallContext, req *http.Request) error

// ResponseHook receives the decoded response payload and returns the value
// handed to the next hook.
type ResponseHook func(ctx *CallContext, data any) (any, error)

// AbsorbHook receives the absorbed result together with the mapping that
// produced it and returns the value handed to the next hook.
type AbsorbHook func(ctx *CallContext, data any, m mapping.Mapping) (any, error)
