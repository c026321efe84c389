// Package metrics records what the interceptor did with each response.
package metrics

import "time"

// Outcome labels what happened to one intercepted response.
type Outcome string

const (
	OutcomeAbsorbed    Outcome = "absorbed"
	OutcomeFallback    Outcome = "fallback"
	OutcomePassthrough Outcome = "passthrough"
	OutcomeErrorStatus Outcome = "bypass_error_status"
	OutcomeNotJSON     Outcome = "bypass_not_json"
	OutcomeNoRule      Outcome = "no_rule"
	OutcomeFailed      Outcome = "failed"
)

// Recorder receives interceptor observations. Implementations may forward to
// Prometheus or anything else.
type Recorder interface {
	IncOutcome(pattern string, outcome Outcome)
	ObserveAbsorbDuration(pattern string, d time.Duration)
	IncHookFailure(kind string)
}

// NoopRecorder is a Recorder that does nothing (default when metrics are not configured).
type NoopRecorder struct{}

func (NoopRecorder) IncOutcome(string, Outcome)                  {}
func (NoopRecorder) ObserveAbsorbDuration(string, time.Duration) {}
func (NoopRecorder) IncHookFailure(string)                       {}
