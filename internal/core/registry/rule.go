package registry

import (
	"github.com/bytedance/sonic"
	"github.com/tidwall/gjson"

	"github.com/jhlee0409/cushion/internal/core/mapping"
)

// Condition decides whether a payload should go through the primary mapping.
type Condition func(data any) bool

// Rule describes how responses for one URL pattern are reshaped.
type Rule struct {
	// Mapping is applied when Condition is nil or returns true.
	Mapping mapping.Mapping
	// Condition is evaluated against the payload after response hooks ran.
	Condition Condition
	// Fallback is applied instead of Mapping when Condition returns false.
	// Without a Fallback the payload passes through unmapped.
	Fallback mapping.Mapping
}

// Decision is the outcome of evaluating a Rule against a payload.
type Decision int

const (
	DecisionPrimary Decision = iota
	DecisionFallback
	DecisionPassthrough
)

func (d Decision) String() string {
	switch d {
	case DecisionPrimary:
		return "primary"
	case DecisionFallback:
		return "fallback"
	case DecisionPassthrough:
		return "passthrough"
	default:
		return "unknown"
	}
}

// Evaluate picks the mapping to apply to data. The returned mapping is nil
// for DecisionPassthrough.
func (r Rule) Evaluate(data any) (mapping.Mapping, Decision) {
	if r.Condition == nil || r.Condition(data) {
		return r.Mapping, DecisionPrimary
	}
	if r.Fallback != nil {
		return r.Fallback, DecisionFallback
	}
	return nil, DecisionPassthrough
}

// GJSONCondition returns a Condition that holds when path resolves to a
// truthy value in the JSON encoding of the payload. Missing values, null,
// false, 0 and "" are falsy.
func GJSONCondition(path string) Condition {
	return func(data any) bool {
		raw, err := sonic.Marshal(data)
		if err != nil {
			return false
		}
		return truthy(gjson.GetBytes(raw, path))
	}
}

func truthy(res gjson.Result) bool {
	if !res.Exists() {
		return false
	}
	switch res.Type {
	case gjson.Null, gjson.False:
		return false
	case gjson.Number:
		return res.Num != 0
	case gjson.String:
		return res.Str != ""
	default:
		return true
	}
}
