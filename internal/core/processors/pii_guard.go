package processors

import (
	"fmt"
	"sort"

	"github.com/bytedance/sonic"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
	"go.uber.org/zap"

	"github.com/jhlee0409/cushion/internal/core"
	"github.com/jhlee0409/cushion/internal/core/mapping"
	"github.com/jhlee0409/cushion/internal/core/plugin"
	"github.com/jhlee0409/cushion/internal/core/security"
)

// PIIGuardName is the plugin name of PIIGuard.
const PIIGuardName = "pii-guard"

// PIIGuard redacts credentials and personal data from absorbed results
// before they reach application code.
type PIIGuard struct {
	scanner *security.Scanner
	paths   []string
}

// NewPIIGuard creates a PII guard. With paths (sjson/gjson dotted paths) only
// those string fields are scanned; without, every string in the result is.
func NewPIIGuard(paths ...string) *PIIGuard {
	return &PIIGuard{
		scanner: security.NewScanner(),
		paths:   paths,
	}
}

// Scanner exposes the scanner so callers can add rules.
func (p *PIIGuard) Scanner() *security.Scanner {
	return p.scanner
}

// Name returns the plugin name
func (p *PIIGuard) Name() string {
	return PIIGuardName
}

// Install registers the absorb hook.
func (p *PIIGuard) Install(host plugin.Host) error {
	host.OnAbsorb(p.OnAbsorb)
	return nil
}

// OnAbsorb returns data with sensitive strings replaced.
func (p *PIIGuard) OnAbsorb(ctx *core.CallContext, data any, _ mapping.Mapping) (any, error) {
	if len(p.paths) == 0 {
		hits := make(map[string]struct{})
		redacted, n := p.redactValue(data, hits)
		if n > 0 {
			ctx.Log.Info("PII redacted", zap.Int("values", n), zap.Strings("rules", sortedKeys(hits)))
		}
		return redacted, nil
	}
	return p.redactPaths(ctx, data)
}

// redactPaths rewrites only the configured fields, in JSON form.
func (p *PIIGuard) redactPaths(ctx *core.CallContext, data any) (any, error) {
	body, err := sonic.Marshal(data)
	if err != nil {
		return data, fmt.Errorf("failed to marshal JSON: %w", err)
	}

	modified := 0
	hits := make(map[string]struct{})
	for _, path := range p.paths {
		value := gjson.GetBytes(body, path)
		if value.Type != gjson.String {
			continue
		}
		clean := p.scanner.Sanitize(value.Str)
		if clean == value.Str {
			continue
		}
		p.recordHits(value.Str, hits)
		if body, err = sjson.SetBytes(body, path, clean); err != nil {
			return data, fmt.Errorf("failed to set field %s: %w", path, err)
		}
		modified++
	}

	if modified == 0 {
		return data, nil
	}
	ctx.Log.Info("PII redacted", zap.Int("values", modified), zap.Strings("rules", sortedKeys(hits)))

	result, err := mapping.Decode(body)
	if err != nil {
		return data, fmt.Errorf("failed to unmarshal JSON: %w", err)
	}
	return result, nil
}

// redactValue walks a JSON-shaped value and returns a copy with every
// string sanitized, along with the number of strings that changed. Names of
// the rules that fired are added to hits.
func (p *PIIGuard) redactValue(v any, hits map[string]struct{}) (any, int) {
	switch node := v.(type) {
	case string:
		clean := p.scanner.Sanitize(node)
		if clean != node {
			p.recordHits(node, hits)
			return clean, 1
		}
		return node, 0
	case map[string]any:
		out := make(map[string]any, len(node))
		total := 0
		for k, child := range node {
			var n int
			out[k], n = p.redactValue(child, hits)
			total += n
		}
		return out, total
	case []any:
		out := make([]any, len(node))
		total := 0
		for i, child := range node {
			var n int
			out[i], n = p.redactValue(child, hits)
			total += n
		}
		return out, total
	default:
		return v, 0
	}
}

func (p *PIIGuard) recordHits(value string, hits map[string]struct{}) {
	for _, name := range p.scanner.Detect(value) {
		hits[name] = struct{}{}
	}
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
