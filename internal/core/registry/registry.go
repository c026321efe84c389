// Package registry maps observed request URLs to the Rule that governs
// their responses.
package registry

import (
	"net/url"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/jhlee0409/cushion/internal/core/mapping"
	"github.com/jhlee0409/cushion/internal/pkg/logger"
)

// Registry stores rules keyed by URL pattern and resolves URLs against them.
//
// Resolution order for a URL:
//  1. exact match on the pattern string,
//  2. query-qualified patterns ("/path?k=v") whose path is identical and
//     whose query pairs all appear in the URL (extra URL params are fine),
//  3. compiled "*" / ":name" patterns, longest pattern string first, tested
//     against the URL without its query string.
type Registry struct {
	mu       sync.RWMutex
	rules    map[string]Rule
	queries  []string   // query-qualified patterns, insertion order
	patterns []*Pattern // sorted by descending source length
	log      *zap.Logger
}

// New creates an empty Registry.
func New(log *zap.Logger) *Registry {
	return &Registry{
		rules: make(map[string]Rule),
		log:   logger.Component(log, "registry"),
	}
}

// Set stores rule under pattern, overwriting any previous rule.
func (r *Registry) Set(pattern string, rule Rule) error {
	if pattern == "" {
		return ErrInvalidPattern
	}

	var compiled *Pattern
	if IsPattern(pattern) {
		var err error
		if compiled, err = Compile(pattern); err != nil {
			return err
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	_, existed := r.rules[pattern]
	r.rules[pattern] = rule

	if !existed && strings.Contains(pattern, "?") {
		r.queries = append(r.queries, pattern)
	}
	if compiled != nil {
		r.removePatternLocked(pattern)
		r.patterns = append(r.patterns, compiled)
		sort.SliceStable(r.patterns, func(i, j int) bool {
			return len(r.patterns[i].source) > len(r.patterns[j].source)
		})
	}

	r.log.Debug("cushion registered", logger.Pattern(pattern), zap.Bool("overwrite", existed))
	return nil
}

// SetMapping is shorthand for Set(pattern, Rule{Mapping: m}).
func (r *Registry) SetMapping(pattern string, m mapping.Mapping) error {
	return r.Set(pattern, Rule{Mapping: m})
}

// SetMany registers every entry of rules.
func (r *Registry) SetMany(rules map[string]Rule) error {
	for pattern, rule := range rules {
		if err := r.Set(pattern, rule); err != nil {
			return err
		}
	}
	return nil
}

// Replace swaps the whole rule set for rules in one step. On error the
// current rules are kept.
func (r *Registry) Replace(rules map[string]Rule) error {
	next := New(nil)
	if err := next.SetMany(rules); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.rules, r.queries, r.patterns = next.rules, next.queries, next.patterns
	r.log.Info("cushions replaced", zap.Int("count", len(r.rules)))
	return nil
}

// Get resolves rawURL to its governing rule.
func (r *Registry) Get(rawURL string) (Rule, bool) {
	rule, _, ok := r.lookup(rawURL)
	return rule, ok
}

// Match resolves u against both its full form and its request URI so that
// absolute and path-only registrations apply. Each resolution stage runs over
// both forms before the next stage starts, so an exact or query-qualified
// rule always beats a pattern. It also returns the pattern that matched.
func (r *Registry) Match(u *url.URL) (Rule, string, bool) {
	full := u.String()
	if uri := u.RequestURI(); uri != full {
		return r.lookup(full, uri)
	}
	return r.lookup(full)
}

func (r *Registry) lookup(candidates ...string) (Rule, string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, c := range candidates {
		if rule, ok := r.rules[c]; ok {
			return rule, c, true
		}
	}

	for _, pattern := range r.queries {
		for _, c := range candidates {
			if matchQuery(pattern, c) {
				return r.rules[pattern], pattern, true
			}
		}
	}

	for _, p := range r.patterns {
		for _, c := range candidates {
			if _, ok := p.Match(stripQuery(c)); ok {
				return r.rules[p.source], p.source, true
			}
		}
	}

	return Rule{}, "", false
}

// Remove deletes the rule stored under pattern, including its compiled form.
func (r *Registry) Remove(pattern string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.rules, pattern)
	r.removePatternLocked(pattern)
	for i, q := range r.queries {
		if q == pattern {
			r.queries = append(r.queries[:i], r.queries[i+1:]...)
			break
		}
	}
}

func (r *Registry) removePatternLocked(source string) {
	for i, p := range r.patterns {
		if p.source == source {
			r.patterns = append(r.patterns[:i], r.patterns[i+1:]...)
			return
		}
	}
}

// ClearAll removes every rule.
func (r *Registry) ClearAll() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.rules = make(map[string]Rule)
	r.queries = nil
	r.patterns = nil
}

// Patterns lists registered pattern strings in sorted order.
func (r *Registry) Patterns() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]string, 0, len(r.rules))
	for p := range r.rules {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// Len returns the number of registered rules.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rules)
}

func matchQuery(pattern, rawURL string) bool {
	patternPath, patternQuery, _ := strings.Cut(pattern, "?")
	urlPath, urlQuery, _ := strings.Cut(stripFragment(rawURL), "?")
	if patternPath != urlPath {
		return false
	}

	want, err := url.ParseQuery(patternQuery)
	if err != nil {
		return false
	}
	have, err := url.ParseQuery(urlQuery)
	if err != nil {
		return false
	}
	for key := range want {
		if !have.Has(key) || have.Get(key) != want.Get(key) {
			return false
		}
	}
	return true
}

func stripQuery(rawURL string) string {
	path, _, _ := strings.Cut(stripFragment(rawURL), "?")
	return path
}

func stripFragment(rawURL string) string {
	s, _, _ := strings.Cut(rawURL, "#")
	return s
}
