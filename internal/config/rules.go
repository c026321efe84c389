package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/jhlee0409/cushion/internal/core/mapping"
	"github.com/jhlee0409/cushion/internal/core/registry"
	"github.com/jhlee0409/cushion/internal/pkg/logger"
)

// RulesKey is the config key holding the declarative cushions.
const RulesKey = "cushions"

// ErrInvalidRule reports a malformed cushion declaration.
var ErrInvalidRule = errors.New("invalid cushion rule")

// Rules is the decoded cushions section.
type Rules []RuleConfig

// RuleConfig declares one cushion. Mapping entries are lists of "key=path"
// strings rather than maps because viper lower-cases map keys, and output
// keys are case sensitive.
type RuleConfig struct {
	// Pattern is the registry key: an exact URL, a query-qualified URL or a
	// pattern with * and :name tokens.
	Pattern string `mapstructure:"pattern"`
	// Mapping lists "key=path" entries for the primary mapping.
	Mapping []string `mapstructure:"mapping"`
	// Mappers lists "key=mapper:path" entries resolved by named custom mappers.
	Mappers []string `mapstructure:"mappers"`
	// Condition is a gjson path; when set, the primary mapping applies only
	// while it resolves to a truthy value.
	Condition string `mapstructure:"condition"`
	// Fallback lists "key=path" entries applied when Condition is falsy.
	Fallback []string `mapstructure:"fallback"`
}

// LoadRules decodes the cushions section of v. A nil v means the global
// viper instance.
func LoadRules(v *viper.Viper) (Rules, error) {
	if v == nil {
		v = viper.GetViper()
	}
	var rules Rules
	if err := v.UnmarshalKey(RulesKey, &rules); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", RulesKey, err)
	}
	return rules, nil
}

// Build converts every rule, keyed by pattern. Later duplicates win.
func (r Rules) Build() (map[string]registry.Rule, error) {
	out := make(map[string]registry.Rule, len(r))
	for i, rc := range r {
		rule, err := rc.Rule()
		if err != nil {
			return nil, fmt.Errorf("cushions[%d]: %w", i, err)
		}
		out[rc.Pattern] = rule
	}
	return out, nil
}

// Rule converts the declaration into a registry rule.
func (c RuleConfig) Rule() (registry.Rule, error) {
	if c.Pattern == "" {
		return registry.Rule{}, fmt.Errorf("%w: empty pattern", ErrInvalidRule)
	}

	primary, err := parseEntries(c.Mapping, false)
	if err != nil {
		return registry.Rule{}, fmt.Errorf("%s mapping: %w", c.Pattern, err)
	}
	custom, err := parseEntries(c.Mappers, true)
	if err != nil {
		return registry.Rule{}, fmt.Errorf("%s mappers: %w", c.Pattern, err)
	}
	for key, field := range custom {
		if _, dup := primary[key]; dup {
			return registry.Rule{}, fmt.Errorf("%w: %s: key %q declared twice", ErrInvalidRule, c.Pattern, key)
		}
		primary[key] = field
	}

	rule := registry.Rule{Mapping: primary}
	if c.Condition != "" {
		rule.Condition = registry.GJSONCondition(c.Condition)
	}
	if len(c.Fallback) > 0 {
		if rule.Fallback, err = parseEntries(c.Fallback, false); err != nil {
			return registry.Rule{}, fmt.Errorf("%s fallback: %w", c.Pattern, err)
		}
	}
	return rule, nil
}

func parseEntries(entries []string, withMapper bool) (mapping.Mapping, error) {
	m := make(mapping.Mapping, len(entries))
	for _, entry := range entries {
		key, target, ok := strings.Cut(entry, "=")
		key, target = strings.TrimSpace(key), strings.TrimSpace(target)
		if !ok || key == "" {
			return nil, fmt.Errorf("%w: entry %q is not key=value", ErrInvalidRule, entry)
		}
		if _, dup := m[key]; dup {
			return nil, fmt.Errorf("%w: key %q declared twice", ErrInvalidRule, key)
		}

		if !withMapper {
			m[key] = mapping.Path(target)
			continue
		}
		name, path, ok := strings.Cut(target, ":")
		if !ok || name == "" {
			return nil, fmt.Errorf("%w: entry %q is not key=mapper:path", ErrInvalidRule, entry)
		}
		m[key] = mapping.Mapper(name, path)
	}
	return m, nil
}

// Watch re-decodes the rules whenever the config file of v changes and
// hands them to fn. Decode failures are logged and keep the previous rules.
func Watch(v *viper.Viper, log *zap.Logger, fn func(Rules)) {
	if v == nil {
		v = viper.GetViper()
	}
	log = logger.Component(log, "config")

	v.OnConfigChange(func(e fsnotify.Event) {
		rules, err := LoadRules(v)
		if err != nil {
			log.Error("failed to reload cushions", zap.String("file", e.Name), zap.Error(err))
			return
		}
		log.Info("cushions reloaded", zap.String("file", e.Name), zap.Int("rules", len(rules)))
		fn(rules)
	})
	v.WatchConfig()
}
