package config

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jhlee0409/cushion/internal/core/mapping"
	"github.com/jhlee0409/cushion/internal/core/registry"
)

const sampleConfig = `
log:
  level: debug
cushions:
  - pattern: /api/user/:id
    mapping:
      - userName=user_name
      - email = contact.email
    mappers:
      - tags=gjson:tags.#.name
    condition: version
    fallback:
      - userName=legacy.name
  - pattern: /api/posts
    mapping:
      - title=post_title
`

func readConfig(t *testing.T, content string) *viper.Viper {
	t.Helper()
	v := viper.New()
	v.SetConfigType("yaml")
	require.NoError(t, v.ReadConfig(strings.NewReader(content)))
	return v
}

func TestLoadRules(t *testing.T) {
	rules, err := LoadRules(readConfig(t, sampleConfig))
	require.NoError(t, err)
	require.Len(t, rules, 2)

	assert.Equal(t, RuleConfig{
		Pattern:   "/api/user/:id",
		Mapping:   []string{"userName=user_name", "email = contact.email"},
		Mappers:   []string{"tags=gjson:tags.#.name"},
		Condition: "version",
		Fallback:  []string{"userName=legacy.name"},
	}, rules[0])
	assert.Equal(t, "/api/posts", rules[1].Pattern)
}

func TestLoadRulesMissingSection(t *testing.T) {
	rules, err := LoadRules(readConfig(t, "log:\n  level: info\n"))
	require.NoError(t, err)
	assert.Empty(t, rules)
}

func TestBuild(t *testing.T) {
	rules, err := LoadRules(readConfig(t, sampleConfig))
	require.NoError(t, err)

	built, err := rules.Build()
	require.NoError(t, err)
	require.Len(t, built, 2)

	user := built["/api/user/:id"]
	assert.Equal(t, mapping.Mapping{
		"userName": mapping.Path("user_name"),
		"email":    mapping.Path("contact.email"),
		"tags":     mapping.Mapper("gjson", "tags.#.name"),
	}, user.Mapping)
	assert.Equal(t, mapping.Mapping{"userName": mapping.Path("legacy.name")}, user.Fallback)
	require.NotNil(t, user.Condition)

	m, decision := user.Evaluate(map[string]any{"version": float64(2)})
	assert.Equal(t, registry.DecisionPrimary, decision)
	assert.Equal(t, user.Mapping, m)

	m, decision = user.Evaluate(map[string]any{})
	assert.Equal(t, registry.DecisionFallback, decision)
	assert.Equal(t, user.Fallback, m)

	posts := built["/api/posts"]
	assert.Nil(t, posts.Condition)
	assert.Nil(t, posts.Fallback)
}

func TestRuleErrors(t *testing.T) {
	tests := []struct {
		name string
		rule RuleConfig
	}{
		{"empty pattern", RuleConfig{Mapping: []string{"a=b"}}},
		{"missing equals", RuleConfig{Pattern: "/x", Mapping: []string{"ab"}}},
		{"empty key", RuleConfig{Pattern: "/x", Mapping: []string{"=b"}}},
		{"duplicate key", RuleConfig{Pattern: "/x", Mapping: []string{"a=b", "a=c"}}},
		{"mapper without name", RuleConfig{Pattern: "/x", Mappers: []string{"a=path"}}},
		{"key in mapping and mappers", RuleConfig{Pattern: "/x", Mapping: []string{"a=b"}, Mappers: []string{"a=gjson:b"}}},
		{"bad fallback", RuleConfig{Pattern: "/x", Fallback: []string{"oops"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.rule.Rule()
			assert.ErrorIs(t, err, ErrInvalidRule)
		})
	}
}

func TestBuildReportsIndex(t *testing.T) {
	_, err := Rules{{Pattern: "/ok"}, {Pattern: "/bad", Mapping: []string{"x"}}}.Build()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cushions[1]")
}

func TestInitReadsFileAndEnv(t *testing.T) {
	t.Cleanup(viper.Reset)

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleConfig), 0o644))
	t.Setenv("CUSHION_SERVER_PORT", "9191")

	Init(path)

	assert.Equal(t, "debug", viper.GetString("log.level"))
	assert.Equal(t, 9191, viper.GetInt("server.port"))
	assert.Equal(t, "0.0.0.0", viper.GetString("server.host"))

	rules, err := LoadRules(nil)
	require.NoError(t, err)
	assert.Len(t, rules, 2)
}

func TestWatchReloadsRules(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleConfig), 0o644))

	v := viper.New()
	v.SetConfigFile(path)
	require.NoError(t, v.ReadInConfig())

	var (
		mu     sync.Mutex
		latest Rules
	)
	Watch(v, zap.NewNop(), func(r Rules) {
		mu.Lock()
		defer mu.Unlock()
		latest = r
	})

	updated := "cushions:\n  - pattern: /reloaded\n    mapping:\n      - a=b\n"
	require.NoError(t, os.WriteFile(path, []byte(updated), 0o644))

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(latest) == 1 && latest[0].Pattern == "/reloaded"
	}, 5*time.Second, 20*time.Millisecond)
}
