package mapping

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractNestedValue(t *testing.T) {
	data := map[string]any{
		"user": map[string]any{
			"profile": map[string]any{"name": "Kim"},
			"tags":    []any{"a", "b", "c"},
		},
		"posts": []any{
			map[string]any{"post_title": "A", "meta": map[string]any{"likes": 3.0}},
			map[string]any{"post_title": "B", "meta": map[string]any{"likes": 5.0}},
		},
		"count": 2.0,
		"empty": nil,
	}

	testCases := []struct {
		name string
		path string
		want any
	}{
		{"top level", "count", 2.0},
		{"nested", "user.profile.name", "Kim"},
		{"missing leaf", "user.profile.age", NoValue},
		{"missing branch", "user.settings.theme", NoValue},
		{"through null", "empty.value", NoValue},
		{"through scalar", "count.value", NoValue},
		{"index suffix", "user.tags[1]", "b"},
		{"index out of range", "user.tags[9]", NoValue},
		{"index on non-array", "user.profile[0]", NoValue},
		{"numeric segment", "posts.1.post_title", "B"},
		{"index then field", "posts[0].post_title", "A"},
		{"wildcard", "posts.*.post_title", []any{"A", "B"}},
		{"wildcard nested suffix", "posts.*.meta.likes", []any{3.0, 5.0}},
		{"wildcard missing suffix", "posts.*.nope", []any{nil, nil}},
		{"wildcard on non-array", "user.*.name", NoValue},
		{"wildcard on missing prefix", "nothing.*.name", NoValue},
		{"empty path", "", NoValue},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ExtractNestedValue(data, tc.path))
		})
	}
}

func TestExtractNestedValueNonObjectRoot(t *testing.T) {
	assert.Nil(t, ExtractNestedValue(nil, "a.b"))
	assert.Nil(t, ExtractNestedValue("text", "a"))
	assert.Equal(t, "x", ExtractNestedValue([]any{"x"}, "0"))
}

func TestSplitIndex(t *testing.T) {
	name, idx, ok := splitIndex("items[3]")
	assert.True(t, ok)
	assert.Equal(t, "items", name)
	assert.Equal(t, 3, idx)

	name, _, ok = splitIndex("items[x]")
	assert.False(t, ok)
	assert.Equal(t, "items[x]", name)

	_, _, ok = splitIndex("plain")
	assert.False(t, ok)
}
