package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPatternMatch(t *testing.T) {
	testCases := []struct {
		pattern string
		path    string
		match   bool
		params  map[string]string
	}{
		{"/api/user/:id", "/api/user/123", true, map[string]string{"id": "123"}},
		{"/api/user/:id", "/api/user/123/posts", false, nil},
		{"/api/user/:id", "/api/user/", false, nil},
		{"/api/:kind/:id", "/api/post/9", true, map[string]string{"kind": "post", "id": "9"}},
		{"/api/*", "/api/a/b/c", true, map[string]string{}},
		{"/api/*", "/api/", true, map[string]string{}},
		{"/api/*/posts", "/api/users/1/posts", true, map[string]string{}},
		{"/api/*/posts", "/api/users/1/comments", false, nil},
		{"*/user", "https://example.com/user", true, map[string]string{}},
		{"/files/:name.json", "/files/report.json", true, map[string]string{"name": "report"}},
		{"/v1.0/items", "/v1x0/items", false, nil},
		{"/a+b/(c)", "/a+b/(c)", true, map[string]string{}},
		{"/time/12:", "/time/12:", true, map[string]string{}},
		{"/time/12:30", "/time/12:45", true, map[string]string{"30": ":45"}},
	}

	for _, tc := range testCases {
		t.Run(tc.pattern+" "+tc.path, func(t *testing.T) {
			p, err := Compile(tc.pattern)
			require.NoError(t, err)

			params, ok := p.Match(tc.path)
			assert.Equal(t, tc.match, ok)
			if tc.match {
				assert.Equal(t, tc.params, params)
			}
		})
	}
}

func TestCompileRejectsEmpty(t *testing.T) {
	_, err := Compile("")
	assert.ErrorIs(t, err, ErrInvalidPattern)
}

func TestIsPattern(t *testing.T) {
	assert.True(t, IsPattern("/api/*"))
	assert.True(t, IsPattern("/api/:id"))
	assert.False(t, IsPattern("/api/user?x=1"))
}
