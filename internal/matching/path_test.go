package matching

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompileSegment(t *testing.T) {
	tests := []struct {
		name      string
		raw       string
		wantKind  SegmentKind
		wantNames []string
		wantErr   bool
	}{
		{name: "literal", raw: "users", wantKind: SegmentLiteral},
		{name: "named param", raw: "{id}", wantKind: SegmentParam, wantNames: []string{"id"}},
		{name: "template", raw: "item-{id}", wantKind: SegmentTemplate, wantNames: []string{"id"}},
		{name: "template with two params", raw: "{name}.{ext}", wantKind: SegmentTemplate, wantNames: []string{"name", "ext"}},
		{name: "unbalanced brace", raw: "{id", wantErr: true},
		{name: "trailing brace", raw: "a{id}}", wantErr: true},
		{name: "separator", raw: "a/b", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seg, err := CompileSegment(tt.raw)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantKind, seg.Kind)
			assert.Equal(t, tt.wantNames, seg.Names)
		})
	}
}

func TestSegmentMatch(t *testing.T) {
	tests := []struct {
		name       string
		declared   string
		actual     string
		wantScore  int
		wantParams map[string]string
	}{
		{
			name:       "literal match",
			declared:   "users",
			actual:     "users",
			wantScore:  15,
			wantParams: map[string]string{},
		},
		{
			name:       "literal mismatch",
			declared:   "users",
			actual:     "posts",
			wantScore:  0,
			wantParams: map[string]string{},
		},
		{
			name:       "param binds value",
			declared:   "{id}",
			actual:     "4821",
			wantScore:  12,
			wantParams: map[string]string{"id": "4821"},
		},
		{
			name:       "template binds value",
			declared:   "report-{year}.{ext}",
			actual:     "report-2024.csv",
			wantScore:  14,
			wantParams: map[string]string{"year": "2024", "ext": "csv"},
		},
		{
			name:       "template mismatch",
			declared:   "report-{year}",
			actual:     "summary-2024",
			wantScore:  0,
			wantParams: map[string]string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seg, err := CompileSegment(tt.declared)
			require.NoError(t, err)

			params := map[string]string{}
			assert.Equal(t, tt.wantScore, seg.Match(tt.actual, params))
			assert.Equal(t, tt.wantParams, params)
		})
	}
}

func TestLiteralOutranksParam(t *testing.T) {
	literal, err := CompileSegment("me")
	require.NoError(t, err)
	param, err := CompileSegment("{id}")
	require.NoError(t, err)

	assert.Greater(t, literal.Match("me", nil), param.Match("me", nil))
}

func TestSplitPath(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, SplitPath("/a//b/"))
	assert.Equal(t, []string{"a", "b"}, SplitPath("a/b"))
	assert.Empty(t, SplitPath("/"))
	assert.Equal(t, "/a/b", JoinPath([]string{"a", "b"}))
}

func TestStripPrefix(t *testing.T) {
	prefixes := []string{"", "/api", "/api/v1"}

	tests := []struct {
		path        string
		wantRest    string
		wantMatched string
	}{
		{path: "/api/v1/users", wantRest: "/users", wantMatched: "/api/v1"},
		{path: "/api/users", wantRest: "/users", wantMatched: "/api"},
		{path: "/apiary", wantRest: "/apiary", wantMatched: ""},
		{path: "/api", wantRest: "/", wantMatched: "/api"},
		{path: "/users", wantRest: "/users", wantMatched: ""},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rest, matched, ok := StripPrefix(prefixes, tt.path)
			require.True(t, ok)
			assert.Equal(t, tt.wantRest, rest)
			assert.Equal(t, tt.wantMatched, matched)
		})
	}

	_, _, ok := StripPrefix([]string{"/api"}, "/users")
	assert.False(t, ok)
}

func TestMounts(t *testing.T) {
	prefixes := []string{"", "/api", "/api/v1", "/api"}

	assert.Equal(t, []Mount{
		{Prefix: "/api/v1", Rest: "/users"},
		{Prefix: "/api", Rest: "/v1/users"},
		{Prefix: "", Rest: "/api/v1/users"},
	}, Mounts(prefixes, "/api/v1/users"))

	assert.Equal(t, []Mount{{Prefix: "", Rest: "/apiary"}}, Mounts(prefixes, "/apiary"))
	assert.Empty(t, Mounts([]string{"/api"}, "/users"))
}

func TestNormalizePrefix(t *testing.T) {
	assert.Equal(t, "", NormalizePrefix(""))
	assert.Equal(t, "", NormalizePrefix("/"))
	assert.Equal(t, "/api", NormalizePrefix("api/"))
	assert.Equal(t, "/api/v1", NormalizePrefix(" /api/v1/ "))
}
