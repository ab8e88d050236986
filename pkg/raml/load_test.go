package raml

import (
	"context"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/getmockd/ramlmock/internal/matching"
	"github.com/getmockd/ramlmock/pkg/resource"
	"github.com/getmockd/ramlmock/pkg/schema"
)

func match(t *testing.T, tree *resource.Tree, method, path string) *resource.MethodSpec {
	t.Helper()
	m, err := tree.Match(method, matching.SplitPath(path))
	require.NoError(t, err, "%s %s", method, path)
	return m.Spec
}

func synthesize(t *testing.T, s *schema.Schema) any {
	t.Helper()
	v, err := schema.NewSynthesizer(schema.WithSeed(42)).Synthesize(context.Background(), s)
	require.NoError(t, err)
	return v
}

func get(t *testing.T, v any, key string) any {
	t.Helper()
	obj, ok := v.(schema.Object)
	require.True(t, ok, "expected object, got %T", v)
	val, ok := obj.Get(key)
	require.True(t, ok, "missing %q", key)
	return val
}

func TestLoad_MockerFixture(t *testing.T) {
	tree, err := Load(context.Background(), filepath.Join("testdata", "api"))
	require.NoError(t, err)

	info := tree.Info()
	assert.Equal(t, "Mocker Test API", info.Title)
	assert.Equal(t, "v1", info.Version)
	assert.Equal(t, "http://localhost:5050/{version}", info.BaseURI)
	assert.Len(t, info.Files, 5)

	t.Run("example file", func(t *testing.T) {
		spec := match(t, tree, "GET", "/example-json")
		require.Len(t, spec.Sources, 1)
		src := spec.Sources[0]
		assert.Equal(t, resource.KindExampleFile, src.Kind)
		assert.Equal(t, "examples/example.json", src.Path)

		want, err := os.ReadFile(filepath.Join("testdata", "api", "examples", "example.json"))
		require.NoError(t, err)
		assert.Equal(t, want, src.Data)
	})

	t.Run("schema", func(t *testing.T) {
		spec := match(t, tree, "GET", "/generated-values")
		require.Len(t, spec.Sources, 1)
		require.Equal(t, resource.KindSchema, spec.Sources[0].Kind)

		s := spec.Sources[0].Schema
		v := synthesize(t, s)
		items, ok := get(t, v, "arrayOfObjects").([]any)
		require.True(t, ok)
		require.NotEmpty(t, items)
		assert.IsType(t, int64(0), get(t, items[0], "date"))
		assert.IsType(t, int64(0), get(t, get(t, items[0], "allOfTest"), "prop2"))
		assert.NoError(t, s.Validate(v))
	})

	t.Run("literal", func(t *testing.T) {
		spec := match(t, tree, "GET", "/example-literal")
		require.Len(t, spec.Sources, 1)
		assert.Equal(t, resource.KindLiteralExample, spec.Sources[0].Kind)
		assert.JSONEq(t, `{"test":"test"}`, string(spec.Sources[0].Raw))
	})

	t.Run("declaration order kept", func(t *testing.T) {
		assert.Equal(t, []resource.Kind{resource.KindSchema, resource.KindLiteralExample}, match(t, tree, "GET", "/schema-first").SourceKinds())
		assert.Equal(t, []resource.Kind{resource.KindExampleFile, resource.KindSchema}, match(t, tree, "GET", "/example-first").SourceKinds())
	})

	t.Run("inline literal", func(t *testing.T) {
		spec := match(t, tree, "GET", "/parameter/4821")
		require.Len(t, spec.Sources, 1)
		assert.Equal(t, resource.KindInlineLiteral, spec.Sources[0].Kind)
		assert.Equal(t, schema.Object{{Name: "test", Value: "test"}}, spec.Sources[0].Value)
	})

	t.Run("nested resources", func(t *testing.T) {
		foo := match(t, tree, "GET", "/nested/foo")
		bar := match(t, tree, "GET", "/nested/bar")
		assert.JSONEq(t, `{"value":"foo"}`, string(foo.Sources[0].Raw))
		assert.JSONEq(t, `{"value":"bar"}`, string(bar.Sources[0].Raw))
		assert.Equal(t, []resource.Header{{Name: "X-Nested", Value: "bar"}}, bar.Headers)
	})

	t.Run("2xx status wins", func(t *testing.T) {
		spec := match(t, tree, "POST", "/post")
		assert.Equal(t, http.StatusCreated, spec.Status)
		assert.Equal(t, "application/json", spec.ContentType)
		assert.JSONEq(t, `{"test":"test"}`, string(spec.Sources[0].Raw))
	})
}

func TestLoad_RootFile(t *testing.T) {
	tree, err := Load(context.Background(), filepath.Join("testdata", "api", "api.raml"))
	require.NoError(t, err)
	assert.Len(t, tree.Routes(), 9)
}

func TestLoad_RAML10Types(t *testing.T) {
	tree, err := Load(context.Background(), filepath.Join("testdata", "v10"))
	require.NoError(t, err)
	assert.Equal(t, "2", tree.Info().Version)

	t.Run("array of declared type", func(t *testing.T) {
		spec := match(t, tree, "GET", "/users")
		require.Len(t, spec.Sources, 1)
		v := synthesize(t, spec.Sources[0].Schema)
		users, ok := v.([]any)
		require.True(t, ok)
		require.NotEmpty(t, users)
		assert.IsType(t, int64(0), get(t, users[0], "id"))
		assert.IsType(t, "", get(t, users[0], "name"))
		assert.GreaterOrEqual(t, len(get(t, users[0], "tags").([]any)), 2)
	})

	t.Run("inherited type and examples", func(t *testing.T) {
		spec := match(t, tree, "GET", "/users/7")
		assert.Equal(t, []resource.Kind{resource.KindSchema, resource.KindInlineLiteral}, spec.SourceKinds())

		admin := synthesize(t, spec.Sources[0].Schema)
		level := get(t, admin, "level").(int64)
		assert.True(t, level >= 1 && level <= 3, "level = %d", level)
		assert.IsType(t, "", get(t, admin, "name"))

		assert.Equal(t, "Ada", get(t, spec.Sources[1].Value, "name"))
	})

	t.Run("response without body", func(t *testing.T) {
		spec := match(t, tree, "DELETE", "/users/7")
		assert.Equal(t, http.StatusNoContent, spec.Status)
		assert.Empty(t, spec.Sources)
	})

	t.Run("included JSON schema type", func(t *testing.T) {
		spec := match(t, tree, "GET", "/legacy")
		v := synthesize(t, spec.Sources[0].Schema)
		assert.Len(t, get(t, v, "code"), 36)
	})

	t.Run("included resource fragment", func(t *testing.T) {
		spec := match(t, tree, "GET", "/fragment")
		require.Len(t, spec.Sources, 1)
		assert.Equal(t, true, get(t, spec.Sources[0].Value, "fragment"))
	})
}

func TestLoad_StaticPathFallback(t *testing.T) {
	dir := t.TempDir()
	static := t.TempDir()
	writeFile(t, filepath.Join(dir, "api.raml"), `#%RAML 0.8
title: Static
/thing:
  get:
    responses:
      200:
        body:
          application/json:
            example: !include shared/thing.json
`)
	writeFile(t, filepath.Join(static, "shared", "thing.json"), `{"thing":1}`)

	_, err := Load(context.Background(), dir)
	var parseErr *ParseError
	require.True(t, errors.As(err, &parseErr))
	assert.Equal(t, 9, parseErr.Line)

	tree, err := Load(context.Background(), dir, WithStaticPath(static))
	require.NoError(t, err)
	spec := match(t, tree, "GET", "/thing")
	assert.Equal(t, []byte(`{"thing":1}`), spec.Sources[0].Data)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name     string
		files    map[string]string
		wantLine int
	}{
		{
			name:     "missing header",
			files:    map[string]string{"api.raml": "title: x\n"},
			wantLine: 1,
		},
		{
			name:     "unsupported version",
			files:    map[string]string{"api.raml": "#%RAML 2.0\ntitle: x\n"},
			wantLine: 1,
		},
		{
			name:     "broken yaml",
			files:    map[string]string{"api.raml": "#%RAML 0.8\ntitle: x\n/a:\n  get: [\n"},
			wantLine: 0,
		},
		{
			name:     "duplicate key",
			files:    map[string]string{"api.raml": "#%RAML 0.8\ntitle: x\n/a:\n  get:\n  get:\n"},
			wantLine: 0,
		},
		{
			name: "unknown schema",
			files: map[string]string{"api.raml": `#%RAML 0.8
title: x
/a:
  get:
    responses:
      200:
        body:
          application/json:
            schema: Missing
`},
			wantLine: 9,
		},
		{
			name: "invalid status",
			files: map[string]string{"api.raml": `#%RAML 0.8
title: x
/a:
  get:
    responses:
      ok:
        body: {}
`},
			wantLine: 6,
		},
		{
			name: "invalid schema json",
			files: map[string]string{"api.raml": `#%RAML 0.8
title: x
schemas:
  - broken: !include broken.json
`, "broken.json": `{"type": `},
		},
		{
			name:  "no raml file",
			files: map[string]string{"readme.txt": "nothing"},
		},
		{
			name:  "ambiguous root",
			files: map[string]string{"one.raml": "#%RAML 0.8\n", "two.raml": "#%RAML 0.8\n"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			for name, content := range tt.files {
				writeFile(t, filepath.Join(dir, name), content)
			}

			_, err := Load(context.Background(), dir)
			require.Error(t, err)
			var parseErr *ParseError
			require.True(t, errors.As(err, &parseErr), "got %T: %v", err, err)
			if tt.wantLine > 0 {
				assert.Equal(t, tt.wantLine, parseErr.Line, parseErr.Error())
			}
		})
	}
}

func TestLoad_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Load(ctx, filepath.Join("testdata", "api"))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFindRoot(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "other.raml"), "#%RAML 0.8\n")
	writeFile(t, filepath.Join(dir, "api.raml"), "#%RAML 0.8\n")

	root, err := FindRoot(dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "api.raml"), root)

	nested := t.TempDir()
	writeFile(t, filepath.Join(nested, "spec", "service.raml"), "#%RAML 1.0\n")
	root, err = FindRoot(nested)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(nested, "spec", "service.raml"), root)

	assert.True(t, IsDescription(dir))
	assert.True(t, IsDescription(filepath.Join(dir, "api.raml")))
	assert.False(t, IsDescription(t.TempDir()))
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}
