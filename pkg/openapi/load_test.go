package openapi

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

var petstore = filepath.Join("testdata", "petstore", "openapi.yaml")

func match(t *testing.T, tree *resource.Tree, method, path string) *resource.MethodSpec {
	t.Helper()
	m, err := tree.Match(method, matching.SplitPath(path))
	require.NoError(t, err, "%s %s", method, path)
	return m.Spec
}

func synthesize(t *testing.T, s *schema.Schema) any {
	t.Helper()
	v, err := schema.NewSynthesizer(schema.WithSeed(3)).Synthesize(context.Background(), s)
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

func TestLoad_Petstore(t *testing.T) {
	tree, err := Load(context.Background(), petstore)
	require.NoError(t, err)

	info := tree.Info()
	assert.Equal(t, "Petstore", info.Title)
	assert.Equal(t, "1.2.0", info.Version)
	assert.Equal(t, "http://localhost:8080/v1", info.BaseURI)
	assert.Len(t, tree.Routes(), 5)

	t.Run("schema with component ref", func(t *testing.T) {
		spec := match(t, tree, "GET", "/pets")
		assert.Equal(t, http.StatusOK, spec.Status)
		assert.Equal(t, "List pets", spec.Description)
		assert.Equal(t, []resource.Header{{Name: "X-Total-Count", Value: "3"}}, spec.Headers)
		require.Equal(t, []resource.Kind{resource.KindSchema}, spec.SourceKinds())

		s := spec.Sources[0].Schema
		pets, ok := synthesize(t, s).([]any)
		require.True(t, ok)
		require.GreaterOrEqual(t, len(pets), 2)
		assert.IsType(t, int64(0), get(t, pets[0], "id"))
		assert.Contains(t, []any{"cat", "dog"}, get(t, pets[0], "tag"))
		assert.NoError(t, s.Validate(pets))
	})

	t.Run("2xx wins over 4xx", func(t *testing.T) {
		spec := match(t, tree, "POST", "/pets")
		assert.Equal(t, http.StatusCreated, spec.Status)
		require.Equal(t, []resource.Kind{resource.KindInlineLiteral}, spec.SourceKinds())
		assert.Equal(t, "Rex", get(t, spec.Sources[0].Value, "name"))
	})

	t.Run("json content and first example by name", func(t *testing.T) {
		spec := match(t, tree, "GET", "/pets/7")
		assert.Equal(t, "application/json", spec.ContentType)
		require.Equal(t, []resource.Kind{resource.KindExampleFile, resource.KindSchema}, spec.SourceKinds())

		want, err := os.ReadFile(filepath.Join("testdata", "petstore", "examples", "pet.json"))
		require.NoError(t, err)
		assert.Equal(t, want, spec.Sources[0].Data)
		assert.Equal(t, "examples/pet.json", spec.Sources[0].Path)
	})

	t.Run("no content", func(t *testing.T) {
		spec := match(t, tree, "DELETE", "/pets/7")
		assert.Equal(t, http.StatusNoContent, spec.Status)
		assert.Empty(t, spec.Sources)
	})

	t.Run("default response and external schema", func(t *testing.T) {
		spec := match(t, tree, "GET", "/health")
		assert.Equal(t, http.StatusOK, spec.Status)
		assert.Equal(t, "application/problem+json", spec.ContentType)
		require.Len(t, spec.Sources, 1)

		v := synthesize(t, spec.Sources[0].Schema)
		code := get(t, v, "code").(int64)
		assert.True(t, code >= 400 && code <= 599, "code = %d", code)
		assert.IsType(t, "", get(t, v, "message"))
	})
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{name: "not yaml", content: "openapi: [\n"},
		{name: "missing info", content: "openapi: 3.0.3\npaths: {}\n"},
		{name: "dangling ref", content: `openapi: 3.0.3
info: {title: x, version: "1"}
paths:
  /a:
    get:
      responses:
        "200":
          description: ok
          content:
            application/json:
              schema:
                $ref: "#/components/schemas/Missing"
`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "openapi.yaml")
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0o600))

			_, err := Load(context.Background(), path)
			var loadErr *LoadError
			require.True(t, errors.As(err, &loadErr), "got %T: %v", err, err)
			assert.Equal(t, path, loadErr.File)
		})
	}
}

func TestIsDescription(t *testing.T) {
	assert.True(t, IsDescription(petstore))

	dir := t.TempDir()
	swagger := filepath.Join(dir, "swagger.json")
	require.NoError(t, os.WriteFile(swagger, []byte(`{"swagger": "2.0"}`), 0o600))
	assert.False(t, IsDescription(swagger))

	raml := filepath.Join(dir, "api.raml")
	require.NoError(t, os.WriteFile(raml, []byte("#%RAML 1.0\n"), 0o600))
	assert.False(t, IsDescription(raml))
	assert.False(t, IsDescription(dir))
}
