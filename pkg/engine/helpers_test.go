package engine

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/getmockd/ramlmock/pkg/config"
)

var (
	ramlFixture    = filepath.Join("..", "raml", "testdata", "api")
	openapiFixture = filepath.Join("..", "openapi", "testdata", "petstore", "openapi.yaml")
)

func testConfig(path string) *config.Config {
	cfg := config.NewDefault()
	cfg.Path = path
	cfg.Host = "127.0.0.1"
	cfg.Port = 0
	cfg.Seed = 1
	return cfg
}

// loadedServer returns a server whose tree is loaded but which is not
// listening; requests go through Handler.
func loadedServer(t *testing.T, cfg *config.Config) *Server {
	t.Helper()
	srv, err := NewServer(cfg)
	require.NoError(t, err)
	require.NoError(t, srv.Reloader().Reload(context.Background()))
	return srv
}

func do(t *testing.T, h http.Handler, method, path string, header http.Header) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}
