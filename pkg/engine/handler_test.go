package engine

import (
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/getmockd/ramlmock/pkg/config"
	"github.com/getmockd/ramlmock/pkg/httputil"
	"github.com/getmockd/ramlmock/pkg/resolve"
	"github.com/getmockd/ramlmock/pkg/resource"
)

func decodeError(t *testing.T, body []byte) httputil.ErrorBody {
	t.Helper()
	var e httputil.ErrorBody
	require.NoError(t, json.Unmarshal(body, &e), string(body))
	return e
}

func TestHandler_Scenarios(t *testing.T) {
	cfg := testConfig(ramlFixture)
	cfg.Prefix = config.StringList{"", "/api"}
	h := loadedServer(t, cfg).Handler()

	exampleJSON, err := os.ReadFile(filepath.Join(ramlFixture, "examples", "example.json"))
	require.NoError(t, err)

	tests := []struct {
		name       string
		method     string
		path       string
		wantStatus int
		wantBody   string
		wantHeader map[string]string
	}{
		{name: "example file verbatim", method: "GET", path: "/example-json", wantStatus: 200, wantBody: string(exampleJSON)},
		{name: "same tree under prefix", method: "GET", path: "/api/example-json", wantStatus: 200, wantBody: string(exampleJSON)},
		{name: "literal example compacted", method: "GET", path: "/example-literal", wantStatus: 200, wantBody: `{"test":"test"}`},
		{name: "example beats schema", method: "GET", path: "/schema-first", wantStatus: 200, wantBody: `{"test":"test"}`},
		{name: "uri parameter", method: "GET", path: "/parameter/4821", wantStatus: 200, wantBody: `{"test":"test"}`},
		{name: "nested resource", method: "GET", path: "/api/nested/foo", wantStatus: 200, wantBody: `{"value":"foo"}`},
		{name: "declared header", method: "GET", path: "/nested/bar", wantStatus: 200, wantBody: `{"value":"bar"}`, wantHeader: map[string]string{"X-Nested": "bar"}},
		{name: "2xx status", method: "POST", path: "/post", wantStatus: 201, wantBody: `{"test":"test"}`},
		{name: "head has no body", method: "HEAD", path: "/example-json", wantStatus: 200, wantBody: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, h, tt.method, tt.path, nil)
			require.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
			assert.Equal(t, tt.wantBody, rec.Body.String())
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
			for k, v := range tt.wantHeader {
				assert.Equal(t, v, rec.Header().Get(k))
			}
			_, err := uuid.Parse(rec.Header().Get(RequestIDHeader))
			assert.NoError(t, err)
		})
	}
}

func TestHandler_GeneratedBody(t *testing.T) {
	h := loadedServer(t, testConfig(ramlFixture)).Handler()

	rec := do(t, h, "GET", "/generated-values", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		ArrayOfObjects []map[string]any `json:"arrayOfObjects"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.NotEmpty(t, body.ArrayOfObjects)
	for _, item := range body.ArrayOfObjects {
		assert.IsType(t, "", item["text"])
		assert.IsType(t, true, item["isTrue"])
		assert.IsType(t, float64(0), item["date"])
	}
}

func TestHandler_SchemaPolicy(t *testing.T) {
	cfg := testConfig(ramlFixture)
	cfg.PrioritizeBy = "schema"
	h := loadedServer(t, cfg).Handler()

	for range 5 {
		rec := do(t, h, "GET", "/schema-first", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		var body map[string]any
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.IsType(t, "", body["test"])
	}
}

func TestHandler_Errors(t *testing.T) {
	cfg := testConfig(ramlFixture)
	cfg.Prefix = config.StringList{"/api"}
	h := loadedServer(t, cfg).Handler()

	t.Run("unknown path", func(t *testing.T) {
		rec := do(t, h, "GET", "/api/nope", nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, CodeRouteNotFound, decodeError(t, rec.Body.Bytes()).Error)
	})

	t.Run("near misses are suggested", func(t *testing.T) {
		rec := do(t, h, "GET", "/api/nested/baz", nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
		var body struct {
			Details struct {
				Suggestions []struct {
					Method  string `json:"method"`
					Pattern string `json:"pattern"`
					Reason  string `json:"reason"`
				} `json:"suggestions"`
			} `json:"details"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		require.Len(t, body.Details.Suggestions, 3)
		assert.Equal(t, "/api/nested/bar", body.Details.Suggestions[0].Pattern)
		assert.Equal(t, "/api/nested/foo", body.Details.Suggestions[1].Pattern)
		assert.Equal(t, "/api/parameter/{id}", body.Details.Suggestions[2].Pattern)
		assert.Equal(t, `segment 2 is "baz", expected "bar"`, body.Details.Suggestions[0].Reason)
	})

	t.Run("outside every prefix", func(t *testing.T) {
		rec := do(t, h, "GET", "/example-json", nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("method not declared", func(t *testing.T) {
		rec := do(t, h, "GET", "/api/post", nil)
		assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
		assert.Equal(t, "POST", rec.Header().Get("Allow"))
		e := decodeError(t, rec.Body.Bytes())
		assert.Equal(t, CodeMethodNotAllowed, e.Error)
		assert.Contains(t, e.Message, "/api/post")
	})

	t.Run("request id is echoed", func(t *testing.T) {
		rec := do(t, h, "GET", "/api/nope", http.Header{RequestIDHeader: {"abc-123"}})
		assert.Equal(t, "abc-123", rec.Header().Get(RequestIDHeader))
	})
}

func TestHandler_ServerErrors(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "api.raml"), `#%RAML 0.8
title: Broken
schemas:
  - node: |
      {"type": "object", "required": ["child"], "properties": {"child": {"$ref": "#"}}}
/cycle:
  get:
    responses:
      200:
        body:
          application/json:
            schema: node
/silent:
  get:
    description: declares no response
/gone:
  delete:
    responses:
      204:
`)
	h := loadedServer(t, testConfig(dir)).Handler()

	rec := do(t, h, "GET", "/cycle", nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, CodeSchemaCycle, decodeError(t, rec.Body.Bytes()).Error)

	rec = do(t, h, "GET", "/silent", nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, CodeNoResponseSource, decodeError(t, rec.Body.Bytes()).Error)

	rec = do(t, h, "DELETE", "/gone", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, rec.Body.String())
}

func TestHandler_MountFallback(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "api.raml"), `#%RAML 0.8
title: Mounted
/api/status:
  get:
    responses:
      200:
        body:
          application/json:
            example: '{"status":"up"}'
/users:
  get:
    responses:
      200:
        body:
          application/json:
            example: '[]'
`)
	cfg := testConfig(dir)
	cfg.Prefix = config.StringList{"", "/api"}
	h := loadedServer(t, cfg).Handler()

	tests := []struct {
		name       string
		method     string
		path       string
		wantStatus int
		wantBody   string
	}{
		{name: "declared under the prefix, reached at the root", method: "GET", path: "/api/status", wantStatus: http.StatusOK, wantBody: `{"status":"up"}`},
		{name: "through the prefix", method: "GET", path: "/api/users", wantStatus: http.StatusOK, wantBody: `[]`},
		{name: "at the root", method: "GET", path: "/users", wantStatus: http.StatusOK, wantBody: `[]`},
		{name: "method mismatch under a shorter mount", method: "POST", path: "/api/status", wantStatus: http.StatusMethodNotAllowed},
		{name: "nowhere", method: "GET", path: "/api/nope", wantStatus: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, h, tt.method, tt.path, nil)
			require.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
			if tt.wantBody != "" {
				assert.JSONEq(t, tt.wantBody, rec.Body.String())
			}
			if tt.wantStatus == http.StatusMethodNotAllowed {
				assert.Equal(t, "GET", rec.Header().Get("Allow"))
			}
			if tt.wantStatus == http.StatusNotFound {
				assert.Contains(t, decodeError(t, rec.Body.Bytes()).Message, tt.path)
			}
		})
	}
}

// swapOnRead publishes next right after the first read, as a reload that
// completes while that request is being answered would.
type swapOnRead struct {
	mu      sync.Mutex
	current *resource.Tree
	next    *resource.Tree
}

func (s *swapOnRead) Current() *resource.Tree {
	s.mu.Lock()
	defer s.mu.Unlock()
	tree := s.current
	if s.next != nil {
		s.current, s.next = s.next, nil
	}
	return tree
}

func literalTree(t *testing.T, pattern string, status int, version, body string) *resource.Tree {
	t.Helper()
	spec := resource.NewMethodSpec("GET")
	spec.Status = status
	spec.Headers = []resource.Header{{Name: "X-Version", Value: version}}
	spec.AddSource(resource.LiteralExample([]byte(body)))

	b := resource.NewBuilder()
	require.NoError(t, b.Add(pattern, spec))
	return b.Build(resource.Info{Title: "v" + version})
}

func TestHandler_RequestKeepsItsSnapshot(t *testing.T) {
	source := &swapOnRead{
		current: literalTree(t, "/thing", http.StatusOK, "1", `{"v":1}`),
		next:    literalTree(t, "/other", http.StatusCreated, "2", `{"v":2}`),
	}
	h := NewHandler(source, resolve.New(resolve.PolicyExample), HandlerConfig{})

	// The route is gone from the tree published mid-request; the request
	// is still answered entirely from the tree it started with.
	rec := do(t, h, "GET", "/thing", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "1", rec.Header().Get("X-Version"))
	assert.JSONEq(t, `{"v":1}`, rec.Body.String())

	rec = do(t, h, "GET", "/thing", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, h, "GET", "/other", nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "2", rec.Header().Get("X-Version"))
	assert.JSONEq(t, `{"v":2}`, rec.Body.String())
}

func TestHandler_NotReady(t *testing.T) {
	h := NewHandler(NewReloader(nil), nil, HandlerConfig{})
	rec := do(t, h, "GET", "/anything", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, CodeNotReady, decodeError(t, rec.Body.Bytes()).Error)
}

func TestHandler_Diagnostics(t *testing.T) {
	h := loadedServer(t, testConfig(ramlFixture)).Handler()

	rec := do(t, h, "GET", DiagnosticsPrefix+"health", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var health Health
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &health))
	assert.Equal(t, "ok", health.Status)
	assert.Equal(t, "Mocker Test API", health.Title)
	assert.Equal(t, 9, health.Routes)
	assert.Equal(t, "idle", health.Reload)
	assert.Equal(t, int64(1), health.Reloads)

	rec = do(t, h, "GET", DiagnosticsPrefix+"routes", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var routes []resource.Route
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &routes))
	assert.Len(t, routes, 9)
	assert.Equal(t, "/example-json", routes[0].Pattern)

	rec = do(t, h, "POST", DiagnosticsPrefix+"routes", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)

	rec = do(t, h, "GET", DiagnosticsPrefix+"nope", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandler_CORS(t *testing.T) {
	preflight := http.Header{
		"Origin":                         {"http://localhost:3000"},
		"Access-Control-Request-Method":  {"POST"},
		"Access-Control-Request-Headers": {"X-Custom"},
	}

	t.Run("enabled", func(t *testing.T) {
		h := loadedServer(t, testConfig(ramlFixture)).Handler()

		rec := do(t, h, "OPTIONS", "/post", preflight)
		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))
		assert.Equal(t, "X-Custom", rec.Header().Get("Access-Control-Allow-Headers"))
		assert.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), "POST")

		rec = do(t, h, "POST", "/post", http.Header{"Origin": {"http://localhost:3000"}})
		assert.Equal(t, http.StatusCreated, rec.Code)
		assert.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))
		assert.Equal(t, RequestIDHeader, rec.Header().Get("Access-Control-Expose-Headers"))
	})

	t.Run("disabled", func(t *testing.T) {
		cfg := testConfig(ramlFixture)
		cfg.CORS = false
		h := loadedServer(t, cfg).Handler()

		rec := do(t, h, "OPTIONS", "/post", preflight)
		assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
		assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
	})
}

func TestHandler_OpenAPI(t *testing.T) {
	h := loadedServer(t, testConfig(openapiFixture)).Handler()

	rec := do(t, h, "GET", "/pets/3", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"id":1,"name":"Alpha"}`, rec.Body.String())

	rec = do(t, h, "GET", "/pets", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "3", rec.Header().Get("X-Total-Count"))
	var pets []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &pets))
	assert.GreaterOrEqual(t, len(pets), 2)

	rec = do(t, h, "GET", "/health", nil)
	assert.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))
}
