package engine

import (
	"bytes"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/getmockd/ramlmock/pkg/logging"
)

func TestAccessLog(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.New(logging.Config{Level: logging.LevelDebug, Format: logging.FormatJSON, Output: &buf})

	srv, err := NewServer(testConfig(ramlFixture), WithLogger(logger))
	require.NoError(t, err)
	require.NoError(t, srv.Reloader().Reload(t.Context()))
	buf.Reset()

	rec := do(t, srv.Handler(), "GET", "/parameter/9", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry), buf.String())
	assert.Equal(t, "request", entry["msg"])
	assert.Equal(t, "GET", entry["method"])
	assert.Equal(t, "/parameter/9", entry["path"])
	assert.Equal(t, float64(200), entry["status"])
	assert.Equal(t, "/parameter/{id}", entry["route"])
	assert.Equal(t, "inline", entry["source"])
	assert.Equal(t, rec.Header().Get(RequestIDHeader), entry["request_id"])
}

func TestAccessLog_DisabledAboveDebug(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.New(logging.Config{Level: logging.LevelInfo, Format: logging.FormatJSON, Output: &buf})

	h := AccessLog(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}), logger)
	rec := do(t, h, "GET", "/x", nil)
	assert.Equal(t, http.StatusTeapot, rec.Code)
	assert.Empty(t, buf.String())
}
