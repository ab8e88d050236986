package httputil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteJSON(t *testing.T) {
	t.Parallel()

	t.Run("writes JSON with correct content type", func(t *testing.T) {
		t.Parallel()
		rec := httptest.NewRecorder()

		WriteJSON(rec, http.StatusOK, map[string]string{"foo": "bar"})

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
		assert.JSONEq(t, `{"foo":"bar"}`, rec.Body.String())
	})

	t.Run("handles nil data", func(t *testing.T) {
		t.Parallel()
		rec := httptest.NewRecorder()

		WriteJSON(rec, http.StatusNoContent, nil)

		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Empty(t, rec.Body.String())
	})
}

func TestWriteError(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	WriteError(rec, http.StatusNotFound, "route_not_found", "no route for GET /nope")

	assert.Equal(t, http.StatusNotFound, rec.Code)
	var body ErrorBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "route_not_found", body.Error)
	assert.Equal(t, "no route for GET /nope", body.Message)
	assert.Nil(t, body.Details)
	assert.NotContains(t, rec.Body.String(), "details")
}

func TestWriteErrorWithDetails(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	WriteErrorWithDetails(rec, http.StatusMethodNotAllowed, "method_not_allowed", "POST not allowed", map[string]any{"allowed": []string{"GET"}})

	assert.JSONEq(t, `{"error":"method_not_allowed","message":"POST not allowed","details":{"allowed":["GET"]}}`, rec.Body.String())
}

func TestWriteBody(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		method     string
		status     int
		wantBody   string
		wantType   string
		wantLength string
	}{
		{name: "get", method: http.MethodGet, status: http.StatusOK, wantBody: `{"a":1}`, wantType: "application/json", wantLength: "7"},
		{name: "head keeps length", method: http.MethodHead, status: http.StatusOK, wantBody: "", wantType: "application/json", wantLength: "7"},
		{name: "no content", method: http.MethodDelete, status: http.StatusNoContent, wantBody: "", wantType: "", wantLength: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(tt.method, "/x", nil)

			WriteBody(rec, req, tt.status, "application/json", []byte(`{"a":1}`))

			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, tt.wantBody, rec.Body.String())
			assert.Equal(t, tt.wantType, rec.Header().Get("Content-Type"))
			assert.Equal(t, tt.wantLength, rec.Header().Get("Content-Length"))
		})
	}
}
