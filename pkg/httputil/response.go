// Package httputil writes the mock server's responses.
package httputil

import (
	"encoding/json"
	"net/http"
	"strconv"
)

// ErrorBody is the diagnostic body of every error response.
type ErrorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// WriteJSON writes data as JSON with the given status code.
func WriteJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

// WriteError writes a JSON error response.
func WriteError(w http.ResponseWriter, status int, errCode, message string) {
	WriteJSON(w, status, ErrorBody{Error: errCode, Message: message})
}

// WriteErrorWithDetails writes a JSON error response carrying extra
// structured context, such as the methods a route does allow.
func WriteErrorWithDetails(w http.ResponseWriter, status int, errCode, message string, details any) {
	WriteJSON(w, status, ErrorBody{Error: errCode, Message: message, Details: details})
}

// WriteBody writes a prepared body verbatim. The body is omitted for HEAD
// requests and for statuses that cannot carry one, but Content-Length still
// reports its size for HEAD.
func WriteBody(w http.ResponseWriter, r *http.Request, status int, contentType string, data []byte) {
	if !bodyAllowed(status) {
		w.WriteHeader(status)
		return
	}
	if contentType != "" {
		w.Header().Set("Content-Type", contentType)
	}
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(status)
	if r.Method != http.MethodHead {
		_, _ = w.Write(data)
	}
}

func bodyAllowed(status int) bool {
	switch {
	case status >= 100 && status < 200:
		return false
	case status == http.StatusNoContent, status == http.StatusNotModified:
		return false
	}
	return true
}
