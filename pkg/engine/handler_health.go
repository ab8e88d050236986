package engine

import (
	"net/http"
	"time"

	"github.com/getmockd/ramlmock/pkg/httputil"
	"github.com/getmockd/ramlmock/pkg/resource"
)

// reloadStatus is implemented by a TreeSource that rebuilds its tree.
type reloadStatus interface {
	State() ReloadState
	LastError() error
	Stats() ReloadStats
}

// Health is the body of GET /__ramlmock/health.
type Health struct {
	Status    string    `json:"status"`
	Title     string    `json:"title,omitempty"`
	Version   string    `json:"version,omitempty"`
	Routes    int       `json:"routes"`
	BuiltAt   time.Time `json:"builtAt,omitzero"`
	Reload    string    `json:"reload,omitempty"`
	Reloads   int64     `json:"reloads"`
	Failures  int64     `json:"failures"`
	LastError string    `json:"lastError,omitempty"`
}

func (h *Handler) serveDiagnostics(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", "GET, HEAD")
		httputil.WriteError(w, http.StatusMethodNotAllowed, CodeMethodNotAllowed, "diagnostics are read-only")
		return
	}

	tree := h.source.Current()
	switch r.URL.Path {
	case DiagnosticsPrefix + "health":
		health := h.health(tree)
		status := http.StatusOK
		if tree == nil {
			status = http.StatusServiceUnavailable
		}
		httputil.WriteJSON(w, status, health)
	case DiagnosticsPrefix + "routes":
		routes := []resource.Route{}
		if tree != nil {
			routes = append(routes, tree.Routes()...)
		}
		httputil.WriteJSON(w, http.StatusOK, routes)
	default:
		httputil.WriteError(w, http.StatusNotFound, CodeRouteNotFound, "unknown diagnostics endpoint "+r.URL.Path)
	}
}

func (h *Handler) health(tree *resource.Tree) Health {
	out := Health{Status: "ok"}
	if tree == nil {
		out.Status = "loading"
	} else {
		info := tree.Info()
		out.Title, out.Version = info.Title, info.Version
		out.Routes = len(tree.Routes())
		out.BuiltAt = tree.BuiltAt()
	}
	if rs, ok := h.source.(reloadStatus); ok {
		out.Reload = rs.State().String()
		stats := rs.Stats()
		out.Reloads, out.Failures = stats.Reloads, stats.Failures
		if err := rs.LastError(); err != nil {
			out.LastError = err.Error()
			if tree != nil {
				out.Status = "degraded"
			}
		}
	}
	return out
}
