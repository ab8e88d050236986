package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/getmockd/ramlmock/internal/matching"
	"github.com/getmockd/ramlmock/pkg/httputil"
	"github.com/getmockd/ramlmock/pkg/logging"
	"github.com/getmockd/ramlmock/pkg/resolve"
	"github.com/getmockd/ramlmock/pkg/resource"
	"github.com/getmockd/ramlmock/pkg/schema"
)

// DiagnosticsPrefix is reserved for the server's own endpoints and never
// routed to the description.
const DiagnosticsPrefix = "/__ramlmock/"

// RequestIDHeader carries the identifier generated for every request.
const RequestIDHeader = "X-Request-Id"

// Error codes of the diagnostic bodies.
const (
	CodeRouteNotFound    = "route_not_found"
	CodeMethodNotAllowed = "method_not_allowed"
	CodeNoResponseSource = "no_response_source"
	CodeSchemaCycle      = "schema_cycle"
	CodeTimeout          = "request_timeout"
	CodeInternal         = "internal_error"
	CodeNotReady         = "not_ready"
)

// TreeSource supplies the tree a request is answered from.
type TreeSource interface {
	Current() *resource.Tree
}

// HandlerConfig configures a Handler.
type HandlerConfig struct {
	// Prefixes are the normalized paths the tree is mounted under; "" is
	// the root. Defaults to the root only.
	Prefixes []string
	// RequestTimeout bounds body resolution. Defaults to 5s.
	RequestTimeout time.Duration
	Logger         *slog.Logger
}

// Handler answers requests from the current resource tree.
type Handler struct {
	source   TreeSource
	resolver *resolve.Resolver
	prefixes []string
	timeout  time.Duration
	log      *slog.Logger
}

// NewHandler creates a Handler.
func NewHandler(source TreeSource, resolver *resolve.Resolver, cfg HandlerConfig) *Handler {
	h := &Handler{
		source:   source,
		resolver: resolver,
		prefixes: cfg.Prefixes,
		timeout:  cfg.RequestTimeout,
		log:      cfg.Logger,
	}
	if len(h.prefixes) == 0 {
		h.prefixes = []string{""}
	}
	if h.timeout <= 0 {
		h.timeout = 5 * time.Second
	}
	if h.log == nil {
		h.log = logging.Nop()
	}
	return h
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set(RequestIDHeader, requestID(r))

	if strings.HasPrefix(r.URL.Path, DiagnosticsPrefix) {
		h.serveDiagnostics(w, r)
		return
	}

	// One snapshot for the whole request; a concurrent reload publishes a
	// new tree without affecting this one.
	tree := h.source.Current()
	if tree == nil {
		httputil.WriteError(w, http.StatusServiceUnavailable, CodeNotReady, "no description loaded yet")
		return
	}

	m, err := h.match(tree, r)
	if err != nil {
		h.writeError(w, r, tree, err)
		return
	}
	annotate(r, m.Pattern, "")

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	body, err := h.resolver.ResolveMatch(ctx, m)
	if err != nil {
		h.writeError(w, r, tree, err)
		return
	}
	if len(body.Data) > 0 {
		annotate(r, m.Pattern, body.Source.String())
	}

	for _, hdr := range m.Spec.Headers {
		w.Header().Set(hdr.Name, hdr.Value)
	}
	contentType := body.ContentType
	if len(body.Data) == 0 {
		contentType = ""
	}
	httputil.WriteBody(w, r, m.Spec.Status, contentType, body.Data)
}

func (h *Handler) match(tree *resource.Tree, r *http.Request) (*resource.Match, error) {
	m, _, err := MatchPath(tree, h.prefixes, r.Method, r.URL.Path)
	return m, err
}

// declares reports whether the tree declares method on the request path.
func (h *Handler) declares(r *http.Request, method string) bool {
	tree := h.source.Current()
	if tree == nil {
		return false
	}
	_, _, err := MatchPath(tree, h.prefixes, method, r.URL.Path)
	return err == nil
}

// MatchPath matches path under each mount prefix in turn, longest first, as
// if the tree were mounted at every prefix. It returns the match and the
// prefix it was found under. When no mount matches, a method mismatch under
// any of them is reported before a plain miss, and the error carries the
// full request path.
func MatchPath(tree *resource.Tree, prefixes []string, method, path string) (*resource.Match, string, error) {
	var miss *resource.RouteNotFoundError
	for _, mount := range matching.Mounts(prefixes, path) {
		m, err := tree.Match(method, matching.SplitPath(mount.Rest))
		if err == nil {
			return m, mount.Prefix, nil
		}
		var notFound *resource.RouteNotFoundError
		if !errors.As(err, &notFound) {
			return nil, "", err
		}
		if miss == nil || (notFound.MethodNotAllowed && !miss.MethodNotAllowed) {
			miss = notFound
		}
	}
	if miss == nil {
		miss = &resource.RouteNotFoundError{Method: method}
	}
	miss.Path = path
	return nil, "", miss
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, tree *resource.Tree, err error) {
	var (
		notFound *resource.RouteNotFoundError
		noSource *resolve.NoResponseSourceError
		cycle    *schema.CycleError
	)
	switch {
	case errors.As(err, &notFound) && notFound.MethodNotAllowed:
		w.Header().Set("Allow", strings.Join(notFound.Allowed, ", "))
		httputil.WriteErrorWithDetails(w, http.StatusMethodNotAllowed, CodeMethodNotAllowed, err.Error(),
			map[string]any{"allowed": notFound.Allowed})
	case errors.As(err, &notFound):
		if misses := Suggest(tree, h.prefixes, r.Method, r.URL.Path); len(misses) > 0 {
			httputil.WriteErrorWithDetails(w, http.StatusNotFound, CodeRouteNotFound, err.Error(),
				map[string]any{"suggestions": misses})
			return
		}
		httputil.WriteError(w, http.StatusNotFound, CodeRouteNotFound, err.Error())
	case errors.As(err, &noSource):
		h.log.Warn("route has no response", "method", r.Method, "path", r.URL.Path, "error", err)
		httputil.WriteError(w, http.StatusInternalServerError, CodeNoResponseSource, err.Error())
	case errors.As(err, &cycle):
		h.log.Warn("schema cannot be generated", "method", r.Method, "path", r.URL.Path, "error", err)
		httputil.WriteErrorWithDetails(w, http.StatusInternalServerError, CodeSchemaCycle, err.Error(),
			map[string]any{"location": cycle.Location, "path": cycle.Path})
	case errors.Is(err, context.DeadlineExceeded):
		h.log.Warn("response generation timed out", "method", r.Method, "path", r.URL.Path)
		httputil.WriteError(w, http.StatusInternalServerError, CodeTimeout, fmt.Sprintf("response not generated within %s", h.timeout))
	case errors.Is(err, context.Canceled):
		// Client went away; nobody reads the response.
	default:
		h.log.Error("failed to resolve response", "method", r.Method, "path", r.URL.Path, "error", err)
		httputil.WriteError(w, http.StatusInternalServerError, CodeInternal, err.Error())
	}
}

// maxSuggestions bounds the near misses reported for an unmatched request.
const maxSuggestions = 3

// Suggest returns the declared routes closest to an unmatched request, with
// their patterns mounted under the prefix the request used.
func Suggest(tree *resource.Tree, prefixes []string, method, path string) []matching.NearMiss {
	if tree == nil {
		return nil
	}
	rest, prefix, ok := matching.StripPrefix(prefixes, path)
	if !ok {
		rest, prefix = path, ""
		if len(prefixes) > 0 {
			prefix = prefixes[0]
		}
	}

	routes := tree.Routes()
	candidates := make([]matching.Candidate, len(routes))
	for i, route := range routes {
		candidates[i] = matching.Candidate{Method: route.Method, Pattern: route.Pattern}
	}
	misses := matching.FindNearMisses(method, matching.SplitPath(rest), candidates, maxSuggestions)
	for i := range misses {
		if prefix != "" {
			misses[i].Pattern = strings.TrimSuffix(prefix+misses[i].Pattern, "/")
		}
	}
	return misses
}

// requestID reuses a caller supplied identifier or generates one.
func requestID(r *http.Request) string {
	if id := r.Header.Get(RequestIDHeader); id != "" {
		return id
	}
	return uuid.NewString()
}
