package resource

import (
	"maps"
	"net/http"
	"strings"

	"github.com/getmockd/ramlmock/internal/matching"
)

// Match is the result of resolving a request path against a Tree.
type Match struct {
	Spec *MethodSpec
	// Params binds URI parameter names to the request's path components.
	Params map[string]string
	// Pattern is the declared path that matched, e.g. "/users/{id}".
	Pattern string
}

// Match finds the resource and method spec for a request. segments are the
// request path's components (see matching.SplitPath).
//
// At every depth a literal segment is preferred to a template, and a
// template to a bare parameter. If the preferred branch cannot match the
// rest of the path the next one is tried. HEAD falls back to GET.
func (t *Tree) Match(method string, segments []string) (*Match, error) {
	method = strings.ToUpper(method)

	var (
		found    *Match
		pathOnly *Node
	)
	t.root.search(segments, map[string]string{}, func(n *Node, params map[string]string) bool {
		if len(n.methods) == 0 {
			return false
		}
		spec, ok := n.methods[method]
		if !ok && method == http.MethodHead {
			spec, ok = n.methods[http.MethodGet]
		}
		if ok {
			found = &Match{Spec: spec, Params: params, Pattern: n.pattern}
			return true
		}
		if pathOnly == nil {
			pathOnly = n
		}
		return false
	})

	if found != nil {
		return found, nil
	}
	err := &RouteNotFoundError{Method: method, Path: matching.JoinPath(segments)}
	if pathOnly != nil {
		err.MethodNotAllowed = true
		err.Allowed = pathOnly.Methods()
	}
	return nil, err
}

// search visits, most specific first, every node whose pattern matches
// segments, stopping as soon as visit returns true.
func (n *Node) search(segments []string, params map[string]string, visit func(*Node, map[string]string) bool) bool {
	if len(segments) == 0 {
		return visit(n, params)
	}
	for _, c := range n.ordered {
		bound := maps.Clone(params)
		if c.segment.Match(segments[0], bound) == 0 {
			continue
		}
		if c.search(segments[1:], bound, visit) {
			return true
		}
	}
	return false
}
