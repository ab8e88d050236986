package resource

import (
	"slices"
	"time"

	"github.com/getmockd/ramlmock/internal/matching"
)

// Node is one path segment of the resource tree.
type Node struct {
	segment  matching.Segment
	pattern  string
	children []*Node
	methods  map[string]*MethodSpec

	// ordered holds children most specific first, stable in declaration order.
	ordered []*Node
}

// Segment returns the declared segment, e.g. "users" or "{id}".
func (n *Node) Segment() string { return n.segment.Raw }

// Pattern returns the full declared path of the node, e.g. "/users/{id}".
func (n *Node) Pattern() string { return n.pattern }

// Children returns the child nodes in declaration order.
func (n *Node) Children() []*Node { return n.children }

// Method returns the spec declared for method, if any.
func (n *Node) Method(method string) (*MethodSpec, bool) {
	spec, ok := n.methods[method]
	return spec, ok
}

// Methods lists the declared methods in canonical order.
func (n *Node) Methods() []string {
	out := make([]string, 0, len(n.methods))
	for _, m := range methodOrder {
		if _, ok := n.methods[m]; ok {
			out = append(out, m)
		}
	}
	return out
}

func (n *Node) child(raw string) *Node {
	for _, c := range n.children {
		if c.segment.Raw == raw {
			return c
		}
	}
	return nil
}

// seal orders every node's children for matching. Called once by Build.
func (n *Node) seal() {
	n.ordered = slices.Clone(n.children)
	slices.SortStableFunc(n.ordered, func(a, b *Node) int {
		return int(b.segment.Kind) - int(a.segment.Kind)
	})
	for _, c := range n.children {
		c.seal()
	}
}

// Info is descriptive metadata about the interface description a tree was
// built from.
type Info struct {
	Title   string
	Version string
	BaseURI string
	// Files lists every file read while building the tree.
	Files []string
}

// Tree is an immutable index of declared resources. It is built once per
// description change and replaced wholesale; readers never need a lock.
type Tree struct {
	root    *Node
	info    Info
	builtAt time.Time
}

// Root returns the node for "/".
func (t *Tree) Root() *Node { return t.root }

// Info returns the tree's metadata.
func (t *Tree) Info() Info { return t.info }

// BuiltAt returns when the tree was built.
func (t *Tree) BuiltAt() time.Time { return t.builtAt }

// Route is one declared method on one resource.
type Route struct {
	Method      string   `json:"method"`
	Pattern     string   `json:"pattern"`
	Status      int      `json:"status"`
	ContentType string   `json:"contentType"`
	Sources     []string `json:"sources"`
}

// Routes lists every declared route, resources in declaration order.
func (t *Tree) Routes() []Route {
	var routes []Route
	var walk func(n *Node)
	walk = func(n *Node) {
		for _, m := range n.Methods() {
			spec := n.methods[m]
			sources := make([]string, len(spec.Sources))
			for i, s := range spec.Sources {
				sources[i] = s.Kind.String()
			}
			routes = append(routes, Route{
				Method:      m,
				Pattern:     n.pattern,
				Status:      spec.Status,
				ContentType: spec.ContentType,
				Sources:     sources,
			})
		}
		for _, c := range n.children {
			walk(c)
		}
	}
	walk(t.root)
	return routes
}
