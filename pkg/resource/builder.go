package resource

import (
	"fmt"
	"strings"
	"time"

	"github.com/getmockd/ramlmock/internal/matching"
)

// Builder assembles a Tree. Resources may be added in any order; sibling
// segments with the same text are merged into one node.
//
// A Builder is not safe for concurrent use and must not be reused after Build.
type Builder struct {
	root *Node
	now  func() time.Time
}

// NewBuilder creates an empty builder.
func NewBuilder() *Builder {
	return &Builder{
		root: &Node{pattern: "/", methods: make(map[string]*MethodSpec)},
		now:  time.Now,
	}
}

// Add declares spec on the resource at pattern, creating intermediate
// nodes. A pattern such as "/a/b" yields one node per segment.
func (b *Builder) Add(pattern string, spec *MethodSpec) error {
	if spec == nil {
		return fmt.Errorf("resource %s: nil method spec", pattern)
	}
	method := strings.ToUpper(spec.Method)
	if !IsSupportedMethod(method) {
		return fmt.Errorf("resource %s: unsupported method %q", pattern, spec.Method)
	}
	spec.Method = method
	if spec.ContentType == "" {
		spec.ContentType = DefaultContentType
	}

	n, err := b.Resource(pattern)
	if err != nil {
		return err
	}
	if _, exists := n.methods[method]; exists {
		return &DuplicateRouteError{Method: method, Pattern: n.pattern}
	}
	n.methods[method] = spec
	return nil
}

// Resource returns the node at pattern, creating it and its ancestors.
func (b *Builder) Resource(pattern string) (*Node, error) {
	n := b.root
	for _, raw := range matching.SplitPath(pattern) {
		if c := n.child(raw); c != nil {
			n = c
			continue
		}
		seg, err := matching.CompileSegment(raw)
		if err != nil {
			return nil, fmt.Errorf("resource %s: %w", pattern, err)
		}
		c := &Node{
			segment: seg,
			pattern: strings.TrimSuffix(n.pattern, "/") + "/" + raw,
			methods: make(map[string]*MethodSpec),
		}
		n.children = append(n.children, c)
		n = c
	}
	return n, nil
}

// Build seals the tree.
func (b *Builder) Build(info Info) *Tree {
	b.root.seal()
	return &Tree{root: b.root, info: info, builtAt: b.now()}
}
