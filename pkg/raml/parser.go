package raml

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/getmockd/ramlmock/pkg/resource"
	"github.com/getmockd/ramlmock/pkg/schema"
)

// maxNesting bounds resource nesting and include depth, which also stops
// files that include themselves.
const maxNesting = 64

// bodyKeys are the keys that mark a body declaration without media types.
var bodyKeys = []string{"example", "examples", "schema", "type"}

type parser struct {
	ctx        context.Context
	version    string
	rootDir    string
	staticPath string
	logger     *slog.Logger

	compiler  *schema.Compiler
	builder   *resource.Builder
	mediaType string
	files     []string
}

func pairs(n *yaml.Node) [][2]*yaml.Node {
	if n == nil || n.Kind != yaml.MappingNode {
		return nil
	}
	out := make([][2]*yaml.Node, 0, len(n.Content)/2)
	for i := 0; i+1 < len(n.Content); i += 2 {
		out = append(out, [2]*yaml.Node{n.Content[i], n.Content[i+1]})
	}
	return out
}

func isNull(n *yaml.Node) bool {
	return n == nil || (n.Kind == yaml.ScalarNode && n.ShortTag() == "!!null")
}

func (p *parser) document(file string, root *yaml.Node) (resource.Info, error) {
	var info resource.Info

	// Declarations first: bodies refer to them by name wherever they appear.
	for _, kv := range pairs(root) {
		key, val := kv[0], kv[1]
		switch key.Value {
		case "title":
			info.Title = val.Value
		case "version":
			info.Version = val.Value
		case "baseUri":
			info.BaseURI = val.Value
		case "mediaType":
			switch {
			case val.Kind == yaml.ScalarNode && val.Value != "":
				p.mediaType = val.Value
			case val.Kind == yaml.SequenceNode && len(val.Content) > 0:
				p.mediaType = val.Content[0].Value
			}
		case "schemas", "types":
			if err := p.declarations(file, val, key.Value == "types"); err != nil {
				return info, err
			}
		}
	}

	for _, kv := range pairs(root) {
		if strings.HasPrefix(kv[0].Value, "/") {
			if err := p.resource(file, "", kv[0], kv[1], 0); err != nil {
				return info, err
			}
		}
	}
	return info, nil
}

func (p *parser) resource(file, parent string, key, val *yaml.Node, depth int) error {
	if err := p.ctx.Err(); err != nil {
		return err
	}
	if depth >= maxNesting {
		return errorAt(file, key, errors.New("resources nested too deeply"))
	}

	pattern := parent + strings.TrimSuffix(key.Value, "/")
	if _, err := p.builder.Resource(pattern); err != nil {
		return errorAt(file, key, err)
	}

	val, file, err := p.node(file, val)
	if err != nil {
		return err
	}
	for _, kv := range pairs(val) {
		k, v := kv[0], kv[1]
		switch {
		case strings.HasPrefix(k.Value, "/"):
			if err := p.resource(file, pattern, k, v, depth+1); err != nil {
				return err
			}
		case resource.IsSupportedMethod(k.Value) && k.Value == strings.ToLower(k.Value):
			if err := p.method(file, pattern, k, v); err != nil {
				return err
			}
		}
	}
	return nil
}

func (p *parser) method(file, pattern string, key, val *yaml.Node) error {
	spec := resource.NewMethodSpec(key.Value)
	spec.ContentType = p.mediaType

	val, file, err := p.node(file, val)
	if err != nil {
		return err
	}
	for _, kv := range pairs(val) {
		switch kv[0].Value {
		case "description":
			spec.Description = kv[1].Value
		case "responses":
			if err := p.responses(file, spec, kv[1]); err != nil {
				return err
			}
		}
	}

	if err := p.builder.Add(pattern, spec); err != nil {
		return errorAt(file, key, err)
	}
	return nil
}

// responses picks the response the mock serves: the lowest 2xx code, or
// the lowest code of any class when no 2xx is declared.
func (p *parser) responses(file string, spec *resource.MethodSpec, n *yaml.Node) error {
	n, file, err := p.node(file, n)
	if err != nil || isNull(n) {
		return err
	}
	if n.Kind != yaml.MappingNode {
		return errorAt(file, n, errors.New("responses must be a mapping of status codes"))
	}

	type declared struct {
		code int
		val  *yaml.Node
	}
	var codes []declared
	for _, kv := range pairs(n) {
		code, err := strconv.Atoi(kv[0].Value)
		if err != nil || code < 100 || code > 599 {
			return errorAt(file, kv[0], fmt.Errorf("invalid status code %q", kv[0].Value))
		}
		codes = append(codes, declared{code: code, val: kv[1]})
	}
	if len(codes) == 0 {
		return nil
	}

	slices.SortStableFunc(codes, func(a, b declared) int {
		a2xx, b2xx := a.code/100 == 2, b.code/100 == 2
		switch {
		case a2xx && !b2xx:
			return -1
		case b2xx && !a2xx:
			return 1
		}
		return a.code - b.code
	})
	spec.Status = codes[0].code
	spec.Declared = true
	return p.response(file, spec, codes[0].val)
}

func (p *parser) response(file string, spec *resource.MethodSpec, n *yaml.Node) error {
	n, file, err := p.node(file, n)
	if err != nil {
		return err
	}
	for _, kv := range pairs(n) {
		switch kv[0].Value {
		case "headers":
			if err := p.headers(file, spec, kv[1]); err != nil {
				return err
			}
		case "body":
			if err := p.body(file, spec, kv[1]); err != nil {
				return err
			}
		}
	}
	return nil
}

func (p *parser) headers(file string, spec *resource.MethodSpec, n *yaml.Node) error {
	n, file, err := p.node(file, n)
	if err != nil {
		return err
	}
	for _, kv := range pairs(n) {
		decl, _, err := p.node(file, kv[1])
		if err != nil {
			return err
		}
		for _, facet := range []string{"example", "default"} {
			if v := lookup(decl, facet); v != nil && v.Kind == yaml.ScalarNode && !isNull(v) {
				spec.Headers = append(spec.Headers, resource.Header{Name: kv[0].Value, Value: v.Value})
				break
			}
		}
	}
	return nil
}

func lookup(n *yaml.Node, key string) *yaml.Node {
	for _, kv := range pairs(n) {
		if kv[0].Value == key {
			return kv[1]
		}
	}
	return nil
}

// body handles both "body: {application/json: {...}}" and the shorthand
// "body: {schema: ..., example: ...}" that uses the default media type.
func (p *parser) body(file string, spec *resource.MethodSpec, n *yaml.Node) error {
	n, file, err := p.node(file, n)
	if err != nil || isNull(n) {
		return err
	}
	if n.Kind == yaml.ScalarNode || n.Tag == "!include" {
		// RAML 1.0 "body: User".
		src, err := p.schemaSource(file, n, true)
		if err != nil {
			return err
		}
		spec.AddSource(src)
		return nil
	}

	entries := pairs(n)
	for _, kv := range entries {
		if slices.Contains(bodyKeys, kv[0].Value) {
			return p.bodyContent(file, spec, n)
		}
	}
	if len(entries) == 0 {
		return nil
	}

	chosen := entries[0]
	for _, kv := range entries {
		mt := strings.ToLower(kv[0].Value)
		if mt == "application/json" {
			chosen = kv
			break
		}
		if strings.HasSuffix(mt, "+json") && !strings.HasSuffix(strings.ToLower(chosen[0].Value), "json") {
			chosen = kv
		}
	}
	spec.ContentType = chosen[0].Value
	return p.bodyContent(file, spec, chosen[1])
}

// bodyContent adds the candidates of one media type in document order.
func (p *parser) bodyContent(file string, spec *resource.MethodSpec, n *yaml.Node) error {
	n, file, err := p.node(file, n)
	if err != nil || isNull(n) {
		return err
	}
	if n.Kind == yaml.ScalarNode {
		src, err := p.schemaSource(file, n, true)
		if err != nil {
			return err
		}
		spec.AddSource(src)
		return nil
	}

	for _, kv := range pairs(n) {
		key, val := kv[0], kv[1]
		var (
			src resource.ResponseSource
			err error
		)
		switch key.Value {
		case "example":
			src, err = p.example(file, val)
		case "examples":
			first, ferr := p.firstExample(file, val)
			if ferr != nil {
				return ferr
			}
			if first == nil {
				continue
			}
			src, err = p.example(file, first)
		case "schema":
			src, err = p.schemaSource(file, val, p.version == Version10)
		case "type":
			src, err = p.schemaSource(file, val, true)
		default:
			continue
		}
		if err != nil {
			return err
		}
		spec.AddSource(src)
	}
	return nil
}

// firstExample returns the first entry of a RAML 1.0 "examples" facet,
// unwrapping "{value: ...}" entries.
func (p *parser) firstExample(file string, n *yaml.Node) (*yaml.Node, error) {
	n, _, err := p.node(file, n)
	if err != nil {
		return nil, err
	}
	var first *yaml.Node
	switch n.Kind {
	case yaml.MappingNode:
		if len(n.Content) >= 2 {
			first = n.Content[1]
		}
	case yaml.SequenceNode:
		if len(n.Content) > 0 {
			first = n.Content[0]
		}
	}
	if first != nil && first.Kind == yaml.MappingNode {
		if v := lookup(first, "value"); v != nil {
			return v, nil
		}
	}
	return first, nil
}

func (p *parser) example(file string, n *yaml.Node) (resource.ResponseSource, error) {
	for n.Kind == yaml.AliasNode {
		n = n.Alias
	}
	if n.Tag == "!include" {
		path, data, err := p.readInclude(file, n)
		if err != nil {
			return resource.ResponseSource{}, err
		}
		return resource.ExampleFile(p.rel(path), data), nil
	}
	if n.Kind == yaml.ScalarNode && n.ShortTag() == "!!str" {
		return resource.LiteralExample([]byte(n.Value)), nil
	}
	v, err := p.decode(file, n, 0)
	if err != nil {
		return resource.ResponseSource{}, err
	}
	return resource.InlineLiteral(v), nil
}

func (p *parser) schemaSource(file string, n *yaml.Node, ramlType bool) (resource.ResponseSource, error) {
	s, err := p.schemaFor(file, n, ramlType)
	if err != nil {
		return resource.ResponseSource{}, err
	}
	return resource.SchemaSource(s), nil
}

// rel returns path relative to the description's directory when possible.
func (p *parser) rel(path string) string {
	if r, err := filepath.Rel(p.rootDir, path); err == nil && !strings.HasPrefix(r, "..") {
		return filepath.ToSlash(r)
	}
	return path
}
