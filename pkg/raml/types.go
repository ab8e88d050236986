package raml

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/getmockd/ramlmock/pkg/schema"
)

// builtinTypes maps RAML 1.0 built-in type names to JSON Schema.
var builtinTypes = map[string]schema.Object{
	"string":        {{Name: "type", Value: "string"}},
	"number":        {{Name: "type", Value: "number"}},
	"integer":       {{Name: "type", Value: "integer"}},
	"boolean":       {{Name: "type", Value: "boolean"}},
	"object":        {{Name: "type", Value: "object"}},
	"array":         {{Name: "type", Value: "array"}},
	"nil":           {{Name: "type", Value: "null"}},
	"null":          {{Name: "type", Value: "null"}},
	"any":           {},
	"date-only":     {{Name: "type", Value: "string"}, {Name: "format", Value: "date"}},
	"time-only":     {{Name: "type", Value: "string"}, {Name: "format", Value: "time"}},
	"datetime":      {{Name: "type", Value: "string"}, {Name: "format", Value: "date-time"}},
	"datetime-only": {{Name: "type", Value: "string"}, {Name: "format", Value: "date-time"}},
	"file":          {{Name: "type", Value: "string"}, {Name: "format", Value: "binary"}},
}

// passthroughFacets are copied from RAML type declarations unchanged; their
// meaning is the same in JSON Schema.
var passthroughFacets = []string{
	"enum", "format", "pattern", "default", "example", "description",
	"minimum", "maximum", "multipleOf",
	"minLength", "maxLength", "minItems", "maxItems", "uniqueItems",
}

func looksLikeJSON(s string) bool {
	s = strings.TrimSpace(s)
	return strings.HasPrefix(s, "{") || strings.HasPrefix(s, "[")
}

// declarations registers "schemas:" (0.8) or "types:" (1.0). 0.8 allows a
// list of single-entry mappings as well as a mapping.
func (p *parser) declarations(file string, n *yaml.Node, ramlTypes bool) error {
	n, file, err := p.node(file, n)
	if err != nil || isNull(n) {
		return err
	}

	var entries [][2]*yaml.Node
	switch n.Kind {
	case yaml.MappingNode:
		entries = pairs(n)
	case yaml.SequenceNode:
		for _, item := range n.Content {
			if item.Kind != yaml.MappingNode {
				return errorAt(file, item, errors.New("schema list entries must be mappings"))
			}
			entries = append(entries, pairs(item)...)
		}
	default:
		return errorAt(file, n, errors.New("schema declarations must be a mapping or a list"))
	}

	for _, kv := range entries {
		name := kv[0].Value
		doc, origin, err := p.schemaDocument(file, kv[1], ramlTypes)
		if err != nil {
			return err
		}
		if err := p.compiler.AddDocument(name, doc); err != nil {
			return errorAt(file, kv[0], err)
		}
		// Included files are also reachable by path so "$ref": "item.json"
		// works from other schemas.
		if origin != "" {
			for _, alias := range []string{origin, filepath.Base(origin)} {
				if !p.compiler.Has(alias) {
					if err := p.compiler.AddDocument(alias, doc); err != nil {
						return errorAt(file, kv[0], err)
					}
				}
			}
		}
	}
	return nil
}

// schemaDocument decodes a schema declaration into a JSON Schema document.
// origin is the description-relative path when the schema was included.
func (p *parser) schemaDocument(file string, n *yaml.Node, ramlType bool) (doc any, origin string, err error) {
	for n.Kind == yaml.AliasNode {
		n = n.Alias
	}

	if n.Tag == includeTag {
		if isYAMLFile(n.Value) {
			node, path, err := p.node(file, n)
			if err != nil {
				return nil, "", err
			}
			if ramlType {
				doc, err = p.ramlType(path, node, 0)
			} else {
				doc, err = p.decode(path, node, 0)
			}
			return doc, p.rel(path), err
		}
		path, data, err := p.readInclude(file, n)
		if err != nil {
			return nil, "", err
		}
		doc, err := schema.DecodeJSON(data)
		if err != nil {
			return nil, "", &ParseError{File: path, Err: fmt.Errorf("schema is not valid JSON: %w", err)}
		}
		return doc, p.rel(path), nil
	}

	switch n.Kind {
	case yaml.ScalarNode:
		if looksLikeJSON(n.Value) {
			doc, err := schema.DecodeJSON([]byte(n.Value))
			if err != nil {
				return nil, "", errorAt(file, n, fmt.Errorf("schema is not valid JSON: %w", err))
			}
			return doc, "", nil
		}
		if ramlType {
			return typeExpr(n.Value), "", nil
		}
		return nil, "", errorAt(file, n, fmt.Errorf("schema %q is neither JSON nor a declared schema", n.Value))
	case yaml.MappingNode:
		if ramlType {
			doc, err := p.ramlType(file, n, 0)
			return doc, "", err
		}
		doc, err := p.decode(file, n, 0)
		return doc, "", err
	default:
		return nil, "", errorAt(file, n, errors.New("schema must be a name, JSON text, an include or a mapping"))
	}
}

// schemaFor compiles the schema a body's "schema" or "type" facet names.
func (p *parser) schemaFor(file string, n *yaml.Node, ramlType bool) (*schema.Schema, error) {
	for n.Kind == yaml.AliasNode {
		n = n.Alias
	}

	if n.Kind == yaml.ScalarNode && n.Tag != includeTag {
		name := strings.TrimSpace(n.Value)
		if p.compiler.Has(name) {
			s, err := p.compiler.Compile(name)
			if err != nil {
				return nil, errorAt(file, n, err)
			}
			return s, nil
		}
		if !looksLikeJSON(name) && !ramlType {
			return nil, errorAt(file, n, fmt.Errorf("unknown schema %q", name))
		}
	}

	doc, origin, err := p.schemaDocument(file, n, ramlType)
	if err != nil {
		return nil, err
	}
	if origin != "" {
		if !p.compiler.Has(origin) {
			if err := p.compiler.AddDocument(origin, doc); err != nil {
				return nil, errorAt(file, n, err)
			}
		}
		s, err := p.compiler.Compile(origin)
		if err != nil {
			return nil, errorAt(file, n, err)
		}
		return s, nil
	}

	s, err := p.compiler.CompileValue("", doc)
	if err != nil {
		return nil, errorAt(file, n, err)
	}
	return s, nil
}

// typeExpr converts a RAML 1.0 type expression ("string", "User[]",
// "Cat | Dog") to JSON Schema. Names that are not built in become
// references to declared types.
func typeExpr(expr string) schema.Object {
	expr = strings.TrimSpace(expr)

	if parts := splitUnion(expr); len(parts) > 1 {
		members := make([]any, len(parts))
		for i, part := range parts {
			members[i] = typeExpr(part)
		}
		return schema.Object{{Name: "anyOf", Value: members}}
	}
	if inner, ok := strings.CutSuffix(expr, "[]"); ok {
		return schema.Object{
			{Name: "type", Value: "array"},
			{Name: "items", Value: typeExpr(inner)},
		}
	}
	if strings.HasPrefix(expr, "(") && strings.HasSuffix(expr, ")") {
		return typeExpr(expr[1 : len(expr)-1])
	}
	if b, ok := builtinTypes[expr]; ok {
		return append(schema.Object(nil), b...)
	}
	return schema.Object{{Name: "$ref", Value: expr}}
}

// splitUnion splits "A | B" at top-level pipes only.
func splitUnion(expr string) []string {
	var (
		parts []string
		depth int
		start int
	)
	for i, r := range expr {
		switch r {
		case '(':
			depth++
		case ')':
			depth--
		case '|':
			if depth == 0 {
				parts = append(parts, strings.TrimSpace(expr[start:i]))
				start = i + 1
			}
		}
	}
	return append(parts, strings.TrimSpace(expr[start:]))
}

// ramlType converts a RAML 1.0 type declaration to JSON Schema. Properties
// are required unless their name ends in "?" or they say "required: false".
func (p *parser) ramlType(file string, n *yaml.Node, depth int) (any, error) {
	if depth >= maxNesting {
		return nil, errorAt(file, n, errors.New("type declarations nested too deeply"))
	}
	n, file, err := p.node(file, n)
	if err != nil {
		return nil, err
	}

	switch {
	case n.Tag == includeTag:
		doc, _, err := p.schemaDocument(file, n, true)
		return doc, err
	case n.Kind == yaml.ScalarNode:
		if looksLikeJSON(n.Value) {
			doc, _, err := p.schemaDocument(file, n, true)
			return doc, err
		}
		return typeExpr(n.Value), nil
	case n.Kind != yaml.MappingNode:
		return nil, errorAt(file, n, errors.New("type declaration must be a name or a mapping"))
	}

	out := schema.Object{}
	var base schema.Object
	if t := lookup(n, "type"); t != nil {
		if t.Tag == includeTag || looksLikeJSON(t.Value) {
			// "type: <JSON schema>" wraps a plain JSON Schema.
			doc, _, err := p.schemaDocument(file, t, true)
			return doc, err
		}
		base = typeExpr(t.Value)
	} else if s := lookup(n, "schema"); s != nil {
		doc, _, err := p.schemaDocument(file, s, false)
		return doc, err
	}

	if base != nil {
		if _, isRef := base.Get("$ref"); !isRef {
			out = append(out, base...)
		}
	}

	if props := lookup(n, "properties"); props != nil {
		if !out.Has("type") {
			out = out.Set("type", "object")
		}
		properties := schema.Object{}
		var required []any
		for _, kv := range pairs(props) {
			name, optional := strings.CutSuffix(kv[0].Value, "?")
			decl, declFile, err := p.node(file, kv[1])
			if err != nil {
				return nil, err
			}
			if r := lookup(decl, "required"); r != nil {
				optional = r.Value == "false"
			}
			v, err := p.ramlType(declFile, decl, depth+1)
			if err != nil {
				return nil, err
			}
			properties = properties.Set(name, v)
			if !optional {
				required = append(required, name)
			}
		}
		out = out.Set("properties", properties)
		if len(required) > 0 {
			out = out.Set("required", required)
		}
	}

	if items := lookup(n, "items"); items != nil {
		v, err := p.ramlType(file, items, depth+1)
		if err != nil {
			return nil, err
		}
		if !out.Has("type") {
			out = out.Set("type", "array")
		}
		out = out.Set("items", v)
	}

	for _, facet := range passthroughFacets {
		if v := lookup(n, facet); v != nil {
			decoded, err := p.decode(file, v, depth+1)
			if err != nil {
				return nil, err
			}
			out = out.Set(facet, decoded)
		}
	}
	if !out.Has("example") {
		if first, err := p.firstExample(file, lookupOrNil(n, "examples")); err == nil && first != nil {
			decoded, err := p.decode(file, first, depth+1)
			if err != nil {
				return nil, err
			}
			out = out.Set("example", decoded)
		}
	}

	if base != nil {
		if ref, isRef := base.Get("$ref"); isRef {
			return schema.Object{{Name: "allOf", Value: []any{schema.Object{{Name: "$ref", Value: ref}}, out}}}, nil
		}
	}
	if len(out) == 0 && base == nil && lookup(n, "properties") == nil {
		return schema.Object{{Name: "type", Value: "string"}}, nil
	}
	return out, nil
}

func lookupOrNil(n *yaml.Node, key string) *yaml.Node {
	if v := lookup(n, key); v != nil {
		return v
	}
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null"}
}
