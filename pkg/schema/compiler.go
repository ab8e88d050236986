package schema

import (
	"fmt"
	"net/url"
	"path"
	"strings"

	"github.com/go-openapi/jsonpointer"
)

// Compiler turns decoded JSON Schema documents into nodes of a shared Set.
//
// Every document registered with AddDocument can be referenced by name from
// any other ("$ref": "Item" or "$ref": "item.json#/definitions/x"). A given
// document location compiles to exactly one node no matter how many places
// reference it, and reference cycles compile to cyclic Target edges.
//
// A Compiler is not safe for concurrent use. Once compilation is done the
// Set is read-only and may be shared freely.
type Compiler struct {
	set      *Set
	docs     map[string]any
	memo     map[string]Ref
	memoLog  []string
	compiled map[string]*Schema
	inline   int
}

// NewCompiler creates an empty compiler.
func NewCompiler() *Compiler {
	return &Compiler{
		set:      &Set{},
		docs:     make(map[string]any),
		memo:     make(map[string]Ref),
		compiled: make(map[string]*Schema),
	}
}

// Set returns the arena shared by every schema this compiler produces.
func (c *Compiler) Set() *Set { return c.set }

// AddDocument registers a decoded schema document under name.
func (c *Compiler) AddDocument(name string, doc any) error {
	if name == "" {
		return &CompileError{Location: "<unnamed>", Message: "document name is empty"}
	}
	if _, exists := c.docs[name]; exists {
		return &CompileError{Location: name, Message: "document already registered"}
	}
	c.docs[name] = Normalize(doc)
	return nil
}

// Has reports whether a document is registered under name.
func (c *Compiler) Has(name string) bool {
	_, ok := c.docs[name]
	return ok
}

// Compile compiles a registered document, or a location inside one
// ("name#/definitions/x").
func (c *Compiler) Compile(ref string) (*Schema, error) {
	if s, ok := c.compiled[ref]; ok {
		return s, nil
	}

	docName, fragment, err := c.splitRef("", ref)
	if err != nil {
		return nil, err
	}
	raw, err := c.lookup(docName, fragment)
	if err != nil {
		return nil, err
	}
	root, err := c.compileAt(docName, docName, fragment, raw)
	if err != nil {
		return nil, err
	}

	s := &Schema{set: c.set, root: root, name: ref, raw: c.withContext(docName, raw), docs: c.docs}
	c.compiled[ref] = s
	return s, nil
}

// CompileValue compiles an inline schema value. Local references ("#/...")
// inside it resolve against the registered document named base; when base
// is empty they resolve against the value itself.
func (c *Compiler) CompileValue(base string, v any) (*Schema, error) {
	v = Normalize(v)

	c.inline++
	key := fmt.Sprintf("inline-%d", c.inline)
	if base == "" {
		base = key
		c.docs[key] = v
	} else if !c.Has(base) {
		return nil, &CompileError{Location: key, Message: fmt.Sprintf("base document %q is not registered", base)}
	}

	root, err := c.compileAt(key, base, "", v)
	if err != nil {
		return nil, err
	}
	return &Schema{set: c.set, root: root, name: key, raw: c.withContext(base, v), docs: c.docs}, nil
}

// withContext returns the raw schema used for conformance checks: the value
// itself, plus the base document's top-level members it does not declare so
// that local references still resolve.
func (c *Compiler) withContext(base string, v any) any {
	obj, ok := v.(Object)
	if !ok {
		return v
	}
	doc, ok := c.docs[base].(Object)
	if !ok {
		return v
	}
	out := make(Object, len(obj), len(obj)+len(doc))
	copy(out, obj)
	for _, f := range doc {
		if !out.Has(f.Name) {
			out = append(out, f)
		}
	}
	return out
}

func (c *Compiler) compileAt(key, base, fragment string, v any) (Ref, error) {
	memoKey := key + "#" + fragment
	if r, ok := c.memo[memoKey]; ok {
		return r, nil
	}

	r := c.set.alloc(memoKey)
	mark := len(c.memoLog)
	c.memo[memoKey] = r
	c.memoLog = append(c.memoLog, memoKey)

	n, err := c.build(key, base, fragment, v)
	if err != nil {
		// Forget this node and everything compiled beneath it, which may
		// refer back to it, so a later compile reports the error again.
		for _, k := range c.memoLog[mark:] {
			delete(c.memo, k)
		}
		c.memoLog = c.memoLog[:mark]
		return NoRef, err
	}
	n.Location = memoKey
	c.set.nodes[r] = n
	return r, nil
}

func (c *Compiler) child(key, base, fragment, token string, v any) (Ref, error) {
	return c.compileAt(key, base, fragment+"/"+jsonpointer.Escape(token), v)
}

//nolint:gocyclo // One branch per supported keyword.
func (c *Compiler) build(key, base, fragment string, v any) (Node, error) {
	n := newNode(key + "#" + fragment)

	var obj Object
	switch t := v.(type) {
	case Object:
		obj = t
	case bool:
		// true/false schemas carry no structure to synthesize from.
		return n, nil
	default:
		return n, &CompileError{Location: n.Location, Message: fmt.Sprintf("schema must be an object, got %T", v)}
	}

	if refVal, ok := obj.Get("$ref"); ok {
		ref, ok := refVal.(string)
		if !ok {
			return n, &CompileError{Location: n.Location, Message: "$ref must be a string"}
		}
		target, err := c.resolveRef(base, ref)
		if err != nil {
			return n, err
		}
		n.Target = target
		return n, nil
	}

	if t, ok := obj.Get("type"); ok {
		n.Type = parseTypeKeyword(t)
	}
	if f, ok := obj.Get("format"); ok {
		n.Format, _ = f.(string)
	}

	if props, ok := obj.Get("properties"); ok {
		propObj, ok := props.(Object)
		if !ok {
			return n, &CompileError{Location: n.Location, Message: "properties must be an object"}
		}
		for _, f := range propObj {
			r, err := c.child(key, base, fragment+"/properties", f.Name, f.Value)
			if err != nil {
				return n, err
			}
			n.Properties = append(n.Properties, Property{Name: f.Name, Ref: r})
			// draft-03 marks required-ness on the property itself.
			if p, ok := f.Value.(Object); ok {
				if req, ok := p.Get("required"); ok && req == true {
					n.Required = append(n.Required, f.Name)
				}
			}
		}
	}

	if req, ok := obj.Get("required"); ok {
		if list, ok := req.([]any); ok {
			for _, item := range list {
				if name, ok := item.(string); ok && !n.IsRequired(name) {
					n.Required = append(n.Required, name)
				}
			}
		}
	}

	if items, ok := obj.Get("items"); ok {
		var (
			r   Ref
			err error
		)
		switch it := items.(type) {
		case []any:
			// Tuple form: the first item schema stands for every element.
			if len(it) > 0 {
				r, err = c.compileAt(key, base, fragment+"/items/0", it[0])
			} else {
				r = NoRef
			}
		default:
			r, err = c.compileAt(key, base, fragment+"/items", it)
		}
		if err != nil {
			return n, err
		}
		n.Items = r
	}

	for _, comp := range []struct {
		keyword string
		dst     *[]Ref
	}{
		{"allOf", &n.AllOf},
		{"anyOf", &n.AnyOf},
		{"oneOf", &n.OneOf},
	} {
		val, ok := obj.Get(comp.keyword)
		if !ok {
			continue
		}
		members, ok := val.([]any)
		if !ok || len(members) == 0 {
			return n, &CompileError{Location: n.Location, Message: comp.keyword + " must be a non-empty array"}
		}
		for i, m := range members {
			r, err := c.child(key, base, fragment+"/"+comp.keyword, fmt.Sprint(i), m)
			if err != nil {
				return n, err
			}
			*comp.dst = append(*comp.dst, r)
		}
	}

	if e, ok := obj.Get("enum"); ok {
		if list, ok := e.([]any); ok && len(list) > 0 {
			n.Enum = list
		}
	}
	if v, ok := obj.Get("const"); ok {
		n.Const, n.HasConst = v, true
	}
	if v, ok := obj.Get("default"); ok {
		n.Default, n.HasDefault = v, true
	}
	if v, ok := obj.Get("example"); ok {
		n.Example, n.HasExample = v, true
	} else if v, ok := obj.Get("examples"); ok {
		if list, ok := v.([]any); ok && len(list) > 0 {
			n.Example, n.HasExample = list[0], true
		}
	}

	n.Minimum = floatKeyword(obj, "minimum")
	n.Maximum = floatKeyword(obj, "maximum")
	n.MultipleOf = floatKeyword(obj, "multipleOf")
	// draft-04 uses booleans, draft-06+ numbers.
	if v, ok := obj.Get("exclusiveMinimum"); ok {
		if b, ok := v.(bool); ok {
			n.ExclusiveMinimum = b
		} else if f, ok := toFloat(v); ok {
			n.Minimum, n.ExclusiveMinimum = &f, true
		}
	}
	if v, ok := obj.Get("exclusiveMaximum"); ok {
		if b, ok := v.(bool); ok {
			n.ExclusiveMaximum = b
		} else if f, ok := toFloat(v); ok {
			n.Maximum, n.ExclusiveMaximum = &f, true
		}
	}

	n.MinLength = intKeyword(obj, "minLength")
	n.MaxLength = intKeyword(obj, "maxLength")
	n.MinItems = intKeyword(obj, "minItems")
	n.MaxItems = intKeyword(obj, "maxItems")

	if n.Type == TypeAny {
		switch {
		case len(n.Properties) > 0:
			n.Type = TypeObject
		case n.Items != NoRef:
			n.Type = TypeArray
		}
	}

	return n, nil
}

// parseTypeKeyword picks the type to generate. For a type list the first
// non-null entry wins, so ["string", "null"] generates strings.
func parseTypeKeyword(v any) Type {
	switch t := v.(type) {
	case string:
		typ, _ := ParseType(t)
		return typ
	case []any:
		for _, item := range t {
			name, ok := item.(string)
			if !ok || name == "null" {
				continue
			}
			if typ, ok := ParseType(name); ok {
				return typ
			}
		}
		if len(t) > 0 {
			return TypeNull
		}
	}
	return TypeAny
}

func floatKeyword(obj Object, name string) *float64 {
	v, ok := obj.Get(name)
	if !ok {
		return nil
	}
	f, ok := toFloat(v)
	if !ok {
		return nil
	}
	return &f
}

func intKeyword(obj Object, name string) *int {
	v, ok := obj.Get(name)
	if !ok {
		return nil
	}
	i, ok := toInt(v)
	if !ok {
		return nil
	}
	return &i
}

// resolveRef compiles the target of a "$ref" relative to document base.
func (c *Compiler) resolveRef(base, ref string) (Ref, error) {
	docName, fragment, err := c.splitRef(base, ref)
	if err != nil {
		return NoRef, err
	}
	if r, ok := c.memo[docName+"#"+fragment]; ok {
		return r, nil
	}
	raw, err := c.lookup(docName, fragment)
	if err != nil {
		return NoRef, err
	}
	return c.compileAt(docName, docName, fragment, raw)
}

// splitRef resolves a reference string to a registered document name and a
// JSON pointer fragment.
func (c *Compiler) splitRef(base, ref string) (docName, fragment string, err error) {
	docPart, frag, _ := strings.Cut(ref, "#")
	if frag != "" {
		frag, err = url.PathUnescape(frag)
		if err != nil {
			return "", "", &CompileError{Location: ref, Message: "invalid reference fragment", Err: err}
		}
	}

	if docPart == "" {
		if base == "" {
			return "", "", &CompileError{Location: ref, Message: "local reference without a base document"}
		}
		return base, frag, nil
	}

	for _, candidate := range refCandidates(docPart) {
		if c.Has(candidate) {
			return candidate, frag, nil
		}
	}
	return "", "", &CompileError{Location: ref, Message: fmt.Sprintf("unknown schema %q", docPart)}
}

// refCandidates lists the names a document reference may be registered under:
// as written, without a leading "./", by base name, and without extension.
func refCandidates(docPart string) []string {
	clean := strings.TrimPrefix(docPart, "./")
	base := path.Base(clean)
	return []string{
		docPart,
		clean,
		base,
		strings.TrimSuffix(base, path.Ext(base)),
	}
}

func (c *Compiler) lookup(docName, fragment string) (any, error) {
	doc, ok := c.docs[docName]
	if !ok {
		return nil, &CompileError{Location: docName, Message: "document is not registered"}
	}
	if fragment == "" {
		return doc, nil
	}

	ptr, err := jsonpointer.New(fragment)
	if err != nil {
		return nil, &CompileError{Location: docName + "#" + fragment, Message: "invalid JSON pointer", Err: err}
	}
	v, _, err := ptr.Get(doc)
	if err != nil {
		return nil, &CompileError{Location: docName + "#" + fragment, Message: "unresolvable reference", Err: err}
	}
	return v, nil
}
