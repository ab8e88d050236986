package raml

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/getmockd/ramlmock/pkg/schema"
)

const includeTag = "!include"

func isYAMLFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".raml", ".yaml", ".yml":
		return true
	}
	return false
}

// node follows aliases and replaces an !include of a YAML or RAML fragment
// with the fragment's root node. It also returns the file the node now
// belongs to, which relative includes inside it resolve against.
func (p *parser) node(file string, n *yaml.Node) (*yaml.Node, string, error) {
	for n != nil && n.Kind == yaml.AliasNode {
		n = n.Alias
	}
	if n == nil || n.Tag != includeTag || !isYAMLFile(n.Value) {
		return n, file, nil
	}

	path, data, err := p.readInclude(file, n)
	if err != nil {
		return nil, file, err
	}
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, file, yamlError(path, err)
	}
	if len(doc.Content) == 0 {
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null"}, path, nil
	}
	return doc.Content[0], path, nil
}

// readInclude reads the target of an !include. Relative targets are looked
// up next to the including file, then in the description's directory, then
// in the static path.
func (p *parser) readInclude(file string, n *yaml.Node) (string, []byte, error) {
	target := strings.TrimSpace(n.Value)
	if target == "" {
		return "", nil, errorAt(file, n, errors.New("!include without a file name"))
	}

	var candidates []string
	if filepath.IsAbs(target) {
		candidates = []string{target}
	} else {
		target = filepath.FromSlash(target)
		candidates = []string{filepath.Join(filepath.Dir(file), target)}
		if dir := filepath.Join(p.rootDir, target); !slices.Contains(candidates, dir) {
			candidates = append(candidates, dir)
		}
		if p.staticPath != "" {
			candidates = append(candidates, filepath.Join(p.staticPath, target))
		}
	}

	for _, path := range candidates {
		data, err := os.ReadFile(path)
		if err == nil {
			if !slices.Contains(p.files, path) {
				p.files = append(p.files, path)
			}
			return path, data, nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return "", nil, errorAt(file, n, err)
		}
	}
	return "", nil, errorAt(file, n, fmt.Errorf("included file %q not found", n.Value))
}

// decode converts a node to a generic value. Mappings become schema.Object
// so member order survives into responses.
func (p *parser) decode(file string, n *yaml.Node, depth int) (any, error) {
	if depth >= maxNesting {
		return nil, errorAt(file, n, errors.New("includes nested too deeply"))
	}

	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return nil, nil
		}
		return p.decode(file, n.Content[0], depth)
	case yaml.AliasNode:
		return p.decode(file, n.Alias, depth)
	case yaml.MappingNode:
		obj := make(schema.Object, 0, len(n.Content)/2)
		for _, kv := range pairs(n) {
			v, err := p.decode(file, kv[1], depth)
			if err != nil {
				return nil, err
			}
			obj = obj.Set(kv[0].Value, v)
		}
		return obj, nil
	case yaml.SequenceNode:
		arr := make([]any, 0, len(n.Content))
		for _, item := range n.Content {
			v, err := p.decode(file, item, depth)
			if err != nil {
				return nil, err
			}
			arr = append(arr, v)
		}
		return arr, nil
	}

	if n.Tag == includeTag {
		return p.includeValue(file, n, depth)
	}
	var v any
	if err := n.Decode(&v); err != nil {
		return nil, errorAt(file, n, err)
	}
	return v, nil
}

// includeValue decodes an included file by extension: JSON and YAML files
// become values, anything else its text.
func (p *parser) includeValue(file string, n *yaml.Node, depth int) (any, error) {
	path, data, err := p.readInclude(file, n)
	if err != nil {
		return nil, err
	}
	switch {
	case strings.EqualFold(filepath.Ext(path), ".json"):
		v, err := schema.DecodeJSON(data)
		if err != nil {
			return nil, &ParseError{File: path, Err: err}
		}
		return v, nil
	case isYAMLFile(path):
		var doc yaml.Node
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, yamlError(path, err)
		}
		return p.decode(path, &doc, depth+1)
	default:
		return string(data), nil
	}
}
