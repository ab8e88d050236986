package raml

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"gopkg.in/yaml.v3"

	"github.com/getmockd/ramlmock/pkg/logging"
	"github.com/getmockd/ramlmock/pkg/resource"
	"github.com/getmockd/ramlmock/pkg/schema"
)

// Supported document headers.
const (
	Version08 = "0.8"
	Version10 = "1.0"
)

// preferredRoots are picked, in order, when a directory holds several root
// candidates.
var preferredRoots = []string{"api.raml", "index.raml", "main.raml"}

// Option configures Load.
type Option func(*options)

type options struct {
	staticPath string
	logger     *slog.Logger
}

// WithStaticPath adds a directory that example and schema includes are
// looked up in when they are not found next to the including file.
func WithStaticPath(dir string) Option {
	return func(o *options) {
		o.staticPath = dir
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// Load parses a RAML description into a resource tree. path may name the
// root .raml file or a directory containing it.
//
// Example files referenced with !include are read here, so the tree holds
// their bytes and serving a request never touches the filesystem.
func Load(ctx context.Context, path string, opts ...Option) (*resource.Tree, error) {
	o := options{logger: logging.Nop()}
	for _, opt := range opts {
		opt(&o)
	}

	root, err := FindRoot(path)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(root)
	if err != nil {
		return nil, &ParseError{File: root, Err: err}
	}
	version, err := headerVersion(data)
	if err != nil {
		return nil, &ParseError{File: root, Line: 1, Column: 1, Err: err}
	}

	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, yamlError(root, err)
	}
	if len(doc.Content) == 0 || doc.Content[0].Kind != yaml.MappingNode {
		return nil, errorAt(root, &doc, errors.New("document root must be a mapping"))
	}

	p := &parser{
		ctx:        ctx,
		version:    version,
		rootDir:    filepath.Dir(root),
		staticPath: o.staticPath,
		logger:     o.logger,
		compiler:   schema.NewCompiler(),
		builder:    resource.NewBuilder(),
		mediaType:  resource.DefaultContentType,
		files:      []string{root},
	}
	info, err := p.document(root, doc.Content[0])
	if err != nil {
		return nil, err
	}
	info.Files = p.files

	tree := p.builder.Build(info)
	o.logger.Debug("parsed RAML description",
		"file", root,
		"version", version,
		"routes", len(tree.Routes()),
		"files", len(p.files),
	)
	return tree, nil
}

// FindRoot resolves path to the root .raml file. A directory must contain
// exactly one .raml file at its top level, or one of api.raml, index.raml
// and main.raml; without any at the top level a single .raml file anywhere
// below it is accepted.
func FindRoot(path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", &ParseError{File: path, Err: err}
	}
	if !info.IsDir() {
		return path, nil
	}

	fsys := os.DirFS(path)
	for _, pattern := range []string{"*.raml", "**/*.raml"} {
		matches, err := doublestar.Glob(fsys, pattern)
		if err != nil {
			return "", &ParseError{File: path, Err: err}
		}
		if len(matches) == 0 {
			continue
		}
		for _, name := range preferredRoots {
			if slices.Contains(matches, name) {
				return filepath.Join(path, name), nil
			}
		}
		if len(matches) == 1 {
			return filepath.Join(path, filepath.FromSlash(matches[0])), nil
		}
		slices.Sort(matches)
		return "", &ParseError{File: path, Err: fmt.Errorf("several RAML root candidates (%s); name one or call it api.raml", strings.Join(matches, ", "))}
	}
	return "", &ParseError{File: path, Err: errors.New("no .raml file found")}
}

// IsDescription reports whether path is a RAML file or a directory holding one.
func IsDescription(path string) bool {
	info, err := os.Stat(path)
	if err != nil || !info.IsDir() {
		return strings.EqualFold(filepath.Ext(path), ".raml")
	}
	_, err = FindRoot(path)
	return err == nil
}

func headerVersion(data []byte) (string, error) {
	line, _, _ := bytes.Cut(data, []byte("\n"))
	header := strings.TrimSpace(string(line))
	switch {
	case strings.HasPrefix(header, "#%RAML "+Version08):
		return Version08, nil
	case strings.HasPrefix(header, "#%RAML "+Version10):
		return Version10, nil
	case strings.HasPrefix(header, "#%RAML"):
		return "", fmt.Errorf("unsupported RAML version %q", strings.TrimSpace(strings.TrimPrefix(header, "#%RAML")))
	default:
		return "", errors.New("missing #%RAML header")
	}
}
