package openapi

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"maps"
	"net/http"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
	"gopkg.in/yaml.v3"

	"github.com/getmockd/ramlmock/pkg/logging"
	"github.com/getmockd/ramlmock/pkg/resource"
	"github.com/getmockd/ramlmock/pkg/schema"
)

// documentName is the name the whole description is registered under with
// the schema compiler, so "#/components/..." references resolve.
const documentName = "openapi"

// LoadError reports an OpenAPI description that could not be loaded.
type LoadError struct {
	File string
	Err  error
}

func (e *LoadError) Error() string {
	return e.File + ": " + e.Err.Error()
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// Option configures Load.
type Option func(*options)

type options struct {
	logger *slog.Logger
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// IsDescription reports whether path is a YAML or JSON file with a
// top-level "openapi" version field.
func IsDescription(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml", ".json":
	default:
		return false
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return false
	}
	var head struct {
		OpenAPI string `yaml:"openapi"`
	}
	if err := yaml.Unmarshal(data, &head); err != nil {
		return false
	}
	return strings.HasPrefix(head.OpenAPI, "3.")
}

// Load reads an OpenAPI 3 description into a resource tree.
//
// For every operation the lowest declared 2xx response is served (else
// "default" as 200, else the lowest code). Of its content types
// application/json is preferred; its candidates are, in order, the
// "example", the first of "examples" by name, and the "schema".
func Load(ctx context.Context, path string, opts ...Option) (*resource.Tree, error) {
	o := options{logger: logging.Nop()}
	for _, opt := range opts {
		opt(&o)
	}

	loader := openapi3.NewLoader()
	loader.IsExternalRefsAllowed = true
	loader.Context = ctx

	doc, err := loader.LoadFromFile(path)
	if err != nil {
		return nil, &LoadError{File: path, Err: err}
	}
	if err := doc.Validate(ctx, openapi3.DisableExamplesValidation()); err != nil {
		return nil, &LoadError{File: path, Err: fmt.Errorf("invalid description: %w", err)}
	}
	doc.InternalizeRefs(ctx, openapi3.DefaultRefNameResolver)

	raw, err := doc.MarshalJSON()
	if err != nil {
		return nil, &LoadError{File: path, Err: err}
	}
	whole, err := schema.DecodeJSON(raw)
	if err != nil {
		return nil, &LoadError{File: path, Err: err}
	}

	l := &docLoader{
		dir:      filepath.Dir(path),
		compiler: schema.NewCompiler(),
		builder:  resource.NewBuilder(),
		files:    []string{path},
	}
	if err := l.compiler.AddDocument(documentName, whole); err != nil {
		return nil, &LoadError{File: path, Err: err}
	}

	for _, pattern := range slices.Sorted(maps.Keys(doc.Paths.Map())) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		item := doc.Paths.Value(pattern)
		for method, op := range item.Operations() {
			spec, err := l.operation(method, op)
			if err != nil {
				return nil, &LoadError{File: path, Err: fmt.Errorf("%s %s: %w", method, pattern, err)}
			}
			if err := l.builder.Add(pattern, spec); err != nil {
				return nil, &LoadError{File: path, Err: err}
			}
		}
	}

	info := resource.Info{Files: l.files}
	if doc.Info != nil {
		info.Title, info.Version = doc.Info.Title, doc.Info.Version
	}
	if len(doc.Servers) > 0 && doc.Servers[0] != nil {
		info.BaseURI = doc.Servers[0].URL
	}

	tree := l.builder.Build(info)
	o.logger.Debug("loaded OpenAPI description", "file", path, "version", doc.OpenAPI, "routes", len(tree.Routes()))
	return tree, nil
}

type docLoader struct {
	dir      string
	compiler *schema.Compiler
	builder  *resource.Builder
	files    []string
}

func (l *docLoader) operation(method string, op *openapi3.Operation) (*resource.MethodSpec, error) {
	spec := resource.NewMethodSpec(method)
	spec.Description = op.Summary
	if op.Responses == nil {
		return spec, nil
	}

	status, ref := pickResponse(op.Responses)
	if ref == nil || ref.Value == nil {
		return spec, nil
	}
	spec.Status = status
	spec.Declared = true
	resp := ref.Value

	for _, name := range slices.Sorted(maps.Keys(resp.Headers)) {
		h := resp.Headers[name]
		if h == nil || h.Value == nil {
			continue
		}
		if ex := headerExample(h.Value); ex != "" {
			spec.Headers = append(spec.Headers, resource.Header{Name: name, Value: ex})
		}
	}

	contentType, media := pickContent(resp.Content)
	if media == nil {
		return spec, nil
	}
	spec.ContentType = contentType

	if media.Example != nil {
		spec.AddSource(resource.InlineLiteral(schema.Normalize(media.Example)))
	}
	if len(media.Examples) > 0 {
		first := media.Examples[slices.Sorted(maps.Keys(media.Examples))[0]]
		if first != nil && first.Value != nil {
			src, err := l.example(first.Value)
			if err != nil {
				return nil, err
			}
			spec.AddSource(src)
		}
	}
	if media.Schema != nil {
		s, err := l.schema(media.Schema)
		if err != nil {
			return nil, err
		}
		spec.AddSource(resource.SchemaSource(s))
	}
	return spec, nil
}

func (l *docLoader) example(ex *openapi3.Example) (resource.ResponseSource, error) {
	if ex.ExternalValue == "" || strings.Contains(ex.ExternalValue, "://") {
		return resource.InlineLiteral(schema.Normalize(ex.Value)), nil
	}
	path := ex.ExternalValue
	if !filepath.IsAbs(path) {
		path = filepath.Join(l.dir, filepath.FromSlash(path))
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return resource.ResponseSource{}, fmt.Errorf("external example: %w", err)
	}
	l.files = append(l.files, path)
	return resource.ExampleFile(ex.ExternalValue, data), nil
}

func (l *docLoader) schema(ref *openapi3.SchemaRef) (*schema.Schema, error) {
	if ref.Ref != "" && strings.HasPrefix(ref.Ref, "#/") {
		return l.compiler.Compile(documentName + ref.Ref)
	}
	data, err := json.Marshal(ref)
	if err != nil {
		return nil, err
	}
	v, err := schema.DecodeJSON(data)
	if err != nil {
		return nil, err
	}
	return l.compiler.CompileValue(documentName, v)
}

// pickResponse chooses the lowest 2xx response, then "default" (served as
// 200), then the lowest status of any class.
func pickResponse(responses *openapi3.Responses) (int, *openapi3.ResponseRef) {
	var (
		best    int
		bestRef *openapi3.ResponseRef
	)
	for key, ref := range responses.Map() {
		code, err := strconv.Atoi(key)
		if err != nil {
			// Ranges such as "2XX" stand for their lowest code.
			if len(key) == 3 && strings.EqualFold(key[1:], "XX") && key[0] >= '1' && key[0] <= '5' {
				code = int(key[0]-'0') * 100
			} else {
				continue
			}
		}
		if bestRef == nil || rankStatus(code) < rankStatus(best) {
			best, bestRef = code, ref
		}
	}
	if bestRef != nil && best/100 == 2 {
		return best, bestRef
	}
	if def := responses.Default(); def != nil {
		return http.StatusOK, def
	}
	return best, bestRef
}

func rankStatus(code int) int {
	if code/100 == 2 {
		return code - 1000
	}
	return code
}

func pickContent(content openapi3.Content) (string, *openapi3.MediaType) {
	if len(content) == 0 {
		return "", nil
	}
	types := slices.Sorted(maps.Keys(content))
	for _, t := range types {
		if strings.EqualFold(t, "application/json") {
			return t, content[t]
		}
	}
	for _, t := range types {
		if strings.HasSuffix(strings.ToLower(t), "+json") {
			return t, content[t]
		}
	}
	return types[0], content[types[0]]
}

func headerExample(h *openapi3.Header) string {
	switch {
	case h.Example != nil:
		return fmt.Sprint(h.Example)
	case h.Schema != nil && h.Schema.Value != nil && h.Schema.Value.Example != nil:
		return fmt.Sprint(h.Schema.Value.Example)
	case h.Schema != nil && h.Schema.Value != nil && h.Schema.Value.Default != nil:
		return fmt.Sprint(h.Schema.Value.Default)
	}
	return ""
}
