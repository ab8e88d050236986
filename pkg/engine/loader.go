package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/getmockd/ramlmock/pkg/logging"
	"github.com/getmockd/ramlmock/pkg/openapi"
	"github.com/getmockd/ramlmock/pkg/raml"
	"github.com/getmockd/ramlmock/pkg/resource"
)

// LoadFunc builds a fresh resource tree.
type LoadFunc func(ctx context.Context) (*resource.Tree, error)

// Format is an interface description language.
type Format string

// Supported formats.
const (
	FormatRAML    Format = "raml"
	FormatOpenAPI Format = "openapi"
)

// ErrUnsupportedDescription is returned for a path that is neither RAML nor
// OpenAPI 3.
var ErrUnsupportedDescription = errors.New("not a RAML or OpenAPI 3 description")

// openapiNames are looked up in a directory without any RAML file.
var openapiNames = []string{"openapi.yaml", "openapi.yml", "openapi.json"}

// Description locates an interface description.
type Description struct {
	Format Format
	// Path is what the loader is given.
	Path string
	// Dir is the directory watched for changes.
	Dir string
}

// LoaderOptions configures LoaderFor.
type LoaderOptions struct {
	// StaticPath is searched for example files RAML includes cannot find
	// next to the including file.
	StaticPath string
	Logger     *slog.Logger
}

// Detect works out the format of the description at path: a .raml file or
// a directory holding one, or an OpenAPI 3 document (directly or as
// openapi.yaml/.yml/.json in a directory).
func Detect(path string) (Description, error) {
	info, err := os.Stat(path)
	if err != nil {
		return Description{}, err
	}

	if info.IsDir() {
		if raml.IsDescription(path) {
			return Description{Format: FormatRAML, Path: path, Dir: path}, nil
		}
		for _, name := range openapiNames {
			candidate := filepath.Join(path, name)
			if openapi.IsDescription(candidate) {
				return Description{Format: FormatOpenAPI, Path: candidate, Dir: path}, nil
			}
		}
		return Description{}, fmt.Errorf("%s: %w", path, ErrUnsupportedDescription)
	}

	dir := filepath.Dir(path)
	switch {
	case raml.IsDescription(path):
		return Description{Format: FormatRAML, Path: path, Dir: dir}, nil
	case openapi.IsDescription(path):
		return Description{Format: FormatOpenAPI, Path: path, Dir: dir}, nil
	}
	return Description{}, fmt.Errorf("%s: %w", path, ErrUnsupportedDescription)
}

// LoaderFor returns the loader for the description at path.
func LoaderFor(path string, opts LoaderOptions) (LoadFunc, Description, error) {
	desc, err := Detect(path)
	if err != nil {
		return nil, Description{}, err
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.Nop()
	}

	switch desc.Format {
	case FormatOpenAPI:
		return func(ctx context.Context) (*resource.Tree, error) {
			return openapi.Load(ctx, desc.Path, openapi.WithLogger(logger))
		}, desc, nil
	default:
		ramlOpts := []raml.Option{raml.WithLogger(logger)}
		if opts.StaticPath != "" {
			ramlOpts = append(ramlOpts, raml.WithStaticPath(opts.StaticPath))
		}
		return func(ctx context.Context) (*resource.Tree, error) {
			return raml.Load(ctx, desc.Path, ramlOpts...)
		}, desc, nil
	}
}
