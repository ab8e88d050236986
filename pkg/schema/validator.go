package schema

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// resourceBase anchors every in-memory document so relative references
// between them resolve without touching the filesystem.
const resourceBase = "mem://ramlmock/schemas/"

// Validator checks values against a JSON Schema document.
//
// Documents without a "$schema" keyword are treated as draft-04, the draft
// RAML 0.8/1.0 APIs use.
type Validator struct {
	schema *jsonschema.Schema
}

// NewValidator compiles raw for conformance checks. resources holds other
// documents raw may reference by name; it may be nil.
func NewValidator(raw any, resources map[string]any) (*Validator, error) {
	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft4

	names := make([]string, 0, len(resources))
	for name := range resources {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		data, err := json.Marshal(resources[name])
		if err != nil {
			return nil, fmt.Errorf("failed to marshal schema %q: %w", name, err)
		}
		if err := compiler.AddResource(resourceBase+name, bytes.NewReader(data)); err != nil {
			return nil, fmt.Errorf("failed to add schema resource %q: %w", name, err)
		}
	}

	data, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal schema: %w", err)
	}
	const root = resourceBase + "__root__.json"
	if err := compiler.AddResource(root, bytes.NewReader(data)); err != nil {
		return nil, fmt.Errorf("failed to add schema resource: %w", err)
	}

	s, err := compiler.Compile(root)
	if err != nil {
		return nil, err
	}
	return &Validator{schema: s}, nil
}

// Validate reports whether v conforms. v may hold Object values; it is
// converted to plain JSON values first.
func (v *Validator) Validate(value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal value: %w", err)
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return fmt.Errorf("failed to decode value: %w", err)
	}

	if err := v.schema.Validate(doc); err != nil {
		if ve, ok := err.(*jsonschema.ValidationError); ok {
			return &ValidationError{Violations: flattenViolations(ve)}
		}
		return err
	}
	return nil
}

// ValidationError lists every leaf violation of a failed conformance check.
type ValidationError struct {
	Violations []Violation
}

// Violation is one failed keyword at an instance location.
type Violation struct {
	Location string
	Message  string
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Violations))
	for i, v := range e.Violations {
		loc := v.Location
		if loc == "" {
			loc = "/"
		}
		parts[i] = loc + ": " + v.Message
	}
	return "value does not conform to schema: " + strings.Join(parts, "; ")
}

func flattenViolations(err *jsonschema.ValidationError) []Violation {
	if len(err.Causes) == 0 {
		return []Violation{{Location: err.InstanceLocation, Message: err.Message}}
	}
	var out []Violation
	for _, cause := range err.Causes {
		out = append(out, flattenViolations(cause)...)
	}
	return out
}
