package resource

import (
	"github.com/getmockd/ramlmock/pkg/schema"
)

// Kind identifies which variant a ResponseSource is.
type Kind int

// Response source kinds.
const (
	// KindLiteralExample is example text written in the description itself.
	KindLiteralExample Kind = iota + 1
	// KindExampleFile is an example loaded from a separate file.
	KindExampleFile
	// KindInlineLiteral is an example written as a structured value
	// (a YAML mapping or sequence) rather than as text.
	KindInlineLiteral
	// KindSchema is a JSON Schema values are synthesized from.
	KindSchema
)

func (k Kind) String() string {
	switch k {
	case KindLiteralExample:
		return "example"
	case KindExampleFile:
		return "example-file"
	case KindInlineLiteral:
		return "inline"
	case KindSchema:
		return "schema"
	default:
		return "unknown"
	}
}

// IsLiteral reports whether the kind carries a fixed response value.
func (k Kind) IsLiteral() bool {
	return k == KindLiteralExample || k == KindExampleFile || k == KindInlineLiteral
}

// ResponseSource is one candidate for producing a response body. Only the
// fields belonging to its Kind are set.
type ResponseSource struct {
	Kind Kind
	// Index is the candidate's position among the response's declared
	// sources. MethodSpec.AddSource assigns it.
	Index int

	// Raw is the example text of a KindLiteralExample.
	Raw []byte
	// Path and Data are the location and contents of a KindExampleFile.
	Path string
	Data []byte
	// Value is the decoded value of a KindInlineLiteral.
	Value any
	// Schema is set for KindSchema.
	Schema *schema.Schema
}

// LiteralExample creates a source from example text.
func LiteralExample(raw []byte) ResponseSource {
	return ResponseSource{Kind: KindLiteralExample, Raw: raw}
}

// ExampleFile creates a source from an example file already read into memory.
func ExampleFile(path string, data []byte) ResponseSource {
	return ResponseSource{Kind: KindExampleFile, Path: path, Data: data}
}

// InlineLiteral creates a source from a structured example value.
func InlineLiteral(v any) ResponseSource {
	return ResponseSource{Kind: KindInlineLiteral, Value: v}
}

// SchemaSource creates a source that synthesizes values from s.
func SchemaSource(s *schema.Schema) ResponseSource {
	return ResponseSource{Kind: KindSchema, Schema: s}
}

// Describe returns a short human-readable label, e.g. "example-file examples/user.json".
func (s ResponseSource) Describe() string {
	switch s.Kind {
	case KindExampleFile:
		return s.Kind.String() + " " + s.Path
	case KindSchema:
		if s.Schema != nil {
			return s.Kind.String() + " " + s.Schema.Name()
		}
	}
	return s.Kind.String()
}
