package resolve

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/getmockd/ramlmock/pkg/logging"
	"github.com/getmockd/ramlmock/pkg/resource"
	"github.com/getmockd/ramlmock/pkg/schema"
)

func testSchema(t *testing.T, text string) *schema.Schema {
	t.Helper()
	doc, err := schema.DecodeJSON([]byte(text))
	require.NoError(t, err)
	c := schema.NewCompiler()
	require.NoError(t, c.AddDocument("test", doc))
	s, err := c.Compile("test")
	require.NoError(t, err)
	return s
}

func candidates(sources ...resource.ResponseSource) []resource.ResponseSource {
	spec := resource.NewMethodSpec("GET")
	for _, s := range sources {
		spec.AddSource(s)
	}
	return spec.Sources
}

func TestParsePolicy(t *testing.T) {
	tests := []struct {
		in      string
		want    Policy
		wantErr bool
	}{
		{in: "", want: PolicyExample},
		{in: "example", want: PolicyExample},
		{in: "Schema", want: PolicySchema},
		{in: "declaration", want: PolicyDeclaration},
		{in: "order", want: PolicyDeclaration},
		{in: "random", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParsePolicy(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSelect(t *testing.T) {
	sch := testSchema(t, `{"type": "string"}`)
	schemaFirst := candidates(resource.SchemaSource(sch), resource.LiteralExample([]byte(`{"test":"test"}`)))
	exampleFirst := candidates(resource.LiteralExample([]byte(`{"test":"test"}`)), resource.SchemaSource(sch))
	twoLiterals := candidates(resource.SchemaSource(sch), resource.InlineLiteral("inline"), resource.ExampleFile("a.json", []byte(`1`)))

	tests := []struct {
		name   string
		policy Policy
		in     []resource.ResponseSource
		want   resource.Kind
		index  int
	}{
		{name: "example policy, schema declared first", policy: PolicyExample, in: schemaFirst, want: resource.KindLiteralExample, index: 1},
		{name: "example policy, example declared first", policy: PolicyExample, in: exampleFirst, want: resource.KindLiteralExample, index: 0},
		{name: "example policy, first literal wins", policy: PolicyExample, in: twoLiterals, want: resource.KindInlineLiteral, index: 1},
		{name: "schema policy", policy: PolicySchema, in: exampleFirst, want: resource.KindSchema, index: 1},
		{name: "declaration policy, schema first", policy: PolicyDeclaration, in: schemaFirst, want: resource.KindSchema, index: 0},
		{name: "declaration policy, example first", policy: PolicyDeclaration, in: exampleFirst, want: resource.KindLiteralExample, index: 0},
		{name: "single schema under example policy", policy: PolicyExample, in: candidates(resource.SchemaSource(sch)), want: resource.KindSchema, index: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := New(tt.policy).Select(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.Kind)
			assert.Equal(t, tt.index, got.Index)
		})
	}
}

func TestResolve_Literals(t *testing.T) {
	tests := []struct {
		name string
		src  resource.ResponseSource
		want string
	}{
		{name: "literal JSON is compacted", src: resource.LiteralExample([]byte("{\n  \"test\": \"test\"\n}\n")), want: `{"test":"test"}`},
		{name: "literal text is verbatim", src: resource.LiteralExample([]byte("plain text")), want: "plain text"},
		{name: "file bytes are verbatim", src: resource.ExampleFile("example.json", []byte("{ \"a\" : 1 }\n")), want: "{ \"a\" : 1 }\n"},
		{name: "inline value keeps order", src: resource.InlineLiteral(schema.Object{{Name: "value", Value: "foo"}, {Name: "a", Value: 1}}), want: `{"value":"foo","a":1}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body, err := New(PolicyExample).Resolve(context.Background(), candidates(tt.src))
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(body.Data))
			assert.Equal(t, tt.src.Kind, body.Source)
		})
	}
}

func TestResolve_SchemaIsFreshPerCall(t *testing.T) {
	sch := testSchema(t, `{"type": "object", "properties": {"id": {"type": "string", "format": "uuid"}}}`)
	r := New(PolicyExample)

	a, err := r.Resolve(context.Background(), candidates(resource.SchemaSource(sch)))
	require.NoError(t, err)
	b, err := r.Resolve(context.Background(), candidates(resource.SchemaSource(sch)))
	require.NoError(t, err)

	assert.Equal(t, resource.KindSchema, a.Source)
	assert.True(t, json.Valid(a.Data))
	assert.NotEqual(t, string(a.Data), string(b.Data))
}

func TestResolve_NoSource(t *testing.T) {
	_, err := New(PolicyExample).Resolve(context.Background(), nil)
	var noSource *NoResponseSourceError
	assert.True(t, errors.As(err, &noSource))
}

func TestResolveMatch(t *testing.T) {
	spec := resource.NewMethodSpec("POST")
	spec.ContentType = "application/vnd.api+json"
	spec.AddSource(resource.LiteralExample([]byte(`{"test":"test"}`)))

	body, err := New(PolicyExample).ResolveMatch(context.Background(), &resource.Match{Spec: spec, Pattern: "/post"})
	require.NoError(t, err)
	assert.Equal(t, "application/vnd.api+json", body.ContentType)

	empty := resource.NewMethodSpec("GET")
	_, err = New(PolicyExample).ResolveMatch(context.Background(), &resource.Match{Spec: empty, Pattern: "/empty"})
	var noSource *NoResponseSourceError
	require.True(t, errors.As(err, &noSource))
	assert.Equal(t, "GET", noSource.Method)
	assert.Equal(t, "/empty", noSource.Path)
	assert.Contains(t, err.Error(), "GET /empty")

	noBody := resource.NewMethodSpec("DELETE")
	noBody.Status = http.StatusNoContent
	noBody.Declared = true
	body, err = New(PolicyExample).ResolveMatch(context.Background(), &resource.Match{Spec: noBody, Pattern: "/items/{id}"})
	require.NoError(t, err)
	assert.Empty(t, body.Data)
}

func TestResolve_CycleSurfaces(t *testing.T) {
	sch := testSchema(t, `{"type": "object", "properties": {"self": {"$ref": "#"}}}`)

	_, err := New(PolicyExample).Resolve(context.Background(), candidates(resource.SchemaSource(sch)))
	var cycle *schema.CycleError
	assert.True(t, errors.As(err, &cycle))
}

func TestResolve_ValidationLogsViolations(t *testing.T) {
	sch := testSchema(t, `{"type": "object", "properties": {"n": {"type": "integer"}}}`)

	var buf bytes.Buffer
	logger := logging.New(logging.Config{Level: slog.LevelDebug, Output: &buf})
	failing := func(*schema.Schema, any) error { return errors.New("boom") }

	body, err := New(PolicyExample, WithValidation(failing), WithLogger(logger)).
		Resolve(context.Background(), candidates(resource.SchemaSource(sch)))
	require.NoError(t, err)
	assert.NotEmpty(t, body.Data)
	assert.Contains(t, buf.String(), "does not conform")

	buf.Reset()
	_, err = New(PolicyExample, WithValidation((*schema.Schema).Validate), WithLogger(logger)).
		Resolve(context.Background(), candidates(resource.SchemaSource(sch)))
	require.NoError(t, err)
	assert.NotContains(t, buf.String(), "does not conform")
}

func TestResolve_SeededSynthesis(t *testing.T) {
	sch := testSchema(t, `{"type": "array", "items": {"type": "integer"}}`)
	r := New(PolicySchema, WithSynthOptions(schema.WithSeed(1)))

	a, err := r.Resolve(context.Background(), candidates(resource.SchemaSource(sch)))
	require.NoError(t, err)
	b, err := r.Resolve(context.Background(), candidates(resource.SchemaSource(sch)))
	require.NoError(t, err)
	assert.Equal(t, a.Data, b.Data)
}
