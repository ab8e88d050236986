// Package schema compiles JSON Schema documents into an arena of nodes and
// synthesizes example values from them.
//
// Documents are registered with a Compiler by name and may reference each
// other with "$ref". Every document location compiles to one node, so a
// definition shared by several properties is stored once and a recursive
// definition becomes a cycle of Target edges rather than an infinite tree.
//
// A Synthesizer walks the compiled nodes and produces a value that has the
// declared structure: objects carry their properties in declaration order,
// allOf members are merged, and one anyOf/oneOf member is chosen at random.
// Values embedded in the schema (example, enum, default, const) take
// precedence over generated ones. Recursion is reported as a *CycleError
// instead of being followed.
//
//	c := schema.NewCompiler()
//	if err := c.AddDocument("user", doc); err != nil {
//		return err
//	}
//	s, err := c.Compile("user")
//	if err != nil {
//		return err
//	}
//	v, err := schema.NewSynthesizer().Synthesize(ctx, s)
//
// Schema.Validate checks a value against the source document using
// github.com/santhosh-tekuri/jsonschema.
package schema
