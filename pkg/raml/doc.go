// Package raml parses the subset of RAML 0.8 and 1.0 a mock server needs
// into a resource.Tree.
//
// Supported: the document header, title/version/baseUri/mediaType, schema
// declarations ("schemas" in 0.8, "types" in 1.0), nested resources, the
// get/post/put/patch/delete/head/options methods, and response bodies with
// example, examples, schema and type facets. !include works anywhere a
// value is expected; included YAML and RAML fragments are spliced in,
// JSON files are decoded and other files are read as text.
//
// Resource types, traits, security schemes and annotations are ignored.
package raml
