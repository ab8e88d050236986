// Package matching provides path matching primitives for the resource tree.
//
// Resource URIs are matched one segment at a time. A declared segment is
// one of:
//
//   - Literal: "users" matches only "users"
//   - Named parameter: "{id}" matches any single path component
//   - Template: "report-{year}" matches "report-2024", binding year
//
// Each kind carries a score (see scores.go). When several sibling segments
// could match a request component, the caller tries them in descending score
// order, so a literal always outranks a parameter at the same depth.
//
// The package also handles mount prefixes: the same tree can be served
// under "" and "/api" by stripping the longest configured prefix before
// matching.
//
// When nothing matches, FindNearMisses ranks the declared routes by how
// much of the request they match, for "did you mean" suggestions.
package matching
