// Package resource holds the immutable resource tree a mock server answers
// from: declared path segments, the methods declared on them, and the
// response source candidates of each method.
//
// Parsers fill a Builder; the resulting Tree is never modified afterwards,
// so the server can publish a new one with a single atomic pointer swap
// while requests keep reading the old one.
package resource
