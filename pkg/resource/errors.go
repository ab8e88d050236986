package resource

import (
	"fmt"
	"strings"
)

// RouteNotFoundError is returned by Tree.Match when no declared resource
// serves the request.
type RouteNotFoundError struct {
	Method string
	Path   string
	// MethodNotAllowed is set when a resource matched the path but does not
	// declare the method. Allowed then lists the methods it does declare.
	MethodNotAllowed bool
	Allowed          []string
}

func (e *RouteNotFoundError) Error() string {
	if e.MethodNotAllowed {
		return fmt.Sprintf("method %s not allowed on %s (allowed: %s)", e.Method, e.Path, strings.Join(e.Allowed, ", "))
	}
	return fmt.Sprintf("no resource declared for %s %s", e.Method, e.Path)
}

// DuplicateRouteError is returned by Builder.Add when a method is declared
// twice on the same resource.
type DuplicateRouteError struct {
	Method  string
	Pattern string
}

func (e *DuplicateRouteError) Error() string {
	return fmt.Sprintf("%s %s declared more than once", e.Method, e.Pattern)
}
