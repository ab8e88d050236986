// Package openapi loads OpenAPI 3 descriptions into the same resource tree
// the RAML loader produces, so either format can back a mock server.
package openapi
