// Package cli implements the ramlmock command line.
//
// Commands:
//
//	serve     serve mock responses for a RAML or OpenAPI 3 description
//	routes    list the routes a description declares
//	generate  print the response body one route would serve
//	validate  load a description and check every route can respond
//	config    show the effective configuration and where each value came from
//	version   print version information
//
// Configuration is layered: defaults, then ramlmock.yaml (or --config),
// then RAMLMOCK_* environment variables, then flags.
package cli
