// Package config holds the ramlmock options and loads them from defaults,
// a config file, the environment and command-line flags.
//
// A config file is YAML or JSON:
//
//	path: ./api
//	port: 4280
//	prefix: ["", /api]
//	prioritizeBy: example
//	watch: true
//	watchInterval: 500ms
//
// Every value records its origin in Config.Sources so the CLI can explain
// where a setting came from.
package config
