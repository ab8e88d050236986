// ramlmock CLI - serves mock responses for RAML and OpenAPI descriptions
package main

import "github.com/getmockd/ramlmock/pkg/cli"

// Build-time variables set via ldflags
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildDate = "unknown"
)

func main() {
	cli.Version, cli.Commit, cli.BuildDate = Version, Commit, BuildDate
	cli.Execute()
}
