package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Version is injected during build
	Version = "dev"
	// Commit is injected during build
	Commit = "none"
	// BuildDate is injected during build
	BuildDate = "unknown"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "ramlmock",
	Short: "ramlmock serves mock responses for RAML and OpenAPI descriptions",
	Long: `ramlmock reads a RAML 0.8/1.0 or OpenAPI 3 description and answers every
declared route with a declared example or a value generated from its JSON
Schema.

Configuration can be provided via flags, environment variables (RAMLMOCK_*),
or a ramlmock.yaml file in the working directory.`,
	SilenceUsage:  true,
	SilenceErrors: true, // We handle errors in Main()
}

// Main runs the command line and returns the process exit code.
func Main() int {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(rootCmd.ErrOrStderr(), "Error:", err)
		return 1
	}
	return 0
}

// Execute runs the command line and exits. It is called by main.main().
func Execute() {
	os.Exit(Main())
}
