package cli

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/getmockd/ramlmock/pkg/cli/internal/output"
)

var versionJSON bool

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if versionJSON {
			return output.JSON(cmd.OutOrStdout(), map[string]string{
				"version":   Version,
				"commit":    Commit,
				"buildDate": BuildDate,
				"go":        runtime.Version(),
			})
		}
		_, err := fmt.Fprintf(cmd.OutOrStdout(), "ramlmock %s (commit %s, built %s, %s)\n", Version, Commit, BuildDate, runtime.Version())
		return err
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
	versionCmd.Flags().BoolVar(&versionJSON, "json", false, "Output in JSON format")
}
