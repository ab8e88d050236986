package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/getmockd/ramlmock/pkg/cli/internal/output"
)

var (
	routesFlags configFlags
	routesJSON  bool
)

var routesCmd = &cobra.Command{
	Use:   "routes [description]",
	Short: "List the routes a description declares",
	Example: `  ramlmock routes ./api
  ramlmock routes ./openapi.yaml --json`,
	Args: cobra.MaximumNArgs(1),
	RunE: runRoutes,
}

func init() {
	rootCmd.AddCommand(routesCmd)

	addDescriptionFlags(routesCmd, &routesFlags)
	routesCmd.Flags().BoolVar(&routesJSON, "json", false, "Output in JSON format")
}

func runRoutes(cmd *cobra.Command, args []string) error {
	l, err := loadDescription(cmd, args, &routesFlags)
	if err != nil {
		return err
	}
	routes := l.tree.Routes()
	out := cmd.OutOrStdout()

	if routesJSON {
		if routes == nil {
			return output.JSON(out, []any{})
		}
		return output.JSON(out, routes)
	}

	tw := output.Table(out)
	fmt.Fprintln(tw, "METHOD\tPATH\tSTATUS\tCONTENT TYPE\tSOURCES")
	for _, r := range routes {
		sources := strings.Join(r.Sources, ",")
		if sources == "" {
			sources = "-"
		}
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\n", r.Method, r.Pattern, r.Status, r.ContentType, sources)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	if prefixes := l.cfg.Prefixes(); len(prefixes) != 1 || prefixes[0] != "" {
		fmt.Fprintf(out, "\nServed under: %s\n", strings.Join(displayPrefixes(prefixes), ", "))
	}
	return nil
}

func displayPrefixes(prefixes []string) []string {
	out := make([]string, len(prefixes))
	for i, p := range prefixes {
		if p == "" {
			p = "/"
		}
		out[i] = p
	}
	return out
}
