package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/spf13/cobra"

	"github.com/getmockd/ramlmock/internal/matching"
	"github.com/getmockd/ramlmock/pkg/engine"
)

var (
	generateFlags   configFlags
	generateSelect  string
	generateInclude bool
)

var generateCmd = &cobra.Command{
	Use:   "generate [description] METHOD PATH",
	Short: "Print the response body one route would serve",
	Long: `Print the response body the server would send for one request, without
starting the server. PATH is a request path such as /users/42; it is matched
against the description the same way the server matches it.`,
	Example: `  # Body of GET /users/42
  ramlmock generate ./api GET /users/42

  # A generated value, reproducibly, with status line and headers
  ramlmock generate ./api GET /users --prioritize-by schema --seed 7 -i

  # Only part of the body
  ramlmock generate ./api GET /users/42 --select '$.name'`,
	Args: cobra.RangeArgs(2, 3),
	RunE: runGenerate,
}

func init() {
	rootCmd.AddCommand(generateCmd)

	addDescriptionFlags(generateCmd, &generateFlags)
	generateCmd.Flags().StringVar(&generateSelect, "select", "", "JSONPath expression selecting the values to print, one per line")
	generateCmd.Flags().BoolVarP(&generateInclude, "include", "i", false, "Print the status line and headers before the body")
}

func runGenerate(cmd *cobra.Command, args []string) error {
	descArgs := args[:len(args)-2]
	method := strings.ToUpper(args[len(args)-2])
	path := args[len(args)-1]

	if generateSelect != "" {
		if err := matching.ValidateJSONPathExpression(generateSelect); err != nil {
			return err
		}
	}

	l, err := loadDescription(cmd, descArgs, &generateFlags)
	if err != nil {
		return err
	}

	m, _, err := engine.MatchPath(l.tree, l.cfg.Prefixes(), method, path)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), l.cfg.RequestTimeout.Std())
	defer cancel()
	body, err := engine.NewResolver(l.cfg, l.log).ResolveMatch(ctx, m)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if generateInclude {
		fmt.Fprintf(out, "%d %s\n", m.Spec.Status, http.StatusText(m.Spec.Status))
		if len(body.Data) > 0 {
			fmt.Fprintf(out, "Content-Type: %s\n", body.ContentType)
		}
		for _, h := range m.Spec.Headers {
			fmt.Fprintf(out, "%s: %s\n", h.Name, h.Value)
		}
		fmt.Fprintln(out)
	}

	if generateSelect == "" {
		if len(body.Data) == 0 {
			return nil
		}
		_, err := fmt.Fprintln(out, string(bytes.TrimRight(body.Data, "\n")))
		return err
	}

	values, err := matching.SelectJSONPath(generateSelect, body.Data)
	if err != nil {
		return err
	}
	if len(values) == 0 {
		return fmt.Errorf("%s selected nothing from the %s body", generateSelect, body.Source)
	}
	enc := json.NewEncoder(out)
	enc.SetEscapeHTML(false)
	for _, v := range values {
		if err := enc.Encode(v); err != nil {
			return err
		}
	}
	return nil
}
