package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/getmockd/ramlmock/internal/matching"
	"github.com/getmockd/ramlmock/pkg/config"
	"github.com/getmockd/ramlmock/pkg/engine"
	"github.com/getmockd/ramlmock/pkg/resolve"
	"github.com/getmockd/ramlmock/pkg/resource"
	"github.com/getmockd/ramlmock/pkg/schema"
)

var validateFlags configFlags

var validateCmd = &cobra.Command{
	Use:   "validate [description]",
	Short: "Load a description and check every route can respond",
	Long: `Load a description and check every response source of every route: JSON
examples must parse and every schema must produce a value. Generated values
are checked against their schema unless --validate-generated=false is given.`,
	Example: `  ramlmock validate ./api`,
	Args:    cobra.MaximumNArgs(1),
	RunE:    runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)

	addDescriptionFlags(validateCmd, &validateFlags)
}

func runValidate(cmd *cobra.Command, args []string) error {
	l, err := loadDescription(cmd, args, &validateFlags)
	if err != nil {
		return err
	}
	if !l.cfg.IsSet("validateGenerated") {
		l.cfg.ValidateGenerated = true
	}
	resolver := engine.NewResolver(l.cfg, l.log)

	routes := l.tree.Routes()
	var problems []error
	for _, r := range routes {
		if err := checkRoute(cmd.Context(), l, resolver, r); err != nil {
			problems = append(problems, fmt.Errorf("%s %s: %w", r.Method, r.Pattern, err))
		}
	}

	info := l.tree.Info()
	fmt.Fprintf(cmd.OutOrStdout(), "%s: %s description %q, %d routes\n", l.desc.Path, l.desc.Format, info.Title, len(routes))
	printSourceCounts(cmd.OutOrStdout(), routes)
	if len(problems) > 0 {
		return fmt.Errorf("%d of %d routes cannot respond:\n%w", len(problems), len(routes), errors.Join(problems...))
	}
	fmt.Fprintln(cmd.OutOrStdout(), "ok")
	return nil
}

// printSourceCounts prints how many response sources of each kind the
// routes declare.
func printSourceCounts(w io.Writer, routes []resource.Route) {
	counts := make(map[string]int)
	for _, r := range routes {
		for _, kind := range r.Sources {
			counts[kind]++
		}
	}
	title := cases.Title(language.English)
	for _, kind := range slices.Sorted(maps.Keys(counts)) {
		fmt.Fprintf(w, "  %s: %d\n", title.String(kind), counts[kind])
	}
}

// checkRoute checks each response source of r on its own, so a broken
// schema is reported even when an example would be served instead.
func checkRoute(ctx context.Context, l *loaded, resolver *resolve.Resolver, r resource.Route) error {
	m, err := l.tree.Match(r.Method, matching.SplitPath(r.Pattern))
	if err != nil {
		return err
	}
	if len(m.Spec.Sources) == 0 {
		_, err := resolver.ResolveMatch(ctx, m)
		return err
	}

	jsonBody := isJSONMediaType(m.Spec.ContentType)
	var errs []error
	for _, src := range m.Spec.Sources {
		var err error
		switch src.Kind {
		case resource.KindSchema:
			err = checkSchema(ctx, l.cfg, src.Schema)
		case resource.KindLiteralExample:
			if jsonBody && !json.Valid(src.Raw) {
				err = errors.New("example is not valid JSON")
			}
		case resource.KindExampleFile:
			if jsonBody && !json.Valid(src.Data) {
				err = fmt.Errorf("%s is not valid JSON", src.Path)
			}
		}
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", src.Kind, err))
		}
	}
	return errors.Join(errs...)
}

// checkSchema generates one value from s and, when asked to, checks it
// conforms.
func checkSchema(ctx context.Context, cfg *config.Config, s *schema.Schema) error {
	if s == nil {
		return errors.New("no compiled schema")
	}
	ctx, cancel := context.WithTimeout(ctx, cfg.RequestTimeout.Std())
	defer cancel()

	var opts []schema.SynthOption
	if cfg.Seed != 0 {
		opts = append(opts, schema.WithSeed(cfg.Seed))
	}
	v, err := schema.NewSynthesizer(opts...).Synthesize(ctx, s)
	if err != nil {
		return err
	}
	if !cfg.ValidateGenerated {
		return nil
	}
	if err := s.Validate(v); err != nil && !errors.Is(err, schema.ErrValidatorUnavailable) {
		return fmt.Errorf("generated value does not conform: %w", err)
	}
	return nil
}

func isJSONMediaType(contentType string) bool {
	mt, _, _ := strings.Cut(contentType, ";")
	mt = strings.ToLower(strings.TrimSpace(mt))
	return mt == "application/json" || strings.HasSuffix(mt, "+json")
}
