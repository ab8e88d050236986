package cli

import (
	"context"
	"fmt"
	"io"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/getmockd/ramlmock/pkg/cli/internal/ports"
	"github.com/getmockd/ramlmock/pkg/config"
	"github.com/getmockd/ramlmock/pkg/engine"
)

// shutdownTimeout bounds how long in-flight requests may finish on exit.
const shutdownTimeout = 5 * time.Second

var (
	serveFlags    configFlags
	servePrintURL bool
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve [description]",
	Short: "Serve mock responses for a description",
	Long: `Serve mock responses for a RAML or OpenAPI 3 description.

The description is a .raml file, a directory holding one, or an OpenAPI 3
document. Every declared route answers with its declared status, headers and
a body taken from an example or generated from the JSON Schema.

GET /__ramlmock/health and GET /__ramlmock/routes report on the server itself.`,
	Example: `  # Serve the RAML description in ./api on port 4280
  ramlmock serve ./api

  # Serve under /api as well as the root, reloading on edits
  ramlmock serve ./api --prefix "" --prefix /api --watch

  # Prefer generated values over examples, reproducibly
  ramlmock serve ./openapi.yaml --prioritize-by schema --seed 42

  # Ephemeral port, printing the URL for scripts
  ramlmock serve ./api --port 0 --print-url`,
	Args: cobra.MaximumNArgs(1),
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	addDescriptionFlags(serveCmd, &serveFlags)
	addServerFlags(serveCmd, &serveFlags)
	serveCmd.Flags().BoolVar(&servePrintURL, "print-url", false, "Print the server URL to stdout once listening")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, args, &serveFlags)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration:\n%w", err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return serve(ctx, cfg, cmd.OutOrStdout(), cmd.ErrOrStderr(), servePrintURL)
}

// serve runs the mock server until ctx is done or the server fails, then
// shuts it down gracefully.
func serve(ctx context.Context, cfg *config.Config, stdout, stderr io.Writer, printURL bool) error {
	log, closeLog, err := newLogger(cfg, stderr)
	if err != nil {
		return err
	}
	defer func() { _ = closeLog() }()

	if err := ports.Check(cfg.Host, cfg.Port); err != nil {
		return ports.Error(cfg.Port, err)
	}

	srv, err := engine.NewServer(cfg, engine.WithLogger(log))
	if err != nil {
		return err
	}
	if err := srv.Start(ctx); err != nil {
		return err
	}
	if printURL {
		fmt.Fprintln(stdout, srv.URL())
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(srv.Wait)
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down", "uptime", srv.Uptime().Round(time.Second))

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
