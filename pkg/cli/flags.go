package cli

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/getmockd/ramlmock/pkg/cli/internal/flags"
	"github.com/getmockd/ramlmock/pkg/config"
	"github.com/getmockd/ramlmock/pkg/logging"
)

// configFlags are the flags that overlay the configuration. A flag only
// overrides when it is set on the command line.
type configFlags struct {
	configFile        string
	port              int
	host              string
	prefix            flags.StringSlice
	requestTimeout    string
	cors              bool
	prioritizeBy      string
	staticPath        string
	validateGenerated bool
	seed              uint64
	watch             bool
	watchInterval     string
	debug             bool
	logLevel          string
	logFormat         string
	logFile           string
}

// addDescriptionFlags registers the flags every command that loads a
// description understands.
func addDescriptionFlags(cmd *cobra.Command, f *configFlags) {
	fs := cmd.Flags()
	fs.StringVarP(&f.configFile, "config", "c", "", "Config file (default: ./ramlmock.yaml if present)")
	fs.StringVar(&f.staticPath, "static-path", "", "Directory searched for example files not found next to the description")
	fs.Var(&f.prefix, "prefix", "Path prefix the routes are served under (repeatable, \"\" for the root)")
	fs.StringVar(&f.prioritizeBy, "prioritize-by", config.DefaultPrioritizeBy, "Response source preferred when several are declared (example, schema, declaration)")
	fs.Uint64Var(&f.seed, "seed", 0, "Seed for generated values (0 = random per request)")
	fs.BoolVar(&f.validateGenerated, "validate-generated", false, "Validate generated values against their schema")
	fs.BoolVar(&f.debug, "debug", false, "Enable debug logging")
	fs.StringVar(&f.logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	fs.StringVar(&f.logFormat, "log-format", "text", "Log format (text, json)")
}

// addServerFlags registers the flags only serve and config use.
func addServerFlags(cmd *cobra.Command, f *configFlags) {
	fs := cmd.Flags()
	fs.IntVarP(&f.port, "port", "p", config.DefaultPort, "HTTP server port (0 = ephemeral)")
	fs.StringVar(&f.host, "host", "", "Bind host (default: all interfaces)")
	fs.StringVar(&f.requestTimeout, "request-timeout", config.DefaultRequestTimeout.String(), "Time allowed to produce one response")
	fs.BoolVar(&f.cors, "cors", true, "Answer CORS preflights and add CORS headers")
	fs.BoolVarP(&f.watch, "watch", "w", false, "Reload the description when its files change")
	fs.StringVar(&f.watchInterval, "watch-interval", config.DefaultWatchInterval.String(), "How often description files are polled with --watch")
	fs.StringVar(&f.logFile, "log-file", "", "Also write JSON logs to this file")
}

// loadConfig layers defaults, the config file, the environment and the
// flags that were set. The first positional argument, when given, is the
// description path.
func loadConfig(cmd *cobra.Command, args []string, f *configFlags) (*config.Config, error) {
	cfg, err := config.LoadAll(f.configFile, ".")
	if err != nil {
		return nil, err
	}
	if len(args) > 0 {
		cfg.Path = args[0]
		cfg.SetSource("path", config.SourceFlag)
	}

	fs := cmd.Flags()
	var errs []error
	set := func(name, key string, apply func() error) {
		if fs.Lookup(name) == nil || !fs.Changed(name) {
			return
		}
		if err := apply(); err != nil {
			errs = append(errs, fmt.Errorf("--%s: %w", name, err))
			return
		}
		cfg.SetSource(key, config.SourceFlag)
	}
	duration := func(s string, dst *config.Duration) func() error {
		return func() error {
			d, err := config.ParseDuration(s)
			*dst = d
			return err
		}
	}

	set("port", "port", func() error { cfg.Port = f.port; return nil })
	set("host", "host", func() error { cfg.Host = f.host; return nil })
	set("prefix", "prefix", func() error { cfg.Prefix = config.StringList(f.prefix); return nil })
	set("request-timeout", "requestTimeout", duration(f.requestTimeout, &cfg.RequestTimeout))
	set("cors", "cors", func() error { cfg.CORS = f.cors; return nil })
	set("prioritize-by", "prioritizeBy", func() error { cfg.PrioritizeBy = f.prioritizeBy; return nil })
	set("static-path", "staticPath", func() error { cfg.StaticPath = f.staticPath; return nil })
	set("validate-generated", "validateGenerated", func() error { cfg.ValidateGenerated = f.validateGenerated; return nil })
	set("seed", "seed", func() error { cfg.Seed = f.seed; return nil })
	set("watch", "watch", func() error { cfg.Watch = f.watch; return nil })
	set("watch-interval", "watchInterval", duration(f.watchInterval, &cfg.WatchInterval))
	set("debug", "debug", func() error { cfg.Debug = f.debug; return nil })
	set("log-level", "logLevel", func() error { cfg.LogLevel = f.logLevel; return nil })
	set("log-format", "logFormat", func() error { cfg.LogFormat = f.logFormat; return nil })
	set("log-file", "logFile", func() error { cfg.LogFile = f.logFile; return nil })

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return cfg, nil
}

// newLogger builds the logger cfg asks for, writing to w. The returned
// closer releases the log file, if any.
func newLogger(cfg *config.Config, w io.Writer) (*slog.Logger, func() error, error) {
	lc := cfg.Logging()
	lc.Output = w
	closer := func() error { return nil }
	if cfg.LogFile != "" {
		file, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open log file: %w", err)
		}
		lc.Mirror = file
		closer = file.Close
	}
	return logging.New(lc), closer, nil
}

// quietLogger is used by the one-shot commands: warnings only, unless
// debug logging was asked for.
func quietLogger(cfg *config.Config, w io.Writer) *slog.Logger {
	lc := cfg.Logging()
	lc.Output = w
	if !cfg.Debug && !cfg.IsSet("logLevel") {
		lc.Level = logging.LevelWarn
	}
	return logging.New(lc)
}
