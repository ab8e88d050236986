// Package logging builds the slog loggers used across ramlmock.
//
// Components take a *slog.Logger through a WithLogger option and fall back
// to Nop when none is given:
//
//	logger := logging.New(logging.Config{
//	    Level:  logging.LevelDebug,
//	    Format: logging.FormatJSON,
//	})
//	srv, err := engine.NewServer(cfg, engine.WithLogger(logger))
//
// Text output suits a terminal; JSON suits log collectors. A Mirror writer
// receives a JSON copy of every record regardless of Format.
package logging
