package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/getmockd/ramlmock/internal/matching"
	"github.com/getmockd/ramlmock/pkg/logging"
	"github.com/getmockd/ramlmock/pkg/resolve"
)

// FieldError is one invalid configuration value.
type FieldError struct {
	Field   string
	Message string
}

func (e *FieldError) Error() string {
	return e.Field + ": " + e.Message
}

// Validate checks every value and returns all problems joined.
func (c *Config) Validate() error {
	var errs []error
	bad := func(field, format string, args ...any) {
		errs = append(errs, &FieldError{Field: field, Message: fmt.Sprintf(format, args...)})
	}

	if strings.TrimSpace(c.Path) == "" {
		bad("path", "is required")
	}
	if c.Port < 0 || c.Port > 65535 {
		bad("port", "%d is out of range 0-65535", c.Port)
	}
	if len(c.Prefix) == 0 {
		bad("prefix", "must list at least one prefix (use \"\" for the root)")
	}
	for _, p := range c.Prefix {
		if strings.ContainsAny(p, "{}?#") {
			bad("prefix", "%q must be a plain path", p)
		}
	}
	if c.RequestTimeout <= 0 {
		bad("requestTimeout", "must be positive")
	}
	if c.Watch && c.WatchInterval <= 0 {
		bad("watchInterval", "must be positive when watch is enabled")
	}
	if _, err := resolve.ParsePolicy(c.PrioritizeBy); err != nil {
		bad("prioritizeBy", "%v", err)
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		bad("logLevel", "%v", err)
	}
	if _, err := logging.ParseFormat(c.LogFormat); err != nil {
		bad("logFormat", "%v", err)
	}
	return errors.Join(errs...)
}

// Prefixes returns the normalized, de-duplicated mount prefixes.
func (c *Config) Prefixes() []string {
	seen := make(map[string]bool, len(c.Prefix))
	var out []string
	for _, p := range c.Prefix {
		p = matching.NormalizePrefix(p)
		if !seen[p] {
			seen[p] = true
			out = append(out, p)
		}
	}
	return out
}

// Policy returns the response source policy, the default when invalid.
func (c *Config) Policy() resolve.Policy {
	p, err := resolve.ParsePolicy(c.PrioritizeBy)
	if err != nil {
		return resolve.DefaultPolicy
	}
	return p
}

// Logging returns the logger configuration. Debug forces the debug level.
func (c *Config) Logging() logging.Config {
	cfg := logging.DefaultConfig()
	cfg.Level, _ = logging.ParseLevel(c.LogLevel)
	cfg.Format, _ = logging.ParseFormat(c.LogFormat)
	if c.Debug {
		cfg.Level = logging.LevelDebug
	}
	return cfg
}
