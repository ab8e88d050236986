package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
)

// Environment variable names
const (
	EnvPath              = "RAMLMOCK_PATH"
	EnvPort              = "RAMLMOCK_PORT"
	EnvHost              = "RAMLMOCK_HOST"
	EnvPrefix            = "RAMLMOCK_PREFIX"
	EnvRequestTimeout    = "RAMLMOCK_REQUEST_TIMEOUT"
	EnvCORS              = "RAMLMOCK_CORS"
	EnvPrioritizeBy      = "RAMLMOCK_PRIORITIZE_BY"
	EnvStaticPath        = "RAMLMOCK_STATIC_PATH"
	EnvValidateGenerated = "RAMLMOCK_VALIDATE_GENERATED"
	EnvSeed              = "RAMLMOCK_SEED"
	EnvWatch             = "RAMLMOCK_WATCH"
	EnvWatchInterval     = "RAMLMOCK_WATCH_INTERVAL"
	EnvDebug             = "RAMLMOCK_DEBUG"
	EnvLogLevel          = "RAMLMOCK_LOG_LEVEL"
	EnvLogFormat         = "RAMLMOCK_LOG_FORMAT"
	EnvLogFile           = "RAMLMOCK_LOG_FILE"
	EnvConfig            = "RAMLMOCK_CONFIG"
)

// LoadEnv applies the RAMLMOCK_* variables that are set. Malformed values
// are reported together.
func LoadEnv(cfg *Config) error {
	var errs []error
	str := func(env, key string, dst *string) {
		if v, ok := os.LookupEnv(env); ok {
			*dst = v
			cfg.SetSource(key, SourceEnv)
		}
	}
	boolean := func(env, key string, dst *bool) {
		v, ok := os.LookupEnv(env)
		if !ok {
			return
		}
		b, err := strconv.ParseBool(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %q is not a boolean", env, v))
			return
		}
		*dst = b
		cfg.SetSource(key, SourceEnv)
	}
	duration := func(env, key string, dst *Duration) {
		v, ok := os.LookupEnv(env)
		if !ok {
			return
		}
		d, err := ParseDuration(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", env, err))
			return
		}
		*dst = d
		cfg.SetSource(key, SourceEnv)
	}

	str(EnvPath, "path", &cfg.Path)
	if v, ok := os.LookupEnv(EnvPort); ok {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Port = port
			cfg.SetSource("port", SourceEnv)
		} else {
			errs = append(errs, fmt.Errorf("%s: %q is not a port number", EnvPort, v))
		}
	}
	str(EnvHost, "host", &cfg.Host)
	if v, ok := os.LookupEnv(EnvPrefix); ok {
		cfg.Prefix = SplitList(v)
		cfg.SetSource("prefix", SourceEnv)
	}
	duration(EnvRequestTimeout, "requestTimeout", &cfg.RequestTimeout)
	boolean(EnvCORS, "cors", &cfg.CORS)
	str(EnvPrioritizeBy, "prioritizeBy", &cfg.PrioritizeBy)
	str(EnvStaticPath, "staticPath", &cfg.StaticPath)
	boolean(EnvValidateGenerated, "validateGenerated", &cfg.ValidateGenerated)
	if v, ok := os.LookupEnv(EnvSeed); ok {
		if seed, err := strconv.ParseUint(v, 10, 64); err == nil {
			cfg.Seed = seed
			cfg.SetSource("seed", SourceEnv)
		} else {
			errs = append(errs, fmt.Errorf("%s: %q is not an unsigned integer", EnvSeed, v))
		}
	}
	boolean(EnvWatch, "watch", &cfg.Watch)
	duration(EnvWatchInterval, "watchInterval", &cfg.WatchInterval)
	boolean(EnvDebug, "debug", &cfg.Debug)
	str(EnvLogLevel, "logLevel", &cfg.LogLevel)
	str(EnvLogFormat, "logFormat", &cfg.LogFormat)
	str(EnvLogFile, "logFile", &cfg.LogFile)

	return errors.Join(errs...)
}
