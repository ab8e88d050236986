package config

import "time"

// DefaultPort is the default listen port for mock traffic.
const DefaultPort = 4280

// DefaultRequestTimeout bounds the work done for one request.
const DefaultRequestTimeout = 5 * time.Second

// DefaultWatchInterval is how often the description files are polled.
const DefaultWatchInterval = time.Second

// DefaultPrioritizeBy serves declared examples before generated values.
const DefaultPrioritizeBy = "example"

// NewDefault creates a Config holding the default values.
func NewDefault() *Config {
	cfg := &Config{
		Port:           DefaultPort,
		Prefix:         StringList{""},
		RequestTimeout: Duration(DefaultRequestTimeout),
		CORS:           true,
		PrioritizeBy:   DefaultPrioritizeBy,
		WatchInterval:  Duration(DefaultWatchInterval),
		LogLevel:       "info",
		LogFormat:      "text",
		Sources:        make(map[string]string),
	}
	for _, key := range []string{
		"port", "prefix", "requestTimeout", "cors", "prioritizeBy",
		"watchInterval", "logLevel", "logFormat",
	} {
		cfg.Sources[key] = SourceDefault
	}
	return cfg
}
