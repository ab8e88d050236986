package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the complete ramlmock configuration. Values are layered with the
// following precedence:
//  1. Command-line flags (highest priority)
//  2. Environment variables (RAMLMOCK_*)
//  3. Config file (ramlmock.yaml, ramlmock.yml or ramlmock.json)
//  4. Defaults (lowest priority)
type Config struct {
	// Path is the interface description: a .raml file, a directory holding
	// one, or an OpenAPI 3 document.
	Path string `yaml:"path" json:"path"`

	// Server settings
	Port           int        `yaml:"port" json:"port"`
	Host           string     `yaml:"host" json:"host"`
	Prefix         StringList `yaml:"prefix" json:"prefix"`
	RequestTimeout Duration   `yaml:"requestTimeout" json:"requestTimeout"`
	CORS           bool       `yaml:"cors" json:"cors"`

	// Response settings
	PrioritizeBy      string `yaml:"prioritizeBy" json:"prioritizeBy"`
	StaticPath        string `yaml:"staticPath" json:"staticPath"`
	ValidateGenerated bool   `yaml:"validateGenerated" json:"validateGenerated"`
	Seed              uint64 `yaml:"seed" json:"seed"`

	// Reload settings
	Watch         bool     `yaml:"watch" json:"watch"`
	WatchInterval Duration `yaml:"watchInterval" json:"watchInterval"`

	// Logging settings
	Debug     bool   `yaml:"debug" json:"debug"`
	LogLevel  string `yaml:"logLevel" json:"logLevel"`
	LogFormat string `yaml:"logFormat" json:"logFormat"`
	LogFile   string `yaml:"logFile" json:"logFile"`

	// ConfigFile is the file the configuration was read from, if any.
	ConfigFile string `yaml:"-" json:"-"`

	// Sources tracks where each value came from, keyed by YAML name.
	Sources map[string]string `yaml:"-" json:"-"`

	// SetFields records the keys present in a loaded file so explicit zero
	// values (port: 0, cors: false) still override.
	SetFields map[string]bool `yaml:"-" json:"-"`
}

// Config sources.
const (
	SourceDefault = "default"
	SourceFile    = "file"
	SourceEnv     = "env"
	SourceFlag    = "flag"
)

// SetSource records where key's value came from.
func (c *Config) SetSource(key, source string) {
	if c.Sources == nil {
		c.Sources = make(map[string]string)
	}
	c.Sources[key] = source
}

// Source returns where key's value came from, SourceDefault for keys
// nothing set.
func (c *Config) Source(key string) string {
	if s, ok := c.Sources[key]; ok {
		return s
	}
	return SourceDefault
}

// IsSet reports whether key was set by a file, the environment or a flag.
func (c *Config) IsSet(key string) bool {
	return c.Source(key) != SourceDefault
}

// Duration is a time.Duration written as "1s" or "250ms" in files and the
// environment. A bare integer is read as seconds.
type Duration time.Duration

// Std returns d as a time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

func (d Duration) String() string { return time.Duration(d).String() }

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(n *yaml.Node) error {
	if n.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: duration must be a scalar", n.Line)
	}
	v, err := ParseDuration(n.Value)
	if err != nil {
		return fmt.Errorf("line %d: %w", n.Line, err)
	}
	*d = v
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (any, error) {
	return d.String(), nil
}

// ParseDuration parses a Go duration string or a whole number of seconds.
func ParseDuration(s string) (Duration, error) {
	s = strings.TrimSpace(s)
	if secs, err := strconv.ParseInt(s, 10, 64); err == nil {
		return Duration(time.Duration(secs) * time.Second), nil
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q", s)
	}
	return Duration(v), nil
}

// StringList accepts either a single string or a list of strings.
type StringList []string

// UnmarshalYAML implements yaml.Unmarshaler.
func (l *StringList) UnmarshalYAML(n *yaml.Node) error {
	switch n.Kind {
	case yaml.ScalarNode:
		*l = StringList{n.Value}
		return nil
	case yaml.SequenceNode:
		var out []string
		if err := n.Decode(&out); err != nil {
			return err
		}
		*l = out
		return nil
	}
	return fmt.Errorf("line %d: expected a string or a list of strings", n.Line)
}

// SplitList splits a comma separated value, keeping empty entries so that
// "" and ",/api" can name the root mount.
func SplitList(s string) StringList {
	parts := strings.Split(s, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}
