package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strconv"

	"gopkg.in/yaml.v3"
)

// FileNames are the config file names looked up in a directory, in order.
var FileNames = []string{"ramlmock.yaml", "ramlmock.yml", "ramlmock.json"}

// FindFile returns the first config file in dir, or "" when there is none.
func FindFile(dir string) string {
	for _, name := range FileNames {
		path := filepath.Join(dir, name)
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path
		}
	}
	return ""
}

// ConfigError is a config file that could not be read, with its location
// when known.
type ConfigError struct {
	Path    string
	Line    int
	Message string
	Err     error
}

func (e *ConfigError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s (line %d): %s", e.Path, e.Line, e.Message)
	}
	return e.Path + ": " + e.Message
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

var yamlLine = regexp.MustCompile(`line (\d+)`)

// LoadFile reads a YAML or JSON config file. Unknown keys are rejected.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &ConfigError{Path: path, Message: "cannot read config file", Err: err}
	}

	cfg := &Config{ConfigFile: path, Sources: make(map[string]string), SetFields: make(map[string]bool)}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		if errors.Is(err, io.EOF) {
			return cfg, nil
		}
		ce := &ConfigError{Path: path, Message: err.Error(), Err: err}
		if m := yamlLine.FindStringSubmatch(err.Error()); m != nil {
			ce.Line, _ = strconv.Atoi(m[1])
		}
		return nil, ce
	}

	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err == nil && len(root.Content) > 0 {
		top := root.Content[0]
		if top.Kind != yaml.MappingNode {
			return nil, &ConfigError{Path: path, Line: top.Line, Message: "config must be a mapping"}
		}
		for i := 0; i+1 < len(top.Content); i += 2 {
			cfg.SetFields[top.Content[i].Value] = true
		}
	}
	return cfg, nil
}

// LoadAll layers defaults, the config file and the environment. file names
// the config file explicitly; when empty, FindFile looks in dir.
// Command-line flags are applied on top by the caller.
func LoadAll(file, dir string) (*Config, error) {
	cfg := NewDefault()

	if file == "" {
		file = os.Getenv(EnvConfig)
	}
	if file == "" {
		file = FindFile(dir)
	}
	if file != "" {
		fileCfg, err := LoadFile(file)
		if err != nil {
			return nil, err
		}
		Merge(cfg, fileCfg, SourceFile)
		cfg.ConfigFile = file
		base := filepath.Dir(file)
		for key, p := range map[string]*string{"path": &cfg.Path, "staticPath": &cfg.StaticPath, "logFile": &cfg.LogFile} {
			if *p != "" && !filepath.IsAbs(*p) && fileCfg.SetFields[key] {
				*p = filepath.Join(base, *p)
			}
		}
	}

	if err := LoadEnv(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
