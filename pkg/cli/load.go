package cli

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/getmockd/ramlmock/pkg/config"
	"github.com/getmockd/ramlmock/pkg/engine"
	"github.com/getmockd/ramlmock/pkg/resource"
)

// loaded is a description loaded by a one-shot command.
type loaded struct {
	cfg  *config.Config
	desc engine.Description
	tree *resource.Tree
	log  *slog.Logger
}

// loadDescription resolves the configuration and loads the description it
// names.
func loadDescription(cmd *cobra.Command, args []string, f *configFlags) (*loaded, error) {
	cfg, err := loadConfig(cmd, args, f)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration:\n%w", err)
	}

	log := quietLogger(cfg, cmd.ErrOrStderr())
	load, desc, err := engine.LoaderFor(cfg.Path, engine.LoaderOptions{StaticPath: cfg.StaticPath, Logger: log})
	if err != nil {
		return nil, err
	}
	tree, err := load(cmd.Context())
	if err != nil {
		return nil, err
	}
	return &loaded{cfg: cfg, desc: desc, tree: tree, log: log}, nil
}
