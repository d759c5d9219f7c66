// Package cli implements the formbuilder command line.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/goliatone/go-formbuilder/internal/config"
	"github.com/goliatone/go-formbuilder/internal/logging"
	"github.com/goliatone/go-formbuilder/pkg/model"
	"github.com/goliatone/go-formbuilder/pkg/preview"
	"github.com/goliatone/go-formbuilder/pkg/registry"
	"github.com/goliatone/go-formbuilder/pkg/schema"
)

// RootOptions holds global flags and the state resolved before every command.
type RootOptions struct {
	ConfigPath string
	Verbose    bool

	viper    *viper.Viper
	cfg      config.Config
	logger   *slog.Logger
	registry *registry.Registry

	// promptDriver replaces the terminal driver used by fill.
	promptDriver preview.PromptDriver
}

// NewRootCommand creates the root command.
func NewRootCommand() *cobra.Command {
	return newRootCommand(&RootOptions{})
}

func newRootCommand(opts *RootOptions) *cobra.Command {
	opts.viper = config.NewViper()

	cmd := &cobra.Command{
		Use:   "formbuilder",
		Short: "Inspect, migrate and serve multi-step form schemas",
		Long: `formbuilder works with the JSON/YAML form schemas produced by the form builder.

It validates and migrates documents, renders outlines and OpenAPI submission
contracts, previews a form in the terminal and serves a local builder API.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.resolve(cmd)
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&opts.ConfigPath, "config", "", "config file (default ./formbuilder.yaml when present)")
	flags.BoolVarP(&opts.Verbose, "verbose", "v", false, "debug logging")
	flags.String("log-level", "info", "log level (debug|info|warn|error)")
	flags.String("log-format", "text", "log format (text|json)")
	flags.String("storage-driver", config.DriverFile, "persistence backend (memory|file|sqlite)")
	flags.String("storage-path", ".formbuilder", "directory or database file for the persistence backend")
	_ = opts.viper.BindPFlag("log.level", flags.Lookup("log-level"))
	_ = opts.viper.BindPFlag("log.format", flags.Lookup("log-format"))
	_ = opts.viper.BindPFlag("storage.driver", flags.Lookup("storage-driver"))
	_ = opts.viper.BindPFlag("storage.path", flags.Lookup("storage-path"))

	cmd.AddCommand(newValidateCommand(opts))
	cmd.AddCommand(newMigrateCommand(opts))
	cmd.AddCommand(newOutlineCommand(opts))
	cmd.AddCommand(newContractCommand(opts))
	cmd.AddCommand(newFillCommand(opts))
	cmd.AddCommand(newFieldsCommand(opts))
	cmd.AddCommand(newServeCommand(opts))
	cmd.AddCommand(newStoreCommand(opts))

	return cmd
}

func (o *RootOptions) resolve(cmd *cobra.Command) error {
	cfg, err := config.Load(o.viper, o.ConfigPath)
	if err != nil {
		return err
	}
	if o.Verbose {
		cfg.Log.Level = "debug"
	}
	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	o.cfg = cfg
	o.logger = logger
	if o.registry == nil {
		o.registry = registry.NewWithBuiltins()
	}
	return nil
}

// loadSchema reads a schema from a path or URL.
func (o *RootOptions) loadSchema(ctx context.Context, location string) (model.FormSchema, error) {
	src, err := schema.SourceFor(location)
	if err != nil {
		return model.FormSchema{}, fmt.Errorf("resolve %q: %w", location, err)
	}
	loader := schema.NewLoader(schema.LoaderOptions{AllowHTTP: true, RequestTimeout: 15 * time.Second})
	loaded, err := loader.Load(ctx, src)
	if err != nil {
		return model.FormSchema{}, err
	}
	o.logger.Debug("cli: schema loaded", "source", location, "steps", len(loaded.Steps), "components", len(loaded.Components))
	return loaded, nil
}
