// Package commands implements the billed command line.
package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/garyjia/billed/internal/config"
	"github.com/garyjia/billed/internal/container"
	"github.com/garyjia/billed/pkg/utils"
)

// Version is set at build time
var Version = "dev"

type options struct {
	configPath string
	driver     string
	email      string
}

// app is what a subcommand gets once configuration and the container are up
type app struct {
	cfg       *config.Config
	logger    *zap.Logger
	container *container.Container
}

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	opts := &options{}

	rootCmd := &cobra.Command{
		Use:     "billed",
		Short:   "Employee expense bills: list, submit and export",
		Version: Version,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "path to the yaml configuration file")
	rootCmd.PersistentFlags().StringVar(&opts.driver, "store", "", "override the store driver (rest, sqlite, none)")
	rootCmd.PersistentFlags().StringVar(&opts.email, "email", "", "act as this employee instead of the saved session")

	rootCmd.AddCommand(newListCommand(opts))
	rootCmd.AddCommand(newSubmitCommand(opts))
	rootCmd.AddCommand(newExportCommand(opts))
	rootCmd.AddCommand(newLoginCommand(opts))

	return rootCmd
}

func loadConfig(opts *options) (*config.Config, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return nil, err
	}
	if opts.driver != "" {
		cfg.Store.Driver = opts.driver
	}
	if opts.email != "" {
		cfg.Session.Email = opts.email
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// withApp loads configuration, starts the container, runs fn and tears everything down
func withApp(ctx context.Context, opts *options, fn func(*app) error) error {
	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}

	output := cfg.Logger.OutputPath
	if output == "" || output == "stdout" {
		output = "stderr"
	}
	logger, err := utils.NewLogger(utils.LoggerConfig{
		Level:      cfg.Logger.Level,
		OutputPath: output,
		Format:     cfg.Logger.Format,
		Name:       "cli",
	})
	if err != nil {
		return fmt.Errorf("initialize logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	c, err := container.NewContainer(cfg, logger)
	if err != nil {
		return err
	}
	if err := c.Start(ctx); err != nil {
		return err
	}
	defer c.Close()

	return fn(&app{cfg: cfg, logger: logger, container: c})
}
