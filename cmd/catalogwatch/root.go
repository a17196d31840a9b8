package main

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/partsportal/catalog-sync/internal/config"
	"github.com/partsportal/catalog-sync/internal/logging"
	"github.com/partsportal/catalog-sync/internal/version"
)

// rootOptions holds global flags for all commands.
type rootOptions struct {
	ConfigPath string
	LogLevel   string
	NoStream   bool
	NoStatus   bool

	cfg       *config.Config
	logger    *slog.Logger
	logCloser io.Closer
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "catalogwatch",
		Short:         "Live view of the parts catalog",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Name() == "version" {
				return nil
			}
			return opts.setup()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if opts.logCloser != nil {
				opts.logCloser.Close()
			}
		},
	}

	cmd.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c", "", "path to config file (defaults and environment only when empty)")
	cmd.PersistentFlags().StringVar(&opts.LogLevel, "log-level", "", "override logging.level")
	cmd.PersistentFlags().BoolVar(&opts.NoStream, "no-stream", false, "do not connect to the update stream")
	cmd.PersistentFlags().BoolVar(&opts.NoStatus, "no-status", false, "do not start the status server")

	cmd.AddCommand(newListCommand(opts))
	cmd.AddCommand(newDetailCommand(opts))
	cmd.AddCommand(newVersionCommand())

	return cmd
}

// setup loads configuration and installs the default logger.
func (o *rootOptions) setup() error {
	cfg, err := loadConfig(o.ConfigPath)
	if err != nil {
		return err
	}
	if o.LogLevel != "" {
		cfg.Logging.Level = o.LogLevel
	}
	if cfg.API.BaseURL == "" {
		return fmt.Errorf("no catalog url configured: set api.base_url or %s", config.EnvAPIURL)
	}

	o.cfg = cfg
	o.logger, o.logCloser = logging.New(cfg.Logging)
	slog.SetDefault(o.logger)

	o.logger.Info("starting catalogwatch",
		"version", version.Version,
		"commit", version.Commit,
		"config", o.ConfigPath,
		"api_url", cfg.API.BaseURL,
	)
	return nil
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadAndValidate(path)
	}
	cfg := config.Default()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version.String())
		},
	}
}
