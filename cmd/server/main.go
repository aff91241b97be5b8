// Command recipen-server starts the Recipen HTTP API and its gRPC health probe.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/and161185/recipen/internal/config"
	"github.com/and161185/recipen/internal/logging"
	"github.com/and161185/recipen/internal/migrate"
)

var (
	version   = "dev"
	buildDate = "unknown"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var cfgPath string

	// setup loads and validates configuration and builds the logger.
	setup := func() (*config.Config, *zap.Logger, func(), error) {
		cfg, err := config.Load(cfgPath)
		if err != nil {
			return nil, nil, nil, err
		}
		if err := cfg.Validate(); err != nil {
			return nil, nil, nil, fmt.Errorf("invalid config: %w", err)
		}
		logger, closeLog, err := logging.New(cfg.Debug, cfg.LogFile)
		if err != nil {
			return nil, nil, nil, err
		}
		return cfg, logger, closeLog, nil
	}

	root := &cobra.Command{
		Use:           "recipen-server",
		Short:         "Serve the Recipen API",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, closeLog, err := setup()
			if err != nil {
				return err
			}
			defer closeLog()
			logger.Info("starting",
				zap.String("version", version),
				zap.String("buildDate", buildDate),
				zap.String("addr", cfg.HTTPAddr),
				zap.String("storage", cfg.Storage),
			)

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			a, err := newApp(ctx, cfg, logger)
			if err != nil {
				logger.Error("startup failed", zap.Error(err))
				return err
			}
			if err := a.run(ctx); err != nil {
				logger.Error("server error", zap.Error(err))
				return err
			}
			logger.Info("shutdown complete")
			return nil
		},
	}
	root.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "config file (default ./recipen.yaml or /etc/recipen/recipen.yaml)")

	root.AddCommand(
		&cobra.Command{
			Use:   "migrate",
			Short: "Apply pending database migrations and exit",
			RunE: func(cmd *cobra.Command, _ []string) error {
				cfg, logger, closeLog, err := setup()
				if err != nil {
					return err
				}
				defer closeLog()
				if cfg.Storage != config.StoragePostgres {
					return fmt.Errorf("nothing to migrate for %s storage", cfg.Storage)
				}
				dsn, err := cfg.DSN()
				if err != nil {
					return err
				}
				return migrate.Up(cmd.Context(), dsn, logger)
			},
		},
		&cobra.Command{
			Use:   "version",
			Short: "Print the server version",
			Run: func(cmd *cobra.Command, _ []string) {
				fmt.Fprintf(cmd.OutOrStdout(), "recipen-server %s (%s)\n", version, buildDate)
			},
		},
	)
	return root
}
