package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/vovakirdan/gabgate/internal/app"
	"github.com/vovakirdan/gabgate/internal/config"
	"github.com/vovakirdan/gabgate/internal/log"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		configPath string
		logLevel   string
		addr       string
		mode       string
	)

	cmd := &cobra.Command{
		Use:           "gabgate-server",
		Short:         "Gabgate chat server",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			// A missing .env is normal outside development.
			envErr := godotenv.Load()

			bootLogger := log.New(logLevel)
			if envErr == nil {
				bootLogger.Debug().Msg("loaded .env")
			}

			cfg, path, err := config.Load(bootLogger, configPath)
			if err != nil {
				bootLogger.Error().Err(err).Msg("failed to load config")
				return err
			}
			cfg.UpdateFrom(config.Config{Addr: addr, LogLevel: logLevel, Mode: mode})

			logger := log.New(cfg.LogLevel)
			logger.Info().Str("config", path).Str("mode", cfg.Mode).Msg("configuration loaded")

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			application, err := app.New(&cfg, logger)
			if err != nil {
				logger.Error().Err(err).Msg("failed to initialize application")
				return err
			}

			logger.Info().Str("addr", cfg.Addr).Msg("starting gabgate server")
			if err := application.Run(ctx); err != nil {
				logger.Error().Err(err).Msg("server exited with error")
				return fmt.Errorf("run: %w", err)
			}
			logger.Info().Msg("server stopped")
			return nil
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "path to config file (default ./config.yaml or $GABGATE_CONFIG_DEFAULT_PATH/config.yaml)")
	cmd.Flags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error")
	cmd.Flags().StringVar(&addr, "addr", "", "HTTP listen address")
	cmd.Flags().StringVar(&mode, "mode", "", "development or production")

	return cmd
}
