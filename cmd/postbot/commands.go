package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	corecmd "github.com/m3rciful/postbot/core/cmd"
	coredatabase "github.com/m3rciful/postbot/core/database"
	"github.com/m3rciful/postbot/core/logger"
	"github.com/m3rciful/postbot/market/bot"
	"github.com/m3rciful/postbot/market/config"
	"github.com/m3rciful/postbot/market/listings"
)

const defaultConfigPath = "config.yaml"

var configPath string

func rootCmd() *cobra.Command {
	run := runCmd()
	root := &cobra.Command{
		Use:           "postbot",
		Short:         "Telegram classifieds marketplace bot",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          run.RunE,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "config file (default $CONFIG_PATH or config.yaml)")
	root.AddCommand(run, migrateCmd(), purgeCmd())
	return root
}

func runCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Start the bot",
		RunE: func(cmd *cobra.Command, args []string) error {
			return corecmd.Run(corecmd.Options{
				ConfigPath:        configPath,
				ConfigEnvVar:      "CONFIG_PATH",
				DefaultConfigPath: defaultConfigPath,
				LoadConfig: func(path string) (corecmd.ConfigCarrier, error) {
					return config.Load(path)
				},
				Bootstrap: func(ctx context.Context, cfg corecmd.ConfigCarrier) (corecmd.TelegramApp, error) {
					mc, ok := cfg.(*config.Config)
					if !ok {
						return nil, fmt.Errorf("unexpected config type %T", cfg)
					}
					return bot.Bootstrap(ctx, mc)
				},
			})
		},
	}
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadForTask()
			if err != nil {
				return err
			}
			defer logger.Shutdown()
			return coredatabase.RunMigrations(cfg.Database)
		},
	}
}

func purgeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "purge",
		Short: "Delete expired listings and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadForTask()
			if err != nil {
				return err
			}
			defer logger.Shutdown()

			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()
			db, err := coredatabase.Connect(ctx, cfg.Database)
			if err != nil {
				return err
			}
			defer db.Close()

			n, err := bot.Purge(ctx, listings.NewSQLStore(db))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "removed %d expired listings\n", n)
			return nil
		},
	}
}

// loadForTask reads the configuration and starts logging for one-shot commands.
func loadForTask() (*config.Config, error) {
	path, err := corecmd.ResolveConfigPath(configPath, "CONFIG_PATH", defaultConfigPath)
	if err != nil {
		return nil, err
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := logger.InitLogger(cfg.CoreConfig()); err != nil {
		return nil, err
	}
	return cfg, nil
}
