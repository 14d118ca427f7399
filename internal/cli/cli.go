// Package cli provides the cobra commands of shop-svc.
package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/corray333/backend-labs/shop/internal/app"
	"github.com/corray333/backend-labs/shop/internal/config"
	"github.com/corray333/backend-labs/shop/internal/dal/postgres"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var migrateCommands = []string{"up", "down", "status", "version", "redo", "reset"}

// NewRootCommand builds the shop-svc command tree. Running it without a
// subcommand serves the API.
func NewRootCommand() *cobra.Command {
	var configFile string

	rootCmd := &cobra.Command{
		Use:           "shop-svc",
		Short:         "Products and orders backend",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if configFile != "" {
				viper.SetConfigFile(configFile)
			}
			if err := config.Init(); err != nil {
				return err
			}
			config.SetupLogger()

			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(cmd.Context())
		},
	}

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file (default ./config.yaml)")
	rootCmd.PersistentFlags().String("storage", "", "storage backend: postgres|memory")
	rootCmd.PersistentFlags().String("log-level", "", "log level: debug|info|warn|error")

	_ = viper.BindPFlag("storage.driver", rootCmd.PersistentFlags().Lookup("storage"))
	_ = viper.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))

	rootCmd.AddCommand(newServeCommand(), newMigrateCommand(), newSeedCommand())

	return rootCmd
}

// Execute runs the root command and exits with status 1 on failure.
func Execute() {
	if err := NewRootCommand().ExecuteContext(context.Background()); err != nil {
		slog.Error("Command failed", "error", err)
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP and gRPC servers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(cmd.Context())
		},
	}
}

func serve(ctx context.Context) error {
	a, err := app.New(ctx)
	if err != nil {
		return err
	}

	return a.Run(ctx)
}

func newMigrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:       "migrate <up|down|status|version|redo|reset>",
		Short:     "Run database migrations",
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: migrateCommands,
		RunE: func(cmd *cobra.Command, args []string) error {
			if driver := viper.GetString("storage.driver"); driver == app.DriverMemory {
				return errors.New("migrations require the postgres storage driver")
			}

			cfg := postgres.ConfigFromViper()
			cfg.MigrationsEnabled = false

			client, err := postgres.NewClient(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer client.Close()

			if err := client.Migrate(cmd.Context(), args[0]); err != nil {
				return err
			}
			slog.Info("Migrations finished", "command", args[0])

			return nil
		},
	}
}

func newSeedCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Insert the starter product catalog into an empty database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			storage, err := app.OpenStorage(cmd.Context(), viper.GetString("storage.driver"))
			if err != nil {
				return err
			}
			defer storage.Close()

			inserted, err := storage.NewProductService(nil).Seed(cmd.Context())
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "seeded %d products\n", inserted)

			return nil
		},
	}
}
