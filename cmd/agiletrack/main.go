// cmd/agiletrack/main.go
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/dangerclosesec/agiletrack"
	"github.com/dangerclosesec/agiletrack/internal/config"
	"github.com/dangerclosesec/agiletrack/internal/database"
	"github.com/dangerclosesec/agiletrack/internal/logger"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gorm.io/gorm"
)

var rootCmd = &cobra.Command{
	Use:           "agiletrack",
	Short:         "AgileTrack Pro server and admin tools",
	Version:       agiletrack.Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func main() {
	cobra.OnInitialize(initConfig)
	addPersistentFlags()
	registerCommands()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// initConfig lets AGILETRACK_* variables stand in for CLI flags. Server
// settings are read separately by config.Load.
func initConfig() {
	viper.SetEnvPrefix(config.EnvPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

func addPersistentFlags() {
	rootCmd.PersistentFlags().Bool("json", false, "output JSON")
	rootCmd.PersistentFlags().String("as", "", "email of the user CLI commands act as")
	_ = viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
	_ = viper.BindPFlag("as", rootCmd.PersistentFlags().Lookup("as"))
}

func registerCommands() {
	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(seedCmd())
	rootCmd.AddCommand(tokenCmd())
	rootCmd.AddCommand(metricsCmd())
}

// app is what every command needs: configuration, a logger and an open
// database.
type app struct {
	cfg    *config.Config
	logger *slog.Logger
	db     *gorm.DB
}

func withApp(ctx context.Context, fn func(ctx context.Context, a *app) error) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	log := logger.New(cfg.Log, cfg.Mode)
	slog.SetDefault(log)

	db, err := database.Open(cfg.Database, cfg.Mode)
	if err != nil {
		return fmt.Errorf("setting up database: %w", err)
	}
	defer func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	}()

	return fn(ctx, &app{cfg: cfg, logger: log, db: db})
}
