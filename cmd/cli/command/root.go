package command

// root.go defines the root command for yamdb-cli and the shared setup every
// subcommand needs: configuration, logger and database.

import (
	"fmt"
	"log/slog"
	"os"

	"yamdb/database"
	"yamdb/internal/config"
	"yamdb/internal/logger"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "yamdb-cli",
	Short: "yamdb-cli - YaMDb operator tools",
	Long: `yamdb-cli runs maintenance tasks against the YaMDb database:
- apply the schema (migrate)
- create an administrator account (createsuperuser)
- load a catalog fixture (import)

Configuration is read from the environment and an optional .env file, the same
way the API server reads it.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		color.New(color.FgRed).Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(createSuperuserCmd)
	rootCmd.AddCommand(importCmd)
}

// env is what a subcommand gets from connect
type env struct {
	cfg    *config.Config
	logger *slog.Logger
	db     *gorm.DB
}

func connect() (*env, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	log := logger.New(cfg)

	db, err := database.ConnectDB(cfg, log)
	if err != nil {
		return nil, fmt.Errorf("failed to connect: %w", err)
	}
	return &env{cfg: cfg, logger: log, db: db}, nil
}

func (e *env) close() {
	if err := database.Close(e.db); err != nil {
		e.logger.Warn("failed to close database", slog.Any("error", err))
	}
}
