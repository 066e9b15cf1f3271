package main

import (
	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/aussiebroadwan/forum/internal/forum/app"
)

// NewMigrateCmd creates the migrate subcommand.
func NewMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
		Long:  `Apply all pending migrations against the configured database driver.`,
		RunE:  runMigrate,
	}
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return oops.Code("CONFIG_INVALID").With("operation", "load config").Wrap(err)
	}

	cmd.Println("Running migrations...")
	db, err := app.OpenStore(cmd.Context(), cfg, app.NewLogger(cfg))
	if err != nil {
		return oops.Code("MIGRATION_FAILED").With("operation", "run migrations").With("driver", cfg.DBDriver).Wrap(err)
	}
	defer func() { _ = db.Close() }()

	cmd.Println("Migrations completed successfully")
	return nil
}
