package main

import (
	"github.com/spf13/cobra"

	"github.com/aussiebroadwan/forum/internal/forum/app"
)

// Global flags available to all subcommands.
var configFile string

// NewRootCmd creates the root command for the forum CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "forum",
		Short: "Forum backend - accounts, sessions and topic subscriptions",
		Long: `forum serves the account and topic subscription API and provides
the administrative commands used to operate it.`,
		SilenceUsage: true,
	}

	// Global flag for config file path
	cmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path (YAML)")
	app.RegisterFlags(cmd.PersistentFlags())

	// Add subcommands
	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewMigrateCmd())
	cmd.AddCommand(NewTopicCmd())

	return cmd
}

// loadConfig resolves the layered configuration for cmd.
func loadConfig(cmd *cobra.Command) (app.Config, error) {
	return app.LoadConfig(configFile, cmd.Flags())
}
