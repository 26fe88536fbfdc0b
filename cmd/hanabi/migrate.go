package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hanabi-drive/hanabi/config"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the credential table",
	Long: `Create the credential table if it does not exist and check that its
columns match what the server expects.`,
	RunE: runMigrate,
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}

func runMigrate(cmd *cobra.Command, args []string) error {
	cfg, err := config.FromContext(cmd.Context())
	if err != nil {
		return err
	}

	db, err := openDatabase(cmd.Context(), cfg, true)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	fmt.Fprintf(cmd.OutOrStdout(), "Table %q is ready (%s).\n", cfg.Database.Tables.Users, cfg.Database.Type)
	return nil
}
