package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/hanabi-drive/hanabi/config"
)

var version = "dev"

var rootCmd = &cobra.Command{
	Version: version,
	Use:     "hanabi",
	Short:   "Account server for the hanabi drive",
	Long: `Hanabi serves the drive's account endpoint: session cookies, CORS policy,
login and registration backed by a SQL credential store.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var files []string
		if configFile, _ := cmd.Flags().GetString("config"); configFile != "" {
			files = append(files, configFile)
		}

		cfg, err := config.Load(files, cmd.Flags())
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}

		setupLogging(cfg)
		cmd.SetContext(config.WithContext(cmd.Context(), cfg))
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "config file path (default: ./config.yaml)")
	rootCmd.PersistentFlags().String("db-type", "", "database type: sqlite, postgres, memory (default: sqlite, env: HANABI_DATABASE_TYPE)")
	rootCmd.PersistentFlags().String("db-dsn", "", "database connection string (default: data/main.db3, env: HANABI_DATABASE_DSN)")
	rootCmd.PersistentFlags().String("log-level", "", "log level: debug, info, warn, error (env: HANABI_LOG_LEVEL)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
