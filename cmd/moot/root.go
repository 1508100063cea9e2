package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "moot",
	Short: "Moot is a courtroom trial dialogue engine",
	Long:  `Moot runs role-played trial simulations over branching dialogue graphs, scoring every decision and keeping an auditable history.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	// Local .env overrides are optional.
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().String("log-level", envOr("MOOT_LOG_LEVEL", "info"), "Log level: debug, info, warn, error")
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
