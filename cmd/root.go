package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/thayduy/lythuyet/internal/app"
	"github.com/thayduy/lythuyet/internal/config"
	"github.com/thayduy/lythuyet/internal/store"
)

var rootCmd = &cobra.Command{
	Use:   "lythuyet",
	Short: "Ôn thi lý thuyết lái xe",
	Long:  "Lythuyet — local-first study companion for the Vietnamese driving theory exam.",
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().String("db", "", "Path to SQLite database file (overrides LYTHUYET_DB env var)")

	rootCmd.AddCommand(dailyCmd)
	rootCmd.AddCommand(answerCmd)
	rootCmd.AddCommand(bookmarkCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(reviewCmd)
	rootCmd.AddCommand(mockCmd)
	rootCmd.AddCommand(coachCmd)
	rootCmd.AddCommand(syncCmd)
	rootCmd.AddCommand(linkCmd)
	rootCmd.AddCommand(unlinkCmd)
	rootCmd.AddCommand(resetCmd)
	rootCmd.AddCommand(versionCmd)
}

// newApp builds the application graph with the --db flag taking priority
// over configuration.
func newApp(cmd *cobra.Command) (*app.App, error) {
	cfg := config.Load()
	if p, _ := cmd.Flags().GetString("db"); p != "" {
		if err := store.EnsureDir(p); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
		cfg.DBPath = p
	}

	a, err := app.New(cfg)
	if err != nil {
		return nil, err
	}
	a.Start(cmd.Context())
	return a, nil
}
