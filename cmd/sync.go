package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Show the sync outbox and flush it",
	RunE: func(cmd *cobra.Command, args []string) error {
		flush, _ := cmd.Flags().GetBool("flush")

		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		if flush {
			a.Outbox.Flush(cmd.Context())
		}

		items := a.Outbox.Items()
		fmt.Printf("Outbox: %d item(s)\n", len(items))
		for _, it := range items {
			fmt.Printf("  %-10s  %s  retries %d\n", it.Type, it.CreatedAt, it.Retries)
		}
		return nil
	},
}

func init() {
	syncCmd.Flags().Bool("flush", false, "Attempt delivery before listing")
}
