package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Reset all learning data",
	RunE: func(cmd *cobra.Command, args []string) error {
		yes, _ := cmd.Flags().GetBool("yes")
		if !yes {
			return fmt.Errorf("this wipes all progress; re-run with --yes to confirm")
		}

		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		a.Progress.Reset()
		a.Review.Reset()
		a.Streak.Reset()
		a.Daily.Reset()
		a.Exam.Reset()
		a.Bookmarks.Reset()

		fmt.Println("All learning data cleared. The CRM link is kept; use unlink to remove it.")
		return nil
	},
}

func init() {
	resetCmd.Flags().Bool("yes", false, "Confirm the wipe")
}
