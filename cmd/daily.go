package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var dailyCmd = &cobra.Command{
	Use:   "daily",
	Short: "Show today's study session",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		ids := a.BuildDailySession()
		if len(ids) == 0 {
			fmt.Println("Nothing to study yet. Configure LYTHUYET_QUESTIONS or answer some questions first.")
			return nil
		}

		session, _ := a.Daily.TodaySession()
		done := map[string]bool{}
		for _, id := range session.CompletedIDs {
			done[id] = true
		}

		fmt.Printf("Session for %s (%d/%d done):\n", session.DateKey, len(session.CompletedIDs), len(ids))
		for _, id := range ids {
			mark := " "
			if done[id] {
				mark = "x"
			}
			fmt.Printf("  [%s] %s\n", mark, id)
		}
		if session.Completed {
			fmt.Println("Completed. Hẹn gặp lại ngày mai!")
		}
		return nil
	},
}
