package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/thayduy/lythuyet/internal/topic"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show learning statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		overall := a.Progress.OverallStats()
		st := a.Streak.Streak()

		fmt.Printf("Answered: %d/%d  correct %d, wrong %d (accuracy %d%%)\n",
			overall.Answered, overall.Total, overall.Correct, overall.Wrong, a.Progress.AccuracyRate())
		fmt.Printf("Streak: %d days (longest %d)\n", st.CurrentStreak, st.LongestStreak)
		fmt.Printf("Due for review: %d\n\n", a.Review.DueCount())

		for _, id := range topic.IDs() {
			ts := a.Progress.TopicStats(id)
			fmt.Printf("%-28s %4d/%-4d correct %d\n", topic.Name(id), ts.Answered, ts.Total, ts.Correct)
		}
		return nil
	},
}
