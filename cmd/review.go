package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/thayduy/lythuyet/internal/topic"
)

var reviewCmd = &cobra.Command{
	Use:   "review",
	Short: "List questions due for review",
	RunE: func(cmd *cobra.Command, args []string) error {
		all, _ := cmd.Flags().GetBool("all")

		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		items := a.Review.DueItems()
		if all {
			items = a.Review.AllItems()
		}
		if len(items) == 0 {
			fmt.Println("Nothing due. Chúc mừng!")
			return nil
		}

		fmt.Printf("%-12s  %-28s  %-12s  %s\n", "Question", "Topic", "Due", "Interval")
		for _, it := range items {
			fmt.Printf("%-12s  %-28s  %-12s  %dd (ease %.2f)\n",
				it.QuestionID, topic.Name(it.TopicID), it.DueAt, it.IntervalDays, it.EaseFactor)
		}
		return nil
	},
}

func init() {
	reviewCmd.Flags().Bool("all", false, "Show every scheduled question, not just due ones")
}
