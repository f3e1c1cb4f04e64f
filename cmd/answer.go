package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var answerCmd = &cobra.Command{
	Use:   "answer <question-id> <correct|wrong>",
	Short: "Record a practiced answer",
	Long: `Record one self-graded answer. Updates progress, the review schedule,
the streak and today's session in a single step.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		questionID := args[0]

		var correct bool
		switch args[1] {
		case "correct":
			correct = true
		case "wrong":
			correct = false
		default:
			return fmt.Errorf("verdict must be correct or wrong, got %q", args[1])
		}

		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		topicID, _ := cmd.Flags().GetString("topic")
		if topicID == "" {
			if a.Catalog == nil {
				return fmt.Errorf("no question dataset configured; pass --topic")
			}
			q, ok := a.Catalog.Get(questionID)
			if !ok {
				return fmt.Errorf("unknown question %q", questionID)
			}
			topicID = q.TopicID
		}

		a.RecordAnswer(questionID, topicID, correct)

		fmt.Println("Recorded", questionID, args[1])
		if a.Daily.TodayComplete() {
			fmt.Println("Daily session completed. Hẹn gặp lại ngày mai!")
		}
		return nil
	},
}

func init() {
	answerCmd.Flags().String("topic", "", "Topic ID (resolved from the dataset when omitted)")
}
