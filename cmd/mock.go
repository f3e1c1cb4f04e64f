package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/thayduy/lythuyet/internal/exam"
	"github.com/thayduy/lythuyet/internal/question"
)

var mockCmd = &cobra.Command{
	Use:   "mock",
	Short: "Mock exam attempts",
}

var mockStartCmd = &cobra.Command{
	Use:   "start",
	Short: "Start a mock exam attempt",
	RunE: func(cmd *cobra.Command, args []string) error {
		examType, _ := cmd.Flags().GetString("type")
		count, _ := cmd.Flags().GetInt("count")
		minutes, _ := cmd.Flags().GetInt("minutes")
		threshold, _ := cmd.Flags().GetInt("threshold")

		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		id := a.Exam.CreateAttempt(examType, count, minutes, threshold)
		fmt.Printf("Attempt %s: %d questions, %d minutes, pass at %d correct.\n",
			id, count, minutes, threshold)

		if a.Catalog == nil {
			fmt.Println("No question dataset configured; bring your own question sheet.")
			return nil
		}
		page := a.Catalog.GetQuestions(question.Query{Mode: question.ModeExam, PageSize: count})
		for i, q := range page.Questions {
			fmt.Printf("%2d. %s  %s\n", i+1, q.ID, q.Text)
		}
		fmt.Printf("\nFinish with: lythuyet mock finish %s <question-id>=<answer-id> ...\n", id)
		return nil
	},
}

var mockFinishCmd = &cobra.Command{
	Use:   "finish <attempt-id> <question-id>=<answer-id> ...",
	Short: "Grade and finish a mock exam attempt",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		if a.Catalog == nil {
			return fmt.Errorf("grading needs a question dataset; set LYTHUYET_QUESTIONS")
		}

		var responses []exam.Response
		for _, arg := range args[1:] {
			questionID, answerID, ok := strings.Cut(arg, "=")
			if !ok {
				return fmt.Errorf("response %q is not <question-id>=<answer-id>", arg)
			}
			q, found := a.Catalog.Get(questionID)
			if !found {
				return fmt.Errorf("unknown question %q", questionID)
			}
			correct := false
			for _, ans := range q.Answers {
				if ans.ID == answerID {
					correct = ans.Correct
				}
			}
			responses = append(responses, exam.Response{
				QuestionID: questionID,
				AnswerID:   answerID,
				TopicID:    q.TopicID,
				Correct:    correct,
			})
		}

		result, ok := a.FinishMock(args[0], responses)
		if !ok {
			return fmt.Errorf("unknown attempt %q", args[0])
		}

		verdict := "FAIL"
		if result.Passed {
			verdict = "PASS"
		}
		fmt.Printf("%d/%d correct (%d%%) — %s\n", result.Correct, result.Total, result.ScorePercent, verdict)
		for _, tb := range result.TopicBreakdown {
			fmt.Printf("  %-28s %d/%d (%d%%)\n", tb.TopicName, tb.Correct, tb.Total, tb.Accuracy)
		}
		return nil
	},
}

var mockListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent mock attempts",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		attempts := a.Exam.Attempts()
		if len(attempts) == 0 {
			fmt.Println("No mock attempts yet.")
			return nil
		}

		for _, att := range attempts {
			started := time.UnixMilli(att.StartedAt).Format("2006-01-02 15:04")
			if att.Result == nil {
				fmt.Printf("%s  %s  (unfinished)\n", started, att.ID)
				continue
			}
			verdict := "FAIL"
			if att.Result.Passed {
				verdict = "PASS"
			}
			fmt.Printf("%s  %s  %d/%d (%d%%)  %s\n",
				started, att.ID, att.Result.Correct, att.Result.Total, att.Result.ScorePercent, verdict)
		}
		return nil
	},
}

var mockWeakCmd = &cobra.Command{
	Use:   "weak",
	Short: "Weak topics across recent mock attempts",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		weak := a.Exam.WeakTopics()
		if len(weak) == 0 {
			fmt.Println("No weak topics in recent attempts.")
			return nil
		}
		for _, tb := range weak {
			fmt.Printf("%-28s %d/%d (%d%%)\n", tb.TopicName, tb.Correct, tb.Total, tb.Accuracy)
		}
		return nil
	},
}

func init() {
	mockStartCmd.Flags().String("type", "B", "License class")
	mockStartCmd.Flags().Int("count", 30, "Number of questions")
	mockStartCmd.Flags().Int("minutes", 20, "Time limit in minutes")
	mockStartCmd.Flags().Int("threshold", 27, "Correct answers required to pass")

	mockCmd.AddCommand(mockStartCmd)
	mockCmd.AddCommand(mockFinishCmd)
	mockCmd.AddCommand(mockListCmd)
	mockCmd.AddCommand(mockWeakCmd)
}
