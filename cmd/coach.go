package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var coachCmd = &cobra.Command{
	Use:   "coach",
	Short: "Generate an AI study diagnosis",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		if a.Coach == nil {
			return fmt.Errorf("no AI provider configured, set LYTHUYET_OPENAI_API_KEY")
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), 60*time.Second)
		defer cancel()

		diag, err := a.Coach.Diagnose(ctx, a.StudyState())
		if err != nil {
			return fmt.Errorf("diagnose: %w", err)
		}

		fmt.Printf("Khả năng đậu: %d%%\n\n", diag.PassProbability)
		if len(diag.Strengths) > 0 {
			fmt.Println("Điểm mạnh:")
			for _, s := range diag.Strengths {
				fmt.Println("  +", s)
			}
		}
		if len(diag.Weaknesses) > 0 {
			fmt.Println("Điểm yếu:")
			for _, w := range diag.Weaknesses {
				fmt.Println("  -", w)
			}
		}
		fmt.Println("Kế hoạch hôm nay:")
		for i, p := range diag.TodayPlan {
			fmt.Printf("  %d. %s\n", i+1, p)
		}
		return nil
	},
}
