package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var bookmarkCmd = &cobra.Command{
	Use:   "bookmark",
	Short: "Saved questions",
}

var bookmarkToggleCmd = &cobra.Command{
	Use:   "toggle <question-id>",
	Short: "Bookmark a question, or remove an existing bookmark",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		if a.Bookmarks.Toggle(args[0]) {
			fmt.Println("Bookmarked", args[0])
		} else {
			fmt.Println("Removed bookmark", args[0])
		}
		return nil
	},
}

var bookmarkListCmd = &cobra.Command{
	Use:   "list",
	Short: "List bookmarked questions",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		ids := a.Bookmarks.All()
		if len(ids) == 0 {
			fmt.Println("No bookmarks yet.")
			return nil
		}
		for _, id := range ids {
			fmt.Println(id)
		}
		return nil
	},
}

func init() {
	bookmarkCmd.AddCommand(bookmarkToggleCmd)
	bookmarkCmd.AddCommand(bookmarkListCmd)
}
