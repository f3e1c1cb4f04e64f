package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/thayduy/lythuyet/internal/crm"
)

var linkCmd = &cobra.Command{
	Use:   "link <token>",
	Short: "Link this device to a CRM student account",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name, _ := cmd.Flags().GetString("name")
		crmURL, _ := cmd.Flags().GetString("crm-url")

		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.Identity.SetLink(crm.Link{
			Token:       args[0],
			CRMURL:      crmURL,
			StudentName: name,
		}); err != nil {
			return fmt.Errorf("store link: %w", err)
		}

		if id := a.Identity.StudentID(); id != "" {
			fmt.Println("Linked as student", id)
		} else {
			fmt.Println("Link stored, but the token carries no valid student identity")
		}
		return nil
	},
}

var unlinkCmd = &cobra.Command{
	Use:   "unlink",
	Short: "Remove the CRM link",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.Identity.Unlink(); err != nil {
			return fmt.Errorf("unlink: %w", err)
		}
		fmt.Println("Unlinked. Local study data is untouched.")
		return nil
	},
}

func init() {
	linkCmd.Flags().String("name", "", "Student display name")
	linkCmd.Flags().String("crm-url", "", "CRM base URL")
}
