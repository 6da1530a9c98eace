package cmd

import (
	"fmt"

	"github.com/abhisek/studybuddy/internal/ui/theme"
	"github.com/spf13/cobra"
)

var notesCmd = &cobra.Command{
	Use:   "notes",
	Short: "Manage study notes",
}

var notesAddCmd = &cobra.Command{
	Use:   "add <file>",
	Short: "Extract a PDF, DOCX or TXT file and store it in your knowledge base",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		text, chunks, err := a.AddNotes(cmd.Context(), args[0])
		if err != nil {
			return fmt.Errorf("add notes: %w", err)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintln(out, theme.Correct.Render(fmt.Sprintf("Extracted %d characters from %s", len(text), args[0])))
		fmt.Fprintf(out, "Stored %d chunks for %s\n", chunks, a.UserID)
		return nil
	},
}

func init() {
	notesCmd.AddCommand(notesAddCmd)
}
