package cmd

import (
	"fmt"

	"github.com/abhisek/studybuddy/internal/chat"
	"github.com/abhisek/studybuddy/internal/ui/theme"
	"github.com/spf13/cobra"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show stored chat history",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		messages := a.ChatHistory(cmd.Context())
		out := cmd.OutOrStdout()
		if len(messages) == 0 {
			fmt.Fprintln(out, "No chat history yet.")
			return nil
		}
		if limit > 0 && len(messages) > limit {
			messages = messages[len(messages)-limit:]
		}

		for _, m := range messages {
			role := theme.Label.Render("You")
			if m.Role == chat.RoleBot {
				role = theme.Bot.Render("Bot")
			}
			fmt.Fprintf(out, "%s  %s: %s\n",
				theme.Hint.Render(m.Timestamp.Local().Format("2006-01-02 15:04")), role, m.Message)
		}
		return nil
	},
}

func init() {
	historyCmd.Flags().IntP("limit", "n", 0, "Show only the latest N messages")
}
