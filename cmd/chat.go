package cmd

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/abhisek/studybuddy/internal/app"
	"github.com/abhisek/studybuddy/internal/chat"
	"github.com/abhisek/studybuddy/internal/ui/theme"
	"github.com/spf13/cobra"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Chat with your study assistant",
	Long:  "Start a chat that answers from your stored notes. Type 'exit' or press Ctrl+D to leave.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		return runChat(cmd, a, cmd.InOrStdin(), cmd.OutOrStdout())
	},
}

func runChat(cmd *cobra.Command, a *app.App, in io.Reader, out io.Writer) error {
	ctx := cmd.Context()
	scanner := bufio.NewScanner(in)
	var session *chat.Session

	fmt.Fprintln(out, theme.Title.Render("StudyBuddy chat"))
	fmt.Fprintln(out, theme.Hint.Render("Ask about your notes. Type 'exit' to leave."))

	for {
		fmt.Fprint(out, "\n", theme.Label.Render("You: "))
		if !scanner.Scan() {
			fmt.Fprintln(out)
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "exit" || line == "quit" {
			break
		}

		if session == nil {
			session = chat.NewSession(line)
		} else {
			session.Append(chat.RoleUser, line)
		}

		fmt.Fprint(out, theme.Label.Render("Bot: "))
		for f := range a.Ask(ctx, session) {
			if f.Err {
				fmt.Fprint(out, theme.Incorrect.Render(f.Text))
				continue
			}
			fmt.Fprint(out, theme.Bot.Render(f.Text))
		}
		fmt.Fprintln(out)

		if err := ctx.Err(); err != nil {
			return err
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read input: %w", err)
	}
	if session != nil {
		fmt.Fprintln(out, theme.Hint.Render(fmt.Sprintf("Saved %d messages (%s)", len(session.Messages), session.Topic)))
	}
	return nil
}
