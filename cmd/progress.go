package cmd

import (
	"fmt"
	"strings"

	"github.com/abhisek/studybuddy/internal/ui/theme"
	"github.com/spf13/cobra"
)

var progressCmd = &cobra.Command{
	Use:   "progress",
	Short: "Show quiz progress and accuracy",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		report := a.Progress(cmd.Context())
		out := cmd.OutOrStdout()
		if report.Summary.TotalAttempts == 0 {
			fmt.Fprintln(out, "No quiz attempts recorded yet.")
			return nil
		}

		s := report.Summary
		summary := fmt.Sprintf("Attempts: %d\nAverage score: %.2f\nAverage accuracy: %.2f%%\n%s\nTopics: %s",
			s.TotalAttempts, s.AverageScore, s.AverageAccuracy,
			theme.Bar(s.AverageAccuracy, 30),
			strings.Join(s.TopicsCovered, ", "))
		fmt.Fprintln(out, theme.Title.Render("Progress for "+report.UserID))
		fmt.Fprintln(out, theme.Card.Render(summary))

		fmt.Fprintln(out)
		fmt.Fprintf(out, "%-16s  %-28s  %-10s  %7s  %8s\n", "Date", "Topic", "Difficulty", "Score", "Accuracy")
		fmt.Fprintln(out, strings.Repeat("─", 76))
		for _, r := range report.Progress {
			fmt.Fprintf(out, "%-16s  %-28s  %-10s  %7s  %7.1f%%\n",
				r.Timestamp.Local().Format("2006-01-02 15:04"),
				truncate(r.Topic, 28),
				r.Difficulty,
				fmt.Sprintf("%d/%d", r.Score, r.Total),
				r.Accuracy,
			)
		}
		return nil
	},
}
