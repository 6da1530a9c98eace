package cmd

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/abhisek/studybuddy/internal/quiz"
	"github.com/abhisek/studybuddy/internal/ui/theme"
	"github.com/spf13/cobra"
)

var quizCmd = &cobra.Command{
	Use:   "quiz",
	Short: "Generate, take and grade quizzes",
}

var quizGenerateCmd = &cobra.Command{
	Use:   "generate <file|topic>",
	Short: "Generate a quiz from a notes file or a topic",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		n, _ := cmd.Flags().GetInt("num")
		d, _ := cmd.Flags().GetString("difficulty")
		output, _ := cmd.Flags().GetString("output")

		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		q, err := a.GenerateQuiz(cmd.Context(), strings.Join(args, " "), n, quiz.Difficulty(d))
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if output == "" {
			fmt.Fprintln(out, quiz.Format(q))
			return nil
		}

		data, err := json.MarshalIndent(q, "", "  ")
		if err != nil {
			return fmt.Errorf("encode quiz: %w", err)
		}
		if err := os.WriteFile(output, data, 0o644); err != nil {
			return fmt.Errorf("write quiz: %w", err)
		}
		fmt.Fprintf(out, "Saved %d questions on %q to %s\n", len(q.Questions), q.Topic, output)
		return nil
	},
}

var quizTakeCmd = &cobra.Command{
	Use:   "take <file|topic>",
	Short: "Generate a quiz and answer it interactively",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		n, _ := cmd.Flags().GetInt("num")
		d, _ := cmd.Flags().GetString("difficulty")

		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		ctx := cmd.Context()
		q, err := a.GenerateQuiz(ctx, strings.Join(args, " "), n, quiz.Difficulty(d))
		if err != nil {
			return err
		}

		answers, err := askQuestions(cmd.InOrStdin(), cmd.OutOrStdout(), q)
		if err != nil {
			return err
		}
		renderResult(cmd.OutOrStdout(), a.Grade(ctx, q, answers))
		return nil
	},
}

var quizGradeCmd = &cobra.Command{
	Use:     "grade <quiz.json>",
	Short:   "Grade answers against a saved quiz",
	Example: `  studybuddy quiz grade quiz.json -a 1=B -a 2=A,C`,
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		raw, _ := cmd.Flags().GetStringArray("answer")
		answers, err := parseAnswerFlags(raw)
		if err != nil {
			return err
		}

		data, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("read quiz: %w", err)
		}
		var q quiz.Quiz
		if err := json.Unmarshal(data, &q); err != nil {
			return fmt.Errorf("decode quiz %s: %w", args[0], err)
		}

		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		renderResult(cmd.OutOrStdout(), a.Grade(cmd.Context(), &q, answers))
		return nil
	},
}

// parseAnswerFlags turns "2=A,C" pairs with one-based question numbers into
// Answers.
func parseAnswerFlags(raw []string) (quiz.Answers, error) {
	answers := quiz.Answers{}
	for _, pair := range raw {
		num, letters, ok := strings.Cut(pair, "=")
		if !ok {
			return nil, fmt.Errorf("invalid answer %q: want <question>=<letters>", pair)
		}
		n, err := strconv.Atoi(strings.TrimSpace(num))
		if err != nil || n < 1 {
			return nil, fmt.Errorf("invalid question number in %q", pair)
		}
		answers[n-1] = letters
	}
	return answers, nil
}

// askQuestions prints each question and reads one answer line per
// question. EOF leaves the remaining questions unanswered.
func askQuestions(in io.Reader, out io.Writer, q *quiz.Quiz) (quiz.Answers, error) {
	scanner := bufio.NewScanner(in)
	answers := quiz.Answers{}

	fmt.Fprintf(out, "%s  %s\n", theme.Title.Render(q.Topic), theme.Hint.Render(strings.ToUpper(string(q.Difficulty))))
	for i, question := range q.Questions {
		fmt.Fprintf(out, "\n%s %s\n", theme.Label.Render(fmt.Sprintf("Q%d.", i+1)), question.Question)
		for _, letter := range quiz.OptionLetters {
			fmt.Fprintf(out, "   %s) %s\n", letter, question.Options[letter])
		}
		prompt := "Your answer (one letter): "
		if question.AnswerType == quiz.Multiple {
			prompt = "Your answers (select ALL that apply, e.g. A,C): "
		}
		fmt.Fprint(out, theme.Hint.Render(prompt))

		if !scanner.Scan() {
			fmt.Fprintln(out)
			break
		}
		answers[i] = scanner.Text()
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read answers: %w", err)
	}
	return answers, nil
}

func renderResult(out io.Writer, res *quiz.Result) {
	fmt.Fprintln(out)
	for i, fb := range res.Feedback {
		var status string
		switch fb.Status {
		case quiz.StatusCorrect:
			status = theme.Correct.Render("✓ correct")
		case quiz.StatusPartial:
			status = theme.Partial.Render("~ partially correct")
		default:
			status = theme.Incorrect.Render("✗ incorrect")
		}
		fmt.Fprintf(out, "Q%d. %s  %s\n", i+1, fb.Question, status)
		fmt.Fprintf(out, "    %s\n", theme.Hint.Render(fb.Explanation))
	}

	summary := fmt.Sprintf("Score: %d/%d (%.0f%%)   Adjusted: %.2f/%d (%.0f%%)\n%s",
		res.Score, res.Total, res.Accuracy,
		res.AdjustedScore, res.Total, res.AdjustedAccuracy,
		theme.Bar(res.AdjustedAccuracy, 30))
	fmt.Fprintln(out)
	fmt.Fprintln(out, theme.Card.Render(summary))
}

func init() {
	for _, c := range []*cobra.Command{quizGenerateCmd, quizTakeCmd} {
		c.Flags().IntP("num", "n", quiz.DefaultNumQuestions, "Number of questions (at most 50)")
		c.Flags().StringP("difficulty", "d", string(quiz.Medium), "Difficulty: easy, medium, hard or difficult")
	}
	quizGenerateCmd.Flags().StringP("output", "o", "", "Write the quiz as JSON to this file")
	quizGradeCmd.Flags().StringArrayP("answer", "a", nil, "Answer as <question>=<letters>, e.g. 2=A,C (repeatable)")

	quizCmd.AddCommand(quizGenerateCmd)
	quizCmd.AddCommand(quizTakeCmd)
	quizCmd.AddCommand(quizGradeCmd)
}
