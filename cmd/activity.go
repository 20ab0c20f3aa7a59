package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/prayash-yosa/Mindforge-new/internal/app"
	"github.com/prayash-yosa/Mindforge-new/internal/ui/components"
	"github.com/prayash-yosa/Mindforge-new/internal/ui/theme"
)

var activityCmd = &cobra.Command{
	Use:   "activity <activity-id>",
	Short: "Show an activity and its questions",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sid, err := studentID(cmd)
		if err != nil {
			return err
		}
		return withApp(cmd, func(ctx context.Context, a *app.App) error {
			d, err := a.Assessment.GetActivity(ctx, args[0], sid)
			if err != nil {
				return err
			}

			fmt.Println(theme.Title.Render(d.Title))
			fmt.Printf("%s %s   %s %s   %s %d/%d\n",
				theme.Label.Render("Type:"), d.Type,
				theme.Label.Render("Status:"), d.Status,
				theme.Label.Render("Answered:"), d.AnsweredCount, len(d.Questions))
			if d.DueAt != nil {
				fmt.Printf("%s %s\n", theme.Label.Render("Due:"), d.DueAt.Local().Format("2006-01-02"))
			}
			if d.EstimatedMinutes != nil {
				fmt.Printf("%s ~%d min\n", theme.Label.Render("Estimated:"), *d.EstimatedMinutes)
			}
			if s := d.Syllabus; s != nil {
				fmt.Printf("%s %s / %s / %s\n", theme.Label.Render("Topic:"), s.Subject, s.Chapter, s.Topic)
			}
			fmt.Println()

			for i, q := range d.Questions {
				mark := " "
				if q.Answered {
					mark = theme.Correct.Render("✓")
				}
				fmt.Printf("%s %d. [%s] %s\n", mark, i+1, q.ID, q.Content)
				for j, opt := range q.Options {
					fmt.Printf("      %c) %s\n", 'a'+j, opt)
				}
			}
			return nil
		})
	},
}

var submitCmd = &cobra.Command{
	Use:   "submit <activity-id> <question-id> <answer...>",
	Short: "Submit an answer to a question",
	Args:  cobra.MinimumNArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		sid, err := studentID(cmd)
		if err != nil {
			return err
		}
		answer := strings.Join(args[2:], " ")
		return withApp(cmd, func(ctx context.Context, a *app.App) error {
			r, err := a.Assessment.SubmitAnswer(ctx, args[0], args[1], answer, sid, levelFlag(cmd))
			if err != nil {
				return err
			}

			fmt.Printf("%s %s\n", theme.Label.Render("Result:"), components.Verdict(r.IsCorrect))
			if r.Score != nil {
				fmt.Printf("%s %.0f\n", theme.Label.Render("Score:"), *r.Score)
			}
			if r.Feedback != "" {
				fmt.Println()
				fmt.Println(theme.Card.Render(theme.Body.Render(r.Feedback)))
			}
			fmt.Printf("%s %s\n", theme.Label.Render("Feedback level:"), components.Ladder(r.FeedbackLevel))
			switch {
			case r.IsComplete:
				fmt.Println(theme.Correct.Render("Activity complete."), theme.Hint.Render("Run `mindforge result "+args[0]+"` for your score."))
			case r.NextQuestionID != "":
				fmt.Printf("%s %s\n", theme.Label.Render("Next question:"), r.NextQuestionID)
			}
			return nil
		})
	},
}

var feedbackCmd = &cobra.Command{
	Use:   "feedback <activity-id> <question-id>",
	Short: "Reveal the next level of feedback for a question",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		sid, err := studentID(cmd)
		if err != nil {
			return err
		}
		return withApp(cmd, func(ctx context.Context, a *app.App) error {
			r, err := a.Feedback.GetFeedback(ctx, args[0], args[1], sid, levelFlag(cmd))
			if err != nil {
				return err
			}

			fmt.Println(components.Ladder(r.Level))
			fmt.Println(theme.Card.Render(theme.Body.Render(r.Content)))
			if !r.FromAI {
				fmt.Println(theme.Hint.Render("AI unavailable, showing general guidance."))
			}
			if r.NextLevel != nil {
				fmt.Println(theme.Hint.Render(fmt.Sprintf("Ask again for the %s.", *r.NextLevel)))
			}
			return nil
		})
	},
}

var pauseCmd = &cobra.Command{
	Use:   "pause <activity-id>",
	Short: "Pause an activity",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sid, err := studentID(cmd)
		if err != nil {
			return err
		}
		return withApp(cmd, func(ctx context.Context, a *app.App) error {
			if err := a.Assessment.PauseActivity(ctx, args[0], sid); err != nil {
				return err
			}
			fmt.Println("Paused", args[0])
			return nil
		})
	},
}

var resultCmd = &cobra.Command{
	Use:   "result <activity-id>",
	Short: "Show the score and suggested next steps for an activity",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sid, err := studentID(cmd)
		if err != nil {
			return err
		}
		return withApp(cmd, func(ctx context.Context, a *app.App) error {
			r, err := a.Assessment.GetResult(ctx, args[0], sid)
			if err != nil {
				return err
			}

			fmt.Println(theme.Title.Render(r.Title))
			fmt.Printf("%s %s   %s %d/%d   %s %d\n",
				theme.Label.Render("Status:"), r.Status,
				theme.Label.Render("Answered:"), r.AnsweredQuestions, r.TotalQuestions,
				theme.Label.Render("Correct:"), r.CorrectAnswers)
			fmt.Println(components.ScoreBar(r.Score, 40))

			if len(r.Breakdown) > 0 {
				fmt.Println()
				for _, q := range r.Breakdown {
					fmt.Printf("  %-24s %s\n", q.QuestionID, components.Verdict(q.IsCorrect))
				}
			}
			if len(r.SuggestedNext) > 0 {
				fmt.Println()
				fmt.Println(theme.Label.Render("Up next"))
				for _, c := range r.SuggestedNext {
					fmt.Println(theme.Card.Render(theme.Title.Render(c.Title) + "\n" + theme.Hint.Render(c.Reason)))
				}
			}
			return nil
		})
	},
}

func init() {
	submitCmd.Flags().StringP("level", "l", "", "Feedback level to start from (hint, approach, concept, solution)")
	feedbackCmd.Flags().StringP("level", "l", "", "Jump to a feedback level (hint, approach, concept, solution)")
}
