package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/prayash-yosa/Mindforge-new/internal/app"
	"github.com/prayash-yosa/Mindforge-new/internal/domain"
	"github.com/prayash-yosa/Mindforge-new/internal/doubt"
	"github.com/prayash-yosa/Mindforge-new/internal/ui/theme"
)

var doubtCmd = &cobra.Command{
	Use:   "doubt",
	Short: "Ask the tutor questions outside an activity",
}

var doubtAskCmd = &cobra.Command{
	Use:   "ask <message...>",
	Short: "Ask a doubt, starting a new thread unless --thread is given",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sid, err := studentID(cmd)
		if err != nil {
			return err
		}
		f := cmd.Flags()
		in := doubt.CreateInput{Message: strings.Join(args, " ")}
		in.ThreadID, _ = f.GetString("thread")
		in.Syllabus.Class, _ = f.GetString("class")
		in.Syllabus.Subject, _ = f.GetString("subject")
		in.Syllabus.Chapter, _ = f.GetString("chapter")
		in.Syllabus.Topic, _ = f.GetString("topic")

		return withApp(cmd, func(ctx context.Context, a *app.App) error {
			t, err := a.Doubts.CreateMessage(ctx, sid, in)
			if err != nil {
				return err
			}
			fmt.Printf("%s %s\n", theme.Label.Render("Thread:"), t.ID)
			if n := len(t.Messages); n > 0 {
				printMessage(t.Messages[n-1])
			}
			return nil
		})
	},
}

var doubtListCmd = &cobra.Command{
	Use:   "list",
	Short: "List doubt threads, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		sid, err := studentID(cmd)
		if err != nil {
			return err
		}
		return withApp(cmd, func(ctx context.Context, a *app.App) error {
			threads, err := a.Doubts.ListThreads(ctx, sid)
			if err != nil {
				return err
			}
			if len(threads) == 0 {
				fmt.Println("No doubts yet.")
				return nil
			}
			for _, t := range threads {
				fmt.Printf("%-36s  %-16s  %s  %s\n",
					t.ID,
					t.UpdatedAt.Local().Format("2006-01-02 15:04"),
					truncate(t.Syllabus.Subject, 12),
					t.Title)
			}
			return nil
		})
	},
}

var doubtShowCmd = &cobra.Command{
	Use:   "show <thread-id>",
	Short: "Show a doubt thread",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sid, err := studentID(cmd)
		if err != nil {
			return err
		}
		return withApp(cmd, func(ctx context.Context, a *app.App) error {
			t, err := a.Doubts.GetThread(ctx, args[0], sid)
			if err != nil {
				return err
			}
			fmt.Println(theme.Title.Render(t.Title))
			for _, m := range t.Messages {
				printMessage(m)
			}
			return nil
		})
	},
}

func printMessage(m domain.DoubtMessage) {
	if m.Role == domain.RoleStudent {
		fmt.Printf("%s %s\n", theme.Label.Render("you:"), m.Content)
		return
	}
	fmt.Println(theme.Card.Render(theme.Body.Render(m.Content)))
}

func init() {
	doubtAskCmd.Flags().StringP("thread", "t", "", "Continue an existing thread")
	doubtAskCmd.Flags().String("class", "", "Class for a new thread")
	doubtAskCmd.Flags().String("subject", "", "Subject for a new thread")
	doubtAskCmd.Flags().String("chapter", "", "Chapter for a new thread")
	doubtAskCmd.Flags().String("topic", "", "Topic for a new thread")

	doubtCmd.AddCommand(doubtAskCmd)
	doubtCmd.AddCommand(doubtListCmd)
	doubtCmd.AddCommand(doubtShowCmd)
}
