package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/prayash-yosa/Mindforge-new/internal/app"
	"github.com/prayash-yosa/Mindforge-new/internal/ui/components"
	"github.com/prayash-yosa/Mindforge-new/internal/ui/theme"
)

var todayCmd = &cobra.Command{
	Use:   "today",
	Short: "Show today's activities",
	RunE: func(cmd *cobra.Command, args []string) error {
		sid, err := studentID(cmd)
		if err != nil {
			return err
		}
		return withApp(cmd, func(ctx context.Context, a *app.App) error {
			p, err := a.Students.TodayPlan(ctx, sid)
			if err != nil {
				return err
			}

			fmt.Println(theme.Title.Render("Today"))
			fmt.Println(components.NewProgressBar(
				fmt.Sprintf("%d/%d done", p.CompletedToday, p.TotalToday),
				float64(p.ProgressPercent)/100, true, 40).View())
			if len(p.Tasks) == 0 {
				fmt.Println(theme.Hint.Render("Nothing planned."))
				return nil
			}
			fmt.Println()
			for _, t := range p.Tasks {
				line := fmt.Sprintf("%-24s  %-10s  %-11s  %s", truncate(t.ID, 24), t.Type, t.Status, t.Title)
				if t.Syllabus != nil {
					line += theme.Hint.Render("  " + t.Syllabus.Subject + " / " + t.Syllabus.Topic)
				}
				fmt.Println(line)
			}
			return nil
		})
	},
}

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Show progress by activity type",
	RunE: func(cmd *cobra.Command, args []string) error {
		sid, err := studentID(cmd)
		if err != nil {
			return err
		}
		return withApp(cmd, func(ctx context.Context, a *app.App) error {
			p, err := a.Students.GetProfile(ctx, sid)
			if err != nil {
				return err
			}

			fmt.Printf("%s %s   %s %s   %s %d\n",
				theme.Label.Render("Student:"), p.Student.ID,
				theme.Label.Render("Class:"), p.Student.Class,
				theme.Label.Render("Completed:"), p.TotalActivitiesCompleted)
			fmt.Println()
			for _, tp := range p.Overview {
				fmt.Printf("%-12s %3d/%-3d  %s\n", tp.Type, tp.Completed, tp.Total, components.ScoreBar(tp.AverageScore, 30))
			}
			return nil
		})
	},
}
