package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/prayash-yosa/Mindforge-new/internal/seed"
)

var seedCmd = &cobra.Command{
	Use:   "seed <catalog.yaml>",
	Short: "Import students, syllabus and activities from a YAML catalog",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer f.Close()

		c, err := seed.Load(f)
		if err != nil {
			return fmt.Errorf("%s: %w", args[0], err)
		}

		s, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		stats, err := seed.Apply(cmd.Context(), s, c)
		if err != nil {
			return err
		}
		fmt.Printf("Imported %d students, %d syllabus entries, %d activities, %d questions.\n",
			stats.Students, stats.Syllabus, stats.Activities, stats.Questions)
		return nil
	},
}
