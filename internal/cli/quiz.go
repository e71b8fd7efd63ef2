package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ak91singh/Rizz-academy/internal/model"
	"github.com/ak91singh/Rizz-academy/internal/quiz"
)

func NewQuizCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "quiz",
		Short: "Inspect the archetype quiz offline",
	}
	cmd.AddCommand(newQuizClassifyCommand())
	return cmd
}

func newQuizClassifyCommand() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:     "classify <option>...",
		Short:   "Classify a list of answer options, one per question in order",
		Example: "  rizz quiz classify A B B C D A B B C B",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			answers := make([]model.QuizAnswer, len(args))
			for i, opt := range args {
				answers[i] = model.QuizAnswer{QuestionID: i + 1, Answer: opt}
			}
			c := quiz.Classify(answers)
			out := cmd.OutOrStdout()

			if asJSON {
				counts := make(map[string]int, len(c.Counts))
				for a, n := range c.Counts {
					counts[string(a)] = n
				}
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(map[string]any{
					"archetype": c.Archetype,
					"title":     quiz.BundleFor(c.Archetype).Title,
					"counts":    counts,
				})
			}

			fmt.Fprintf(out, "%s (%s)\n", c.Archetype, quiz.BundleFor(c.Archetype).Title)
			for _, a := range quiz.Archetypes() {
				fmt.Fprintf(out, "  %-10s %d\n", a, c.Counts[a])
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}
