package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"studynotes-dashboard/internal/models"
	"studynotes-dashboard/internal/poller"
	"studynotes-dashboard/internal/services"
)

func newAidsCommand(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "aids",
		Short: "Flashcards and quizzes for a note",
	}

	var wait bool
	generate := &cobra.Command{
		Use:   "generate <note-id>",
		Short: "Generate flashcards and quizzes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := app.signedIn()
			if err != nil {
				return err
			}

			svc := services.NewLearningAidService(c)
			job, err := svc.Generate(cmd.Context(), args[0])
			if err != nil {
				return describe(err)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Learning aids for %s: %s\n", job.NoteID, job.Status)

			if !wait {
				return nil
			}
			aids, err := svc.WaitForAids(cmd.Context(), args[0], app.AidOptions)
			switch {
			case errors.Is(err, poller.ErrTimeout):
				return fmt.Errorf("learning aids are still generating, check again later")
			case err != nil:
				return describe(err)
			case aids.Failed():
				return fmt.Errorf("learning aid generation failed")
			}
			fmt.Fprintf(out, "%d flashcards, %d quizzes ready\n", len(aids.Flashcards), len(aids.Quizzes))
			return nil
		},
	}
	generate.Flags().BoolVar(&wait, "wait", false, "wait until flashcards and quizzes exist")

	cmd.AddCommand(generate)
	return cmd
}

func newFlashcardsCommand(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "flashcards",
		Short: "Review flashcards",
	}

	var (
		ease float64
		reps int
	)
	rate := &cobra.Command{
		Use:   "rate <card-id> <easy|medium|hard>",
		Short: "Record how well you recalled a card",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := app.signedIn()
			if err != nil {
				return err
			}

			card := models.Flashcard{ID: args[0]}
			if cmd.Flags().Changed("ease") || cmd.Flags().Changed("reps") {
				card.Progress = &models.FlashcardProgress{EaseFactor: ease, Repetitions: reps}
			}

			progress, err := services.NewLearningAidService(c).RateFlashcard(cmd.Context(), card, args[1])
			if err != nil {
				return describe(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "ease %.2f, %d repetitions\n", progress.EaseFactor, progress.Repetitions)
			return nil
		},
	}
	rate.Flags().Float64Var(&ease, "ease", 0, "current ease factor of the card")
	rate.Flags().IntVar(&reps, "reps", 0, "current repetition count of the card")

	cmd.AddCommand(rate)
	return cmd
}
