package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"studynotes-dashboard/internal/models"
	"studynotes-dashboard/internal/services"
)

func newPlanCommand(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Study plans",
	}

	var (
		days int
		wait bool
	)
	create := &cobra.Command{
		Use:   "create <goal>",
		Short: "Generate a study plan for a goal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := app.signedIn()
			if err != nil {
				return err
			}

			svc := services.NewStudyPlanService(c)
			plan, err := svc.Create(cmd.Context(), models.CreateStudyPlanRequest{Goal: args[0], DurationDays: days})
			if err != nil {
				return describe(err)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Study plan %s: %s\n", plan.ID, plan.Status)

			if !wait {
				return nil
			}
			plan, err = svc.Wait(cmd.Context(), plan.ID, app.PlanOptions, nil)
			if err != nil {
				return describe(err)
			}
			if plan.Status == "failed" {
				return fmt.Errorf("study plan %s failed: %s", plan.ID, plan.Error)
			}
			printPlan(out, plan)
			return nil
		},
	}
	create.Flags().IntVar(&days, "days", 30, fmt.Sprintf("plan length in days (%d-%d)", services.MinPlanDays, services.MaxPlanDays))
	create.Flags().BoolVar(&wait, "wait", false, "wait until the plan is generated")

	cmd.AddCommand(create)
	return cmd
}

func printPlan(out io.Writer, plan *models.StudyPlan) {
	fmt.Fprintf(out, "%s (%d days, %d%% done)\n", plan.Goal, plan.DurationDays, plan.ProgressPercent())
	for _, m := range plan.Modules {
		mark := " "
		if m.Completed {
			mark = "x"
		}
		fmt.Fprintf(out, "  [%s] %s (%s)\n", mark, m.Title, m.Type)
	}
}
