package cmd

import (
	"github.com/spf13/cobra"

	"github.com/hugo-lorenzo-mato/pinlog/internal/controller"
	"github.com/hugo-lorenzo-mato/pinlog/internal/tui"
)

var editCmd = &cobra.Command{
	Use:   "edit <workout-id>",
	Short: "Change the numbers of a workout",
	Long: `Change the distance, duration, cadence or elevation gain of a workout.
Fields that are not given keep their current value. The type of a workout
cannot change.

Without field flags on an interactive terminal the form opens prefilled.`,
	Args: cobra.ExactArgs(1),
	RunE: runEdit,
}

var editFields fieldFlags

func init() {
	rootCmd.AddCommand(editCmd)
	editFields.register(editCmd)
}

func runEdit(cmd *cobra.Command, args []string) error {
	ctx := commandContext(cmd)
	return withApp(ctx, func(a *app) error {
		form, err := a.ctl.BeginEdit(args[0])
		if err != nil {
			return err
		}

		values := form.Values()
		if !editFields.changed(cmd) && stdinIsTerminal() {
			return submitWithForm(cmd, a, tui.FormOptions{
				Title:       "Edit " + form.WorkoutID,
				Values:      values,
				LockVariant: true,
			})
		}

		editFields.apply(cmd, values)
		in, err := controller.ParseInput(values)
		if err != nil {
			a.ctl.Cancel()
			return err
		}
		w, err := a.ctl.Submit(ctx, in)
		if err != nil {
			return err
		}
		printWorkout(cmd.OutOrStdout(), w)
		return nil
	})
}
