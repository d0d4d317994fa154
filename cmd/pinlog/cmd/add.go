package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hugo-lorenzo-mato/pinlog/internal/controller"
	"github.com/hugo-lorenzo-mato/pinlog/internal/core"
	"github.com/hugo-lorenzo-mato/pinlog/internal/tui"
)

var addCmd = &cobra.Command{
	Use:   "add",
	Short: "Log a new workout",
	Long: `Log a new workout at a position.

Without field flags on an interactive terminal the workout form opens.

Examples:
  # Open the form for a workout in Lisbon
  pinlog add --lat 38.72 --lng -9.14

  # Log a run directly
  pinlog add --lat 38.72 --lng -9.14 --distance 5.2 --duration 24 --cadence 178

  # Log a ride
  pinlog add --type cycling --lat 38.72 --lng -9.14 --distance 27 --duration 95 --elevation 523`,
	RunE: runAdd,
}

var (
	addType   string
	addLat    float64
	addLng    float64
	addFields fieldFlags
)

func init() {
	rootCmd.AddCommand(addCmd)

	addCmd.Flags().StringVarP(&addType, "type", "t", string(core.VariantRunning), "workout type (running, cycling)")
	addCmd.Flags().Float64Var(&addLat, "lat", 0, "latitude of the workout")
	addCmd.Flags().Float64Var(&addLng, "lng", 0, "longitude of the workout")
	addFields.register(addCmd)
	_ = addCmd.MarkFlagRequired("lat")
	_ = addCmd.MarkFlagRequired("lng")
}

func runAdd(cmd *cobra.Command, _ []string) error {
	ctx := commandContext(cmd)
	return withApp(ctx, func(a *app) error {
		if err := a.ctl.BeginCreate(core.Position{Lat: addLat, Lng: addLng}); err != nil {
			return err
		}

		values := map[string]string{controller.FieldType: addType}
		if !addFields.changed(cmd) && stdinIsTerminal() {
			return submitWithForm(cmd, a, tui.FormOptions{Title: "New workout", Values: values})
		}

		addFields.apply(cmd, values)
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

// submitWithForm runs the workout form against the pending interaction.
func submitWithForm(cmd *cobra.Command, a *app, opts tui.FormOptions) error {
	ctx := commandContext(cmd)
	form, err := tui.Run(ctx, tui.NewForm(ctx, opts, a.ctl.Submit))
	if err != nil {
		a.ctl.Cancel()
		return err
	}
	if form.Cancelled() || form.Result() == nil {
		a.ctl.Cancel()
		fmt.Fprintln(cmd.OutOrStdout(), "Cancelled.")
		return nil
	}
	printWorkout(cmd.OutOrStdout(), form.Result())
	return nil
}
