package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var deleteCmd = &cobra.Command{
	Use:     "delete <workout-id>",
	Aliases: []string{"rm"},
	Short:   "Delete a workout",
	Args:    cobra.ExactArgs(1),
	RunE:    runDelete,
}

var activateCmd = &cobra.Command{
	Use:   "activate <workout-id>",
	Short: "Select a workout, as clicking it in the list does",
	Long: `Select a workout: the map centers on it and its click count goes up.
The new count is saved.`,
	Args: cobra.ExactArgs(1),
	RunE: runActivate,
}

func init() {
	rootCmd.AddCommand(deleteCmd)
	rootCmd.AddCommand(activateCmd)
}

func runDelete(cmd *cobra.Command, args []string) error {
	ctx := commandContext(cmd)
	return withApp(ctx, func(a *app) error {
		if err := a.ctl.Delete(ctx, args[0]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", args[0])
		return nil
	})
}

func runActivate(cmd *cobra.Command, args []string) error {
	ctx := commandContext(cmd)
	return withApp(ctx, func(a *app) error {
		w, err := a.ctl.Activate(ctx, args[0])
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s (%s) selected %d time(s)\n", w.Description, w.Position, w.Clicks)
		return nil
	})
}
