package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Delete every workout",
	Long:  "Delete every workout and the stored snapshot. This cannot be undone.",
	Args:  cobra.NoArgs,
	RunE:  runReset,
}

var resetYes bool

func init() {
	rootCmd.AddCommand(resetCmd)
	resetCmd.Flags().BoolVarP(&resetYes, "yes", "y", false, "confirm deleting all workouts")
}

func runReset(cmd *cobra.Command, _ []string) error {
	if !resetYes {
		return errors.New("refusing to delete all workouts without --yes")
	}
	ctx := commandContext(cmd)
	return withApp(ctx, func(a *app) error {
		n := a.store.Len()
		if err := a.ctl.Reset(ctx); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Deleted %d workout(s)\n", n)
		return nil
	})
}
