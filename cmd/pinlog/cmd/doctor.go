package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/multierr"

	"github.com/hugo-lorenzo-mato/pinlog/internal/diagnostics"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check the store and the host",
	Long: `Check that the configured store is reachable, that the stored workouts
can be read, and that the disk and memory of the host are not exhausted.`,
	Args: cobra.NoArgs,
	RunE: runDoctor,
}

var doctorJSON bool

func init() {
	rootCmd.AddCommand(doctorCmd)
	doctorCmd.Flags().BoolVar(&doctorJSON, "json", false, "print the report as JSON")
}

// runDoctor opens the backend without loading it into a controller, so a
// broken store is reported instead of failing startup.
func runDoctor(cmd *cobra.Command, _ []string) (err error) {
	cfg, err := loadedConfig()
	if err != nil {
		return err
	}
	backend, err := openBackend(cfg)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Append(err, backend.Close())
	}()

	snapshots := newSnapshots(cfg, backend, newLogger(cfg))
	report := diagnostics.NewDoctor().Run(commandContext(cmd), cfg.Store.Backend, cfg.Store.Path, backend, snapshots)

	out := cmd.OutOrStdout()
	if doctorJSON {
		if err := OutputJSON(out, report); err != nil {
			return err
		}
	} else {
		printReport(out, report)
	}

	if report.Status == diagnostics.StatusFail {
		return fmt.Errorf("doctor found problems")
	}
	return nil
}

func printReport(w io.Writer, r diagnostics.Report) {
	fmt.Fprintf(w, "Checking %s store...\n\n", r.Backend)
	for _, c := range r.Checks {
		icon := "✓"
		switch c.Status {
		case diagnostics.StatusWarn:
			icon = "⚠"
		case diagnostics.StatusFail:
			icon = "✗"
		}
		fmt.Fprintf(w, "  %s %-10s %s\n", icon, c.Name, c.Detail)
	}
	fmt.Fprintln(w)

	switch r.Status {
	case diagnostics.StatusOK:
		fmt.Fprintln(w, "All checks passed.")
	case diagnostics.StatusWarn:
		fmt.Fprintln(w, "Some checks need attention.")
	default:
		fmt.Fprintln(w, "Some checks failed.")
	}
}
