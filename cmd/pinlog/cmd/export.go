package cmd

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/hugo-lorenzo-mato/pinlog/internal/config"
	"github.com/hugo-lorenzo-mato/pinlog/internal/persistence"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write all workouts to stdout or a file",
	Long: `Write all workouts to stdout or a file.

The snapshot format is exactly what the store holds and can be copied into
another store. json and yaml write the plain workout list.`,
	Args: cobra.NoArgs,
	RunE: runExport,
}

const formatSnapshot = "snapshot"

var (
	exportFormat string
	exportOutput string
)

func init() {
	rootCmd.AddCommand(exportCmd)

	exportCmd.Flags().StringVarP(&exportFormat, "format", "o", formatSnapshot, "output format (snapshot, json, yaml, markdown)")
	exportCmd.Flags().StringVar(&exportOutput, "output", "", "write to this file instead of stdout")
}

func runExport(cmd *cobra.Command, _ []string) error {
	ctx := commandContext(cmd)
	return withApp(ctx, func(a *app) error {
		workouts := a.ctl.Workouts()

		var buf bytes.Buffer
		if strings.EqualFold(exportFormat, formatSnapshot) {
			data, err := persistence.Encode(workouts, time.Now())
			if err != nil {
				return err
			}
			buf.Write(data)
			buf.WriteByte('\n')
		} else if err := writeWorkouts(&buf, workouts, exportFormat, 0); err != nil {
			return err
		}

		if exportOutput == "" {
			_, err := cmd.OutOrStdout().Write(buf.Bytes())
			return err
		}
		if err := config.AtomicWrite(exportOutput, buf.Bytes()); err != nil {
			return fmt.Errorf("writing export: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Exported %d workout(s) to %s\n", len(workouts), exportOutput)
		return nil
	})
}
