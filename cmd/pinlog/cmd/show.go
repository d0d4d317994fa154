package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hugo-lorenzo-mato/pinlog/internal/clip"
	"github.com/hugo-lorenzo-mato/pinlog/internal/render"
)

var showCmd = &cobra.Command{
	Use:   "show <workout-id>",
	Short: "Show one workout",
	Args:  cobra.ExactArgs(1),
	RunE:  runShow,
}

var (
	showCopy bool
	showHTML bool
)

// copier is swapped in tests.
var copier interface {
	Copy(text string) (clip.Result, error)
} = clip.New()

func init() {
	rootCmd.AddCommand(showCmd)

	showCmd.Flags().BoolVar(&showCopy, "copy", false, "copy the workout as markdown to the clipboard")
	showCmd.Flags().BoolVar(&showHTML, "html", false, "print the list entry markup")
}

func runShow(cmd *cobra.Command, args []string) error {
	ctx := commandContext(cmd)
	return withApp(ctx, func(a *app) error {
		w, err := a.ctl.Workout(args[0])
		if err != nil {
			return err
		}
		entry := render.NewEntry(w)
		out := cmd.OutOrStdout()

		if showHTML {
			html, err := render.HTML(entry)
			if err != nil {
				return err
			}
			fmt.Fprintln(out, html)
		} else {
			printWorkout(out, w)
		}

		if !showCopy {
			return nil
		}
		res, err := copier.Copy(render.MarkdownSource([]render.Entry{entry}))
		if err != nil {
			return fmt.Errorf("copying workout: %w", err)
		}
		if res.Method == clip.MethodFile {
			fmt.Fprintf(out, "No clipboard available, saved to %s\n", res.FilePath)
		} else {
			fmt.Fprintf(out, "Copied to clipboard (%s)\n", res.Method)
		}
		return nil
	})
}
