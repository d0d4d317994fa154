package cmd

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/sahilm/fuzzy"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/hugo-lorenzo-mato/pinlog/internal/core"
	"github.com/hugo-lorenzo-mato/pinlog/internal/render"
)

// Output formats shared by list and export.
const (
	formatText     = "text"
	formatMarkdown = "markdown"
	formatJSON     = "json"
	formatYAML     = "yaml"
)

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List workouts",
	Long: `List workouts in the order the sidebar shows them, which is the order
they were logged in.

Examples:
  # Everything
  pinlog list

  # Fuzzy match on the description
  pinlog list --filter "cyc mar"

  # Machine readable
  pinlog list --format json`,
	Args: cobra.NoArgs,
	RunE: runList,
}

var (
	listFilter string
	listFormat string
	listWidth  int
)

func init() {
	rootCmd.AddCommand(listCmd)

	listCmd.Flags().StringVarP(&listFilter, "filter", "f", "", "fuzzy filter on the workout description")
	listCmd.Flags().StringVarP(&listFormat, "format", "o", formatText, "output format (text, markdown, json, yaml)")
	listCmd.Flags().IntVar(&listWidth, "width", 80, "word wrap width for markdown output")
}

func runList(cmd *cobra.Command, _ []string) error {
	ctx := commandContext(cmd)
	return withApp(ctx, func(a *app) error {
		workouts := filterWorkouts(a.ctl.Workouts(), listFilter)
		return writeWorkouts(cmd.OutOrStdout(), workouts, listFormat, listWidth)
	})
}

// workoutSource adapts workouts to fuzzy.Source over their descriptions.
type workoutSource []*core.Workout

func (s workoutSource) String(i int) string { return s[i].Description }
func (s workoutSource) Len() int            { return len(s) }

// filterWorkouts keeps the workouts whose description fuzzy-matches pattern,
// in their original order.
func filterWorkouts(workouts []*core.Workout, pattern string) []*core.Workout {
	pattern = strings.TrimSpace(pattern)
	if pattern == "" {
		return workouts
	}

	matches := fuzzy.FindFrom(pattern, workoutSource(workouts))
	idx := make([]int, 0, len(matches))
	for _, m := range matches {
		idx = append(idx, m.Index)
	}
	sort.Ints(idx)

	out := make([]*core.Workout, 0, len(idx))
	for _, i := range idx {
		out = append(out, workouts[i])
	}
	return out
}

func writeWorkouts(w io.Writer, workouts []*core.Workout, format string, width int) error {
	switch strings.ToLower(format) {
	case "", formatText:
		_, err := fmt.Fprintln(w, render.Terminal(render.Entries(workouts)))
		return err
	case formatMarkdown, "md":
		out, err := render.Markdown(render.Entries(workouts), width)
		if err != nil {
			return err
		}
		_, err = io.WriteString(w, out)
		return err
	case formatJSON:
		if workouts == nil {
			workouts = []*core.Workout{}
		}
		return OutputJSON(w, workouts)
	case formatYAML, "yml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(workouts); err != nil {
			return fmt.Errorf("encoding yaml: %w", err)
		}
		return enc.Close()
	default:
		return fmt.Errorf("unknown format %q (valid: text, markdown, json, yaml)", format)
	}
}
