package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/hugo-lorenzo-mato/pinlog/internal/controller"
	"github.com/hugo-lorenzo-mato/pinlog/internal/core"
	"github.com/hugo-lorenzo-mato/pinlog/internal/render"
)

// stdinIsTerminal is swapped in tests.
var stdinIsTerminal = func() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

// fieldFlags are the form fields accepted as flags by add and edit. Values
// stay strings so that empty or malformed input gets the same notice as the
// form.
type fieldFlags struct {
	distance  string
	duration  string
	cadence   string
	elevation string
}

func (f *fieldFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.distance, controller.FieldDistance, "", "distance in km")
	cmd.Flags().StringVar(&f.duration, controller.FieldDuration, "", "duration in minutes")
	cmd.Flags().StringVar(&f.cadence, controller.FieldCadence, "", "cadence in steps/min (running)")
	cmd.Flags().StringVar(&f.elevation, controller.FieldElevation, "", "elevation gain in meters (cycling)")
}

// changed reports whether any field flag was set on the command line.
func (f *fieldFlags) changed(cmd *cobra.Command) bool {
	for _, name := range []string{controller.FieldDistance, controller.FieldDuration, controller.FieldCadence, controller.FieldElevation} {
		if cmd.Flags().Changed(name) {
			return true
		}
	}
	return false
}

// apply overwrites values with the flags that were set.
func (f *fieldFlags) apply(cmd *cobra.Command, values map[string]string) {
	set := map[string]string{
		controller.FieldDistance:  f.distance,
		controller.FieldDuration:  f.duration,
		controller.FieldCadence:   f.cadence,
		controller.FieldElevation: f.elevation,
	}
	for name, v := range set {
		if cmd.Flags().Changed(name) {
			values[name] = v
		}
	}
}

func printWorkout(w io.Writer, wk *core.Workout) {
	fmt.Fprintln(w, render.Terminal([]render.Entry{render.NewEntry(wk)}))
}

// OutputJSON writes v to w as indented JSON.
func OutputJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
