// Package render turns workouts into the markup shown on the map and in the list.
package render

import (
	"bytes"
	"fmt"
	"html/template"
	"strconv"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/glamour/styles"
	"github.com/charmbracelet/lipgloss"

	"github.com/hugo-lorenzo-mato/pinlog/internal/core"
)

// Icons used by markers and list rows.
const (
	IconRunning   = "🏃"
	IconCycling   = "🚴‍♀️"
	IconDuration  = "⏱"
	IconDerived   = "⚡️"
	IconCadence   = "🦶🏼"
	IconElevation = "⛰"
)

// Icon returns the variant icon.
func Icon(v core.Variant) string {
	if v == core.VariantCycling {
		return IconCycling
	}
	return IconRunning
}

// MarkerLabel is the popup content of a workout marker.
func MarkerLabel(w *core.Workout) string {
	return Icon(w.Variant) + " " + w.Description
}

// PopupClass is the css class of a workout marker popup.
func PopupClass(w *core.Workout) string {
	return string(w.Variant) + "-popup"
}

// Marker builds the map marker for w.
func Marker(w *core.Workout) core.Marker {
	return core.Marker{
		WorkoutID:  w.ID,
		Position:   w.Position,
		Label:      MarkerLabel(w),
		Variant:    w.Variant,
		PopupClass: PopupClass(w),
	}
}

// Row is one value/unit line of a list entry.
type Row struct {
	Icon  string `json:"icon"`
	Value string `json:"value"`
	Unit  string `json:"unit"`
}

// Entry is the list view model of a workout.
type Entry struct {
	ID      string       `json:"id"`
	Variant core.Variant `json:"type"`
	Title   string       `json:"title"`
	Icon    string       `json:"icon"`
	Rows    []Row        `json:"rows"`
	Clicks  int          `json:"clicks"`
}

// NewEntry builds the list entry for w. Pace and speed are shown with one decimal,
// the entered numbers as they were typed.
func NewEntry(w *core.Workout) Entry {
	e := Entry{
		ID:      w.ID,
		Variant: w.Variant,
		Title:   w.Description,
		Icon:    Icon(w.Variant),
		Clicks:  w.Clicks,
		Rows: []Row{
			{Icon: Icon(w.Variant), Value: plain(w.DistanceKm), Unit: "km"},
			{Icon: IconDuration, Value: plain(w.DurationMin), Unit: "min"},
		},
	}

	switch w.Variant {
	case core.VariantRunning:
		e.Rows = append(e.Rows,
			Row{Icon: IconDerived, Value: fixed(w.PaceMinPerKm), Unit: "min/km"},
			Row{Icon: IconCadence, Value: plain(w.CadenceSpm), Unit: "spm"},
		)
	case core.VariantCycling:
		e.Rows = append(e.Rows,
			Row{Icon: IconDerived, Value: fixed(w.SpeedKmPerH), Unit: "km/h"},
			Row{Icon: IconElevation, Value: plain(w.ElevationGainM), Unit: "m"},
		)
	}
	return e
}

// Entries builds entries for workouts, preserving order.
func Entries(workouts []*core.Workout) []Entry {
	out := make([]Entry, 0, len(workouts))
	for _, w := range workouts {
		out = append(out, NewEntry(w))
	}
	return out
}

func plain(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func fixed(v float64) string {
	return strconv.FormatFloat(v, 'f', 1, 64)
}

var entryTemplate = template.Must(template.New("entry").Parse(
	`<li class="workout workout--{{.Variant}}" data-id="{{.ID}}">` +
		`<h2 class="workout__title">{{.Title}}<div class="edit" data-id="{{.ID}}">🖍</div></h2>` +
		`{{range .Rows}}<div class="workout__details">` +
		`<span class="workout__icon">{{.Icon}}</span>` +
		`<span class="workout__value">{{.Value}}</span>` +
		`<span class="workout__unit">{{.Unit}}</span>` +
		`</div>{{end}}` +
		`<p><button class="del">Delete</button></p>` +
		`</li>`))

// HTML renders the list item markup of an entry.
func HTML(e Entry) (string, error) {
	var buf bytes.Buffer
	if err := entryTemplate.Execute(&buf, e); err != nil {
		return "", fmt.Errorf("rendering entry %s: %w", e.ID, err)
	}
	return buf.String(), nil
}

// Variant accent colors.
var (
	ColorRunning = lipgloss.Color("#00C46A")
	ColorCycling = lipgloss.Color("#FFB545")
	ColorMuted   = lipgloss.Color("#9CA3AF")
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true)
	rowStyle   = lipgloss.NewStyle().PaddingLeft(2)
	unitStyle  = lipgloss.NewStyle().Foreground(ColorMuted)
	idStyle    = lipgloss.NewStyle().Foreground(ColorMuted)
)

func accent(v core.Variant) lipgloss.Style {
	c := ColorRunning
	if v == core.VariantCycling {
		c = ColorCycling
	}
	return lipgloss.NewStyle().
		Border(lipgloss.NormalBorder(), false, false, false, true).
		BorderForeground(c).
		PaddingLeft(1)
}

// Terminal renders entries as a styled list for the CLI.
func Terminal(entries []Entry) string {
	if len(entries) == 0 {
		return unitStyle.Render("No workouts yet. Click the map to add one.")
	}

	blocks := make([]string, 0, len(entries))
	for _, e := range entries {
		lines := []string{titleStyle.Render(e.Title) + " " + idStyle.Render(e.ID)}
		cells := make([]string, 0, len(e.Rows))
		for _, r := range e.Rows {
			cells = append(cells, r.Icon+" "+r.Value+" "+unitStyle.Render(r.Unit))
		}
		lines = append(lines, rowStyle.Render(strings.Join(cells, "   ")))
		blocks = append(blocks, accent(e.Variant).Render(strings.Join(lines, "\n")))
	}
	return strings.Join(blocks, "\n\n")
}

// MarkdownSource returns the entries as a markdown document.
func MarkdownSource(entries []Entry) string {
	var b strings.Builder
	b.WriteString("# Workouts\n\n")
	if len(entries) == 0 {
		b.WriteString("_No workouts yet._\n")
		return b.String()
	}
	for _, e := range entries {
		fmt.Fprintf(&b, "## %s %s\n\n", e.Icon, e.Title)
		b.WriteString("| | value | unit |\n|---|---:|---|\n")
		for _, r := range e.Rows {
			fmt.Fprintf(&b, "| %s | %s | %s |\n", r.Icon, r.Value, r.Unit)
		}
		fmt.Fprintf(&b, "\n`%s`\n\n", e.ID)
	}
	return b.String()
}

// Markdown renders the entries through glamour for terminal display.
func Markdown(entries []Entry, width int) (string, error) {
	if width <= 0 {
		width = 80
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithStyles(styles.DraculaStyleConfig),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return "", fmt.Errorf("creating markdown renderer: %w", err)
	}
	out, err := r.Render(MarkdownSource(entries))
	if err != nil {
		return "", fmt.Errorf("rendering markdown: %w", err)
	}
	return out, nil
}
