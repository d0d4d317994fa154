package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/hugo-lorenzo-mato/pinlog/internal/controller"
	"github.com/hugo-lorenzo-mato/pinlog/internal/core"
)

// SubmitFunc completes the pending interaction with the form input.
type SubmitFunc func(ctx context.Context, in controller.Input) (*core.Workout, error)

// Focus positions, top to bottom.
const (
	focusType = iota
	focusDistance
	focusDuration
	focusExtra
	focusCount
)

// Input slots. Cadence and elevation share the last row; the selected type
// decides which one is shown.
const (
	inputDistance = iota
	inputDuration
	inputCadence
	inputElevation
	inputCount
)

// FormOptions configures a Form.
type FormOptions struct {
	Title string
	// Values prefills the fields, keyed like the form posts them.
	Values map[string]string
	// LockVariant prevents toggling the type, as when editing.
	LockVariant bool
}

type submittedMsg struct {
	workout *core.Workout
	err     error
}

// Form is the workout form as a bubbletea model.
type Form struct {
	ctx         context.Context
	submit      SubmitFunc
	title       string
	variant     core.Variant
	lockVariant bool
	inputs      [inputCount]textinput.Model
	focus       int
	submitting  bool
	notice      string
	result      *core.Workout
	cancelled   bool
}

// NewForm creates a form. Running is selected unless Values says otherwise.
func NewForm(ctx context.Context, opts FormOptions, submit SubmitFunc) Form {
	f := Form{
		ctx:         ctx,
		submit:      submit,
		title:       opts.Title,
		variant:     core.VariantRunning,
		lockVariant: opts.LockVariant,
	}
	if f.title == "" {
		f.title = "New workout"
	}
	if v, err := core.ParseVariant(opts.Values[controller.FieldType]); err == nil {
		f.variant = v
	}

	placeholders := [inputCount]string{"km", "min", "step/min", "meters"}
	fields := [inputCount]string{controller.FieldDistance, controller.FieldDuration, controller.FieldCadence, controller.FieldElevation}
	for i := range f.inputs {
		ti := textinput.New()
		ti.Placeholder = placeholders[i]
		ti.Prompt = ""
		ti.CharLimit = 16
		ti.Width = 12
		ti.SetValue(opts.Values[fields[i]])
		f.inputs[i] = ti
	}

	f.focus = focusDistance
	f.inputs[inputDistance].Focus()
	return f
}

// Result returns the saved workout, or nil when the form was cancelled.
func (f Form) Result() *core.Workout { return f.result }

// Cancelled reports whether the user left without saving.
func (f Form) Cancelled() bool { return f.cancelled }

// Variant returns the selected workout type.
func (f Form) Variant() core.Variant { return f.variant }

// Notice returns the message shown under the form, if any.
func (f Form) Notice() string { return f.notice }

// Values returns the raw field values for the selected type.
func (f Form) Values() map[string]string {
	vals := map[string]string{
		controller.FieldType:     string(f.variant),
		controller.FieldDistance: f.inputs[inputDistance].Value(),
		controller.FieldDuration: f.inputs[inputDuration].Value(),
	}
	if f.variant == core.VariantCycling {
		vals[controller.FieldElevation] = f.inputs[inputElevation].Value()
	} else {
		vals[controller.FieldCadence] = f.inputs[inputCadence].Value()
	}
	return vals
}

func (f Form) Init() tea.Cmd {
	return textinput.Blink
}

func (f Form) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return f.handleKeyPress(msg)

	case submittedMsg:
		f.submitting = false
		if msg.err != nil {
			f.notice = noticeFor(msg.err)
			return f, nil
		}
		f.result = msg.workout
		f.notice = ""
		return f, tea.Quit
	}

	return f.updateFocused(msg)
}

func (f Form) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "esc":
		f.cancelled = true
		return f, tea.Quit

	case "tab", "down":
		return f.move(1)

	case "shift+tab", "up":
		return f.move(-1)

	case "ctrl+t":
		return f.toggle()

	case "left", "right", " ":
		if f.focus == focusType {
			return f.toggle()
		}

	case "enter":
		if f.submitting {
			return f, nil
		}
		f.submitting = true
		return f, f.submitCmd()
	}

	if f.focus == focusType {
		return f, nil
	}
	return f.updateFocused(msg)
}

func (f Form) updateFocused(msg tea.Msg) (tea.Model, tea.Cmd) {
	i := f.inputIndex(f.focus)
	if i < 0 {
		return f, nil
	}
	var cmd tea.Cmd
	f.inputs[i], cmd = f.inputs[i].Update(msg)
	return f, cmd
}

func (f Form) move(delta int) (tea.Model, tea.Cmd) {
	f.focus = (f.focus + delta + focusCount) % focusCount
	cmd := f.refocus()
	return f, cmd
}

// toggle swaps the type and with it the cadence and elevation rows.
func (f Form) toggle() (tea.Model, tea.Cmd) {
	if f.lockVariant {
		f.notice = "The workout type cannot change while editing"
		return f, nil
	}
	if f.variant == core.VariantRunning {
		f.variant = core.VariantCycling
	} else {
		f.variant = core.VariantRunning
	}
	f.notice = ""
	cmd := f.refocus()
	return f, cmd
}

func (f *Form) refocus() tea.Cmd {
	for i := range f.inputs {
		f.inputs[i].Blur()
	}
	i := f.inputIndex(f.focus)
	if i < 0 {
		return nil
	}
	return f.inputs[i].Focus()
}

func (f Form) inputIndex(focus int) int {
	switch focus {
	case focusDistance:
		return inputDistance
	case focusDuration:
		return inputDuration
	case focusExtra:
		if f.variant == core.VariantCycling {
			return inputElevation
		}
		return inputCadence
	default:
		return -1
	}
}

func (f Form) submitCmd() tea.Cmd {
	ctx, submit, values := f.ctx, f.submit, f.Values()
	return func() tea.Msg {
		in, err := controller.ParseInput(values)
		if err != nil {
			return submittedMsg{err: err}
		}
		w, err := submit(ctx, in)
		return submittedMsg{workout: w, err: err}
	}
}

func noticeFor(err error) string {
	if core.IsValidation(err) {
		return controller.NoticeInvalidInput
	}
	return err.Error()
}

func (f Form) View() string {
	var b strings.Builder
	b.WriteString(TitleStyle.Render(f.title))
	b.WriteString("\n")

	typeValue := VariantStyle(string(f.variant)).Render(f.variant.Title())
	if !f.lockVariant {
		typeValue = "◀ " + typeValue + " ▶"
	}
	b.WriteString(f.row(focusType, "Type", typeValue))

	b.WriteString(f.row(focusDistance, "Distance", f.inputs[inputDistance].View()))
	b.WriteString(f.row(focusDuration, "Duration", f.inputs[inputDuration].View()))
	if f.variant == core.VariantCycling {
		b.WriteString(f.row(focusExtra, "Elev Gain", f.inputs[inputElevation].View()))
	} else {
		b.WriteString(f.row(focusExtra, "Cadence", f.inputs[inputCadence].View()))
	}

	if f.notice != "" {
		b.WriteString(ErrorStyle.Render(f.notice))
		b.WriteString("\n")
	}
	help := "tab next • ctrl+t type • enter save • esc cancel"
	if f.submitting {
		help = "saving..."
	}
	b.WriteString(HelpStyle.Render(help))

	return BoxStyle.BorderForeground(VariantColor(string(f.variant))).Render(b.String())
}

func (f Form) row(focus int, label, value string) string {
	style := LabelStyle
	if f.focus == focus {
		style = FocusedLabelStyle
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, style.Render(label), value) + "\n"
}

// Run shows the form until it is saved or cancelled.
func Run(ctx context.Context, f Form, opts ...tea.ProgramOption) (Form, error) {
	opts = append([]tea.ProgramOption{tea.WithContext(ctx)}, opts...)
	m, err := tea.NewProgram(f, opts...).Run()
	if err != nil {
		return f, fmt.Errorf("running form: %w", err)
	}
	out, ok := m.(Form)
	if !ok {
		return f, fmt.Errorf("unexpected model %T", m)
	}
	return out, nil
}
