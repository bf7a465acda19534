// Package tui is the terminal rendition of the churn form.
package tui

import (
	"context"
	"errors"
	"strings"

	"churn-predictor-api/pkg/form"
	"churn-predictor-api/pkg/presentation"
	"churn-predictor-api/pkg/session"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// settledMsg reports that the pending prediction has settled.
type settledMsg struct{}

// Model is the bubbletea model of the form.
type Model struct {
	ctrl   *session.Controller
	form   *form.Form
	inputs []textinput.Model
	focus  int

	view     presentation.SessionView
	invalid  form.Field
	fieldErr string

	styles styles
}

type styles struct {
	title    lipgloss.Style
	subtitle lipgloss.Style
	label    lipgloss.Style
	focused  lipgloss.Style
	fieldErr lipgloss.Style
	button   lipgloss.Style
	disabled lipgloss.Style
	high     lipgloss.Style
	low      lipgloss.Style
	muted    lipgloss.Style
	failure  lipgloss.Style
	help     lipgloss.Style
}

func defaultStyles() styles {
	return styles{
		title:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#111827")).MarginBottom(1),
		subtitle: lipgloss.NewStyle().Foreground(lipgloss.Color("#4B5563")).MarginBottom(1),
		label:    lipgloss.NewStyle().Foreground(lipgloss.Color("#374151")),
		focused:  lipgloss.NewStyle().Foreground(lipgloss.Color("#4F46E5")).Bold(true),
		fieldErr: lipgloss.NewStyle().Foreground(lipgloss.Color("#B91C1C")),
		button:   lipgloss.NewStyle().Foreground(lipgloss.Color("#FFFFFF")).Background(lipgloss.Color("#4F46E5")).Padding(0, 2),
		disabled: lipgloss.NewStyle().Foreground(lipgloss.Color("#E5E7EB")).Background(lipgloss.Color("#A5B4FC")).Padding(0, 2),
		high:     lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#991B1B")),
		low:      lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#166534")),
		muted:    lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280")),
		failure:  lipgloss.NewStyle().Foreground(lipgloss.Color("#991B1B")),
		help:     lipgloss.NewStyle().Foreground(lipgloss.Color("#9CA3AF")).MarginTop(1),
	}
}

// New creates the form model around ctrl.
func New(ctrl *session.Controller) Model {
	inputs := make([]textinput.Model, len(form.Fields))
	for i := range inputs {
		ti := textinput.New()
		ti.Placeholder = "0"
		ti.CharLimit = 16
		ti.Width = 20
		if i == 0 {
			ti.Focus()
		}
		inputs[i] = ti
	}

	return Model{
		ctrl:   ctrl,
		form:   form.New(),
		inputs: inputs,
		view:   presentation.ViewState(ctrl.State()),
		styles: defaultStyles(),
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case settledMsg:
		m.view = presentation.ViewState(m.ctrl.State())
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			m.ctrl.Cancel()
			return m, tea.Quit
		case "tab", "down":
			return m, m.moveFocus(1)
		case "shift+tab", "up":
			return m, m.moveFocus(-1)
		case "enter":
			return m.submit()
		}
	}

	var cmd tea.Cmd
	m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
	_ = m.form.UpdateField(string(form.Fields[m.focus]), m.inputs[m.focus].Value())
	return m, cmd
}

func (m *Model) moveFocus(delta int) tea.Cmd {
	m.inputs[m.focus].Blur()
	m.focus = (m.focus + delta + len(m.inputs)) % len(m.inputs)
	return m.inputs[m.focus].Focus()
}

func (m Model) submit() (tea.Model, tea.Cmd) {
	m.invalid, m.fieldErr = "", ""

	_, err := m.ctrl.SubmitForm(context.Background(), m.form)
	if err != nil {
		var verr *form.ValidationError
		switch {
		case errors.As(err, &verr):
			m.invalid, m.fieldErr = verr.Field, verr.Error()
			for i, field := range form.Fields {
				if field == verr.Field && i != m.focus {
					return m, m.moveFocus(i - m.focus)
				}
			}
		case errors.Is(err, session.ErrSubmissionInFlight):
			// the button is disabled while pending
		default:
			m.fieldErr = err.Error()
		}
		return m, nil
	}

	m.view = presentation.ViewState(m.ctrl.State())
	return m, waitForSettle(m.ctrl)
}

func waitForSettle(ctrl *session.Controller) tea.Cmd {
	return func() tea.Msg {
		_, _ = ctrl.Wait(context.Background())
		return settledMsg{}
	}
}

// View implements tea.Model.
func (m Model) View() string {
	s := m.styles
	var b strings.Builder

	b.WriteString(s.title.Render(presentation.Title) + "\n")
	b.WriteString(s.subtitle.Render(presentation.Subtitle) + "\n")

	for i, field := range form.Fields {
		label := s.label
		if i == m.focus {
			label = s.focused
		}
		b.WriteString(label.Render(presentation.FieldLabels[field]) + "\n")
		b.WriteString(m.inputs[i].View() + "\n")
		if field == m.invalid {
			b.WriteString(s.fieldErr.Render(m.fieldErr) + "\n")
		}
		b.WriteString("\n")
	}
	if m.invalid == "" && m.fieldErr != "" {
		b.WriteString(s.fieldErr.Render(m.fieldErr) + "\n\n")
	}

	if m.view.SubmitEnabled {
		b.WriteString(s.button.Render(m.view.ButtonLabel) + "\n")
	} else {
		b.WriteString(s.disabled.Render(m.view.ButtonLabel) + "\n")
	}

	if r := m.view.Result; r != nil {
		b.WriteString("\n")
		if r.IsHighRisk {
			b.WriteString(s.high.Render(r.Label) + "\n")
		} else {
			b.WriteString(s.low.Render(r.Label) + "\n")
		}
		b.WriteString(s.muted.Render("Churn Probability: "+r.Probability) + "\n")
		if len(r.RecommendedActions) > 0 {
			b.WriteString(s.failure.Render("Recommended Actions:") + "\n")
			for _, a := range r.RecommendedActions {
				b.WriteString(s.failure.Render("  • "+a) + "\n")
			}
		}
	}
	if m.view.Error != "" {
		b.WriteString("\n" + s.failure.Render(m.view.Error) + "\n")
		if m.view.Detail != "" {
			b.WriteString(s.muted.Render(m.view.Detail) + "\n")
		}
	}

	b.WriteString(s.help.Render("tab/shift+tab: move • enter: predict • esc: quit"))
	return b.String()
}

// Run starts the interactive form on the terminal.
func Run(ctrl *session.Controller) error {
	_, err := tea.NewProgram(New(ctrl)).Run()
	return err
}
