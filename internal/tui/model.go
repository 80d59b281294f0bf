// Package tui renders the control console: virtual controls with their
// bindings, the learning state and a live message monitor.
package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/akisma/pioneer-vision/internal/layout"
	"github.com/akisma/pioneer-vision/sdk/contracts"
)

const barWidth = 20

var (
	titleStyle    = lipgloss.NewStyle().Bold(true)
	dimStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#555"))
	activeStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#fff"))
	cursorStyle   = lipgloss.NewStyle().Background(lipgloss.Color("#444"))
	learningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#ff5f87")).Bold(true)
	statusStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#888"))
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#d70000"))
)

// Controller is the part of the engine the console drives.
type Controller interface {
	StartLearning(controlType contracts.ControlType, controlID string) error
	StopLearning() error
	UnmapControl(controlID string) (bool, error)
	ClearAll() error
}

// ControlsMsg carries a control snapshot into the program.
type ControlsMsg contracts.ControlSnapshot

// MessagesMsg carries a message monitor snapshot into the program.
type MessagesMsg contracts.QueueSnapshot

type Model struct {
	ctrl         Controller
	layout       layout.Layout
	controls     contracts.ControlSnapshot
	messages     contracts.QueueSnapshot
	cursor       int
	displayLimit int
	err          error
	quitting     bool
}

// NewModel creates the console for the controls of l.
func NewModel(ctrl Controller, l layout.Layout, initial contracts.ControlSnapshot) Model {
	return Model{
		ctrl:         ctrl,
		layout:       l,
		controls:     initial,
		displayLimit: contracts.DefaultDisplayLimit,
	}
}

func (m Model) Init() tea.Cmd {
	return nil
}

// Selected returns the control under the cursor.
func (m Model) Selected() layout.Control {
	return m.layout.Controls[m.cursor]
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.quitting = true
			m.ctrl.StopLearning()
			return m, tea.Quit

		case "k", "up":
			if m.cursor > 0 {
				m.cursor--
			}

		case "j", "down":
			if m.cursor < len(m.layout.Controls)-1 {
				m.cursor++
			}

		case "enter", "l":
			c := m.Selected()
			m.err = m.ctrl.StartLearning(c.Type, c.ID)

		case "esc":
			m.err = m.ctrl.StopLearning()

		case "u":
			_, m.err = m.ctrl.UnmapControl(m.Selected().ID)

		case "c":
			m.err = m.ctrl.ClearAll()
		}

	case ControlsMsg:
		m.controls = contracts.ControlSnapshot(msg)

	case MessagesMsg:
		m.messages = contracts.QueueSnapshot(msg)
	}

	return m, nil
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("pioneer vision"))
	b.WriteString("  ")
	b.WriteString(statusStyle.Render(m.deviceLine()))
	b.WriteString("\n\n")

	for i, c := range m.layout.Controls {
		line := m.controlLine(c)
		if i == m.cursor {
			line = cursorStyle.Render(line)
		}
		b.WriteString(line)
		b.WriteString("\n")
	}

	b.WriteString("\n")
	if l := m.controls.Learning; l.Active {
		b.WriteString(learningStyle.Render(fmt.Sprintf("learning %s: move a control on the device (esc cancels)", l.ControlID)))
		b.WriteString("\n")
	}
	if m.err != nil {
		b.WriteString(errorStyle.Render(m.err.Error()))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(titleStyle.Render("monitor"))
	b.WriteString("  ")
	s := m.messages.Stats
	b.WriteString(statusStyle.Render(fmt.Sprintf("%.0f msg/s  %d total  %d duplicates", s.MessagesPerSecond, s.TotalProcessed, s.DuplicatesFiltered)))
	b.WriteString("\n")
	recent := m.messages.RecentActivity
	if len(recent) > m.displayLimit {
		recent = recent[:m.displayLimit]
	}
	for _, msg := range recent {
		b.WriteString(dimStyle.Render(monitorLine(msg)))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(dimStyle.Render("j/k:move  enter:learn  esc:cancel  u:unmap  c:clear  q:quit"))
	b.WriteString("\n")
	return b.String()
}

func (m Model) deviceLine() string {
	if !m.controls.Connected {
		return "no device"
	}
	return m.controls.Device.String()
}

func (m Model) controlLine(c layout.Control) string {
	var value string
	switch c.Type {
	case contracts.Slider:
		s := m.controls.Sliders[c.ID]
		filled := s.Value * barWidth / 100
		value = activeStyle.Render(strings.Repeat("█", filled)) +
			dimStyle.Render(strings.Repeat("·", barWidth-filled)) +
			fmt.Sprintf(" %3d", s.Value)
	case contracts.Button:
		if m.controls.Buttons[c.ID].IsPressed {
			value = activeStyle.Render("●") + " on "
		} else {
			value = dimStyle.Render("○") + " off"
		}
		value += strings.Repeat(" ", barWidth)
	}

	var binding *contracts.Mapping
	if mp, ok := m.controls.Mapping(c.ID); ok {
		binding = &mp
	}
	text := contracts.MappingText(binding)
	if l := m.controls.Learning; l.Active && l.ControlID == c.ID {
		text = learningStyle.Render("learning…")
	}
	return fmt.Sprintf("%-14s %s  %s", c.Title(), value, text)
}

func monitorLine(msg contracts.NormalizedMessage) string {
	return fmt.Sprintf("%s  %-16s ch%-2d %3d = %3d",
		msg.Timestamp.Format("15:04:05.000"), msg.Type.Label(), msg.Channel, msg.PrimaryID, msg.Value)
}
