package tui

import (
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/elsanchez/mediasense/internal/domain"
	"github.com/elsanchez/mediasense/internal/session"
)

var keys = struct {
	quit, forceQuit, submit, up, down, tab, dismiss, edit key.Binding
}{
	quit:      key.NewBinding(key.WithKeys("q", "esc"), key.WithHelp("q", "quit")),
	forceQuit: key.NewBinding(key.WithKeys("ctrl+c")),
	submit:    key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "select")),
	up:        key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
	down:      key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
	tab:       key.NewBinding(key.WithKeys("tab", "shift+tab"), key.WithHelp("tab", "switch focus")),
	dismiss:   key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "dismiss error")),
	edit:      key.NewBinding(key.WithKeys("i", "/"), key.WithHelp("i", "edit link")),
}

// Update handles messages and updates the model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		if key.Matches(msg, keys.forceQuit) {
			m.quitting = true
			return m, tea.Quit
		}
		return m.handleKeyPress(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.urlInput.Width = clamp(msg.Width-8, 20, 100)
		m.progress.Width = clamp(msg.Width-20, 20, 80)
		return m, nil

	case stateMsg:
		m.applyState(msg.state)
		return m, waitForState(m.engine.Updates())

	case engineStoppedMsg:
		m.quitting = true
		return m, tea.Quit

	case dispatchedMsg:
		if !msg.ok {
			m.quitting = true
			return m, tea.Quit
		}
		return m, nil

	case spinner.TickMsg:
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)
	}

	if m.focus == focusInput {
		m.urlInput, cmd = m.urlInput.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

// applyState takes a new snapshot from the engine
func (m *Model) applyState(next session.State) {
	prev := m.state
	m.state = next

	// A new preview moves the focus to its formats
	if next.Preview != nil && next.Preview != prev.Preview {
		m.cursor = 0
		m.focus = focusFormats
		m.urlInput.Blur()
	}
	if next.Preview == nil && m.focus == focusFormats {
		m.focusInput()
	}
	if next.Preview != nil && m.cursor >= len(next.Preview.Formats) {
		m.cursor = 0
	}
}

func (m *Model) focusInput() {
	m.focus = focusInput
	m.urlInput.Focus()
}

// handleKeyPress routes keys to the focused widget
func (m Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.focus {
	case focusFormats:
		return m.handleFormatKeys(msg)
	default:
		return m.handleInputKeys(msg)
	}
}

// handleInputKeys handles keys while editing the link
func (m Model) handleInputKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.submit):
		return m, submitURL(m.engine, m.urlInput.Value())

	case msg.Type == tea.KeyEsc:
		if m.state.Preview != nil {
			m.focus = focusFormats
			m.urlInput.Blur()
			return m, nil
		}
		m.quitting = true
		return m, tea.Quit

	case key.Matches(msg, keys.tab):
		if m.state.Preview != nil {
			m.focus = focusFormats
			m.urlInput.Blur()
		}
		return m, nil
	}

	// The engine sees the link on submit; the view reads it from the input.
	var cmd tea.Cmd
	m.urlInput, cmd = m.urlInput.Update(msg)
	return m, cmd
}

// handleFormatKeys handles keys in the format list
func (m Model) handleFormatKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	formats := m.formats()

	switch {
	case key.Matches(msg, keys.quit):
		m.quitting = true
		return m, tea.Quit

	case key.Matches(msg, keys.up):
		if m.cursor > 0 {
			m.cursor--
		}

	case key.Matches(msg, keys.down):
		if m.cursor < len(formats)-1 {
			m.cursor++
		}

	case key.Matches(msg, keys.submit):
		if m.cursor < len(formats) {
			return m, dispatch(m.engine, session.FormatSelected{FormatID: formats[m.cursor].FormatID})
		}

	case key.Matches(msg, keys.dismiss):
		if m.state.Task.Status == domain.TaskError {
			return m, dispatch(m.engine, session.Dismissed{})
		}

	case key.Matches(msg, keys.tab), key.Matches(msg, keys.edit):
		m.focusInput()
		return m, textinput.Blink
	}

	return m, nil
}

func (m Model) formats() []domain.Format {
	if m.state.Preview == nil {
		return nil
	}
	return m.state.Preview.Formats
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
