package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"

	"github.com/elsanchez/mediasense/internal/domain"
	"github.com/elsanchez/mediasense/internal/media"
)

// Styles with adaptive colors for light/dark backgrounds
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.AdaptiveColor{Light: "63", Dark: "205"}).
			MarginLeft(2)

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "240", Dark: "250"})

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "160", Dark: "9"}).
			Bold(true)

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "34", Dark: "10"}).
			Bold(true)

	spinnerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "63", Dark: "205"})

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.AdaptiveColor{Light: "63", Dark: "63"}).
			Padding(0, 1)

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "63", Dark: "205"})

	audioStyle = lipgloss.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "30", Dark: "87"})

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "240", Dark: "245"})
)

// View renders the whole screen
func (m Model) View() string {
	if m.quitting {
		return "Goodbye!\n"
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("🎬 MediaSense") + "\n\n")

	b.WriteString(m.viewInput() + "\n")

	if m.state.Loading {
		b.WriteString("\n  " + m.spinner.View() + " Analyzing link...\n")
	}
	if m.state.Error != "" {
		b.WriteString("\n  " + errorStyle.Render(m.state.Error) + "\n")
	}

	if m.state.Preview != nil {
		b.WriteString("\n" + m.viewPreview() + "\n")
	}

	if task := m.viewTask(); task != "" {
		b.WriteString("\n" + task + "\n")
	}

	b.WriteString("\n" + m.viewHelp() + "\n")
	return b.String()
}

// viewInput renders the link input with the platform hint
func (m Model) viewInput() string {
	line := "  " + m.urlInput.View()
	if raw := strings.TrimSpace(m.urlInput.Value()); raw != "" {
		if p := media.DetectPlatform(raw); p != media.PlatformOther {
			line += "  " + dimStyle.Render("["+p+"]")
		}
	}
	return line
}

// viewPreview renders the preview card and its formats
func (m Model) viewPreview() string {
	p := m.state.Preview

	var b strings.Builder
	b.WriteString(lipgloss.NewStyle().Bold(true).Render(p.Title) + "\n")

	var meta []string
	if p.Platform != "" {
		meta = append(meta, p.Platform)
	}
	if p.Duration != "" {
		meta = append(meta, p.Duration)
	}
	if len(meta) > 0 {
		b.WriteString(dimStyle.Render(strings.Join(meta, " • ")) + "\n")
	}
	b.WriteString("\n")

	if len(p.Formats) == 0 {
		b.WriteString(dimStyle.Render("No formats available") + "\n")
	}

	for i, f := range p.Formats {
		cursor := "  "
		if m.focus == focusFormats && i == m.cursor {
			cursor = "▸ "
		}

		label := f.Label()
		switch {
		case m.focus == focusFormats && i == m.cursor:
			label = selectedStyle.Render(label)
		case f.IsAudio():
			label = audioStyle.Render(label)
		}

		icon := "🎞 "
		if f.IsAudio() {
			icon = "♪ "
		}

		active := ""
		if m.state.Task.Present() && m.state.Task.FormatID == f.FormatID {
			active = dimStyle.Render("  ← " + string(m.state.Task.Status))
		}

		b.WriteString(cursor + icon + label + active + "\n")
	}

	return boxStyle.Render(strings.TrimRight(b.String(), "\n"))
}

// viewTask renders the download panel for the current task
func (m Model) viewTask() string {
	t := m.state.Task

	switch t.Status {
	case domain.TaskStarting:
		return "  " + m.spinner.View() + " Starting download..."

	case domain.TaskDownloading:
		return fmt.Sprintf("  Downloading %s\n  %s %5.1f%%",
			dimStyle.Render(t.ID), m.progress.ViewAs(t.Progress/100), t.Progress)

	case domain.TaskCompleted:
		out := "  " + successStyle.Render("✓ Download complete") + "\n  " + m.progress.ViewAs(1)
		switch {
		case t.FilePath != "":
			out += "\n  Saved to " + t.FilePath
		case t.RetrieveError != "":
			out += "\n  " + errorStyle.Render("Could not save file: "+t.RetrieveError)
		default:
			out += "\n  " + m.spinner.View() + " Saving file to " + m.outputDir + "..."
		}
		return out

	case domain.TaskError:
		return "  " + errorStyle.Render("✗ "+t.Error) + "\n  " + helpStyle.Render("press d to dismiss")
	}

	return ""
}

// viewHelp renders the key hints for the focused widget
func (m Model) viewHelp() string {
	var bindings []key.Binding
	if m.focus == focusFormats {
		bindings = []key.Binding{keys.up, keys.down, keys.submit, keys.edit, keys.quit}
		if m.state.Task.Status == domain.TaskError {
			bindings = append(bindings, keys.dismiss)
		}
	} else {
		bindings = []key.Binding{
			key.NewBinding(key.WithHelp("enter", "analyze")),
			key.NewBinding(key.WithHelp("esc", "back/quit")),
		}
		if m.state.Preview != nil {
			bindings = append(bindings, keys.tab)
		}
	}

	parts := make([]string, 0, len(bindings))
	for _, b := range bindings {
		h := b.Help()
		parts = append(parts, h.Key+" "+h.Desc)
	}

	line := "  " + strings.Join(parts, " • ")
	if m.apiURL != "" {
		line += "\n  " + "service: " + m.apiURL
	}
	return helpStyle.Render(line)
}
