package tui

import (
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/elsanchez/mediasense/internal/session"
)

// Dispatcher is the part of the session engine the UI talks to.
type Dispatcher interface {
	Dispatch(ev session.Event) bool
	Updates() <-chan session.State
}

// focus tracks which widget receives keys
type focus int

const (
	focusInput focus = iota
	focusFormats
)

// Model is the Bubbletea model for the downloader
type Model struct {
	// Navigation
	focus    focus
	width    int
	height   int
	quitting bool

	// Dependencies
	engine    Dispatcher
	outputDir string
	apiURL    string

	// Latest snapshot published by the engine
	state  session.State
	cursor int

	// Components
	urlInput textinput.Model
	spinner  spinner.Model
	progress progress.Model

	initialURL string
}

// Options holds what the model shows besides the session state.
type Options struct {
	InitialURL string
	OutputDir  string
	APIURL     string
}

// NewModel creates a new downloader TUI model
func NewModel(engine Dispatcher, opts Options) Model {
	urlInput := textinput.New()
	urlInput.Placeholder = "Paste a video link (YouTube, X, Instagram, TikTok...)"
	urlInput.Focus()
	urlInput.CharLimit = 2048
	urlInput.Width = 60
	urlInput.SetValue(opts.InitialURL)

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = spinnerStyle

	bar := progress.New(progress.WithDefaultGradient())
	bar.Width = 50

	return Model{
		focus:      focusInput,
		engine:     engine,
		outputDir:  opts.OutputDir,
		apiURL:     opts.APIURL,
		state:      session.NewState(),
		urlInput:   urlInput,
		spinner:    s,
		progress:   bar,
		initialURL: opts.InitialURL,
	}
}

// Init starts listening to the engine and, when a URL was given on the
// command line, submits it right away
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{
		textinput.Blink,
		m.spinner.Tick,
		waitForState(m.engine.Updates()),
	}
	if m.initialURL != "" {
		cmds = append(cmds, submitURL(m.engine, m.initialURL))
	}
	return tea.Batch(cmds...)
}

// State returns the last session snapshot the model received
func (m Model) State() session.State {
	return m.state
}
