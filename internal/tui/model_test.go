package tui

import (
	"sync"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elsanchez/mediasense/internal/domain"
	"github.com/elsanchez/mediasense/internal/session"
)

type fakeEngine struct {
	mu      sync.Mutex
	events  []session.Event
	updates chan session.State
}

func newFakeEngine() *fakeEngine {
	return &fakeEngine{updates: make(chan session.State, 1)}
}

func (f *fakeEngine) Dispatch(ev session.Event) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, ev)
	return true
}

func (f *fakeEngine) Updates() <-chan session.State { return f.updates }

func (f *fakeEngine) dispatched() []session.Event {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]session.Event(nil), f.events...)
}

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	model, ok := next.(Model)
	require.True(t, ok)
	return model, cmd
}

// runDispatch executes a command returned by a key press and checks that
// the engine accepted its events.
func runDispatch(t *testing.T, cmd tea.Cmd) {
	t.Helper()
	require.NotNil(t, cmd)
	assert.Equal(t, dispatchedMsg{ok: true}, cmd())
}

func previewState() session.State {
	s := session.NewState()
	s.PreviewURL = "https://x.com/u/status/1"
	s.Preview = &domain.MediaPreview{
		Title:    "Clip",
		Platform: "twitter",
		Duration: "0:42",
		Formats: []domain.Format{
			{Resolution: "720p", Ext: "mp4", Size: "4 MB", FormatID: "22", Type: "video"},
			{Resolution: "Audio", Ext: "mp3", Size: "1 MB", FormatID: "140", Type: "audio"},
		},
	}
	return s
}

func TestModel_TypingAndSubmit(t *testing.T) {
	engine := newFakeEngine()
	m := NewModel(engine, Options{})

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("x.com")})
	assert.Empty(t, engine.dispatched(), "typing alone must not reach the engine")
	assert.Contains(t, m.View(), "[twitter]")

	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Empty(t, engine.dispatched(), "events go out through the returned command")
	runDispatch(t, cmd)

	assert.Equal(t, []session.Event{
		session.URLChanged{Value: "x.com"},
		session.Submitted{},
	}, engine.dispatched())
	assert.Contains(t, m.View(), "[twitter]")
}

func TestModel_SelectFormat(t *testing.T) {
	engine := newFakeEngine()
	m := NewModel(engine, Options{})

	m, cmd := update(t, m, stateMsg{state: previewState()})
	assert.NotNil(t, cmd, "listener must be re-armed")
	assert.Equal(t, focusFormats, m.focus)

	view := m.View()
	assert.Contains(t, view, "Clip")
	assert.Contains(t, view, "720p • MP4 • 4 MB")

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyDown})
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyDown})
	assert.Equal(t, 1, m.cursor)

	_, cmd = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Empty(t, engine.dispatched())
	runDispatch(t, cmd)
	assert.Equal(t, []session.Event{session.FormatSelected{FormatID: "140"}}, engine.dispatched())
}

func TestModel_ErrorAndDismiss(t *testing.T) {
	engine := newFakeEngine()
	m := NewModel(engine, Options{})

	s := previewState()
	s.Task = session.Task{Status: domain.TaskError, Error: "Video removed", FormatID: "22"}
	m, _ = update(t, m, stateMsg{state: s})

	view := m.View()
	assert.Contains(t, view, "Video removed")
	assert.Contains(t, view, "press d to dismiss")

	_, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("d")})
	runDispatch(t, cmd)
	assert.Equal(t, []session.Event{session.Dismissed{}}, engine.dispatched())
}

func TestModel_DismissIgnoredWithoutError(t *testing.T) {
	engine := newFakeEngine()
	m := NewModel(engine, Options{})
	m, _ = update(t, m, stateMsg{state: previewState()})

	_, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("d")})
	assert.Nil(t, cmd)
	assert.Empty(t, engine.dispatched())
}

func TestModel_ProgressAndCompletion(t *testing.T) {
	m := NewModel(newFakeEngine(), Options{OutputDir: "/tmp/out"})

	s := previewState()
	s.Task = session.Task{ID: "abc123", Status: domain.TaskDownloading, Progress: 50, FormatID: "22"}
	m, _ = update(t, m, stateMsg{state: s})
	assert.Contains(t, m.View(), "50.0%")

	s.Task.Status = domain.TaskCompleted
	s.Task.Progress = 100
	s.Task.FilePath = "/tmp/out/Clip.mp4"
	m, _ = update(t, m, stateMsg{state: s})

	view := m.View()
	assert.Contains(t, view, "Download complete")
	assert.Contains(t, view, "/tmp/out/Clip.mp4")
}

func TestModel_QuitsWhenEngineStops(t *testing.T) {
	m := NewModel(newFakeEngine(), Options{})
	m, cmd := update(t, m, engineStoppedMsg{})

	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
	assert.True(t, m.quitting)
}

func TestWaitForState(t *testing.T) {
	updates := make(chan session.State, 1)
	updates <- session.NewState()

	msg := waitForState(updates)()
	assert.IsType(t, stateMsg{}, msg)

	close(updates)
	assert.Equal(t, engineStoppedMsg{}, waitForState(updates)())
}
