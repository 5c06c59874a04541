package session

import (
	"github.com/elsanchez/mediasense/internal/domain"
)

// Task is the client-side view of a download job. The zero value is the
// idle task: no task_id, progress 0.
type Task struct {
	ID       string            `diff:"task_id"`
	Status   domain.TaskStatus `diff:"status"`
	Progress float64           `diff:"progress"`
	Error    string            `diff:"error"`
	FormatID string            `diff:"format_id"`

	// Set after the file has been retrieved (status stays completed).
	FilePath      string `diff:"file_path"`
	RetrieveError string `diff:"retrieve_error"`
}

// Present reports whether a task exists (anything but idle).
func (t Task) Present() bool {
	return t.Status != "" && t.Status != domain.TaskIdle
}

// State is the whole session. It is only changed by Apply; callers get
// copies and must treat Preview as read-only.
type State struct {
	URL     string               `diff:"url"`
	Loading bool                 `diff:"loading"`
	Error   string               `diff:"error"`
	Preview *domain.MediaPreview `diff:"preview"`
	Task    Task                 `diff:"task"`

	// URL that produced Preview; downloads are requested for this one,
	// not for whatever is typed in the input afterwards.
	PreviewURL string `diff:"preview_url"`

	fetchGen     uint64 `diff:"-"`
	taskGen      uint64 `diff:"-"`
	pollInFlight bool   `diff:"-"`
}

// NewState returns the initial session state.
func NewState() State {
	return State{Task: Task{Status: domain.TaskIdle}}
}

// FetchGeneration returns the token of the most recent metadata fetch.
func (s State) FetchGeneration() uint64 { return s.fetchGen }

// TaskGeneration returns the token of the most recent task.
func (s State) TaskGeneration() uint64 { return s.taskGen }

// PollInFlight reports whether a status request is outstanding.
func (s State) PollInFlight() bool { return s.pollInFlight }

// CanSubmit reports whether Submitted would start a fetch.
func (s State) CanSubmit() bool {
	return !s.Loading && normalize(s.URL) != ""
}
