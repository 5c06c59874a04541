package session

import (
	"math"

	"github.com/elsanchez/mediasense/internal/domain"
	"github.com/elsanchez/mediasense/internal/media"
	"github.com/elsanchez/mediasense/pkg/client"
)

// Apply is the session reducer. It returns the next state and the effects
// the runtime must execute, in order. It never blocks and never performs I/O.
func (s State) Apply(ev Event) (State, []Effect) {
	switch ev := ev.(type) {
	case URLChanged:
		s.URL = ev.Value
		return s, nil
	case Submitted:
		return s.submit()
	case PreviewLoaded:
		return s.previewLoaded(ev)
	case FormatSelected:
		return s.selectFormat(ev)
	case TaskCreated:
		return s.taskCreated(ev)
	case PollTick:
		return s.pollTick(ev)
	case PollResult:
		return s.pollResult(ev)
	case FileRetrieved:
		return s.fileRetrieved(ev)
	case Dismissed:
		return s.dismiss()
	}
	return s, nil
}

func normalize(raw string) string {
	u, err := media.NormalizeURL(raw)
	if err != nil {
		return ""
	}
	return u
}

func errorMessage(err error, fallback string) string {
	if err == nil || err.Error() == "" {
		return fallback
	}
	return err.Error()
}

func (s State) submit() (State, []Effect) {
	target := normalize(s.URL)
	if target == "" || s.Loading {
		return s, nil
	}

	// The task belongs to the preview being replaced.
	effects := s.releaseTask()

	s.fetchGen++
	s.Loading = true
	s.Error = ""
	s.Preview = nil
	s.PreviewURL = target

	return s, append(effects, FetchPreview{Gen: s.fetchGen, URL: target})
}

func (s State) previewLoaded(ev PreviewLoaded) (State, []Effect) {
	if ev.Gen != s.fetchGen || !s.Loading {
		return s, nil
	}

	s.Loading = false
	switch {
	case ev.Err != nil:
		s.Error = errorMessage(ev.Err, client.MsgAnalyzeNetwork)
		s.PreviewURL = ""
	case ev.Preview == nil:
		s.Error = client.MsgAnalyzeFailed
		s.PreviewURL = ""
	default:
		s.Preview = ev.Preview
	}
	return s, nil
}

// releaseTask drops the current task, invalidating every in-flight result
// that belongs to it.
func (s *State) releaseTask() []Effect {
	if !s.Task.Present() {
		return nil
	}
	s.taskGen++
	s.Task = Task{Status: domain.TaskIdle}
	s.pollInFlight = false
	return []Effect{StopPolling{}}
}

func (s State) selectFormat(ev FormatSelected) (State, []Effect) {
	if s.Preview == nil || ev.FormatID == "" {
		return s, nil
	}

	// Selections supersede whatever task is running; the old timer goes first.
	effects := []Effect{StopPolling{}}

	s.taskGen++
	s.pollInFlight = false
	s.Task = Task{
		Status:   domain.TaskStarting,
		Progress: 0,
		FormatID: ev.FormatID,
	}

	return s, append(effects, CreateTask{Gen: s.taskGen, URL: s.PreviewURL, FormatID: ev.FormatID})
}

func (s State) taskCreated(ev TaskCreated) (State, []Effect) {
	if ev.Gen != s.taskGen || s.Task.Status != domain.TaskStarting {
		return s, nil
	}

	if ev.Err != nil {
		s.Task.Status = domain.TaskError
		s.Task.Error = errorMessage(ev.Err, client.MsgDownloadFailed)
		return s, nil
	}

	s.Task.ID = ev.TaskID
	s.Task.Status = domain.TaskDownloading
	return s, []Effect{StartPolling{Gen: s.taskGen, TaskID: ev.TaskID}}
}

func (s State) pollTick(ev PollTick) (State, []Effect) {
	if ev.Gen != s.taskGen || s.Task.Status != domain.TaskDownloading {
		return s, nil
	}

	// Skip, don't queue: one status request per task at a time.
	if s.pollInFlight {
		return s, nil
	}

	s.pollInFlight = true
	return s, []Effect{PollStatus{Gen: s.taskGen, TaskID: s.Task.ID}}
}

func (s State) pollResult(ev PollResult) (State, []Effect) {
	if ev.Gen != s.taskGen || s.Task.Status != domain.TaskDownloading {
		return s, nil
	}
	s.pollInFlight = false

	if ev.Err != nil {
		msg := client.MsgConnectionLost
		// Non-2xx status answers end the task with their detail, not "Connection lost".
		if !client.IsTransport(ev.Err) {
			msg = errorMessage(ev.Err, client.MsgConnectionLost)
		}
		s.Task.Status = domain.TaskError
		s.Task.Error = msg
		return s, []Effect{StopPolling{}, s.outcome()}
	}

	report := ev.Report
	if report == nil {
		report = &domain.StatusReport{}
	}

	switch report.Status {
	case domain.RemoteCompleted:
		s.Task.Status = domain.TaskCompleted
		s.Task.Progress = 100
		// Record first so the saved path can be attached to the row later.
		return s, []Effect{
			StopPolling{},
			s.outcome(),
			RetrieveFile{Gen: s.taskGen, TaskID: s.Task.ID},
		}

	case domain.RemoteFailed:
		msg := client.MsgTaskFailed
		if report.Error != nil && *report.Error != "" {
			msg = *report.Error
		}
		s.Task.Status = domain.TaskError
		s.Task.Error = msg
		return s, []Effect{StopPolling{}, s.outcome()}

	default:
		s.Task.Progress = nextProgress(s.Task.Progress, report.ProgressOrZero())
		return s, nil
	}
}

// nextProgress clamps to [0,100] and never goes backwards while downloading.
func nextProgress(current, reported float64) float64 {
	if math.IsNaN(reported) {
		return current
	}
	reported = math.Max(0, math.Min(100, reported))
	return math.Max(current, reported)
}

func (s State) fileRetrieved(ev FileRetrieved) (State, []Effect) {
	if ev.Gen != s.taskGen || s.Task.Status != domain.TaskCompleted {
		return s, nil
	}

	if ev.Err != nil {
		s.Task.RetrieveError = errorMessage(ev.Err, client.MsgFileUnavailable)
		return s, nil
	}
	s.Task.FilePath = ev.Path
	return s, nil
}

func (s State) dismiss() (State, []Effect) {
	if s.Task.Status != domain.TaskError {
		return s, nil
	}

	s.taskGen++
	s.pollInFlight = false
	s.Task = Task{Status: domain.TaskIdle}
	return s, nil
}

// outcome builds the history record for the current terminal task.
func (s State) outcome() RecordOutcome {
	entry := domain.HistoryEntry{
		TaskID:       s.Task.ID,
		URL:          s.PreviewURL,
		FormatID:     s.Task.FormatID,
		Status:       s.Task.Status,
		ErrorMessage: s.Task.Error,
		Platform:     media.DetectPlatform(s.PreviewURL),
	}
	if s.Preview != nil {
		entry.Title = s.Preview.Title
		if s.Preview.Platform != "" {
			entry.Platform = s.Preview.Platform
		}
	}
	return RecordOutcome{Entry: entry}
}
