package session

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elsanchez/mediasense/internal/domain"
	"github.com/elsanchez/mediasense/pkg/client"
)

func ptr[T any](v T) *T { return &v }

func samplePreview() *domain.MediaPreview {
	return &domain.MediaPreview{
		Title:    "Clip",
		Platform: "twitter",
		Formats: []domain.Format{
			{Resolution: "720p", Ext: "mp4", FormatID: "22", Type: "video"},
			{Resolution: "Audio", Ext: "mp3", FormatID: "140", Type: "audio"},
		},
	}
}

// apply feeds events in order and returns the final state plus every effect.
func apply(s State, events ...Event) (State, []Effect) {
	var all []Effect
	for _, ev := range events {
		var effects []Effect
		s, effects = s.Apply(ev)
		all = append(all, effects...)
	}
	return s, all
}

// withPreview returns a state holding a loaded preview for url.
func withPreview(t *testing.T, url string) State {
	t.Helper()
	s, effects := apply(NewState(), URLChanged{Value: url}, Submitted{})
	require.Len(t, effects, 1)
	fetch := effects[0].(FetchPreview)
	s, _ = s.Apply(PreviewLoaded{Gen: fetch.Gen, Preview: samplePreview()})
	require.NotNil(t, s.Preview)
	return s
}

// downloading returns a state with a running task abc123 on format 22.
func downloading(t *testing.T) State {
	t.Helper()
	s := withPreview(t, "https://x.com/u/status/1")
	s, _ = s.Apply(FormatSelected{FormatID: "22"})
	s, effects := s.Apply(TaskCreated{Gen: s.TaskGeneration(), TaskID: "abc123"})
	require.Equal(t, []Effect{StartPolling{Gen: s.TaskGeneration(), TaskID: "abc123"}}, effects)
	return s
}

func effectsOf[T Effect](effects []Effect) []T {
	var out []T
	for _, e := range effects {
		if v, ok := e.(T); ok {
			out = append(out, v)
		}
	}
	return out
}

func TestSubmit_EmptyURLIsNoop(t *testing.T) {
	for _, raw := range []string{"", " ", "\t", "  \n  "} {
		s, _ := NewState().Apply(URLChanged{Value: raw})
		next, effects := s.Apply(Submitted{})

		assert.Empty(t, effects, "url %q", raw)
		assert.Equal(t, s, next, "url %q", raw)
		assert.False(t, next.CanSubmit())
	}
}

func TestSubmit_IgnoredWhileLoading(t *testing.T) {
	s, effects := apply(NewState(), URLChanged{Value: "https://x.com/a"}, Submitted{})
	require.Len(t, effects, 1)
	assert.True(t, s.Loading)

	next, effects := apply(s, URLChanged{Value: "https://x.com/b"}, Submitted{})
	assert.Empty(t, effects)
	assert.Equal(t, "https://x.com/a", next.PreviewURL)
	assert.Equal(t, s.FetchGeneration(), next.FetchGeneration())
}

func TestSubmit_TrimsAndClearsPreviousError(t *testing.T) {
	s := NewState()
	s.Error = "Unsupported URL"

	s, effects := apply(s, URLChanged{Value: "  https://x.com/u/status/1  "}, Submitted{})
	require.Equal(t, []Effect{FetchPreview{Gen: 1, URL: "https://x.com/u/status/1"}}, effects)
	assert.True(t, s.Loading)
	assert.Empty(t, s.Error)
	assert.Nil(t, s.Preview)
}

func TestPreviewLoaded_PreservesFormats(t *testing.T) {
	s := withPreview(t, "https://x.com/u/status/1")
	assert.False(t, s.Loading)
	assert.Equal(t, samplePreview().Formats, s.Preview.Formats)
}

func TestPreviewLoaded_Errors(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		preview *domain.MediaPreview
		want    string
	}{
		{"server detail", &client.ServerError{Op: "analyze", StatusCode: 404, Message: "Unsupported URL"}, nil, "Unsupported URL"},
		{"transport", &client.TransportError{Op: "analyze", Err: errors.New("dial tcp: refused")}, nil, "dial tcp: refused"},
		{"empty message", errors.New(""), nil, client.MsgAnalyzeNetwork},
		{"nil preview", nil, nil, client.MsgAnalyzeFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, _ := apply(NewState(), URLChanged{Value: "https://example.com/nope"}, Submitted{})
			s, effects := s.Apply(PreviewLoaded{Gen: s.FetchGeneration(), Preview: tt.preview, Err: tt.err})

			assert.Empty(t, effects)
			assert.False(t, s.Loading)
			assert.Equal(t, tt.want, s.Error)
			assert.Nil(t, s.Preview)
		})
	}
}

func TestPreviewLoaded_StaleGenerationIgnored(t *testing.T) {
	s, _ := apply(NewState(), URLChanged{Value: "https://x.com/a"}, Submitted{})
	stale := s.FetchGeneration()
	s, _ = s.Apply(PreviewLoaded{Gen: stale, Preview: samplePreview()})

	s, _ = apply(s, URLChanged{Value: "https://x.com/b"}, Submitted{})
	next, _ := s.Apply(PreviewLoaded{Gen: stale, Preview: &domain.MediaPreview{Title: "old"}})

	assert.True(t, next.Loading)
	assert.Nil(t, next.Preview)
	assert.Equal(t, "https://x.com/b", next.PreviewURL)
}

func TestSelectFormat_SendsExactFormatID(t *testing.T) {
	for _, id := range []string{"22", "140", "bestvideo+bestaudio/best", " 22 "} {
		s := withPreview(t, "https://x.com/u/status/1")
		s, _ = s.Apply(URLChanged{Value: "https://typed-after.example"})
		s, effects := s.Apply(FormatSelected{FormatID: id})

		creates := effectsOf[CreateTask](effects)
		require.Len(t, creates, 1)
		assert.Equal(t, id, creates[0].FormatID)
		assert.Equal(t, "https://x.com/u/status/1", creates[0].URL)
		assert.Equal(t, domain.TaskStarting, s.Task.Status)
		assert.Zero(t, s.Task.Progress)
	}
}

func TestSelectFormat_RequiresPreview(t *testing.T) {
	s, effects := NewState().Apply(FormatSelected{FormatID: "22"})
	assert.Empty(t, effects)
	assert.Equal(t, domain.TaskIdle, s.Task.Status)

	s = withPreview(t, "https://x.com/u/status/1")
	_, effects = s.Apply(FormatSelected{FormatID: ""})
	assert.Empty(t, effects)
}

func TestProgress_MonotonicAndClamped(t *testing.T) {
	s := downloading(t)
	gen := s.TaskGeneration()

	steps := []struct {
		reported float64
		want     float64
	}{
		{10, 10},
		{50, 50},
		{30, 50},
		{-5, 50},
		{75.5, 75.5},
		{250, 100},
	}

	for _, step := range steps {
		s, _ = s.Apply(PollTick{Gen: gen})
		require.True(t, s.PollInFlight())
		s, _ = s.Apply(PollResult{Gen: gen, Report: &domain.StatusReport{
			Status:   domain.RemoteDownloading,
			Progress: ptr(step.reported),
		}})
		assert.Equal(t, step.want, s.Task.Progress, "reported %v", step.reported)
		assert.Equal(t, domain.TaskDownloading, s.Task.Status)
	}
}

func TestPollTick_SkippedWhileInFlight(t *testing.T) {
	s := downloading(t)
	gen := s.TaskGeneration()

	s, effects := s.Apply(PollTick{Gen: gen})
	require.Equal(t, []Effect{PollStatus{Gen: gen, TaskID: "abc123"}}, effects)

	s, effects = s.Apply(PollTick{Gen: gen})
	assert.Empty(t, effects)

	s, _ = s.Apply(PollResult{Gen: gen, Report: &domain.StatusReport{Status: domain.RemotePending}})
	_, effects = s.Apply(PollTick{Gen: gen})
	assert.Len(t, effects, 1)
}

func TestPollResult_CrossTaskUpdatesIgnored(t *testing.T) {
	s := downloading(t)
	oldGen := s.TaskGeneration()
	s, _ = s.Apply(PollTick{Gen: oldGen})

	s, effects := s.Apply(FormatSelected{FormatID: "140"})
	assert.Equal(t, StopPolling{}, effects[0], "old timer must be stopped before the new task starts")
	s, _ = s.Apply(TaskCreated{Gen: s.TaskGeneration(), TaskID: "def456"})

	next, effects := s.Apply(PollResult{Gen: oldGen, Report: &domain.StatusReport{
		Status:   domain.RemoteDownloading,
		Progress: ptr(90.0),
	}})
	assert.Empty(t, effects)
	assert.Equal(t, s, next)

	next, effects = s.Apply(PollTick{Gen: oldGen})
	assert.Empty(t, effects)
	assert.False(t, next.PollInFlight())
	assert.Equal(t, "def456", next.Task.ID)
}

func TestPollResult_ConnectionLost(t *testing.T) {
	s := downloading(t)
	gen := s.TaskGeneration()
	s, _ = s.Apply(PollTick{Gen: gen})

	s, effects := s.Apply(PollResult{Gen: gen, Err: &client.TransportError{Op: "status", Err: errors.New("EOF")}})
	assert.Equal(t, domain.TaskError, s.Task.Status)
	assert.Equal(t, client.MsgConnectionLost, s.Task.Error)
	require.Len(t, effects, 2)
	assert.Equal(t, StopPolling{}, effects[0])
	assert.Equal(t, domain.TaskError, effects[1].(RecordOutcome).Entry.Status)
}

func TestPollResult_ServerErrorUsesDetail(t *testing.T) {
	s := downloading(t)
	gen := s.TaskGeneration()

	s, effects := s.Apply(PollResult{Gen: gen, Err: &client.ServerError{Op: "status", StatusCode: 404, Message: "Task not found"}})
	assert.Equal(t, domain.TaskError, s.Task.Status)
	assert.Equal(t, "Task not found", s.Task.Error)
	assert.Len(t, effectsOf[StopPolling](effects), 1)
	require.Len(t, effectsOf[RecordOutcome](effects), 1)
	assert.Equal(t, "Task not found", effectsOf[RecordOutcome](effects)[0].Entry.ErrorMessage)
}

func TestPollResult_FailedWithoutMessage(t *testing.T) {
	s := downloading(t)
	s, _ = s.Apply(PollResult{Gen: s.TaskGeneration(), Report: &domain.StatusReport{Status: domain.RemoteFailed}})
	assert.Equal(t, client.MsgTaskFailed, s.Task.Error)
}

// https://x.com/u/status/1 -> 22 -> abc123 -> 50% -> completed.
func TestScenario_HappyPath(t *testing.T) {
	s := withPreview(t, "https://x.com/u/status/1")
	require.Len(t, s.Preview.Formats, 2)

	s, effects := s.Apply(FormatSelected{FormatID: "22"})
	require.Equal(t, "22", effectsOf[CreateTask](effects)[0].FormatID)

	s, _ = s.Apply(TaskCreated{Gen: s.TaskGeneration(), TaskID: "abc123"})
	gen := s.TaskGeneration()

	s, _ = apply(s,
		PollTick{Gen: gen},
		PollResult{Gen: gen, Report: &domain.StatusReport{Status: domain.RemoteDownloading, Progress: ptr(50.0)}},
	)
	assert.Equal(t, 50.0, s.Task.Progress)

	s, effects = apply(s,
		PollTick{Gen: gen},
		PollResult{Gen: gen, Report: &domain.StatusReport{Status: domain.RemoteCompleted}},
	)
	assert.Equal(t, domain.TaskCompleted, s.Task.Status)
	assert.Equal(t, 100.0, s.Task.Progress)

	require.Len(t, effects, 4)
	assert.Equal(t, StopPolling{}, effects[1])
	record := effects[2].(RecordOutcome)
	assert.Equal(t, "abc123", record.Entry.TaskID)
	assert.Equal(t, "Clip", record.Entry.Title)
	assert.Equal(t, "twitter", record.Entry.Platform)
	assert.Equal(t, RetrieveFile{Gen: gen, TaskID: "abc123"}, effects[3])

	s, _ = s.Apply(FileRetrieved{Gen: gen, Path: "/tmp/Clip.mp4"})
	assert.Equal(t, "/tmp/Clip.mp4", s.Task.FilePath)
	assert.Equal(t, domain.TaskCompleted, s.Task.Status)
}

func TestScenario_CreateDownloadTransportError(t *testing.T) {
	s := withPreview(t, "https://x.com/u/status/1")
	s, _ = s.Apply(FormatSelected{FormatID: "22"})

	s, effects := s.Apply(TaskCreated{Gen: s.TaskGeneration(), Err: &client.TransportError{Op: "create download", Err: errors.New("Network down")}})
	assert.Empty(t, effects)
	assert.Equal(t, domain.TaskError, s.Task.Status)
	assert.Equal(t, "Network down", s.Task.Error)
	assert.Empty(t, s.Task.ID)
}

func TestScenario_FailedThenDismiss(t *testing.T) {
	s := downloading(t)
	gen := s.TaskGeneration()

	s, effects := apply(s,
		PollTick{Gen: gen},
		PollResult{Gen: gen, Report: &domain.StatusReport{Status: domain.RemoteFailed, Error: ptr("Video removed")}},
	)
	assert.Equal(t, domain.TaskError, s.Task.Status)
	assert.Equal(t, "Video removed", s.Task.Error)
	assert.Contains(t, effects, Effect(StopPolling{}))

	// Late ticks after the failure do nothing.
	_, effects = s.Apply(PollTick{Gen: gen})
	assert.Empty(t, effects)

	s, effects = s.Apply(Dismissed{})
	assert.Empty(t, effects)
	assert.Equal(t, Task{Status: domain.TaskIdle}, s.Task)
	assert.NotNil(t, s.Preview)

	s, effects = s.Apply(FormatSelected{FormatID: "140"})
	require.Len(t, effectsOf[CreateTask](effects), 1)
	s, _ = s.Apply(TaskCreated{Gen: s.TaskGeneration(), TaskID: "fresh1"})
	assert.Equal(t, "fresh1", s.Task.ID)
	assert.Equal(t, domain.TaskDownloading, s.Task.Status)
	assert.Zero(t, s.Task.Progress)
}

func TestDismiss_OnlyFromError(t *testing.T) {
	s := downloading(t)
	next, _ := s.Apply(Dismissed{})
	assert.Equal(t, s, next)

	for _, msg := range []string{"", "x", "Connection lost"} {
		e := downloading(t)
		e.Task.Status = domain.TaskError
		e.Task.Error = msg
		e.Task.Progress = 40
		e, _ = e.Apply(Dismissed{})
		assert.Equal(t, Task{Status: domain.TaskIdle}, e.Task)
		assert.False(t, e.Task.Present())
	}
}

func TestSubmit_ReleasesRunningTask(t *testing.T) {
	s := downloading(t)
	gen := s.TaskGeneration()

	s, effects := apply(s, URLChanged{Value: "https://vimeo.com/1"}, Submitted{})
	require.Len(t, effects, 2)
	assert.Equal(t, StopPolling{}, effects[0])
	assert.IsType(t, FetchPreview{}, effects[1])
	assert.Equal(t, domain.TaskIdle, s.Task.Status)

	_, effects = s.Apply(PollResult{Gen: gen, Report: &domain.StatusReport{Status: domain.RemoteCompleted}})
	assert.Empty(t, effects)
}

func TestFileRetrieved_ErrorKeepsCompleted(t *testing.T) {
	s := downloading(t)
	gen := s.TaskGeneration()
	s, _ = s.Apply(PollResult{Gen: gen, Report: &domain.StatusReport{Status: domain.RemoteCompleted}})

	s, _ = s.Apply(FileRetrieved{Gen: gen, Err: errors.New("File not ready or found")})
	assert.Equal(t, domain.TaskCompleted, s.Task.Status)
	assert.Equal(t, "File not ready or found", s.Task.RetrieveError)
	assert.Empty(t, s.Task.FilePath)
}
