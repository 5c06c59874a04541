package session

import "github.com/elsanchez/mediasense/internal/domain"

// Event is an input to the session reducer: a user intent or the result of
// an effect. Results carry the generation token of the request that
// produced them.
type Event interface {
	isEvent()
}

// URLChanged replaces the URL text unconditionally.
type URLChanged struct {
	Value string
}

// Submitted asks for the preview of the current URL.
type Submitted struct{}

// PreviewLoaded is the outcome of a metadata fetch.
type PreviewLoaded struct {
	Gen     uint64
	Preview *domain.MediaPreview
	Err     error
}

// FormatSelected starts a download for a format of the current preview.
type FormatSelected struct {
	FormatID string
}

// TaskCreated is the outcome of the create-download request.
type TaskCreated struct {
	Gen    uint64
	TaskID string
	Err    error
}

// PollTick is one firing of the polling timer.
type PollTick struct {
	Gen uint64
}

// PollResult is the outcome of one status request.
type PollResult struct {
	Gen    uint64
	Report *domain.StatusReport
	Err    error
}

// FileRetrieved is the outcome of saving the completed file.
type FileRetrieved struct {
	Gen  uint64
	Path string
	Err  error
}

// Dismissed clears an error task back to idle.
type Dismissed struct{}

func (URLChanged) isEvent()     {}
func (Submitted) isEvent()      {}
func (PreviewLoaded) isEvent()  {}
func (FormatSelected) isEvent() {}
func (TaskCreated) isEvent()    {}
func (PollTick) isEvent()       {}
func (PollResult) isEvent()     {}
func (FileRetrieved) isEvent()  {}
func (Dismissed) isEvent()      {}
