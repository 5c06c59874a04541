package session

import "github.com/elsanchez/mediasense/internal/domain"

// Effect is work the reducer asks the runtime to do. Effects never touch
// state; their results come back as events.
type Effect interface {
	isEffect()
}

// FetchPreview calls the analyze endpoint.
type FetchPreview struct {
	Gen uint64
	URL string
}

// CreateTask calls the create-download endpoint.
type CreateTask struct {
	Gen      uint64
	URL      string
	FormatID string
}

// StartPolling (re)arms the polling timer for a task. Any running timer is
// stopped first.
type StartPolling struct {
	Gen    uint64
	TaskID string
}

// StopPolling releases the polling timer.
type StopPolling struct{}

// PollStatus calls the status endpoint once.
type PollStatus struct {
	Gen    uint64
	TaskID string
}

// RetrieveFile downloads the finished file.
type RetrieveFile struct {
	Gen    uint64
	TaskID string
}

// RecordOutcome stores a terminal task in the local history.
type RecordOutcome struct {
	Entry domain.HistoryEntry
}

func (FetchPreview) isEffect()  {}
func (CreateTask) isEffect()    {}
func (StartPolling) isEffect()  {}
func (StopPolling) isEffect()   {}
func (PollStatus) isEffect()    {}
func (RetrieveFile) isEffect()  {}
func (RecordOutcome) isEffect() {}
