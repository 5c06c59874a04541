package session

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/r3labs/diff/v3"
	"go.uber.org/zap"

	"github.com/elsanchez/mediasense/internal/domain"
)

// DefaultPollInterval is the status polling period.
const DefaultPollInterval = time.Second

// Service is the remote MediaSense API as the session sees it.
type Service interface {
	Analyze(ctx context.Context, mediaURL string) (*domain.MediaPreview, error)
	CreateDownload(ctx context.Context, mediaURL, formatID string) (string, error)
	Status(ctx context.Context, taskID string) (*domain.StatusReport, error)
}

// Retriever saves the file of a completed task and returns its local path.
type Retriever interface {
	Retrieve(ctx context.Context, taskID string) (string, error)
}

// Recorder stores terminal outcomes.
type Recorder interface {
	Record(ctx context.Context, entry *domain.HistoryEntry) (int64, error)
	UpdateOutputPath(ctx context.Context, taskID, path string) error
}

// Options configures an Engine. Zero values are usable.
type Options struct {
	PollInterval time.Duration
	Retriever    Retriever
	Recorder     Recorder
	Logger       *zap.SugaredLogger
	SessionID    string
}

// Engine runs the session: one goroutine applies events to the state in
// arrival order and executes the resulting effects. Network calls run in
// their own goroutines and come back as events.
type Engine struct {
	svc       Service
	retriever Retriever
	recorder  Recorder
	logger    *zap.SugaredLogger
	sessionID string

	events  chan Event
	updates chan State
	done    chan struct{}
	history chan func(context.Context)

	poller      *poller
	wg          sync.WaitGroup
	state       State
	taskStarted time.Time
	runOnce     sync.Once
}

// NewEngine creates an engine for svc.
func NewEngine(svc Service, opts Options) *Engine {
	if opts.PollInterval <= 0 {
		opts.PollInterval = DefaultPollInterval
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop().Sugar()
	}
	if opts.SessionID == "" {
		opts.SessionID = uuid.NewString()
	}

	events := make(chan Event, 64)
	return &Engine{
		svc:       svc,
		retriever: opts.Retriever,
		recorder:  opts.Recorder,
		logger:    opts.Logger.With("session", opts.SessionID),
		sessionID: opts.SessionID,
		events:    events,
		updates:   make(chan State, 1),
		done:      make(chan struct{}),
		history:   make(chan func(context.Context), 16),
		poller:    newPoller(events, opts.PollInterval),
		state:     NewState(),
	}
}

// SessionID identifies this engine run in the history.
func (e *Engine) SessionID() string {
	return e.sessionID
}

// Dispatch queues a user event. It returns false once the engine stopped.
func (e *Engine) Dispatch(ev Event) bool {
	// events may still have room after shutdown; done wins.
	select {
	case <-e.done:
		return false
	default:
	}

	select {
	case e.events <- ev:
		return true
	case <-e.done:
		return false
	}
}

// Updates delivers state snapshots. Only the latest unread snapshot is
// kept; the channel is closed when Run returns.
func (e *Engine) Updates() <-chan State {
	return e.updates
}

// Run processes events until ctx is done. All resources (ticker, effect
// goroutines, history writer) are released before it returns.
func (e *Engine) Run(ctx context.Context) error {
	started := false
	e.runOnce.Do(func() { started = true })
	if !started {
		return fmt.Errorf("engine already ran")
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	writerDone := make(chan struct{})
	go e.historyWriter(writerDone)

	e.logger.Debug("Session engine started")
	e.publish(e.state)

	for {
		select {
		case <-runCtx.Done():
			e.shutdown(cancel, writerDone)
			return nil
		case ev := <-e.events:
			e.apply(runCtx, ev)
		}
	}
}

func (e *Engine) shutdown(cancel context.CancelFunc, writerDone <-chan struct{}) {
	e.logger.Debug("Session engine stopping...")
	cancel()
	e.poller.Stop()
	close(e.done)
	e.wg.Wait()
	close(e.history)
	<-writerDone
	close(e.updates)
	e.logger.Debug("Session engine stopped")
}

func (e *Engine) apply(ctx context.Context, ev Event) {
	prev := e.state
	next, effects := prev.Apply(ev)
	e.state = next

	e.logTransition(ev, prev, next)

	for _, eff := range effects {
		e.execute(ctx, eff)
	}
	e.publish(next)
}

func (e *Engine) publish(s State) {
	select {
	case e.updates <- s:
		return
	default:
	}
	// Drop the stale snapshot; this goroutine is the only sender.
	select {
	case <-e.updates:
	default:
	}
	select {
	case e.updates <- s:
	default:
	}
}

// send delivers an effect result back to the loop.
func (e *Engine) send(ev Event) {
	select {
	case e.events <- ev:
	case <-e.done:
	}
}

func (e *Engine) spawn(f func()) {
	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		f()
	}()
}

func (e *Engine) execute(ctx context.Context, eff Effect) {
	switch eff := eff.(type) {
	case FetchPreview:
		e.logger.Infof("Fetching preview for %s", eff.URL)
		e.spawn(func() {
			preview, err := e.svc.Analyze(ctx, eff.URL)
			e.send(PreviewLoaded{Gen: eff.Gen, Preview: preview, Err: err})
		})

	case CreateTask:
		e.logger.Infof("Starting download: format=%s", eff.FormatID)
		e.taskStarted = time.Now()
		e.spawn(func() {
			taskID, err := e.svc.CreateDownload(ctx, eff.URL, eff.FormatID)
			e.send(TaskCreated{Gen: eff.Gen, TaskID: taskID, Err: err})
		})

	case StartPolling:
		e.logger.Debugf("Polling task %s", eff.TaskID)
		e.poller.Start(eff.Gen)

	case StopPolling:
		e.poller.Stop()

	case PollStatus:
		e.spawn(func() {
			report, err := e.svc.Status(ctx, eff.TaskID)
			e.send(PollResult{Gen: eff.Gen, Report: report, Err: err})
		})

	case RetrieveFile:
		if e.retriever == nil {
			return
		}
		e.spawn(func() {
			path, err := e.retriever.Retrieve(ctx, eff.TaskID)
			if err != nil {
				e.logger.Warnw("File retrieval failed", "task_id", eff.TaskID, "error", err)
			} else {
				e.enqueueHistory(func(ctx context.Context) {
					if e.recorder == nil {
						return
					}
					if err := e.recorder.UpdateOutputPath(ctx, eff.TaskID, path); err != nil {
						e.logger.Warnw("Failed to update history output path", "task_id", eff.TaskID, "error", err)
					}
				})
			}
			e.send(FileRetrieved{Gen: eff.Gen, Path: path, Err: err})
		})

	case RecordOutcome:
		if e.recorder == nil {
			return
		}
		entry := eff.Entry
		entry.SessionID = e.sessionID
		entry.CreatedAt = e.taskStarted
		entry.FinishedAt = time.Now()
		e.enqueueHistory(func(ctx context.Context) {
			if _, err := e.recorder.Record(ctx, &entry); err != nil {
				e.logger.Warnw("Failed to record history", "task_id", entry.TaskID, "error", err)
			}
		})
	}
}

// enqueueHistory keeps history writes in order (record before path update)
// without doing storage I/O on the event loop.
func (e *Engine) enqueueHistory(job func(context.Context)) {
	e.history <- job
}

func (e *Engine) historyWriter(done chan<- struct{}) {
	defer close(done)
	// Writes must survive shutdown of the run context.
	ctx := context.Background()
	for job := range e.history {
		job(ctx)
	}
}

func (e *Engine) logTransition(ev Event, prev, next State) {
	if prev.Task.Status != next.Task.Status {
		e.logger.Infow("Task transition",
			"from", prev.Task.Status,
			"to", next.Task.Status,
			"task_id", next.Task.ID,
			"error", next.Task.Error,
		)
	}

	if !e.logger.Desugar().Core().Enabled(zap.DebugLevel) {
		return
	}

	changes, err := diff.Diff(prev, next)
	if err != nil {
		e.logger.Debugf("failed to diff session state: %v", err)
		return
	}
	for _, change := range changes {
		e.logger.Debugf("%T: %s: %#v -> %#v", ev, strings.Join(change.Path, "."), change.From, change.To)
	}
}
