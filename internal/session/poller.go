package session

import (
	"sync"
	"sync/atomic"
	"time"
)

// poller owns the single polling ticker of a session. Start always stops
// the previous ticker (and waits for its goroutine) before arming a new one,
// so two tasks can never tick at the same time.
type poller struct {
	out      chan<- Event
	interval time.Duration

	mu      sync.Mutex
	stop    chan struct{}
	done    chan struct{}
	running atomic.Int32
}

func newPoller(out chan<- Event, interval time.Duration) *poller {
	return &poller{out: out, interval: interval}
}

// Start arms the ticker for one task generation.
func (p *poller) Start(gen uint64) {
	p.Stop()

	stop := make(chan struct{})
	done := make(chan struct{})

	p.mu.Lock()
	p.stop, p.done = stop, done
	p.mu.Unlock()

	p.running.Add(1)
	go func() {
		defer close(done)
		defer p.running.Add(-1)

		ticker := time.NewTicker(p.interval)
		defer ticker.Stop()

		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				select {
				case p.out <- PollTick{Gen: gen}:
				case <-stop:
					return
				}
			}
		}
	}()
}

// Stop releases the ticker. Idempotent; returns once the ticker goroutine
// has exited.
func (p *poller) Stop() {
	p.mu.Lock()
	stop, done := p.stop, p.done
	p.stop, p.done = nil, nil
	p.mu.Unlock()

	if stop == nil {
		return
	}
	close(stop)
	<-done
}

// Running returns how many ticker goroutines are alive (0 or 1).
func (p *poller) Running() int {
	return int(p.running.Load())
}
