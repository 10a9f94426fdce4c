// Package broadcast fans out the steps of a run to live subscribers.
package broadcast

import (
	"sync"

	"github.com/aretw0/rill/pkg/domain"
)

// subscriberBuffer bounds each subscriber's channel. When it fills, the
// oldest buffered step is dropped so the producer never blocks.
const subscriberBuffer = 64

// Broadcaster delivers each committed step of a run to its current
// subscribers, in order, without ever blocking the producer. Late
// subscribers receive only steps published after they subscribed; there
// is no backfill.
type Broadcaster struct {
	mu   sync.RWMutex
	runs map[string]map[chan domain.Step]struct{}
}

// New creates an empty broadcaster.
func New() *Broadcaster {
	return &Broadcaster{
		runs: make(map[string]map[chan domain.Step]struct{}),
	}
}

// Subscribe registers a new subscriber for a run and returns its channel
// together with an unsubscribe function. The channel is closed when the
// run finishes or when the subscriber unsubscribes. Unsubscribe is
// idempotent.
func (b *Broadcaster) Subscribe(runID string) (<-chan domain.Step, func()) {
	ch := make(chan domain.Step, subscriberBuffer)

	b.mu.Lock()
	subs, ok := b.runs[runID]
	if !ok {
		subs = make(map[chan domain.Step]struct{})
		b.runs[runID] = subs
	}
	subs[ch] = struct{}{}
	b.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			b.mu.Lock()
			if subs, ok := b.runs[runID]; ok {
				if _, present := subs[ch]; present {
					delete(subs, ch)
					close(ch)
				}
				if len(subs) == 0 {
					delete(b.runs, runID)
				}
			}
			b.mu.Unlock()
		})
	}
	return ch, cancel
}

// Publish fans a step out to every current subscriber of the run. If a
// subscriber's buffer is full, its oldest buffered step is dropped to
// make room; the producer is never awaited.
func (b *Broadcaster) Publish(runID string, step domain.Step) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for ch := range b.runs[runID] {
		select {
		case ch <- step:
		default:
			// Drop the oldest entry, then retry once. A concurrent reader
			// may have drained the channel in between, so the retry is
			// still non-blocking.
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- step:
			default:
			}
		}
	}
}

// Close ends the stream for all subscribers of a run. Called by the run
// manager when the run reaches a terminal status.
func (b *Broadcaster) Close(runID string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for ch := range b.runs[runID] {
		close(ch)
	}
	delete(b.runs, runID)
}

// SubscriberCount returns the number of live subscribers for a run.
func (b *Broadcaster) SubscriberCount(runID string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.runs[runID])
}
