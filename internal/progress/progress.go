// Package progress carries immutable progress events from the scanner, the
// advisory client, and the cleanup executor to whoever is rendering them.
// Delivery is non-blocking: a consumer that lags loses intermediate updates
// instead of stalling or failing the producer.
package progress

import (
	"sync"
	"time"
)

// Stage names emitted by the scanner.
const (
	StageStarting     = "starting"
	StageScanningRoot = "scanning_root"
	StageScanningFile = "scanning_file"
	StageMatched      = "matched"
	StageLargeFile    = "large_file_scan"
	StageStopped      = "stopped"
	StageCompleted    = "completed"
)

// Stage names emitted by the advisory client.
const (
	StagePrepare   = "prepare"
	StageCacheHit  = "cache_hit"
	StageCacheMiss = "cache_miss"
	StageRequest   = "request"
	StageParse     = "parse"
	StageRetry     = "retry"
	StageDone      = "done"
	StageFailed    = "failed"
)

// ScanEvent is a snapshot of scanner progress.
type ScanEvent struct {
	Stage      string
	Current    string
	FilesSeen  int
	ItemsFound int
	Duration   time.Duration
	Timestamp  time.Time
}

// AdvisoryEvent is a snapshot of advisory request progress.
type AdvisoryEvent struct {
	Stage     string
	Detail    string
	Attempt   int
	Timestamp time.Time
}

// CleanEvent is a snapshot of cleanup progress.
type CleanEvent struct {
	CurrentPath string
	Done        int
	Total       int
	FreedBytes  int64
	Timestamp   time.Time
}

// Bus fans events out to subscribers. Sends never block; a full subscriber
// channel drops the event.
type Bus struct {
	mu        sync.Mutex
	listeners []chan interface{}
}

// NewBus creates an empty bus.
func NewBus() *Bus {
	return &Bus{}
}

// Subscribe returns a buffered channel receiving future events.
func (b *Bus) Subscribe() <-chan interface{} {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan interface{}, 64)
	b.listeners = append(b.listeners, ch)
	return ch
}

// Unsubscribe closes and removes a subscriber channel.
func (b *Bus) Unsubscribe(ch <-chan interface{}) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for i, listener := range b.listeners {
		if listener == ch {
			close(listener)
			b.listeners = append(b.listeners[:i], b.listeners[i+1:]...)
			return
		}
	}
}

// Publish delivers an event to every subscriber without blocking.
func (b *Bus) Publish(event interface{}) {
	if b == nil {
		return
	}
	b.mu.Lock()
	listeners := make([]chan interface{}, len(b.listeners))
	copy(listeners, b.listeners)
	b.mu.Unlock()

	for _, listener := range listeners {
		select {
		case listener <- event:
		default:
			// Consumer lagging, drop rather than stall the producer.
		}
	}
}

// Gate rate-limits event emission. Boundary events bypass the gate with
// force; everything else is dropped until the interval has elapsed.
type Gate struct {
	interval time.Duration
	last     time.Time
}

// NewGate creates a gate with the given minimum interval between events.
func NewGate(interval time.Duration) *Gate {
	return &Gate{interval: interval}
}

// Allow reports whether an event should be emitted now and, if so, consumes
// the interval.
func (g *Gate) Allow(now time.Time, force bool) bool {
	if !force && now.Sub(g.last) < g.interval {
		return false
	}
	g.last = now
	return true
}
