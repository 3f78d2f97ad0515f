package eventtrace

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"sync"
)

// Stage represents a pipeline stage used for tracking event processing.
type Stage string

const (
	StageReceived   Stage = "received"
	StageNormalized Stage = "normalized"
	StageWritten    Stage = "written"

	StageDroppedPrefix = "dropped_"
)

// StageDropped creates a Stage for a dropped event with the given reason.
func StageDropped(reason string) Stage {
	return Stage(fmt.Sprintf("%s%s", StageDroppedPrefix, reason))
}

// Trace captures metadata for one raw event as it moves through the pipeline.
type Trace struct {
	EventType string
	Snippet   string
	TraceID   string

	mu       sync.Mutex
	counters map[Stage]int64
}

// New constructs a trace for a freshly received envelope and seeds the
// received counter.
func New(eventType, snippet string) *Trace {
	trace := &Trace{
		EventType: eventType,
		Snippet:   snippet,
		TraceID:   computeTraceID(eventType, snippet),
		counters:  make(map[Stage]int64),
	}
	trace.counters[StageReceived] = 1
	return trace
}

// Mark increments the counter for the provided stage and returns the updated
// value.
func (t *Trace) Mark(stage Stage) int64 {
	if t == nil {
		return 0
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	t.counters[stage]++
	return t.counters[stage]
}

// LogTrace logs the trace metadata and counters using structured logging.
func (t *Trace) LogTrace(logger *slog.Logger, msg string) {
	if t == nil {
		return
	}
	if logger == nil {
		logger = slog.Default()
	}

	logger.Info(msg,
		"trace_id", t.TraceID,
		"event_type", t.EventType,
		"snippet", t.Snippet,
		"counters", t.snapshotCounters(),
	)
}

func (t *Trace) snapshotCounters() map[Stage]int64 {
	t.mu.Lock()
	defer t.mu.Unlock()

	copied := make(map[Stage]int64, len(t.counters))
	for stage, count := range t.counters {
		copied[stage] = count
	}
	return copied
}

func computeTraceID(eventType, snippet string) string {
	digest := sha256.Sum256([]byte(eventType + "\x1f" + snippet))
	return hex.EncodeToString(digest[:])
}
