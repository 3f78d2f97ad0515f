package pipeline

import (
	"context"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"golang.org/x/time/rate"

	"github.com/you/flatcast/internal/core"
	"github.com/you/flatcast/internal/eventtrace"
)

type captureWriter struct {
	mu      sync.Mutex
	records []core.Record
	traces  []*eventtrace.Trace
}

func (c *captureWriter) Write(rec core.Record, trace *eventtrace.Trace) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.records = append(c.records, rec)
	c.traces = append(c.traces, trace)
	return nil
}

func TestPipelineRunNormalizesEnvelopes(t *testing.T) {
	input := strings.Join([]string{
		`{"event": "WebcastChatMessage", "data": {"comment": "hi", "user": {"uniqueId": "fan1"}}}`,
		``,
		`{"event": "WebcastGiftMessage", "data": {"giftId": 5, "repeatEnd": 1}}`,
	}, "\n")

	capture := &captureWriter{}
	p := New(capture, Options{Metrics: NewMetrics()})

	if err := p.Run(context.Background(), strings.NewReader(input)); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if len(capture.records) != 2 {
		t.Fatalf("records = %d, want 2", len(capture.records))
	}
	chat := capture.records[0]
	if chat["comment"] != "hi" || chat["uniqueId"] != "fan1" {
		t.Fatalf("chat record = %v", chat)
	}
	if _, ok := chat["user"]; ok {
		t.Fatalf("nested user survived normalization")
	}
	gift := capture.records[1]
	if gift["repeatEnd"] != true {
		t.Fatalf("gift.repeatEnd = %v, want true", gift["repeatEnd"])
	}

	stats := p.Stats()
	if stats["received"] != int64(2) || stats["normalized"] != int64(2) {
		t.Fatalf("stats = %v", stats)
	}
	if capture.traces[0] == nil || capture.traces[0].EventType != "WebcastChatMessage" {
		t.Fatalf("trace = %+v", capture.traces[0])
	}
}

func TestPipelineSkipsMalformedLines(t *testing.T) {
	input := strings.Join([]string{
		`not json at all`,
		`{"event": "", "data": {}}`,
		`{"data": {"x": 1}}`,
		`{"event": "WebcastChatMessage", "data": {"comment": "ok"}}`,
	}, "\n")

	capture := &captureWriter{}
	p := New(capture, Options{Metrics: NewMetrics()})

	if err := p.Run(context.Background(), strings.NewReader(input)); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(capture.records) != 1 {
		t.Fatalf("records = %d, want 1", len(capture.records))
	}
	stats := p.Stats()
	if stats["decode_errors"] != int64(3) {
		t.Fatalf("decode_errors = %v, want 3", stats["decode_errors"])
	}
}

func TestPipelineProcessFile(t *testing.T) {
	path := t.TempDir() + "/capture.ndjson"
	content := `{"event": "WebcastQuestionNewMessage", "data": {"details": {"text": "q?"}}}` + "\n"
	if err := writeFile(path, content); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	capture := &captureWriter{}
	p := New(capture, Options{Metrics: NewMetrics()})
	if err := p.ProcessFile(context.Background(), path); err != nil {
		t.Fatalf("ProcessFile() error = %v", err)
	}
	if len(capture.records) != 1 || capture.records[0]["text"] != "q?" {
		t.Fatalf("records = %v", capture.records)
	}
}

func writeFile(path, content string) error {
	return os.WriteFile(path, []byte(content), 0o644)
}

func TestPipelineCountsRateDrops(t *testing.T) {
	input := strings.Join([]string{
		`{"event": "WebcastChatMessage", "data": {"comment": "first"}}`,
		`{"event": "WebcastChatMessage", "data": {"comment": "second"}}`,
	}, "\n")

	// Burst of 1 lets the first event through; the second waits an hour and
	// loses to the context deadline instead.
	limiter := rate.NewLimiter(rate.Every(time.Hour), 1)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	capture := &captureWriter{}
	p := New(capture, Options{Metrics: NewMetrics(), Limiter: limiter})

	if err := p.Run(ctx, strings.NewReader(input)); err != nil && err != context.DeadlineExceeded {
		t.Fatalf("Run() error = %v", err)
	}

	if len(capture.records) != 1 || capture.records[0]["comment"] != "first" {
		t.Fatalf("records = %v, want only the first event", capture.records)
	}
	stats := p.Stats()
	if stats["received"] != int64(2) {
		t.Fatalf("received = %v, want 2", stats["received"])
	}
	if stats["normalized"] != int64(1) {
		t.Fatalf("normalized = %v, want 1", stats["normalized"])
	}
	if stats["rate_dropped"] != int64(1) {
		t.Fatalf("rate_dropped = %v, want 1", stats["rate_dropped"])
	}
}

func TestPipelineProcessFileMissing(t *testing.T) {
	p := New(&captureWriter{}, Options{Metrics: NewMetrics()})
	if err := p.ProcessFile(context.Background(), t.TempDir()+"/nope.ndjson"); err == nil {
		t.Fatalf("expected error for missing file")
	}
}
