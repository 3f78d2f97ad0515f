package eventtrace

import "testing"

func TestNewSeedsReceived(t *testing.T) {
	trace := New("WebcastChatMessage", "hello")
	if trace.TraceID == "" {
		t.Fatalf("expected non-empty trace id")
	}
	if got := trace.Mark(StageReceived); got != 2 {
		t.Fatalf("received counter = %d, want 2 (seeded plus one)", got)
	}
}

func TestTraceIDDeterministic(t *testing.T) {
	a := New("WebcastGiftMessage", "rose")
	b := New("WebcastGiftMessage", "rose")
	c := New("WebcastGiftMessage", "other")
	if a.TraceID != b.TraceID {
		t.Fatalf("same inputs must yield same trace id")
	}
	if a.TraceID == c.TraceID {
		t.Fatalf("different snippets must yield different trace ids")
	}
}

func TestMarkOnNilTrace(t *testing.T) {
	var trace *Trace
	if got := trace.Mark(StageWritten); got != 0 {
		t.Fatalf("Mark on nil trace = %d, want 0", got)
	}
}

func TestStageDropped(t *testing.T) {
	if got := StageDropped("decode"); got != Stage("dropped_decode") {
		t.Fatalf("StageDropped() = %q", got)
	}
}
