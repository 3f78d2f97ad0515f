package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("FLATCAST_SINKS", "")
	t.Setenv("FLATCAST_SINK_NDJSON_PATH", "")
	t.Setenv("FLATCAST_SINK_BATCH_SIZE", "")
	t.Setenv("FLATCAST_SINK_FLUSH_MAX_MS", "")
	t.Setenv("FLATCAST_INPUT", "")
	t.Setenv("FLATCAST_SPOOL_DIR", "")
	t.Setenv("FLATCAST_RATE_EVENTS_PER_SEC", "")
	t.Setenv("FLATCAST_RATE_BURST", "")
	t.Setenv("FLATCAST_HTTP_ADDR", "")

	cfg := Load()
	if !cfg.HasSink("ndjson") {
		t.Fatalf("expected ndjson sink by default, got %v", cfg.Sinks)
	}
	if cfg.Batch() != 1 {
		t.Fatalf("expected default batch size 1, got %d", cfg.Batch())
	}
	if cfg.FlushInterval() != 0 {
		t.Fatalf("expected zero flush interval, got %s", cfg.FlushInterval())
	}
	if cfg.Rate.EventsPerSec != 0 {
		t.Fatalf("expected unlimited rate by default, got %d", cfg.Rate.EventsPerSec)
	}
	if cfg.HTTP.Addr != "" {
		t.Fatalf("expected http disabled by default, got %q", cfg.HTTP.Addr)
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("FLATCAST_SINKS", "ndjson, ndjson;")
	t.Setenv("FLATCAST_SINK_NDJSON_PATH", "/data/flat.ndjson")
	t.Setenv("FLATCAST_SINK_BATCH_SIZE", "50")
	t.Setenv("FLATCAST_SINK_FLUSH_MAX_MS", "200")
	t.Setenv("FLATCAST_INPUT", "capture.ndjson")
	t.Setenv("FLATCAST_SPOOL_DIR", "/var/spool/flatcast")
	t.Setenv("FLATCAST_RATE_EVENTS_PER_SEC", "100")
	t.Setenv("FLATCAST_RATE_BURST", "10")
	t.Setenv("FLATCAST_HTTP_ADDR", ":9120")

	cfg := Load()
	if len(cfg.Sinks) != 1 {
		t.Fatalf("expected deduped sink list, got %v", cfg.Sinks)
	}
	if cfg.Sink.NDJSON.Path != "/data/flat.ndjson" {
		t.Fatalf("unexpected ndjson path: %q", cfg.Sink.NDJSON.Path)
	}
	if cfg.Batch() != 50 {
		t.Fatalf("batch = %d, want 50", cfg.Batch())
	}
	if cfg.FlushInterval() != 200*time.Millisecond {
		t.Fatalf("flush interval = %s, want 200ms", cfg.FlushInterval())
	}
	if cfg.Input.Path != "capture.ndjson" || cfg.Input.SpoolDir != "/var/spool/flatcast" {
		t.Fatalf("input = %+v", cfg.Input)
	}
	if cfg.Rate.EventsPerSec != 100 || cfg.Rate.Burst != 10 {
		t.Fatalf("rate = %+v", cfg.Rate)
	}
	if cfg.HTTP.Addr != ":9120" {
		t.Fatalf("http addr = %q", cfg.HTTP.Addr)
	}
}

func TestReadIntRejectsGarbage(t *testing.T) {
	t.Setenv("FLATCAST_SINK_BATCH_SIZE", "nope")
	cfg := Load()
	if cfg.Batch() != 1 {
		t.Fatalf("expected default batch on bad value, got %d", cfg.Batch())
	}
}
