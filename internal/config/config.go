package config

import (
	"encoding/json"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Sinks []string
	Sink  SinkConfig
	Input InputConfig
	Rate  RateConfig
	HTTP  HTTPConfig
}

type SinkConfig struct {
	NDJSON     NDJSONConfig
	BatchSize  int
	FlushMaxMS int
}

type NDJSONConfig struct {
	Path string // "" or "-" means stdout
}

type InputConfig struct {
	Path     string // NDJSON envelope file; "" or "-" means stdin
	SpoolDir string // when set, watch a spool directory instead
}

type RateConfig struct {
	EventsPerSec int // 0 disables replay pacing
	Burst        int
}

type HTTPConfig struct {
	Addr string // health/metrics listener; "" disables it
}

const (
	defaultBatchSize = 1
	defaultFlushMS   = 0
	defaultRateBurst = 1
)

func Load() Config {
	cfg := Config{}

	raw := strings.TrimSpace(os.Getenv("FLATCAST_SINKS"))
	if raw == "" {
		raw = "ndjson"
	}
	cfg.Sinks = splitList(raw)

	cfg.Sink.NDJSON.Path = strings.TrimSpace(os.Getenv("FLATCAST_SINK_NDJSON_PATH"))
	cfg.Sink.BatchSize = readInt("FLATCAST_SINK_BATCH_SIZE", defaultBatchSize)
	cfg.Sink.FlushMaxMS = readInt("FLATCAST_SINK_FLUSH_MAX_MS", defaultFlushMS)

	cfg.Input.Path = strings.TrimSpace(os.Getenv("FLATCAST_INPUT"))
	cfg.Input.SpoolDir = strings.TrimSpace(os.Getenv("FLATCAST_SPOOL_DIR"))

	cfg.Rate.EventsPerSec = readInt("FLATCAST_RATE_EVENTS_PER_SEC", 0)
	cfg.Rate.Burst = readInt("FLATCAST_RATE_BURST", defaultRateBurst)

	cfg.HTTP.Addr = strings.TrimSpace(os.Getenv("FLATCAST_HTTP_ADDR"))

	return cfg
}

func splitList(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	parts := strings.FieldsFunc(raw, func(r rune) bool {
		switch r {
		case ',', ';', ' ', '\t', '\n':
			return true
		}
		return false
	})
	out := make([]string, 0, len(parts))
	seen := make(map[string]struct{}, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		key := strings.ToLower(p)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, p)
	}
	return out
}

func readInt(name string, def int) int {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	if n < 0 {
		return def
	}
	return n
}

func (c Config) HasSink(name string) bool {
	name = strings.ToLower(strings.TrimSpace(name))
	for _, s := range c.Sinks {
		if strings.ToLower(strings.TrimSpace(s)) == name {
			return true
		}
	}
	return false
}

func (c Config) Batch() int {
	if c.Sink.BatchSize <= 0 {
		return defaultBatchSize
	}
	return c.Sink.BatchSize
}

func (c Config) FlushInterval() time.Duration {
	if c.Sink.FlushMaxMS <= 0 {
		return 0
	}
	return time.Duration(c.Sink.FlushMaxMS) * time.Millisecond
}

func (c Config) Summary() map[string]any {
	return map[string]any{
		"sinks": append([]string(nil), c.Sinks...),
		"sink": map[string]any{
			"ndjson_path": c.Sink.NDJSON.Path,
			"batch_size":  c.Sink.BatchSize,
			"flush_ms":    c.Sink.FlushMaxMS,
		},
		"input": map[string]any{
			"path":      c.Input.Path,
			"spool_dir": c.Input.SpoolDir,
		},
		"rate": map[string]any{
			"events_per_sec": c.Rate.EventsPerSec,
			"burst":          c.Rate.Burst,
		},
		"http": map[string]any{
			"addr": c.HTTP.Addr,
		},
	}
}

func (c Config) SummaryJSON() []byte {
	payload := struct {
		Config map[string]any `json:"config_summary"`
	}{Config: c.Summary()}
	data, _ := json.Marshal(payload)
	return data
}
