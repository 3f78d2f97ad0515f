package sink

import (
	"encoding/json"
	"io"
	"os"
	"sync"

	"github.com/pkg/errors"

	"github.com/you/flatcast/internal/core"
	"github.com/you/flatcast/internal/eventtrace"
)

// NDJSONSink writes one JSON object per line to a file or stdout. This is the
// caller-owned forwarding sink; flatcast itself never retains records.
type NDJSONSink struct {
	mu     sync.Mutex
	enc    *json.Encoder
	closer io.Closer
}

// OpenNDJSON opens an NDJSON sink at path. An empty path or "-" writes to
// stdout.
func OpenNDJSON(path string) (*NDJSONSink, error) {
	if path == "" || path == "-" {
		return NewNDJSON(os.Stdout), nil
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, errors.Wrap(err, "open ndjson sink")
	}
	s := NewNDJSON(f)
	s.closer = f
	return s, nil
}

// NewNDJSON wraps an arbitrary writer, mainly for tests.
func NewNDJSON(w io.Writer) *NDJSONSink {
	return &NDJSONSink{enc: json.NewEncoder(w)}
}

func (s *NDJSONSink) Write(rec core.Record, trace *eventtrace.Trace) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enc.Encode(rec); err != nil {
		return errors.Wrap(err, "encode record")
	}
	trace.Mark(eventtrace.StageWritten)
	return nil
}

func (s *NDJSONSink) Close() error {
	if s.closer == nil {
		return nil
	}
	return s.closer.Close()
}
