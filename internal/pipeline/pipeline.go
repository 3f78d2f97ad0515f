// Package pipeline drives raw event envelopes through normalization and into
// a sink. The pipeline owns resilience: a bad line or a failing record is
// logged and counted, never fatal.
package pipeline

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log"
	"os"
	"sync/atomic"

	"github.com/pkg/errors"
	"golang.org/x/time/rate"

	"github.com/you/flatcast/internal/core"
	"github.com/you/flatcast/internal/eventtrace"
	"github.com/you/flatcast/internal/sink"
	"github.com/you/flatcast/internal/webcast"
)

// Envelope lines can carry full gift payloads with nested badge structures;
// give the scanner plenty of room.
const maxLineBytes = 4 << 20

const snippetLen = 64

type Options struct {
	Limiter *rate.Limiter
	Metrics *Metrics
}

type Pipeline struct {
	writer  sink.Writer
	limiter *rate.Limiter
	metrics *Metrics

	received     atomic.Int64
	normalized   atomic.Int64
	decodeErrors atomic.Int64
	writeErrors  atomic.Int64
	rateDropped  atomic.Int64
}

func New(writer sink.Writer, opts Options) *Pipeline {
	return &Pipeline{
		writer:  writer,
		limiter: opts.Limiter,
		metrics: opts.Metrics,
	}
}

// Run consumes NDJSON envelopes from r until EOF or context cancellation.
// Individual event failures are swallowed after logging; only I/O-level
// problems surface as errors.
func (p *Pipeline) Run(ctx context.Context, r io.Reader) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxLineBytes)

	for scanner.Scan() {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		p.processLine(ctx, line)
	}
	if err := scanner.Err(); err != nil {
		return errors.Wrap(err, "read envelopes")
	}
	return nil
}

// ProcessFile runs one capture file through the pipeline.
func (p *Pipeline) ProcessFile(ctx context.Context, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return errors.Wrap(err, "open capture file")
	}
	defer f.Close()
	return p.Run(ctx, f)
}

func (p *Pipeline) processLine(ctx context.Context, line []byte) {
	env, err := decodeEnvelope(line)
	if err != nil {
		p.decodeErrors.Add(1)
		p.metrics.IncDecodeErrors()
		log.Printf("pipeline: decode envelope: %v", err)
		return
	}
	if env.Event == "" || env.Data == nil {
		p.decodeErrors.Add(1)
		p.metrics.IncDecodeErrors()
		log.Printf("pipeline: envelope missing event or data")
		return
	}

	p.received.Add(1)
	p.metrics.IncReceived(env.Event)

	trace := eventtrace.New(env.Event, snippet(line))

	if p.limiter != nil {
		if err := p.limiter.Wait(ctx); err != nil {
			trace.Mark(eventtrace.StageDropped("rate"))
			p.rateDropped.Add(1)
			log.Printf("pipeline: dropped %s event during rate wait: %v", env.Event, err)
			return
		}
	}
	flat := webcast.Normalize(core.EventType(env.Event), env.Data)
	trace.Mark(eventtrace.StageNormalized)
	p.normalized.Add(1)
	p.metrics.IncNormalized(env.Event)

	if err := p.writer.Write(flat, trace); err != nil {
		trace.Mark(eventtrace.StageDropped("sink"))
		p.writeErrors.Add(1)
		p.metrics.IncWriteErrors()
		log.Printf("pipeline: write %s record: %v", env.Event, err)
	}
}

// Stats reports pipeline counters for the observability endpoint.
func (p *Pipeline) Stats() map[string]any {
	return map[string]any{
		"received":      p.received.Load(),
		"normalized":    p.normalized.Load(),
		"decode_errors": p.decodeErrors.Load(),
		"write_errors":  p.writeErrors.Load(),
		"rate_dropped":  p.rateDropped.Load(),
	}
}

// decodeEnvelope parses one NDJSON line, preserving 64-bit identifiers as
// json.Number.
func decodeEnvelope(line []byte) (core.Envelope, error) {
	dec := json.NewDecoder(bytes.NewReader(line))
	dec.UseNumber()
	var env core.Envelope
	if err := dec.Decode(&env); err != nil {
		return core.Envelope{}, err
	}
	return env, nil
}

func snippet(line []byte) string {
	if len(line) <= snippetLen {
		return string(line)
	}
	return string(line[:snippetLen])
}
