package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"golang.org/x/time/rate"

	"github.com/you/flatcast/internal/config"
	"github.com/you/flatcast/internal/core"
	"github.com/you/flatcast/internal/eventtrace"
	"github.com/you/flatcast/internal/httpapi"
	"github.com/you/flatcast/internal/pipeline"
	"github.com/you/flatcast/internal/sink"
	"github.com/you/flatcast/internal/spool"
	"github.com/you/flatcast/internal/version"
)

type noopWriter struct{}

func (noopWriter) Write(core.Record, *eventtrace.Trace) error {
	return errors.New("no sink configured")
}

func main() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)

	var (
		versionFlag bool
		inputPath   string
		spoolDir    string
		ndjsonPath  string
		batchSize   int
		flushMS     int
		rateLimit   int
		rateBurst   int
		httpAddr    string
	)

	flag.BoolVar(&versionFlag, "version", false, "Print build version and exit")
	flag.StringVar(&inputPath, "input", "", "NDJSON envelope file to process (default stdin)")
	flag.StringVar(&spoolDir, "spool-dir", "", "Watch a spool directory of capture files instead of reading -input")
	flag.StringVar(&ndjsonPath, "ndjson", "", "NDJSON output path (default stdout)")
	flag.IntVar(&batchSize, "batch", 0, "Sink batch size")
	flag.IntVar(&flushMS, "flush-ms", 0, "Sink flush interval in milliseconds")
	flag.IntVar(&rateLimit, "rate", 0, "Replay pacing in events per second (0 = unlimited)")
	flag.IntVar(&rateBurst, "burst", 0, "Replay pacing burst size")
	flag.StringVar(&httpAddr, "http-addr", "", "Health/metrics listener address (e.g., :9120)")
	flag.Parse()

	if versionFlag {
		fmt.Printf(
			"flatcast version: %s (commit %s, built %s)\n",
			version.Version,
			version.Commit,
			version.BuildTime,
		)
		os.Exit(0)
	}

	overrides := make(map[string]bool)
	flag.Visit(func(f *flag.Flag) {
		overrides[f.Name] = true
	})

	cfg := config.Load()

	if overrides["input"] {
		cfg.Input.Path = strings.TrimSpace(inputPath)
	}
	if overrides["spool-dir"] {
		cfg.Input.SpoolDir = strings.TrimSpace(spoolDir)
	}
	if overrides["ndjson"] {
		cfg.Sink.NDJSON.Path = strings.TrimSpace(ndjsonPath)
		if !cfg.HasSink("ndjson") {
			cfg.Sinks = append(cfg.Sinks, "ndjson")
		}
	}
	if overrides["batch"] {
		cfg.Sink.BatchSize = batchSize
	}
	if overrides["flush-ms"] {
		cfg.Sink.FlushMaxMS = flushMS
	}
	if overrides["rate"] {
		cfg.Rate.EventsPerSec = rateLimit
	}
	if overrides["burst"] {
		cfg.Rate.Burst = rateBurst
	}
	if overrides["http-addr"] {
		cfg.HTTP.Addr = strings.TrimSpace(httpAddr)
	}

	log.Printf("%s", cfg.SummaryJSON())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		log.Printf("flatcast: received %s, shutting down", sig)
		cancel()
	}()

	var writer sink.Writer = noopWriter{}
	var ndjsonSink *sink.NDJSONSink

	if cfg.HasSink("ndjson") {
		s, err := sink.OpenNDJSON(cfg.Sink.NDJSON.Path)
		if err != nil {
			log.Fatalf("flatcast: open ndjson sink: %v", err)
		}
		ndjsonSink = s
		writer = s
	} else {
		log.Printf("flatcast: no sinks configured; supported sinks: ndjson")
	}

	if ndjsonSink != nil {
		defer func() {
			if err := ndjsonSink.Close(); err != nil {
				log.Printf("flatcast: closing sink: %v", err)
			}
		}()
	}

	var buffered *sink.BufferedWriter
	if ndjsonSink != nil && (cfg.Batch() > 1 || cfg.FlushInterval() > 0) {
		buffered = sink.NewBufferedWriter(writer, sink.BufferedOptions{
			BatchSize:     cfg.Batch(),
			FlushInterval: cfg.FlushInterval(),
		})
		writer = buffered
	}

	if buffered != nil {
		defer func() {
			if err := buffered.Close(); err != nil {
				log.Printf("flatcast: flush buffered sink: %v", err)
			}
		}()
	}

	var limiter *rate.Limiter
	if cfg.Rate.EventsPerSec > 0 {
		burst := cfg.Rate.Burst
		if burst <= 0 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.Rate.EventsPerSec), burst)
	}

	metrics := pipeline.NewMetrics()
	p := pipeline.New(writer, pipeline.Options{
		Limiter: limiter,
		Metrics: metrics,
	})

	var api *httpapi.Server
	if cfg.HTTP.Addr != "" {
		api = httpapi.New(httpapi.Options{
			Addr:    cfg.HTTP.Addr,
			Metrics: metrics.Handler(),
			Stats:   p.Stats,
		})
		go func() {
			if err := api.Start(); err != nil {
				log.Fatalf("flatcast: http api: %v", err)
			}
		}()
		log.Printf("flatcast: http api ready on %s", cfg.HTTP.Addr)
	}

	switch {
	case cfg.Input.SpoolDir != "":
		watcher := spool.NewWatcher(cfg.Input.SpoolDir, func(path string) {
			log.Printf("flatcast: processing capture %s", path)
			if err := p.ProcessFile(ctx, path); err != nil {
				log.Printf("flatcast: capture %s: %v", path, err)
			}
		})
		log.Printf("flatcast: watching spool dir %s", cfg.Input.SpoolDir)
		if err := watcher.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Fatalf("flatcast: spool watcher: %v", err)
		}
	case cfg.Input.Path != "" && cfg.Input.Path != "-":
		if err := p.ProcessFile(ctx, cfg.Input.Path); err != nil && !errors.Is(err, context.Canceled) {
			log.Fatalf("flatcast: input %s: %v", cfg.Input.Path, err)
		}
	default:
		log.Printf("flatcast: reading envelopes from stdin")
		if err := p.Run(ctx, os.Stdin); err != nil && !errors.Is(err, context.Canceled) {
			log.Fatalf("flatcast: stdin: %v", err)
		}
	}

	if api != nil {
		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
		if err := api.Shutdown(shutdownCtx); err != nil {
			log.Printf("flatcast: http api shutdown: %v", err)
		}
		cancelShutdown()
	}

	log.Printf("flatcast: shutdown complete")
}
