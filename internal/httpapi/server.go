// Package httpapi exposes the operational endpoints: health, pipeline stats
// and Prometheus metrics. It never carries event traffic.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"
)

type Server struct {
	httpServer *http.Server
}

type Options struct {
	Addr string
	// Metrics, when set, is mounted at /metrics.
	Metrics http.Handler
	// Stats supplies the payload for /stats.
	Stats func() map[string]any
}

func New(opts Options) *Server {
	mux := http.NewServeMux()
	srv := &Server{}

	mux.HandleFunc("/healthz", handleHealthz)
	mux.HandleFunc("/stats", func(w http.ResponseWriter, _ *http.Request) {
		payload := map[string]any{}
		if opts.Stats != nil {
			payload = opts.Stats()
		}
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		_ = json.NewEncoder(w).Encode(payload)
	})
	if opts.Metrics != nil {
		mux.Handle("/metrics", opts.Metrics)
	}

	srv.httpServer = &http.Server{
		Addr:              opts.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return srv
}

func handleHealthz(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// Handler exposes the mux, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

func (s *Server) Start() error {
	err := s.httpServer.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
