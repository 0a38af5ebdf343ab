// Package server exposes generated clips and generation control over HTTP.
package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/net/netutil"
	"golang.org/x/time/rate"

	"github.com/snapetech/clipgen/internal/content"
	"github.com/snapetech/clipgen/internal/journal"
)

// Coordinator is the part of content.Coordinator the server uses.
type Coordinator interface {
	Catalog() *content.Catalog
	StorageRoot() string
	IsContentReady() bool
	Missing() []content.Tag
	Artifact(tag content.Tag) (content.Artifact, error)
	Artifacts() []content.Artifact
	GenerateAll(sink content.ProgressSink) *content.Run
}

// RunLister lists journaled runs, newest first.
type RunLister interface {
	Recent(limit int) ([]journal.Entry, error)
}

// Server serves /artifacts, /status, /generate, /runs and /metrics.
type Server struct {
	Addr             string
	MaxConns         int           // 0 = unlimited
	GenerateInterval time.Duration // minimum spacing of POST /generate; 0 = unthrottled
	Coordinator      Coordinator
	Runs             RunLister           // nil disables /runs
	Gatherer         prometheus.Gatherer // nil = prometheus.DefaultGatherer
	Log              *zap.Logger

	limiter *rate.Limiter
	etags   etagCache
}

// Handler builds the route table.
func (s *Server) Handler() http.Handler {
	if s.Log == nil {
		s.Log = zap.NewNop()
	}
	if s.limiter == nil {
		limit := rate.Inf
		if s.GenerateInterval > 0 {
			limit = rate.Every(s.GenerateInterval)
		}
		s.limiter = rate.NewLimiter(limit, 1)
	}
	gatherer := s.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /artifacts/{file}", s.serveArtifact)
	mux.HandleFunc("GET /status", s.serveStatus)
	mux.HandleFunc("POST /generate", s.serveGenerate)
	mux.HandleFunc("GET /runs", s.serveRuns)
	mux.Handle("GET /metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	return s.logRequests(mux)
}

// Run listens on Addr and serves until ctx is done.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.Addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is done. ln is closed on return.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	if s.MaxConns > 0 {
		ln = netutil.LimitListener(ln, s.MaxConns)
	}
	srv := &http.Server{Handler: s.Handler(), ReadHeaderTimeout: 10 * time.Second}

	serverErr := make(chan error, 1)
	go func() {
		s.Log.Info("listening", zap.String("addr", ln.Addr().String()), zap.Int("max_conns", s.MaxConns))
		serverErr <- srv.Serve(ln)
	}()

	select {
	case err := <-serverErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
		s.Log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.Log.Warn("shutdown", zap.Error(err))
		}
		<-serverErr
		return nil
	}
}

type artifactView struct {
	Tag         int       `json:"tag"`
	Name        string    `json:"name"`
	Size        int64     `json:"size"`
	Frames      int       `json:"frames,omitempty"`
	DurationMS  int64     `json:"duration_ms,omitempty"`
	GeneratedAt time.Time `json:"generated_at"`
	URL         string    `json:"url"`
}

type statusView struct {
	Ready     bool           `json:"ready"`
	Root      string         `json:"root"`
	Missing   []string       `json:"missing"`
	Artifacts []artifactView `json:"artifacts"`
}

func (s *Server) serveStatus(w http.ResponseWriter, r *http.Request) {
	cat := s.Coordinator.Catalog()
	st := statusView{
		Ready:     s.Coordinator.IsContentReady(),
		Root:      s.Coordinator.StorageRoot(),
		Missing:   []string{},
		Artifacts: []artifactView{},
	}
	for _, tag := range s.Coordinator.Missing() {
		st.Missing = append(st.Missing, cat.Label(tag))
	}
	for _, a := range s.Coordinator.Artifacts() {
		st.Artifacts = append(st.Artifacts, artifactView{
			Tag:         int(a.Tag),
			Name:        a.Name,
			Size:        a.Size,
			Frames:      a.Frames,
			DurationMS:  a.Duration.Milliseconds(),
			GeneratedAt: a.GeneratedAt,
			URL:         "/artifacts/" + a.Name,
		})
	}
	writeJSON(w, r, http.StatusOK, st)
}

func (s *Server) serveGenerate(w http.ResponseWriter, r *http.Request) {
	force, _ := strconv.ParseBool(r.URL.Query().Get("force"))
	if !force && s.Coordinator.IsContentReady() {
		writeJSON(w, r, http.StatusOK, map[string]any{"status": "ready"})
		return
	}
	if !s.limiter.Allow() {
		w.Header().Set("Retry-After", strconv.Itoa(int(s.GenerateInterval.Seconds()+0.5)))
		http.Error(w, "generation requested too recently", http.StatusTooManyRequests)
		return
	}
	cat := s.Coordinator.Catalog()
	run := s.Coordinator.GenerateAll(content.NewLogSink(s.Log, cat))
	s.Log.Info("generation requested", zap.String("run", run.ID), zap.Bool("force", force))
	writeJSON(w, r, http.StatusAccepted, map[string]any{"status": "started", "run": run.ID, "tags": len(run.Tags)})
}

func (s *Server) serveRuns(w http.ResponseWriter, r *http.Request) {
	if s.Runs == nil {
		http.NotFound(w, r)
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	runs, err := s.Runs.Recent(limit)
	if err != nil {
		s.Log.Warn("list runs", zap.Error(err))
		http.Error(w, "journal unavailable", http.StatusInternalServerError)
		return
	}
	if runs == nil {
		runs = []journal.Entry{}
	}
	writeJSON(w, r, http.StatusOK, runs)
}

type loggingResponseWriter struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (w *loggingResponseWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *loggingResponseWriter) Write(p []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}
	n, err := w.ResponseWriter.Write(p)
	w.bytes += n
	return n, err
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		lw := &loggingResponseWriter{ResponseWriter: w}
		next.ServeHTTP(lw, r)
		status := lw.status
		if status == 0 {
			status = http.StatusOK
		}
		s.Log.Debug("http",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", status),
			zap.Int("bytes", lw.bytes),
			zap.Duration("dur", time.Since(start).Round(time.Millisecond)),
			zap.String("remote", r.RemoteAddr),
		)
	})
}
