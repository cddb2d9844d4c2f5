package progress

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/cloudya/vaultops/internal/config"
	"github.com/cloudya/vaultops/internal/logging"
)

// Server serves the progress dashboard: a JSON snapshot, an optional static
// page, and Prometheus metrics.
type Server struct {
	tracker  *Tracker
	cfg      config.DashboardConfig
	logger   *logging.Logger
	interval time.Duration
}

// NewServer wires a tracker into a dashboard HTTP server.
func NewServer(tracker *Tracker, cfg config.DashboardConfig, logger *logging.Logger) *Server {
	interval := time.Duration(cfg.IntervalSecs) * time.Second
	if interval <= 0 {
		interval = 10 * time.Second
	}
	return &Server{tracker: tracker, cfg: cfg, logger: logger, interval: interval}
}

// Handler builds the dashboard mux.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/progress.json", s.handleProgress)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.Handle("/metrics", promhttp.Handler())
	if s.cfg.StaticFile != "" {
		mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
			http.ServeFile(w, r, s.cfg.StaticFile)
		})
	}
	return mux
}

func (s *Server) handleProgress(w http.ResponseWriter, r *http.Request) {
	snapshot := s.tracker.Last()
	if snapshot.UpdatedAt.IsZero() {
		snapshot = s.tracker.Evaluate(r.Context())
		publishMetrics(snapshot)
	}

	// The static page may be opened from file:// or another origin.
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(snapshot); err != nil {
		s.logger.Error("Failed to encode progress snapshot: %v", err)
	}
}

// Run serves the dashboard and re-evaluates progress on the configured
// interval until the context is cancelled or an interrupt arrives.
func (s *Server) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	server := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Progress dashboard listening on %s", s.cfg.Addr)
		errCh <- server.ListenAndServe()
	}()

	go s.updateLoop(ctx)

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

func (s *Server) updateLoop(ctx context.Context) {
	snapshot := s.tracker.Evaluate(ctx)
	publishMetrics(snapshot)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			snapshot = s.tracker.Evaluate(ctx)
			publishMetrics(snapshot)
			s.logger.Debug("Progress updated: %.0f%% (%s)", snapshot.Overall, snapshot.CurrentPhase)
		}
	}
}

// WriteSnapshot evaluates progress once and writes the JSON document to path.
// The update subcommand uses this to refresh a statically served dashboard.
func (s *Server) WriteSnapshot(ctx context.Context, path string) error {
	snapshot := s.tracker.Evaluate(ctx)
	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
