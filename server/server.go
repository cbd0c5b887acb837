// Package server exposes the optimization engine over a small REST API:
// cycle execution, workload submission, audit trail inspection and the
// settlement report.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/voltmesh/voltmesh/audit"
	"github.com/voltmesh/voltmesh/core"
	"github.com/voltmesh/voltmesh/engine"
	"github.com/voltmesh/voltmesh/logging"
	"github.com/voltmesh/voltmesh/workload"
)

// Options configures optional server behavior.
type Options struct {
	// DemoSeed clears the queue and seeds this many sample workloads
	// before each cycle, mirroring the demo dashboard. Zero disables it.
	DemoSeed int
}

// Server exposes the engine, workload queue and audit trail over HTTP.
type Server struct {
	addr     string
	engine   *engine.Engine
	queue    *workload.Queue
	trail    *audit.Trail
	logger   logging.Logger
	demoSeed int

	mu      sync.RWMutex
	lastRun *engine.Result
}

// NewServer constructs an API server. A nil logger disables request logging.
func NewServer(addr string, eng *engine.Engine, queue *workload.Queue, trail *audit.Trail, logger logging.Logger, optFns ...func(o *Options)) *Server {
	if logger == nil {
		logger = logging.NoOpLogger{}
	}
	opts := Options{}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Server{
		addr:     addr,
		engine:   eng,
		queue:    queue,
		trail:    trail,
		logger:   logger,
		demoSeed: opts.DemoSeed,
	}
}

// Handler returns the route table. Exposed for tests.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /api/v1/status", s.handleStatus)
	mux.HandleFunc("POST /api/v1/cycle", s.handleRunCycle)
	mux.HandleFunc("GET /api/v1/workloads", s.handleListWorkloads)
	mux.HandleFunc("POST /api/v1/workloads", s.handleSubmitWorkload)
	mux.HandleFunc("POST /api/v1/workloads/{id}/complete", s.handleCompleteWorkload)
	mux.HandleFunc("GET /api/v1/audit", s.handleAuditTrail)
	mux.HandleFunc("GET /api/v1/audit/verify", s.handleAuditVerify)
	mux.HandleFunc("GET /api/v1/settlement", s.handleSettlement)
	return mux
}

// Start serves the API until the context is cancelled or the listener fails.
func (s *Server) Start(ctx context.Context) error {
	server := &http.Server{
		Addr:              s.addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("api server listening", "addr", s.addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
		return ctx.Err()
	case err := <-errCh:
		return err
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	s.mu.RLock()
	lastRun := s.lastRun
	s.mu.RUnlock()

	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"workloads": len(s.queue.All()),
		"capacity":  s.queue.Capacity(),
		"last_run":  lastRun,
	})
}

func (s *Server) handleRunCycle(w http.ResponseWriter, r *http.Request) {
	if s.demoSeed > 0 {
		s.queue.Clear()
		s.queue.SeedSamples(s.demoSeed)
	}
	result, err := s.engine.Run(r.Context())
	if err != nil {
		s.logger.Error("cycle failed", "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.mu.Lock()
	s.lastRun = result
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleListWorkloads(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"workloads": s.queue.All(),
		"capacity":  s.queue.Capacity(),
	})
}

func (s *Server) handleSubmitWorkload(w http.ResponseWriter, r *http.Request) {
	var wl core.Workload
	if err := json.NewDecoder(r.Body).Decode(&wl); err != nil {
		writeError(w, http.StatusBadRequest, "invalid workload payload: "+err.Error())
		return
	}
	if wl.JobID == "" {
		writeError(w, http.StatusBadRequest, "job_id must not be empty")
		return
	}
	if wl.EnergyKW <= 0 || wl.DurationHours <= 0 {
		writeError(w, http.StatusBadRequest, "energy_usage_kw and duration_hours must be positive")
		return
	}
	if wl.Deadline.IsZero() {
		writeError(w, http.StatusBadRequest, "sla_deadline must be set")
		return
	}
	s.queue.Add(wl)
	s.logger.Info("workload submitted", "job_id", wl.JobID, "energy_kw", wl.EnergyKW)
	writeJSON(w, http.StatusCreated, map[string]any{"job_id": wl.JobID, "status": core.StatusPending})
}

func (s *Server) handleCompleteWorkload(w http.ResponseWriter, r *http.Request) {
	jobID := r.PathValue("id")
	if err := s.queue.UpdateStatus(jobID, core.StatusCompleted); err != nil {
		if errors.Is(err, core.ErrWorkloadNotFound) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if err := s.engine.CompleteJob(r.Context(), jobID); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"job_id": jobID, "status": core.StatusCompleted})
}

func (s *Server) handleAuditTrail(w http.ResponseWriter, r *http.Request) {
	var (
		entries []audit.Entry
		err     error
	)
	switch {
	case r.URL.Query().Get("job_id") != "":
		entries, err = s.trail.Store().ByJob(r.Context(), r.URL.Query().Get("job_id"))
	case r.URL.Query().Get("transaction_id") != "":
		entries, err = s.trail.Store().ByTransaction(r.Context(), r.URL.Query().Get("transaction_id"))
	default:
		entries, err = s.trail.Store().List(r.Context())
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if entries == nil {
		entries = []audit.Entry{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"entries": entries, "count": len(entries)})
}

func (s *Server) handleAuditVerify(w http.ResponseWriter, r *http.Request) {
	count, err := s.trail.Verify(r.Context())
	if err != nil {
		writeJSON(w, http.StatusConflict, map[string]any{
			"valid":   false,
			"checked": count,
			"error":   err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"valid": true, "checked": count})
}

func (s *Server) handleSettlement(w http.ResponseWriter, r *http.Request) {
	report, err := s.trail.Settlement(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{"success": false, "error": msg})
}
