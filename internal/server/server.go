// Package server is the HTTP gateway. It validates inbound quiz requests,
// answers 202 immediately, and hands the job to a detached runner. Results
// are observable afterwards through the jobs endpoints.
package server

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/23f3002873/llm-analysis-quiz/api/schemas"
	"github.com/23f3002873/llm-analysis-quiz/internal/config"
	"github.com/23f3002873/llm-analysis-quiz/internal/store"
)

// JobRunner executes one quiz job end to end and returns its terminal result.
// The context carries the job's wall-clock deadline.
type JobRunner func(ctx context.Context, job *schemas.QuizJob) *schemas.JobResult

// Server is the gateway: request validation in front, fire-and-forget behind.
type Server struct {
	cfg    *config.Config
	log    *zap.Logger
	store  *store.Store
	runner JobRunner

	httpServer *http.Server

	// baseCtx outlives individual requests so detached jobs are not
	// cancelled when the client disconnects.
	baseCtx    context.Context
	cancelJobs context.CancelFunc
	jobs       sync.WaitGroup
}

// New builds the gateway around a store and a job runner.
func New(cfg *config.Config, st *store.Store, runner JobRunner, logger *zap.Logger) *Server {
	baseCtx, cancel := context.WithCancel(context.Background())

	s := &Server{
		cfg:        cfg,
		log:        logger.Named("server"),
		store:      st,
		runner:     runner,
		baseCtx:    baseCtx,
		cancelJobs: cancel,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /quiz", s.handleQuiz)
	mux.HandleFunc("GET /jobs", s.handleListJobs)
	mux.HandleFunc("GET /jobs/{id}", s.handleGetJob)
	mux.HandleFunc("GET /healthz", s.handleHealth)

	s.httpServer = &http.Server{
		Addr:              cfg.Server.ListenAddr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler exposes the routing table for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Start blocks serving HTTP until Shutdown is called.
func (s *Server) Start() error {
	s.log.Info("Gateway listening", zap.String("addr", s.cfg.Server.ListenAddr))
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

// Shutdown stops accepting requests and waits for in-flight jobs until the
// context expires, then cancels whatever is still running.
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.httpServer.Shutdown(ctx)

	done := make(chan struct{})
	go func() {
		s.jobs.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		s.log.Warn("Shutdown deadline reached, cancelling running jobs")
	}
	s.cancelJobs()
	return err
}

type quizRequest struct {
	Email  string `json:"email"`
	Secret string `json:"secret"`
	URL    string `json:"url"`
}

func (s *Server) handleQuiz(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.Server.MaxBodyBytes)

	var req quizRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Email == "" || req.Secret == "" || req.URL == "" {
		writeError(w, http.StatusBadRequest, "email, secret and url are required")
		return
	}
	if u, err := url.Parse(req.URL); err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		writeError(w, http.StatusBadRequest, "url must be absolute http(s)")
		return
	}

	emailOK := subtle.ConstantTimeCompare([]byte(req.Email), []byte(s.cfg.Server.Email)) == 1
	secretOK := subtle.ConstantTimeCompare([]byte(req.Secret), []byte(s.cfg.Server.Secret)) == 1
	if !emailOK || !secretOK {
		writeError(w, http.StatusForbidden, "invalid credentials")
		return
	}

	job := &schemas.QuizJob{
		ID: uuid.NewString(),
		Credentials: schemas.Credentials{
			Email:  req.Email,
			Secret: req.Secret,
		},
		StartURL: req.URL,
		Deadline: time.Now().Add(s.cfg.Solver.JobTimeout),
	}

	if err := s.store.Create(r.Context(), job.ID, job.StartURL); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to register job")
		return
	}

	s.jobs.Add(1)
	go s.runJob(job)

	s.log.Info("Job accepted",
		zap.String("job_id", job.ID),
		zap.String("url", job.StartURL),
	)
	writeJSON(w, http.StatusAccepted, map[string]string{
		"job_id": job.ID,
		"status": string(schemas.StatusRunning),
	})
}

// runJob is detached from the originating request. The job keeps its full
// time budget even if the caller hangs up.
func (s *Server) runJob(job *schemas.QuizJob) {
	defer s.jobs.Done()

	ctx, cancel := context.WithDeadline(s.baseCtx, job.Deadline)
	defer cancel()

	result := s.runner(ctx, job)
	if result == nil {
		result = &schemas.JobResult{
			Status: schemas.StatusFailed,
			Reason: "runner returned no result",
		}
	}
	if err := s.store.Complete(context.Background(), job.ID, result); err != nil {
		s.log.Error("Failed to record job result", zap.String("job_id", job.ID), zap.Error(err))
	}
}

func (s *Server) handleGetJob(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	rec, ok := s.store.Get(r.Context(), id)
	if !ok {
		writeError(w, http.StatusNotFound, "unknown job")
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handleListJobs(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.store.List(r.Context()))
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
