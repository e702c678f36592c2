// Package store keeps job traces in memory. It is the only place the
// outcome of a fire-and-forget job can be observed after the gateway
// has already answered 202. Nothing survives a restart.
package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/23f3002873/llm-analysis-quiz/api/schemas"
)

// JobRecord is the stored view of one quiz job.
type JobRecord struct {
	ID         string               `json:"id"`
	Status     schemas.JobStatus    `json:"status"`
	Reason     string               `json:"reason,omitempty"`
	StartURL   string               `json:"start_url"`
	Trace      []schemas.StepResult `json:"trace"`
	CreatedAt  time.Time            `json:"created_at"`
	FinishedAt time.Time            `json:"finished_at"`
}

// Store is a mutex-guarded in-memory record map.
type Store struct {
	log *zap.Logger

	mu      sync.RWMutex
	records map[string]*JobRecord
}

// New creates a store instance.
func New(logger *zap.Logger) *Store {
	return &Store{
		log:     logger.Named("store"),
		records: make(map[string]*JobRecord),
	}
}

// Create registers a new job in RUNNING state.
func (s *Store) Create(_ context.Context, id, startURL string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.records[id]; exists {
		return fmt.Errorf("job %s already exists", id)
	}
	s.records[id] = &JobRecord{
		ID:        id,
		Status:    schemas.StatusRunning,
		StartURL:  startURL,
		CreatedAt: time.Now().UTC(),
	}
	return nil
}

// Complete stores the terminal result of a job.
func (s *Store) Complete(_ context.Context, id string, result *schemas.JobResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, exists := s.records[id]
	if !exists {
		return fmt.Errorf("job %s not found", id)
	}
	rec.Status = result.Status
	rec.Reason = result.Reason
	rec.Trace = result.Trace
	rec.FinishedAt = time.Now().UTC()

	s.log.Info("Job result recorded",
		zap.String("job_id", id),
		zap.String("status", string(result.Status)),
		zap.Int("steps", len(result.Trace)),
	)
	return nil
}

// Get returns a copy of the record, or false when unknown.
func (s *Store) Get(_ context.Context, id string) (JobRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, exists := s.records[id]
	if !exists {
		return JobRecord{}, false
	}
	return *rec, true
}

// List returns all records, newest first.
func (s *Store) List(_ context.Context) []JobRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]JobRecord, 0, len(s.records))
	for _, rec := range s.records {
		out = append(out, *rec)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}
