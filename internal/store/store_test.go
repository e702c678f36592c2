package store

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/23f3002873/llm-analysis-quiz/api/schemas"
)

func TestCreateAndGet(t *testing.T) {
	s := New(zaptest.NewLogger(t))
	ctx := context.Background()

	require.NoError(t, s.Create(ctx, "job-1", "https://quiz.example/q/1"))

	rec, ok := s.Get(ctx, "job-1")
	require.True(t, ok)
	assert.Equal(t, "job-1", rec.ID)
	assert.Equal(t, schemas.StatusRunning, rec.Status)
	assert.Equal(t, "https://quiz.example/q/1", rec.StartURL)
	assert.False(t, rec.CreatedAt.IsZero())
	assert.True(t, rec.FinishedAt.IsZero())
}

func TestCreateDuplicate(t *testing.T) {
	s := New(zaptest.NewLogger(t))
	ctx := context.Background()

	require.NoError(t, s.Create(ctx, "job-1", "https://quiz.example/q/1"))
	err := s.Create(ctx, "job-1", "https://quiz.example/q/2")
	assert.ErrorContains(t, err, "already exists")
}

func TestGetUnknown(t *testing.T) {
	s := New(zaptest.NewLogger(t))

	_, ok := s.Get(context.Background(), "nope")
	assert.False(t, ok)
}

func TestComplete(t *testing.T) {
	s := New(zaptest.NewLogger(t))
	ctx := context.Background()

	require.NoError(t, s.Create(ctx, "job-1", "https://quiz.example/q/1"))

	result := &schemas.JobResult{
		Status: schemas.StatusSucceeded,
		Trace: []schemas.StepResult{
			{URL: "https://quiz.example/q/1"},
			{URL: "https://quiz.example/q/2"},
		},
	}
	require.NoError(t, s.Complete(ctx, "job-1", result))

	rec, ok := s.Get(ctx, "job-1")
	require.True(t, ok)
	assert.Equal(t, schemas.StatusSucceeded, rec.Status)
	assert.Len(t, rec.Trace, 2)
	assert.False(t, rec.FinishedAt.IsZero())
}

func TestCompleteUnknown(t *testing.T) {
	s := New(zaptest.NewLogger(t))

	err := s.Complete(context.Background(), "nope", &schemas.JobResult{Status: schemas.StatusFailed})
	assert.ErrorContains(t, err, "not found")
}

func TestGetReturnsCopy(t *testing.T) {
	s := New(zaptest.NewLogger(t))
	ctx := context.Background()

	require.NoError(t, s.Create(ctx, "job-1", "https://quiz.example/q/1"))

	rec, _ := s.Get(ctx, "job-1")
	rec.Status = schemas.StatusFailed

	fresh, _ := s.Get(ctx, "job-1")
	assert.Equal(t, schemas.StatusRunning, fresh.Status)
}

func TestListNewestFirst(t *testing.T) {
	s := New(zaptest.NewLogger(t))
	ctx := context.Background()
	base := time.Now().UTC()

	for i := 0; i < 3; i++ {
		id := fmt.Sprintf("job-%d", i)
		require.NoError(t, s.Create(ctx, id, "https://quiz.example/q/1"))
		// Force distinct, ordered timestamps.
		s.mu.Lock()
		s.records[id].CreatedAt = base.Add(time.Duration(i) * time.Second)
		s.mu.Unlock()
	}

	list := s.List(ctx)
	require.Len(t, list, 3)
	assert.Equal(t, "job-2", list[0].ID)
	assert.Equal(t, "job-0", list[2].ID)
}
