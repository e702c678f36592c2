// Package solver drives the render -> extract -> submit loop for one quiz
// job, enforcing the time budget, the step budget, and the cycle guard.
package solver

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/23f3002873/llm-analysis-quiz/api/schemas"
	"github.com/23f3002873/llm-analysis-quiz/internal/config"
)

// Controller owns all loop-level state for a single job. Collaborators come
// in as interfaces so the loop is testable without a browser or network.
type Controller struct {
	renderer  schemas.Renderer
	extractor schemas.Extractor
	submitter schemas.Submitter
	cfg       *config.Config
	logger    *zap.Logger
}

// New wires a controller for one job.
func New(renderer schemas.Renderer, extractor schemas.Extractor, submitter schemas.Submitter, cfg *config.Config, logger *zap.Logger) *Controller {
	return &Controller{
		renderer:  renderer,
		extractor: extractor,
		submitter: submitter,
		cfg:       cfg,
		logger:    logger.Named("controller"),
	}
}

// Run executes the quiz loop until a terminal condition: success (no next
// URL with an accepted answer), failure, cycle, or an exhausted time or step
// budget. Errors never escape; every outcome is a terminal JobResult
// carrying the full step trace.
func (c *Controller) Run(ctx context.Context, job *schemas.QuizJob) *schemas.JobResult {
	logger := c.logger.With(zap.String("job_id", job.ID))
	logger.Info("Quiz job started",
		zap.String("start_url", job.StartURL),
		zap.Time("deadline", job.Deadline),
	)

	visited := make(map[string]bool)
	trace := make([]schemas.StepResult, 0, c.cfg.Solver.MaxSteps)
	current := job.StartURL

	terminal := func(status schemas.JobStatus, reason string) *schemas.JobResult {
		logger.Info("Quiz job finished",
			zap.String("status", string(status)),
			zap.String("reason", reason),
			zap.Int("steps", len(trace)),
		)
		return &schemas.JobResult{Status: status, Reason: reason, Trace: trace}
	}

	for {
		if len(trace) >= c.cfg.Solver.MaxSteps {
			return terminal(schemas.StatusFailed, schemas.ReasonStepBudget)
		}
		if time.Until(job.Deadline) < c.cfg.Solver.MinStepDuration {
			// Not enough budget left for a viable step; stop before touching
			// the browser.
			return terminal(schemas.StatusTimedOut, schemas.ReasonDeadlineExceeded)
		}
		if visited[current] {
			// The trace stays unchanged: the detecting step never ran.
			return terminal(schemas.StatusFailed, schemas.ReasonCycleDetected)
		}
		visited[current] = true

		stepCtx, cancel := context.WithDeadline(ctx, job.Deadline)
		step, outcome := c.runStep(stepCtx, job, current, logger)
		cancel()

		trace = append(trace, step)

		if step.Error != "" {
			return terminal(schemas.StatusFailed, step.Error)
		}

		if outcome.NextURL == "" {
			// Quiz complete. The final verdict decides the status; a next
			// URL earlier in the chain continued the loop even on rejection.
			if outcome.Accepted {
				return terminal(schemas.StatusSucceeded, "")
			}
			return terminal(schemas.StatusFailed, schemas.ReasonFinalRejected)
		}
		current = outcome.NextURL
	}
}

// runStep executes the three phases of one quiz step. The returned
// StepResult carries the phase error, if any; outcome is non-nil only when
// all phases succeeded.
func (c *Controller) runStep(ctx context.Context, job *schemas.QuizJob, url string, logger *zap.Logger) (schemas.StepResult, *schemas.SubmissionOutcome) {
	step := schemas.StepResult{URL: url, StartedAt: time.Now()}
	finish := func() { step.Duration = time.Since(step.StartedAt) }

	logger.Info("Step started", zap.String("url", url))

	page, err := c.renderer.Render(ctx, url)
	if err != nil {
		var navErr *schemas.NavigationError
		if errors.As(err, &navErr) {
			// Navigation gets exactly one retry before the step fails.
			logger.Warn("Render failed, retrying once", zap.String("url", url), zap.Error(err))
			page, err = c.renderer.Render(ctx, url)
		}
	}
	if err != nil {
		step.Error = err.Error()
		finish()
		return step, nil
	}

	answer, err := c.extractor.Extract(page)
	if err != nil {
		step.Error = err.Error()
		finish()
		return step, nil
	}
	step.Answer = &answer

	if page.SubmitURL == "" {
		step.Error = "no submission endpoint discovered"
		finish()
		return step, nil
	}

	outcome, err := c.submitter.Submit(ctx, page.SubmitURL, job.Credentials, url, answer)
	if err != nil {
		step.Error = err.Error()
		finish()
		return step, nil
	}
	step.Outcome = outcome

	finish()
	logger.Info("Step completed",
		zap.String("url", url),
		zap.Bool("accepted", outcome.Accepted),
		zap.String("next_url", outcome.NextURL),
		zap.Duration("duration", step.Duration),
	)
	return step, outcome
}
