package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/23f3002873/llm-analysis-quiz/api/schemas"
	"github.com/23f3002873/llm-analysis-quiz/internal/browser"
	"github.com/23f3002873/llm-analysis-quiz/internal/config"
	"github.com/23f3002873/llm-analysis-quiz/internal/extract"
	"github.com/23f3002873/llm-analysis-quiz/internal/observability"
	"github.com/23f3002873/llm-analysis-quiz/internal/renderer"
	"github.com/23f3002873/llm-analysis-quiz/internal/server"
	"github.com/23f3002873/llm-analysis-quiz/internal/solver"
	"github.com/23f3002873/llm-analysis-quiz/internal/store"
	"github.com/23f3002873/llm-analysis-quiz/internal/submit"
)

// Components holds all the initialized services behind the gateway.
// This struct centralizes lifecycle management of solver dependencies.
type Components struct {
	Config         *config.Config
	BrowserManager *browser.Manager
	HTTPClient     *resty.Client
	Extractor      *extract.Extractor
	Submitter      *submit.Submitter
	Store          *store.Store
	Server         *server.Server
}

// NewComponents wires the full solver pipeline. The context governs the
// browser allocator's lifetime.
func NewComponents(ctx context.Context) (*Components, error) {
	cfg := config.Get()
	logger := observability.GetLogger()

	manager, err := browser.NewManager(ctx, logger, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize browser manager: %w", err)
	}

	client := resty.New().SetTimeout(cfg.Network.Timeout)
	if cfg.Network.UserAgent != "" {
		client.SetHeader("User-Agent", cfg.Network.UserAgent)
	}
	for k, v := range cfg.Network.Headers {
		client.SetHeader(k, v)
	}

	c := &Components{
		Config:         cfg,
		BrowserManager: manager,
		HTTPClient:     client,
		Extractor:      extract.New(logger),
		Submitter:      submit.New(client, logger),
		Store:          store.New(logger),
	}
	c.Server = server.New(cfg, c.Store, c.runJob, logger)
	return c, nil
}

// runJob executes one quiz job: lease a browser context, run the loop,
// return the terminal result.
func (c *Components) runJob(ctx context.Context, job *schemas.QuizJob) *schemas.JobResult {
	logger := observability.GetLogger().With(zap.String("job_id", job.ID))

	lease, err := c.BrowserManager.Acquire(ctx)
	if err != nil {
		logger.Error("Failed to acquire browser context", zap.Error(err))
		return &schemas.JobResult{
			Status: schemas.StatusFailed,
			Reason: fmt.Sprintf("browser context unavailable: %v", err),
		}
	}
	defer lease.Release()

	session := renderer.NewSession(lease, c.HTTPClient, c.Config, logger)
	controller := solver.New(session, c.Extractor, c.Submitter, c.Config, logger)
	return controller.Run(ctx, job)
}

// Shutdown gracefully closes all components.
func (c *Components) Shutdown() {
	logger := observability.GetLogger()
	logger.Debug("Beginning components shutdown sequence.")

	// Stop the gateway first so no new jobs arrive, then tear down the
	// browser pool the jobs were using.
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := c.Server.Shutdown(ctx); err != nil {
		logger.Warn("Gateway shutdown returned an error", zap.Error(err))
	}
	if err := c.BrowserManager.Shutdown(ctx); err != nil {
		logger.Warn("Browser manager shutdown returned an error", zap.Error(err))
	}

	logger.Debug("Components shutdown complete.")
}
