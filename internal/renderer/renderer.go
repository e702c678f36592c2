// Package renderer drives one isolated browser context through quiz page
// navigations and turns each navigation into a RenderedPage snapshot.
package renderer

import (
	"context"
	"fmt"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/23f3002873/llm-analysis-quiz/api/schemas"
	"github.com/23f3002873/llm-analysis-quiz/internal/browser"
	"github.com/23f3002873/llm-analysis-quiz/internal/config"
)

// Session renders pages inside a single leased browser context. One Session
// serves one quiz job; the lease is owned by the caller, which releases it
// when the job terminates.
type Session struct {
	lease  *browser.Lease
	client *resty.Client
	cfg    *config.Config
	logger *zap.Logger
}

var _ schemas.Renderer = (*Session)(nil)

// NewSession wraps an acquired browser lease.
func NewSession(lease *browser.Lease, client *resty.Client, cfg *config.Config, logger *zap.Logger) *Session {
	return &Session{
		lease:  lease,
		client: client,
		cfg:    cfg,
		logger: logger.Named("renderer"),
	}
}

// Render navigates to pageURL in a fresh tab, waits for the document to
// settle, snapshots it, and fetches any linked PDF/CSV resources into
// memory. A navigation or timeout failure returns a NavigationError; the
// tab is closed on every exit path.
func (s *Session) Render(ctx context.Context, pageURL string) (*schemas.RenderedPage, error) {
	// A fresh tab per navigation: a wedged tab from a failed attempt never
	// leaks into the retry.
	tabCtx, cancelTab := chromedp.NewContext(s.lease.Context())
	defer cancelTab()

	// Tie the tab to the step context so a controller-level cancellation
	// tears the navigation down.
	go func() {
		select {
		case <-ctx.Done():
			cancelTab()
		case <-tabCtx.Done():
		}
	}()

	navCtx, cancelNav := context.WithTimeout(tabCtx, s.cfg.Browser.NavigationTimeout)
	defer cancelNav()

	tasks := chromedp.Tasks{network.Enable()}
	if len(s.cfg.Network.Headers) > 0 {
		headers := make(network.Headers, len(s.cfg.Network.Headers))
		for k, v := range s.cfg.Network.Headers {
			headers[k] = v
		}
		tasks = append(tasks, network.SetExtraHTTPHeaders(headers))
	}

	var pageHTML, visibleText, finalURL string
	tasks = append(tasks,
		chromedp.Navigate(pageURL),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.Location(&finalURL),
		chromedp.OuterHTML("html", &pageHTML, chromedp.ByQuery),
		chromedp.Text("body", &visibleText, chromedp.ByQuery),
	)

	if err := chromedp.Run(navCtx, tasks); err != nil {
		return nil, &schemas.NavigationError{URL: pageURL, Cause: err}
	}

	page, err := parsePage(pageHTML, visibleText, finalURL)
	if err != nil {
		return nil, &schemas.NavigationError{URL: pageURL, Cause: fmt.Errorf("snapshot parse: %w", err)}
	}

	s.fetchResources(ctx, page)

	s.logger.Debug("Page rendered",
		zap.String("url", pageURL),
		zap.String("final_url", page.FinalURL),
		zap.String("submit_url", page.SubmitURL),
		zap.Int("resources", len(page.Resources)),
		zap.Bool("has_tables", page.HasTables),
	)
	return page, nil
}

// fetchResources downloads linked binaries into memory. Individual failures
// are recorded on the resource, not fatal to the render.
func (s *Session) fetchResources(ctx context.Context, page *schemas.RenderedPage) {
	maxBytes := s.cfg.Solver.MaxResourceBytes
	for i := range page.Resources {
		res := &page.Resources[i]

		resp, err := s.client.R().SetContext(ctx).Get(res.URL)
		if err != nil {
			res.FetchError = err.Error()
			s.logger.Warn("Resource download failed", zap.String("url", res.URL), zap.Error(err))
			continue
		}
		if resp.StatusCode() != 200 {
			res.FetchError = fmt.Sprintf("unexpected status %d", resp.StatusCode())
			continue
		}
		body := resp.Body()
		if maxBytes > 0 && int64(len(body)) > maxBytes {
			res.FetchError = fmt.Sprintf("resource exceeds %d bytes", maxBytes)
			continue
		}
		res.Data = body
	}
}
