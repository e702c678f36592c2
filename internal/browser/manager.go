package browser

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/23f3002873/llm-analysis-quiz/internal/config"
)

// Manager owns the headless browser process tree and hands out isolated
// browser contexts as leases. The pool is bounded: at most
// browser.max_contexts jobs hold a lease at any time, and a context is never
// shared across jobs (cookie and navigation-history isolation).
type Manager struct {
	logger *zap.Logger
	cfg    *config.Config

	// ChromeDP allocator context manages the underlying browser executable.
	allocatorCtx    context.Context
	allocatorCancel context.CancelFunc

	// slots bounds the number of concurrently leased contexts.
	slots chan struct{}

	// Track active leases for graceful shutdown.
	mu     sync.Mutex
	leases map[string]*Lease
	closed bool
}

// Lease is one isolated browser context, valid until released. Release is
// idempotent and must run on every exit path.
type Lease struct {
	id      string
	ctx     context.Context
	cancel  context.CancelFunc
	mgr     *Manager
	release sync.Once
}

// ID returns the lease identifier used in logs.
func (l *Lease) ID() string { return l.id }

// Context returns the chromedp context backing this lease. Tab contexts for
// individual navigations are derived from it.
func (l *Lease) Context() context.Context { return l.ctx }

// Release closes the browser context and returns the pool slot.
func (l *Lease) Release() {
	l.release.Do(func() {
		l.cancel()
		l.mgr.unregister(l.id)
	})
}

// NewManager creates and initializes the browser manager.
func NewManager(ctx context.Context, logger *zap.Logger, cfg *config.Config) (*Manager, error) {
	maxContexts := cfg.Browser.MaxContexts
	if maxContexts <= 0 {
		return nil, fmt.Errorf("browser.max_contexts must be positive, got %d", maxContexts)
	}

	m := &Manager{
		logger: logger.Named("browser_manager"),
		cfg:    cfg,
		slots:  make(chan struct{}, maxContexts),
		leases: make(map[string]*Lease),
	}
	for i := 0; i < maxContexts; i++ {
		m.slots <- struct{}{}
	}

	// Initialize the allocator. The browser process starts lazily on the
	// first navigation.
	opts := m.generateAllocatorOptions()
	m.allocatorCtx, m.allocatorCancel = chromedp.NewExecAllocator(ctx, opts...)

	m.logger.Info("Browser manager initialized",
		zap.Bool("headless", cfg.Browser.Headless),
		zap.Int("max_contexts", maxContexts),
	)
	return m, nil
}

// generateAllocatorOptions configures the flags for the browser executable.
func (m *Manager) generateAllocatorOptions() []chromedp.ExecAllocatorOption {
	// Start with default options provided by ChromeDP.
	opts := append([]chromedp.ExecAllocatorOption{}, chromedp.DefaultExecAllocatorOptions[:]...)

	browserCfg := m.cfg.Browser

	if browserCfg.Headless {
		opts = append(opts, chromedp.Headless)
	}

	// Standard flags for stability in containerized environments.
	opts = append(opts,
		chromedp.Flag("enable-automation", false),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.Flag("disable-background-networking", true),
		chromedp.Flag("disable-sync", true),
		chromedp.Flag("metrics-recording-only", true),
		chromedp.Flag("disable-default-apps", true),
		chromedp.Flag("no-first-run", true),
		chromedp.Flag("disable-hang-monitor", true),
		chromedp.Flag("disable-prompt-on-repost", true),
		chromedp.Flag("disable-extensions", true),

		// GPU often causes issues in headless/containerized environments.
		chromedp.Flag("disable-gpu", browserCfg.Headless),

		chromedp.Flag("ignore-certificate-errors", browserCfg.IgnoreTLSErrors),
	)

	if ua := m.cfg.Network.UserAgent; ua != "" {
		opts = append(opts, chromedp.UserAgent(ua))
	}

	return opts
}

// Acquire blocks until a pool slot is free or ctx is done, then returns a
// fresh isolated browser context wrapped in a Lease.
func (m *Manager) Acquire(ctx context.Context) (*Lease, error) {
	select {
	case <-m.slots:
	case <-ctx.Done():
		return nil, fmt.Errorf("waiting for browser context: %w", ctx.Err())
	}

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		m.slots <- struct{}{}
		return nil, fmt.Errorf("browser manager is shut down")
	}
	m.mu.Unlock()

	browserCtx, cancel := chromedp.NewContext(m.allocatorCtx,
		chromedp.WithLogf(m.logger.Sugar().Debugf),
		chromedp.WithErrorf(m.logger.Sugar().Errorf),
	)

	lease := &Lease{
		id:     uuid.New().String(),
		ctx:    browserCtx,
		cancel: cancel,
		mgr:    m,
	}

	m.mu.Lock()
	m.leases[lease.id] = lease
	m.mu.Unlock()

	m.logger.Debug("Browser context leased", zap.String("lease_id", lease.id))
	return lease, nil
}

// unregister removes the lease from the tracking map and frees its slot.
func (m *Manager) unregister(id string) {
	m.mu.Lock()
	_, tracked := m.leases[id]
	delete(m.leases, id)
	m.mu.Unlock()

	if tracked {
		m.slots <- struct{}{}
		m.logger.Debug("Browser context released", zap.String("lease_id", id))
	}
}

// Shutdown gracefully terminates all browser contexts and the allocator.
func (m *Manager) Shutdown(ctx context.Context) error {
	m.logger.Info("Shutting down browser manager...")

	m.mu.Lock()
	m.closed = true
	leasesToClose := make([]*Lease, 0, len(m.leases))
	for _, lease := range m.leases {
		leasesToClose = append(leasesToClose, lease)
	}
	m.mu.Unlock()

	var wg sync.WaitGroup
	for _, lease := range leasesToClose {
		wg.Add(1)
		go func(l *Lease) {
			defer wg.Done()
			l.Release()
		}(lease)
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		m.logger.Warn("Timed out waiting for browser contexts to close")
	case <-time.After(10 * time.Second):
		m.logger.Warn("Timed out waiting for browser contexts to close")
	}

	if m.allocatorCancel != nil {
		m.allocatorCancel()
	}

	m.logger.Info("Browser manager shutdown complete.")
	return nil
}
