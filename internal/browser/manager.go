package browser

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/cdproto/inspector"
	"github.com/chromedp/chromedp"

	"github.com/AmirAgassi/rizzly/internal/logging"
)

// Config configures the embedded browser.
type Config struct {
	// CDPURL attaches to an already-running Chrome instead of launching one.
	// Accepts ws:// URLs, http devtools endpoints, host:port, or a bare port.
	CDPURL      string
	ChromePath  string
	UserDataDir string
	Headless    bool
	// Timeout bounds a single script round trip.
	Timeout time.Duration
	Logger  logging.Logger
}

func (c Config) timeoutOrDefault() time.Duration {
	if c.Timeout > 0 {
		return c.Timeout
	}
	return 30 * time.Second
}

// Manager owns the Chrome process and the single long-lived tab that hosts
// the embedded page. Call Close to terminate Chrome on shutdown.
type Manager struct {
	cfg    Config
	logger logging.Logger

	mu          sync.Mutex
	allocCtx    context.Context
	allocCancel context.CancelFunc
	page        *Page
}

// NewManager creates a manager; Chrome starts lazily on first use.
func NewManager(cfg Config) *Manager {
	return &Manager{
		cfg:    cfg,
		logger: logging.OrNop(cfg.Logger),
	}
}

// ensureAllocator lazily starts the Chrome process. Must be called with m.mu held.
func (m *Manager) ensureAllocator() error {
	if m.allocCtx != nil && m.allocCtx.Err() == nil {
		return nil
	}
	// Previous allocator dead (Chrome crashed or first call) — recreate.
	if m.allocCancel != nil {
		m.allocCancel()
	}

	baseCtx := context.Background()

	if rawCDPURL := strings.TrimSpace(m.cfg.CDPURL); rawCDPURL != "" {
		cdpURL, err := resolveCDPURL(baseCtx, rawCDPURL)
		if err != nil {
			return fmt.Errorf("resolve cdp_url %q: %w", rawCDPURL, err)
		}
		m.allocCtx, m.allocCancel = chromedp.NewRemoteAllocator(baseCtx, cdpURL)
		return nil
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", m.cfg.Headless),
		chromedp.Flag("disable-gpu", m.cfg.Headless),
	)
	if path := strings.TrimSpace(m.cfg.ChromePath); path != "" {
		opts = append(opts, chromedp.ExecPath(path))
	}
	if dir := strings.TrimSpace(m.cfg.UserDataDir); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err == nil {
			opts = append(opts, chromedp.UserDataDir(filepath.Clean(dir)))
		}
	}
	m.allocCtx, m.allocCancel = chromedp.NewExecAllocator(baseCtx, opts...)
	return nil
}

// Page returns the embedded page, creating the tab on first call and
// recreating it if Chrome died underneath us.
func (m *Manager) Page() (*Page, error) {
	if m == nil {
		return nil, fmt.Errorf("browser manager is nil")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.page != nil && m.page.ctx.Err() == nil {
		return m.page, nil
	}
	if m.page != nil {
		m.page.close()
		m.page = nil
	}

	page, err := m.newTab()
	if err != nil {
		// Chrome may have crashed — reset the allocator and retry once.
		m.resetAllocator()
		page, err = m.newTab()
		if err != nil {
			return nil, err
		}
	}
	m.page = page
	return page, nil
}

// newTab creates the page tab. Must be called with m.mu held.
func (m *Manager) newTab() (*Page, error) {
	if err := m.ensureAllocator(); err != nil {
		return nil, err
	}

	ctx, cancel := chromedp.NewContext(m.allocCtx)
	chromedp.ListenTarget(ctx, func(ev any) {
		switch ev.(type) {
		case *inspector.EventTargetCrashed:
			m.logger.Error("page target crashed, next Page call recreates the tab")
		case *inspector.EventDetached:
			m.logger.Warn("devtools detached from page")
		}
	})
	if err := chromedp.Run(ctx, chromedp.Navigate("about:blank")); err != nil {
		cancel()
		return nil, err
	}

	return &Page{
		ctx:     ctx,
		cancel:  cancel,
		timeout: m.cfg.timeoutOrDefault(),
		logger:  m.logger,
	}, nil
}

// resetAllocator tears down Chrome so the next call starts fresh. Must be
// called with m.mu held.
func (m *Manager) resetAllocator() {
	if m.page != nil {
		m.page.close()
		m.page = nil
	}
	if m.allocCancel != nil {
		m.allocCancel()
		m.allocCancel = nil
		m.allocCtx = nil
	}
}

// Close terminates the tab and the Chrome process.
func (m *Manager) Close() {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resetAllocator()
}
