package carousel

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/AmirAgassi/rizzly/internal/events"
	"github.com/AmirAgassi/rizzly/internal/logging"
)

// CoordinatorConfig tunes the two walk variants.
type CoordinatorConfig struct {
	// MaxImages caps the fire-and-forget disk walk.
	MaxImages int
	// AnalysisMaxImages caps the awaited analysis walk.
	AnalysisMaxImages int
	SettleDelay       time.Duration
	DownloadDir       string
}

// Coordinator owns at most one walk at a time. Starting a new walk cancels
// and supersedes the in-flight one, so two runs never click through the same
// carousel concurrently.
type Coordinator struct {
	base   context.Context
	source Source
	fetch  *http.Client
	bus    *events.Bus
	logger logging.Logger
	cfg    CoordinatorConfig

	mu     sync.Mutex
	cancel context.CancelFunc
}

func NewCoordinator(base context.Context, source Source, fetch *http.Client, bus *events.Bus, logger logging.Logger, cfg CoordinatorConfig) *Coordinator {
	if base == nil {
		base = context.Background()
	}
	return &Coordinator{
		base:   base,
		source: source,
		fetch:  fetch,
		bus:    bus,
		logger: logging.OrNop(logger),
		cfg:    cfg,
	}
}

// beginRun cancels any in-flight walk and opens a fresh run context. The
// returned cancel belongs to this run only; callers hold it so that a run
// abandoned after being superseded cannot cancel its successor.
func (c *Coordinator) beginRun() (context.Context, context.CancelFunc) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cancel != nil {
		c.logger.Info("superseding in-flight download run")
		c.cancel()
	}
	ctx, cancel := context.WithCancel(c.base)
	c.cancel = cancel
	return ctx, cancel
}

// DownloadAll walks the current profile to disk. Fire and forget: progress
// arrives on the bus, the call returns immediately.
func (c *Coordinator) DownloadAll() {
	ctx, _ := c.beginRun()
	walker := NewWalker(c.source, c.fetch, c.bus, c.logger, c.cfg.SettleDelay, false)
	sink := NewDiskSink(c.cfg.DownloadDir, c.logger)
	go func() {
		count, err := walker.Walk(ctx, c.cfg.MaxImages, sink)
		if err != nil {
			c.logger.Info("disk download run ended early after %d images: %v", count, err)
			return
		}
		c.logger.Info("disk download run finished with %d images", count)
	}()
}

// Collect walks the current profile into memory and returns the images as
// base64, bounded by max (or the configured analysis cap when max <= 0).
func (c *Coordinator) Collect(ctx context.Context, max int) ([]string, error) {
	if max <= 0 {
		max = c.cfg.AnalysisMaxImages
	}
	runCtx, runCancel := c.beginRun()

	// The caller abandoning the request stops this walk and only this walk.
	stop := context.AfterFunc(ctx, runCancel)
	defer stop()

	walker := NewWalker(c.source, c.fetch, c.bus, c.logger, c.cfg.SettleDelay, true)
	sink := NewBufferSink()
	count, err := walker.Walk(runCtx, max, sink)
	if err != nil {
		return nil, err
	}
	c.logger.Info("analysis collection finished with %d images", count)
	return sink.Images(), nil
}

// Close cancels any in-flight walk.
func (c *Coordinator) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
}
