// Package carousel walks the visible profile's photo carousel: locating the
// active slide, stepping through photos, and feeding the bytes to a sink.
package carousel

import (
	"context"

	"github.com/AmirAgassi/rizzly/internal/browser"
	"github.com/AmirAgassi/rizzly/internal/config"
	"github.com/AmirAgassi/rizzly/internal/logging"
)

// Snapshot is one instant of the visible carousel. Err is a DOM-side reason
// the carousel could not be read; callers treat it as "stop", not a failure.
type Snapshot struct {
	ImageURL string `json:"imageUrl"`
	IsEnd    bool   `json:"isEnd"`
	Err      string `json:"error"`
}

// Source yields carousel snapshots and advances the carousel. Satisfied by
// Locator; tests substitute scripted fakes.
type Source interface {
	Snapshot(ctx context.Context) (Snapshot, error)
	ClickNext(ctx context.Context) (bool, error)
}

// The page keeps several profile carousels mounted at once, most of them
// off-screen or stacked underneath the visible one. The last on-screen
// container in document order is the topmost visually.
const snapshotScript = `(args) => {
  const containers = Array.from(document.querySelectorAll(args.carousel));
  const visible = containers.filter((el) => {
    const rect = el.getBoundingClientRect();
    return rect.top >= 0 && rect.width > 0 && rect.height > 0;
  });
  const withActiveTab = visible.filter((el) =>
    Array.from(el.querySelectorAll(args.tab)).some((t) => t.getAttribute('aria-selected') === 'true'));
  const pool = withActiveTab.length ? withActiveTab : visible;
  if (!pool.length) return { error: 'no visible carousel' };
  const container = pool[pool.length - 1];

  const tabs = Array.from(container.querySelectorAll(args.tab));
  if (!tabs.length) return { error: 'carousel has no tabs' };
  const active = tabs.findIndex((t) => t.getAttribute('aria-selected') === 'true');
  if (active < 0) return { error: 'no active tab' };

  const slides = Array.from(container.querySelectorAll(args.slide));
  if (active >= slides.length) return { error: 'active tab index out of range' };

  const bg = window.getComputedStyle(slides[active]).backgroundImage || '';
  const match = bg.match(/url\(["']?([^"')]+)["']?\)/);
  if (!match) return { error: 'active slide has no background image' };

  const next = container.querySelector(args.next) || document.querySelector(args.next);
  const isEnd = !next || next.disabled || next.getAttribute('aria-disabled') === 'true';
  return { imageUrl: match[1], isEnd: !!isEnd };
}`

const clickNextScript = `(args) => {
  const next = document.querySelector(args.next);
  if (!next || next.disabled || next.getAttribute('aria-disabled') === 'true') {
    return { clicked: false };
  }
  next.click();
  return { clicked: true };
}`

// Locator reads the visible carousel through the page script bridge.
type Locator struct {
	pager  browser.Pager
	sel    config.Selectors
	logger logging.Logger
}

func NewLocator(pager browser.Pager, sel config.Selectors, logger logging.Logger) *Locator {
	return &Locator{pager: pager, sel: sel, logger: logging.OrNop(logger)}
}

var _ Source = (*Locator)(nil)

type selectorArgs struct {
	Carousel string `json:"carousel"`
	Slide    string `json:"slide"`
	Tab      string `json:"tab"`
	Next     string `json:"next"`
}

func (l *Locator) args() selectorArgs {
	return selectorArgs{
		Carousel: l.sel.Carousel,
		Slide:    l.sel.Slide,
		Tab:      l.sel.Tab,
		Next:     l.sel.NextButton,
	}
}

// Snapshot reads the current carousel state. The returned error is reserved
// for script-bridge failures; DOM-side problems arrive in Snapshot.Err.
func (l *Locator) Snapshot(ctx context.Context) (Snapshot, error) {
	var snap Snapshot
	if err := l.pager.Eval(ctx, snapshotScript, l.args(), &snap); err != nil {
		return Snapshot{}, err
	}
	if snap.Err != "" {
		l.logger.Debug("carousel snapshot: %s", snap.Err)
	}
	return snap, nil
}

// ClickNext advances the carousel. Returns false when the next control is
// absent or disabled.
func (l *Locator) ClickNext(ctx context.Context) (bool, error) {
	var result struct {
		Clicked bool   `json:"clicked"`
		Err     string `json:"error"`
	}
	if err := l.pager.Eval(ctx, clickNextScript, l.args(), &result); err != nil {
		return false, err
	}
	if result.Err != "" {
		l.logger.Debug("carousel next click: %s", result.Err)
		return false, nil
	}
	return result.Clicked, nil
}
