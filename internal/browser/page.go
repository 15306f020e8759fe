package browser

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/chromedp/chromedp"

	"github.com/AmirAgassi/rizzly/internal/logging"
)

// Pager is the script-execution capability everything else is built on.
// Implementations must never let an in-page exception escape as a Go panic
// or an unhandled failure: DOM-side errors come back inside the result
// payload, bridge-side failures as a *ScriptError.
type Pager interface {
	// Eval runs fn — a JavaScript function expression — against the page,
	// passing args (JSON-marshalled) as its single argument, and decodes the
	// returned value into out.
	Eval(ctx context.Context, fn string, args any, out any) error
	// Navigate points the page at url.
	Navigate(ctx context.Context, url string) error
	// Location returns the page's current location path.
	Location(ctx context.Context) (string, error)
}

// ScriptError is a failure of the script bridge itself (tab gone, protocol
// error, timeout) as opposed to a DOM-side negative result.
type ScriptError struct {
	Op  string
	Err error
}

func (e *ScriptError) Error() string {
	return fmt.Sprintf("page script %s: %v", e.Op, e.Err)
}

func (e *ScriptError) Unwrap() error {
	return e.Err
}

// Page is one embedded-page tab. It satisfies Pager.
type Page struct {
	ctx     context.Context
	cancel  context.CancelFunc
	timeout time.Duration
	logger  logging.Logger

	// One awaited round trip at a time per page.
	mu sync.Mutex
}

var _ Pager = (*Page)(nil)

// buildCall wraps fn in an IIFE that passes args as a JSON literal and traps
// every in-page exception into an {error} payload. Selector and text values
// travel as structured arguments, never interpolated into the script text.
func buildCall(fn string, args any) (string, error) {
	argLiteral := "undefined"
	if args != nil {
		encoded, err := json.Marshal(args)
		if err != nil {
			return "", fmt.Errorf("marshal script args: %w", err)
		}
		argLiteral = string(encoded)
	}
	script := fmt.Sprintf(`(() => {
  try {
    return (%s)(%s);
  } catch (err) {
    return { error: String((err && err.message) || err) };
  }
})()`, fn, argLiteral)
	return script, nil
}

func (p *Page) Eval(ctx context.Context, fn string, args any, out any) error {
	script, err := buildCall(fn, args)
	if err != nil {
		return &ScriptError{Op: "build", Err: err}
	}
	if err := p.run(ctx, chromedp.Evaluate(script, out)); err != nil {
		return &ScriptError{Op: "evaluate", Err: err}
	}
	return nil
}

func (p *Page) Navigate(ctx context.Context, url string) error {
	p.logger.Info("navigating embedded page to %s", url)
	if err := p.run(ctx, chromedp.Navigate(url)); err != nil {
		return &ScriptError{Op: "navigate", Err: err}
	}
	return nil
}

func (p *Page) Location(ctx context.Context) (string, error) {
	var result struct {
		Path  string `json:"path"`
		Error string `json:"error"`
	}
	err := p.Eval(ctx, `() => ({ path: window.location.pathname })`, nil, &result)
	if err != nil {
		return "", err
	}
	if result.Error != "" {
		return "", &ScriptError{Op: "location", Err: fmt.Errorf("%s", result.Error)}
	}
	return result.Path, nil
}

func (p *Page) run(callCtx context.Context, tasks ...chromedp.Action) error {
	if p == nil {
		return fmt.Errorf("page is nil")
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	runCtx, cancel := context.WithTimeout(p.ctx, p.timeout)
	defer cancel()
	if callCtx != nil {
		if done := callCtx.Done(); done != nil {
			go func() {
				select {
				case <-done:
					cancel()
				case <-runCtx.Done():
				}
			}()
		}
	}
	return chromedp.Run(runCtx, tasks...)
}

func (p *Page) close() {
	if p == nil {
		return
	}
	if p.cancel != nil {
		p.cancel()
	}
}
