package monitor

import (
	"context"
	"fmt"

	"github.com/AmirAgassi/rizzly/internal/browser"
	"github.com/AmirAgassi/rizzly/internal/logging"
)

// Peeked is one observation of the message field and page location,
// gathered in a single script round trip per tick.
type Peeked struct {
	Path     string `json:"path"`
	Present  bool   `json:"present"`
	Text     string `json:"text"`
	Disabled bool   `json:"disabled"`
}

// FieldOps are the message-field primitives shared by the monitor, the
// intervention controller, and the auto-typer.
type FieldOps interface {
	Peek(ctx context.Context) (Peeked, error)
	SetDisabled(ctx context.Context, disabled bool) error
	RemoveLastChar(ctx context.Context) (int, error)
	AppendText(ctx context.Context, chunk string) (int, error)
}

const peekScript = `(args) => {
  const field = document.querySelector(args.selector);
  if (!field) {
    return { path: window.location.pathname, present: false };
  }
  const raw = field.value !== undefined ? field.value : (field.textContent || '');
  return {
    path: window.location.pathname,
    present: true,
    text: String(raw).trim(),
    disabled: !!field.disabled,
  };
}`

const setDisabledScript = `(args) => {
  const field = document.querySelector(args.selector);
  if (!field) return { error: 'message field not found' };
  field.disabled = !!args.disabled;
  field.style.opacity = args.disabled ? '0.5' : '';
  return { ok: true };
}`

// The SPA tracks the field through React's synthetic events, so plain value
// assignment is invisible to it. Writes go through the prototype's native
// value setter followed by a bubbling input event.
const setValueScript = `(args) => {
  const field = document.querySelector(args.selector);
  if (!field) return { error: 'message field not found' };
  const value = field.value !== undefined ? field.value : (field.textContent || '');
  let next;
  if (args.mode === 'trim') {
    const chars = Array.from(value);
    if (!chars.length) return { remaining: 0 };
    chars.pop();
    next = chars.join('');
  } else {
    next = value + args.chunk;
  }
  const proto = field.tagName === 'TEXTAREA'
    ? window.HTMLTextAreaElement.prototype
    : window.HTMLInputElement.prototype;
  const descriptor = Object.getOwnPropertyDescriptor(proto, 'value');
  if (descriptor && descriptor.set) {
    descriptor.set.call(field, next);
  } else {
    field.value = next;
  }
  field.dispatchEvent(new Event('input', { bubbles: true }));
  return { remaining: Array.from(next).length };
}`

// Field drives the message-composition element through the script bridge.
type Field struct {
	pager    browser.Pager
	selector string
	logger   logging.Logger
}

func NewField(pager browser.Pager, selector string, logger logging.Logger) *Field {
	return &Field{pager: pager, selector: selector, logger: logging.OrNop(logger)}
}

var _ FieldOps = (*Field)(nil)

func (f *Field) Peek(ctx context.Context) (Peeked, error) {
	var peeked Peeked
	args := map[string]string{"selector": f.selector}
	if err := f.pager.Eval(ctx, peekScript, args, &peeked); err != nil {
		return Peeked{}, err
	}
	return peeked, nil
}

func (f *Field) SetDisabled(ctx context.Context, disabled bool) error {
	var result struct {
		OK  bool   `json:"ok"`
		Err string `json:"error"`
	}
	args := map[string]any{"selector": f.selector, "disabled": disabled}
	if err := f.pager.Eval(ctx, setDisabledScript, args, &result); err != nil {
		return err
	}
	if result.Err != "" {
		return fmt.Errorf("set disabled: %s", result.Err)
	}
	return nil
}

// RemoveLastChar trims one code point and returns the remaining length in
// code points. Trimming by code unit would leave a lone surrogate in the
// field when the last character is an emoji.
func (f *Field) RemoveLastChar(ctx context.Context) (int, error) {
	return f.mutate(ctx, map[string]any{"selector": f.selector, "mode": "trim"})
}

// AppendText appends chunk and returns the resulting length.
func (f *Field) AppendText(ctx context.Context, chunk string) (int, error) {
	return f.mutate(ctx, map[string]any{"selector": f.selector, "mode": "append", "chunk": chunk})
}

func (f *Field) mutate(ctx context.Context, args map[string]any) (int, error) {
	var result struct {
		Remaining int    `json:"remaining"`
		Err       string `json:"error"`
	}
	if err := f.pager.Eval(ctx, setValueScript, args, &result); err != nil {
		return 0, err
	}
	if result.Err != "" {
		return 0, fmt.Errorf("mutate field: %s", result.Err)
	}
	return result.Remaining, nil
}
