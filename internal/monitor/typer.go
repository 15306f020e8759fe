package monitor

import (
	"context"
	"errors"
	"time"

	"github.com/AmirAgassi/rizzly/internal/ai"
	"github.com/AmirAgassi/rizzly/internal/logging"
)

// ErrInterventionActive is returned when typing is requested while an
// intervention holds the field.
var ErrInterventionActive = errors.New("intervention in progress, refusing to type")

// Typer writes AI-authored messages into the field at a human-ish pace,
// using the same mutation primitives as deletion.
type Typer struct {
	field      FieldOps
	controller *Controller
	gen        ReactionSource
	pause      time.Duration
	logger     logging.Logger
}

func NewTyper(field FieldOps, controller *Controller, gen ReactionSource, pause time.Duration, logger logging.Logger) *Typer {
	if pause <= 0 {
		pause = 45 * time.Millisecond
	}
	return &Typer{
		field:      field,
		controller: controller,
		gen:        gen,
		pause:      pause,
		logger:     logging.OrNop(logger),
	}
}

// Type appends text one character at a time, then asks the generator for a
// completion reaction to show the user.
func (t *Typer) Type(ctx context.Context, text string) (ai.Reaction, error) {
	if t.controller.Locked() {
		return ai.Reaction{}, ErrInterventionActive
	}

	t.logger.Info("auto-typing %d chars", len([]rune(text)))
	for _, r := range text {
		if _, err := t.field.AppendText(ctx, string(r)); err != nil {
			return ai.Reaction{}, err
		}
		if !sleepCtx(ctx, t.pause) {
			return ai.Reaction{}, ctx.Err()
		}
	}

	return t.gen.Completion(ctx, text), nil
}
