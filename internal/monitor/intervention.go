package monitor

import (
	"context"
	"sync"
	"time"

	"github.com/AmirAgassi/rizzly/internal/ai"
	"github.com/AmirAgassi/rizzly/internal/events"
	"github.com/AmirAgassi/rizzly/internal/logging"
)

// ReactionSource produces the copilot's human-facing reactions.
// Implementations never fail; they fall back to fixed strings instead.
type ReactionSource interface {
	FollowUp(ctx context.Context, deletedText, prefs string) ai.Reaction
	Completion(ctx context.Context, typedMessage string) ai.Reaction
}

// ControllerConfig tunes the deletion and cooldown phases.
type ControllerConfig struct {
	// DeletePause separates character removals.
	DeletePause time.Duration
	// MaxDeleteAttempts bounds the erasure loop so it terminates even
	// if the field is being edited underneath it.
	MaxDeleteAttempts int
	// CooldownExtension pushes the triggering cache entry into the
	// future so the same content is not immediately re-flagged.
	CooldownExtension time.Duration
	// ReleaseBuffer holds the lock a little past the recovery work.
	ReleaseBuffer time.Duration
}

func (c ControllerConfig) withDefaults() ControllerConfig {
	if c.DeletePause <= 0 {
		c.DeletePause = 40 * time.Millisecond
	}
	if c.MaxDeleteAttempts <= 0 {
		c.MaxDeleteAttempts = 200
	}
	if c.CooldownExtension <= 0 {
		c.CooldownExtension = 60 * time.Second
	}
	if c.ReleaseBuffer < 0 {
		c.ReleaseBuffer = 0
	}
	return c
}

// Controller runs at most one intervention at a time. An intervention
// announces the verdict, disables the field, erases it character by
// character, re-enables it, reacts, and cools down before releasing.
type Controller struct {
	field  FieldOps
	gen    ReactionSource
	bus    *events.Bus
	cache  *DebounceCache
	cfg    ControllerConfig
	logger logging.Logger

	mu     sync.Mutex
	locked bool
}

func NewController(field FieldOps, gen ReactionSource, bus *events.Bus, cache *DebounceCache, cfg ControllerConfig, logger logging.Logger) *Controller {
	return &Controller{
		field:  field,
		gen:    gen,
		bus:    bus,
		cache:  cache,
		cfg:    cfg.withDefaults(),
		logger: logging.OrNop(logger),
	}
}

// Locked reports whether an intervention currently holds the lock.
func (c *Controller) Locked() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.locked
}

// Trigger runs a full intervention for a positive verdict. prefs is the
// user's stated preferences, forwarded to the follow-up reaction. Returns
// false when another intervention already holds the lock and this one was
// ignored. The lock check doubles as the single-flight guard between
// classification and deletion.
func (c *Controller) Trigger(ctx context.Context, draft, cacheKey, prefs string, decision ai.Decision) bool {
	if !decision.IsEmergency {
		return false
	}

	c.mu.Lock()
	if c.locked {
		c.mu.Unlock()
		c.logger.Info("intervention already in progress, ignoring verdict")
		return false
	}
	c.locked = true
	c.mu.Unlock()

	defer c.release(ctx, cacheKey)

	c.logger.Info("intervention started (%d chars)", len(draft))
	c.bus.PublishEmergencyAlert(events.EmergencyAlert{
		Message: decision.Message,
		Emotion: string(decision.Emotion),
	})

	c.erase(ctx)

	reaction := c.gen.FollowUp(ctx, draft, prefs)
	c.bus.PublishEmergencyAlert(events.EmergencyAlert{
		Message: reaction.Message,
		Emotion: string(reaction.Emotion),
	})
	return true
}

// erase clears the field character by character. The field is re-enabled on
// every exit path, including script failures mid-loop.
func (c *Controller) erase(ctx context.Context) {
	if err := c.field.SetDisabled(ctx, true); err != nil {
		c.logger.Warn("could not disable field, erasing anyway: %v", err)
	}
	defer func() {
		if err := c.field.SetDisabled(ctx, false); err != nil {
			c.logger.Error("could not re-enable field: %v", err)
		}
	}()

	for attempts := 0; attempts < c.cfg.MaxDeleteAttempts; attempts++ {
		remaining, err := c.field.RemoveLastChar(ctx)
		if err != nil {
			c.logger.Warn("character removal failed after %d attempts: %v", attempts, err)
			return
		}
		if remaining <= 0 {
			c.logger.Info("field cleared in %d removals", attempts+1)
			return
		}
		if !sleepCtx(ctx, c.cfg.DeletePause) {
			return
		}
	}
	c.logger.Warn("removal attempt cap reached with content remaining")
}

func (c *Controller) release(ctx context.Context, cacheKey string) {
	if c.cache != nil && cacheKey != "" {
		c.cache.Extend(cacheKey, c.cfg.CooldownExtension)
	}
	sleepCtx(ctx, c.cfg.ReleaseBuffer)

	c.mu.Lock()
	c.locked = false
	c.mu.Unlock()
	c.logger.Info("intervention lock released")
}

// sleepCtx waits d unless ctx ends first; reports whether the full wait
// elapsed.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}
	select {
	case <-ctx.Done():
		return false
	case <-time.After(d):
		return true
	}
}
