package monitor

import (
	"context"
	"strings"
	"sync/atomic"
	"time"

	"github.com/AmirAgassi/rizzly/internal/ai"
	"github.com/AmirAgassi/rizzly/internal/logging"
)

// MonitorConfig tunes the polling loop.
type MonitorConfig struct {
	// Interval is the tick period.
	Interval time.Duration
	// ConversationPath gates ticks to the messaging part of the SPA.
	ConversationPath string
	// MinLength is the shortest draft worth classifying.
	MinLength int
	// DebounceWindow suppresses re-classification of unchanged content.
	DebounceWindow time.Duration
}

func (c MonitorConfig) withDefaults() MonitorConfig {
	if c.Interval <= 0 {
		c.Interval = 100 * time.Millisecond
	}
	if c.ConversationPath == "" {
		c.ConversationPath = "/app/messages"
	}
	if c.MinLength <= 0 {
		c.MinLength = 3
	}
	if c.DebounceWindow <= 0 {
		c.DebounceWindow = time.Second
	}
	return c
}

// Status is the check_monitoring report.
type Status struct {
	Running      bool `json:"running"`
	Intervening  bool `json:"intervening"`
	TicksHandled int  `json:"ticksHandled"`
}

// Monitor polls the message field and hands risky drafts to the controller.
// Polling survives SPA re-renders that would detach an event listener; the
// field is re-queried from scratch every tick.
type Monitor struct {
	field      FieldOps
	cache      *DebounceCache
	gate       ai.Classifier
	controller *Controller
	convo      *Conversation
	cfg        MonitorConfig
	logger     logging.Logger

	running atomic.Bool
	ticks   atomic.Int64
}

func NewMonitor(field FieldOps, cache *DebounceCache, gate ai.Classifier, controller *Controller, convo *Conversation, cfg MonitorConfig, logger logging.Logger) *Monitor {
	return &Monitor{
		field:      field,
		cache:      cache,
		gate:       gate,
		controller: controller,
		convo:      convo,
		cfg:        cfg.withDefaults(),
		logger:     logging.OrNop(logger),
	}
}

// Run ticks until ctx ends. Interventions run inline, so a positive verdict
// naturally pauses polling until the lock is released.
func (m *Monitor) Run(ctx context.Context) {
	m.running.Store(true)
	defer m.running.Store(false)

	m.logger.Info("input monitor started (interval %v)", m.cfg.Interval)
	ticker := time.NewTicker(m.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			m.logger.Info("input monitor stopped")
			return
		case <-ticker.C:
			m.tick(ctx)
		}
	}
}

func (m *Monitor) tick(ctx context.Context) {
	m.ticks.Add(1)

	if m.controller.Locked() {
		return
	}

	peeked, err := m.field.Peek(ctx)
	if err != nil {
		m.logger.Debug("field peek failed: %v", err)
		return
	}
	if !strings.Contains(peeked.Path, m.cfg.ConversationPath) {
		return
	}
	if !peeked.Present || peeked.Disabled {
		return
	}

	text := strings.TrimSpace(peeked.Text)
	if len([]rune(text)) < m.cfg.MinLength {
		return
	}

	key := m.cache.Key(text)
	if m.cache.ShouldSkip(key, m.cfg.DebounceWindow) {
		return
	}
	m.cache.Record(key)

	prefs, turns := m.convo.Snapshot()
	decision := m.gate.Classify(ctx, text, prefs, turns)
	if !decision.IsEmergency {
		return
	}
	m.controller.Trigger(ctx, text, key, prefs, decision)
}

// Status reports loop state for the check_monitoring command.
func (m *Monitor) Status() Status {
	return Status{
		Running:      m.running.Load(),
		Intervening:  m.controller.Locked(),
		TicksHandled: int(m.ticks.Load()),
	}
}
