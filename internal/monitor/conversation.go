package monitor

import (
	"strings"
	"sync"
)

const defaultMaxTurns = 20

// Conversation holds what the UI layer knows about the active chat: the
// user's stated dating preferences and the most recent turns, oldest first.
// The gateway writes it; classification and follow-up generation read it.
type Conversation struct {
	mu       sync.RWMutex
	prefs    string
	turns    []string
	maxTurns int
}

func NewConversation(maxTurns int) *Conversation {
	if maxTurns <= 0 {
		maxTurns = defaultMaxTurns
	}
	return &Conversation{maxTurns: maxTurns}
}

// Update replaces the stored preferences and turns. Blank turns are dropped
// and only the most recent maxTurns are kept.
func (c *Conversation) Update(prefs string, turns []string) {
	kept := make([]string, 0, len(turns))
	for _, turn := range turns {
		if t := strings.TrimSpace(turn); t != "" {
			kept = append(kept, t)
		}
	}
	if len(kept) > c.maxTurns {
		kept = kept[len(kept)-c.maxTurns:]
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.prefs = strings.TrimSpace(prefs)
	c.turns = kept
}

// Snapshot returns the current preferences and a copy of the turns. Safe on
// a nil receiver, which reads as an empty conversation.
func (c *Conversation) Snapshot() (string, []string) {
	if c == nil {
		return "", nil
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	if len(c.turns) == 0 {
		return c.prefs, nil
	}
	out := make([]string, len(c.turns))
	copy(out, c.turns)
	return c.prefs, out
}
