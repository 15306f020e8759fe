package monitor

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConversationKeepsMostRecentTurns(t *testing.T) {
	convo := NewConversation(3)
	convo.Update("prefers coffee dates", []string{"one", "two", "three", "four", "five"})

	prefs, turns := convo.Snapshot()
	assert.Equal(t, "prefers coffee dates", prefs)
	assert.Equal(t, []string{"three", "four", "five"}, turns)
}

func TestConversationDropsBlankTurns(t *testing.T) {
	convo := NewConversation(0)
	convo.Update("  prefs  ", []string{"  ", "real turn", ""})

	prefs, turns := convo.Snapshot()
	assert.Equal(t, "prefs", prefs)
	assert.Equal(t, []string{"real turn"}, turns)
}

func TestConversationNilSnapshotIsEmpty(t *testing.T) {
	var convo *Conversation
	prefs, turns := convo.Snapshot()
	assert.Empty(t, prefs)
	assert.Nil(t, turns)
}

func TestConversationDefaultTurnCap(t *testing.T) {
	convo := NewConversation(0)
	turns := make([]string, 0, defaultMaxTurns+5)
	for i := 0; i < defaultMaxTurns+5; i++ {
		turns = append(turns, fmt.Sprintf("turn %d", i))
	}
	convo.Update("", turns)

	_, kept := convo.Snapshot()
	assert.Len(t, kept, defaultMaxTurns)
	assert.Equal(t, fmt.Sprintf("turn %d", defaultMaxTurns+4), kept[len(kept)-1])
}
