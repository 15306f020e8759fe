package monitor

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AmirAgassi/rizzly/internal/ai"
	"github.com/AmirAgassi/rizzly/internal/events"
)

type fakeField struct {
	mu       sync.Mutex
	path     string
	text     string
	present  bool
	disabled bool

	peekErr     error
	removeErr   error
	removeDelay time.Duration

	disableCalls []bool
	appended     string
}

func newFakeField(path, text string) *fakeField {
	return &fakeField{path: path, text: text, present: true}
}

func (f *fakeField) Peek(context.Context) (Peeked, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.peekErr != nil {
		return Peeked{}, f.peekErr
	}
	return Peeked{Path: f.path, Present: f.present, Text: f.text, Disabled: f.disabled}, nil
}

func (f *fakeField) SetDisabled(_ context.Context, disabled bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.disabled = disabled
	f.disableCalls = append(f.disableCalls, disabled)
	return nil
}

func (f *fakeField) RemoveLastChar(context.Context) (int, error) {
	if f.removeDelay > 0 {
		time.Sleep(f.removeDelay)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.removeErr != nil {
		return 0, f.removeErr
	}
	runes := []rune(f.text)
	if len(runes) > 0 {
		f.text = string(runes[:len(runes)-1])
	}
	return len([]rune(f.text)), nil
}

func (f *fakeField) AppendText(_ context.Context, chunk string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.appended += chunk
	return len([]rune(f.appended)), nil
}

func (f *fakeField) isDisabled() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.disabled
}

type fakeGate struct {
	mu        sync.Mutex
	calls     int
	decision  ai.Decision
	lastPrefs string
	lastTurns []string
}

func (g *fakeGate) Classify(_ context.Context, _ string, prefs string, turns []string) ai.Decision {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls++
	g.lastPrefs = prefs
	g.lastTurns = turns
	return g.decision
}

func (g *fakeGate) callCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls
}

type fakeGen struct {
	mu             sync.Mutex
	followUpPrefs  string
	followUpCalled bool
}

func (g *fakeGen) FollowUp(_ context.Context, _ string, prefs string) ai.Reaction {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.followUpPrefs = prefs
	g.followUpCalled = true
	return ai.Reaction{Message: "that one's gone", Emotion: ai.EmotionSupportive}
}

func (g *fakeGen) Completion(context.Context, string) ai.Reaction {
	return ai.Reaction{Message: "typed and ready", Emotion: ai.EmotionCasual}
}

func newTestController(t *testing.T, field FieldOps, cache *DebounceCache, bus *events.Bus) *Controller {
	t.Helper()
	return NewController(field, &fakeGen{}, bus, cache, ControllerConfig{
		DeletePause:       time.Millisecond,
		MaxDeleteAttempts: 200,
		CooldownExtension: time.Minute,
		ReleaseBuffer:     time.Millisecond,
	}, nil)
}

func newTestMonitor(t *testing.T, field FieldOps, gate ai.Classifier, controller *Controller, cache *DebounceCache) *Monitor {
	t.Helper()
	return NewMonitor(field, cache, gate, controller, nil, MonitorConfig{
		Interval:         time.Millisecond,
		ConversationPath: "/app/messages",
		MinLength:        3,
		DebounceWindow:   time.Second,
	}, nil)
}

func mustCache(t *testing.T) *DebounceCache {
	t.Helper()
	cache, err := NewDebounceCache(64)
	require.NoError(t, err)
	return cache
}

func TestTickSkipsShortDrafts(t *testing.T) {
	cache := mustCache(t)
	field := newFakeField("/app/messages/123", "hi")
	gate := &fakeGate{}
	mon := newTestMonitor(t, field, gate, newTestController(t, field, cache, nil), cache)

	mon.tick(context.Background())
	assert.Zero(t, gate.callCount())
}

func TestTickSkipsOutsideConversation(t *testing.T) {
	cache := mustCache(t)
	field := newFakeField("/app/recs", "a complete severe message")
	gate := &fakeGate{}
	mon := newTestMonitor(t, field, gate, newTestController(t, field, cache, nil), cache)

	mon.tick(context.Background())
	assert.Zero(t, gate.callCount())
}

func TestTickDebouncesIdenticalContent(t *testing.T) {
	cache := mustCache(t)
	field := newFakeField("/app/messages/123", "same draft every tick")
	gate := &fakeGate{}
	mon := newTestMonitor(t, field, gate, newTestController(t, field, cache, nil), cache)

	mon.tick(context.Background())
	mon.tick(context.Background())
	mon.tick(context.Background())
	assert.Equal(t, 1, gate.callCount())
}

func TestTickClassifiesChangedContent(t *testing.T) {
	cache := mustCache(t)
	field := newFakeField("/app/messages/123", "first draft text")
	gate := &fakeGate{}
	mon := newTestMonitor(t, field, gate, newTestController(t, field, cache, nil), cache)

	mon.tick(context.Background())
	field.text = "second draft text"
	mon.tick(context.Background())
	assert.Equal(t, 2, gate.callCount())
}

func TestTickSeedsClassifierWithConversation(t *testing.T) {
	cache := mustCache(t)
	field := newFakeField("/app/messages/123", "a draft worth classifying")
	gate := &fakeGate{}
	convo := NewConversation(0)
	convo.Update("looking for something serious", []string{"hey!", "hey, how was your week?"})
	mon := NewMonitor(field, cache, gate, newTestController(t, field, cache, nil), convo, MonitorConfig{
		Interval:         time.Millisecond,
		ConversationPath: "/app/messages",
		MinLength:        3,
		DebounceWindow:   time.Second,
	}, nil)

	mon.tick(context.Background())
	require.Equal(t, 1, gate.callCount())
	assert.Equal(t, "looking for something serious", gate.lastPrefs)
	assert.Equal(t, []string{"hey!", "hey, how was your week?"}, gate.lastTurns)
}

func TestNegativeVerdictNeverTakesLock(t *testing.T) {
	cache := mustCache(t)
	field := newFakeField("/app/messages/123", "hey wanna come over and ma")
	gate := &fakeGate{decision: ai.Decision{IsEmergency: false}}
	controller := newTestController(t, field, cache, nil)
	mon := newTestMonitor(t, field, gate, controller, cache)

	mon.tick(context.Background())
	assert.Equal(t, 1, gate.callCount())
	assert.False(t, controller.Locked())
	assert.Empty(t, field.disableCalls)
}

func TestTickSkipsWhilePeekFails(t *testing.T) {
	cache := mustCache(t)
	field := newFakeField("/app/messages/123", "some draft text")
	field.peekErr = context.DeadlineExceeded
	gate := &fakeGate{}
	mon := newTestMonitor(t, field, gate, newTestController(t, field, cache, nil), cache)

	mon.tick(context.Background())
	assert.Zero(t, gate.callCount())
}

func TestRunStopsOnCancel(t *testing.T) {
	cache := mustCache(t)
	field := newFakeField("/app/recs", "")
	mon := newTestMonitor(t, field, &fakeGate{}, newTestController(t, field, cache, nil), cache)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		mon.Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool { return mon.Status().Running }, time.Second, time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("monitor did not stop")
	}
	assert.False(t, mon.Status().Running)
}
