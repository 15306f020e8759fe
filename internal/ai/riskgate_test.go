package ai

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRiskGateFlagsEmergency(t *testing.T) {
	server := completionServer(t, func(w http.ResponseWriter, _ map[string]any) {
		_, _ = w.Write([]byte(chatAnswer(`{"isEmergency": true, "message": "hold up, let's not send that", "emotion": "supportive"}`)))
	})

	gate := NewRiskGate(NewClient(Config{APIKey: "test-key", BaseURL: server.URL, ChatModel: "m"}), nil)
	decision := gate.Classify(context.Background(), "something awful", "", nil)

	assert.True(t, decision.IsEmergency)
	assert.Equal(t, "hold up, let's not send that", decision.Message)
	assert.Equal(t, EmotionSupportive, decision.Emotion)
}

func TestRiskGateSeedsConversationContext(t *testing.T) {
	var seenUser string
	server := completionServer(t, func(w http.ResponseWriter, body map[string]any) {
		messages := body["messages"].([]any)
		require.Len(t, messages, 2)
		seenUser, _ = messages[1].(map[string]any)["content"].(string)
		_, _ = w.Write([]byte(chatAnswer(`{"isEmergency": false, "message": "", "emotion": "casual"}`)))
	})

	gate := NewRiskGate(NewClient(Config{APIKey: "test-key", BaseURL: server.URL, ChatModel: "m"}), nil)
	gate.Classify(context.Background(), "you up?", "wants slow burn, no hookups", []string{"hi", "hey yourself"})

	assert.Contains(t, seenUser, "wants slow burn, no hookups")
	assert.Contains(t, seenUser, "- hi\n- hey yourself")
	assert.Contains(t, seenUser, "you up?")
}

func TestRiskGateOmitsEmptyConversationContext(t *testing.T) {
	var seenUser string
	server := completionServer(t, func(w http.ResponseWriter, body map[string]any) {
		messages := body["messages"].([]any)
		seenUser, _ = messages[1].(map[string]any)["content"].(string)
		_, _ = w.Write([]byte(chatAnswer(`{"isEmergency": false, "message": "", "emotion": "casual"}`)))
	})

	gate := NewRiskGate(NewClient(Config{APIKey: "test-key", BaseURL: server.URL, ChatModel: "m"}), nil)
	gate.Classify(context.Background(), "hello there", "", nil)

	assert.NotContains(t, seenUser, "preferences")
	assert.NotContains(t, seenUser, "conversation turns")
	assert.Contains(t, seenUser, "hello there")
}

func TestRiskGatePassesNegativeVerdict(t *testing.T) {
	server := completionServer(t, func(w http.ResponseWriter, _ map[string]any) {
		_, _ = w.Write([]byte(chatAnswer(`{"isEmergency": false, "message": "", "emotion": "casual"}`)))
	})

	gate := NewRiskGate(NewClient(Config{APIKey: "test-key", BaseURL: server.URL, ChatModel: "m"}), nil)
	assert.False(t, gate.Classify(context.Background(), "hey how's it going", "", nil).IsEmergency)
}

func TestRiskGateFailsOpenOnTransportError(t *testing.T) {
	server := completionServer(t, func(w http.ResponseWriter, _ map[string]any) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	gate := NewRiskGate(NewClient(Config{APIKey: "test-key", BaseURL: server.URL, ChatModel: "m"}), nil)
	assert.False(t, gate.Classify(context.Background(), "anything", "", nil).IsEmergency)
}

func TestRiskGateFailsOpenOnGarbageAnswer(t *testing.T) {
	server := completionServer(t, func(w http.ResponseWriter, _ map[string]any) {
		_, _ = w.Write([]byte(chatAnswer("as an assistant i think this message seems fine")))
	})

	gate := NewRiskGate(NewClient(Config{APIKey: "test-key", BaseURL: server.URL, ChatModel: "m"}), nil)
	assert.False(t, gate.Classify(context.Background(), "anything", "", nil).IsEmergency)
}

func TestRiskGateNormalizesUnknownEmotion(t *testing.T) {
	server := completionServer(t, func(w http.ResponseWriter, _ map[string]any) {
		_, _ = w.Write([]byte(chatAnswer(`{"isEmergency": true, "message": "stop", "emotion": "alarmed"}`)))
	})

	gate := NewRiskGate(NewClient(Config{APIKey: "test-key", BaseURL: server.URL, ChatModel: "m"}), nil)
	decision := gate.Classify(context.Background(), "bad", "", nil)
	assert.True(t, decision.IsEmergency)
	assert.Equal(t, EmotionSupportive, decision.Emotion)
}
