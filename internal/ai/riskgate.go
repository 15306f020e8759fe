package ai

import (
	"context"
	"fmt"
	"strings"

	"github.com/AmirAgassi/rizzly/internal/logging"
)

// Decision is the risk gate's verdict on one draft message.
type Decision struct {
	IsEmergency bool    `json:"isEmergency"`
	Message     string  `json:"message"`
	Emotion     Emotion `json:"emotion"`
}

// Classifier is what the monitor needs from a risk gate. prefs carries the
// user's stated dating preferences and turns the most recent conversation
// turns, oldest first; either may be empty when the UI has not supplied them.
type Classifier interface {
	Classify(ctx context.Context, draft, prefs string, turns []string) Decision
}

// RiskGate asks the chat model whether a draft is severe enough to intervene
// on. Every failure mode resolves to a negative verdict: an unreachable or
// confused classifier must never trigger deletion of the user's text.
type RiskGate struct {
	client *Client
	logger logging.Logger
}

func NewRiskGate(client *Client, logger logging.Logger) *RiskGate {
	return &RiskGate{client: client, logger: logging.OrNop(logger)}
}

var _ Classifier = (*RiskGate)(nil)

func (g *RiskGate) Classify(ctx context.Context, draft, prefs string, turns []string) Decision {
	pass := Decision{IsEmergency: false}

	messages := []Message{
		{Role: "system", Content: riskSystemPrompt},
		{Role: "user", Content: riskUserMessage(draft, prefs, turns)},
	}

	raw, err := g.client.Chat(ctx, messages, 256)
	if err != nil {
		g.logger.Warn("risk classification failed, passing: %v", err)
		return pass
	}

	var verdict struct {
		IsEmergency bool   `json:"isEmergency"`
		Message     string `json:"message"`
		Emotion     string `json:"emotion"`
	}
	if err := decodeModelJSON(raw, &verdict); err != nil {
		g.logger.Warn("risk verdict not decodable, passing: %v", err)
		return pass
	}
	if !verdict.IsEmergency {
		return pass
	}

	g.logger.Info("risk gate flagged draft (%d chars)", len(draft))
	return Decision{
		IsEmergency: true,
		Message:     verdict.Message,
		Emotion:     NormalizeEmotion(verdict.Emotion, EmotionSupportive),
	}
}

// riskUserMessage seeds the classifier with the conversation around the
// draft, when the UI has shared it, so severity is judged in context.
func riskUserMessage(draft, prefs string, turns []string) string {
	var b strings.Builder
	if prefs != "" {
		fmt.Fprintf(&b, "The user's stated dating preferences:\n%s\n\n", prefs)
	}
	if len(turns) > 0 {
		b.WriteString("Recent conversation turns, oldest first:\n")
		for _, turn := range turns {
			fmt.Fprintf(&b, "- %s\n", turn)
		}
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "Draft message currently in the input field:\n\n%s", draft)
	return b.String()
}
