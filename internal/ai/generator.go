package ai

import (
	"context"
	"fmt"

	"github.com/AmirAgassi/rizzly/internal/logging"
)

// Reaction is a short copilot utterance with its avatar emotion.
type Reaction struct {
	Message string  `json:"message"`
	Emotion Emotion `json:"emotion"`
}

// Fixed reactions used when the model cannot be reached or answers garbage.
// The copilot keeps talking even when the backend is down.
var (
	fallbackFollowUp = Reaction{
		Message: "hey, i stopped that one before it went out. deep breath, let's try something better",
		Emotion: EmotionSupportive,
	}
	fallbackCompletion = Reaction{
		Message: "all typed up and ready, give it a read and hit send when you're happy",
		Emotion: EmotionCasual,
	}
	fallbackAnalysis = Reaction{
		Message: "couldn't analyze the profile right now, but from what i can see, go with your gut!",
		Emotion: EmotionCasual,
	}
)

// Generator produces the copilot's follow-up and completion reactions.
type Generator struct {
	client *Client
	logger logging.Logger
}

func NewGenerator(client *Client, logger logging.Logger) *Generator {
	return &Generator{client: client, logger: logging.OrNop(logger)}
}

// FollowUp reacts to a just-deleted draft, tailored to the user's stated
// preferences when the UI has shared them. Never fails.
func (g *Generator) FollowUp(ctx context.Context, deletedText, prefs string) Reaction {
	var user string
	if prefs != "" {
		user = fmt.Sprintf("The user's stated dating preferences:\n%s\n\nThe removed draft was:\n\n%s", prefs, deletedText)
	} else {
		user = fmt.Sprintf("The removed draft was:\n\n%s", deletedText)
	}
	return g.react(ctx, followUpSystemPrompt, user, fallbackFollowUp)
}

// Completion reacts after the auto-typer finishes writing a message.
func (g *Generator) Completion(ctx context.Context, typedMessage string) Reaction {
	user := fmt.Sprintf("The message you just typed for the user:\n\n%s", typedMessage)
	return g.react(ctx, completionSystemPrompt, user, fallbackCompletion)
}

// AnalyzeProfile sends up to maxImages profile photos to the vision model
// and returns its take. Images are base64 PNG payloads; only the most recent
// maxImages are sent to keep the request inside token limits.
func (g *Generator) AnalyzeProfile(ctx context.Context, images []string, maxImages int) Reaction {
	if maxImages > 0 && len(images) > maxImages {
		images = images[len(images)-maxImages:]
	}
	parts := []any{TextPart("here are the profile photos, what do you think?")}
	for _, img := range images {
		parts = append(parts, ImagePart(img))
	}
	messages := []Message{
		{Role: "system", Content: analysisSystemPrompt},
		{Role: "user", Content: parts},
	}

	raw, err := g.client.ChatVision(ctx, messages, 512)
	if err != nil {
		g.logger.Warn("profile analysis failed: %v", err)
		return fallbackAnalysis
	}
	return Reaction{Message: raw, Emotion: EmotionAnalyzing}
}

func (g *Generator) react(ctx context.Context, system, user string, fallback Reaction) Reaction {
	messages := []Message{
		{Role: "system", Content: system},
		{Role: "user", Content: user},
	}
	raw, err := g.client.Chat(ctx, messages, 256)
	if err != nil {
		g.logger.Warn("reaction generation failed, using fallback: %v", err)
		return fallback
	}

	var parsed struct {
		Message string `json:"message"`
		Emotion string `json:"emotion"`
	}
	if err := decodeModelJSON(raw, &parsed); err != nil || parsed.Message == "" {
		g.logger.Warn("reaction not decodable, using fallback")
		return fallback
	}
	return Reaction{
		Message: parsed.Message,
		Emotion: NormalizeEmotion(parsed.Emotion, fallback.Emotion),
	}
}
