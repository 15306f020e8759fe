package ai

import "strings"

// Emotion labels an assistant reaction so the UI can pick the matching
// avatar sprite.
type Emotion string

const (
	EmotionHappy        Emotion = "happy"
	EmotionExcited      Emotion = "excited"
	EmotionConfident    Emotion = "confident"
	EmotionThinking     Emotion = "thinking"
	EmotionAnalyzing    Emotion = "analyzing"
	EmotionSurprised    Emotion = "surprised"
	EmotionConfused     Emotion = "confused"
	EmotionDisappointed Emotion = "disappointed"
	EmotionSupportive   Emotion = "supportive"
	EmotionEncouraging  Emotion = "encouraging"
	EmotionFlirty       Emotion = "flirty"
	EmotionRomantic     Emotion = "romantic"
	EmotionChill        Emotion = "chill"
	EmotionCasual       Emotion = "casual"
)

var validEmotions = map[Emotion]struct{}{
	EmotionHappy:        {},
	EmotionExcited:      {},
	EmotionConfident:    {},
	EmotionThinking:     {},
	EmotionAnalyzing:    {},
	EmotionSurprised:    {},
	EmotionConfused:     {},
	EmotionDisappointed: {},
	EmotionSupportive:   {},
	EmotionEncouraging:  {},
	EmotionFlirty:       {},
	EmotionRomantic:     {},
	EmotionChill:        {},
	EmotionCasual:       {},
}

// NormalizeEmotion lowercases raw and returns it when it names a known
// emotion, otherwise fallback.
func NormalizeEmotion(raw string, fallback Emotion) Emotion {
	e := Emotion(strings.ToLower(strings.TrimSpace(raw)))
	if _, ok := validEmotions[e]; ok {
		return e
	}
	return fallback
}
