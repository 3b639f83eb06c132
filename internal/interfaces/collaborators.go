package interfaces

import (
	"context"

	"taleweaver/client/internal/story"
)

// TurnPayload is the structured result of one story-generation call.
type TurnPayload struct {
	Story   string   `json:"story"`
	Choices []string `json:"choices"`
}

// StoryGenerator produces the next story beat for the given transcript and
// user input. Implementations degrade a malformed structured response to a
// raw-text story with no choices rather than failing the turn.
type StoryGenerator interface {
	GenerateTurn(ctx context.Context, transcript []story.ChatMessage, input string, memories []string) (*TurnPayload, error)
}

// SpeechSynthesizer converts one dialogue segment into a transport-encoded
// audio payload. Each call is independent: one segment failing must not
// abort the others.
type SpeechSynthesizer interface {
	Synthesize(ctx context.Context, text, voiceID string) (string, error)
}

// IllustrationGenerator renders a scene illustration. On internal failure it
// returns a placeholder URL instead of an error, so callers always receive a
// usable image reference.
type IllustrationGenerator interface {
	Generate(ctx context.Context, prompt string) string
}

// MoodClassifier maps story text onto a fixed closed mood vocabulary. On
// failure or an out-of-vocabulary answer it returns the default mood.
type MoodClassifier interface {
	Classify(ctx context.Context, text string) string
}

// MemoryRecall stores committed turns and retrieves related past memories to
// enrich generation prompts. All methods are best-effort.
type MemoryRecall interface {
	StoreTurn(ctx context.Context, sessionID, userInput, storyText string)
	RelatedMemories(ctx context.Context, sessionID, input string) []string
}
