package generators

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/sashabaranov/go-openai"
)

// DefaultMood is the fallback whenever classification fails or the model
// answers outside the vocabulary.
const DefaultMood = "calm"

// Moods is the closed vocabulary the classifier may answer with. Each mood
// maps to an ambiance track in configuration.
var Moods = []string{"calm", "tense", "joyful", "mysterious", "somber", "triumphant"}

// MoodClient classifies story text into the closed mood vocabulary.
type MoodClient struct {
	client *openai.Client
	model  string
	logger *log.Logger
}

// NewMoodClient creates a mood classification client.
func NewMoodClient(client *openai.Client, model string) *MoodClient {
	return &MoodClient{client: client, model: model, logger: log.With("component", "mood-client")}
}

// Classify returns the mood of the text. Never fails: any error or
// out-of-vocabulary answer degrades to DefaultMood.
func (c *MoodClient) Classify(ctx context.Context, text string) string {
	prompt := fmt.Sprintf(
		"Classify the mood of this story passage. Answer with exactly one word from: %s.\n\nPassage:\n%s",
		strings.Join(Moods, ", "), text,
	)

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:     c.model,
		Messages:  []openai.ChatCompletionMessage{{Role: openai.ChatMessageRoleUser, Content: prompt}},
		MaxTokens: 5,
	})
	if err != nil {
		c.logger.Warn("mood classification failed, using default", "err", err)
		return DefaultMood
	}
	if len(resp.Choices) == 0 {
		return DefaultMood
	}

	answer := strings.ToLower(strings.TrimSpace(strings.Trim(resp.Choices[0].Message.Content, ".\"' ")))
	for _, m := range Moods {
		if answer == m {
			return m
		}
	}
	c.logger.Warn("mood outside vocabulary, using default", "answer", answer)
	return DefaultMood
}
