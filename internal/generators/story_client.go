package generators

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/sashabaranov/go-openai"

	"taleweaver/client/internal/interfaces"
	"taleweaver/client/internal/story"
)

const (
	maxRetries = 3
	retryDelay = 1 * time.Second
)

const storySystemPrompt = `You are the narrator of an interactive storytelling game for curious readers.
Continue the story based on the conversation so far and the user's latest input.

Rules:
- Prefix each speaker's dialogue with a bracketed ALL-CAPS tag, e.g. [NARRATOR], [BARNABY].
- Wrap two or three challenging words as {word|short definition}.
- Keep the story segment under 150 words, then offer 2-3 choices.

Respond with JSON only, in this exact shape:
{"story": "...", "choices": ["...", "..."]}`

// StoryClient generates story turns through a chat-completion model.
type StoryClient struct {
	client      *openai.Client
	model       string
	temperature float32
	maxTokens   int
	logger      *log.Logger
}

// NewStoryClient creates a story generation client.
func NewStoryClient(client *openai.Client, model string, temperature float64, maxTokens int) *StoryClient {
	return &StoryClient{
		client:      client,
		model:       model,
		temperature: float32(temperature),
		maxTokens:   maxTokens,
		logger:      log.With("component", "story-client"),
	}
}

// GenerateTurn requests the next story beat. A response whose structure
// cannot be parsed degrades to a raw-text story with no choices; only a
// failed request (after retries) is an error.
func (c *StoryClient) GenerateTurn(ctx context.Context, transcript []story.ChatMessage, input string, memories []string) (*interfaces.TurnPayload, error) {
	messages := make([]openai.ChatCompletionMessage, 0, len(transcript)+2)
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleSystem,
		Content: buildSystemPrompt(memories),
	})
	for _, m := range transcript {
		role := openai.ChatMessageRoleAssistant
		if m.Author == story.AuthorUser {
			role = openai.ChatMessageRoleUser
		}
		messages = append(messages, openai.ChatCompletionMessage{Role: role, Content: m.Text})
	}
	messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: input})

	raw, err := c.chatWithRetry(ctx, messages)
	if err != nil {
		return nil, err
	}

	payload, err := ParseTurnPayload(raw)
	if err != nil {
		c.logger.Warn("turn payload malformed, degrading to raw text", "err", err)
		return &interfaces.TurnPayload{Story: raw, Choices: []string{}}, nil
	}
	return payload, nil
}

func buildSystemPrompt(memories []string) string {
	if len(memories) == 0 {
		return storySystemPrompt
	}
	var b strings.Builder
	b.WriteString(storySystemPrompt)
	b.WriteString("\n\nRelevant earlier events you should stay consistent with:\n")
	for _, m := range memories {
		b.WriteString("- ")
		b.WriteString(m)
		b.WriteString("\n")
	}
	return b.String()
}

func (c *StoryClient) chatWithRetry(ctx context.Context, messages []openai.ChatCompletionMessage) (string, error) {
	var lastErr error

	for attempt := 0; attempt < maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(retryDelay * time.Duration(attempt)):
			}
		}

		resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
			Model:       c.model,
			Messages:    messages,
			Temperature: c.temperature,
			MaxTokens:   c.maxTokens,
		})
		if err != nil {
			lastErr = err
			continue
		}
		if len(resp.Choices) == 0 {
			lastErr = fmt.Errorf("no choices returned from model")
			continue
		}
		return resp.Choices[0].Message.Content, nil
	}

	return "", fmt.Errorf("story generation failed after %d retries: %w", maxRetries, lastErr)
}

// ParseTurnPayload extracts the structured turn from a model response,
// tolerating markdown code fences around the JSON body.
func ParseTurnPayload(raw string) (*interfaces.TurnPayload, error) {
	body := strings.TrimSpace(raw)
	if strings.HasPrefix(body, "```") {
		body = strings.TrimPrefix(body, "```json")
		body = strings.TrimPrefix(body, "```")
		if i := strings.LastIndex(body, "```"); i >= 0 {
			body = body[:i]
		}
		body = strings.TrimSpace(body)
	}

	var payload interfaces.TurnPayload
	if err := json.Unmarshal([]byte(body), &payload); err != nil {
		return nil, fmt.Errorf("not a structured turn: %w", err)
	}
	if payload.Story == "" {
		return nil, fmt.Errorf("structured turn missing story text")
	}
	if payload.Choices == nil {
		payload.Choices = []string{}
	}
	return &payload, nil
}
