package generators

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"

	"github.com/sashabaranov/go-openai"
)

// SpeechClient synthesizes one dialogue segment per call. Calls are
// independent; there is no shared mutable state beyond the HTTP client.
type SpeechClient struct {
	client *openai.Client
	model  string
}

// NewSpeechClient creates a speech synthesis client.
func NewSpeechClient(client *openai.Client, model string) *SpeechClient {
	return &SpeechClient{client: client, model: model}
}

// Synthesize converts text to a base64 WAV payload spoken by voiceID.
func (c *SpeechClient) Synthesize(ctx context.Context, text, voiceID string) (string, error) {
	if text == "" {
		return "", fmt.Errorf("text cannot be empty")
	}

	resp, err := c.client.CreateSpeech(ctx, openai.CreateSpeechRequest{
		Model:          openai.SpeechModel(c.model),
		Input:          text,
		Voice:          openai.SpeechVoice(voiceID),
		ResponseFormat: openai.SpeechResponseFormatWav,
	})
	if err != nil {
		return "", fmt.Errorf("speech synthesis failed: %w", err)
	}
	defer resp.Close()

	raw, err := io.ReadAll(resp)
	if err != nil {
		return "", fmt.Errorf("failed to read synthesis response: %w", err)
	}
	if len(raw) == 0 {
		return "", fmt.Errorf("synthesis returned empty audio")
	}

	return base64.StdEncoding.EncodeToString(raw), nil
}
