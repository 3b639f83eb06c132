package generators

import "github.com/sashabaranov/go-openai"

// NewOpenAIClient creates the shared API client every generator wraps.
func NewOpenAIClient(apiKey, baseURL string) *openai.Client {
	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}
	return openai.NewClientWithConfig(config)
}
