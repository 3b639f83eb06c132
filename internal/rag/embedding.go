package rag

import (
	"context"
	"fmt"

	"github.com/sashabaranov/go-openai"
)

// EmbeddingService turns memory text into vectors for similarity search.
type EmbeddingService struct {
	client *openai.Client
	model  string
}

// NewEmbeddingService creates an embedding service.
func NewEmbeddingService(client *openai.Client, model string) *EmbeddingService {
	return &EmbeddingService{client: client, model: model}
}

// Embed returns the embedding vector for the given text.
func (s *EmbeddingService) Embed(ctx context.Context, text string) ([]float32, error) {
	resp, err := s.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: []string{text},
		Model: openai.EmbeddingModel(s.model),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create embedding: %w", err)
	}
	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("embedding response contained no data")
	}
	return resp.Data[0].Embedding, nil
}
