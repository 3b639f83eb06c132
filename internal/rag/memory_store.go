package rag

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"
)

// Embedder is the vector-producing dependency of the memory store.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// MemoryStore keeps long-range story memory in a vector collection so past
// turns can inform generation long after they scroll out of the context
// window. Everything here is best-effort: a dead vector store degrades the
// prompt, never the turn.
type MemoryStore struct {
	client     *qdrant.Client
	embedder   Embedder
	collection string
	vectorSize int
	limit      int
	logger     *log.Logger
}

// NewMemoryStore creates a memory store. client may be nil, in which case
// every operation is a no-op.
func NewMemoryStore(client *qdrant.Client, embedder Embedder, collection string, vectorSize, limit int) *MemoryStore {
	return &MemoryStore{
		client:     client,
		embedder:   embedder,
		collection: collection,
		vectorSize: vectorSize,
		limit:      limit,
		logger:     log.With("component", "memory-store"),
	}
}

// Initialize ensures the collection exists.
func (s *MemoryStore) Initialize(ctx context.Context) error {
	if s.client == nil {
		return nil
	}

	exists, err := s.client.CollectionExists(ctx, s.collection)
	if err != nil {
		return fmt.Errorf("failed to check collection: %w", err)
	}
	if exists {
		return nil
	}

	err = s.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: s.collection,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     uint64(s.vectorSize),
			Distance: qdrant.Distance_Cosine,
		}),
	})
	if err != nil {
		return fmt.Errorf("failed to create collection: %w", err)
	}
	return nil
}

// StoreTurn records one committed turn as a memory point.
func (s *MemoryStore) StoreTurn(ctx context.Context, sessionID, userInput, storyText string) {
	if s.client == nil {
		return
	}

	content := fmt.Sprintf("The user chose: %s. What happened: %s", userInput, storyText)
	vector, err := s.embedder.Embed(ctx, content)
	if err != nil {
		s.logger.Warn("failed to embed turn memory", "err", err)
		return
	}

	_, err = s.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: s.collection,
		Points: []*qdrant.PointStruct{{
			Id:      qdrant.NewID(uuid.NewString()),
			Vectors: qdrant.NewVectors(vector...),
			Payload: qdrant.NewValueMap(map[string]any{
				"session_id": sessionID,
				"content":    content,
				"stored_at":  time.Now().Unix(),
			}),
		}},
	})
	if err != nil {
		s.logger.Warn("failed to store turn memory", "err", err)
	}
}

// RelatedMemories returns the stored memories most similar to the input,
// scoped to the session. Failures return an empty slice.
func (s *MemoryStore) RelatedMemories(ctx context.Context, sessionID, input string) []string {
	if s.client == nil {
		return nil
	}

	vector, err := s.embedder.Embed(ctx, input)
	if err != nil {
		s.logger.Warn("failed to embed memory query", "err", err)
		return nil
	}

	points, err := s.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: s.collection,
		Query:          qdrant.NewQuery(vector...),
		Limit:          qdrant.PtrOf(uint64(s.limit)),
		WithPayload:    qdrant.NewWithPayload(true),
		Filter: &qdrant.Filter{
			Must: []*qdrant.Condition{
				qdrant.NewMatch("session_id", sessionID),
			},
		},
	})
	if err != nil {
		s.logger.Warn("memory search failed", "err", err)
		return nil
	}

	memories := make([]string, 0, len(points))
	for _, p := range points {
		if v, ok := p.Payload["content"]; ok {
			if content := v.GetStringValue(); content != "" {
				memories = append(memories, content)
			}
		}
	}
	return memories
}

// NewQdrantClient connects to the vector database.
func NewQdrantClient(host string, port int, apiKey string) (*qdrant.Client, error) {
	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   host,
		Port:   port,
		APIKey: apiKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to qdrant: %w", err)
	}
	return client, nil
}
