package knowledge

import (
	"context"
	"errors"
	"fmt"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/veridraft/veridraft/internal/cache"
)

// ErrEmptyText is returned when asked to embed empty text
var ErrEmptyText = errors.New("text cannot be empty")

// Embedder produces a semantic vector for a text span
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// OpenAIEmbedder implements Embedder with the OpenAI embeddings API.
// Results are memoized: sliding-window claims overlap, so identical text
// comes through repeatedly during one run.
type OpenAIEmbedder struct {
	client *openai.Client
	model  openai.EmbeddingModel
	cache  cache.Cache
	ttl    time.Duration
}

// NewOpenAIEmbedder creates a new embedder. A nil cache disables memoization.
func NewOpenAIEmbedder(apiKey, model string, c cache.Cache, ttl time.Duration) (*OpenAIEmbedder, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("API key is required")
	}

	embeddingModel := openai.EmbeddingModel(model)
	if model == "" {
		embeddingModel = openai.SmallEmbedding3
	}

	return &OpenAIEmbedder{
		client: openai.NewClient(apiKey),
		model:  embeddingModel,
		cache:  c,
		ttl:    ttl,
	}, nil
}

// Embed returns the embedding vector for text
func (e *OpenAIEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if text == "" {
		return nil, ErrEmptyText
	}

	key := cache.Key(text)
	if e.cache != nil {
		if vec, found := e.cache.Get(key); found {
			return vec, nil
		}
	}

	resp, err := e.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: []string{text},
		Model: e.model,
	})
	if err != nil {
		return nil, fmt.Errorf("create embedding: %w", err)
	}
	if len(resp.Data) == 0 {
		return nil, errors.New("no embedding data returned")
	}

	vec := resp.Data[0].Embedding
	if e.cache != nil {
		_ = e.cache.Set(key, vec, e.ttl)
	}

	return vec, nil
}
