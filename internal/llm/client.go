package llm

import (
	"context"

	openai "github.com/sashabaranov/go-openai"

	"github.com/veridraft/veridraft/internal/model"
)

// Client is the narrow surface of the chat completion service used by the
// generator and the verifier. The production implementation wraps the OpenAI
// API; tests substitute fixed responses.
type Client interface {
	// CreateChatCompletion performs a single non-streamed completion
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)

	// CreateChatCompletionStream starts a streamed completion
	CreateChatCompletionStream(ctx context.Context, req openai.ChatCompletionRequest) (Stream, error)
}

// Stream is a lazy sequence of incremental completion deltas.
// Recv returns io.EOF after the final delta.
type Stream interface {
	Recv() (openai.ChatCompletionStreamResponse, error)
	Close() error
}

// Config holds LLM client configuration
type Config struct {
	// Model name used for both generation and verification calls
	Model string

	// APIKey for the completion service
	APIKey string

	// BaseURL for custom endpoints (optional)
	BaseURL string

	// Timeout for non-streamed API requests
	Timeout int // seconds

	// RequestsPerSecond paces outgoing calls client-side so a burst of
	// concurrent verifications does not immediately trip the server limiter
	RequestsPerSecond float64

	// Burst is the pacing burst size
	Burst int
}

// ConfigFromModel converts the application-level LLM config
func ConfigFromModel(cfg model.LLMConfig) Config {
	return Config{
		Model:             cfg.Model,
		APIKey:            cfg.APIKey,
		BaseURL:           cfg.BaseURL,
		Timeout:           int(cfg.Timeout.Seconds()),
		RequestsPerSecond: cfg.RequestsPerSecond,
		Burst:             cfg.Burst,
	}
}
