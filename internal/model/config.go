package model

import "time"

// Config is the complete veridraft configuration
type Config struct {
	LLM          LLMConfig          `yaml:"llm"`
	Generation   GenerationConfig   `yaml:"generation"`
	Verification VerificationConfig `yaml:"verification"`
	Knowledge    KnowledgeConfig    `yaml:"knowledge"`
	Retry        RetryConfig        `yaml:"retry"`
	Output       OutputConfig       `yaml:"output"`
}

// LLMConfig holds settings for the chat completion service
type LLMConfig struct {
	Model             string        `yaml:"model"`               // Chat model name
	APIKey            string        `yaml:"api_key"`             // API key (usually from OPENAI_API_KEY)
	BaseURL           string        `yaml:"base_url"`            // Custom endpoint (optional)
	Timeout           time.Duration `yaml:"timeout"`             // Per-request timeout
	RequestsPerSecond float64       `yaml:"requests_per_second"` // Client-side pacing
	Burst             int           `yaml:"burst"`               // Pacing burst size
}

// GenerationConfig holds settings for document generation
type GenerationConfig struct {
	NumSections   int `yaml:"num_sections"`   // Target outline section count
	ContextWindow int `yaml:"context_window"` // Trailing characters of prior output fed to each section prompt
}

// VerificationConfig holds settings for claim verification
type VerificationConfig struct {
	MaxConcurrency int `yaml:"max_concurrency"`  // Cap on in-flight verification calls
	MinClaimLength int `yaml:"min_claim_length"` // Minimum trimmed sentence length to dispatch
	WindowSize     int `yaml:"window_size"`      // Sliding window size for batch verification
}

// KnowledgeConfig holds settings for the knowledge store
type KnowledgeConfig struct {
	EmbeddingModel string        `yaml:"embedding_model"` // Embedding model name
	TopK           int           `yaml:"top_k"`           // Matches returned by the vector_search tool
	CacheTTL       time.Duration `yaml:"cache_ttl"`       // Embedding cache TTL
}

// RetryConfig holds the rate-limit retry policy shared by all remote calls
type RetryConfig struct {
	MaxAttempts int           `yaml:"max_attempts"` // Total attempts before giving up
	BaseDelay   time.Duration `yaml:"base_delay"`   // Exponential backoff base
	WaitMargin  time.Duration `yaml:"wait_margin"`  // Added to server-suggested wait
}

// OutputConfig holds output and logging settings
type OutputConfig struct {
	Verbose  bool   `yaml:"verbose"`
	LogLevel string `yaml:"log_level"` // debug, info, warn, error
}

// DefaultConfig returns sensible defaults
func DefaultConfig() *Config {
	return &Config{
		LLM: LLMConfig{
			Model:             "gpt-4o-mini",
			Timeout:           60 * time.Second,
			RequestsPerSecond: 10,
			Burst:             20,
		},
		Generation: GenerationConfig{
			NumSections:   5,
			ContextWindow: 2000,
		},
		Verification: VerificationConfig{
			MaxConcurrency: 50,
			MinClaimLength: 20,
			WindowSize:     2,
		},
		Knowledge: KnowledgeConfig{
			EmbeddingModel: "text-embedding-3-small",
			TopK:           2,
			CacheTTL:       15 * time.Minute,
		},
		Retry: RetryConfig{
			MaxAttempts: 5,
			BaseDelay:   2 * time.Second,
			WaitMargin:  time.Second,
		},
		Output: OutputConfig{
			LogLevel: "info",
		},
	}
}
