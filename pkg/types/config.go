package types

import "time"

// HTTPConfig holds shared HTTP settings used by stages that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "research-companion/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// SearchConfig holds settings for the paper source stage.
type SearchConfig struct {
	HTTPConfig `yaml:",inline"`

	// MaxResults is the maximum number of papers to return (default 3).
	MaxResults int `json:"max_results" yaml:"max_results"`

	// MaxRetries is the retry count for rate-limited API calls.
	MaxRetries int `json:"max_retries" yaml:"max_retries"`
}

// FetchConfig holds settings for document retrieval.
type FetchConfig struct {
	HTTPConfig `yaml:",inline"`

	// CacheDir is the directory for downloaded PDFs and the metadata cache
	// (default "./artifacts").
	CacheDir string `json:"cache_dir" yaml:"cache_dir"`
}

// GeneratorConfig holds shared settings for stages that call the
// language-generation backend.
type GeneratorConfig struct {
	// Model is the generation model identifier (e.g. "gemini-2.0-flash-lite").
	Model string `json:"model" yaml:"model"`

	// APIKey is the authentication key for the generation API.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// MaxRetries is the retry count for rate-limited API calls (default 3).
	MaxRetries int `json:"max_retries" yaml:"max_retries"`
}

// ChunkConfig holds settings for the section chunker.
type ChunkConfig struct {
	// MaxTokens is the per-chunk token bound (default 3000). Sections above
	// it are split into word slices of MaxTokens/2.
	MaxTokens int `json:"max_tokens" yaml:"max_tokens"`
}

// StoreConfig holds settings for the run archive.
type StoreConfig struct {
	// Dir is the directory containing the archive database (default "./artifacts").
	Dir string `json:"dir" yaml:"dir"`

	// MaxResults is the default maximum number of query results (default 20).
	MaxResults int `json:"max_results" yaml:"max_results"`
}

// PipelineConfig groups all stage configurations.
type PipelineConfig struct {
	Search    SearchConfig    `json:"search" yaml:"search"`
	Fetch     FetchConfig     `json:"fetch" yaml:"fetch"`
	Generator GeneratorConfig `json:"generator" yaml:"generator"`
	Chunk     ChunkConfig     `json:"chunk" yaml:"chunk"`
	Store     StoreConfig     `json:"store" yaml:"store"`
}
