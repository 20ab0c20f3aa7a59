package llm

import (
	"fmt"
	"os"
	"time"
)

// DefaultBaseURL is the OpenAI-compatible endpoint used when none is set.
const DefaultBaseURL = "https://api.openai.com/v1"

// Config holds model provider configuration.
type Config struct {
	// Provider selects which backend to use.
	// Values: "openai", "anthropic", "gemini", "openrouter", "mock"
	Provider string

	APIKey string

	// BaseURL overrides the provider endpoint. DefaultBaseURL only
	// applies to OpenAI; other providers treat it as unset.
	BaseURL string

	// GradingModel and FeedbackModel are the two model tiers.
	GradingModel  string
	FeedbackModel string

	// Timeout bounds a single completion, retries included.
	Timeout time.Duration

	MaxTokens   int
	Temperature float64

	Retry RetryConfig
}

// RetryConfig configures retry behavior for transient failures.
type RetryConfig struct {
	MaxAttempts int
	InitialWait time.Duration
	MaxWait     time.Duration
	Multiplier  float64
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Provider:      "openai",
		BaseURL:       DefaultBaseURL,
		GradingModel:  "gpt-4o-mini",
		FeedbackModel: "gpt-4o-mini",
		Timeout:       10 * time.Second,
		MaxTokens:     512,
		Temperature:   0.3,
		Retry: RetryConfig{
			MaxAttempts: 1,
			InitialWait: 250 * time.Millisecond,
			MaxWait:     2 * time.Second,
			Multiplier:  2.0,
		},
	}
}

// Configured reports whether a provider can be built from c.
func (c Config) Configured() bool {
	return c.Provider == "mock" || c.APIKey != ""
}

// customBaseURL returns BaseURL unless it is empty or the OpenAI default.
func (c Config) customBaseURL() string {
	if c.BaseURL == DefaultBaseURL {
		return ""
	}
	return c.BaseURL
}

// Discover fills in a missing API key from the vendor's standard env var
// for the selected provider. Returns true if a key was found.
func Discover(c *Config) bool {
	if c.APIKey != "" {
		return true
	}
	vars := map[string]string{
		"openai":     "OPENAI_API_KEY",
		"anthropic":  "ANTHROPIC_API_KEY",
		"gemini":     "GEMINI_API_KEY",
		"openrouter": "OPENROUTER_API_KEY",
	}
	if name, ok := vars[c.Provider]; ok {
		if k := os.Getenv(name); k != "" {
			c.APIKey = k
			return true
		}
	}
	return false
}

// Validate checks the provider name and numeric limits. A missing API key
// is not an error: the engine degrades to fallback content.
func (c Config) Validate() error {
	switch c.Provider {
	case "openai", "anthropic", "gemini", "openrouter", "mock":
	default:
		return fmt.Errorf("unknown LLM provider: %q", c.Provider)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("AI timeout must be positive, got %s", c.Timeout)
	}
	if c.MaxTokens <= 0 {
		return fmt.Errorf("AI max tokens must be positive, got %d", c.MaxTokens)
	}
	if c.Temperature < 0 || c.Temperature > 2 {
		return fmt.Errorf("AI temperature out of range: %v", c.Temperature)
	}
	return nil
}
