package llm

import "context"

// Provider is the core abstraction for chat-completion models.
type Provider interface {
	// Generate sends a conversation to the model and returns its text reply.
	// Cancellation and deadlines on ctx are honored by the underlying SDK.
	Generate(ctx context.Context, req Request) (*Response, error)

	// ModelID returns the default model this provider is configured to use.
	ModelID() string
}

// Request describes what to send to the model.
type Request struct {
	// System is the system prompt.
	System string

	// Messages is the conversation history, oldest first.
	Messages []Message

	// Model overrides the provider's default model for this call. Friendly
	// names are resolved the same way as in configuration.
	Model string

	// MaxTokens is the maximum number of tokens in the reply.
	MaxTokens int

	// Temperature controls randomness. Range: 0.0 - 1.0.
	Temperature float64
}

// Message represents a single message in the conversation.
type Message struct {
	Role    Role
	Content string
}

// Role is the message sender role.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Response holds the model's output.
type Response struct {
	// Content is the raw reply text.
	Content string

	// Usage reports token consumption for this request.
	Usage Usage

	// Model is the actual model that served the request.
	Model string

	// StopReason indicates why generation stopped.
	// Normalized to: "end", "max_tokens", "error"
	StopReason string
}

// Usage tracks token consumption for a single request.
type Usage struct {
	InputTokens  int
	OutputTokens int
	TotalTokens  int
}

// modelFor returns the model to use for req, falling back to def.
func modelFor(req Request, def string, models map[string]string) string {
	if req.Model == "" {
		return def
	}
	return resolveModel(req.Model, models)
}

// resolveModel maps a friendly model name to a provider model ID.
func resolveModel(name string, models map[string]string) string {
	if id, ok := models[name]; ok {
		return id
	}
	// Unknown names are passed through as direct model IDs.
	return name
}
