// Package ai wraps a model provider with a latency budget, fallback
// content and reply sanitization. Callers always get usable text back.
package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/prayash-yosa/Mindforge-new/internal/llm"
	"github.com/prayash-yosa/Mindforge-new/internal/metrics"
)

// Tier selects which configured model serves a call.
type Tier string

const (
	TierGrading  Tier = "grading"
	TierFeedback Tier = "feedback"
)

// FallbackModel is reported as the model of every fallback result.
const FallbackModel = "fallback"

// Fallback reasons. HTTP failures use "http_<status>".
const (
	ReasonNoAPIKey     = "no_api_key"
	ReasonTimeout      = "timeout"
	ReasonCanceled     = "canceled"
	ReasonNetworkError = "network_error"
	ReasonEmptyContent = "empty_content"
	ReasonRawError     = "raw_error"
)

// Role is the author of a chat message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one chat turn.
type Message struct {
	Role    Role
	Content string
}

// Usage reports token consumption of a successful call.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// Result is the outcome of ChatCompletion. FallbackReason is empty on
// success.
type Result struct {
	Content        string
	Model          string
	Usage          Usage
	Latency        time.Duration
	FromFallback   bool
	FallbackReason string
}

// Completer is what grading, feedback and doubts need from the adapter.
type Completer interface {
	Configured() bool
	ChatCompletion(ctx context.Context, messages []Message, tier Tier, fallback string) Result
}

// Config bounds every call made through the adapter.
type Config struct {
	GradingModel  string
	FeedbackModel string
	Timeout       time.Duration
	MaxTokens     int
	Temperature   float64
}

// ConfigFrom extracts the adapter settings from provider configuration.
func ConfigFrom(c llm.Config) Config {
	return Config{
		GradingModel:  c.GradingModel,
		FeedbackModel: c.FeedbackModel,
		Timeout:       c.Timeout,
		MaxTokens:     c.MaxTokens,
		Temperature:   c.Temperature,
	}
}

// Adapter implements Completer on top of an llm.Provider.
type Adapter struct {
	provider llm.Provider
	cfg      Config
	logger   *zap.Logger
	metrics  *metrics.AI
	tracer   trace.Tracer
}

var _ Completer = (*Adapter)(nil)

// Option configures an Adapter.
type Option func(*Adapter)

// WithLogger sets the logger. The default discards.
func WithLogger(l *zap.Logger) Option {
	return func(a *Adapter) { a.logger = l }
}

// WithMetrics sets the metrics sink.
func WithMetrics(m *metrics.AI) Option {
	return func(a *Adapter) { a.metrics = m }
}

// WithTracer overrides the global otel tracer.
func WithTracer(t trace.Tracer) Option {
	return func(a *Adapter) { a.tracer = t }
}

// New builds an Adapter. A nil provider means no credential is
// configured and every call falls back.
func New(provider llm.Provider, cfg Config, opts ...Option) *Adapter {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	a := &Adapter{
		provider: provider,
		cfg:      cfg,
		logger:   zap.NewNop(),
		tracer:   otel.Tracer("github.com/prayash-yosa/Mindforge-new/internal/ai"),
	}
	for _, o := range opts {
		o(a)
	}
	return a
}

// Configured reports whether calls can reach a model.
func (a *Adapter) Configured() bool {
	return a.provider != nil
}

// ModelFor returns the model id configured for tier.
func (a *Adapter) ModelFor(tier Tier) string {
	if tier == TierGrading {
		return a.cfg.GradingModel
	}
	return a.cfg.FeedbackModel
}

// ChatCompletion sends messages to the tier's model within the configured
// timeout. Any failure yields fallback as the content; it never errors.
func (a *Adapter) ChatCompletion(ctx context.Context, messages []Message, tier Tier, fallback string) Result {
	if a.provider == nil {
		return a.fallback(tier, fallback, ReasonNoAPIKey, nil)
	}

	if !llm.HasPurpose(ctx) {
		ctx = llm.WithPurpose(ctx, string(tier))
	}

	model := a.ModelFor(tier)
	ctx, span := a.tracer.Start(ctx, "ai.chat_completion",
		trace.WithAttributes(
			attribute.String("ai.tier", string(tier)),
			attribute.String("ai.model", model),
		))
	defer span.End()

	req := buildRequest(messages)
	req.Model = model
	req.MaxTokens = a.cfg.MaxTokens
	req.Temperature = a.cfg.Temperature

	callCtx, cancel := context.WithTimeout(ctx, a.cfg.Timeout)
	defer cancel()

	start := time.Now()
	resp, err := a.provider.Generate(callCtx, req)
	latency := time.Since(start)

	if err != nil {
		res := a.fallback(tier, fallback, classify(callCtx, err), err)
		span.SetAttributes(attribute.Bool("ai.fallback", true), attribute.String("ai.fallback_reason", res.FallbackReason))
		return res
	}

	content, ok := Sanitize(resp.Content)
	switch {
	case !ok:
		res := a.fallback(tier, fallback, ReasonRawError, nil)
		span.SetAttributes(attribute.Bool("ai.fallback", true), attribute.String("ai.fallback_reason", res.FallbackReason))
		return res
	case content == "":
		res := a.fallback(tier, fallback, ReasonEmptyContent, nil)
		span.SetAttributes(attribute.Bool("ai.fallback", true), attribute.String("ai.fallback_reason", res.FallbackReason))
		return res
	}

	if resp.Model != "" {
		model = resp.Model
	}
	usage := Usage{
		PromptTokens:     resp.Usage.InputTokens,
		CompletionTokens: resp.Usage.OutputTokens,
		TotalTokens:      resp.Usage.TotalTokens,
	}
	if usage.TotalTokens == 0 {
		usage.TotalTokens = usage.PromptTokens + usage.CompletionTokens
	}

	a.metrics.ObserveSuccess(string(tier), latency, usage.PromptTokens, usage.CompletionTokens)
	a.logger.Info("ai completion",
		zap.String("tier", string(tier)),
		zap.String("model", model),
		zap.Int("prompt_tokens", usage.PromptTokens),
		zap.Int("completion_tokens", usage.CompletionTokens),
		zap.Duration("latency", latency))
	span.SetAttributes(
		attribute.Bool("ai.fallback", false),
		attribute.Int("ai.total_tokens", usage.TotalTokens),
	)

	return Result{
		Content: content,
		Model:   model,
		Usage:   usage,
		Latency: latency,
	}
}

func (a *Adapter) fallback(tier Tier, content, reason string, cause error) Result {
	a.metrics.ObserveFallback(string(tier), reason)
	fields := []zap.Field{
		zap.String("tier", string(tier)),
		zap.String("reason", reason),
	}
	if cause != nil {
		fields = append(fields, zap.Error(cause))
	}
	a.logger.Warn("ai fallback", fields...)

	return Result{
		Content:        content,
		Model:          FallbackModel,
		FromFallback:   true,
		FallbackReason: reason,
	}
}

// buildRequest folds system messages into the request's system prompt.
func buildRequest(messages []Message) llm.Request {
	var (
		req    llm.Request
		system []string
	)
	for _, m := range messages {
		switch m.Role {
		case RoleSystem:
			system = append(system, m.Content)
		case RoleAssistant:
			req.Messages = append(req.Messages, llm.Message{Role: llm.RoleAssistant, Content: m.Content})
		default:
			req.Messages = append(req.Messages, llm.Message{Role: llm.RoleUser, Content: m.Content})
		}
	}
	req.System = strings.Join(system, "\n\n")
	return req
}

// classify maps a provider error to a fallback reason.
func classify(callCtx context.Context, err error) string {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(callCtx.Err(), context.DeadlineExceeded) {
		return ReasonTimeout
	}
	if errors.Is(err, context.Canceled) {
		return ReasonCanceled
	}

	var rl *llm.ErrRateLimit
	if errors.As(err, &rl) {
		return "http_429"
	}
	var unavail *llm.ErrProviderUnavailable
	if errors.As(err, &unavail) && unavail.StatusCode > 0 {
		return fmt.Sprintf("http_%d", unavail.StatusCode)
	}
	var inv *llm.ErrInvalidResponse
	var maxTok *llm.ErrMaxTokensExceeded
	if errors.As(err, &inv) || errors.As(err, &maxTok) {
		return ReasonEmptyContent
	}
	return ReasonNetworkError
}
