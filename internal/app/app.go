// Package app wires the store, the model provider and the services into
// one value that front-ends can drive.
package app

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/prayash-yosa/Mindforge-new/internal/ai"
	"github.com/prayash-yosa/Mindforge-new/internal/assessment"
	"github.com/prayash-yosa/Mindforge-new/internal/doubt"
	"github.com/prayash-yosa/Mindforge-new/internal/feedback"
	"github.com/prayash-yosa/Mindforge-new/internal/grading"
	"github.com/prayash-yosa/Mindforge-new/internal/llm"
	"github.com/prayash-yosa/Mindforge-new/internal/metrics"
	"github.com/prayash-yosa/Mindforge-new/internal/store"
	"github.com/prayash-yosa/Mindforge-new/internal/student"
)

// Options configures New.
type Options struct {
	DSN    string
	AI     llm.Config
	Logger *zap.Logger

	// Registry receives the AI collectors. Defaults to a fresh registry.
	Registry *prometheus.Registry

	// Provider replaces the provider built from AI. Tests use it to
	// inject a mock.
	Provider llm.Provider
}

// App holds the wired services. Close releases the store.
type App struct {
	Store      *store.Store
	Adapter    *ai.Adapter
	Assessment *assessment.Service
	Feedback   *feedback.Service
	Doubts     *doubt.Service
	Students   *student.Service
	Registry   *prometheus.Registry

	logger *zap.Logger
}

// New opens the store and builds every service.
func New(ctx context.Context, opts Options) (*App, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	reg := opts.Registry
	if reg == nil {
		reg = prometheus.NewRegistry()
	}

	st, err := store.Open(ctx, opts.DSN)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	provider := opts.Provider
	if provider == nil {
		provider, err = llm.NewProvider(ctx, opts.AI, st.EventRepo(), logger.Named("llm"))
		if err != nil {
			st.Close()
			return nil, err
		}
	}
	if provider == nil {
		logger.Warn("AI provider not configured, using fallback content",
			zap.String("provider", opts.AI.Provider))
	}

	m, err := metrics.NewAI(reg)
	if err != nil {
		st.Close()
		return nil, err
	}

	adapter := ai.New(provider, ai.ConfigFrom(opts.AI),
		ai.WithLogger(logger.Named("ai")),
		ai.WithMetrics(m))

	policy := grading.NewPolicy(adapter, logger.Named("grading"))

	return &App{
		Store:   st,
		Adapter: adapter,
		Assessment: assessment.NewService(assessment.Stores{
			Activities: st.Activities(),
			Questions:  st.Questions(),
			Responses:  st.Responses(),
			Progress:   st.FeedbackProgress(),
		}, policy, assessment.WithLogger(logger.Named("assessment"))),
		Feedback: feedback.NewService(feedback.Stores{
			Activities: st.Activities(),
			Questions:  st.Questions(),
			Responses:  st.Responses(),
			Progress:   st.FeedbackProgress(),
		}, adapter, logger.Named("feedback")),
		Doubts: doubt.NewService(st.Doubts(), st.Students(), adapter, logger.Named("doubt")),
		Students: student.NewService(student.Stores{
			Students:   st.Students(),
			Activities: st.Activities(),
		}, student.WithLogger(logger.Named("student"))),
		Registry: reg,
		logger:   logger,
	}, nil
}

// Close closes the store.
func (a *App) Close() error {
	return a.Store.Close()
}

// WriteMetrics dumps the registry to path. An empty path is a no-op.
func (a *App) WriteMetrics(path string) error {
	if path == "" {
		return nil
	}
	if err := metrics.WriteTextfile(a.Registry, path); err != nil {
		return err
	}
	a.logger.Debug("metrics written", zap.String("path", path))
	return nil
}
