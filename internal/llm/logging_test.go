package llm

import (
	"context"
	"errors"
	"sync"
	"testing"

	"go.uber.org/zap/zaptest"

	"github.com/prayash-yosa/Mindforge-new/internal/store"
)

type recordingRepo struct {
	mu     sync.Mutex
	events []store.LLMRequestEventData
	err    error
}

func (r *recordingRepo) AppendLLMRequest(_ context.Context, data store.LLMRequestEventData) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, data)
	return r.err
}

func TestLogging_RecordsSuccess(t *testing.T) {
	repo := &recordingRepo{}
	mock := NewMockProvider(MockResponse{
		Content: "a hint",
		Usage:   Usage{InputTokens: 12, OutputTokens: 3, TotalTokens: 15},
	})
	p := WithLogging(mock, "mock", repo, zaptest.NewLogger(t))

	ctx := WithPurpose(context.Background(), PurposeFeedback)
	_, err := p.Generate(ctx, Request{System: "sys", Messages: []Message{{Role: RoleUser, Content: "q"}}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(repo.events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(repo.events))
	}
	ev := repo.events[0]
	if !ev.Success || ev.Purpose != "feedback" || ev.Provider != "mock" {
		t.Fatalf("unexpected event %+v", ev)
	}
	if ev.InputTokens != 12 || ev.OutputTokens != 3 {
		t.Fatalf("unexpected token counts %+v", ev)
	}
	if ev.ResponseBody != "a hint" {
		t.Fatalf("unexpected response body %q", ev.ResponseBody)
	}
	if ev.RequestBody != "[system]\nsys\n\n[user]\nq\n\n" {
		t.Fatalf("unexpected request body %q", ev.RequestBody)
	}
}

func TestLogging_RecordsFailureAndIgnoresRepoError(t *testing.T) {
	repo := &recordingRepo{err: errors.New("disk full")}
	mock := NewMockProvider(MockResponse{Err: &ErrProviderUnavailable{StatusCode: 503}})
	p := WithLogging(mock, "mock", repo, zaptest.NewLogger(t))

	_, err := p.Generate(context.Background(), Request{Model: "gpt-4o"})
	var unavail *ErrProviderUnavailable
	if !errors.As(err, &unavail) {
		t.Fatalf("expected provider error to pass through, got %v", err)
	}
	if len(repo.events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(repo.events))
	}
	ev := repo.events[0]
	if ev.Success || ev.ErrorMessage == "" {
		t.Fatalf("expected failed event with message, got %+v", ev)
	}
	if ev.Model != "gpt-4o" {
		t.Fatalf("expected requested model on failure, got %q", ev.Model)
	}
}

func TestLogging_NilRepo(t *testing.T) {
	mock := NewMockProvider(MockResponse{Content: "ok"})
	p := WithLogging(mock, "mock", nil, nil)
	if _, err := p.Generate(context.Background(), Request{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
