package feedback

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap/zaptest"

	"github.com/prayash-yosa/Mindforge-new/internal/ai"
	"github.com/prayash-yosa/Mindforge-new/internal/domain"
	"github.com/prayash-yosa/Mindforge-new/internal/llm"
	"github.com/prayash-yosa/Mindforge-new/internal/prompt"
	"github.com/prayash-yosa/Mindforge-new/internal/store"
)

// The genai SDK links opencensus, whose stats worker starts at init.
func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m,
		goleak.IgnoreTopFunction("go.opencensus.io/stats/view.(*worker).start"))
}

func TestResolveTarget(t *testing.T) {
	tests := []struct {
		current, requested, want domain.FeedbackLevel
	}{
		{domain.LevelNone, "", domain.LevelHint},
		{"", "", domain.LevelHint},
		{domain.LevelHint, "", domain.LevelApproach},
		{domain.LevelConcept, "", domain.LevelSolution},
		{domain.LevelSolution, "", domain.LevelSolution},
		{domain.LevelNone, domain.LevelConcept, domain.LevelConcept},
		{domain.LevelApproach, domain.LevelHint, domain.LevelConcept},
		{domain.LevelConcept, domain.LevelHint, domain.LevelSolution},
		{domain.LevelApproach, domain.LevelApproach, domain.LevelConcept},
		{domain.LevelHint, domain.LevelSolution, domain.LevelSolution},
		{domain.LevelSolution, domain.LevelHint, domain.LevelSolution},
		{domain.LevelHint, "bogus", domain.LevelApproach},
		{domain.LevelHint, domain.LevelNone, domain.LevelApproach},
	}
	for _, tt := range tests {
		got := ResolveTarget(tt.current, tt.requested)
		assert.Equal(t, tt.want, got, "current=%q requested=%q", tt.current, tt.requested)
	}
}

func TestResolveTargetIsMonotonic(t *testing.T) {
	levels := []domain.FeedbackLevel{"", domain.LevelNone, domain.LevelHint, domain.LevelApproach, domain.LevelConcept, domain.LevelSolution, "junk"}
	for _, cur := range levels {
		for _, req := range levels {
			got := ResolveTarget(cur, req)
			ci := max(cur.Index(), 0)
			if got.Index() < min(ci+1, domain.MaxLevelIndex) {
				t.Errorf("ResolveTarget(%q, %q) = %q regressed", cur, req, got)
			}
		}
	}
}

type fixture struct {
	store   *store.Store
	mock    *llm.MockProvider
	service *Service
}

func newFixture(t *testing.T, cfg ai.Config) *fixture {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	st, err := store.Open(context.Background(), "file:feedback_"+name+"?mode=memory&cache=shared")
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	_, err = st.ImportCatalog(context.Background(), store.Catalog{
		Students: []domain.Student{{ID: "stu-1", Class: "8"}, {ID: "stu-2", Class: "8"}},
		Syllabus: []domain.Syllabus{{ID: "syl-1", Class: "8", Subject: "Mathematics", Chapter: "Fractions", Topic: "Equivalent fractions"}},
		Activities: []domain.Activity{
			{ID: "act-1", StudentID: "stu-1", Type: domain.ActivityQuiz, Title: "Fractions", QuestionCount: 1, SyllabusID: "syl-1"},
			{ID: "act-2", StudentID: "stu-1", Type: domain.ActivityQuiz, Title: "Other", QuestionCount: 1},
		},
		Questions: []domain.Question{
			{ID: "q-1", ActivityID: "act-1", Type: domain.QuestionShortAnswer, Content: "Is 2/4 equal to 1/2?", SortOrder: 1},
			{ID: "q-9", ActivityID: "act-2", Type: domain.QuestionMCQ, Content: "1+1?", CorrectAnswer: "2", SortOrder: 1},
		},
	})
	require.NoError(t, err)

	mock := llm.NewMockProvider()
	adapter := ai.New(mock, cfg, ai.WithLogger(zaptest.NewLogger(t)))
	svc := NewService(Stores{
		Activities: st.Activities(),
		Questions:  st.Questions(),
		Responses:  st.Responses(),
		Progress:   st.FeedbackProgress(),
	}, adapter, zaptest.NewLogger(t))

	return &fixture{store: st, mock: mock, service: svc}
}

func defaultAIConfig() ai.Config {
	return ai.Config{FeedbackModel: "tutor", GradingModel: "grader", Timeout: time.Second}
}

func TestGetFeedback_LadderWithoutSubmission(t *testing.T) {
	f := newFixture(t, defaultAIConfig())
	ctx := context.Background()
	for _, c := range []string{"hint text", "approach text", "concept text"} {
		f.mock.AddResponse(llm.MockResponse{Content: c})
	}

	r, err := f.service.GetFeedback(ctx, "act-1", "q-1", "stu-1", "")
	require.NoError(t, err)
	assert.Equal(t, domain.LevelHint, r.Level)
	assert.Equal(t, "hint text", r.Content)
	assert.True(t, r.FromAI)
	require.NotNil(t, r.NextLevel)
	assert.Equal(t, domain.LevelApproach, *r.NextLevel)

	r, err = f.service.GetFeedback(ctx, "act-1", "q-1", "stu-1", "")
	require.NoError(t, err)
	assert.Equal(t, domain.LevelApproach, r.Level)

	r, err = f.service.GetFeedback(ctx, "act-1", "q-1", "stu-1", domain.LevelHint)
	require.NoError(t, err)
	assert.Equal(t, domain.LevelConcept, r.Level)
	assert.Equal(t, "concept text", r.Content)
	assert.False(t, r.MaxLevelReached)

	lvl, err := f.store.FeedbackProgress().Level(ctx, "stu-1", "q-1")
	require.NoError(t, err)
	assert.Equal(t, domain.LevelConcept, lvl)

	resp, err := f.store.Responses().FindByStudentAndQuestion(ctx, "stu-1", "q-1")
	require.NoError(t, err)
	assert.Nil(t, resp, "feedback must never create a response")
}

func TestGetFeedback_UpdatesResponse(t *testing.T) {
	f := newFixture(t, defaultAIConfig())
	ctx := context.Background()

	wrong := false
	_, _, err := f.store.Responses().Create(ctx, &domain.Response{
		StudentID: "stu-1", ActivityID: "act-1", QuestionID: "q-1", Answer: "no", IsCorrect: &wrong,
	})
	require.NoError(t, err)

	f.mock.AddResponse(llm.MockResponse{Content: "Compare the two fractions."})
	r, err := f.service.GetFeedback(ctx, "act-1", "q-1", "stu-1", domain.LevelApproach)
	require.NoError(t, err)
	assert.Equal(t, domain.LevelApproach, r.Level)

	resp, err := f.store.Responses().FindByStudentAndQuestion(ctx, "stu-1", "q-1")
	require.NoError(t, err)
	assert.Equal(t, domain.LevelApproach, resp.FeedbackLevel)
	assert.Equal(t, "Compare the two fractions.", resp.AIFeedback)
	assert.Equal(t, "ai:tutor", resp.AIConversationRef)

	req, ok := f.mock.LastCall()
	require.True(t, ok)
	assert.Contains(t, req.Messages[0].Content, "Student's answer: no")
	assert.Contains(t, req.Messages[0].Content, "Result: Incorrect")
	assert.Contains(t, req.System, "Mathematics > Fractions > Equivalent fractions")

	// Queue is empty now, so the next call falls back and clears the ref.
	r, err = f.service.GetFeedback(ctx, "act-1", "q-1", "stu-1", "")
	require.NoError(t, err)
	assert.False(t, r.FromAI)
	assert.Equal(t, domain.LevelConcept, r.Level)
	assert.Equal(t, prompt.StaticFallback(domain.LevelConcept, "Mathematics", "Equivalent fractions"), r.Content)

	resp, err = f.store.Responses().FindByStudentAndQuestion(ctx, "stu-1", "q-1")
	require.NoError(t, err)
	assert.Equal(t, domain.LevelConcept, resp.FeedbackLevel)
	assert.Empty(t, resp.AIConversationRef)
}

func TestGetFeedback_SolutionIsTerminal(t *testing.T) {
	f := newFixture(t, defaultAIConfig())
	ctx := context.Background()

	r, err := f.service.GetFeedback(ctx, "act-1", "q-1", "stu-1", domain.LevelSolution)
	require.NoError(t, err)
	assert.Equal(t, domain.LevelSolution, r.Level)
	assert.True(t, r.MaxLevelReached)
	assert.Nil(t, r.NextLevel)

	r, err = f.service.GetFeedback(ctx, "act-1", "q-1", "stu-1", domain.LevelHint)
	require.NoError(t, err)
	assert.Equal(t, domain.LevelSolution, r.Level)
	assert.True(t, r.MaxLevelReached)
}

func TestGetFeedback_ScopeCheckedBeforeModel(t *testing.T) {
	f := newFixture(t, defaultAIConfig())
	ctx := context.Background()

	_, err := f.service.GetFeedback(ctx, "act-1", "q-1", "stu-2", "")
	assert.True(t, errors.Is(err, domain.ErrActivityNotFound))

	_, err = f.service.GetFeedback(ctx, "missing", "q-1", "stu-1", "")
	assert.True(t, errors.Is(err, domain.ErrActivityNotFound))

	_, err = f.service.GetFeedback(ctx, "act-1", "q-9", "stu-1", "")
	assert.True(t, errors.Is(err, domain.ErrQuestionNotFound))
	assert.Equal(t, "QUESTION_NOT_FOUND", domain.CodeOf(err))

	_, err = f.service.GetFeedback(ctx, "act-1", "nope", "stu-1", "")
	assert.True(t, errors.Is(err, domain.ErrQuestionNotFound))

	assert.Zero(t, f.mock.CallCount())
}

func TestGetFeedback_TimeoutUsesStaticFallback(t *testing.T) {
	cfg := defaultAIConfig()
	cfg.Timeout = 20 * time.Millisecond
	f := newFixture(t, cfg)
	f.mock.AddResponse(llm.MockResponse{Content: "late", Delay: 5 * time.Second})

	r, err := f.service.GetFeedback(context.Background(), "act-1", "q-1", "stu-1", "")
	require.NoError(t, err)
	assert.False(t, r.FromAI)
	assert.Equal(t, domain.LevelHint, r.Level)
	assert.Equal(t, prompt.StaticFallback(domain.LevelHint, "Mathematics", "Equivalent fractions"), r.Content)
}

// startSlowCall begins a GetFeedback whose model reply is held back, and
// returns once the call has read the current level.
func startSlowCall(t *testing.T, f *fixture) <-chan *Result {
	t.Helper()
	f.mock.AddResponse(llm.MockResponse{Content: "slow", Delay: 300 * time.Millisecond})
	done := make(chan *Result, 1)
	go func() {
		r, err := f.service.GetFeedback(context.Background(), "act-1", "q-1", "stu-1", "")
		assert.NoError(t, err)
		done <- r
	}()
	require.Eventually(t, func() bool { return f.mock.CallCount() == 1 }, time.Second, time.Millisecond)
	return done
}

func TestGetFeedback_SlowCallNeverLowersProgress(t *testing.T) {
	f := newFixture(t, defaultAIConfig())
	ctx := context.Background()
	done := startSlowCall(t, f)

	for _, want := range []domain.FeedbackLevel{domain.LevelHint, domain.LevelApproach, domain.LevelConcept} {
		f.mock.AddResponse(llm.MockResponse{Content: string(want)})
		r, err := f.service.GetFeedback(ctx, "act-1", "q-1", "stu-1", "")
		require.NoError(t, err)
		require.Equal(t, want, r.Level)
	}

	slow := <-done
	require.NotNil(t, slow)
	assert.Equal(t, domain.LevelHint, slow.Level)

	lvl, err := f.store.FeedbackProgress().Level(ctx, "stu-1", "q-1")
	require.NoError(t, err)
	assert.Equal(t, domain.LevelConcept, lvl)

	r, err := f.service.GetFeedback(ctx, "act-1", "q-1", "stu-1", "")
	require.NoError(t, err)
	assert.Equal(t, domain.LevelSolution, r.Level)
}

func TestGetFeedback_SlowCallNeverLowersResponse(t *testing.T) {
	f := newFixture(t, defaultAIConfig())
	ctx := context.Background()
	_, _, err := f.store.Responses().Create(ctx, &domain.Response{
		StudentID: "stu-1", ActivityID: "act-1", QuestionID: "q-1", Answer: "yes",
	})
	require.NoError(t, err)
	done := startSlowCall(t, f)

	f.mock.AddResponse(llm.MockResponse{Content: "hint text"})
	f.mock.AddResponse(llm.MockResponse{Content: "approach text"})
	for range 2 {
		_, err := f.service.GetFeedback(ctx, "act-1", "q-1", "stu-1", "")
		require.NoError(t, err)
	}
	<-done

	resp, err := f.store.Responses().FindByStudentAndQuestion(ctx, "stu-1", "q-1")
	require.NoError(t, err)
	assert.Equal(t, domain.LevelApproach, resp.FeedbackLevel)
	assert.Equal(t, "approach text", resp.AIFeedback)
}
