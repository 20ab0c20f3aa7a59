package doubt

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/prayash-yosa/Mindforge-new/internal/ai"
	"github.com/prayash-yosa/Mindforge-new/internal/domain"
	"github.com/prayash-yosa/Mindforge-new/internal/llm"
	"github.com/prayash-yosa/Mindforge-new/internal/prompt"
	"github.com/prayash-yosa/Mindforge-new/internal/store"
)

func newService(t *testing.T, responses ...llm.MockResponse) (*Service, *llm.MockProvider) {
	t.Helper()
	ctx := context.Background()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	st, err := store.Open(ctx, "file:doubt_"+name+"?mode=memory&cache=shared")
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	_, err = st.ImportCatalog(ctx, store.Catalog{
		Students: []domain.Student{{ID: "stu-1", Class: "9"}, {ID: "stu-2", Class: "7"}},
	})
	require.NoError(t, err)

	mock := llm.NewMockProvider(responses...)
	adapter := ai.New(mock, ai.Config{FeedbackModel: "tutor", Timeout: time.Second})
	return NewService(st.Doubts(), st.Students(), adapter, zaptest.NewLogger(t)), mock
}

func TestCreateMessage_NewThread(t *testing.T) {
	svc, mock := newService(t, llm.MockResponse{Content: "Photosynthesis turns light into sugar."})
	ctx := context.Background()

	th, err := svc.CreateMessage(ctx, "stu-1", CreateInput{
		Syllabus: domain.Syllabus{Subject: "Science", Chapter: "Life Processes", Topic: "Nutrition"},
		Message:  "What is photosynthesis?",
	})
	require.NoError(t, err)
	assert.Equal(t, "What is photosynthesis?", th.Title)
	assert.Equal(t, "Science", th.Syllabus.Subject)
	require.Len(t, th.Messages, 2)
	assert.Equal(t, domain.RoleStudent, th.Messages[0].Role)
	assert.Equal(t, domain.RoleAI, th.Messages[1].Role)
	assert.Equal(t, "Photosynthesis turns light into sugar.", th.Messages[1].Content)
	assert.Equal(t, "tutor", th.Messages[1].AIModel)

	req, ok := mock.LastCall()
	require.True(t, ok)
	assert.Contains(t, req.System, "Class: 9", "class falls back to the student's")
	assert.Contains(t, req.System, "Science > Life Processes > Nutrition")
	require.Len(t, req.Messages, 1)
}

func TestCreateMessage_ContinuesThreadWithHistory(t *testing.T) {
	svc, mock := newService(t,
		llm.MockResponse{Content: "first reply"},
		llm.MockResponse{Content: "second reply"},
	)
	ctx := context.Background()

	th, err := svc.CreateMessage(ctx, "stu-1", CreateInput{
		Syllabus: domain.Syllabus{Class: "9", Subject: "Maths", Chapter: "Polynomials", Topic: "Zeroes"},
		Message:  "What is a zero of a polynomial?",
	})
	require.NoError(t, err)

	th, err = svc.CreateMessage(ctx, "stu-1", CreateInput{ThreadID: th.ID, Message: "Can you give an example?"})
	require.NoError(t, err)
	require.Len(t, th.Messages, 4)
	assert.Equal(t, "second reply", th.Messages[3].Content)

	req, _ := mock.LastCall()
	assert.Contains(t, req.System, "Maths > Polynomials > Zeroes", "thread syllabus is reused")
	require.Len(t, req.Messages, 3)
	assert.Equal(t, "What is a zero of a polynomial?", req.Messages[0].Content)
	assert.Equal(t, llm.RoleAssistant, req.Messages[1].Role)
	assert.Equal(t, "Can you give an example?", req.Messages[2].Content)
}

func TestCreateMessage_FallbackReply(t *testing.T) {
	svc, _ := newService(t) // empty queue: provider unavailable

	th, err := svc.CreateMessage(context.Background(), "stu-2", CreateInput{Message: "Why is the sky blue?"})
	require.NoError(t, err)
	require.Len(t, th.Messages, 2)
	reply := th.Messages[1]
	assert.Equal(t, ai.FallbackModel, reply.AIModel)
	assert.Equal(t, prompt.DoubtFallback(prompt.Context{Class: "7", Subject: "General", Chapter: "General", Topic: "General"}), reply.Content)
}

func TestCreateMessage_Errors(t *testing.T) {
	svc, mock := newService(t)
	ctx := context.Background()

	_, err := svc.CreateMessage(ctx, "ghost", CreateInput{Message: "hi"})
	assert.True(t, errors.Is(err, domain.ErrStudentNotFound))
	assert.Equal(t, "STUDENT_NOT_FOUND", domain.CodeOf(err))

	_, err = svc.CreateMessage(ctx, "stu-1", CreateInput{ThreadID: "missing", Message: "hi"})
	assert.True(t, errors.Is(err, domain.ErrDoubtThreadNotFound))

	assert.Zero(t, mock.CallCount())
}

func TestGetThreadScopedToStudent(t *testing.T) {
	svc, _ := newService(t, llm.MockResponse{Content: "ok"})
	ctx := context.Background()

	th, err := svc.CreateMessage(ctx, "stu-1", CreateInput{Message: "question"})
	require.NoError(t, err)

	_, err = svc.GetThread(ctx, th.ID, "stu-2")
	assert.True(t, errors.Is(err, domain.ErrDoubtThreadNotFound))

	got, err := svc.GetThread(ctx, th.ID, "stu-1")
	require.NoError(t, err)
	assert.Len(t, got.Messages, 2)

	_, err = svc.CreateMessage(ctx, "stu-2", CreateInput{ThreadID: th.ID, Message: "hijack"})
	assert.True(t, errors.Is(err, domain.ErrDoubtThreadNotFound))
}

func TestListThreads(t *testing.T) {
	svc, _ := newService(t, llm.MockResponse{Content: "a"}, llm.MockResponse{Content: "b"}, llm.MockResponse{Content: "c"})
	ctx := context.Background()

	first, err := svc.CreateMessage(ctx, "stu-1", CreateInput{Message: "first"})
	require.NoError(t, err)
	time.Sleep(5 * time.Millisecond)
	second, err := svc.CreateMessage(ctx, "stu-1", CreateInput{Message: "second"})
	require.NoError(t, err)

	ts, err := svc.ListThreads(ctx, "stu-1")
	require.NoError(t, err)
	require.Len(t, ts, 2)
	assert.Equal(t, second.ID, ts[0].ID)

	time.Sleep(5 * time.Millisecond)
	_, err = svc.CreateMessage(ctx, "stu-1", CreateInput{ThreadID: first.ID, Message: "again"})
	require.NoError(t, err)
	ts, err = svc.ListThreads(ctx, "stu-1")
	require.NoError(t, err)
	assert.Equal(t, first.ID, ts[0].ID)

	ts, err = svc.ListThreads(ctx, "stu-2")
	require.NoError(t, err)
	assert.Empty(t, ts)
}

func TestTitle(t *testing.T) {
	assert.Equal(t, "short", Title("  short "))
	long := strings.Repeat("अ", 150)
	got := Title(long)
	assert.Equal(t, 100, len([]rune(got)))
}
