package student

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/prayash-yosa/Mindforge-new/internal/domain"
	"github.com/prayash-yosa/Mindforge-new/internal/store"
)

var fixedNow = time.Date(2026, 3, 14, 15, 0, 0, 0, time.UTC)

func newService(t *testing.T) *Service {
	t.Helper()
	ctx := context.Background()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	st, err := store.Open(ctx, "file:student_"+name+"?mode=memory&cache=shared")
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	today := fixedNow.Add(-6 * time.Hour)
	yesterday := fixedNow.Add(-19 * time.Hour)
	high, low := 80.0, 40.0
	_, err = st.ImportCatalog(ctx, store.Catalog{
		Students: []domain.Student{{ID: "stu-1", Class: "7"}, {ID: "stu-2", Class: "7"}},
		Syllabus: []domain.Syllabus{{ID: "syl-1", Class: "7", Subject: "Science", Chapter: "Light", Topic: "Reflection"}},
		Activities: []domain.Activity{
			{ID: "a-pending", StudentID: "stu-1", Type: domain.ActivityQuiz, Title: "Mirrors", SyllabusID: "syl-1"},
			{ID: "a-progress", StudentID: "stu-1", Type: domain.ActivityHomework, Title: "Shadows", Status: domain.StatusInProgress},
			{ID: "a-today", StudentID: "stu-1", Type: domain.ActivityQuiz, Title: "Lenses", Status: domain.StatusCompleted, CompletedAt: &today, Score: &high},
			{ID: "a-old", StudentID: "stu-1", Type: domain.ActivityQuiz, Title: "Prisms", Status: domain.StatusCompleted, CompletedAt: &yesterday, Score: &low},
			{ID: "a-expired", StudentID: "stu-1", Type: domain.ActivityTest, Title: "Unit test", Status: domain.StatusExpired},
			{ID: "b-pending", StudentID: "stu-2", Type: domain.ActivityQuiz, Title: "Not mine"},
		},
	})
	require.NoError(t, err)

	return NewService(Stores{Students: st.Students(), Activities: st.Activities()},
		WithLogger(zaptest.NewLogger(t)),
		WithClock(func() time.Time { return fixedNow }))
}

func TestTodayPlan(t *testing.T) {
	svc := newService(t)

	plan, err := svc.TodayPlan(context.Background(), "stu-1")
	require.NoError(t, err)

	var ids []string
	for _, task := range plan.Tasks {
		ids = append(ids, task.ID)
	}
	assert.Equal(t, []string{"a-today", "a-progress", "a-pending"}, ids)
	assert.Equal(t, 1, plan.CompletedToday)
	assert.Equal(t, 3, plan.TotalToday)
	assert.Equal(t, 33, plan.ProgressPercent)
	assert.Equal(t, "7", plan.Student.Class)

	pending := plan.Tasks[2]
	require.NotNil(t, pending.Syllabus)
	assert.Equal(t, "Reflection", pending.Syllabus.Topic)
}

func TestTodayPlanUnknownStudent(t *testing.T) {
	svc := newService(t)

	_, err := svc.TodayPlan(context.Background(), "ghost")
	assert.True(t, errors.Is(err, domain.ErrStudentNotFound))
	assert.Equal(t, "STUDENT_NOT_FOUND", domain.CodeOf(err))
}

func TestGetProfile(t *testing.T) {
	svc := newService(t)

	p, err := svc.GetProfile(context.Background(), "stu-1")
	require.NoError(t, err)
	assert.Equal(t, 2, p.TotalActivitiesCompleted)
	require.Len(t, p.Overview, 3)

	assert.Equal(t, domain.ActivityHomework, p.Overview[0].Type)
	assert.Equal(t, 1, p.Overview[0].Total)
	assert.Nil(t, p.Overview[0].AverageScore)

	quiz := p.Overview[1]
	assert.Equal(t, domain.ActivityQuiz, quiz.Type)
	assert.Equal(t, 3, quiz.Total)
	assert.Equal(t, 2, quiz.Completed)
	require.NotNil(t, quiz.AverageScore)
	assert.Equal(t, 60.0, *quiz.AverageScore)

	assert.Equal(t, domain.ActivityTest, p.Overview[2].Type)
	assert.Zero(t, p.Overview[2].Completed)
}

func TestPercent(t *testing.T) {
	tests := []struct {
		done, total, want int
	}{
		{0, 0, 0},
		{1, 3, 33},
		{2, 3, 67},
		{1, 2, 50},
		{4, 4, 100},
	}
	for _, tt := range tests {
		if got := Percent(tt.done, tt.total); got != tt.want {
			t.Errorf("Percent(%d, %d) = %d, want %d", tt.done, tt.total, got, tt.want)
		}
	}
}
