// Package student summarizes a learner's activities: today's plan and an
// overall progress profile.
package student

import (
	"cmp"
	"context"
	"fmt"
	"math"
	"slices"
	"time"

	"go.uber.org/zap"

	"github.com/prayash-yosa/Mindforge-new/internal/domain"
)

// Stores bundles the collaborators the service reads.
type Stores struct {
	Students   domain.StudentStore
	Activities domain.ActivityStore
}

// Service builds student summaries.
type Service struct {
	stores Stores
	logger *zap.Logger
	now    func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// WithClock overrides time.Now. The clock's location defines "today".
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService returns a Service.
func NewService(stores Stores, opts ...Option) *Service {
	s := &Service{
		stores: stores,
		logger: zap.NewNop(),
		now:    time.Now,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Task is one activity on today's plan.
type Task struct {
	ID               string
	Type             domain.ActivityType
	Title            string
	Syllabus         *domain.Syllabus
	QuestionCount    int
	EstimatedMinutes *int
	Status           domain.ActivityStatus
	Score            *float64
}

// Plan lists the open activities plus those completed today.
type Plan struct {
	Student         domain.Student
	Tasks           []Task
	CompletedToday  int
	TotalToday      int
	ProgressPercent int
}

// TypeProgress aggregates activities of one type. AverageScore covers
// completed, scored activities and is nil when there are none.
type TypeProgress struct {
	Type         domain.ActivityType
	Total        int
	Completed    int
	AverageScore *float64
}

// Profile is the student's overall progress.
type Profile struct {
	Student                  domain.Student
	TotalActivitiesCompleted int
	Overview                 []TypeProgress
}

// TodayPlan returns pending, in-progress and paused activities plus those
// completed since local midnight.
func (s *Service) TodayPlan(ctx context.Context, studentID string) (*Plan, error) {
	st, activities, err := s.load(ctx, studentID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	end := start.AddDate(0, 0, 1)

	plan := &Plan{Student: *st}
	for _, a := range activities {
		if !onPlan(a, start, end) {
			continue
		}
		plan.Tasks = append(plan.Tasks, Task{
			ID:               a.ID,
			Type:             a.Type,
			Title:            a.Title,
			Syllabus:         a.Syllabus,
			QuestionCount:    a.QuestionCount,
			EstimatedMinutes: a.EstimatedMinutes,
			Status:           a.Status,
			Score:            a.Score,
		})
		if a.Status == domain.StatusCompleted {
			plan.CompletedToday++
		}
	}
	// Activities arrive newest first; the stable sort keeps that within a
	// status.
	slices.SortStableFunc(plan.Tasks, func(a, b Task) int {
		return cmp.Compare(a.Status, b.Status)
	})

	plan.TotalToday = len(plan.Tasks)
	plan.ProgressPercent = Percent(plan.CompletedToday, plan.TotalToday)
	return plan, nil
}

func onPlan(a domain.Activity, start, end time.Time) bool {
	switch a.Status {
	case domain.StatusPending, domain.StatusInProgress, domain.StatusPaused:
		return true
	case domain.StatusCompleted:
		return a.CompletedAt != nil && !a.CompletedAt.Before(start) && a.CompletedAt.Before(end)
	}
	return false
}

// Percent returns round(100*done/total), or 0 when total is 0.
func Percent(done, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(float64(done) / float64(total) * 100))
}

// GetProfile returns completion counts and average scores per activity type.
func (s *Service) GetProfile(ctx context.Context, studentID string) (*Profile, error) {
	st, activities, err := s.load(ctx, studentID)
	if err != nil {
		return nil, err
	}

	type acc struct {
		TypeProgress
		scoreSum float64
		scored   int
	}
	byType := make(map[domain.ActivityType]*acc)
	p := &Profile{Student: *st}
	for _, a := range activities {
		t := byType[a.Type]
		if t == nil {
			t = &acc{TypeProgress: TypeProgress{Type: a.Type}}
			byType[a.Type] = t
		}
		t.Total++
		if a.Status != domain.StatusCompleted {
			continue
		}
		t.Completed++
		p.TotalActivitiesCompleted++
		if a.Score != nil {
			t.scoreSum += *a.Score
			t.scored++
		}
	}

	for _, t := range byType {
		if t.scored > 0 {
			avg := t.scoreSum / float64(t.scored)
			t.AverageScore = &avg
		}
		p.Overview = append(p.Overview, t.TypeProgress)
	}
	slices.SortFunc(p.Overview, func(a, b TypeProgress) int {
		return cmp.Compare(a.Type, b.Type)
	})
	return p, nil
}

func (s *Service) load(ctx context.Context, studentID string) (*domain.Student, []domain.Activity, error) {
	st, err := s.stores.Students.FindByID(ctx, studentID)
	if err != nil {
		return nil, nil, fmt.Errorf("find student: %w", err)
	}
	if st == nil {
		return nil, nil, domain.StudentNotFound()
	}
	activities, err := s.stores.Activities.ListForStudent(ctx, studentID)
	if err != nil {
		return nil, nil, err
	}
	s.logger.Debug("student activities loaded",
		zap.String("student_id", studentID),
		zap.Int("count", len(activities)))
	return st, activities, nil
}
