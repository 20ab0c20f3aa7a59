package assessment

import (
	"context"
	"fmt"
	"time"

	"github.com/prayash-yosa/Mindforge-new/internal/domain"
)

// QuestionView is a question as shown to the student. Answer keys and
// rubrics are never included.
type QuestionView struct {
	ID         string
	Type       domain.QuestionType
	Content    string
	Options    []string
	Difficulty int
	SortOrder  int
	Answered   bool
}

// ActivityDetail is an activity with its questions and the student's
// progress.
type ActivityDetail struct {
	ID               string
	Type             domain.ActivityType
	Title            string
	Status           domain.ActivityStatus
	QuestionCount    int
	EstimatedMinutes *int
	DueAt            *time.Time
	Syllabus         *domain.Syllabus
	Questions        []QuestionView
	AnsweredCount    int
}

// GetActivity loads an activity for display. Opening a pending activity
// starts it.
func (s *Service) GetActivity(ctx context.Context, activityID, studentID string) (*ActivityDetail, error) {
	activity, err := s.stores.Activities.FindByIDForStudent(ctx, activityID, studentID)
	if err != nil {
		return nil, fmt.Errorf("get activity: %w", err)
	}
	if activity == nil {
		return nil, domain.ActivityNotFound(activityID)
	}

	prog, err := s.progress(ctx, activityID, studentID)
	if err != nil {
		return nil, err
	}

	status := activity.Status
	if status == domain.StatusPending {
		status = domain.StatusInProgress
		now := s.now()
		_, err := s.stores.Activities.Update(ctx, activityID, studentID, domain.ActivityPatch{
			Status:    &status,
			StartedAt: &now,
		})
		if err != nil {
			return nil, fmt.Errorf("start activity: %w", err)
		}
	}

	out := &ActivityDetail{
		ID:               activity.ID,
		Type:             activity.Type,
		Title:            activity.Title,
		Status:           status,
		QuestionCount:    activity.QuestionCount,
		EstimatedMinutes: activity.EstimatedMinutes,
		DueAt:            activity.DueAt,
		Syllabus:         activity.Syllabus,
		AnsweredCount:    len(prog.answered),
	}
	for _, q := range prog.questions {
		out.Questions = append(out.Questions, QuestionView{
			ID:         q.ID,
			Type:       q.Type,
			Content:    q.Content,
			Options:    q.Options,
			Difficulty: q.Difficulty,
			SortOrder:  q.SortOrder,
			Answered:   prog.answered[q.ID],
		})
	}
	return out, nil
}
