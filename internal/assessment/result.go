package assessment

import (
	"context"
	"fmt"

	"github.com/prayash-yosa/Mindforge-new/internal/domain"
)

// Card suggests what the student should do after an activity.
type Card struct {
	Type   domain.ActivityType
	Title  string
	Reason string
}

// QuestionScore is one row of a result breakdown.
type QuestionScore struct {
	QuestionID string
	IsCorrect  *bool
	Score      *float64
}

// ActivityResult summarizes a student's work on an activity. Score is nil
// when the activity has no questions.
type ActivityResult struct {
	ActivityID        string
	Type              domain.ActivityType
	Title             string
	Status            domain.ActivityStatus
	TotalQuestions    int
	AnsweredQuestions int
	CorrectAnswers    int
	Score             *float64
	Breakdown         []QuestionScore
	SuggestedNext     []Card
}

// GetResult derives the score from the stored responses rather than the
// score frozen on the activity.
func (s *Service) GetResult(ctx context.Context, activityID, studentID string) (*ActivityResult, error) {
	activity, err := s.stores.Activities.FindByIDForStudent(ctx, activityID, studentID)
	if err != nil {
		return nil, fmt.Errorf("get result: %w", err)
	}
	if activity == nil {
		return nil, domain.ActivityNotFound(activityID)
	}

	prog, err := s.progress(ctx, activityID, studentID)
	if err != nil {
		return nil, err
	}

	total := len(prog.questions)
	if total == 0 {
		total = activity.QuestionCount
	}
	if total == 0 {
		total = len(prog.responses)
	}

	out := &ActivityResult{
		ActivityID:        activity.ID,
		Type:              activity.Type,
		Title:             activity.Title,
		Status:            activity.Status,
		TotalQuestions:    total,
		AnsweredQuestions: len(prog.responses),
		CorrectAnswers:    prog.correct(),
	}
	for _, r := range prog.responses {
		out.Breakdown = append(out.Breakdown, QuestionScore{
			QuestionID: r.QuestionID,
			IsCorrect:  r.IsCorrect,
			Score:      r.Score,
		})
	}
	if total > 0 {
		score := Score(out.CorrectAnswers, total)
		out.Score = &score
		out.SuggestedNext = SuggestNext(score)
	}
	return out, nil
}

// SuggestNext picks follow-up cards for a score. The bands are [0,60),
// [60,90) and [90,100].
func SuggestNext(score float64) []Card {
	switch {
	case score < 60:
		return []Card{{
			Type:   domain.ActivityGapBridge,
			Title:  "Review weak areas",
			Reason: "Score below 60% — revisit the concepts.",
		}}
	case score < 90:
		return []Card{{
			Type:   domain.ActivityQuiz,
			Title:  "Practice quiz",
			Reason: "Good effort — practice more to master the topic.",
		}}
	}
	return []Card{{
		Type:   domain.ActivityHomework,
		Title:  "Next topic",
		Reason: "Excellent score! Move on to the next topic.",
	}}
}
