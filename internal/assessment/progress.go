package assessment

import (
	"context"
	"fmt"
	"math"

	"github.com/prayash-yosa/Mindforge-new/internal/domain"
)

// progress is a snapshot of one student's answers against an activity.
type progress struct {
	questions []domain.Question
	responses []domain.Response
	answered  map[string]bool
}

func (s *Service) progress(ctx context.Context, activityID, studentID string) (*progress, error) {
	qs, err := s.stores.Questions.FindByActivityID(ctx, activityID)
	if err != nil {
		return nil, fmt.Errorf("load questions: %w", err)
	}
	rs, err := s.stores.Responses.FindByStudentAndActivity(ctx, studentID, activityID)
	if err != nil {
		return nil, fmt.Errorf("load responses: %w", err)
	}
	p := &progress{questions: qs, responses: rs, answered: make(map[string]bool, len(rs))}
	for _, r := range rs {
		p.answered[r.QuestionID] = true
	}
	return p, nil
}

func (p *progress) complete() bool {
	return len(p.responses) >= len(p.questions)
}

// nextUnanswered returns the first question in catalog order with no
// response, or "".
func (p *progress) nextUnanswered() string {
	for _, q := range p.questions {
		if !p.answered[q.ID] {
			return q.ID
		}
	}
	return ""
}

func (p *progress) correct() int {
	n := 0
	for _, r := range p.responses {
		if r.IsCorrect != nil && *r.IsCorrect {
			n++
		}
	}
	return n
}

func (p *progress) score() float64 {
	return Score(p.correct(), len(p.questions))
}

// Score is round(100 * correct / total), or 0 for an empty activity.
func Score(correct, total int) float64 {
	if total <= 0 {
		return 0
	}
	return math.Round(100 * float64(correct) / float64(total))
}
