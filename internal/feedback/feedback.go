// Package feedback walks a student up the hint, approach, concept and
// solution ladder for one question at a time.
package feedback

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/prayash-yosa/Mindforge-new/internal/ai"
	"github.com/prayash-yosa/Mindforge-new/internal/domain"
	"github.com/prayash-yosa/Mindforge-new/internal/llm"
	"github.com/prayash-yosa/Mindforge-new/internal/prompt"
)

// Result is one rendered rung of guidance. NextLevel is nil once the
// solution has been shown.
type Result struct {
	QuestionID      string
	Level           domain.FeedbackLevel
	Content         string
	FromAI          bool
	NextLevel       *domain.FeedbackLevel
	MaxLevelReached bool
}

// Stores bundles the collaborators the service reads and writes.
type Stores struct {
	Activities domain.ActivityStore
	Questions  domain.QuestionStore
	Responses  domain.ResponseStore
	Progress   domain.FeedbackProgressStore
}

// Service renders progressive feedback.
type Service struct {
	stores    Stores
	completer ai.Completer
	logger    *zap.Logger
}

// NewService returns a Service.
func NewService(stores Stores, completer ai.Completer, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{stores: stores, completer: completer, logger: logger}
}

// ResolveTarget returns the level to render next. Without a valid request
// it advances one step; a request may jump ahead but never back or to the
// same level. Solution is terminal.
func ResolveTarget(current, requested domain.FeedbackLevel) domain.FeedbackLevel {
	ci := current.Index()
	if ci < 0 {
		ci = 0
	}
	next := min(ci+1, domain.MaxLevelIndex)

	if requested.Valid() && requested != domain.LevelNone {
		return domain.LevelAt(max(requested.Index(), next))
	}
	return domain.LevelAt(next)
}

// GetFeedback resolves and renders the next level for questionID. Scope
// is checked before any model call. requested may be empty.
func (s *Service) GetFeedback(ctx context.Context, activityID, questionID, studentID string, requested domain.FeedbackLevel) (*Result, error) {
	activity, err := s.stores.Activities.FindByIDForStudent(ctx, activityID, studentID)
	if err != nil {
		return nil, fmt.Errorf("get feedback: %w", err)
	}
	if activity == nil {
		return nil, domain.ActivityNotFound(activityID)
	}

	question, err := s.stores.Questions.FindByID(ctx, questionID)
	if err != nil {
		return nil, fmt.Errorf("get feedback: %w", err)
	}
	if question == nil || question.ActivityID != activityID {
		return nil, domain.QuestionNotFound(questionID)
	}

	resp, err := s.stores.Responses.FindByStudentAndQuestion(ctx, studentID, questionID)
	if err != nil {
		return nil, fmt.Errorf("get feedback: %w", err)
	}

	current := domain.LevelNone
	if resp != nil {
		current = resp.FeedbackLevel
	} else if s.stores.Progress != nil {
		current, err = s.stores.Progress.Level(ctx, studentID, questionID)
		if err != nil {
			return nil, fmt.Errorf("get feedback: %w", err)
		}
	}

	target := ResolveTarget(current, requested)

	in := prompt.FeedbackInput{
		Context:  prompt.ContextFrom(question.Syllabus, activity.Syllabus),
		Question: question.Content,
		Level:    target,
	}
	if resp != nil {
		in.StudentAnswer = resp.Answer
		in.IsCorrect = resp.IsCorrect
		in.PreviousFeedback = resp.AIFeedback
	}
	pr := prompt.Feedback(in)

	ctx = llm.WithPurpose(ctx, llm.PurposeFeedback)
	res := s.completer.ChatCompletion(ctx, pr.Messages, ai.TierFeedback, pr.Fallback)

	if err := s.record(ctx, studentID, questionID, resp, target, res); err != nil {
		return nil, err
	}

	s.logger.Debug("feedback rendered",
		zap.String("question_id", questionID),
		zap.String("from", string(current)),
		zap.String("to", string(target)),
		zap.Bool("from_ai", !res.FromFallback))

	out := &Result{
		QuestionID:      questionID,
		Level:           target,
		Content:         res.Content,
		FromAI:          !res.FromFallback,
		MaxLevelReached: target == domain.LevelSolution,
	}
	if !out.MaxLevelReached {
		next := domain.LevelAt(target.Index() + 1)
		out.NextLevel = &next
	}
	return out, nil
}

// record stores the level reached. A response row is the source of truth;
// before submission the level lives in the progress store.
func (s *Service) record(ctx context.Context, studentID, questionID string, resp *domain.Response, level domain.FeedbackLevel, res ai.Result) error {
	if resp == nil {
		if s.stores.Progress == nil {
			return nil
		}
		if err := s.stores.Progress.Save(ctx, studentID, questionID, level); err != nil {
			return fmt.Errorf("save feedback progress: %w", err)
		}
		return nil
	}

	ref := ""
	if !res.FromFallback {
		ref = "ai:" + res.Model
	}
	content := res.Content
	stored, err := s.stores.Responses.Update(ctx, resp.ID, domain.ResponsePatch{
		FeedbackLevel:     &level,
		AIFeedback:        &content,
		AIConversationRef: &ref,
	})
	if err != nil {
		return fmt.Errorf("update response feedback: %w", err)
	}
	if stored != nil && stored.FeedbackLevel.Index() > level.Index() {
		s.logger.Debug("higher feedback level already stored",
			zap.String("question_id", questionID),
			zap.String("stored", string(stored.FeedbackLevel)),
			zap.String("rendered", string(level)))
	}
	return nil
}
