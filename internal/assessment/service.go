// Package assessment owns answer submission and the activity lifecycle:
// scope checks, idempotent grading, completion and results.
package assessment

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/prayash-yosa/Mindforge-new/internal/domain"
	"github.com/prayash-yosa/Mindforge-new/internal/grading"
	"github.com/prayash-yosa/Mindforge-new/internal/prompt"
)

// Stores bundles the collaborators the service reads and writes.
// Progress is optional.
type Stores struct {
	Activities domain.ActivityStore
	Questions  domain.QuestionStore
	Responses  domain.ResponseStore
	Progress   domain.FeedbackProgressStore
}

// Grader grades a single answer. *grading.Policy implements it.
type Grader interface {
	Grade(ctx context.Context, in grading.Input) grading.Result
}

// Service implements the produced assessment operations.
type Service struct {
	stores Stores
	grader Grader
	logger *zap.Logger
	now    func() time.Time

	submits singleflight.Group
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService returns a Service.
func NewService(stores Stores, grader Grader, opts ...Option) *Service {
	s := &Service{
		stores: stores,
		grader: grader,
		logger: zap.NewNop(),
		now:    func() time.Time { return time.Now().UTC() },
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// AnswerResult is returned by SubmitAnswer. NextQuestionID is empty when
// every question has a response.
type AnswerResult struct {
	QuestionID     string
	IsCorrect      *bool
	Score          *float64
	Feedback       string
	FeedbackLevel  domain.FeedbackLevel
	IsComplete     bool
	NextQuestionID string
}

// SubmitAnswer grades and stores answer for questionID. A second
// submission for an answered question returns the stored verdict without
// grading again. Concurrent submissions for the same student and question
// share one execution. The shared execution is detached from every
// caller's cancellation; a caller whose ctx ends gets ctx.Err() while the
// others still receive the result.
func (s *Service) SubmitAnswer(ctx context.Context, activityID, questionID, answer, studentID string, requested domain.FeedbackLevel) (*AnswerResult, error) {
	key := studentID + "\x00" + questionID
	ch := s.submits.DoChan(key, func() (any, error) {
		return s.submit(context.WithoutCancel(ctx), activityID, questionID, answer, studentID, requested)
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r := <-ch:
		if r.Err != nil {
			return nil, r.Err
		}
		res := *r.Val.(*AnswerResult)
		return &res, nil
	}
}

func (s *Service) submit(ctx context.Context, activityID, questionID, answer, studentID string, requested domain.FeedbackLevel) (*AnswerResult, error) {
	activity, err := s.stores.Activities.FindByIDForStudent(ctx, activityID, studentID)
	if err != nil {
		return nil, fmt.Errorf("submit answer: %w", err)
	}
	if activity == nil {
		return nil, domain.ActivityNotFound(activityID)
	}
	if activity.Status == domain.StatusCompleted {
		return nil, domain.ActivityAlreadyCompleted(activityID)
	}

	question, err := s.stores.Questions.FindByID(ctx, questionID)
	if err != nil {
		return nil, fmt.Errorf("submit answer: %w", err)
	}
	if question == nil || question.ActivityID != activityID {
		return nil, domain.QuestionNotFound(questionID)
	}

	existing, err := s.stores.Responses.FindByStudentAndQuestion(ctx, studentID, questionID)
	if err != nil {
		return nil, fmt.Errorf("submit answer: %w", err)
	}
	if existing != nil {
		return s.replay(ctx, activityID, studentID, existing)
	}

	level, err := s.initialLevel(ctx, studentID, questionID, requested)
	if err != nil {
		return nil, err
	}

	grade := s.grader.Grade(ctx, grading.Input{
		QuestionType:    question.Type,
		StudentAnswer:   answer,
		CorrectAnswer:   question.CorrectAnswer,
		Rubric:          question.Rubric,
		QuestionContent: question.Content,
		Context:         prompt.ContextFrom(question.Syllabus, activity.Syllabus),
	})

	stored, created, err := s.stores.Responses.Create(ctx, &domain.Response{
		StudentID:       studentID,
		ActivityID:      activityID,
		QuestionID:      questionID,
		Answer:          answer,
		IsCorrect:       grade.IsCorrect,
		Score:           grade.Score,
		GradingFeedback: grade.Feedback,
		FeedbackLevel:   level,
		AttemptNumber:   1,
		SubmittedAt:     s.now(),
	})
	if err != nil {
		return nil, fmt.Errorf("submit answer: %w", err)
	}
	if !created {
		// Another process got there first.
		return s.replay(ctx, activityID, studentID, stored)
	}

	s.logger.Info("answer graded",
		zap.String("activity_id", activityID),
		zap.String("question_id", questionID),
		zap.String("method", string(grade.Method)))

	prog, err := s.progress(ctx, activityID, studentID)
	if err != nil {
		return nil, err
	}
	if prog.complete() {
		if err := s.complete(ctx, activity, prog); err != nil {
			return nil, err
		}
	}

	return &AnswerResult{
		QuestionID:     questionID,
		IsCorrect:      stored.IsCorrect,
		Score:          stored.Score,
		Feedback:       stored.GradingFeedback,
		FeedbackLevel:  stored.FeedbackLevel,
		IsComplete:     prog.complete(),
		NextQuestionID: prog.nextUnanswered(),
	}, nil
}

// replay answers a repeat submission from the stored row.
func (s *Service) replay(ctx context.Context, activityID, studentID string, r *domain.Response) (*AnswerResult, error) {
	prog, err := s.progress(ctx, activityID, studentID)
	if err != nil {
		return nil, err
	}
	return &AnswerResult{
		QuestionID:     r.QuestionID,
		IsCorrect:      r.IsCorrect,
		Score:          r.Score,
		Feedback:       storedFeedback(r),
		FeedbackLevel:  r.FeedbackLevel,
		IsComplete:     prog.complete(),
		NextQuestionID: prog.nextUnanswered(),
	}, nil
}

func storedFeedback(r *domain.Response) string {
	if r.GradingFeedback != "" {
		return r.GradingFeedback
	}
	switch {
	case r.IsCorrect == nil:
		return prompt.GradingPendingMessage
	case *r.IsCorrect:
		return "Correct!"
	}
	return "Incorrect."
}

// initialLevel keeps any guidance already seen before the first answer.
func (s *Service) initialLevel(ctx context.Context, studentID, questionID string, requested domain.FeedbackLevel) (domain.FeedbackLevel, error) {
	level := domain.LevelNone
	if requested.Valid() {
		level = requested
	}
	if s.stores.Progress == nil {
		return level, nil
	}
	seen, err := s.stores.Progress.Level(ctx, studentID, questionID)
	if err != nil {
		return "", fmt.Errorf("submit answer: %w", err)
	}
	return domain.MaxLevel(level, seen), nil
}

func (s *Service) complete(ctx context.Context, activity *domain.Activity, prog *progress) error {
	score := prog.score()
	done, err := s.stores.Activities.Complete(ctx, activity.ID, activity.StudentID, s.now(), score)
	if err != nil {
		return err
	}
	if !done {
		return nil
	}
	s.logger.Info("activity completed",
		zap.String("activity_id", activity.ID),
		zap.Float64("score", score))
	return nil
}

// PauseActivity parks an activity. Completed activities are left alone.
func (s *Service) PauseActivity(ctx context.Context, activityID, studentID string) error {
	activity, err := s.stores.Activities.FindByIDForStudent(ctx, activityID, studentID)
	if err != nil {
		return fmt.Errorf("pause activity: %w", err)
	}
	if activity == nil {
		return domain.ActivityNotFound(activityID)
	}
	if activity.Status == domain.StatusCompleted {
		return nil
	}
	status := domain.StatusPaused
	if _, err := s.stores.Activities.Update(ctx, activityID, studentID, domain.ActivityPatch{Status: &status}); err != nil {
		return fmt.Errorf("pause activity: %w", err)
	}
	return nil
}
