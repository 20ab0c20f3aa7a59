// Package doubt runs free-form question threads between a student and
// the tutor model.
package doubt

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/prayash-yosa/Mindforge-new/internal/ai"
	"github.com/prayash-yosa/Mindforge-new/internal/domain"
	"github.com/prayash-yosa/Mindforge-new/internal/llm"
	"github.com/prayash-yosa/Mindforge-new/internal/prompt"
)

// MaxTitleLen is the rune length of an auto-generated thread title.
const MaxTitleLen = 100

// CreateInput is a new student message. An empty ThreadID starts a new
// thread scoped to Syllabus.
type CreateInput struct {
	ThreadID string
	Syllabus domain.Syllabus
	Message  string
}

// Service answers doubts.
type Service struct {
	doubts    domain.DoubtStore
	students  domain.StudentStore
	completer ai.Completer
	logger    *zap.Logger
}

// NewService returns a Service.
func NewService(doubts domain.DoubtStore, students domain.StudentStore, completer ai.Completer, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{doubts: doubts, students: students, completer: completer, logger: logger}
}

// CreateMessage appends the student's message, asks the model for a
// reply and returns the updated thread.
func (s *Service) CreateMessage(ctx context.Context, studentID string, in CreateInput) (*domain.DoubtThread, error) {
	student, err := s.students.FindByID(ctx, studentID)
	if err != nil {
		return nil, fmt.Errorf("create doubt message: %w", err)
	}
	if student == nil {
		return nil, domain.StudentNotFound()
	}

	var thread *domain.DoubtThread
	if in.ThreadID == "" {
		thread, err = s.doubts.CreateThread(ctx, &domain.DoubtThread{
			StudentID: studentID,
			Title:     Title(in.Message),
			Syllabus:  in.Syllabus,
		})
		if err != nil {
			return nil, fmt.Errorf("create doubt message: %w", err)
		}
	} else {
		thread, err = s.doubts.FindThreadForStudent(ctx, in.ThreadID, studentID)
		if err != nil {
			return nil, fmt.Errorf("create doubt message: %w", err)
		}
		if thread == nil {
			return nil, domain.DoubtThreadNotFound(in.ThreadID)
		}
	}
	history := thread.Messages

	if _, err := s.doubts.AddMessage(ctx, &domain.DoubtMessage{
		ThreadID: thread.ID,
		Role:     domain.RoleStudent,
		Content:  in.Message,
	}); err != nil {
		return nil, fmt.Errorf("create doubt message: %w", err)
	}

	pr := prompt.Doubt(prompt.DoubtInput{
		Context: prompt.ContextFrom(&in.Syllabus, &thread.Syllabus, &domain.Syllabus{Class: student.Class}),
		History: history,
		Message: in.Message,
	})

	ctx = llm.WithPurpose(ctx, llm.PurposeDoubt)
	res := s.completer.ChatCompletion(ctx, pr.Messages, ai.TierFeedback, pr.Fallback)

	if _, err := s.doubts.AddMessage(ctx, &domain.DoubtMessage{
		ThreadID: thread.ID,
		Role:     domain.RoleAI,
		Content:  res.Content,
		AIModel:  res.Model,
	}); err != nil {
		return nil, fmt.Errorf("store doubt reply: %w", err)
	}

	s.logger.Debug("doubt answered",
		zap.String("thread_id", thread.ID),
		zap.Bool("from_ai", !res.FromFallback))

	return s.GetThread(ctx, thread.ID, studentID)
}

// GetThread returns a thread with its messages in order.
func (s *Service) GetThread(ctx context.Context, threadID, studentID string) (*domain.DoubtThread, error) {
	t, err := s.doubts.FindThreadForStudent(ctx, threadID, studentID)
	if err != nil {
		return nil, fmt.Errorf("get doubt thread: %w", err)
	}
	if t == nil {
		return nil, domain.DoubtThreadNotFound(threadID)
	}
	return t, nil
}

// ListThreads returns the student's threads, most recently active first.
func (s *Service) ListThreads(ctx context.Context, studentID string) ([]domain.DoubtThread, error) {
	ts, err := s.doubts.ThreadsForStudent(ctx, studentID)
	if err != nil {
		return nil, fmt.Errorf("list doubt threads: %w", err)
	}
	return ts, nil
}

// Title is the first MaxTitleLen runes of the opening message.
func Title(message string) string {
	message = strings.TrimSpace(message)
	r := []rune(message)
	if len(r) <= MaxTitleLen {
		return message
	}
	return string(r[:MaxTitleLen])
}
