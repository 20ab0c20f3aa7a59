// Package grading decides how an answer is graded and normalizes the
// verdict. Objective types are compared exactly; everything else goes to
// the grading-tier model.
package grading

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/prayash-yosa/Mindforge-new/internal/ai"
	"github.com/prayash-yosa/Mindforge-new/internal/domain"
	"github.com/prayash-yosa/Mindforge-new/internal/llm"
	"github.com/prayash-yosa/Mindforge-new/internal/prompt"
)

// Method records which path produced a Result.
type Method string

const (
	MethodDeterministic Method = "deterministic"
	MethodAI            Method = "ai"
	MethodPending       Method = "pending"
)

const (
	feedbackCorrect   = "Correct!"
	feedbackIncorrect = "Incorrect."
)

// Input is everything needed to grade one answer.
type Input struct {
	QuestionType    domain.QuestionType
	StudentAnswer   string
	CorrectAnswer   string
	Rubric          string
	QuestionContent string
	Context         prompt.Context
}

// Result is a normalized verdict. IsCorrect and Score are nil while
// grading is pending or when the model gave no usable verdict.
type Result struct {
	IsCorrect *bool
	Score     *float64
	Feedback  string
	Method    Method
}

// Policy grades answers.
type Policy struct {
	completer ai.Completer
	logger    *zap.Logger
}

// NewPolicy returns a Policy. completer may be nil, in which case
// open-ended answers stay pending.
func NewPolicy(completer ai.Completer, logger *zap.Logger) *Policy {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Policy{completer: completer, logger: logger}
}

// Grade never fails: model trouble degrades to a pending result.
func (p *Policy) Grade(ctx context.Context, in Input) Result {
	if in.QuestionType.IsObjective() && in.CorrectAnswer != "" {
		return Deterministic(in.StudentAnswer, in.CorrectAnswer)
	}

	if p.completer == nil || !p.completer.Configured() {
		return Pending()
	}

	pr := prompt.Grading(prompt.GradingInput{
		Context:       in.Context,
		QuestionType:  in.QuestionType,
		Question:      in.QuestionContent,
		Rubric:        in.Rubric,
		StudentAnswer: in.StudentAnswer,
	})

	ctx = llm.WithPurpose(ctx, llm.PurposeGrading)
	res := p.completer.ChatCompletion(ctx, pr.Messages, ai.TierGrading, pr.Fallback)
	if res.FromFallback {
		return Pending()
	}

	v, err := ParseReply(res.Content)
	if err != nil {
		p.logger.Warn("unparseable grading reply",
			zap.String("question_type", string(in.QuestionType)),
			zap.String("model", res.Model),
			zap.Error(err))
		return Result{Feedback: res.Content, Method: MethodAI}
	}
	return Result{
		IsCorrect: v.IsCorrect,
		Score:     v.Score,
		Feedback:  v.Feedback,
		Method:    MethodAI,
	}
}

// Deterministic compares answers after trimming and case folding.
func Deterministic(studentAnswer, correctAnswer string) Result {
	ok := normalize(studentAnswer) == normalize(correctAnswer)
	score := 0.0
	feedback := feedbackIncorrect
	if ok {
		score = 100
		feedback = feedbackCorrect
	}
	return Result{
		IsCorrect: &ok,
		Score:     &score,
		Feedback:  feedback,
		Method:    MethodDeterministic,
	}
}

func normalize(s string) string {
	return strings.TrimSpace(strings.ToLower(s))
}

// Pending is the result for an answer no model could grade.
func Pending() Result {
	return Result{Feedback: prompt.GradingPendingMessage, Method: MethodPending}
}
