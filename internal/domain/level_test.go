package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFeedbackLevelIndex(t *testing.T) {
	tests := []struct {
		level FeedbackLevel
		want  int
	}{
		{"", 0},
		{LevelNone, 0},
		{LevelHint, 1},
		{LevelApproach, 2},
		{LevelConcept, 3},
		{LevelSolution, 4},
		{"answer", -1},
		{"HINT", -1},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.level.Index(), "level %q", tt.level)
	}
}

func TestFeedbackLevelValid(t *testing.T) {
	assert.True(t, LevelNone.Valid())
	assert.True(t, LevelSolution.Valid())
	assert.False(t, FeedbackLevel("").Valid())
	assert.False(t, FeedbackLevel("bogus").Valid())
}

func TestLevelAtClamps(t *testing.T) {
	assert.Equal(t, LevelNone, LevelAt(-3))
	assert.Equal(t, LevelConcept, LevelAt(3))
	assert.Equal(t, LevelSolution, LevelAt(9))
}

func TestMaxLevel(t *testing.T) {
	assert.Equal(t, LevelConcept, MaxLevel(LevelHint, LevelConcept))
	assert.Equal(t, LevelConcept, MaxLevel(LevelConcept, LevelHint))
	assert.Equal(t, LevelHint, MaxLevel("junk", LevelHint))
	assert.Equal(t, LevelNone, MaxLevel("", ""))
}

func TestQuestionTypeIsObjective(t *testing.T) {
	assert.True(t, QuestionMCQ.IsObjective())
	assert.True(t, QuestionTrueFalse.IsObjective())
	assert.True(t, QuestionFillBlank.IsObjective())
	assert.False(t, QuestionShortAnswer.IsObjective())
	assert.False(t, QuestionLongAnswer.IsObjective())
	assert.False(t, QuestionType("essay").Valid())
}

func TestDomainErrorsMatchSentinels(t *testing.T) {
	err := fmt.Errorf("submit: %w", ActivityNotFound("a-1"))
	assert.True(t, errors.Is(err, ErrActivityNotFound))
	assert.Equal(t, "ACTIVITY_NOT_FOUND", CodeOf(err))
	assert.Equal(t, "activity not found: a-1", ActivityNotFound("a-1").Error())

	assert.True(t, errors.Is(ActivityAlreadyCompleted("a-1"), ErrActivityAlreadyCompleted))
	assert.True(t, errors.Is(QuestionNotFound("q-1"), ErrQuestionNotFound))
	assert.Equal(t, "", CodeOf(errors.New("plain")))
}
