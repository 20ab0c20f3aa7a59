package components

import (
	"strings"

	"github.com/prayash-yosa/Mindforge-new/internal/domain"
	"github.com/prayash-yosa/Mindforge-new/internal/ui/theme"
)

// Verdict renders the grading outcome. A nil isCorrect means grading is
// still pending.
func Verdict(isCorrect *bool) string {
	switch {
	case isCorrect == nil:
		return theme.Pending.Render("pending")
	case *isCorrect:
		return theme.Correct.Render("correct")
	default:
		return theme.Incorrect.Render("incorrect")
	}
}

// Ladder renders the disclosure ladder with every level up to current
// highlighted.
func Ladder(current domain.FeedbackLevel) string {
	ci := current.Index()
	parts := make([]string, 0, domain.MaxLevelIndex)
	for i := 1; i <= domain.MaxLevelIndex; i++ {
		name := string(domain.LevelAt(i))
		if i <= ci {
			parts = append(parts, theme.LevelReached.Render(name))
		} else {
			parts = append(parts, theme.LevelAhead.Render(name))
		}
	}
	return strings.Join(parts, theme.Label.Render(" > "))
}
