package domain

// FeedbackLevel is a rung on the progressive disclosure ladder.
type FeedbackLevel string

const (
	LevelNone     FeedbackLevel = "none"
	LevelHint     FeedbackLevel = "hint"
	LevelApproach FeedbackLevel = "approach"
	LevelConcept  FeedbackLevel = "concept"
	LevelSolution FeedbackLevel = "solution"
)

// levelOrder is the disclosure order. The index of a level is its rank.
var levelOrder = []FeedbackLevel{
	LevelNone,
	LevelHint,
	LevelApproach,
	LevelConcept,
	LevelSolution,
}

// MaxLevelIndex is the index of LevelSolution.
const MaxLevelIndex = 4

// Index returns the rank of l, or -1 for an unknown level.
// The empty level ranks as LevelNone.
func (l FeedbackLevel) Index() int {
	if l == "" {
		return 0
	}
	for i, lv := range levelOrder {
		if lv == l {
			return i
		}
	}
	return -1
}

// Valid reports whether l is one of the five known levels.
func (l FeedbackLevel) Valid() bool {
	return l != "" && l.Index() >= 0
}

// LevelAt returns the level with the given rank, clamped to the ladder.
func LevelAt(i int) FeedbackLevel {
	if i < 0 {
		i = 0
	}
	if i > MaxLevelIndex {
		i = MaxLevelIndex
	}
	return levelOrder[i]
}

// MaxLevel returns the higher-ranked of a and b. Unknown levels rank as none.
func MaxLevel(a, b FeedbackLevel) FeedbackLevel {
	ai, bi := a.Index(), b.Index()
	if ai < 0 {
		ai = 0
	}
	if bi < 0 {
		bi = 0
	}
	if bi > ai {
		return LevelAt(bi)
	}
	return LevelAt(ai)
}
