package domain

import "time"

// QuestionType identifies how a question is answered and graded.
type QuestionType string

const (
	QuestionMCQ         QuestionType = "mcq"
	QuestionTrueFalse   QuestionType = "true_false"
	QuestionFillBlank   QuestionType = "fill_blank"
	QuestionShortAnswer QuestionType = "short_answer"
	QuestionLongAnswer  QuestionType = "long_answer"
)

// IsObjective reports whether answers of this type can be compared
// against a single correct answer without a model.
func (t QuestionType) IsObjective() bool {
	switch t {
	case QuestionMCQ, QuestionTrueFalse, QuestionFillBlank:
		return true
	}
	return false
}

// Valid reports whether t is a known question type.
func (t QuestionType) Valid() bool {
	switch t {
	case QuestionMCQ, QuestionTrueFalse, QuestionFillBlank, QuestionShortAnswer, QuestionLongAnswer:
		return true
	}
	return false
}

// Syllabus is the curriculum position a question or activity belongs to.
type Syllabus struct {
	ID      string
	Class   string
	Board   string
	Subject string
	Chapter string
	Topic   string
}

// Question is an immutable catalog entry.
type Question struct {
	ID            string
	ActivityID    string
	Type          QuestionType
	Content       string
	Options       []string // mcq only
	CorrectAnswer string   // objective types
	Rubric        string   // open-ended types
	Difficulty    int      // 1-5
	SortOrder     int
	SyllabusID    string
	Syllabus      *Syllabus
}

// ActivityType is the kind of work an activity represents.
type ActivityType string

const (
	ActivityHomework  ActivityType = "homework"
	ActivityQuiz      ActivityType = "quiz"
	ActivityTest      ActivityType = "test"
	ActivityGapBridge ActivityType = "gap_bridge"
)

// ActivityStatus is the lifecycle state of an activity.
type ActivityStatus string

const (
	StatusPending    ActivityStatus = "pending"
	StatusInProgress ActivityStatus = "in_progress"
	StatusPaused     ActivityStatus = "paused"
	StatusCompleted  ActivityStatus = "completed"
	StatusExpired    ActivityStatus = "expired"
)

// Activity is a set of questions assigned to one student.
type Activity struct {
	ID               string
	StudentID        string
	Type             ActivityType
	Title            string
	Status           ActivityStatus
	QuestionCount    int
	EstimatedMinutes *int
	DueAt            *time.Time
	StartedAt        *time.Time
	CompletedAt      *time.Time
	Score            *float64
	SyllabusID       string
	Syllabus         *Syllabus
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// ActivityPatch lists the activity fields the engine may change.
// Nil fields are left untouched.
type ActivityPatch struct {
	Status      *ActivityStatus
	StartedAt   *time.Time
	CompletedAt *time.Time
	Score       *float64
}

// Response is a student's graded answer to one question.
type Response struct {
	ID                string
	StudentID         string
	ActivityID        string
	QuestionID        string
	Answer            string
	IsCorrect         *bool
	Score             *float64
	GradingFeedback   string
	FeedbackLevel     FeedbackLevel
	AIFeedback        string
	AIConversationRef string
	AttemptNumber     int
	SubmittedAt       time.Time
}

// ResponsePatch lists the response fields the feedback ladder may change.
// A non-nil AIConversationRef pointing at "" clears the reference.
type ResponsePatch struct {
	FeedbackLevel     *FeedbackLevel
	AIFeedback        *string
	AIConversationRef *string
}

// Student is the pseudonymous learner record. No PII is kept here.
type Student struct {
	ID        string
	Class     string
	CreatedAt time.Time
}
