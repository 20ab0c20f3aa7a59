package domain

import (
	"context"
	"time"
)

// ActivityStore reads and updates activities. Every call is scoped by
// student id so one student can never see another's activity.
type ActivityStore interface {
	// FindByIDForStudent returns nil, nil when the activity does not exist
	// or belongs to a different student.
	FindByIDForStudent(ctx context.Context, id, studentID string) (*Activity, error)

	// Update applies patch and returns the updated activity, or nil, nil
	// when no activity matched.
	Update(ctx context.Context, id, studentID string, patch ActivityPatch) (*Activity, error)

	// Complete moves the activity to completed with the given time and
	// score. It reports whether this call made the transition.
	Complete(ctx context.Context, id, studentID string, at time.Time, score float64) (bool, error)

	// ListForStudent returns the student's activities.
	ListForStudent(ctx context.Context, studentID string) ([]Activity, error)
}

// QuestionStore reads the immutable question catalog.
type QuestionStore interface {
	// FindByID returns nil, nil when no question has this id.
	FindByID(ctx context.Context, id string) (*Question, error)

	// FindByActivityID returns the activity's questions in catalog order.
	FindByActivityID(ctx context.Context, activityID string) ([]Question, error)
}

// ResponseStore persists graded answers.
type ResponseStore interface {
	// FindByStudentAndQuestion returns the latest attempt, or nil, nil.
	FindByStudentAndQuestion(ctx context.Context, studentID, questionID string) (*Response, error)

	// FindByStudentAndActivity returns all responses in submission order.
	FindByStudentAndActivity(ctx context.Context, studentID, activityID string) ([]Response, error)

	// Create inserts r. When a row for the same student, question and
	// attempt already exists, the existing row is returned with
	// created=false and nothing is written.
	Create(ctx context.Context, r *Response) (stored *Response, created bool, err error)

	// Update applies patch and returns the stored row, or nil, nil when no
	// row has this id. A patch whose FeedbackLevel ranks below the stored
	// level is not applied.
	Update(ctx context.Context, id string, patch ResponsePatch) (*Response, error)
}

// FeedbackProgressStore remembers the disclosure level reached on a
// question the student has not answered yet.
type FeedbackProgressStore interface {
	// Level returns LevelNone when nothing has been recorded.
	Level(ctx context.Context, studentID, questionID string) (FeedbackLevel, error)

	// Save records level for the pair unless a higher level is already
	// stored.
	Save(ctx context.Context, studentID, questionID string, level FeedbackLevel) error
}

// StudentStore looks up pseudonymous learner records.
type StudentStore interface {
	// FindByID returns nil, nil when the student is unknown.
	FindByID(ctx context.Context, id string) (*Student, error)
}

// MessageRole is the author of a doubt message.
type MessageRole string

const (
	RoleStudent MessageRole = "student"
	RoleAI      MessageRole = "ai"
)

// DoubtThread is a student's running conversation about a syllabus topic.
type DoubtThread struct {
	ID         string
	StudentID  string
	Title      string
	Syllabus   Syllabus
	IsResolved bool
	Messages   []DoubtMessage
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// DoubtMessage is one turn in a doubt thread.
type DoubtMessage struct {
	ID        string
	ThreadID  string
	Role      MessageRole
	Content   string
	AIModel   string
	CreatedAt time.Time
}

// DoubtStore persists doubt threads and their messages.
type DoubtStore interface {
	CreateThread(ctx context.Context, t *DoubtThread) (*DoubtThread, error)

	// FindThreadForStudent returns the thread with messages in order, or
	// nil, nil when absent or owned by another student.
	FindThreadForStudent(ctx context.Context, id, studentID string) (*DoubtThread, error)

	// ThreadsForStudent returns threads without messages, newest first.
	ThreadsForStudent(ctx context.Context, studentID string) ([]DoubtThread, error)

	AddMessage(ctx context.Context, m *DoubtMessage) (*DoubtMessage, error)
}
