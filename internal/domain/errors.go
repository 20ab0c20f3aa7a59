package domain

import (
	"errors"
	"fmt"
)

var (
	ErrActivityNotFound         = errors.New("activity not found")
	ErrActivityAlreadyCompleted = errors.New("activity already completed")
	ErrQuestionNotFound         = errors.New("question not found")
	ErrDoubtThreadNotFound      = errors.New("doubt thread not found")
	ErrStudentNotFound          = errors.New("student not found")
)

// ErrorKind groups domain errors by how a caller should react.
type ErrorKind string

const (
	KindNotFound ErrorKind = "not_found"
	KindConflict ErrorKind = "conflict"
)

// Error carries a machine-readable code alongside one of the sentinels
// above. errors.Is matches the sentinel.
type Error struct {
	Code string
	Kind ErrorKind
	ID   string
	Err  error
}

func (e *Error) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("%s: %s", e.Err, e.ID)
	}
	return e.Err.Error()
}

func (e *Error) Unwrap() error { return e.Err }

// ActivityNotFound reports an activity that is absent or belongs to
// another student.
func ActivityNotFound(id string) error {
	return &Error{Code: "ACTIVITY_NOT_FOUND", Kind: KindNotFound, ID: id, Err: ErrActivityNotFound}
}

// ActivityAlreadyCompleted reports a write against a finished activity.
func ActivityAlreadyCompleted(id string) error {
	return &Error{Code: "ACTIVITY_ALREADY_COMPLETED", Kind: KindConflict, ID: id, Err: ErrActivityAlreadyCompleted}
}

// QuestionNotFound reports a question that is absent or not part of the
// requested activity.
func QuestionNotFound(id string) error {
	return &Error{Code: "QUESTION_NOT_FOUND", Kind: KindNotFound, ID: id, Err: ErrQuestionNotFound}
}

// DoubtThreadNotFound reports a thread that is absent or belongs to
// another student.
func DoubtThreadNotFound(id string) error {
	return &Error{Code: "DOUBT_THREAD_NOT_FOUND", Kind: KindNotFound, ID: id, Err: ErrDoubtThreadNotFound}
}

// StudentNotFound reports an unknown student id.
func StudentNotFound() error {
	return &Error{Code: "STUDENT_NOT_FOUND", Kind: KindNotFound, Err: ErrStudentNotFound}
}

// CodeOf returns the machine code of a domain error, or "" if err is not one.
func CodeOf(err error) string {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return ""
}
