package assessment

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNoQuestions is returned when a runner is started on a test without content.
	ErrNoQuestions = errors.New("this test has no content and cannot be started")
	// ErrInvalidTransition is returned for a lifecycle move the state machine does not allow.
	ErrInvalidTransition = errors.New("invalid state transition")
	// ErrNotInProgress is returned when an operation requires a running attempt.
	ErrNotInProgress = errors.New("assessment is not in progress")
	// ErrUnknownQuestion is returned when an answer targets a question outside the test.
	ErrUnknownQuestion = errors.New("unknown question")
	// ErrAlreadySubmitted accompanies the existing submission on a repeated submit.
	ErrAlreadySubmitted = errors.New("assessment already submitted")
)

// MalformedAnswerError reports an answer whose shape does not match the question kind.
type MalformedAnswerError struct {
	QuestionID string
	Expected   Kind
	Got        Kind
	Reason     string
}

func (e *MalformedAnswerError) Error() string {
	var b strings.Builder
	b.WriteString("malformed answer")
	if e.QuestionID != "" {
		fmt.Fprintf(&b, " for question %q", e.QuestionID)
	}
	fmt.Fprintf(&b, ": expected %s", e.Expected)
	if e.Got != "" {
		fmt.Fprintf(&b, ", got %s", e.Got)
	}
	if e.Reason != "" {
		b.WriteString(" (" + e.Reason + ")")
	}
	return b.String()
}

// ValidationError describes one violated invariant of a test definition.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationErrors is a list of invariant violations.
type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	msgs := make([]string, 0, len(v))
	for _, e := range v {
		msgs = append(msgs, e.Error())
	}
	return "validation failed: " + strings.Join(msgs, "; ")
}
