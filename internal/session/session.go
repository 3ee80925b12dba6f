// Package session implements the student exam session state machine and the
// scoring engine. Transitions are plain methods returning new state in place;
// nothing here touches a clock, the network, or storage.
package session

import (
	"errors"
	"fmt"
	"time"

	"github.com/provalab/provagen/internal/model"
)

// Unanswered marks an answer slot with no selection.
const Unanswered = -1

// Status of a session.
type Status string

const (
	StatusInProgress Status = "in_progress"
	StatusSubmitted  Status = "submitted"
)

var (
	// ErrSubmitted is returned by transitions attempted after submission.
	ErrSubmitted = errors.New("session already submitted")
	// ErrOptionOutOfRange is returned for an answer index outside the
	// current question's options.
	ErrOptionOutOfRange = errors.New("option index out of range")
)

// Session is one in-progress exam attempt. It is ephemeral: it lives in
// memory for the duration of the attempt and is never persisted.
type Session struct {
	Exam      model.Exam
	StudentID int64
	Index     int   // current question, 0-based
	Answers   []int // one slot per question, Unanswered or an option index
	Remaining int   // seconds left, non-increasing once started
	Status    Status
	StartedAt time.Time
	Result    model.Result // valid once Status == StatusSubmitted
}

// New starts a session at the first question with every slot unanswered and
// the full time budget on the clock.
func New(exam model.Exam, studentID int64, duration time.Duration) *Session {
	answers := make([]int, len(exam.Questions))
	for i := range answers {
		answers[i] = Unanswered
	}
	return &Session{
		Exam:      exam,
		StudentID: studentID,
		Answers:   answers,
		Remaining: int(duration / time.Second),
		Status:    StatusInProgress,
		StartedAt: time.Now(),
	}
}

// SelectAnswer records an option for the current question. It does not
// advance the question; repeated calls overwrite the previous selection.
func (s *Session) SelectAnswer(optionIndex int) error {
	if s.Status != StatusInProgress {
		return ErrSubmitted
	}
	if optionIndex < 0 || optionIndex >= len(s.Exam.Questions[s.Index].Options) {
		return ErrOptionOutOfRange
	}
	s.Answers[s.Index] = optionIndex
	return nil
}

// Next advances to the following question. At the last question it is a
// no-op, not an error.
func (s *Session) Next() {
	if s.Status == StatusInProgress && s.Index < len(s.Exam.Questions)-1 {
		s.Index++
	}
}

// Previous moves back one question. At the first question it is a no-op.
func (s *Session) Previous() {
	if s.Status == StatusInProgress && s.Index > 0 {
		s.Index--
	}
}

// Tick consumes one second of the time budget, floored at zero. It reports
// whether the clock just ran out.
func (s *Session) Tick() (expired bool) {
	if s.Status != StatusInProgress || s.Remaining == 0 {
		return false
	}
	s.Remaining--
	return s.Remaining == 0
}

// Submit scores the session and moves it to the terminal state. Submitting
// twice is an error; the first result stands.
func (s *Session) Submit() (model.Result, error) {
	if s.Status != StatusInProgress {
		return model.Result{}, ErrSubmitted
	}
	s.Result = model.Result{
		Score: Score(s.Exam.Questions, s.Answers),
		Total: len(s.Exam.Questions),
	}
	s.Status = StatusSubmitted
	return s.Result, nil
}

// Score counts answers equal to the correct index of the question at the
// same position. Unanswered slots never count. Length mismatch is a
// precondition violation, not a runtime condition.
func Score(questions []model.Question, answers []int) int {
	if len(questions) != len(answers) {
		panic(fmt.Sprintf("score: %d answers for %d questions", len(answers), len(questions)))
	}
	score := 0
	for i, q := range questions {
		if answers[i] == q.CorrectIndex {
			score++
		}
	}
	return score
}
