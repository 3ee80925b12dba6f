// Package authoring implements the professor-facing exam authoring workflow
// as an explicit state machine, independent of any rendering mechanism.
package authoring

import (
	"errors"
	"strings"

	"github.com/provalab/provagen/internal/model"
)

// Step is a stage of the authoring workflow.
type Step int

const (
	// StepDetails collects name, type and discipline.
	StepDetails Step = iota
	// StepSyllabus collects the syllabus text and the difficulty distribution.
	StepSyllabus
	// StepReview shows generated questions for regenerate-or-save.
	StepReview
)

func (s Step) String() string {
	switch s {
	case StepDetails:
		return "details"
	case StepSyllabus:
		return "syllabus"
	case StepReview:
		return "review"
	}
	return "unknown"
}

var (
	// ErrEmptySyllabus blocks the forward transition into review.
	ErrEmptySyllabus = errors.New("syllabus text is empty")
	// ErrInvalidTransition is returned for a step change the workflow does not allow.
	ErrInvalidTransition = errors.New("invalid workflow transition")
	// ErrNoQuestions means review was entered without a generated question set.
	ErrNoQuestions = errors.New("no generated questions")
)

// Draft is one in-progress authoring workflow. Methods mutate the draft;
// none of them perform I/O.
type Draft struct {
	Step         Step
	Details      model.ExamDetails
	Syllabus     string
	Distribution model.Distribution
	Questions    []model.Question
}

// New starts a draft at the details step with the default distribution.
func New() *Draft {
	return &Draft{
		Step:         StepDetails,
		Distribution: model.Distribution{Easy: 3, Medium: 4, Hard: 3},
	}
}

// SetDetails records the exam parameters. Valid at any step.
func (d *Draft) SetDetails(details model.ExamDetails) error {
	if strings.TrimSpace(details.Name) == "" {
		return errors.New("exam name is required")
	}
	if !model.ValidExamType(details.Type) {
		return errors.New("unknown exam type")
	}
	d.Details = details
	return nil
}

// SetSyllabus records the syllabus text and requested distribution.
func (d *Draft) SetSyllabus(syllabus string, dist model.Distribution) error {
	if dist.Easy < 0 || dist.Medium < 0 || dist.Hard < 0 {
		return errors.New("distribution counts must be non-negative")
	}
	if dist.Total() == 0 {
		return errors.New("distribution requests zero questions")
	}
	d.Syllabus = syllabus
	d.Distribution = dist
	return nil
}

// Advance moves the workflow forward one step. The transition into review is
// blocked while the syllabus is empty; entering review is what triggers
// generation at the caller.
func (d *Draft) Advance() error {
	switch d.Step {
	case StepDetails:
		d.Step = StepSyllabus
		return nil
	case StepSyllabus:
		if strings.TrimSpace(d.Syllabus) == "" {
			return ErrEmptySyllabus
		}
		d.Step = StepReview
		return nil
	default:
		return ErrInvalidTransition
	}
}

// Back moves the workflow backward one step with no side effect. Calling it
// at the first step is a no-op.
func (d *Draft) Back() {
	if d.Step > StepDetails {
		d.Step--
	}
}

// SetQuestions replaces the current question set (initial generation or
// regenerate).
func (d *Draft) SetQuestions(questions []model.Question) {
	d.Questions = questions
}

// ReadyToGenerate reports whether the draft may invoke the generator.
// Generation belongs to the review step; the syllabus and distribution
// checks are repeated here because SetSyllabus accepts later edits.
func (d *Draft) ReadyToGenerate() error {
	if d.Step != StepReview {
		return ErrInvalidTransition
	}
	if strings.TrimSpace(d.Syllabus) == "" {
		return ErrEmptySyllabus
	}
	if d.Distribution.Total() == 0 {
		return errors.New("distribution requests zero questions")
	}
	return nil
}

// GenerationRequest composes the generation parameters for the current draft.
func (d *Draft) GenerationRequest() (model.ExamDetails, string, model.Distribution) {
	return d.Details, d.Syllabus, d.Distribution
}

// ReadyToSave reports whether the draft can be persisted as an exam.
func (d *Draft) ReadyToSave() error {
	if d.Step != StepReview {
		return ErrInvalidTransition
	}
	if len(d.Questions) == 0 {
		return ErrNoQuestions
	}
	return nil
}
