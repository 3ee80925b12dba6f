package authoring

import (
	"errors"
	"testing"

	"github.com/provalab/provagen/internal/model"
)

func TestNewDraftDefaults(t *testing.T) {
	d := New()
	if d.Step != StepDetails {
		t.Errorf("expected details step, got %s", d.Step)
	}
	want := model.Distribution{Easy: 3, Medium: 4, Hard: 3}
	if d.Distribution != want {
		t.Errorf("expected default distribution %+v, got %+v", want, d.Distribution)
	}
	if d.Distribution.Total() != 10 {
		t.Errorf("expected 10 total questions, got %d", d.Distribution.Total())
	}
}

func TestSetDetails(t *testing.T) {
	d := New()

	if err := d.SetDetails(model.ExamDetails{Name: "", Type: model.ExamTypeDisciplina}); err == nil {
		t.Error("expected error for empty name")
	}
	if err := d.SetDetails(model.ExamDetails{Name: "P1", Type: "Oral"}); err == nil {
		t.Error("expected error for unknown exam type")
	}
	if err := d.SetDetails(model.ExamDetails{Name: "P1", Type: model.ExamTypeENADE, Discipline: "Redes"}); err != nil {
		t.Errorf("SetDetails: %v", err)
	}
}

func TestSetSyllabus(t *testing.T) {
	d := New()

	if err := d.SetSyllabus("conteudo", model.Distribution{Easy: -1, Medium: 2, Hard: 2}); err == nil {
		t.Error("expected error for negative count")
	}
	if err := d.SetSyllabus("conteudo", model.Distribution{}); err == nil {
		t.Error("expected error for zero total")
	}
	if err := d.SetSyllabus("conteudo", model.Distribution{Easy: 1, Medium: 1, Hard: 1}); err != nil {
		t.Errorf("SetSyllabus: %v", err)
	}
}

func TestWorkflowTransitions(t *testing.T) {
	d := New()

	if err := d.Advance(); err != nil {
		t.Fatalf("details -> syllabus: %v", err)
	}
	if d.Step != StepSyllabus {
		t.Fatalf("expected syllabus step, got %s", d.Step)
	}

	// Forward into review is blocked while the syllabus is empty.
	if err := d.Advance(); !errors.Is(err, ErrEmptySyllabus) {
		t.Fatalf("expected ErrEmptySyllabus, got %v", err)
	}
	if d.Step != StepSyllabus {
		t.Fatalf("blocked transition changed step to %s", d.Step)
	}

	if err := d.SetSyllabus("Modelo OSI", model.Distribution{Easy: 2, Medium: 2, Hard: 1}); err != nil {
		t.Fatalf("SetSyllabus: %v", err)
	}
	if err := d.Advance(); err != nil {
		t.Fatalf("syllabus -> review: %v", err)
	}
	if d.Step != StepReview {
		t.Fatalf("expected review step, got %s", d.Step)
	}

	// No step past review.
	if err := d.Advance(); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("expected ErrInvalidTransition past review, got %v", err)
	}

	d.Back()
	if d.Step != StepSyllabus {
		t.Errorf("expected syllabus after back, got %s", d.Step)
	}
	d.Back()
	d.Back() // no-op at the first step
	if d.Step != StepDetails {
		t.Errorf("expected details after repeated back, got %s", d.Step)
	}
}

func TestReadyToGenerate(t *testing.T) {
	d := New()

	// Generation belongs to the review step.
	if err := d.ReadyToGenerate(); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("expected ErrInvalidTransition at details, got %v", err)
	}

	if err := d.SetSyllabus("Modelo OSI", model.Distribution{Easy: 1, Medium: 1, Hard: 1}); err != nil {
		t.Fatalf("SetSyllabus: %v", err)
	}
	if err := d.Advance(); err != nil {
		t.Fatalf("details -> syllabus: %v", err)
	}
	if err := d.ReadyToGenerate(); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("expected ErrInvalidTransition at syllabus, got %v", err)
	}

	if err := d.Advance(); err != nil {
		t.Fatalf("syllabus -> review: %v", err)
	}
	if err := d.ReadyToGenerate(); err != nil {
		t.Errorf("ReadyToGenerate at review: %v", err)
	}

	// A syllabus blanked after entering review blocks regeneration.
	d.Syllabus = "  "
	if err := d.ReadyToGenerate(); !errors.Is(err, ErrEmptySyllabus) {
		t.Errorf("expected ErrEmptySyllabus, got %v", err)
	}
}

func TestReadyToSave(t *testing.T) {
	d := New()
	if err := d.ReadyToSave(); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("expected ErrInvalidTransition off review, got %v", err)
	}

	d.Step = StepReview
	if err := d.ReadyToSave(); !errors.Is(err, ErrNoQuestions) {
		t.Errorf("expected ErrNoQuestions, got %v", err)
	}

	d.SetQuestions([]model.Question{{Stem: "q", Options: []string{"a", "b"}}})
	if err := d.ReadyToSave(); err != nil {
		t.Errorf("ReadyToSave: %v", err)
	}
}

func TestRegenerateReplacesQuestions(t *testing.T) {
	d := New()
	first := []model.Question{{Stem: "old", Options: []string{"a", "b"}}}
	second := []model.Question{
		{Stem: "new 1", Options: []string{"a", "b"}},
		{Stem: "new 2", Options: []string{"a", "b"}},
	}

	d.SetQuestions(first)
	d.SetQuestions(second)
	if len(d.Questions) != 2 || d.Questions[0].Stem != "new 1" {
		t.Errorf("regenerate did not replace question set: %+v", d.Questions)
	}
}
