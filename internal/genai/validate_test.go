package genai

import (
	"errors"
	"testing"

	"github.com/provalab/provagen/internal/model"
)

func intPtr(i int) *int { return &i }

func validDraft() QuestionDraft {
	return QuestionDraft{
		Stem:         "What does TCP stand for?",
		Options:      []string{"Transmission Control Protocol", "Transfer Check Protocol", "Total Connection Plan", "Typed Channel Pipe"},
		CorrectIndex: intPtr(0),
		Difficulty:   "easy",
		BloomLevel:   "remember",
		Topic:        "networking",
	}
}

func TestValidateQuestionsAccepts(t *testing.T) {
	drafts := []QuestionDraft{validDraft(), validDraft()}
	drafts[1].Difficulty = "Hard" // case-insensitive

	questions, err := ValidateQuestions(drafts)
	if err != nil {
		t.Fatalf("ValidateQuestions: %v", err)
	}
	if len(questions) != 2 {
		t.Fatalf("expected 2 questions, got %d", len(questions))
	}
	if questions[0].CorrectIndex != 0 {
		t.Errorf("correct index not carried over: %d", questions[0].CorrectIndex)
	}
	if questions[1].Difficulty != model.DifficultyHard {
		t.Errorf("difficulty not normalized: %q", questions[1].Difficulty)
	}
}

func TestValidateQuestionsRejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*QuestionDraft)
		field  string
	}{
		{"empty stem", func(d *QuestionDraft) { d.Stem = "  " }, "stem"},
		{"single option", func(d *QuestionDraft) { d.Options = []string{"only"} }, "options"},
		{"blank option", func(d *QuestionDraft) { d.Options[2] = "" }, "options"},
		{"missing correct index", func(d *QuestionDraft) { d.CorrectIndex = nil }, "correct_index"},
		{"negative correct index", func(d *QuestionDraft) { d.CorrectIndex = intPtr(-1) }, "correct_index"},
		{"correct index past options", func(d *QuestionDraft) { d.CorrectIndex = intPtr(4) }, "correct_index"},
		{"unknown difficulty", func(d *QuestionDraft) { d.Difficulty = "brutal" }, "difficulty"},
		{"empty bloom level", func(d *QuestionDraft) { d.BloomLevel = "" }, "bloom_level"},
		{"empty topic", func(d *QuestionDraft) { d.Topic = "" }, "topic"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bad := validDraft()
			tt.mutate(&bad)
			drafts := []QuestionDraft{validDraft(), bad}

			_, err := ValidateQuestions(drafts)
			var schemaErr *SchemaError
			if !errors.As(err, &schemaErr) {
				t.Fatalf("expected SchemaError, got %v", err)
			}
			if schemaErr.Index != 1 {
				t.Errorf("expected index 1, got %d", schemaErr.Index)
			}
			if schemaErr.Field != tt.field {
				t.Errorf("expected field %q, got %q", tt.field, schemaErr.Field)
			}
		})
	}
}

func TestValidateQuestionsStopsAtFirstViolation(t *testing.T) {
	first := validDraft()
	first.Stem = ""
	second := validDraft()
	second.Topic = ""

	_, err := ValidateQuestions([]QuestionDraft{first, second})
	var schemaErr *SchemaError
	if !errors.As(err, &schemaErr) {
		t.Fatalf("expected SchemaError, got %v", err)
	}
	if schemaErr.Index != 0 || schemaErr.Field != "stem" {
		t.Errorf("expected first violation (0, stem), got (%d, %s)", schemaErr.Index, schemaErr.Field)
	}
}
