package genai

import (
	"fmt"
	"strings"

	"github.com/provalab/provagen/internal/model"
)

// QuestionDraft is an unvalidated question as parsed from a generation payload.
type QuestionDraft struct {
	Stem         string   `json:"stem"`
	Options      []string `json:"options"`
	CorrectIndex *int     `json:"correct_index"`
	Difficulty   string   `json:"difficulty"`
	BloomLevel   string   `json:"bloom_level"`
	Topic        string   `json:"topic"`
}

// SchemaError reports the first violation found in a draft sequence.
type SchemaError struct {
	Index  int    // position of the offending item
	Field  string // offending field
	Reason string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("question %d: field %q: %s", e.Index, e.Field, e.Reason)
}

// ValidateQuestions checks the shape of a draft sequence and returns the
// validated questions. It is pure and stops at the first violation.
func ValidateQuestions(drafts []QuestionDraft) ([]model.Question, error) {
	questions := make([]model.Question, 0, len(drafts))
	for i, d := range drafts {
		if strings.TrimSpace(d.Stem) == "" {
			return nil, &SchemaError{Index: i, Field: "stem", Reason: "must be non-empty"}
		}
		if len(d.Options) < 2 {
			return nil, &SchemaError{Index: i, Field: "options", Reason: "must contain at least 2 entries"}
		}
		for j, opt := range d.Options {
			if strings.TrimSpace(opt) == "" {
				return nil, &SchemaError{Index: i, Field: "options", Reason: fmt.Sprintf("entry %d is empty", j)}
			}
		}
		if d.CorrectIndex == nil {
			return nil, &SchemaError{Index: i, Field: "correct_index", Reason: "missing"}
		}
		if *d.CorrectIndex < 0 || *d.CorrectIndex >= len(d.Options) {
			return nil, &SchemaError{
				Index: i, Field: "correct_index",
				Reason: fmt.Sprintf("%d out of range for %d options", *d.CorrectIndex, len(d.Options)),
			}
		}
		difficulty := model.Difficulty(strings.ToLower(strings.TrimSpace(d.Difficulty)))
		if !model.ValidDifficulty(difficulty) {
			return nil, &SchemaError{Index: i, Field: "difficulty", Reason: fmt.Sprintf("unknown tier %q", d.Difficulty)}
		}
		if strings.TrimSpace(d.BloomLevel) == "" {
			return nil, &SchemaError{Index: i, Field: "bloom_level", Reason: "must be non-empty"}
		}
		if strings.TrimSpace(d.Topic) == "" {
			return nil, &SchemaError{Index: i, Field: "topic", Reason: "must be non-empty"}
		}
		questions = append(questions, model.Question{
			Stem:         strings.TrimSpace(d.Stem),
			Options:      d.Options,
			CorrectIndex: *d.CorrectIndex,
			Difficulty:   difficulty,
			BloomLevel:   strings.TrimSpace(d.BloomLevel),
			Topic:        strings.TrimSpace(d.Topic),
		})
	}
	return questions, nil
}
