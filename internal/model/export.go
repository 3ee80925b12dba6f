package model

import "time"

// ResultsExport is the top-level JSON structure for gradebook export.
type ResultsExport struct {
	ExamID       string          `json:"exam_id"`
	Name         string          `json:"name"`
	Type         ExamType        `json:"type"`
	Discipline   string          `json:"discipline"`
	NumQuestions int             `json:"num_questions"`
	Attempts     []AttemptExport `json:"attempts"`
}

// AttemptExport holds one student's attempt for export.
type AttemptExport struct {
	Username    string    `json:"username"`
	DisplayName string    `json:"display_name"`
	Score       int       `json:"score"`
	Total       int       `json:"total"`
	Percentage  int       `json:"percentage"`
	Approved    bool      `json:"approved"`
	Answers     []int     `json:"answers"`
	StartedAt   time.Time `json:"started_at"`
	SubmittedAt time.Time `json:"submitted_at"`
}
