package model

import "testing"

func TestResultPercentage(t *testing.T) {
	tests := []struct {
		score, total int
		percentage   int
		approved     bool
	}{
		{0, 10, 0, false},
		{5, 10, 50, false},
		{6, 10, 60, true},
		{10, 10, 100, true},
		{2, 3, 67, true},  // 66.67 rounds up
		{1, 3, 33, false}, // 33.33 rounds down
		{0, 0, 0, false},  // empty exam never divides by zero
	}
	for _, tt := range tests {
		r := Result{Score: tt.score, Total: tt.total}
		if got := r.Percentage(); got != tt.percentage {
			t.Errorf("Percentage(%d/%d) = %d, want %d", tt.score, tt.total, got, tt.percentage)
		}
		if got := r.IsApproved(); got != tt.approved {
			t.Errorf("IsApproved(%d/%d) = %v, want %v", tt.score, tt.total, got, tt.approved)
		}
	}
}

func TestValidDifficulty(t *testing.T) {
	for _, d := range []Difficulty{DifficultyEasy, DifficultyMedium, DifficultyHard} {
		if !ValidDifficulty(d) {
			t.Errorf("%q should be valid", d)
		}
	}
	for _, d := range []Difficulty{"", "Easy", "brutal"} {
		if ValidDifficulty(d) {
			t.Errorf("%q should be invalid", d)
		}
	}
}

func TestValidExamType(t *testing.T) {
	for _, ty := range []ExamType{ExamTypeDisciplina, ExamTypeIntegradora, ExamTypeENADE} {
		if !ValidExamType(ty) {
			t.Errorf("%q should be valid", ty)
		}
	}
	if ValidExamType("Oral") {
		t.Error("unknown type accepted")
	}
}

func TestDistributionTotal(t *testing.T) {
	d := Distribution{Easy: 3, Medium: 4, Hard: 3}
	if d.Total() != 10 {
		t.Errorf("expected 10, got %d", d.Total())
	}
	if (Distribution{}).Total() != 0 {
		t.Error("zero distribution should total 0")
	}
}
