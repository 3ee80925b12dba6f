package store

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/provalab/provagen/internal/model"
)

// SaveAttempt records a completed attempt. The live session is never stored;
// only its outcome is.
func (s *Store) SaveAttempt(a model.AttemptRecord) (int64, error) {
	blob, err := json.Marshal(a.Answers)
	if err != nil {
		return 0, fmt.Errorf("marshal answers: %w", err)
	}
	res, err := s.db.Exec(
		`INSERT INTO attempts (exam_id, student_id, score, total, answers, started_at, submitted_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		a.ExamID, a.StudentID, a.Score, a.Total, string(blob), a.StartedAt, time.Now(),
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// ListAttemptsByExam returns the recorded attempts for one exam, newest first.
func (s *Store) ListAttemptsByExam(examID string) ([]model.AttemptRecord, error) {
	rows, err := s.db.Query(
		`SELECT id, exam_id, student_id, score, total, answers, started_at, submitted_at
		 FROM attempts WHERE exam_id = ? ORDER BY submitted_at DESC`, examID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var attempts []model.AttemptRecord
	for rows.Next() {
		var a model.AttemptRecord
		var blob string
		if err := rows.Scan(&a.ID, &a.ExamID, &a.StudentID, &a.Score, &a.Total, &blob, &a.StartedAt, &a.SubmittedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(blob), &a.Answers); err != nil {
			return nil, fmt.Errorf("unmarshal answers for attempt %d: %w", a.ID, err)
		}
		attempts = append(attempts, a)
	}
	return attempts, rows.Err()
}

// ExportExamResults builds the export-ready gradebook for one exam.
func (s *Store) ExportExamResults(examID string) (model.ResultsExport, error) {
	exam, err := s.GetExam(examID)
	if err != nil {
		return model.ResultsExport{}, fmt.Errorf("get exam %s: %w", examID, err)
	}
	attempts, err := s.ListAttemptsByExam(examID)
	if err != nil {
		return model.ResultsExport{}, fmt.Errorf("list attempts: %w", err)
	}

	export := model.ResultsExport{
		ExamID:       exam.ID,
		Name:         exam.Name,
		Type:         exam.Type,
		Discipline:   exam.Discipline,
		NumQuestions: len(exam.Questions),
	}
	for _, a := range attempts {
		user, err := s.GetUserByID(a.StudentID)
		if err != nil {
			return model.ResultsExport{}, fmt.Errorf("get user %d: %w", a.StudentID, err)
		}
		var username, displayName string
		if user != nil {
			username = user.Username
			displayName = user.DisplayName
		}
		res := model.Result{Score: a.Score, Total: a.Total}
		export.Attempts = append(export.Attempts, model.AttemptExport{
			Username:    username,
			DisplayName: displayName,
			Score:       a.Score,
			Total:       a.Total,
			Percentage:  res.Percentage(),
			Approved:    res.IsApproved(),
			Answers:     a.Answers,
			StartedAt:   a.StartedAt,
			SubmittedAt: a.SubmittedAt,
		})
	}
	return export, nil
}
