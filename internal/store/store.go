package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/provalab/provagen/internal/model"

	_ "modernc.org/sqlite"
)

// ErrEmptyQuestionSet rejects saving an exam with no questions.
var ErrEmptyQuestionSet = errors.New("exam has no questions")

// Store is the persistence gateway backed by SQLite. Exams are stored as
// document-shaped records: the question sequence lives in a JSON column.
type Store struct {
	db *sql.DB

	watchers *watchHub
}

func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}
	s := &Store{db: db, watchers: newWatchHub()}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *Store) Close() error {
	s.watchers.closeAll()
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS users (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		username TEXT NOT NULL UNIQUE,
		display_name TEXT NOT NULL,
		password_hash TEXT NOT NULL,
		role TEXT NOT NULL,
		active BOOLEAN NOT NULL DEFAULT 1,
		created_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS auth_sessions (
		id TEXT PRIMARY KEY,
		user_id INTEGER NOT NULL,
		created_at DATETIME NOT NULL,
		expires_at DATETIME NOT NULL,
		FOREIGN KEY (user_id) REFERENCES users(id)
	);

	CREATE TABLE IF NOT EXISTS profiles (
		user_id INTEGER PRIMARY KEY,
		name TEXT NOT NULL,
		role TEXT NOT NULL,
		avatar_url TEXT NOT NULL DEFAULT '',
		FOREIGN KEY (user_id) REFERENCES users(id)
	);

	CREATE TABLE IF NOT EXISTS exams (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		type TEXT NOT NULL,
		discipline TEXT NOT NULL,
		questions TEXT NOT NULL,
		owner_id INTEGER NOT NULL,
		created_at DATETIME NOT NULL,
		FOREIGN KEY (owner_id) REFERENCES users(id)
	);

	CREATE TABLE IF NOT EXISTS attempts (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		exam_id TEXT NOT NULL,
		student_id INTEGER NOT NULL,
		score INTEGER NOT NULL,
		total INTEGER NOT NULL,
		answers TEXT NOT NULL,
		started_at DATETIME NOT NULL,
		submitted_at DATETIME NOT NULL,
		FOREIGN KEY (exam_id) REFERENCES exams(id),
		FOREIGN KEY (student_id) REFERENCES users(id)
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// CreateExam stores a new immutable exam record with a server-assigned ID
// and creation timestamp, then notifies watchers.
func (s *Store) CreateExam(details model.ExamDetails, questions []model.Question, ownerID int64) (model.Exam, error) {
	if len(questions) == 0 {
		return model.Exam{}, ErrEmptyQuestionSet
	}
	blob, err := json.Marshal(questions)
	if err != nil {
		return model.Exam{}, fmt.Errorf("marshal questions: %w", err)
	}

	exam := model.Exam{
		ID:         uuid.NewString(),
		Name:       details.Name,
		Type:       details.Type,
		Discipline: details.Discipline,
		Questions:  questions,
		OwnerID:    ownerID,
		CreatedAt:  time.Now(),
	}
	_, err = s.db.Exec(
		`INSERT INTO exams (id, name, type, discipline, questions, owner_id, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		exam.ID, exam.Name, exam.Type, exam.Discipline, string(blob), exam.OwnerID, exam.CreatedAt,
	)
	if err != nil {
		return model.Exam{}, err
	}

	s.notifyWatchers()
	return exam, nil
}

const examColumns = `id, name, type, discipline, questions, owner_id, created_at`

func scanExam(row interface{ Scan(...any) error }) (model.Exam, error) {
	var e model.Exam
	var blob string
	if err := row.Scan(&e.ID, &e.Name, &e.Type, &e.Discipline, &blob, &e.OwnerID, &e.CreatedAt); err != nil {
		return model.Exam{}, err
	}
	if err := json.Unmarshal([]byte(blob), &e.Questions); err != nil {
		return model.Exam{}, fmt.Errorf("unmarshal questions for exam %s: %w", e.ID, err)
	}
	return e, nil
}

// GetExam returns an exam by ID.
func (s *Store) GetExam(id string) (model.Exam, error) {
	row := s.db.QueryRow(`SELECT `+examColumns+` FROM exams WHERE id = ?`, id)
	return scanExam(row)
}

// ListExams returns all exams, newest first.
func (s *Store) ListExams() ([]model.Exam, error) {
	return s.listExams(`SELECT ` + examColumns + ` FROM exams ORDER BY created_at DESC`)
}

// ListExamsByOwner returns the exams created by one professor, newest first.
func (s *Store) ListExamsByOwner(ownerID int64) ([]model.Exam, error) {
	return s.listExams(`SELECT `+examColumns+` FROM exams WHERE owner_id = ? ORDER BY created_at DESC`, ownerID)
}

func (s *Store) listExams(query string, args ...any) ([]model.Exam, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var exams []model.Exam
	for rows.Next() {
		e, err := scanExam(rows)
		if err != nil {
			return nil, err
		}
		exams = append(exams, e)
	}
	return exams, rows.Err()
}

// ExamCount returns the number of stored exams.
func (s *Store) ExamCount() (int, error) {
	var count int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM exams`).Scan(&count)
	return count, err
}
