package model

import (
	"context"
	"time"
)

// UserRole represents a user's access level.
type UserRole string

const (
	// UserRoleProfessor can author exams and see results.
	UserRoleProfessor UserRole = "professor"
	// UserRoleStudent can take exams.
	UserRoleStudent UserRole = "student"
	// UserRoleAdmin manages accounts.
	UserRoleAdmin UserRole = "admin"
)

// User represents a system account.
type User struct {
	ID           int64
	Username     string
	DisplayName  string
	PasswordHash string
	Role         UserRole
	Active       bool
	CreatedAt    time.Time
}

// Profile holds the public profile record created lazily on first login.
type Profile struct {
	Name      string `json:"name"`
	Role      string `json:"role"`
	AvatarURL string `json:"avatarUrl"`
}

// AuthSession represents an authentication session.
type AuthSession struct {
	ID        string
	UserID    int64
	CreatedAt time.Time
	ExpiresAt time.Time
}

type userCtxKey struct{}

// ContextWithUser stores a user in the request context.
func ContextWithUser(ctx context.Context, u *User) context.Context {
	return context.WithValue(ctx, userCtxKey{}, u)
}

// UserFromContext retrieves the authenticated user from context, or nil.
func UserFromContext(ctx context.Context) *User {
	u, _ := ctx.Value(userCtxKey{}).(*User)
	return u
}

// Difficulty represents question difficulty level.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// ValidDifficulty reports whether d is one of the known tiers.
func ValidDifficulty(d Difficulty) bool {
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return true
	}
	return false
}

// ExamType classifies an exam.
type ExamType string

const (
	ExamTypeDisciplina  ExamType = "Disciplina"
	ExamTypeIntegradora ExamType = "Integradora"
	ExamTypeENADE       ExamType = "ENADE"
)

// ValidExamType reports whether t is a known exam type.
func ValidExamType(t ExamType) bool {
	switch t {
	case ExamTypeDisciplina, ExamTypeIntegradora, ExamTypeENADE:
		return true
	}
	return false
}

// Question is a validated multiple-choice question.
// CorrectIndex is always a valid index into Options.
type Question struct {
	Stem         string     `json:"stem"`
	Options      []string   `json:"options"`
	CorrectIndex int        `json:"correct_index"`
	Difficulty   Difficulty `json:"difficulty"`
	BloomLevel   string     `json:"bloom_level"`
	Topic        string     `json:"topic"`
}

// Exam is an immutable exam record. Question order is exam order.
type Exam struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	Type       ExamType   `json:"type"`
	Discipline string     `json:"discipline"`
	Questions  []Question `json:"questions"`
	OwnerID    int64      `json:"ownerId"`
	CreatedAt  time.Time  `json:"createdAt"`
}

// ExamDetails are the professor-supplied parameters for a new exam.
type ExamDetails struct {
	Name       string   `json:"name"`
	Type       ExamType `json:"type"`
	Discipline string   `json:"discipline"`
}

// Distribution requests a question count per difficulty tier.
type Distribution struct {
	Easy   int `json:"easy"`
	Medium int `json:"medium"`
	Hard   int `json:"hard"`
}

// Total is the required length of the generated question sequence.
func (d Distribution) Total() int {
	return d.Easy + d.Medium + d.Hard
}

// PassThreshold is the minimum percentage for approval.
const PassThreshold = 60

// Result is the outcome of a submitted exam session.
type Result struct {
	Score int `json:"score"`
	Total int `json:"total"`
}

// Percentage is the rounded score percentage.
func (r Result) Percentage() int {
	if r.Total == 0 {
		return 0
	}
	return int(float64(r.Score)/float64(r.Total)*100 + 0.5)
}

// IsApproved reports whether the result meets the pass threshold.
func (r Result) IsApproved() bool {
	return r.Percentage() >= PassThreshold
}

// AttemptRecord is a persisted completed attempt.
type AttemptRecord struct {
	ID          int64     `json:"id"`
	ExamID      string    `json:"exam_id"`
	StudentID   int64     `json:"student_id"`
	Score       int       `json:"score"`
	Total       int       `json:"total"`
	Answers     []int     `json:"answers"`
	StartedAt   time.Time `json:"started_at"`
	SubmittedAt time.Time `json:"submitted_at"`
}

// Config holds runtime parameters set via CLI flags.
type Config struct {
	ExamDuration  time.Duration // time allowed per exam session
	LLMTimeout    time.Duration // deadline for a single generation call
	Lang          string        // prompt and message language (en, pt)
	SecureCookies bool          // Set Secure flag on cookies (disable for local dev)
	CORSOrigin    string        // allowed browser origin
}
