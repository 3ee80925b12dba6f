package session

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/provalab/provagen/internal/model"
)

// ErrNotFound is returned for an unknown or already-ended session token.
var ErrNotFound = errors.New("session not found")

// ExpireFunc receives the result of a session the clock submitted.
type ExpireFunc func(s *Session, res model.Result)

// expiredLinger is how many seconds an auto-submitted session stays
// readable so a polling student still sees their result.
const expiredLinger = 60

// Manager owns the active sessions and their shared clock. One background
// goroutine ticks every live session once per second; when a session's time
// runs out it is submitted and handed to the expire callback. The submitted
// session lingers for a short window before it is dropped.
type Manager struct {
	mu       sync.Mutex
	sessions map[string]*Session
	linger   map[string]int // seconds left before an expired session is dropped
	duration time.Duration
	onExpire ExpireFunc
	stop     chan struct{}
	stopOnce sync.Once
}

// NewManager starts the clock goroutine. Close must be called on shutdown.
func NewManager(duration time.Duration, onExpire ExpireFunc) *Manager {
	m := &Manager{
		sessions: make(map[string]*Session),
		linger:   make(map[string]int),
		duration: duration,
		onExpire: onExpire,
		stop:     make(chan struct{}),
	}
	go m.run()
	return m
}

func (m *Manager) run() {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-m.stop:
			return
		case <-ticker.C:
			m.tickAll()
		}
	}
}

func (m *Manager) tickAll() {
	m.mu.Lock()
	var expired []*Session
	for token, s := range m.sessions {
		if s.Status == StatusSubmitted {
			m.linger[token]--
			if m.linger[token] <= 0 {
				delete(m.sessions, token)
				delete(m.linger, token)
			}
			continue
		}
		if s.Tick() {
			if res, err := s.Submit(); err == nil {
				s.Result = res
				expired = append(expired, s)
			}
			m.linger[token] = expiredLinger
		}
	}
	m.mu.Unlock()

	// Callback runs outside the lock; it persists results.
	for _, s := range expired {
		slog.Info("session expired, auto-submitted",
			"exam_id", s.Exam.ID, "student_id", s.StudentID, "score", s.Result.Score)
		if m.onExpire != nil {
			m.onExpire(s, s.Result)
		}
	}
}

// Start creates a session for the exam and returns its token.
func (m *Manager) Start(exam model.Exam, studentID int64) (string, *Session) {
	token := uuid.NewString()
	s := New(exam, studentID, m.duration)
	m.mu.Lock()
	m.sessions[token] = s
	m.mu.Unlock()
	return token, s
}

// Snapshot returns a copy of the session state for display.
func (m *Manager) Snapshot(token string) (Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[token]
	if !ok {
		return Session{}, ErrNotFound
	}
	cp := *s
	cp.Answers = append([]int(nil), s.Answers...)
	return cp, nil
}

// SelectAnswer records an answer on the current question of the session.
func (m *Manager) SelectAnswer(token string, optionIndex int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[token]
	if !ok {
		return ErrNotFound
	}
	return s.SelectAnswer(optionIndex)
}

// Next advances the session's current question.
func (m *Manager) Next(token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[token]
	if !ok {
		return ErrNotFound
	}
	s.Next()
	return nil
}

// Previous moves the session's current question back.
func (m *Manager) Previous(token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[token]
	if !ok {
		return ErrNotFound
	}
	s.Previous()
	return nil
}

// Submit scores the session, removes it from the manager and returns both
// the finished session state and its result.
func (m *Manager) Submit(token string) (Session, model.Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[token]
	if !ok {
		return Session{}, model.Result{}, ErrNotFound
	}
	res, err := s.Submit()
	if err != nil {
		return Session{}, model.Result{}, err
	}
	delete(m.sessions, token)
	delete(m.linger, token)
	return *s, res, nil
}

// Abandon drops a session without scoring it.
func (m *Manager) Abandon(token string) {
	m.mu.Lock()
	delete(m.sessions, token)
	delete(m.linger, token)
	m.mu.Unlock()
}

// Close stops the clock goroutine. Active sessions are discarded.
func (m *Manager) Close() {
	m.stopOnce.Do(func() { close(m.stop) })
}
