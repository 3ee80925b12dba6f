package session

import (
	"testing"
	"time"

	"github.com/provalab/provagen/internal/model"
)

func TestManagerLifecycle(t *testing.T) {
	m := NewManager(50*time.Minute, nil)
	defer m.Close()

	exam := testExam(3)
	token, _ := m.Start(exam, 7)
	if token == "" {
		t.Fatal("empty session token")
	}

	s, err := m.Snapshot(token)
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if s.StudentID != 7 || s.Exam.ID != exam.ID {
		t.Errorf("unexpected session: %+v", s)
	}

	if err := m.SelectAnswer(token, 2); err != nil {
		t.Fatalf("SelectAnswer: %v", err)
	}
	if err := m.Next(token); err != nil {
		t.Fatalf("Next: %v", err)
	}

	s, err = m.Snapshot(token)
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if s.Answers[0] != 2 || s.Index != 1 {
		t.Errorf("state not applied: answers=%v index=%d", s.Answers, s.Index)
	}

	finished, res, err := m.Submit(token)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if res.Total != 3 {
		t.Errorf("expected total 3, got %d", res.Total)
	}
	if finished.StudentID != 7 {
		t.Errorf("finished session lost student: %+v", finished)
	}

	// Submit removes the session.
	if _, err := m.Snapshot(token); err != ErrNotFound {
		t.Errorf("expected ErrNotFound after submit, got %v", err)
	}
}

func TestManagerSnapshotIsACopy(t *testing.T) {
	m := NewManager(time.Hour, nil)
	defer m.Close()

	token, _ := m.Start(testExam(2), 1)
	s, err := m.Snapshot(token)
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	s.Answers[0] = 3

	again, err := m.Snapshot(token)
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if again.Answers[0] != Unanswered {
		t.Error("snapshot shares the answer slice with the live session")
	}
}

func TestManagerExpiryAutoSubmits(t *testing.T) {
	expired := make(chan model.Result, 1)
	m := NewManager(2*time.Second, func(s *Session, res model.Result) {
		expired <- res
	})
	defer m.Close()

	exam := testExam(2)
	token, _ := m.Start(exam, 5)
	if err := m.SelectAnswer(token, exam.Questions[0].CorrectIndex); err != nil {
		t.Fatalf("SelectAnswer: %v", err)
	}

	// Drive the clock directly instead of waiting for the ticker.
	m.tickAll()
	m.tickAll()

	select {
	case res := <-expired:
		if res.Score != 1 || res.Total != 2 {
			t.Errorf("expected 1/2 on expiry, got %d/%d", res.Score, res.Total)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("expire callback never fired")
	}

	// The submitted session lingers so a polling student sees the result.
	s, err := m.Snapshot(token)
	if err != nil {
		t.Fatalf("Snapshot after expiry: %v", err)
	}
	if s.Status != StatusSubmitted {
		t.Errorf("expected submitted status, got %q", s.Status)
	}
	if s.Result.Score != 1 || s.Result.Total != 2 {
		t.Errorf("result not readable after expiry: %+v", s.Result)
	}

	// After the linger window the session is dropped.
	for i := 0; i < expiredLinger; i++ {
		m.tickAll()
	}
	if _, err := m.Snapshot(token); err != ErrNotFound {
		t.Errorf("expected ErrNotFound after linger, got %v", err)
	}
}

func TestManagerAbandon(t *testing.T) {
	m := NewManager(time.Hour, nil)
	defer m.Close()

	token, _ := m.Start(testExam(1), 1)
	m.Abandon(token)
	if _, err := m.Snapshot(token); err != ErrNotFound {
		t.Errorf("expected ErrNotFound after abandon, got %v", err)
	}
	if _, _, err := m.Submit(token); err != ErrNotFound {
		t.Errorf("expected ErrNotFound on submit after abandon, got %v", err)
	}
}
