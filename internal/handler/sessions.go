package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/provalab/provagen/internal/model"
	"github.com/provalab/provagen/internal/session"
)

// sessionQuestion is a question as shown to the student: no correct index.
type sessionQuestion struct {
	Stem    string   `json:"stem"`
	Options []string `json:"options"`
}

type sessionView struct {
	Token         string          `json:"token"`
	ExamID        string          `json:"examId"`
	ExamName      string          `json:"examName"`
	Discipline    string          `json:"discipline"`
	Index         int             `json:"questionIndex"`
	Total         int             `json:"totalQuestions"`
	Question      sessionQuestion `json:"question"`
	Answers       []int           `json:"answers"`
	TimeRemaining int             `json:"timeRemaining"`
}

func viewSession(token string, s session.Session) sessionView {
	q := s.Exam.Questions[s.Index]
	return sessionView{
		Token:         token,
		ExamID:        s.Exam.ID,
		ExamName:      s.Exam.Name,
		Discipline:    s.Exam.Discipline,
		Index:         s.Index,
		Total:         len(s.Exam.Questions),
		Question:      sessionQuestion{Stem: q.Stem, Options: q.Options},
		Answers:       s.Answers,
		TimeRemaining: s.Remaining,
	}
}

func (h *Handler) handleStartSession(w http.ResponseWriter, r *http.Request) {
	user := model.UserFromContext(r.Context())
	examID := chi.URLParam(r, "examID")

	exam, err := h.store.GetExam(examID)
	if err != nil {
		writeError(w, r, http.StatusNotFound, "exam_not_found", "ExamNotFound")
		return
	}

	token, s := h.sessions.Start(exam, user.ID)
	slog.Info("session started", "exam_id", exam.ID, "student_id", user.ID)
	writeJSON(w, http.StatusCreated, viewSession(token, *s))
}

// ownSession fetches the session and checks it belongs to the caller.
func (h *Handler) ownSession(w http.ResponseWriter, r *http.Request) (string, session.Session, bool) {
	user := model.UserFromContext(r.Context())
	token := chi.URLParam(r, "token")
	s, err := h.sessions.Snapshot(token)
	if err != nil || s.StudentID != user.ID {
		writeError(w, r, http.StatusNotFound, "session_not_found", "SessionNotFound")
		return "", session.Session{}, false
	}
	return token, s, true
}

func (h *Handler) handleGetSession(w http.ResponseWriter, r *http.Request) {
	token, s, ok := h.ownSession(w, r)
	if !ok {
		return
	}
	// A session the clock submitted lingers briefly so the student still
	// sees their result instead of a bare not-found.
	if s.Status == session.StatusSubmitted {
		writeJSON(w, http.StatusOK, map[string]any{
			"expired":    true,
			"score":      s.Result.Score,
			"total":      s.Result.Total,
			"percentage": s.Result.Percentage(),
			"isApproved": s.Result.IsApproved(),
			"examName":   s.Exam.Name,
		})
		return
	}
	writeJSON(w, http.StatusOK, viewSession(token, s))
}

func (h *Handler) handleAnswer(w http.ResponseWriter, r *http.Request) {
	var req struct {
		OptionIndex int `json:"optionIndex"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	token, _, ok := h.ownSession(w, r)
	if !ok {
		return
	}

	if err := h.sessions.SelectAnswer(token, req.OptionIndex); err != nil {
		switch {
		case errors.Is(err, session.ErrSubmitted):
			writeError(w, r, http.StatusConflict, "already_submitted", "SessionSubmitted")
		case errors.Is(err, session.ErrOptionOutOfRange):
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "bad_option", "message": err.Error()})
		default:
			writeError(w, r, http.StatusNotFound, "session_not_found", "SessionNotFound")
		}
		return
	}
	h.respondSession(w, r, token)
}

func (h *Handler) handleNext(w http.ResponseWriter, r *http.Request) {
	token, _, ok := h.ownSession(w, r)
	if !ok {
		return
	}
	if err := h.sessions.Next(token); err != nil {
		writeError(w, r, http.StatusNotFound, "session_not_found", "SessionNotFound")
		return
	}
	h.respondSession(w, r, token)
}

func (h *Handler) handlePrevious(w http.ResponseWriter, r *http.Request) {
	token, _, ok := h.ownSession(w, r)
	if !ok {
		return
	}
	if err := h.sessions.Previous(token); err != nil {
		writeError(w, r, http.StatusNotFound, "session_not_found", "SessionNotFound")
		return
	}
	h.respondSession(w, r, token)
}

func (h *Handler) respondSession(w http.ResponseWriter, r *http.Request, token string) {
	s, err := h.sessions.Snapshot(token)
	if err != nil {
		writeError(w, r, http.StatusNotFound, "session_not_found", "SessionNotFound")
		return
	}
	writeJSON(w, http.StatusOK, viewSession(token, s))
}

func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	token, _, ok := h.ownSession(w, r)
	if !ok {
		return
	}

	finished, res, err := h.sessions.Submit(token)
	if err != nil {
		if errors.Is(err, session.ErrSubmitted) {
			writeError(w, r, http.StatusConflict, "already_submitted", "SessionSubmitted")
			return
		}
		writeError(w, r, http.StatusNotFound, "session_not_found", "SessionNotFound")
		return
	}

	if _, err := h.store.SaveAttempt(model.AttemptRecord{
		ExamID:    finished.Exam.ID,
		StudentID: finished.StudentID,
		Score:     res.Score,
		Total:     res.Total,
		Answers:   finished.Answers,
		StartedAt: finished.StartedAt,
	}); err != nil {
		// The student still gets their result; only the gradebook entry is lost.
		slog.Error("save attempt failed", "exam_id", finished.Exam.ID, "student_id", finished.StudentID, "error", err)
	}

	slog.Info("session submitted",
		"exam_id", finished.Exam.ID, "student_id", finished.StudentID,
		"score", res.Score, "total", res.Total)
	writeJSON(w, http.StatusOK, map[string]any{
		"score":      res.Score,
		"total":      res.Total,
		"percentage": res.Percentage(),
		"isApproved": res.IsApproved(),
		"examName":   finished.Exam.Name,
	})
}

func (h *Handler) handleAbandon(w http.ResponseWriter, r *http.Request) {
	token, _, ok := h.ownSession(w, r)
	if !ok {
		return
	}
	h.sessions.Abandon(token)
	w.WriteHeader(http.StatusNoContent)
}
