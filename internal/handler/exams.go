package handler

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/provalab/provagen/internal/model"
	"github.com/provalab/provagen/internal/store"
)

// examSummary is the exam shape served to clients. Students never receive
// answer keys; question content is only exposed through a running session.
type examSummary struct {
	ID           string         `json:"id"`
	Name         string         `json:"name"`
	Type         model.ExamType `json:"type"`
	Discipline   string         `json:"discipline"`
	NumQuestions int            `json:"numQuestions"`
	OwnerID      int64          `json:"ownerId"`
	CreatedAt    string         `json:"createdAt"`
}

func summarize(exams []model.Exam) []examSummary {
	out := make([]examSummary, 0, len(exams))
	for _, e := range exams {
		out = append(out, examSummary{
			ID:           e.ID,
			Name:         e.Name,
			Type:         e.Type,
			Discipline:   e.Discipline,
			NumQuestions: len(e.Questions),
			OwnerID:      e.OwnerID,
			CreatedAt:    e.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
		})
	}
	return out
}

// handleListExams serves a professor their own exams and a student the full
// catalog, answer keys stripped either way.
func (h *Handler) handleListExams(w http.ResponseWriter, r *http.Request) {
	user := model.UserFromContext(r.Context())

	var (
		exams []model.Exam
		err   error
	)
	if user.Role == model.UserRoleProfessor {
		exams, err = h.store.ListExamsByOwner(user.ID)
	} else {
		exams, err = h.store.ListExams()
	}
	if err != nil {
		slog.Error("list exams failed", "user_id", user.ID, "error", err)
		writeError(w, r, http.StatusInternalServerError, "load_failed", "LoadExamsFailed")
		return
	}
	writeJSON(w, http.StatusOK, summarize(exams))
}

// handleWatchExams streams exam-list snapshots over SSE, backed by a store
// subscription that is released when the client disconnects.
func (h *Handler) handleWatchExams(w http.ResponseWriter, r *http.Request) {
	user := model.UserFromContext(r.Context())

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	var (
		sub *store.Subscription
		err error
	)
	if user.Role == model.UserRoleProfessor {
		sub, err = h.store.WatchOwner(user.ID)
	} else {
		sub, err = h.store.Watch()
	}
	if err != nil {
		slog.Error("watch subscribe failed", "user_id", user.ID, "error", err)
		writeError(w, r, http.StatusInternalServerError, "load_failed", "LoadExamsFailed")
		return
	}
	defer sub.Cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	for {
		select {
		case <-r.Context().Done():
			return
		case exams, open := <-sub.C:
			if !open {
				return
			}
			payload, err := json.Marshal(summarize(exams))
			if err != nil {
				slog.Error("marshal watch snapshot", "error", err)
				continue
			}
			fmt.Fprintf(w, "event: exams\ndata: %s\n\n", payload)
			flusher.Flush()
		}
	}
}

// handleExamResults serves the gradebook for one exam to its owner.
func (h *Handler) handleExamResults(w http.ResponseWriter, r *http.Request) {
	user := model.UserFromContext(r.Context())
	examID := chi.URLParam(r, "examID")

	exam, err := h.store.GetExam(examID)
	if err != nil {
		writeError(w, r, http.StatusNotFound, "exam_not_found", "ExamNotFound")
		return
	}
	if exam.OwnerID != user.ID && user.Role != model.UserRoleAdmin {
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}

	export, err := h.store.ExportExamResults(examID)
	if err != nil {
		slog.Error("export results failed", "exam_id", examID, "error", err)
		writeError(w, r, http.StatusInternalServerError, "load_failed", "LoadExamsFailed")
		return
	}
	writeJSON(w, http.StatusOK, export)
}
