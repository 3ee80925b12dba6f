package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"

	"github.com/provalab/provagen/internal/authoring"
	"github.com/provalab/provagen/internal/genai"
	appI18n "github.com/provalab/provagen/internal/i18n"
	"github.com/provalab/provagen/internal/model"
	"github.com/provalab/provagen/internal/session"
	"github.com/provalab/provagen/internal/store"
)

// Generator is the external question-generation collaborator.
type Generator interface {
	Generate(ctx context.Context, req genai.Request) ([]model.Question, error)
}

// Handler holds shared dependencies for HTTP handlers.
type Handler struct {
	store    *store.Store
	gen      Generator
	sessions *session.Manager
	config   model.Config

	mu     sync.Mutex
	drafts map[int64]*draftState // one authoring draft per professor
}

type draftState struct {
	draft *authoring.Draft
	busy  bool // a generation call is in flight
}

// New creates a new Handler.
func New(s *store.Store, gen Generator, sessions *session.Manager, cfg model.Config) *Handler {
	return &Handler{
		store:    s,
		gen:      gen,
		sessions: sessions,
		config:   cfg,
		drafts:   make(map[int64]*draftState),
	}
}

// Routes registers all HTTP routes.
func (h *Handler) Routes(r chi.Router) {
	r.Post("/api/login", h.handleLogin)

	r.Group(func(r chi.Router) {
		r.Use(h.requireAuth)

		r.Post("/api/logout", h.handleLogout)
		r.Get("/api/me", h.handleMe)

		r.Get("/api/exams", h.handleListExams)
		r.Get("/api/exams/watch", h.handleWatchExams)

		r.Group(func(r chi.Router) {
			r.Use(requireRole(model.UserRoleProfessor, model.UserRoleAdmin))
			r.Post("/api/authoring/draft", h.handleStartDraft)
			r.Get("/api/authoring/draft", h.handleGetDraft)
			r.Post("/api/authoring/details", h.handleDraftDetails)
			r.Post("/api/authoring/syllabus", h.handleDraftSyllabus)
			r.Post("/api/authoring/advance", h.handleDraftAdvance)
			r.Post("/api/authoring/back", h.handleDraftBack)
			r.Post("/api/authoring/generate", h.handleGenerate)
			r.Post("/api/exams", h.handleSaveExam)
			r.Get("/api/exams/{examID}/results", h.handleExamResults)
		})

		r.Group(func(r chi.Router) {
			r.Use(requireRole(model.UserRoleStudent, model.UserRoleAdmin))
			r.Post("/api/exams/{examID}/start", h.handleStartSession)
			r.Get("/api/sessions/{token}", h.handleGetSession)
			r.Post("/api/sessions/{token}/answer", h.handleAnswer)
			r.Post("/api/sessions/{token}/next", h.handleNext)
			r.Post("/api/sessions/{token}/previous", h.handlePrevious)
			r.Post("/api/sessions/{token}/submit", h.handleSubmit)
			r.Delete("/api/sessions/{token}", h.handleAbandon)
		})
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encode response", "error", err)
	}
}

// writeError sends the error envelope every failure shares: a stable code
// for the client and a localized human-readable message.
func writeError(w http.ResponseWriter, r *http.Request, status int, code, msgID string) {
	writeJSON(w, status, map[string]string{
		"error":   code,
		"message": appI18n.T(r.Context(), msgID),
	})
}

func writeErrorData(w http.ResponseWriter, r *http.Request, status int, code, msgID string, data map[string]any) {
	writeJSON(w, status, map[string]string{
		"error":   code,
		"message": appI18n.Td(r.Context(), msgID, data),
	})
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error":   "bad_request",
			"message": "invalid JSON body",
		})
		return false
	}
	return true
}
