package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/provalab/provagen/internal/authoring"
	"github.com/provalab/provagen/internal/genai"
	appI18n "github.com/provalab/provagen/internal/i18n"
	"github.com/provalab/provagen/internal/model"
	"github.com/provalab/provagen/internal/store"
)

// draftFor returns the caller's draft state, creating it on demand.
func (h *Handler) draftFor(userID int64) *draftState {
	h.mu.Lock()
	defer h.mu.Unlock()
	ds, ok := h.drafts[userID]
	if !ok {
		ds = &draftState{draft: authoring.New()}
		h.drafts[userID] = ds
	}
	return ds
}

type draftView struct {
	Step         string             `json:"step"`
	Details      model.ExamDetails  `json:"details"`
	Syllabus     string             `json:"syllabus"`
	Distribution model.Distribution `json:"distribution"`
	Total        int                `json:"totalQuestions"`
	Questions    []model.Question   `json:"questions"`
	Busy         bool               `json:"busy"`
}

func viewOf(ds *draftState) draftView {
	d := ds.draft
	return draftView{
		Step:         d.Step.String(),
		Details:      d.Details,
		Syllabus:     d.Syllabus,
		Distribution: d.Distribution,
		Total:        d.Distribution.Total(),
		Questions:    d.Questions,
		Busy:         ds.busy,
	}
}

func (h *Handler) handleStartDraft(w http.ResponseWriter, r *http.Request) {
	user := model.UserFromContext(r.Context())
	h.mu.Lock()
	h.drafts[user.ID] = &draftState{draft: authoring.New()}
	ds := h.drafts[user.ID]
	view := viewOf(ds)
	h.mu.Unlock()
	writeJSON(w, http.StatusCreated, view)
}

func (h *Handler) handleGetDraft(w http.ResponseWriter, r *http.Request) {
	user := model.UserFromContext(r.Context())
	ds := h.draftFor(user.ID)
	h.mu.Lock()
	view := viewOf(ds)
	h.mu.Unlock()
	writeJSON(w, http.StatusOK, view)
}

func (h *Handler) handleDraftDetails(w http.ResponseWriter, r *http.Request) {
	var details model.ExamDetails
	if !decodeBody(w, r, &details) {
		return
	}
	user := model.UserFromContext(r.Context())
	ds := h.draftFor(user.ID)

	h.mu.Lock()
	err := ds.draft.SetDetails(details)
	view := viewOf(ds)
	h.mu.Unlock()
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid_details", "message": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *Handler) handleDraftSyllabus(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Syllabus     string             `json:"syllabus"`
		Distribution model.Distribution `json:"distribution"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	user := model.UserFromContext(r.Context())
	ds := h.draftFor(user.ID)

	h.mu.Lock()
	err := ds.draft.SetSyllabus(req.Syllabus, req.Distribution)
	view := viewOf(ds)
	h.mu.Unlock()
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid_syllabus", "message": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *Handler) handleDraftAdvance(w http.ResponseWriter, r *http.Request) {
	user := model.UserFromContext(r.Context())
	ds := h.draftFor(user.ID)

	h.mu.Lock()
	err := ds.draft.Advance()
	view := viewOf(ds)
	h.mu.Unlock()
	if err != nil {
		writeJSON(w, http.StatusConflict, map[string]string{"error": "invalid_transition", "message": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *Handler) handleDraftBack(w http.ResponseWriter, r *http.Request) {
	user := model.UserFromContext(r.Context())
	ds := h.draftFor(user.ID)

	h.mu.Lock()
	ds.draft.Back()
	view := viewOf(ds)
	h.mu.Unlock()
	writeJSON(w, http.StatusOK, view)
}

// handleGenerate invokes the external generator for the caller's draft.
// One generation per draft may be in flight; duplicates get 409. No retry
// here: regeneration is an explicit user action.
func (h *Handler) handleGenerate(w http.ResponseWriter, r *http.Request) {
	user := model.UserFromContext(r.Context())
	ds := h.draftFor(user.ID)

	h.mu.Lock()
	if ds.busy {
		h.mu.Unlock()
		writeError(w, r, http.StatusConflict, "generation_busy", "GenerationBusy")
		return
	}
	if err := ds.draft.ReadyToGenerate(); err != nil {
		h.mu.Unlock()
		writeJSON(w, http.StatusConflict, map[string]string{
			"error":   "invalid_transition",
			"message": err.Error(),
		})
		return
	}
	details, syllabus, dist := ds.draft.GenerationRequest()
	ds.busy = true
	h.mu.Unlock()

	defer func() {
		h.mu.Lock()
		ds.busy = false
		h.mu.Unlock()
	}()

	ctx, cancel := context.WithTimeout(r.Context(), h.config.LLMTimeout)
	defer cancel()

	questions, err := h.gen.Generate(ctx, genai.Request{
		Details:      details,
		Syllabus:     syllabus,
		Distribution: dist,
	})
	if err != nil {
		slog.Error("generation failed", "user_id", user.ID, "error", err)
		status, code := classifyGenerationError(err)
		writeErrorData(w, r, status, code, "GenerationFailed", map[string]any{"Reason": err.Error()})
		return
	}

	h.mu.Lock()
	ds.draft.SetQuestions(questions)
	view := viewOf(ds)
	h.mu.Unlock()

	slog.Info("generated questions", "user_id", user.ID, "count", len(questions))
	writeJSON(w, http.StatusOK, view)
}

func classifyGenerationError(err error) (int, string) {
	var schemaErr *genai.SchemaError
	var countErr *genai.CountError
	var malformed *genai.MalformedError
	switch {
	case errors.As(err, &schemaErr):
		return http.StatusUnprocessableEntity, "schema_error"
	case errors.As(err, &countErr):
		return http.StatusUnprocessableEntity, "count_mismatch"
	case errors.As(err, &malformed), errors.Is(err, genai.ErrEmptyPayload):
		return http.StatusBadGateway, "malformed_response"
	case errors.Is(err, genai.ErrNoAPIKey):
		return http.StatusServiceUnavailable, "no_credential"
	default:
		return http.StatusBadGateway, "generation_failed"
	}
}

// handleSaveExam persists the reviewed draft as a new exam record. The draft
// is kept on failure so the professor can retry without regenerating.
func (h *Handler) handleSaveExam(w http.ResponseWriter, r *http.Request) {
	user := model.UserFromContext(r.Context())
	if user == nil {
		writeError(w, r, http.StatusUnauthorized, "unauthenticated", "SaveUnauthenticated")
		return
	}
	ds := h.draftFor(user.ID)

	h.mu.Lock()
	err := ds.draft.ReadyToSave()
	details := ds.draft.Details
	questions := ds.draft.Questions
	h.mu.Unlock()
	if err != nil {
		if errors.Is(err, authoring.ErrNoQuestions) {
			writeError(w, r, http.StatusBadRequest, "empty_question_set", "SaveEmptyQuestions")
			return
		}
		writeJSON(w, http.StatusConflict, map[string]string{"error": "invalid_transition", "message": err.Error()})
		return
	}

	exam, err := h.store.CreateExam(details, questions, user.ID)
	if err != nil {
		if errors.Is(err, store.ErrEmptyQuestionSet) {
			writeError(w, r, http.StatusBadRequest, "empty_question_set", "SaveEmptyQuestions")
			return
		}
		slog.Error("save exam failed", "user_id", user.ID, "error", err)
		writeErrorData(w, r, http.StatusInternalServerError, "save_failed", "SaveFailed", map[string]any{"Reason": err.Error()})
		return
	}

	// Terminal transition: the workflow is done, drop the draft.
	h.mu.Lock()
	delete(h.drafts, user.ID)
	h.mu.Unlock()

	slog.Info("exam saved", "exam_id", exam.ID, "owner_id", user.ID, "questions", len(exam.Questions))
	writeJSON(w, http.StatusCreated, map[string]any{
		"id":      exam.ID,
		"message": appI18n.T(r.Context(), "SaveSuccess"),
	})
}
