package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"letscode/internal/api/middleware"
	"letscode/internal/app/service"
	"letscode/internal/common"
	"letscode/internal/domain/model"

	"github.com/go-chi/chi/v5"
)

type Evaluator interface {
	Run(ctx context.Context, userID string, req service.EvaluateRequest) (*service.RunResult, error)
	Submit(ctx context.Context, userID string, req service.EvaluateRequest) (*service.SubmitResult, error)
}

type SubmissionHistory interface {
	History(ctx context.Context, userID string, page, pageSize int) ([]model.Submission, int, error)
	Get(ctx context.Context, userID, submissionID string) (*model.Submission, error)
}

type SubmissionHandler struct {
	evaluator Evaluator
	history   SubmissionHistory
}

func NewSubmissionHandler(evaluator Evaluator, history SubmissionHistory) *SubmissionHandler {
	return &SubmissionHandler{evaluator: evaluator, history: history}
}

func (h *SubmissionHandler) RegisterRoutes(r chi.Router) {
	r.Use(middleware.Authenticator) // All submission routes require auth
	r.Post("/", h.submit)
	r.Post("/run", h.run)
	r.Get("/", h.listSubmissions)
	r.Get("/{submissionID}", h.getSubmission)
}

func (h *SubmissionHandler) decode(w http.ResponseWriter, r *http.Request) (string, service.EvaluateRequest, bool) {
	var req service.EvaluateRequest
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		common.RespondWithError(w, http.StatusUnauthorized, "Missing user context")
		return "", req, false
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return "", req, false
	}
	return userID, req, true
}

func (h *SubmissionHandler) run(w http.ResponseWriter, r *http.Request) {
	userID, req, ok := h.decode(w, r)
	if !ok {
		return
	}
	res, err := h.evaluator.Run(r.Context(), userID, req)
	if err != nil {
		common.RespondWithDomainError(w, r, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, res)
}

func (h *SubmissionHandler) submit(w http.ResponseWriter, r *http.Request) {
	userID, req, ok := h.decode(w, r)
	if !ok {
		return
	}
	res, err := h.evaluator.Submit(r.Context(), userID, req)
	if err != nil {
		common.RespondWithDomainError(w, r, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, res)
}

type paginatedSubmissionsResponse struct {
	Submissions []model.Submission `json:"submissions"`
	Total       int                `json:"total"`
	Page        int                `json:"page"`
	PageSize    int                `json:"page_size"`
}

func (h *SubmissionHandler) listSubmissions(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		common.RespondWithError(w, http.StatusUnauthorized, "Missing user context")
		return
	}
	page, pageSize := pagination(r)
	subs, total, err := h.history.History(r.Context(), userID, page, pageSize)
	if err != nil {
		common.RespondWithDomainError(w, r, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, paginatedSubmissionsResponse{
		Submissions: subs,
		Total:       total,
		Page:        page,
		PageSize:    pageSize,
	})
}

func (h *SubmissionHandler) getSubmission(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		common.RespondWithError(w, http.StatusUnauthorized, "Missing user context")
		return
	}
	sub, err := h.history.Get(r.Context(), userID, chi.URLParam(r, "submissionID"))
	if err != nil {
		common.RespondWithDomainError(w, r, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, sub)
}

// ListLanguages serves the fixed language catalog.
func ListLanguages(w http.ResponseWriter, r *http.Request) {
	common.RespondWithJSON(w, http.StatusOK, model.SupportedLanguages())
}
