package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"letscode/internal/api/middleware"
	"letscode/internal/app/service"
	"letscode/internal/common"
	"letscode/internal/domain/model"

	"github.com/go-chi/chi/v5"
)

type ProblemCatalog interface {
	CreateProblem(ctx context.Context, userID string, req service.CreateProblemRequest) (*model.Problem, error)
	GetProblem(ctx context.Context, id string) (*model.Problem, error)
	ListProblems(ctx context.Context, page, pageSize int, difficulty model.ProblemDifficulty, search string) ([]model.Problem, int, error)
}

type DailyQuestionActivator interface {
	Activate(ctx context.Context, problemID string) (*model.Problem, error)
}

type ProblemHandler struct {
	problemService ProblemCatalog
	dailyService   DailyQuestionActivator
}

func NewProblemHandler(ps ProblemCatalog, ds DailyQuestionActivator) *ProblemHandler {
	return &ProblemHandler{problemService: ps, dailyService: ds}
}

func (h *ProblemHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.listProblems)          // GET /api/v1/problems
	r.Get("/{problemID}", h.getProblem) // GET /api/v1/problems/{id}

	r.Group(func(adminRouter chi.Router) {
		adminRouter.Use(middleware.Authenticator)
		adminRouter.Use(middleware.AdminOnly)
		adminRouter.Post("/", h.createProblem)                  // POST /api/v1/problems
		adminRouter.Post("/{problemID}/daily", h.activateDaily) // POST /api/v1/problems/{id}/daily
	})
}

func (h *ProblemHandler) createProblem(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		common.RespondWithError(w, http.StatusUnauthorized, "Missing user context")
		return
	}

	var req service.CreateProblemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	problem, err := h.problemService.CreateProblem(r.Context(), userID, req)
	if err != nil {
		common.RespondWithDomainError(w, r, err)
		return
	}
	common.RespondWithJSON(w, http.StatusCreated, problem)
}

type paginatedProblemsResponse struct {
	Problems []model.Problem `json:"problems"`
	Total    int             `json:"total"`
	Page     int             `json:"page"`
	PageSize int             `json:"page_size"`
}

func (h *ProblemHandler) listProblems(w http.ResponseWriter, r *http.Request) {
	page, pageSize := pagination(r)
	difficulty := model.ProblemDifficulty(r.URL.Query().Get("difficulty"))
	search := r.URL.Query().Get("search")

	problems, total, err := h.problemService.ListProblems(r.Context(), page, pageSize, difficulty, search)
	if err != nil {
		common.RespondWithDomainError(w, r, err)
		return
	}
	if problems == nil {
		problems = []model.Problem{}
	}
	common.RespondWithJSON(w, http.StatusOK, paginatedProblemsResponse{
		Problems: problems,
		Total:    total,
		Page:     page,
		PageSize: pageSize,
	})
}

func (h *ProblemHandler) getProblem(w http.ResponseWriter, r *http.Request) {
	problem, err := h.problemService.GetProblem(r.Context(), chi.URLParam(r, "problemID"))
	if err != nil {
		common.RespondWithDomainError(w, r, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, problem)
}

func (h *ProblemHandler) activateDaily(w http.ResponseWriter, r *http.Request) {
	problem, err := h.dailyService.Activate(r.Context(), chi.URLParam(r, "problemID"))
	if err != nil {
		common.RespondWithDomainError(w, r, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, problem)
}

// pagination reads page and pageSize, defaulting to 1 and 20.
func pagination(r *http.Request) (int, int) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	if page <= 0 {
		page = 1
	}
	pageSize, _ := strconv.Atoi(r.URL.Query().Get("pageSize"))
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}
	return page, pageSize
}
