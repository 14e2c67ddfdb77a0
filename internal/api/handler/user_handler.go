package handler

import (
	"context"
	"net/http"
	"strconv"

	"letscode/internal/api/middleware"
	"letscode/internal/common"
	"letscode/internal/domain/model"

	"github.com/go-chi/chi/v5"
)

type UserProfiles interface {
	Me(ctx context.Context, userID string) (*model.User, error)
	Leaderboard(ctx context.Context, limit int) ([]model.LeaderboardEntry, error)
}

type UserHandler struct {
	userService UserProfiles
}

func NewUserHandler(us UserProfiles) *UserHandler {
	return &UserHandler{userService: us}
}

func (h *UserHandler) RegisterRoutes(r chi.Router) {
	r.Get("/leaderboard", h.leaderboard)
	r.With(middleware.Authenticator).Get("/users/me", h.me)
}

func (h *UserHandler) me(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		common.RespondWithError(w, http.StatusUnauthorized, "Missing user context")
		return
	}
	user, err := h.userService.Me(r.Context(), userID)
	if err != nil {
		common.RespondWithDomainError(w, r, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, user)
}

func (h *UserHandler) leaderboard(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	entries, err := h.userService.Leaderboard(r.Context(), limit)
	if err != nil {
		common.RespondWithDomainError(w, r, err)
		return
	}
	if entries == nil {
		entries = []model.LeaderboardEntry{}
	}
	common.RespondWithJSON(w, http.StatusOK, entries)
}
