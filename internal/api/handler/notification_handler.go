package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"letscode/internal/common"
	"letscode/internal/domain/model"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
)

type NotificationFeed interface {
	Recent(ctx context.Context, limit int) ([]model.Notification, error)
	Stream(ctx context.Context) (<-chan model.Notification, error)
}

type NotificationHandler struct {
	feed      NotificationFeed
	keepAlive time.Duration
}

func NewNotificationHandler(feed NotificationFeed) *NotificationHandler {
	return &NotificationHandler{feed: feed, keepAlive: 25 * time.Second}
}

// RegisterRoutes mounts the list endpoint. Stream is mounted by the caller
// outside the request timeout.
func (h *NotificationHandler) RegisterRoutes(r chi.Router) {
	r.Get("/notifications", h.list)
}

func (h *NotificationHandler) list(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	items, err := h.feed.Recent(r.Context(), limit)
	if err != nil {
		common.RespondWithDomainError(w, r, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, items)
}

// Stream relays live announcements as server-sent events.
func (h *NotificationHandler) Stream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		common.RespondWithError(w, http.StatusInternalServerError, "Streaming unsupported")
		return
	}

	events, err := h.feed.Stream(r.Context())
	if err != nil {
		common.RespondWithDomainError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	ticker := time.NewTicker(h.keepAlive)
	defer ticker.Stop()
	for {
		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
			fmt.Fprint(w, ": ping\n\n")
			flusher.Flush()
		case n, ok := <-events:
			if !ok {
				return
			}
			payload, err := json.Marshal(n)
			if err != nil {
				log.Warn().Err(err).Str("notification_id", n.ID).Msg("Skipping unencodable notification")
				continue
			}
			fmt.Fprintf(w, "event: notification\ndata: %s\n\n", payload)
			flusher.Flush()
		}
	}
}
