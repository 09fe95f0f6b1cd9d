package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/maksim/feather/internal/domain/schedule/entity"
	"github.com/maksim/feather/internal/httpx/response"
)

// SchedulePolicy defines the interface for scheduling operations
// Interface is defined by consumer (handler), not provider (policy)
type SchedulePolicy interface {
	ScheduleCustomPost(content string, scheduledAt time.Time) (*entity.ScheduledPost, error)
	ScheduleThread(ctx context.Context, topic string, length int, startAt *time.Time) ([]entity.ScheduledPost, error)
	CancelScheduledPost(index int) (*entity.ScheduledPost, error)
	Pending() []entity.ScheduledPost
	History(days int) []entity.PostHistoryEntry
	Statistics() entity.Statistics
}

// ScheduleHandler handles HTTP requests for the post scheduler
type ScheduleHandler struct {
	policy SchedulePolicy
}

// NewScheduleHandler creates a new schedule handler
func NewScheduleHandler(p SchedulePolicy) *ScheduleHandler {
	return &ScheduleHandler{policy: p}
}

// RegisterRoutes registers schedule routes
func (h *ScheduleHandler) RegisterRoutes(r chi.Router) {
	r.Route("/schedule", func(r chi.Router) {
		r.Post("/", h.Create())
		r.Get("/", h.List())
		r.Delete("/{index}", h.Cancel())
		r.Post("/thread", h.CreateThread())
	})
	r.Route("/posts", func(r chi.Router) {
		r.Get("/history", h.History())
		r.Get("/stats", h.Statistics())
	})
}

// CreateRequest represents the request body for scheduling a post
type CreateRequest struct {
	Content     string `json:"content"`
	ScheduledAt string `json:"scheduled_at"` // RFC3339 format
}

// Create handles POST /schedule
func (h *ScheduleHandler) Create() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.BadRequest(w, "invalid JSON")
			return
		}

		if req.Content == "" {
			response.BadRequest(w, "content is required")
			return
		}

		scheduledAt, err := time.Parse(time.RFC3339, req.ScheduledAt)
		if err != nil {
			response.BadRequest(w, "invalid scheduled_at format, use RFC3339")
			return
		}

		post, err := h.policy.ScheduleCustomPost(req.Content, scheduledAt)
		if err != nil {
			handleScheduleError(w, err)
			return
		}

		response.Created(w, post)
	}
}

// List handles GET /schedule
func (h *ScheduleHandler) List() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		response.OK(w, map[string]any{"posts": h.policy.Pending()})
	}
}

// Cancel handles DELETE /schedule/{index}
func (h *ScheduleHandler) Cancel() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		index, err := strconv.Atoi(chi.URLParam(r, "index"))
		if err != nil {
			response.BadRequest(w, "invalid index")
			return
		}

		post, err := h.policy.CancelScheduledPost(index)
		if err != nil {
			handleScheduleError(w, err)
			return
		}

		response.OK(w, post)
	}
}

// ThreadRequest represents the request body for scheduling a thread
type ThreadRequest struct {
	Topic   string  `json:"topic"`
	Length  int     `json:"length"`
	StartAt *string `json:"start_at,omitempty"` // RFC3339 format
}

// CreateThread handles POST /schedule/thread
func (h *ScheduleHandler) CreateThread() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ThreadRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.BadRequest(w, "invalid JSON")
			return
		}

		if req.Topic == "" {
			response.BadRequest(w, "topic is required")
			return
		}
		if req.Length == 0 {
			req.Length = 3
		}

		var startAt *time.Time
		if req.StartAt != nil && *req.StartAt != "" {
			t, err := time.Parse(time.RFC3339, *req.StartAt)
			if err != nil {
				response.BadRequest(w, "invalid start_at format, use RFC3339")
				return
			}
			startAt = &t
		}

		posts, err := h.policy.ScheduleThread(r.Context(), req.Topic, req.Length, startAt)
		if err != nil {
			handleScheduleError(w, err)
			return
		}

		response.Created(w, map[string]any{"posts": posts})
	}
}

// History handles GET /posts/history
func (h *ScheduleHandler) History() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		days, _ := strconv.Atoi(r.URL.Query().Get("days"))
		response.OK(w, map[string]any{"posts": h.policy.History(days)})
	}
}

// Statistics handles GET /posts/stats
func (h *ScheduleHandler) Statistics() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		response.OK(w, h.policy.Statistics())
	}
}

func handleScheduleError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, entity.ErrEmptyContent),
		errors.Is(err, entity.ErrInvalidThreadLength):
		response.BadRequest(w, err.Error())
	case errors.Is(err, entity.ErrIndexOutOfRange),
		errors.Is(err, entity.ErrPostNotFound):
		response.NotFound(w, err.Error())
	default:
		response.InternalError(w, err.Error())
	}
}
