package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/maksim/feather/internal/domain/message/entity"
	"github.com/maksim/feather/internal/httpx/response"
)

// MessagePolicy defines the interface for response operations
// Interface is defined by consumer (handler), not provider (policy)
type MessagePolicy interface {
	ManualResponse(ctx context.Context, targetID, text string) (string, error)
	Statistics() entity.Statistics
}

// MessageHandler handles HTTP requests for responses
type MessageHandler struct {
	policy MessagePolicy
}

// NewMessageHandler creates a new message handler
func NewMessageHandler(p MessagePolicy) *MessageHandler {
	return &MessageHandler{policy: p}
}

// RegisterRoutes registers response routes
func (h *MessageHandler) RegisterRoutes(r chi.Router) {
	r.Route("/responses", func(r chi.Router) {
		r.Post("/manual", h.Manual())
		r.Get("/stats", h.Statistics())
	})
}

// ManualRequest represents the request body for a manual reply
type ManualRequest struct {
	TargetID string `json:"target_id"`
	Text     string `json:"text"`
}

// Manual handles POST /responses/manual
func (h *MessageHandler) Manual() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ManualRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.BadRequest(w, "invalid JSON")
			return
		}

		replyID, err := h.policy.ManualResponse(r.Context(), req.TargetID, req.Text)
		if err != nil {
			switch {
			case errors.Is(err, entity.ErrEmptyTargetID), errors.Is(err, entity.ErrEmptyResponse):
				response.BadRequest(w, err.Error())
			default:
				response.BadGateway(w, err.Error())
			}
			return
		}

		response.Created(w, map[string]string{"reply_id": replyID})
	}
}

// Statistics handles GET /responses/stats
func (h *MessageHandler) Statistics() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		response.OK(w, h.policy.Statistics())
	}
}
