package http

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/maksim/feather/internal/domain/analytics/entity"
	"github.com/maksim/feather/internal/httpx/response"
)

// AnalyticsService defines the interface for analytics queries
type AnalyticsService interface {
	Report(ctx context.Context, days int) (*entity.Report, error)
}

// AnalyticsHandler handles HTTP requests for analytics
type AnalyticsHandler struct {
	svc AnalyticsService
}

// NewAnalyticsHandler creates a new analytics handler
func NewAnalyticsHandler(svc AnalyticsService) *AnalyticsHandler {
	return &AnalyticsHandler{svc: svc}
}

// RegisterRoutes registers analytics routes
func (h *AnalyticsHandler) RegisterRoutes(r chi.Router) {
	r.Get("/analytics", h.Report())
}

// Report handles GET /analytics
func (h *AnalyticsHandler) Report() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		days, _ := strconv.Atoi(r.URL.Query().Get("days"))

		report, err := h.svc.Report(r.Context(), days)
		if err != nil {
			response.InternalError(w, err.Error())
			return
		}

		response.OK(w, report)
	}
}
