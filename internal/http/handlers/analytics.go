package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/wolfman30/aria-bots/internal/analytics"
	"github.com/wolfman30/aria-bots/pkg/logging"
)

// SummaryProvider computes the analytics overview.
type SummaryProvider interface {
	Summary(ctx context.Context) (analytics.Summary, error)
}

// AnalyticsHandler serves the admin analytics endpoint.
type AnalyticsHandler struct {
	summaries SummaryProvider
	logger    *logging.Logger
}

// NewAnalyticsHandler creates a new analytics handler.
func NewAnalyticsHandler(summaries SummaryProvider, logger *logging.Logger) *AnalyticsHandler {
	if logger == nil {
		logger = logging.Default()
	}
	if summaries == nil {
		panic("handlers: analytics summary provider cannot be nil")
	}
	return &AnalyticsHandler{
		summaries: summaries,
		logger:    logger,
	}
}

// GetSummary handles GET /analytics.
func (h *AnalyticsHandler) GetSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.summaries.Summary(r.Context())
	if err != nil {
		h.logger.Error("failed to fetch analytics", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to fetch analytics"})
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
