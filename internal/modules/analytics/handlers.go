package analytics

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/rs/zerolog"
)

// Handler handles analytics HTTP requests
type Handler struct {
	service *Service
	log     zerolog.Logger
}

// NewHandler creates a new analytics handler
func NewHandler(service *Service, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log.With().Str("handler", "analytics").Logger(),
	}
}

// HandleCategories returns the per-category tariff breakdown.
func (h *Handler) HandleCategories(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"categories": h.service.CategoryBreakdowns(),
	})
}

// HandleCountries returns the supplier country exposure.
func (h *Handler) HandleCountries(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"countries": h.service.CountryExposures(),
	})
}

// HandleMostAffected returns the top tariff-impacted products.
// ?limit= caps the ranking, default 10.
func (h *Handler) HandleMostAffected(w http.ResponseWriter, r *http.Request) {
	limit := 10
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			h.writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = parsed
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"products": h.service.MostAffected(limit),
	})
}

// HandleStockImpact returns the stock runway bands.
func (h *Handler) HandleStockImpact(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.service.StockImpact())
}

// HandleTrend returns the monthly tariff trend.
func (h *Handler) HandleTrend(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"trend": h.service.MonthlyTrend(),
	})
}

// HandleImpactStats returns the impact distribution summary.
func (h *Handler) HandleImpactStats(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.service.ImpactDistribution())
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
