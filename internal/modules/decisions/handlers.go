package decisions

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/mpapanik/tariff-scout/internal/domain"
)

// Handler handles decision log HTTP requests
type Handler struct {
	repo *Repository
	log  zerolog.Logger
}

// NewHandler creates a new decisions handler
func NewHandler(repo *Repository, log zerolog.Logger) *Handler {
	return &Handler{
		repo: repo,
		log:  log.With().Str("handler", "decisions").Logger(),
	}
}

// HandleList returns the decision history for one terminal status,
// ?status=approved (default) or ?status=rejected.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	status := domain.Status(r.URL.Query().Get("status"))
	if status == "" {
		status = domain.StatusApproved
	}
	if status != domain.StatusApproved && status != domain.StatusRejected {
		h.writeError(w, http.StatusBadRequest, "status must be approved or rejected")
		return
	}

	records, err := h.repo.ListByStatus(status)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list decisions")
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if records == nil {
		records = []domain.DecisionRecord{}
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"decisions": records,
		"count":     len(records),
	})
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
