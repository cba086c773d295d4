package recommendations

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/mpapanik/tariff-scout/internal/domain"
)

// Handler handles recommendation HTTP requests
type Handler struct {
	service *Service
	log     zerolog.Logger
}

// NewHandler creates a new recommendations handler
func NewHandler(service *Service, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log.With().Str("handler", "recommendations").Logger(),
	}
}

// HandleList returns all recommendations, optionally filtered by
// ?status=pending|approved|rejected|more-options-requested.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	status := domain.Status(r.URL.Query().Get("status"))
	recs := h.service.List(status)
	if recs == nil {
		recs = []domain.Recommendation{}
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"recommendations": recs,
		"count":           len(recs),
	})
}

// HandleGet returns a single recommendation by id.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	rec, err := h.service.Get(chi.URLParam(r, "id"))
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, rec)
}

// HandleApprove finalizes a recommendation as approved.
func (h *Handler) HandleApprove(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req ApproveRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			h.writeError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
	}

	record, err := h.service.Approve(id, req.SelectedAlternatives)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"approved": true,
		"decision": record,
	})
}

// HandleReject finalizes a recommendation as rejected.
func (h *Handler) HandleReject(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req RejectRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			h.writeError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
	}

	record, err := h.service.Reject(id, req.Reason)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"rejected": true,
		"decision": record,
	})
}

// HandleMoreOptions asks the recommender service for one new alternative.
func (h *Handler) HandleMoreOptions(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	alt, err := h.service.RequestMoreOptions(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) || errors.Is(err, ErrAlreadyDecided) {
			h.writeServiceError(w, err)
			return
		}
		h.log.Error().Err(err).Str("id", id).Msg("Failed to fetch alternative")
		h.writeError(w, http.StatusBadGateway, "Failed to contact recommender service")
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"merged":      true,
		"alternative": alt,
	})
}

// HandleSetAllocation updates one alternative's allocation percentage.
func (h *Handler) HandleSetAllocation(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req AllocationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.ReplacementID == "" {
		h.writeError(w, http.StatusBadRequest, "replacement_id is required")
		return
	}

	rec, err := h.service.SetAllocation(id, req.ReplacementID, req.Percentage)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, rec)
}

// HandleToggleSelection flips an alternative in or out of the selection.
func (h *Handler) HandleToggleSelection(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req SelectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.ReplacementID == "" {
		h.writeError(w, http.StatusBadRequest, "replacement_id is required")
		return
	}

	rec, err := h.service.ToggleSelection(id, req.ReplacementID)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, rec)
}

// HandleRemoveAlternative deletes an alternative from a recommendation.
func (h *Handler) HandleRemoveAlternative(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	altID := chi.URLParam(r, "altID")

	rec, err := h.service.RemoveAlternative(id, altID)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, rec)
}

// HandleBulkApprove approves a batch of recommendations with their
// current allocation state.
func (h *Handler) HandleBulkApprove(w http.ResponseWriter, r *http.Request) {
	var req BulkApproveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if len(req.RecommendationIDs) == 0 {
		h.writeError(w, http.StatusBadRequest, "recommendation_ids is required")
		return
	}

	results := h.service.BulkApprove(req.RecommendationIDs)

	approved := 0
	for _, res := range results {
		if res.Approved {
			approved++
		}
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"approved": approved,
		"failed":   len(results) - approved,
		"results":  results,
	})
}

func (h *Handler) writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		h.writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, ErrAlreadyDecided):
		h.writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, ErrUnknownAlternative):
		h.writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrNoSelection), errors.Is(err, ErrTotalNot100):
		h.writeError(w, http.StatusUnprocessableEntity, err.Error())
	default:
		h.writeError(w, http.StatusInternalServerError, err.Error())
	}
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
