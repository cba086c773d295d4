package recommendations

import "errors"

// Contract violations surfaced to callers as named errors. The HTTP layer
// maps these to status codes; the core never silently no-ops.
var (
	// ErrNotFound indicates the recommendation id is unknown.
	ErrNotFound = errors.New("recommendation not found")

	// ErrAlreadyDecided indicates a terminal recommendation was targeted
	// by a mutating operation.
	ErrAlreadyDecided = errors.New("recommendation already decided")

	// ErrUnknownAlternative indicates the alternative id is not part of
	// the recommendation.
	ErrUnknownAlternative = errors.New("unknown alternative")

	// ErrNoSelection indicates approval was attempted with an empty
	// selected set.
	ErrNoSelection = errors.New("no alternatives selected")

	// ErrTotalNot100 indicates approval was attempted while the visible
	// total allocation differs from 100.
	ErrTotalNot100 = errors.New("total allocation must equal 100")
)

// ApproveRequest is the approval payload.
type ApproveRequest struct {
	SelectedAlternatives []string `json:"selected_alternatives"`
}

// RejectRequest is the rejection payload.
type RejectRequest struct {
	Reason string `json:"reason"`
}

// AllocationRequest sets one alternative's allocation percentage.
type AllocationRequest struct {
	ReplacementID string `json:"replacement_id"`
	Percentage    int    `json:"percentage"`
}

// SelectionRequest toggles one alternative's selection.
type SelectionRequest struct {
	ReplacementID string `json:"replacement_id"`
}

// BulkApproveRequest approves several recommendations with their current
// selection and allocation state.
type BulkApproveRequest struct {
	RecommendationIDs []string `json:"recommendation_ids"`
}

// BulkApproveResult reports the per-recommendation outcome of a bulk
// approval.
type BulkApproveResult struct {
	RecommendationID string `json:"recommendation_id"`
	Approved         bool   `json:"approved"`
	Error            string `json:"error,omitempty"`
}
