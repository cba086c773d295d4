package recommendations

import (
	"fmt"

	"github.com/mpapanik/tariff-scout/internal/domain"
)

// The allocation reconciler maintains the invariant that the original's
// percentage is always derived: original = max(0, 100 − Σ selected
// alternatives). Alternatives are the independent variables, clamped to
// [0,100]; unselected alternatives keep their last value for display but
// do not participate in the sum.

// ToggleSelection flips an alternative in or out of the selected set and
// recomputes the original's share.
func ToggleSelection(rec *domain.Recommendation, altID string) error {
	if rec.Status.Terminal() {
		return ErrAlreadyDecided
	}

	alt := findAlternative(rec, altID)
	if alt == nil {
		return fmt.Errorf("%w: %s", ErrUnknownAlternative, altID)
	}

	alt.Selected = !alt.Selected
	reconcile(rec)
	return nil
}

// SetAllocation sets an alternative's percentage (clamped to [0,100]) and
// recomputes the original's share. The original cannot be set directly.
func SetAllocation(rec *domain.Recommendation, altID string, pct int) error {
	if rec.Status.Terminal() {
		return ErrAlreadyDecided
	}

	alt := findAlternative(rec, altID)
	if alt == nil {
		return fmt.Errorf("%w: %s", ErrUnknownAlternative, altID)
	}

	alt.AllocationPercentage = clampPct(pct)
	reconcile(rec)
	return nil
}

// RemoveAlternative deletes an alternative from the recommendation
// entirely. Unlike deselection this is a permanent structural change.
func RemoveAlternative(rec *domain.Recommendation, altID string) error {
	if rec.Status.Terminal() {
		return ErrAlreadyDecided
	}

	idx := -1
	for i, alt := range rec.Alternatives {
		if alt.ReplacementID == altID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return fmt.Errorf("%w: %s", ErrUnknownAlternative, altID)
	}

	rec.Alternatives = append(rec.Alternatives[:idx], rec.Alternatives[idx+1:]...)
	reconcile(rec)
	return nil
}

// SelectedTotal sums the selected alternatives' percentages.
func SelectedTotal(rec *domain.Recommendation) int {
	total := 0
	for _, alt := range rec.Alternatives {
		if alt.Selected {
			total += alt.AllocationPercentage
		}
	}
	return total
}

// TotalAllocation is the display total: original plus selected
// alternatives. It can fall below 100 after clamped edits; the approval
// gate is what enforces exactly 100.
func TotalAllocation(rec *domain.Recommendation) int {
	return rec.OriginalAllocation + SelectedTotal(rec)
}

// SelectedAlternatives returns the currently selected alternatives in
// feed order.
func SelectedAlternatives(rec *domain.Recommendation) []*domain.Alternative {
	var selected []*domain.Alternative
	for _, alt := range rec.Alternatives {
		if alt.Selected {
			selected = append(selected, alt)
		}
	}
	return selected
}

func reconcile(rec *domain.Recommendation) {
	original := 100 - SelectedTotal(rec)
	if original < 0 {
		original = 0
	}
	rec.OriginalAllocation = original
}

func findAlternative(rec *domain.Recommendation, altID string) *domain.Alternative {
	for _, alt := range rec.Alternatives {
		if alt.ReplacementID == altID {
			return alt
		}
	}
	return nil
}

func clampPct(pct int) int {
	if pct < 0 {
		return 0
	}
	if pct > 100 {
		return 100
	}
	return pct
}
