package recommendations

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mpapanik/tariff-scout/internal/domain"
)

func buildTestRec(t *testing.T, altCount int) *domain.Recommendation {
	t.Helper()

	products := []domain.Product{testProduct("P1", true)}
	var replacements []domain.Replacement
	for i := 0; i < altCount; i++ {
		replacements = append(replacements, testReplacement("P1", string(rune('A'+i))))
	}

	recs := Build(products, replacements, time.Now())
	require.Len(t, recs, 1)
	return recs[0]
}

func TestSetAllocationDerivesOriginal(t *testing.T) {
	rec := buildTestRec(t, 2) // 33/33, original 34

	require.NoError(t, SetAllocation(rec, "A", 60))

	assert.Equal(t, 60, rec.Alternatives[0].AllocationPercentage)
	assert.Equal(t, 7, rec.OriginalAllocation) // 100 - (60+33)
	assert.Equal(t, 100, TotalAllocation(rec))
}

func TestSetAllocationClampsAndFloorsOriginalAtZero(t *testing.T) {
	rec := buildTestRec(t, 2)

	require.NoError(t, SetAllocation(rec, "A", 150))
	assert.Equal(t, 100, rec.Alternatives[0].AllocationPercentage)
	assert.Equal(t, 0, rec.OriginalAllocation)
	// Over-allocated: display total exceeds 100 and approval must refuse it.
	assert.Equal(t, 133, TotalAllocation(rec))

	require.NoError(t, SetAllocation(rec, "A", -5))
	assert.Equal(t, 0, rec.Alternatives[0].AllocationPercentage)
	assert.Equal(t, 67, rec.OriginalAllocation)
}

func TestToggleSelectionExcludesFromSum(t *testing.T) {
	rec := buildTestRec(t, 2) // 33/33, original 34

	require.NoError(t, ToggleSelection(rec, "B"))

	assert.False(t, rec.Alternatives[1].Selected)
	assert.Equal(t, 33, SelectedTotal(rec))
	assert.Equal(t, 67, rec.OriginalAllocation)
	// The deselected alternative keeps its value for display.
	assert.Equal(t, 33, rec.Alternatives[1].AllocationPercentage)

	// Toggling back restores participation.
	require.NoError(t, ToggleSelection(rec, "B"))
	assert.Equal(t, 34, rec.OriginalAllocation)
}

func TestRemoveAlternative(t *testing.T) {
	rec := buildTestRec(t, 2)

	require.NoError(t, RemoveAlternative(rec, "A"))

	require.Len(t, rec.Alternatives, 1)
	assert.Equal(t, "B", rec.Alternatives[0].ReplacementID)
	assert.Equal(t, 67, rec.OriginalAllocation)

	err := RemoveAlternative(rec, "A")
	assert.ErrorIs(t, err, ErrUnknownAlternative)
}

func TestMutationsRejectedOnTerminalStatus(t *testing.T) {
	for _, status := range []domain.Status{domain.StatusApproved, domain.StatusRejected} {
		rec := buildTestRec(t, 1)
		rec.Status = status

		assert.ErrorIs(t, SetAllocation(rec, "A", 10), ErrAlreadyDecided)
		assert.ErrorIs(t, ToggleSelection(rec, "A"), ErrAlreadyDecided)
		assert.ErrorIs(t, RemoveAlternative(rec, "A"), ErrAlreadyDecided)
	}
}

func TestMutationsAllowedWhileMoreOptionsRequested(t *testing.T) {
	rec := buildTestRec(t, 1)
	rec.Status = domain.StatusMoreOptionsRequested

	assert.NoError(t, SetAllocation(rec, "A", 40))
	assert.Equal(t, 60, rec.OriginalAllocation)
}

func TestUnknownAlternative(t *testing.T) {
	rec := buildTestRec(t, 1)

	assert.ErrorIs(t, SetAllocation(rec, "nope", 10), ErrUnknownAlternative)
	assert.ErrorIs(t, ToggleSelection(rec, "nope"), ErrUnknownAlternative)
}
