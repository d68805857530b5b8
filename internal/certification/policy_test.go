package certification

import (
	"errors"
	"testing"

	"github.com/notifica-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequirementsFor_Simple(t *testing.T) {
	r, err := RequirementsFor(domain.LevelSimple)
	require.NoError(t, err)
	assert.False(t, r.NeedsTimestamp)
	assert.False(t, r.NeedsExternalDelivery)
	assert.Equal(t, 990, r.PriceCents)
}

func TestRequirementsFor_Advanced(t *testing.T) {
	r, err := RequirementsFor(domain.LevelAdvanced)
	require.NoError(t, err)
	assert.True(t, r.NeedsTimestamp)
	assert.False(t, r.NeedsExternalDelivery)
}

func TestRequirementsFor_Qualified(t *testing.T) {
	r, err := RequirementsFor(domain.LevelQualified)
	require.NoError(t, err)
	assert.True(t, r.NeedsTimestamp)
	assert.True(t, r.NeedsExternalDelivery)
}

func TestRequirementsFor_UnknownLevel(t *testing.T) {
	_, err := RequirementsFor("platinum")
	assert.True(t, errors.Is(err, domain.ErrBadRequest))
}

// Each level must require everything the level below it requires, at a higher
// price. All() is ordered cheapest first, so the check is a single pass.
func TestLevels_StrictSuperset(t *testing.T) {
	levels := All()
	require.Len(t, levels, 3)

	for i := 1; i < len(levels); i++ {
		lower, higher := levels[i-1], levels[i]
		assert.Greater(t, higher.PriceCents, lower.PriceCents)
		if lower.NeedsTimestamp {
			assert.True(t, higher.NeedsTimestamp)
		}
		if lower.NeedsExternalDelivery {
			assert.True(t, higher.NeedsExternalDelivery)
		}
	}
}
