package workflow

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ronappleton/campaign-engine/internal/campaign"
)

func TestMemoryStoreRuns(t *testing.T) {
	store := NewMemoryStore()

	_, err := store.GetRun("missing")
	assert.ErrorIs(t, err, ErrNotFound)

	record := RunRecord{
		ID:        "r1",
		Status:    campaign.StatusPending,
		Brief:     testBrief(),
		CreatedAt: time.Now().UTC(),
	}
	store.CreateRun(record)

	got, err := store.GetRun("r1")
	require.NoError(t, err)
	assert.Equal(t, campaign.StatusPending, got.Status)
	assert.Equal(t, "EcoBottle", got.Brief.Product)

	got.Status = campaign.StatusComplete
	store.UpdateRun(got)

	updated, err := store.GetRun("r1")
	require.NoError(t, err)
	assert.Equal(t, campaign.StatusComplete, updated.Status)
	assert.False(t, updated.UpdatedAt.IsZero())

	assert.Len(t, store.ListRuns(), 1)
}

func TestMemoryStoreInteractions(t *testing.T) {
	store := NewMemoryStore()

	assert.Empty(t, store.ListInteractions("r1"))

	store.AppendInteraction("r1", campaign.Interaction{Agent: "strategy", Action: "start"})
	store.AppendInteraction("r1", campaign.Interaction{Agent: "strategy", Action: "complete"})
	store.AppendInteraction("r2", campaign.Interaction{Agent: "copy", Action: "start"})

	entries := store.ListInteractions("r1")
	require.Len(t, entries, 2)
	assert.Equal(t, "start", entries[0].Action)
	assert.Equal(t, "complete", entries[1].Action)

	// The returned slice is a copy.
	entries[0].Action = "mutated"
	assert.Equal(t, "start", store.ListInteractions("r1")[0].Action)
}
