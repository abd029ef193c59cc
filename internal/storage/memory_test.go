package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"popsim/internal/model"
)

func testSnapshot(id string) model.PopulationSnapshot {
	return model.PopulationSnapshot{
		VersionedRecord: Stamp(),
		ID:              id,
		Ploidy:          2,
		NumLoci:         2,
		SubPopSizes:     []int{2},
		Individuals: []model.IndividualRecord{
			{Genotype: []int{0, 1, 1, 0}, Sex: 0},
			{Genotype: []int{1, 1, 0, 0}, Sex: 1, Affected: true, Info: map[string]float64{"fitness": 0.9}},
		},
	}
}

func TestMemoryStoreSnapshotLifecycle(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	require.NoError(t, store.Init(ctx))

	_, ok, err := store.GetSnapshot(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	snap := testSnapshot("pop-1")
	require.NoError(t, store.SaveSnapshot(ctx, snap))

	got, ok, err := store.GetSnapshot(ctx, "pop-1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, snap, got)

	require.NoError(t, store.DeleteSnapshot(ctx, "pop-1"))
	_, ok, err = store.GetSnapshot(ctx, "pop-1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryStoreSaveOverwrites(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	require.NoError(t, store.Init(ctx))

	first := testSnapshot("pop-1")
	require.NoError(t, store.SaveSnapshot(ctx, first))

	second := first
	second.SubPopSizes = []int{1, 1}
	require.NoError(t, store.SaveSnapshot(ctx, second))

	got, ok, err := store.GetSnapshot(ctx, "pop-1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []int{1, 1}, got.SubPopSizes)
}

func TestMemoryStoreFitnessSeries(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	require.NoError(t, store.Init(ctx))

	_, ok, err := store.GetFitnessSeries(ctx, "run-1")
	require.NoError(t, err)
	assert.False(t, ok)

	series := []model.FitnessSeries{
		{VersionedRecord: Stamp(), RunID: "run-1", Generation: 3, Field: "fitness", SubPop: 0, VirtualSub: 1, Values: []float64{0.9, 0.8}},
		{VersionedRecord: Stamp(), RunID: "run-1", Generation: 3, Field: "fitness", SubPop: 1, VirtualSub: -1, Values: []float64{1}},
	}
	require.NoError(t, store.SaveFitnessSeries(ctx, "run-1", series))

	got, ok, err := store.GetFitnessSeries(ctx, "run-1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, series, got)

	// The returned slice is a copy; mutating it must not leak into the store.
	got[0].Values = nil
	again, ok, err := store.GetFitnessSeries(ctx, "run-1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []float64{0.9, 0.8}, again[0].Values)
}

func TestNewStoreKinds(t *testing.T) {
	store, err := NewStore("memory", "")
	require.NoError(t, err)
	assert.IsType(t, &MemoryStore{}, store)

	store, err = NewStore("", "")
	require.NoError(t, err)
	assert.IsType(t, &MemoryStore{}, store)

	_, err = NewStore("postgres", "")
	assert.Error(t, err)
}

func TestCloseIfSupportedIgnoresMemoryStore(t *testing.T) {
	assert.NoError(t, CloseIfSupported(NewMemoryStore()))
}
