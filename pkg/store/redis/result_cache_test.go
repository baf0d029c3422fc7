package redis

import (
	"context"
	"testing"
	"time"

	"oeecore/pkg/oee"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResultCacheRoundTrip(t *testing.T) {
	_, client := newTestClient(t)
	cache := NewResultCache(client, time.Minute)
	ctx := context.Background()

	start := time.Date(2026, 3, 1, 6, 0, 0, 0, time.UTC)
	window := oee.Window{Start: start, End: start.Add(time.Hour)}
	res := &oee.Result{
		EquipmentID:  "press-01",
		Window:       window,
		Availability: oee.DefinedRatio(0.9),
		Performance:  oee.DefinedRatio(0.8),
		Quality:      oee.UndefinedRatio(),
		OEE:          oee.UndefinedRatio(),
		Flags:        []oee.Flag{oee.FlagNoData},
		ComputedAt:   start.Add(time.Hour),
	}

	require.NoError(t, cache.Set(ctx, res))

	got, err := cache.Get(ctx, "press-01", window, "")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, res.Availability, got.Availability)
	assert.False(t, got.Quality.Defined)
	assert.True(t, got.HasFlag(oee.FlagNoData))
}

func TestResultCacheMiss(t *testing.T) {
	_, client := newTestClient(t)
	cache := NewResultCache(client, time.Minute)

	start := time.Date(2026, 3, 1, 6, 0, 0, 0, time.UTC)
	got, err := cache.Get(context.Background(), "press-99", oee.Window{Start: start, End: start.Add(time.Hour)}, "")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestResultCacheExpiry(t *testing.T) {
	mr, client := newTestClient(t)
	cache := NewResultCache(client, time.Minute)
	ctx := context.Background()

	start := time.Date(2026, 3, 1, 6, 0, 0, 0, time.UTC)
	window := oee.Window{Start: start, End: start.Add(time.Hour)}
	res := &oee.Result{EquipmentID: "press-01", Window: window, ComputedAt: start}
	require.NoError(t, cache.Set(ctx, res))

	mr.FastForward(2 * time.Minute)

	got, err := cache.Get(ctx, "press-01", window, "")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestResultCacheInvalidate(t *testing.T) {
	_, client := newTestClient(t)
	cache := NewResultCache(client, time.Minute)
	ctx := context.Background()

	start := time.Date(2026, 3, 1, 6, 0, 0, 0, time.UTC)
	window := oee.Window{Start: start, End: start.Add(time.Hour)}
	res := &oee.Result{EquipmentID: "press-01", Window: window, ShiftInstanceID: "s1", ComputedAt: start}
	require.NoError(t, cache.Set(ctx, res))
	require.NoError(t, cache.Invalidate(ctx, "press-01", window, "s1"))

	got, err := cache.Get(ctx, "press-01", window, "s1")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestResultCacheNilClient(t *testing.T) {
	cache := NewResultCache(nil, time.Minute)
	ctx := context.Background()
	start := time.Date(2026, 3, 1, 6, 0, 0, 0, time.UTC)
	window := oee.Window{Start: start, End: start.Add(time.Hour)}

	require.NoError(t, cache.Set(ctx, &oee.Result{EquipmentID: "press-01", Window: window}))
	got, err := cache.Get(ctx, "press-01", window, "")
	require.NoError(t, err)
	assert.Nil(t, got)
}
