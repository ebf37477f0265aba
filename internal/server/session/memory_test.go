package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thejerf/abtime"
)

func newManualStore(ttl time.Duration) (*MemoryStore, *abtime.ManualTime) {
	clock := abtime.NewManualAtTime(time.Unix(1500000000, 0).UTC())
	return NewMemoryStore(ttl, clock), clock
}

func TestMemoryStore_SaveLoad(t *testing.T) {
	ctx := context.Background()
	st, _ := newManualStore(time.Hour)

	s, err := st.New(ctx)
	require.NoError(t, err)
	assert.Len(t, s.ID, 2*idBytes)

	s.Set("k", "v")
	require.NoError(t, st.Save(ctx, s))
	assert.False(t, s.Dirty())

	got, err := st.Load(ctx, s.ID)
	require.NoError(t, err)
	v, ok := got.Get("k")
	assert.True(t, ok)
	assert.Equal(t, "v", v)
}

func TestMemoryStore_LoadedSessionIsIsolated(t *testing.T) {
	ctx := context.Background()
	st, _ := newManualStore(time.Hour)

	s, _ := st.New(ctx)
	require.NoError(t, st.Save(ctx, s))

	got, err := st.Load(ctx, s.ID)
	require.NoError(t, err)
	got.Set("k", "unsaved")

	again, err := st.Load(ctx, s.ID)
	require.NoError(t, err)
	_, ok := again.Get("k")
	assert.False(t, ok)
}

func TestMemoryStore_UnknownID(t *testing.T) {
	st, _ := newManualStore(time.Hour)

	_, err := st.Load(context.Background(), "nope")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStore_ExpiresAfterTTL(t *testing.T) {
	ctx := context.Background()
	st, clock := newManualStore(30 * time.Minute)

	s, _ := st.New(ctx)
	require.NoError(t, st.Save(ctx, s))

	clock.Advance(29 * time.Minute)
	_, err := st.Load(ctx, s.ID)
	require.NoError(t, err)

	clock.Advance(time.Minute)
	_, err = st.Load(ctx, s.ID)
	require.ErrorIs(t, err, ErrNotFound)
	assert.Zero(t, st.Len())
}

func TestMemoryStore_SaveExtendsLifetime(t *testing.T) {
	ctx := context.Background()
	st, clock := newManualStore(30 * time.Minute)

	s, _ := st.New(ctx)
	require.NoError(t, st.Save(ctx, s))
	clock.Advance(20 * time.Minute)
	require.NoError(t, st.Save(ctx, s))
	clock.Advance(20 * time.Minute)

	_, err := st.Load(ctx, s.ID)
	require.NoError(t, err)
}

func TestMemoryStore_PurgeExpired(t *testing.T) {
	ctx := context.Background()
	st, clock := newManualStore(time.Minute)

	old, _ := st.New(ctx)
	require.NoError(t, st.Save(ctx, old))
	clock.Advance(2 * time.Minute)
	fresh, _ := st.New(ctx)
	require.NoError(t, st.Save(ctx, fresh))

	assert.Equal(t, 1, st.PurgeExpired())
	assert.Equal(t, 1, st.Len())
}

func TestMemoryStore_Regenerate(t *testing.T) {
	ctx := context.Background()
	st, _ := newManualStore(time.Hour)

	s, _ := st.New(ctx)
	s.Set("k", "v")
	require.NoError(t, st.Save(ctx, s))
	oldID := s.ID

	require.NoError(t, st.Regenerate(ctx, s))

	assert.NotEqual(t, oldID, s.ID)
	_, err := st.Load(ctx, oldID)
	require.ErrorIs(t, err, ErrNotFound)

	got, err := st.Load(ctx, s.ID)
	require.NoError(t, err)
	v, _ := got.Get("k")
	assert.Equal(t, "v", v)
}

func TestMemoryStore_Destroy(t *testing.T) {
	ctx := context.Background()
	st, _ := newManualStore(time.Hour)

	s, _ := st.New(ctx)
	require.NoError(t, st.Save(ctx, s))
	require.NoError(t, st.Destroy(ctx, s.ID))

	_, err := st.Load(ctx, s.ID)
	require.ErrorIs(t, err, ErrNotFound)
}
