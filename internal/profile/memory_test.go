package profile

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreMergesFields(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	_, err := store.GetProfile(ctx, "u1")
	require.True(t, errors.Is(err, ErrNotFound))

	version, err := store.UpdateProfile(ctx, "u1", 0, map[string]any{
		FieldUsername: "ada",
		FieldStats:    UserStats{QuizzesTaken: 1},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), version)

	version, err = store.UpdateProfile(ctx, "u1", AnyVersion, map[string]any{
		FieldStats: UserStats{QuizzesTaken: 2},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(2), version)

	p, err := Read(ctx, store, "u1")
	require.NoError(t, err)
	assert.Equal(t, "u1", p.UserID)
	assert.Equal(t, "ada", p.Username)
	assert.Equal(t, 2, p.Stats.QuizzesTaken)
	assert.Equal(t, int64(2), p.Version)
	assert.False(t, p.CreatedAt.IsZero())
	assert.False(t, p.UpdatedAt.IsZero())
}

func TestMemoryStoreVersionConflict(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	_, err := store.UpdateProfile(ctx, "u1", 0, map[string]any{FieldUsername: "ada"})
	require.NoError(t, err)

	_, err = store.UpdateProfile(ctx, "u1", 0, map[string]any{FieldUsername: "bob"})
	assert.True(t, errors.Is(err, ErrVersionConflict))

	p, err := Read(ctx, store, "u1")
	require.NoError(t, err)
	assert.Equal(t, "ada", p.Username)
}

func TestReadMissingProfile(t *testing.T) {
	p, err := Read(context.Background(), NewMemoryStore(), "nobody")
	require.NoError(t, err)
	assert.Equal(t, Profile{UserID: "nobody"}, p)
}

func TestMergeFieldsOverNullDocument(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	merged, err := MergeFields([]byte("null"), "u1", map[string]any{FieldUsername: "ada"}, now)
	require.NoError(t, err)

	p, err := Decode(merged)
	require.NoError(t, err)
	assert.Equal(t, "u1", p.UserID)
	assert.Equal(t, "ada", p.Username)
	assert.True(t, p.CreatedAt.Equal(now))
}
