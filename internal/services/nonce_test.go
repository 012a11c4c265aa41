package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"smart-vault-backend/internal/services"
)

func TestMemoryNonceStoreSpendsOnce(t *testing.T) {
	ctx := context.Background()
	now := time.Unix(1_700_000_000, 0)
	store := services.NewMemoryNonceStore()
	store.SetClock(func() time.Time { return now })

	fresh, err := store.Claim(ctx, "jti-1", time.Minute)
	require.NoError(t, err)
	assert.True(t, fresh)

	fresh, err = store.Claim(ctx, "jti-1", time.Minute)
	require.NoError(t, err)
	assert.False(t, fresh)

	fresh, err = store.Claim(ctx, "jti-2", time.Minute)
	require.NoError(t, err)
	assert.True(t, fresh)
}

func TestMemoryNonceStoreForgetsExpiredIDs(t *testing.T) {
	ctx := context.Background()
	now := time.Unix(1_700_000_000, 0)
	store := services.NewMemoryNonceStore()
	store.SetClock(func() time.Time { return now })

	for _, id := range []string{"a", "b", "c"} {
		_, err := store.Claim(ctx, id, time.Minute)
		require.NoError(t, err)
	}
	assert.Equal(t, 3, store.Len())

	now = now.Add(2 * time.Minute)
	fresh, err := store.Claim(ctx, "d", time.Minute)
	require.NoError(t, err)
	assert.True(t, fresh)
	assert.Equal(t, 1, store.Len())
}
