package redisclient

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLockRoundTrip(t *testing.T) {
	t.Skip("Integration test - requires Redis")

	client, err := NewClient("localhost:6379", "", 0)
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })

	ctx := context.Background()

	acquired, err := client.AcquireLock(ctx, "bootstrap", 10*time.Second)
	require.NoError(t, err)
	assert.True(t, acquired)

	// A second holder must not acquire the same lock.
	acquired, err = client.AcquireLock(ctx, "bootstrap", 10*time.Second)
	require.NoError(t, err)
	assert.False(t, acquired)

	require.NoError(t, client.ReleaseLock(ctx, "bootstrap"))

	acquired, err = client.AcquireLock(ctx, "bootstrap", 10*time.Second)
	require.NoError(t, err)
	assert.True(t, acquired)
	require.NoError(t, client.ReleaseLock(ctx, "bootstrap"))
}

func TestCacheRoundTrip(t *testing.T) {
	t.Skip("Integration test - requires Redis")

	client, err := NewClient("localhost:6379", "", 0)
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })

	ctx := context.Background()
	type summary struct {
		Total float64 `json:"total"`
	}

	require.NoError(t, client.SetJSON(ctx, KeyDashboard, summary{Total: 1200}, DefaultTTL))

	var got summary
	hit, err := client.GetJSON(ctx, KeyDashboard, &got)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.InDelta(t, 1200, got.Total, 0.001)

	require.NoError(t, client.Invalidate(ctx, KeyDashboard))

	hit, err = client.GetJSON(ctx, KeyDashboard, &got)
	require.NoError(t, err)
	assert.False(t, hit)
}
