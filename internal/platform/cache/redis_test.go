package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSONRoundTripAndMiss(t *testing.T) {
	mr := miniredis.RunT(t)
	client, err := New(context.Background(), mr.Addr(), "", 0)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	ctx := context.Background()
	var out map[string]int
	hit, err := GetJSON(ctx, client, "missing", &out)
	require.NoError(t, err)
	assert.False(t, hit)

	require.NoError(t, SetJSON(ctx, client, "k", map[string]int{"a": 1}, time.Minute))
	hit, err = GetJSON(ctx, client, "k", &out)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, 1, out["a"])

	mr.FastForward(2 * time.Minute)
	hit, err = GetJSON(ctx, client, "k", &out)
	require.NoError(t, err)
	assert.False(t, hit)
}
