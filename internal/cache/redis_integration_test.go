//go:build integration

package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agri-ledger/internal/testutil/containers"
)

func TestRedisCache(t *testing.T) {
	rc := containers.NewRedisContainer(t)
	c := NewRedisCacheFromClient(rc.Client)
	ctx := context.Background()

	_, err := c.Get(ctx, FarmerStandingKey("f1"))
	require.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, SetJSON(ctx, c, FarmerStandingKey("f1"), standing{FarmerID: "f1", Points: 3}, time.Minute))

	var out standing
	require.NoError(t, GetJSON(ctx, c, FarmerStandingKey("f1"), &out))
	assert.Equal(t, 3, out.Points)

	require.NoError(t, c.Delete(ctx, FarmerStandingKey("f1")))
	_, err = c.Get(ctx, FarmerStandingKey("f1"))
	assert.ErrorIs(t, err, ErrNotFound)
}
