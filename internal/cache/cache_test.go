package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type standing struct {
	FarmerID string `json:"farmer_id"`
	Points   int    `json:"points"`
}

func TestInMemoryCacheExpiry(t *testing.T) {
	ctx := context.Background()
	c := NewInMemoryCache()
	now := time.Date(2024, time.March, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	require.NoError(t, c.Set(ctx, "k", []byte("v"), time.Minute))

	got, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), got)

	now = now.Add(2 * time.Minute)
	_, err = c.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Zero(t, c.Len())
}

func TestInMemoryCacheDelete(t *testing.T) {
	ctx := context.Background()
	c := NewInMemoryCache()

	require.NoError(t, c.Set(ctx, FarmerStandingKey("a"), []byte("1"), time.Minute))
	require.NoError(t, c.Set(ctx, FarmerStandingKey("b"), []byte("2"), time.Minute))
	require.NoError(t, c.Delete(ctx, FarmerStandingKey("a"), FarmerStandingKey("b")))

	_, err := c.Get(ctx, FarmerStandingKey("a"))
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Zero(t, c.Len())
}

func TestJSONHelpers(t *testing.T) {
	ctx := context.Background()
	c := NewInMemoryCache()

	in := standing{FarmerID: "f1", Points: 9}
	require.NoError(t, SetJSON(ctx, c, FarmerStandingKey("f1"), in, time.Minute))

	var out standing
	require.NoError(t, GetJSON(ctx, c, FarmerStandingKey("f1"), &out))
	assert.Equal(t, in, out)

	assert.ErrorIs(t, GetJSON(ctx, c, FarmerStandingKey("missing"), &out), ErrNotFound)
}

func TestNoop(t *testing.T) {
	ctx := context.Background()
	var c Cache = Noop{}
	require.NoError(t, c.Set(ctx, "k", []byte("v"), time.Minute))
	_, err := c.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestKeys(t *testing.T) {
	assert.Equal(t, "agri-ledger:standing:f1", FarmerStandingKey("f1"))
	assert.Equal(t, "agri-ledger:program:p1", ProgramSummaryKey("p1"))
}
