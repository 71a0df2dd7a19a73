package cache

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/umair-farooq/solana-swap-engine/internal/models"
)

func setupTestCache(t *testing.T) *RedisCache {
	client := redis.NewClient(&redis.Options{
		Addr: "localhost:6379",
		DB:   2, // Use different DB for tests
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		t.Skipf("Redis not available: %v", err)
	}
	require.NoError(t, client.FlushDB(ctx).Err())

	cache := NewRedisCacheFromClient(client, nil)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = client.FlushDB(ctx).Err()
		_ = cache.Close()
	})
	return cache
}

func sampleSwap(sig string) *models.SwapRecord {
	return &models.SwapRecord{
		Signature: sig,
		Timestamp: time.Now().UTC().Truncate(time.Second),
		Pair:      "SOL/USDC",
		SellMint:  "So11111111111111111111111111111111111111112",
		BuyMint:   "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v",
		Side:      "Sell",
		AmountIn:  1_000_000_000,
		AmountOut: 150_000_000,
		PoolID:    "wsol-usdc",
		Status:    "Succeeded",
	}
}

func TestRecentSwapsNewestFirst(t *testing.T) {
	cache := setupTestCache(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, cache.AddRecentSwap(ctx, sampleSwap(fmt.Sprintf("sig-%d", i))))
	}

	swaps, err := cache.GetRecentSwaps(ctx, 10)
	require.NoError(t, err)
	require.Len(t, swaps, 3)
	assert.Equal(t, "sig-2", swaps[0].Signature)
	assert.Equal(t, "sig-0", swaps[2].Signature)

	swaps, err = cache.GetRecentSwaps(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, swaps, 2)
}

func TestRecentSwapsCapped(t *testing.T) {
	cache := setupTestCache(t)
	ctx := context.Background()

	for i := 0; i < recentSwapsMax+20; i++ {
		require.NoError(t, cache.AddRecentSwap(ctx, sampleSwap(fmt.Sprintf("sig-%d", i))))
	}

	swaps, err := cache.GetRecentSwaps(ctx, recentSwapsMax)
	require.NoError(t, err)
	assert.Len(t, swaps, recentSwapsMax)
	// The oldest entries were trimmed away.
	assert.Equal(t, fmt.Sprintf("sig-%d", recentSwapsMax+19), swaps[0].Signature)
}

func TestPriceRoundTrip(t *testing.T) {
	cache := setupTestCache(t)
	ctx := context.Background()

	_, err := cache.GetPrice(ctx, "SOL/USDC")
	assert.Error(t, err)

	require.NoError(t, cache.UpdatePrice(ctx, "SOL/USDC", 151.25))
	price, err := cache.GetPrice(ctx, "SOL/USDC")
	require.NoError(t, err)
	assert.Equal(t, 151.25, price)
}

func TestPublishSubscribe(t *testing.T) {
	cache := setupTestCache(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	swaps, err := cache.SubscribeSwaps(ctx)
	require.NoError(t, err)

	want := sampleSwap("pub-sig")
	require.NoError(t, cache.PublishSwap(ctx, want))

	select {
	case got := <-swaps:
		require.NotNil(t, got)
		assert.Equal(t, want.Signature, got.Signature)
		assert.Equal(t, want.Pair, got.Pair)
		assert.Equal(t, want.AmountOut, got.AmountOut)
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for published swap")
	}
}
