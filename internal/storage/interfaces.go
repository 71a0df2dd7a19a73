package storage

import (
	"context"
	"io"

	"github.com/umair-farooq/solana-swap-engine/internal/models"
)

// SwapCache defines the interface for the hot-path cache of executed swaps
type SwapCache interface {
	// AddRecentSwap adds a swap to the recent swaps list
	AddRecentSwap(ctx context.Context, swap *models.SwapRecord) error

	// GetRecentSwaps retrieves the most recent swaps
	GetRecentSwaps(ctx context.Context, limit int64) ([]*models.SwapRecord, error)

	// UpdatePrice updates the last observed price for a pair
	UpdatePrice(ctx context.Context, pair string, price float64) error

	// GetPrice retrieves the last observed price for a pair
	GetPrice(ctx context.Context, pair string) (float64, error)

	// PublishSwap publishes a swap record to the Pub/Sub channel
	PublishSwap(ctx context.Context, swap *models.SwapRecord) error

	// SubscribeSwaps subscribes to real-time swap records
	SubscribeSwaps(ctx context.Context) (<-chan *models.SwapRecord, error)

	// Ping checks if the cache is reachable
	Ping(ctx context.Context) error

	// Close closes the cache connection
	io.Closer
}

// SwapStore defines the interface for persistent swap history
type SwapStore interface {
	// InsertSwap inserts a swap record into the store
	InsertSwap(ctx context.Context, swap *models.SwapRecord) error

	// Ping checks if the store is reachable
	Ping(ctx context.Context) error

	// Close closes the store connection
	io.Closer
}
