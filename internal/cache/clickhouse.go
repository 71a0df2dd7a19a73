package cache

import (
	"context"
	"fmt"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"github.com/sirupsen/logrus"

	"github.com/umair-farooq/solana-swap-engine/internal/models"
)

// ClickHouseStore persists executed swaps for offline analysis. The serving
// path never reads from it; recent history is answered from Redis.
type ClickHouseStore struct {
	conn   driver.Conn
	logger *logrus.Logger
}

func NewClickHouseStore(addr, database, username, password string, logger *logrus.Logger) (*ClickHouseStore, error) {
	if logger == nil {
		logger = logrus.New()
	}
	if database == "" {
		database = "solana"
	}

	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{addr},
		Auth: clickhouse.Auth{
			Database: database,
			Username: username,
			Password: password,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to ClickHouse: %w", err)
	}

	if err := conn.Ping(context.Background()); err != nil {
		return nil, fmt.Errorf("failed to ping ClickHouse: %w", err)
	}

	logger.Info("connected to ClickHouse")
	return &ClickHouseStore{conn: conn, logger: logger}, nil
}

func (c *ClickHouseStore) InsertSwap(ctx context.Context, swap *models.SwapRecord) error {
	query := `
		INSERT INTO executed_swaps (
			signature, timestamp, wallet, pair,
			sell_mint, buy_mint, side,
			amount_in, amount_out, fee_paid,
			pool_id, pool_kind, price_impact, slippage_bps, status
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	err := c.conn.Exec(ctx, query,
		swap.Signature,
		swap.Timestamp,
		swap.Wallet,
		swap.Pair,
		swap.SellMint,
		swap.BuyMint,
		swap.Side,
		swap.AmountIn,
		swap.AmountOut,
		swap.FeePaid,
		swap.PoolID,
		swap.PoolKind,
		swap.PriceImpact,
		swap.SlippageBps,
		swap.Status,
	)
	if err != nil {
		return fmt.Errorf("failed to insert swap: %w", err)
	}
	return nil
}

func (c *ClickHouseStore) Ping(ctx context.Context) error {
	return c.conn.Ping(ctx)
}

func (c *ClickHouseStore) Close() error {
	return c.conn.Close()
}
