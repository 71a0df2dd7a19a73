package cache

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/umair-farooq/solana-swap-engine/internal/models"
)

const (
	recentSwapsKey  = "swaps:recent"
	recentSwapsMax  = 100
	priceKeyPrefix  = "price:"
	swapsChannelAll = "swaps:executed"
)

// RedisCache keeps the hot read path: a capped list of recent swaps, last
// observed pair prices, and a pub/sub feed of executed swaps.
type RedisCache struct {
	client *redis.Client
	logger *logrus.Logger
}

func NewRedisCache(addr string, logger *logrus.Logger) *RedisCache {
	client := redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   0,
	})
	return NewRedisCacheFromClient(client, logger)
}

func NewRedisCacheFromClient(client *redis.Client, logger *logrus.Logger) *RedisCache {
	if logger == nil {
		logger = logrus.New()
	}
	return &RedisCache{client: client, logger: logger}
}

func (r *RedisCache) AddRecentSwap(ctx context.Context, swap *models.SwapRecord) error {
	data, err := json.Marshal(swap)
	if err != nil {
		return fmt.Errorf("marshal swap: %w", err)
	}

	pipe := r.client.Pipeline()
	pipe.LPush(ctx, recentSwapsKey, data)
	pipe.LTrim(ctx, recentSwapsKey, 0, recentSwapsMax-1)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("push recent swap: %w", err)
	}
	return nil
}

func (r *RedisCache) GetRecentSwaps(ctx context.Context, limit int64) ([]*models.SwapRecord, error) {
	if limit <= 0 || limit > recentSwapsMax {
		limit = recentSwapsMax
	}

	raw, err := r.client.LRange(ctx, recentSwapsKey, 0, limit-1).Result()
	if err != nil {
		return nil, fmt.Errorf("read recent swaps: %w", err)
	}

	swaps := make([]*models.SwapRecord, 0, len(raw))
	for _, item := range raw {
		var swap models.SwapRecord
		if err := json.Unmarshal([]byte(item), &swap); err != nil {
			r.logger.WithError(err).Warn("skipping corrupt cached swap")
			continue
		}
		swaps = append(swaps, &swap)
	}
	return swaps, nil
}

func (r *RedisCache) UpdatePrice(ctx context.Context, pair string, price float64) error {
	return r.client.Set(ctx, priceKeyPrefix+pair, price, 0).Err()
}

func (r *RedisCache) GetPrice(ctx context.Context, pair string) (float64, error) {
	val, err := r.client.Get(ctx, priceKeyPrefix+pair).Float64()
	if err == redis.Nil {
		return 0, fmt.Errorf("no price cached for %s", pair)
	}
	if err != nil {
		return 0, fmt.Errorf("read price for %s: %w", pair, err)
	}
	return val, nil
}

func (r *RedisCache) PublishSwap(ctx context.Context, swap *models.SwapRecord) error {
	data, err := json.Marshal(swap)
	if err != nil {
		return fmt.Errorf("marshal swap: %w", err)
	}

	// Fan out to the firehose plus a pair-scoped channel.
	pipe := r.client.Pipeline()
	pipe.Publish(ctx, swapsChannelAll, data)
	pipe.Publish(ctx, fmt.Sprintf("swaps:pair:%s", swap.Pair), data)
	_, err = pipe.Exec(ctx)
	return err
}

func (r *RedisCache) SubscribeSwaps(ctx context.Context) (<-chan *models.SwapRecord, error) {
	pubsub := r.client.Subscribe(ctx, swapsChannelAll)
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return nil, fmt.Errorf("subscribe to %s: %w", swapsChannelAll, err)
	}

	out := make(chan *models.SwapRecord, 16)
	go func() {
		defer close(out)
		defer pubsub.Close()

		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-pubsub.Channel():
				if !ok {
					return
				}
				var swap models.SwapRecord
				if err := json.Unmarshal([]byte(msg.Payload), &swap); err != nil {
					r.logger.WithError(err).Warn("skipping malformed swap message")
					continue
				}
				select {
				case out <- &swap:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}

func (r *RedisCache) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *RedisCache) Close() error {
	return r.client.Close()
}
