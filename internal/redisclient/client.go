package redisclient

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

const changeChannelPrefix = "pos:changes:"

type Client struct {
	rdb *redis.Client
}

// NewClient creates a new Redis client
func NewClient(addr, password string, db int) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return &Client{rdb: rdb}, nil
}

// GetClient returns the underlying Redis client
func (c *Client) GetClient() *redis.Client {
	return c.rdb
}

// Close closes the Redis connection
func (c *Client) Close() error {
	return c.rdb.Close()
}

// PublishChange announces that a table changed, waking up every other
// process subscribed to it.
func (c *Client) PublishChange(ctx context.Context, table string) error {
	return c.rdb.Publish(ctx, changeChannelPrefix+table, "changed").Err()
}

// SubscribeChanges invokes onChange whenever any process announces a
// change to the table. The returned function tears the subscription down.
func (c *Client) SubscribeChanges(table string, onChange func()) (func(), error) {
	ctx, cancel := context.WithCancel(context.Background())
	pubsub := c.rdb.Subscribe(ctx, changeChannelPrefix+table)

	if _, err := pubsub.Receive(ctx); err != nil {
		cancel()
		return nil, fmt.Errorf("failed to subscribe to %s changes: %w", table, err)
	}

	go func() {
		for range pubsub.Channel() {
			onChange()
		}
	}()

	return func() {
		_ = pubsub.Close()
		cancel()
	}, nil
}

// CacheSummary stores a serialized report summary with a TTL.
func (c *Client) CacheSummary(ctx context.Context, payload []byte, ttl time.Duration) error {
	return c.rdb.Set(ctx, "pos:reports:summary", payload, ttl).Err()
}

// GetCachedSummary retrieves the cached report summary, or nil when the
// cache is cold.
func (c *Client) GetCachedSummary(ctx context.Context) ([]byte, error) {
	payload, err := c.rdb.Get(ctx, "pos:reports:summary").Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return payload, nil
}

// InvalidateSummary drops the cached report summary.
func (c *Client) InvalidateSummary(ctx context.Context) error {
	return c.rdb.Del(ctx, "pos:reports:summary").Err()
}

// RecordSale folds a completed order into the day's sales aggregate.
func (c *Client) RecordSale(ctx context.Context, day string, total float64) error {
	key := fmt.Sprintf("pos:sales:%s", day)

	pipe := c.rdb.Pipeline()
	pipe.HIncrByFloat(ctx, key, "revenue", total)
	pipe.HIncrBy(ctx, key, "orders", 1)

	_, err := pipe.Exec(ctx)
	return err
}

// GetDailySales retrieves the aggregate for one day.
func (c *Client) GetDailySales(ctx context.Context, day string) (revenue float64, orders int64, err error) {
	key := fmt.Sprintf("pos:sales:%s", day)

	result, err := c.rdb.HGetAll(ctx, key).Result()
	if err != nil {
		return 0, 0, err
	}
	if len(result) == 0 {
		return 0, 0, nil
	}

	fmt.Sscanf(result["revenue"], "%g", &revenue)
	fmt.Sscanf(result["orders"], "%d", &orders)
	return revenue, orders, nil
}
