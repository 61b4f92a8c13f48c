package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/flicky/marketplace-api/internal/model"
)

const (
	productKeyPrefix     = "product:"
	productListKey       = "products:all"
	eventKeyPrefix       = "order_event:"
	sellerStatsKeyPrefix = "seller_stats:"
)

// ProductCache is a read-through cache in front of the catalog.
type ProductCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewProductCache(client *redis.Client, ttl time.Duration) *ProductCache {
	return &ProductCache{client: client, ttl: ttl}
}

// Get reports a miss as (false, nil).
func (c *ProductCache) Get(ctx context.Context, id int64, dst any) (bool, error) {
	return c.getJSON(ctx, productKey(id), dst)
}

func (c *ProductCache) Set(ctx context.Context, id int64, v any) error {
	return c.setJSON(ctx, productKey(id), v)
}

func (c *ProductCache) GetList(ctx context.Context, dst any) (bool, error) {
	return c.getJSON(ctx, productListKey, dst)
}

func (c *ProductCache) SetList(ctx context.Context, v any) error {
	return c.setJSON(ctx, productListKey, v)
}

// Invalidate drops the product entry and the cached catalog listing.
func (c *ProductCache) Invalidate(ctx context.Context, id int64) error {
	return c.client.Del(ctx, productKey(id), productListKey).Err()
}

func (c *ProductCache) InvalidateList(ctx context.Context) error {
	return c.client.Del(ctx, productListKey).Err()
}

func (c *ProductCache) getJSON(ctx context.Context, key string, dst any) (bool, error) {
	data, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return false, fmt.Errorf("decode %s: %w", key, err)
	}
	return true, nil
}

func (c *ProductCache) setJSON(ctx context.Context, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, key, data, c.ttl).Err()
}

func productKey(id int64) string {
	return productKeyPrefix + strconv.FormatInt(id, 10)
}

// IdempotencyStore remembers which order events were already handled.
type IdempotencyStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewIdempotencyStore(client *redis.Client, ttl time.Duration) *IdempotencyStore {
	return &IdempotencyStore{client: client, ttl: ttl}
}

// Claim reserves the event id with SETNX. Only the first caller gets true.
func (s *IdempotencyStore) Claim(ctx context.Context, eventID string) (bool, error) {
	return s.client.SetNX(ctx, eventKeyPrefix+eventID, "1", s.ttl).Result()
}

// Release drops a claim so a failed event can be retried.
func (s *IdempotencyStore) Release(ctx context.Context, eventID string) error {
	return s.client.Del(ctx, eventKeyPrefix+eventID).Err()
}

// SellerStatsStore keeps per-seller counters in a Redis hash.
type SellerStatsStore struct {
	client *redis.Client
}

func NewSellerStatsStore(client *redis.Client) *SellerStatsStore {
	return &SellerStatsStore{client: client}
}

const (
	fieldOrdersReceived  = "orders_received"
	fieldOrdersDelivered = "orders_delivered"
	fieldUnitsSold       = "units_sold"
	fieldRevenueCents    = "revenue_cents"
)

// RecordPlaced counts one received order for the seller. Revenue is kept in
// whole cents.
func (s *SellerStatsStore) RecordPlaced(ctx context.Context, sellerID int64, units int64, revenue decimal.Decimal) error {
	key := sellerStatsKey(sellerID)
	cents := revenue.Shift(2).Round(0).IntPart()
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HIncrBy(ctx, key, fieldOrdersReceived, 1)
		pipe.HIncrBy(ctx, key, fieldUnitsSold, units)
		pipe.HIncrBy(ctx, key, fieldRevenueCents, cents)
		return nil
	})
	return err
}

func (s *SellerStatsStore) RecordDelivered(ctx context.Context, sellerID int64) error {
	return s.client.HIncrBy(ctx, sellerStatsKey(sellerID), fieldOrdersDelivered, 1).Err()
}

// Get returns zeroed stats for a seller with no recorded activity.
func (s *SellerStatsStore) Get(ctx context.Context, sellerID int64) (*model.SellerStats, error) {
	values, err := s.client.HGetAll(ctx, sellerStatsKey(sellerID)).Result()
	if err != nil {
		return nil, err
	}
	stats := &model.SellerStats{SellerID: sellerID, Revenue: decimal.Zero}
	stats.OrdersReceived, _ = strconv.ParseInt(values[fieldOrdersReceived], 10, 64)
	stats.OrdersDelivered, _ = strconv.ParseInt(values[fieldOrdersDelivered], 10, 64)
	stats.UnitsSold, _ = strconv.ParseInt(values[fieldUnitsSold], 10, 64)
	cents, _ := strconv.ParseInt(values[fieldRevenueCents], 10, 64)
	stats.Revenue = decimal.New(cents, -2)
	return stats, nil
}

func sellerStatsKey(sellerID int64) string {
	return sellerStatsKeyPrefix + strconv.FormatInt(sellerID, 10)
}
