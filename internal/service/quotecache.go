package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/Shade1269/atlannew-sub000/internal/carrier"
	"github.com/Shade1269/atlannew-sub000/internal/domain"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
)

// QuoteCache stores completed quote results by request key. A hit means
// the checkout state that produced the key is unchanged and the fetch can
// be suppressed.
type QuoteCache interface {
	Get(ctx context.Context, key domain.QuoteRequestKey) ([]carrier.Quote, bool)
	Set(ctx context.Context, key domain.QuoteRequestKey, quotes []carrier.Quote, ttl time.Duration)
}

func cacheKey(key domain.QuoteRequestKey) string {
	return fmt.Sprintf("quotes:%s:%d:%s:%s:%s",
		key.City, key.ItemCount, key.PaymentMethod, key.Subtotal, key.VendorID)
}

// =============================================================================
// In-memory cache (default)
// =============================================================================

// MemoryQuoteCache is a process-local QuoteCache.
type MemoryQuoteCache struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
}

type memoryEntry struct {
	quotes    []carrier.Quote
	expiresAt time.Time
}

// NewMemoryQuoteCache creates an empty in-memory quote cache.
func NewMemoryQuoteCache() *MemoryQuoteCache {
	return &MemoryQuoteCache{entries: make(map[string]memoryEntry)}
}

func (c *MemoryQuoteCache) Get(_ context.Context, key domain.QuoteRequestKey) ([]carrier.Quote, bool) {
	c.mu.RLock()
	entry, ok := c.entries[cacheKey(key)]
	c.mu.RUnlock()

	if !ok || time.Now().After(entry.expiresAt) {
		return nil, false
	}
	return entry.quotes, true
}

func (c *MemoryQuoteCache) Set(_ context.Context, key domain.QuoteRequestKey, quotes []carrier.Quote, ttl time.Duration) {
	c.mu.Lock()
	c.entries[cacheKey(key)] = memoryEntry{quotes: quotes, expiresAt: time.Now().Add(ttl)}
	c.mu.Unlock()
}

// =============================================================================
// Redis cache (shared across instances)
// =============================================================================

// RedisQuoteCache shares quote results across service instances.
type RedisQuoteCache struct {
	client *redis.Client
	logger *slog.Logger
}

// NewRedisQuoteCache creates a Redis-backed quote cache.
func NewRedisQuoteCache(client *redis.Client, logger *slog.Logger) *RedisQuoteCache {
	if logger == nil {
		logger = slog.Default()
	}
	return &RedisQuoteCache{client: client, logger: logger}
}

type cachedQuote struct {
	CarrierID     string `json:"carrier_id"`
	CarrierName   string `json:"carrier_name"`
	CarrierCode   string `json:"carrier_code"`
	ServiceType   string `json:"service_type"`
	Price         string `json:"price"`
	EstimatedDays int    `json:"estimated_days"`
}

func (c *RedisQuoteCache) Get(ctx context.Context, key domain.QuoteRequestKey) ([]carrier.Quote, bool) {
	raw, err := c.client.Get(ctx, cacheKey(key)).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.Warn("quote cache read failed", "error", err)
		}
		return nil, false
	}

	var cached []cachedQuote
	if err := json.Unmarshal(raw, &cached); err != nil {
		c.logger.Warn("quote cache entry corrupt", "error", err)
		return nil, false
	}

	quotes := make([]carrier.Quote, 0, len(cached))
	for _, cq := range cached {
		price, err := decimal.NewFromString(cq.Price)
		if err != nil {
			return nil, false
		}
		quotes = append(quotes, carrier.Quote{
			CarrierID:     cq.CarrierID,
			CarrierName:   cq.CarrierName,
			CarrierCode:   cq.CarrierCode,
			ServiceType:   cq.ServiceType,
			Price:         price,
			EstimatedDays: cq.EstimatedDays,
		})
	}
	return quotes, true
}

func (c *RedisQuoteCache) Set(ctx context.Context, key domain.QuoteRequestKey, quotes []carrier.Quote, ttl time.Duration) {
	cached := make([]cachedQuote, 0, len(quotes))
	for _, q := range quotes {
		cached = append(cached, cachedQuote{
			CarrierID:     q.CarrierID,
			CarrierName:   q.CarrierName,
			CarrierCode:   q.CarrierCode,
			ServiceType:   q.ServiceType,
			Price:         q.Price.String(),
			EstimatedDays: q.EstimatedDays,
		})
	}

	raw, err := json.Marshal(cached)
	if err != nil {
		c.logger.Warn("quote cache encode failed", "error", err)
		return
	}

	if err := c.client.Set(ctx, cacheKey(key), raw, ttl).Err(); err != nil {
		c.logger.Warn("quote cache write failed", "error", err)
	}
}
