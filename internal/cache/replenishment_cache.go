package cache

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/andresuchdata/replenish/backend-go/internal/config"
	"github.com/andresuchdata/replenish/backend-go/internal/domain"
	"github.com/redis/go-redis/v9"
)

const (
	suggestionsKeyPrefix = "replenishment:suggestions"
	suggestionsScanBatch = 100
)

// SuggestionCache stores computed suggestion lists keyed by the resolved demand query
type SuggestionCache interface {
	GetSuggestions(ctx context.Context, q domain.DemandQuery) ([]domain.ReplenishmentSuggestion, bool, error)
	SetSuggestions(ctx context.Context, q domain.DemandQuery, suggestions []domain.ReplenishmentSuggestion) error
	InvalidateAll(ctx context.Context) error
}

type redisSuggestionCache struct {
	client *redis.Client
	ttl    time.Duration
}

type noopSuggestionCache struct{}

// NewSuggestionCache returns a Redis cache when enabled and a noop cache otherwise
func NewSuggestionCache(cfg config.CacheConfig) (SuggestionCache, error) {
	if !cfg.Enabled {
		return &noopSuggestionCache{}, nil
	}

	client, ttl, err := newRedisClient(cfg)
	if err != nil {
		return nil, err
	}

	return &redisSuggestionCache{
		client: client,
		ttl:    ttl,
	}, nil
}

func NewNoopSuggestionCache() SuggestionCache {
	return &noopSuggestionCache{}
}

func (c *redisSuggestionCache) GetSuggestions(ctx context.Context, q domain.DemandQuery) ([]domain.ReplenishmentSuggestion, bool, error) {
	payload, err := c.client.Get(ctx, buildSuggestionsKey(q)).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get failed: %w", err)
	}

	var suggestions []domain.ReplenishmentSuggestion
	if err := json.Unmarshal(payload, &suggestions); err != nil {
		return nil, false, fmt.Errorf("decode suggestions cache: %w", err)
	}

	return suggestions, true, nil
}

func (c *redisSuggestionCache) SetSuggestions(ctx context.Context, q domain.DemandQuery, suggestions []domain.ReplenishmentSuggestion) error {
	payload, err := json.Marshal(suggestions)
	if err != nil {
		return fmt.Errorf("encode suggestions cache: %w", err)
	}

	if err := c.client.Set(ctx, buildSuggestionsKey(q), payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (c *redisSuggestionCache) InvalidateAll(ctx context.Context) error {
	return deleteKeysWithPrefix(ctx, c.client, suggestionsKeyPrefix, suggestionsScanBatch)
}

func (n *noopSuggestionCache) GetSuggestions(ctx context.Context, q domain.DemandQuery) ([]domain.ReplenishmentSuggestion, bool, error) {
	return nil, false, nil
}

func (n *noopSuggestionCache) SetSuggestions(ctx context.Context, q domain.DemandQuery, suggestions []domain.ReplenishmentSuggestion) error {
	return nil
}

func (n *noopSuggestionCache) InvalidateAll(ctx context.Context) error {
	return nil
}

func buildSuggestionsKey(q domain.DemandQuery) string {
	return fmt.Sprintf("%s:%s", suggestionsKeyPrefix, demandQueryHash(q))
}

func demandQueryHash(q domain.DemandQuery) string {
	warehouse := "all"
	if q.WarehouseID != nil {
		warehouse = strconv.FormatInt(*q.WarehouseID, 10)
	}

	parts := []string{
		"since=" + formatDay(q.Since),
		"until=" + formatDay(q.Until),
		"warehouse=" + warehouse,
		"anchor=" + formatDay(q.Anchor),
	}

	sum := sha1.Sum([]byte(strings.Join(parts, "|")))
	return hex.EncodeToString(sum[:])
}

func formatDay(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format("2006-01-02")
}
