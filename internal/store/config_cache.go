package store

import (
	"context"
	"sync"
	"time"

	"github.com/sharkfunded/risk-engine/pkg/types"
)

// RiskConfigCache is a read-through cache over a RiskConfigStore with an
// explicit TTL. One sweep touches the same few groups hundreds of times;
// without the cache every account would cost a config query.
//
// Misses (ErrNotFound) are not cached: a group that gains a config mid-TTL
// becomes visible on the next lookup.
type RiskConfigCache struct {
	inner RiskConfigStore
	ttl   time.Duration

	mu      sync.RWMutex
	entries map[string]cacheEntry
}

type cacheEntry struct {
	cfg       types.RiskRuleConfig
	fetchedAt time.Time
}

// NewRiskConfigCache wraps a RiskConfigStore with TTL caching.
func NewRiskConfigCache(inner RiskConfigStore, ttl time.Duration) *RiskConfigCache {
	return &RiskConfigCache{
		inner:   inner,
		ttl:     ttl,
		entries: make(map[string]cacheEntry),
	}
}

// GetRiskRuleConfig returns the cached policy for a group, refreshing from
// the inner store when the entry is older than the TTL.
func (c *RiskConfigCache) GetRiskRuleConfig(ctx context.Context, group string) (*types.RiskRuleConfig, error) {
	c.mu.RLock()
	entry, ok := c.entries[group]
	c.mu.RUnlock()

	if ok && time.Since(entry.fetchedAt) < c.ttl {
		cfg := entry.cfg
		return &cfg, nil
	}

	cfg, err := c.inner.GetRiskRuleConfig(ctx, group)
	if err != nil {
		// Serve the stale entry rather than failing the account when the
		// config store itself errors; a missing config still surfaces.
		if ok && err != ErrNotFound {
			stale := entry.cfg
			return &stale, nil
		}
		return nil, err
	}

	c.mu.Lock()
	c.entries[group] = cacheEntry{cfg: *cfg, fetchedAt: time.Now()}
	c.mu.Unlock()

	return cfg, nil
}

// Invalidate drops a group's cached entry.
func (c *RiskConfigCache) Invalidate(group string) {
	c.mu.Lock()
	delete(c.entries, group)
	c.mu.Unlock()
}
