package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sharkfunded/risk-engine/pkg/types"
)

type countingConfigStore struct {
	configs map[string]*types.RiskRuleConfig
	err     error
	calls   int
}

func (c *countingConfigStore) GetRiskRuleConfig(_ context.Context, group string) (*types.RiskRuleConfig, error) {
	c.calls++
	if c.err != nil {
		return nil, c.err
	}
	cfg, ok := c.configs[group]
	if !ok {
		return nil, ErrNotFound
	}
	return cfg, nil
}

// TestRiskConfigCache_ServesFromCacheWithinTTL hits the inner store once for
// repeated lookups of the same group.
func TestRiskConfigCache_ServesFromCacheWithinTTL(t *testing.T) {
	inner := &countingConfigStore{configs: map[string]*types.RiskRuleConfig{
		"demo\\5k": {GroupName: "demo\\5k", DailyLimitPercent: 5},
	}}
	cache := NewRiskConfigCache(inner, time.Minute)

	for i := 0; i < 50; i++ {
		cfg, err := cache.GetRiskRuleConfig(context.Background(), "demo\\5k")
		require.NoError(t, err)
		assert.Equal(t, 5.0, cfg.DailyLimitPercent)
	}

	assert.Equal(t, 1, inner.calls)
}

// TestRiskConfigCache_ExpiredEntryRefreshes re-reads the inner store after
// the TTL elapses and picks up the new value.
func TestRiskConfigCache_ExpiredEntryRefreshes(t *testing.T) {
	inner := &countingConfigStore{configs: map[string]*types.RiskRuleConfig{
		"demo\\5k": {GroupName: "demo\\5k", DailyLimitPercent: 5},
	}}
	cache := NewRiskConfigCache(inner, time.Millisecond)

	_, err := cache.GetRiskRuleConfig(context.Background(), "demo\\5k")
	require.NoError(t, err)

	inner.configs["demo\\5k"].DailyLimitPercent = 4
	time.Sleep(5 * time.Millisecond)

	cfg, err := cache.GetRiskRuleConfig(context.Background(), "demo\\5k")
	require.NoError(t, err)
	assert.Equal(t, 4.0, cfg.DailyLimitPercent)
	assert.Equal(t, 2, inner.calls)
}

// TestRiskConfigCache_MissesNotCached keeps asking the inner store while the
// group has no config, so a new group appears without waiting out a TTL.
func TestRiskConfigCache_MissesNotCached(t *testing.T) {
	inner := &countingConfigStore{configs: map[string]*types.RiskRuleConfig{}}
	cache := NewRiskConfigCache(inner, time.Minute)

	_, err := cache.GetRiskRuleConfig(context.Background(), "new-group")
	assert.ErrorIs(t, err, ErrNotFound)

	inner.configs["new-group"] = &types.RiskRuleConfig{GroupName: "new-group", DailyLimitPercent: 3}

	cfg, err := cache.GetRiskRuleConfig(context.Background(), "new-group")
	require.NoError(t, err)
	assert.Equal(t, 3.0, cfg.DailyLimitPercent)
}

// TestRiskConfigCache_ServesStaleOnInnerError keeps the sweep running on the
// last known policy when the config store errors, but still surfaces a
// genuine miss.
func TestRiskConfigCache_ServesStaleOnInnerError(t *testing.T) {
	inner := &countingConfigStore{configs: map[string]*types.RiskRuleConfig{
		"demo\\5k": {GroupName: "demo\\5k", DailyLimitPercent: 5},
	}}
	cache := NewRiskConfigCache(inner, time.Millisecond)

	_, err := cache.GetRiskRuleConfig(context.Background(), "demo\\5k")
	require.NoError(t, err)

	time.Sleep(5 * time.Millisecond)
	inner.err = errors.New("database is locked")

	cfg, err := cache.GetRiskRuleConfig(context.Background(), "demo\\5k")
	require.NoError(t, err)
	assert.Equal(t, 5.0, cfg.DailyLimitPercent)
}

// TestRiskConfigCache_InvalidateForcesRefresh drops the entry so the next
// lookup re-reads.
func TestRiskConfigCache_InvalidateForcesRefresh(t *testing.T) {
	inner := &countingConfigStore{configs: map[string]*types.RiskRuleConfig{
		"demo\\5k": {GroupName: "demo\\5k", DailyLimitPercent: 5},
	}}
	cache := NewRiskConfigCache(inner, time.Hour)

	_, err := cache.GetRiskRuleConfig(context.Background(), "demo\\5k")
	require.NoError(t, err)

	cache.Invalidate("demo\\5k")

	_, err = cache.GetRiskRuleConfig(context.Background(), "demo\\5k")
	require.NoError(t, err)
	assert.Equal(t, 2, inner.calls)
}
