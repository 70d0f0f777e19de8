// Package rate resolves the effective unit price of a bet for an agent and
// draw, with the rate-table fallback chain: specific draw, then the agent's
// "All" table, then static defaults.
package rate

import (
	"context"
	"fmt"

	"lotto-engine/internal/draw"
	"lotto-engine/internal/model"
	"lotto-engine/internal/pkg/cache"
)

// Static default unit rates, used when an agent has no rate table at all.
const (
	DefaultSingleDigitRate = 12
	DefaultRate            = 10
)

// DefaultFor returns the static default unit rate for a bet type.
func DefaultFor(t model.BetType) float64 {
	if t.IsSingleDigit() {
		return DefaultSingleDigitRate
	}
	return DefaultRate
}

// Store is the rate-table repository contract.
type Store interface {
	// Get returns the agent's rate table for an exact draw key
	// (a canonical label or "All"), or nil when absent.
	Get(ctx context.Context, agentID, drawKey string) (*model.RateTable, error)
}

// Resolver resolves unit rates with a bounded TTL cache in front of the
// store. Rate-table writes must call Invalidate.
type Resolver struct {
	store Store
	cache *cache.Cache
}

// NewResolver creates a Resolver. cache may be nil to disable caching.
func NewResolver(store Store, c *cache.Cache) *Resolver {
	return &Resolver{store: store, cache: c}
}

// Table returns the agent's effective unit-rate map for a draw. The draw
// label is canonicalized before lookup so regional aliases share one table.
func (r *Resolver) Table(ctx context.Context, agentID, drawLabel string) (map[model.BetType]float64, error) {
	canonical := draw.Canonical(drawLabel)
	cacheKey := agentID + "|" + canonical

	if r.cache != nil {
		if v, ok := r.cache.Get(cacheKey); ok {
			return v.(map[model.BetType]float64), nil
		}
	}

	table, err := r.store.Get(ctx, agentID, canonical)
	if err != nil {
		return nil, fmt.Errorf("failed to get rate table: %w", err)
	}
	if table == nil {
		table, err = r.store.Get(ctx, agentID, model.RateTableAll)
		if err != nil {
			return nil, fmt.Errorf("failed to get fallback rate table: %w", err)
		}
	}

	rates := make(map[model.BetType]float64, len(model.AllBetTypes()))
	for _, t := range model.AllBetTypes() {
		rates[t] = DefaultFor(t)
	}
	if table != nil {
		for _, row := range table.Rows {
			rates[row.BetType] = row.Rate
		}
	}

	if r.cache != nil {
		r.cache.Set(cacheKey, rates)
	}
	return rates, nil
}

// Resolve returns the unit rate for one bet type.
func (r *Resolver) Resolve(ctx context.Context, agentID, drawLabel string, betType model.BetType) (float64, error) {
	rates, err := r.Table(ctx, agentID, drawLabel)
	if err != nil {
		return 0, err
	}
	return rates[betType], nil
}

// Invalidate drops the agent's cached tables after a rate-table write. An
// "All" table write can change the effective rates of any draw, so every
// canonical label is dropped along with it.
func (r *Resolver) Invalidate(agentID string) {
	if r.cache == nil {
		return
	}
	for _, label := range []string{draw.LabelDear1, draw.LabelKerala, draw.LabelDear6, draw.LabelDear8, model.RateTableAll} {
		r.cache.Delete(agentID + "|" + label)
	}
}
