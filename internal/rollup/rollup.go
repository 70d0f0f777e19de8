// Package rollup maintains the hierarchical sales summaries: every persisted
// batch is credited to the selling agent as self sales and to each ancestor as
// child sales, valued at the seller's own rates at every level.
package rollup

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"lotto-engine/internal/draw"
	"lotto-engine/internal/model"
)

// Store is the summary persistence contract. Increments are atomic upserts so
// concurrent batches never lose updates.
type Store interface {
	// IncrementSummary adds the deltas to the (agent, date, draw) summary,
	// creating it on first write. Total figures are derived as self+child
	// at the store.
	IncrementSummary(ctx context.Context, agentID, date, drawLabel string, selfCount int, selfAmount float64, childCount int, childAmount float64) error
	// IncrementRow adds the deltas to one per-scheme line of a summary.
	IncrementRow(ctx context.Context, agentID, date, drawLabel, scheme string, count int, amount float64) error
	// DeleteRange removes every summary and row whose date falls in
	// [from, to] inclusive.
	DeleteRange(ctx context.Context, from, to string) error
}

// EntrySource lists persisted entries for reconciliation replay.
type EntrySource interface {
	ListValidEntries(ctx context.Context, fromDate, toDate string) ([]model.BetEntry, error)
}

// Ancestry resolves the upward chain of an agent, the agent itself first.
type Ancestry interface {
	Ancestors(username string) []string
}

// Engine applies batches to the summary tables.
type Engine struct {
	store Store
	tree  Ancestry
}

// NewEngine creates an Engine.
func NewEngine(store Store, tree Ancestry) *Engine {
	return &Engine{store: store, tree: tree}
}

// schemeTotal accumulates one per-scheme line of a batch.
type schemeTotal struct {
	count  int
	amount float64
}

// Apply credits one persisted batch to the seller and every ancestor. The
// entries carry frozen amounts priced at the seller's rates, and those same
// figures flow up the chain unchanged. Date is the batch's settlement date, so
// a replay of the same entries lands on the same summary keys.
func (e *Engine) Apply(ctx context.Context, agentID, date, drawLabel string, entries []model.BetEntry) error {
	if len(entries) == 0 {
		return nil
	}

	var totalCount int
	var totalAmount float64
	bySch := make(map[string]schemeTotal)
	var order []string
	for _, en := range entries {
		totalCount += en.Count
		totalAmount += en.TotalAmount
		sch := string(en.BetType)
		if _, seen := bySch[sch]; !seen {
			order = append(order, sch)
		}
		t := bySch[sch]
		t.count += en.Count
		t.amount += en.TotalAmount
		bySch[sch] = t
	}

	chain := e.tree.Ancestors(agentID)
	for i, member := range chain {
		var selfCount, childCount int
		var selfAmount, childAmount float64
		if i == 0 {
			selfCount, selfAmount = totalCount, totalAmount
		} else {
			childCount, childAmount = totalCount, totalAmount
		}
		if err := e.store.IncrementSummary(ctx, member, date, drawLabel, selfCount, selfAmount, childCount, childAmount); err != nil {
			return fmt.Errorf("failed to roll up sales for %s: %w", member, err)
		}
		for _, sch := range order {
			t := bySch[sch]
			if err := e.store.IncrementRow(ctx, member, date, drawLabel, sch, t.count, t.amount); err != nil {
				return fmt.Errorf("failed to roll up scheme %s for %s: %w", sch, member, err)
			}
		}
	}
	return nil
}

// Reconcile rebuilds the summaries for a date range from the entry ledger:
// every summary in [from, to] is deleted, then every valid entry in the range
// is replayed through Apply. Running it twice over the same range produces the
// same summaries, since replay starts from zero each time.
func (e *Engine) Reconcile(ctx context.Context, source EntrySource, from, to string) (int, error) {
	if err := e.store.DeleteRange(ctx, from, to); err != nil {
		return 0, fmt.Errorf("failed to clear summaries: %w", err)
	}

	entries, err := source.ListValidEntries(ctx, from, to)
	if err != nil {
		return 0, fmt.Errorf("failed to list entries for replay: %w", err)
	}

	type groupKey struct {
		agent string
		date  string
		draw  string
	}
	// Entries keep the spelling they were submitted under, but summaries are
	// keyed by the canonical label, so replay must group the same way the
	// incremental path applied.
	groups := make(map[groupKey][]model.BetEntry)
	var order []groupKey
	for _, en := range entries {
		k := groupKey{agent: en.AgentID, date: en.SettlementDate, draw: draw.Canonical(en.DrawLabel)}
		if _, seen := groups[k]; !seen {
			order = append(order, k)
		}
		groups[k] = append(groups[k], en)
	}

	for _, k := range order {
		if err := e.Apply(ctx, k.agent, k.date, k.draw, groups[k]); err != nil {
			return 0, err
		}
	}

	log.Info().Str("from", from).Str("to", to).Int("entries", len(entries)).Int("groups", len(order)).Msg("reconciled sales summaries")
	return len(entries), nil
}
