// Package quota enforces the layered per-number bet quotas.
//
// Two ledgers share one contract: the global daily ledger keyed by
// (date, bet type, number) and the per-agent ledger keyed by
// (date, agent, bet type, number). Admission reads remaining capacity and
// decides, then commits a decrement after persistence. The decrement itself
// is a single conditional update floored at zero at the store, so remaining
// can never go negative. The read-then-decide window is deliberately not
// closed by a lock: two concurrent submissions may both be told capacity is
// available, and the later commit simply clamps.
package quota

import (
	"context"
	"fmt"

	"lotto-engine/internal/model"
)

// Key identifies one quota bucket inside a date's ledger.
type Key struct {
	BetType model.BetType
	Number  string
}

func (k Key) String() string {
	return string(k.BetType) + "-" + k.Number
}

// Exceedance reports one key whose requested count could not be fully
// admitted. Its String form is part of the submission boundary's contract.
type Exceedance struct {
	Key       Key
	Attempted int
	Remaining int
	Limit     int
	Added     int
}

func (e Exceedance) String() string {
	return fmt.Sprintf("%s → attempted %d, remaining %d", e.Key, e.Attempted, e.Remaining)
}

// GlobalStore is the persistence contract of the global daily ledger.
type GlobalStore interface {
	// Remaining returns the stored remaining capacity for a key, with
	// found=false when no record exists yet (full limit applies).
	Remaining(ctx context.Context, date string, betType model.BetType, number string) (remaining int, found bool, err error)
	// Commit decrements remaining by used in one conditional update,
	// seeding absent records at max and flooring the result at zero.
	Commit(ctx context.Context, date string, betType model.BetType, number string, max, used int) error
}

// AgentStore is the persistence contract of the per-agent ledger.
type AgentStore interface {
	Remaining(ctx context.Context, date, agent string, betType model.BetType, number string) (remaining int, found bool, err error)
	Commit(ctx context.Context, date, agent string, betType model.BetType, number string, max, used int) error
}

// OverrideStore resolves per-agent BlockNumber quota overrides.
type OverrideStore interface {
	// Get returns the active override for the key, or nil when none exists.
	Get(ctx context.Context, agent string, betType model.BetType, number, drawTime string) (*model.BlockNumber, error)
}

// Ledger coordinates the two quota scopes.
type Ledger struct {
	global    GlobalStore
	agents    AgentStore
	overrides OverrideStore
}

// NewLedger creates a Ledger over the given stores.
func NewLedger(global GlobalStore, agents AgentStore, overrides OverrideStore) *Ledger {
	return &Ledger{global: global, agents: agents, overrides: overrides}
}

// GlobalPass runs the global ledger over expanded drafts. Drafts whose key
// has capacity pass through; drafts over capacity are truncated to the
// admitted count; drafts with no capacity are dropped. Each truncation or
// drop is reported as an exceedance. Drafts sharing a key within one batch
// are each judged against the same read value; the ledger commit, not this
// pass, is the authoritative floor.
func (l *Ledger) GlobalPass(ctx context.Context, date string, drafts []model.EntryDraft, cfg *model.TicketLimitConfig) ([]model.EntryDraft, []Exceedance, error) {
	var valid []model.EntryDraft
	var exceeded []Exceedance

	for _, d := range drafts {
		max := cfg.MaxFor(d.BetType)
		remaining, found, err := l.global.Remaining(ctx, date, d.BetType, d.Number)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to read global quota: %w", err)
		}
		if !found {
			remaining = max
		}

		key := Key{BetType: d.BetType, Number: d.Number}
		switch {
		case remaining <= 0:
			exceeded = append(exceeded, Exceedance{Key: key, Attempted: d.Count, Remaining: 0, Limit: max, Added: 0})
		case d.Count <= remaining:
			valid = append(valid, d)
		default:
			truncated := d
			truncated.Count = remaining
			valid = append(valid, truncated)
			exceeded = append(exceeded, Exceedance{Key: key, Attempted: d.Count, Remaining: remaining, Limit: max, Added: remaining})
		}
	}

	return valid, exceeded, nil
}

// StrictOverridePass rejects any draft whose requested count exceeds an
// active BlockNumber override, regardless of how much of the day's allowance
// is still unused. Violations here fail the whole batch.
func (l *Ledger) StrictOverridePass(ctx context.Context, agent, drawTime string, drafts []model.EntryDraft) ([]Exceedance, error) {
	var violations []Exceedance
	for _, d := range drafts {
		override, err := l.overrides.Get(ctx, agent, d.BetType, d.Number, drawTime)
		if err != nil {
			return nil, fmt.Errorf("failed to read block number: %w", err)
		}
		if override != nil && override.Count < d.Count {
			violations = append(violations, Exceedance{
				Key:       Key{BetType: d.BetType, Number: d.Number},
				Attempted: d.Count,
				Remaining: override.Count,
				Limit:     override.Count,
			})
		}
	}
	return violations, nil
}

// AgentPass checks the global-adjusted drafts against the agent's own daily
// ledger. The per-key maximum is the BlockNumber override when one is active,
// the global configured maximum otherwise. Any single violation is a hard
// rejection of the entire batch; this tier never partially admits.
func (l *Ledger) AgentPass(ctx context.Context, date, agent, drawTime string, drafts []model.EntryDraft, cfg *model.TicketLimitConfig) ([]Exceedance, error) {
	var violations []Exceedance
	for _, d := range drafts {
		max, err := l.agentMax(ctx, agent, drawTime, d, cfg)
		if err != nil {
			return nil, err
		}
		remaining, found, err := l.agents.Remaining(ctx, date, agent, d.BetType, d.Number)
		if err != nil {
			return nil, fmt.Errorf("failed to read agent quota: %w", err)
		}
		if !found {
			remaining = max
		}
		if d.Count > remaining {
			violations = append(violations, Exceedance{
				Key:       Key{BetType: d.BetType, Number: d.Number},
				Attempted: d.Count,
				Remaining: remaining,
				Limit:     max,
			})
		}
	}
	return violations, nil
}

// Commit decrements both ledgers by the counts actually persisted. Usage is
// aggregated per key for the global ledger; the agent ledger commits per
// draft so each decrement seeds from its own maximum.
func (l *Ledger) Commit(ctx context.Context, date, agent, drawTime string, drafts []model.EntryDraft, cfg *model.TicketLimitConfig) error {
	usage := make(map[Key]int)
	order := make([]Key, 0, len(drafts))
	for _, d := range drafts {
		k := Key{BetType: d.BetType, Number: d.Number}
		if _, seen := usage[k]; !seen {
			order = append(order, k)
		}
		usage[k] += d.Count
	}

	for _, k := range order {
		if err := l.global.Commit(ctx, date, k.BetType, k.Number, cfg.MaxFor(k.BetType), usage[k]); err != nil {
			return fmt.Errorf("failed to commit global quota %s: %w", k, err)
		}
	}

	for _, d := range drafts {
		max, err := l.agentMax(ctx, agent, drawTime, d, cfg)
		if err != nil {
			return err
		}
		if err := l.agents.Commit(ctx, date, agent, d.BetType, d.Number, max, d.Count); err != nil {
			return fmt.Errorf("failed to commit agent quota %s-%s: %w", d.BetType, d.Number, err)
		}
	}
	return nil
}

func (l *Ledger) agentMax(ctx context.Context, agent, drawTime string, d model.EntryDraft, cfg *model.TicketLimitConfig) (int, error) {
	override, err := l.overrides.Get(ctx, agent, d.BetType, d.Number, drawTime)
	if err != nil {
		return 0, fmt.Errorf("failed to read block number: %w", err)
	}
	if override != nil {
		return override.Count, nil
	}
	return cfg.MaxFor(d.BetType), nil
}
