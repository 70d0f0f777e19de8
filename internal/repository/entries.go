// Package repository provides data access layer implementations.
package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"lotto-engine/internal/model"
)

// Common errors for repository operations.
var (
	ErrEntryNotFound  = errors.New("entry not found")
	ErrResultNotFound = errors.New("result not found")
	ErrAgentNotFound  = errors.New("agent not found")
)

// EntryRepository persists bet entries and the bill counter.
type EntryRepository struct {
	pool *pgxpool.Pool
}

// NewEntryRepository creates a new EntryRepository instance.
func NewEntryRepository(pool *pgxpool.Pool) *EntryRepository {
	return &EntryRepository{pool: pool}
}

// NextBillNumber atomically increments the global bill counter and returns it
// zero padded to five digits. Concurrent submissions each get a distinct
// number; the sequence has no gaps unless a batch later fails to commit.
func (r *EntryRepository) NextBillNumber(ctx context.Context) (string, error) {
	const query = `
		INSERT INTO bill_counter (id, value)
		VALUES (1, 1)
		ON CONFLICT (id) DO UPDATE SET value = bill_counter.value + 1
		RETURNING value
	`

	var value int64
	if err := r.pool.QueryRow(ctx, query).Scan(&value); err != nil {
		return "", fmt.Errorf("failed to advance bill counter: %w", err)
	}
	return fmt.Sprintf("%05d", value), nil
}

// CreateBatch inserts every entry of one submission in a single transaction.
// Either the whole batch is persisted or none of it is.
func (r *EntryRepository) CreateBatch(ctx context.Context, entries []model.BetEntry) ([]model.BetEntry, error) {
	const query = `
		INSERT INTO entries (number, bet_type, count, unit_rate, total_amount,
			draw_label, time_code, agent_id, batch_id, settlement_date, valid, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, TRUE, NOW())
		RETURNING id, created_at
	`

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	out := make([]model.BetEntry, len(entries))
	for i, e := range entries {
		err := tx.QueryRow(ctx, query,
			e.Number, e.BetType, e.Count, e.UnitRate, e.TotalAmount,
			e.DrawLabel, e.TimeCode, e.AgentID, e.BatchID, e.SettlementDate,
		).Scan(&e.ID, &e.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to insert entry %s-%s: %w", e.BetType, e.Number, err)
		}
		e.Valid = true
		out[i] = e
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit entry batch: %w", err)
	}
	return out, nil
}

// UpdateCount changes one entry's count, repricing the frozen total from the
// entry's own stored unit rate.
func (r *EntryRepository) UpdateCount(ctx context.Context, id int64, count int) (*model.BetEntry, error) {
	const query = `
		UPDATE entries
		SET count = $2, total_amount = unit_rate * $2
		WHERE id = $1
		RETURNING id, number, bet_type, count, unit_rate, total_amount,
			draw_label, time_code, agent_id, batch_id, settlement_date, valid, created_at
	`

	var e model.BetEntry
	err := r.pool.QueryRow(ctx, query, id, count).Scan(
		&e.ID, &e.Number, &e.BetType, &e.Count, &e.UnitRate, &e.TotalAmount,
		&e.DrawLabel, &e.TimeCode, &e.AgentID, &e.BatchID, &e.SettlementDate, &e.Valid, &e.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrEntryNotFound
		}
		return nil, fmt.Errorf("failed to update entry count: %w", err)
	}
	return &e, nil
}

// InvalidateBatch soft-deletes every entry of a bill. Invalid entries are
// excluded from sold totals, reports and reconciliation replay.
func (r *EntryRepository) InvalidateBatch(ctx context.Context, batchID string) (int64, error) {
	const query = `UPDATE entries SET valid = FALSE WHERE batch_id = $1 AND valid`

	tag, err := r.pool.Exec(ctx, query, batchID)
	if err != nil {
		return 0, fmt.Errorf("failed to invalidate batch: %w", err)
	}
	return tag.RowsAffected(), nil
}

// DeleteBatch permanently removes every entry of a bill.
func (r *EntryRepository) DeleteBatch(ctx context.Context, batchID string) (int64, error) {
	const query = `DELETE FROM entries WHERE batch_id = $1`

	tag, err := r.pool.Exec(ctx, query, batchID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete batch: %w", err)
	}
	return tag.RowsAffected(), nil
}

// SoldAmount sums the charged amount already persisted for an agent on a
// settlement date across the given draw label spellings. Used by the credit
// ceiling check.
func (r *EntryRepository) SoldAmount(ctx context.Context, agentID, date string, drawLabels []string) (float64, error) {
	const query = `
		SELECT COALESCE(SUM(total_amount), 0)
		FROM entries
		WHERE agent_id = $1 AND settlement_date = $2 AND draw_label = ANY($3) AND valid
	`

	var sum float64
	if err := r.pool.QueryRow(ctx, query, agentID, date, drawLabels).Scan(&sum); err != nil {
		return 0, fmt.Errorf("failed to sum sold amount: %w", err)
	}
	return sum, nil
}

// ListByBatch returns every valid entry of one bill in insertion order.
func (r *EntryRepository) ListByBatch(ctx context.Context, batchID string) ([]model.BetEntry, error) {
	const query = `
		SELECT id, number, bet_type, count, unit_rate, total_amount,
			draw_label, time_code, agent_id, batch_id, settlement_date, valid, created_at
		FROM entries
		WHERE batch_id = $1 AND valid
		ORDER BY id
	`
	return r.list(ctx, query, batchID)
}

// ListForSettlement returns every valid entry for one draw and settlement
// date, across both spellings of the label.
func (r *EntryRepository) ListForSettlement(ctx context.Context, date string, drawLabels []string) ([]model.BetEntry, error) {
	const query = `
		SELECT id, number, bet_type, count, unit_rate, total_amount,
			draw_label, time_code, agent_id, batch_id, settlement_date, valid, created_at
		FROM entries
		WHERE settlement_date = $1 AND draw_label = ANY($2) AND valid
		ORDER BY id
	`
	return r.list(ctx, query, date, drawLabels)
}

// ListByAgents returns valid entries for a set of agents inside a settlement
// date range. An empty draw label list matches every draw.
func (r *EntryRepository) ListByAgents(ctx context.Context, agents []string, fromDate, toDate string, drawLabels []string) ([]model.BetEntry, error) {
	const query = `
		SELECT id, number, bet_type, count, unit_rate, total_amount,
			draw_label, time_code, agent_id, batch_id, settlement_date, valid, created_at
		FROM entries
		WHERE agent_id = ANY($1)
			AND settlement_date BETWEEN $2 AND $3
			AND (cardinality($4::text[]) = 0 OR draw_label = ANY($4))
			AND valid
		ORDER BY id
	`
	if drawLabels == nil {
		drawLabels = []string{}
	}
	return r.list(ctx, query, agents, fromDate, toDate, drawLabels)
}

// ListValidEntries returns every valid entry whose settlement date falls in
// [fromDate, toDate], for reconciliation replay.
func (r *EntryRepository) ListValidEntries(ctx context.Context, fromDate, toDate string) ([]model.BetEntry, error) {
	const query = `
		SELECT id, number, bet_type, count, unit_rate, total_amount,
			draw_label, time_code, agent_id, batch_id, settlement_date, valid, created_at
		FROM entries
		WHERE settlement_date BETWEEN $1 AND $2 AND valid
		ORDER BY id
	`
	return r.list(ctx, query, fromDate, toDate)
}

func (r *EntryRepository) list(ctx context.Context, query string, args ...any) ([]model.BetEntry, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query entries: %w", err)
	}
	defer rows.Close()

	var entries []model.BetEntry
	for rows.Next() {
		var e model.BetEntry
		err := rows.Scan(
			&e.ID, &e.Number, &e.BetType, &e.Count, &e.UnitRate, &e.TotalAmount,
			&e.DrawLabel, &e.TimeCode, &e.AgentID, &e.BatchID, &e.SettlementDate, &e.Valid, &e.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan entry: %w", err)
		}
		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating entries: %w", err)
	}
	return entries, nil
}
