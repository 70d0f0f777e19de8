package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"lotto-engine/internal/draw"
	"lotto-engine/internal/model"
)

// RateTableRepository stores per-agent, per-draw unit prices. Draw keys are
// canonicalized on every operation, so a table written under a regional alias
// lands on the same row the resolver reads.
type RateTableRepository struct {
	pool *pgxpool.Pool
}

// NewRateTableRepository creates a new RateTableRepository instance.
func NewRateTableRepository(pool *pgxpool.Pool) *RateTableRepository {
	return &RateTableRepository{pool: pool}
}

// Get returns the agent's rate table for an exact draw key (a canonical label
// or "All"), or nil when the agent has no rows for it. Fallback across keys is
// the resolver's job, not the repository's.
func (r *RateTableRepository) Get(ctx context.Context, agentID, drawKey string) (*model.RateTable, error) {
	const query = `
		SELECT bet_type, rate, assign_rate
		FROM rate_tables
		WHERE agent_id = $1 AND draw = $2
		ORDER BY bet_type
	`

	drawKey = draw.Canonical(drawKey)
	rows, err := r.pool.Query(ctx, query, agentID, drawKey)
	if err != nil {
		return nil, fmt.Errorf("failed to get rate table: %w", err)
	}
	defer rows.Close()

	table := &model.RateTable{AgentID: agentID, Draw: drawKey}
	for rows.Next() {
		var row model.RateRow
		if err := rows.Scan(&row.BetType, &row.Rate, &row.AssignRate); err != nil {
			return nil, fmt.Errorf("failed to scan rate row: %w", err)
		}
		table.Rows = append(table.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rate rows: %w", err)
	}

	if len(table.Rows) == 0 {
		return nil, nil
	}
	return table, nil
}

// Save replaces the agent's table for one draw key in a single transaction.
func (r *RateTableRepository) Save(ctx context.Context, table *model.RateTable) error {
	const deleteQuery = `DELETE FROM rate_tables WHERE agent_id = $1 AND draw = $2`
	const insertQuery = `
		INSERT INTO rate_tables (agent_id, draw, bet_type, rate, assign_rate)
		VALUES ($1, $2, $3, $4, $5)
	`

	table.Draw = draw.Canonical(table.Draw)

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, deleteQuery, table.AgentID, table.Draw); err != nil {
		return fmt.Errorf("failed to clear rate table: %w", err)
	}
	for _, row := range table.Rows {
		if _, err := tx.Exec(ctx, insertQuery, table.AgentID, table.Draw, row.BetType, row.Rate, row.AssignRate); err != nil {
			return fmt.Errorf("failed to insert rate row: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit rate table: %w", err)
	}
	return nil
}

// Delete removes the agent's table for one draw key.
func (r *RateTableRepository) Delete(ctx context.Context, agentID, drawKey string) error {
	const query = `DELETE FROM rate_tables WHERE agent_id = $1 AND draw = $2`

	if _, err := r.pool.Exec(ctx, query, agentID, draw.Canonical(drawKey)); err != nil {
		return fmt.Errorf("failed to delete rate table: %w", err)
	}
	return nil
}
