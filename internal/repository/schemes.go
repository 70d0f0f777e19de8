package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"lotto-engine/internal/model"
)

// SchemeRepository stores the per-tier payout tables.
type SchemeRepository struct {
	pool *pgxpool.Pool
}

// NewSchemeRepository creates a new SchemeRepository instance.
func NewSchemeRepository(pool *pgxpool.Pool) *SchemeRepository {
	return &SchemeRepository{pool: pool}
}

// Get returns the tier's payout table for a draw, or nil when the tier has no
// rows for it.
func (r *SchemeRepository) Get(ctx context.Context, tier int, drawLabel string) (*model.SchemeTable, error) {
	const query = `
		SELECT group_name, scheme, pos, amount
		FROM scheme_tables
		WHERE tier = $1 AND draw_label = $2
		ORDER BY group_name, pos, scheme
	`

	rows, err := r.pool.Query(ctx, query, tier, drawLabel)
	if err != nil {
		return nil, fmt.Errorf("failed to get scheme table: %w", err)
	}
	defer rows.Close()

	table := &model.SchemeTable{Tier: tier, DrawLabel: drawLabel}
	for rows.Next() {
		var row model.SchemeRow
		if err := rows.Scan(&row.Group, &row.Scheme, &row.Pos, &row.Amount); err != nil {
			return nil, fmt.Errorf("failed to scan scheme row: %w", err)
		}
		table.Rows = append(table.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating scheme rows: %w", err)
	}

	if len(table.Rows) == 0 {
		return nil, nil
	}
	return table, nil
}

// Save replaces the tier's table for one draw in a single transaction.
func (r *SchemeRepository) Save(ctx context.Context, table *model.SchemeTable) error {
	const deleteQuery = `DELETE FROM scheme_tables WHERE tier = $1 AND draw_label = $2`
	const insertQuery = `
		INSERT INTO scheme_tables (tier, draw_label, group_name, scheme, pos, amount)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, deleteQuery, table.Tier, table.DrawLabel); err != nil {
		return fmt.Errorf("failed to clear scheme table: %w", err)
	}
	for _, row := range table.Rows {
		if _, err := tx.Exec(ctx, insertQuery, table.Tier, table.DrawLabel, row.Group, row.Scheme, row.Pos, row.Amount); err != nil {
			return fmt.Errorf("failed to insert scheme row: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit scheme table: %w", err)
	}
	return nil
}

// SeedDefaults writes the given rows as a tier's table for a draw only when
// the tier has no table yet.
func (r *SchemeRepository) SeedDefaults(ctx context.Context, tier int, drawLabel string, rows []model.SchemeRow) error {
	existing, err := r.Get(ctx, tier, drawLabel)
	if err != nil {
		return err
	}
	if existing != nil {
		return nil
	}
	return r.Save(ctx, &model.SchemeTable{Tier: tier, DrawLabel: drawLabel, Rows: rows})
}
