package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"lotto-engine/internal/model"
)

// ResultRepository stores published draw results.
type ResultRepository struct {
	pool *pgxpool.Pool
}

// NewResultRepository creates a new ResultRepository instance.
func NewResultRepository(pool *pgxpool.Pool) *ResultRepository {
	return &ResultRepository{pool: pool}
}

// Upsert publishes or corrects the result for (date, draw). Prizes are the
// five ordered slots; others is the secondary list.
func (r *ResultRepository) Upsert(ctx context.Context, result *model.DrawResult) error {
	const query = `
		INSERT INTO draw_results (date, draw_label, prizes, others, updated_at)
		VALUES ($1, $2, $3, $4, NOW())
		ON CONFLICT (date, draw_label) DO UPDATE SET
			prizes = EXCLUDED.prizes,
			others = EXCLUDED.others,
			updated_at = NOW()
	`

	if _, err := r.pool.Exec(ctx, query, result.Date, result.DrawLabel, result.Prizes, result.Others); err != nil {
		return fmt.Errorf("failed to upsert draw result: %w", err)
	}
	return nil
}

// Get returns the result for (date, draw). Returns ErrResultNotFound when the
// draw has not been published for that date.
func (r *ResultRepository) Get(ctx context.Context, date, drawLabel string) (*model.DrawResult, error) {
	const query = `
		SELECT date, draw_label, prizes, others, updated_at
		FROM draw_results
		WHERE date = $1 AND draw_label = $2
	`

	var res model.DrawResult
	err := r.pool.QueryRow(ctx, query, date, drawLabel).Scan(&res.Date, &res.DrawLabel, &res.Prizes, &res.Others, &res.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrResultNotFound
		}
		return nil, fmt.Errorf("failed to get draw result: %w", err)
	}
	return &res, nil
}

// ListByDate returns every published result for one date.
func (r *ResultRepository) ListByDate(ctx context.Context, date string) ([]model.DrawResult, error) {
	const query = `
		SELECT date, draw_label, prizes, others, updated_at
		FROM draw_results
		WHERE date = $1
		ORDER BY draw_label
	`

	rows, err := r.pool.Query(ctx, query, date)
	if err != nil {
		return nil, fmt.Errorf("failed to list draw results: %w", err)
	}
	defer rows.Close()

	var out []model.DrawResult
	for rows.Next() {
		var res model.DrawResult
		if err := rows.Scan(&res.Date, &res.DrawLabel, &res.Prizes, &res.Others, &res.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan draw result: %w", err)
		}
		out = append(out, res)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating draw results: %w", err)
	}
	return out, nil
}
