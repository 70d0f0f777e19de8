package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"lotto-engine/internal/draw"
	"lotto-engine/internal/model"
)

// CreditLimitRepository stores per-agent credit ceilings. Draw labels are
// canonicalized on write and lookup; "ALL" passes through untouched.
type CreditLimitRepository struct {
	pool *pgxpool.Pool
}

// NewCreditLimitRepository creates a new CreditLimitRepository instance.
func NewCreditLimitRepository(pool *pgxpool.Pool) *CreditLimitRepository {
	return &CreditLimitRepository{pool: pool}
}

// Resolve returns the ceiling that governs an agent's submission to a draw:
// a record for the exact draw label wins over an "ALL" record. nil means the
// agent has no ceiling.
func (r *CreditLimitRepository) Resolve(ctx context.Context, toUser, drawLabel string) (*model.CreditLimit, error) {
	limit, err := r.get(ctx, toUser, draw.Canonical(drawLabel))
	if err != nil {
		return nil, err
	}
	if limit == nil {
		limit, err = r.get(ctx, toUser, model.CreditLimitAll)
		if err != nil {
			return nil, err
		}
	}
	return limit, nil
}

func (r *CreditLimitRepository) get(ctx context.Context, toUser, drawTime string) (*model.CreditLimit, error) {
	const query = `
		SELECT id, from_user, to_user, draw_time, amount
		FROM credit_limits
		WHERE to_user = $1 AND draw_time = $2
	`

	var c model.CreditLimit
	err := r.pool.QueryRow(ctx, query, toUser, drawTime).Scan(&c.ID, &c.FromUser, &c.ToUser, &c.DrawTime, &c.Amount)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get credit limit: %w", err)
	}
	return &c, nil
}

// Upsert creates or replaces a ceiling for (to_user, draw_time).
func (r *CreditLimitRepository) Upsert(ctx context.Context, c *model.CreditLimit) error {
	c.DrawTime = draw.Canonical(c.DrawTime)
	const query = `
		INSERT INTO credit_limits (from_user, to_user, draw_time, amount)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (to_user, draw_time) DO UPDATE SET
			from_user = EXCLUDED.from_user,
			amount = EXCLUDED.amount
	`

	if _, err := r.pool.Exec(ctx, query, c.FromUser, c.ToUser, c.DrawTime, c.Amount); err != nil {
		return fmt.Errorf("failed to upsert credit limit: %w", err)
	}
	return nil
}

// ListGranted returns every ceiling a granting agent has set.
func (r *CreditLimitRepository) ListGranted(ctx context.Context, fromUser string) ([]model.CreditLimit, error) {
	const query = `
		SELECT id, from_user, to_user, draw_time, amount
		FROM credit_limits
		WHERE from_user = $1
		ORDER BY to_user, draw_time
	`

	rows, err := r.pool.Query(ctx, query, fromUser)
	if err != nil {
		return nil, fmt.Errorf("failed to list credit limits: %w", err)
	}
	defer rows.Close()

	var out []model.CreditLimit
	for rows.Next() {
		var c model.CreditLimit
		if err := rows.Scan(&c.ID, &c.FromUser, &c.ToUser, &c.DrawTime, &c.Amount); err != nil {
			return nil, fmt.Errorf("failed to scan credit limit: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating credit limits: %w", err)
	}
	return out, nil
}

// Delete removes one ceiling by id.
func (r *CreditLimitRepository) Delete(ctx context.Context, id int64) error {
	const query = `DELETE FROM credit_limits WHERE id = $1`

	if _, err := r.pool.Exec(ctx, query, id); err != nil {
		return fmt.Errorf("failed to delete credit limit: %w", err)
	}
	return nil
}
