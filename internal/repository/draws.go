package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"lotto-engine/internal/model"
)

// DrawWindowRepository stores the per-draw, per-role submission cutoffs.
type DrawWindowRepository struct {
	pool *pgxpool.Pool
}

// NewDrawWindowRepository creates a new DrawWindowRepository instance.
func NewDrawWindowRepository(pool *pgxpool.Pool) *DrawWindowRepository {
	return &DrawWindowRepository{pool: pool}
}

// Get returns the window for an exact (label, role) key, or nil when absent.
func (r *DrawWindowRepository) Get(ctx context.Context, drawLabel, role string) (*model.DrawWindow, error) {
	const query = `
		SELECT draw_label, role, block_time, unblock_time
		FROM draw_windows
		WHERE draw_label = $1 AND role = $2
	`
	return r.scanOne(ctx, query, drawLabel, role)
}

// GetFold is the case-insensitive variant of Get.
func (r *DrawWindowRepository) GetFold(ctx context.Context, drawLabel, role string) (*model.DrawWindow, error) {
	const query = `
		SELECT draw_label, role, block_time, unblock_time
		FROM draw_windows
		WHERE LOWER(draw_label) = LOWER($1) AND role = $2
	`
	return r.scanOne(ctx, query, drawLabel, role)
}

func (r *DrawWindowRepository) scanOne(ctx context.Context, query, drawLabel, role string) (*model.DrawWindow, error) {
	var w model.DrawWindow
	err := r.pool.QueryRow(ctx, query, drawLabel, role).Scan(&w.DrawLabel, &w.Role, &w.BlockTime, &w.UnblockTime)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get draw window: %w", err)
	}
	return &w, nil
}

// Upsert creates or replaces the window for (label, role).
func (r *DrawWindowRepository) Upsert(ctx context.Context, w *model.DrawWindow) error {
	const query = `
		INSERT INTO draw_windows (draw_label, role, block_time, unblock_time)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (draw_label, role) DO UPDATE SET
			block_time = EXCLUDED.block_time,
			unblock_time = EXCLUDED.unblock_time
	`

	if _, err := r.pool.Exec(ctx, query, w.DrawLabel, w.Role, w.BlockTime, w.UnblockTime); err != nil {
		return fmt.Errorf("failed to upsert draw window: %w", err)
	}
	return nil
}

// List returns every configured window.
func (r *DrawWindowRepository) List(ctx context.Context) ([]model.DrawWindow, error) {
	const query = `
		SELECT draw_label, role, block_time, unblock_time
		FROM draw_windows
		ORDER BY draw_label, role
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list draw windows: %w", err)
	}
	defer rows.Close()

	var out []model.DrawWindow
	for rows.Next() {
		var w model.DrawWindow
		if err := rows.Scan(&w.DrawLabel, &w.Role, &w.BlockTime, &w.UnblockTime); err != nil {
			return nil, fmt.Errorf("failed to scan draw window: %w", err)
		}
		out = append(out, w)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating draw windows: %w", err)
	}
	return out, nil
}

// BlockedDateRepository stores calendar-date submission blocks per ticket.
type BlockedDateRepository struct {
	pool *pgxpool.Pool
}

// NewBlockedDateRepository creates a new BlockedDateRepository instance.
func NewBlockedDateRepository(pool *pgxpool.Pool) *BlockedDateRepository {
	return &BlockedDateRepository{pool: pool}
}

// IsBlocked reports whether the ticket code is blocked on the given date.
func (r *BlockedDateRepository) IsBlocked(ctx context.Context, ticket, date string) (bool, error) {
	const query = `SELECT EXISTS(SELECT 1 FROM blocked_dates WHERE ticket = $1 AND date = $2)`

	var blocked bool
	if err := r.pool.QueryRow(ctx, query, ticket, date).Scan(&blocked); err != nil {
		return false, fmt.Errorf("failed to check blocked date: %w", err)
	}
	return blocked, nil
}

// Add blocks a ticket code on a date. Adding an existing block is a no-op.
func (r *BlockedDateRepository) Add(ctx context.Context, ticket, date string) error {
	const query = `
		INSERT INTO blocked_dates (ticket, date)
		VALUES ($1, $2)
		ON CONFLICT (ticket, date) DO NOTHING
	`

	if _, err := r.pool.Exec(ctx, query, ticket, date); err != nil {
		return fmt.Errorf("failed to add blocked date: %w", err)
	}
	return nil
}

// Remove lifts a block.
func (r *BlockedDateRepository) Remove(ctx context.Context, ticket, date string) error {
	const query = `DELETE FROM blocked_dates WHERE ticket = $1 AND date = $2`

	if _, err := r.pool.Exec(ctx, query, ticket, date); err != nil {
		return fmt.Errorf("failed to remove blocked date: %w", err)
	}
	return nil
}

// List returns every block on or after the given date.
func (r *BlockedDateRepository) List(ctx context.Context, fromDate string) ([]model.BlockedDate, error) {
	const query = `
		SELECT ticket, date
		FROM blocked_dates
		WHERE date >= $1
		ORDER BY date, ticket
	`

	rows, err := r.pool.Query(ctx, query, fromDate)
	if err != nil {
		return nil, fmt.Errorf("failed to list blocked dates: %w", err)
	}
	defer rows.Close()

	var out []model.BlockedDate
	for rows.Next() {
		var b model.BlockedDate
		if err := rows.Scan(&b.Ticket, &b.Date); err != nil {
			return nil, fmt.Errorf("failed to scan blocked date: %w", err)
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating blocked dates: %w", err)
	}
	return out, nil
}
