package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"lotto-engine/internal/model"
)

// DailyQuotaRepository is the global per-number daily ledger.
type DailyQuotaRepository struct {
	pool *pgxpool.Pool
}

// NewDailyQuotaRepository creates a new DailyQuotaRepository instance.
func NewDailyQuotaRepository(pool *pgxpool.Pool) *DailyQuotaRepository {
	return &DailyQuotaRepository{pool: pool}
}

// Remaining returns the stored remaining capacity for a key. found is false
// when no record exists yet, in which case the configured maximum applies.
func (r *DailyQuotaRepository) Remaining(ctx context.Context, date string, betType model.BetType, number string) (int, bool, error) {
	const query = `
		SELECT remaining FROM daily_quota
		WHERE date = $1 AND bet_type = $2 AND number = $3
	`

	var remaining int
	err := r.pool.QueryRow(ctx, query, date, betType, number).Scan(&remaining)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("failed to read daily quota: %w", err)
	}
	return remaining, true, nil
}

// Commit decrements a key's remaining capacity by used in one statement,
// seeding an absent record at max and flooring the stored value at zero.
// Concurrent commits serialize on the row, so remaining never goes negative.
func (r *DailyQuotaRepository) Commit(ctx context.Context, date string, betType model.BetType, number string, max, used int) error {
	const query = `
		INSERT INTO daily_quota (date, bet_type, number, remaining)
		VALUES ($1, $2, $3, GREATEST(0, $4 - $5))
		ON CONFLICT (date, bet_type, number)
		DO UPDATE SET remaining = GREATEST(0, daily_quota.remaining - $5)
	`

	if _, err := r.pool.Exec(ctx, query, date, betType, number, max, used); err != nil {
		return fmt.Errorf("failed to commit daily quota: %w", err)
	}
	return nil
}

// AgentQuotaRepository is the per-agent daily ledger.
type AgentQuotaRepository struct {
	pool *pgxpool.Pool
}

// NewAgentQuotaRepository creates a new AgentQuotaRepository instance.
func NewAgentQuotaRepository(pool *pgxpool.Pool) *AgentQuotaRepository {
	return &AgentQuotaRepository{pool: pool}
}

// Remaining returns the agent's stored remaining capacity for a key.
func (r *AgentQuotaRepository) Remaining(ctx context.Context, date, agent string, betType model.BetType, number string) (int, bool, error) {
	const query = `
		SELECT remaining FROM agent_quota
		WHERE date = $1 AND agent_id = $2 AND bet_type = $3 AND number = $4
	`

	var remaining int
	err := r.pool.QueryRow(ctx, query, date, agent, betType, number).Scan(&remaining)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("failed to read agent quota: %w", err)
	}
	return remaining, true, nil
}

// Commit decrements the agent's remaining capacity, seeding at max and
// flooring at zero, in one statement.
func (r *AgentQuotaRepository) Commit(ctx context.Context, date, agent string, betType model.BetType, number string, max, used int) error {
	const query = `
		INSERT INTO agent_quota (date, agent_id, bet_type, number, remaining)
		VALUES ($1, $2, $3, $4, GREATEST(0, $5 - $6))
		ON CONFLICT (date, agent_id, bet_type, number)
		DO UPDATE SET remaining = GREATEST(0, agent_quota.remaining - $6)
	`

	if _, err := r.pool.Exec(ctx, query, date, agent, betType, number, max, used); err != nil {
		return fmt.Errorf("failed to commit agent quota: %w", err)
	}
	return nil
}

// TicketLimitRepository stores the singleton global quota configuration. The
// three group maps are stored as JSONB, matching the shape the admin UI edits.
type TicketLimitRepository struct {
	pool *pgxpool.Pool
}

// NewTicketLimitRepository creates a new TicketLimitRepository instance.
func NewTicketLimitRepository(pool *pgxpool.Pool) *TicketLimitRepository {
	return &TicketLimitRepository{pool: pool}
}

// Get returns the current configuration, or an empty one (all defaults) when
// nothing has been saved yet.
func (r *TicketLimitRepository) Get(ctx context.Context) (*model.TicketLimitConfig, error) {
	const query = `
		SELECT group1, group2, group3, created_by
		FROM ticket_limit_config
		WHERE id = 1
	`

	var g1, g2, g3 []byte
	var cfg model.TicketLimitConfig
	err := r.pool.QueryRow(ctx, query).Scan(&g1, &g2, &g3, &cfg.CreatedBy)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return &model.TicketLimitConfig{}, nil
		}
		return nil, fmt.Errorf("failed to get ticket limit config: %w", err)
	}

	for _, pair := range []struct {
		raw []byte
		dst *map[model.BetType]int
	}{{g1, &cfg.Group1}, {g2, &cfg.Group2}, {g3, &cfg.Group3}} {
		if len(pair.raw) == 0 {
			continue
		}
		if err := json.Unmarshal(pair.raw, pair.dst); err != nil {
			return nil, fmt.Errorf("failed to decode ticket limit group: %w", err)
		}
	}
	return &cfg, nil
}

// Save replaces the singleton configuration.
func (r *TicketLimitRepository) Save(ctx context.Context, cfg *model.TicketLimitConfig) error {
	const query = `
		INSERT INTO ticket_limit_config (id, group1, group2, group3, created_by, updated_at)
		VALUES (1, $1, $2, $3, $4, NOW())
		ON CONFLICT (id) DO UPDATE SET
			group1 = EXCLUDED.group1,
			group2 = EXCLUDED.group2,
			group3 = EXCLUDED.group3,
			created_by = EXCLUDED.created_by,
			updated_at = NOW()
	`

	g1, err := json.Marshal(cfg.Group1)
	if err != nil {
		return fmt.Errorf("failed to encode ticket limit group: %w", err)
	}
	g2, err := json.Marshal(cfg.Group2)
	if err != nil {
		return fmt.Errorf("failed to encode ticket limit group: %w", err)
	}
	g3, err := json.Marshal(cfg.Group3)
	if err != nil {
		return fmt.Errorf("failed to encode ticket limit group: %w", err)
	}

	if _, err := r.pool.Exec(ctx, query, g1, g2, g3, cfg.CreatedBy); err != nil {
		return fmt.Errorf("failed to save ticket limit config: %w", err)
	}
	return nil
}

// BlockNumberRepository stores per-agent quota overrides.
type BlockNumberRepository struct {
	pool *pgxpool.Pool
}

// NewBlockNumberRepository creates a new BlockNumberRepository instance.
func NewBlockNumberRepository(pool *pgxpool.Pool) *BlockNumberRepository {
	return &BlockNumberRepository{pool: pool}
}

// Get returns the active override for a key, or nil when none exists.
func (r *BlockNumberRepository) Get(ctx context.Context, agent string, betType model.BetType, number, drawTime string) (*model.BlockNumber, error) {
	const query = `
		SELECT id, field, number, draw_time, created_by, count, is_active
		FROM block_numbers
		WHERE created_by = $1 AND field = $2 AND number = $3 AND draw_time = $4 AND is_active
	`

	var b model.BlockNumber
	err := r.pool.QueryRow(ctx, query, agent, betType, number, drawTime).Scan(
		&b.ID, &b.Field, &b.Number, &b.DrawTime, &b.CreatedBy, &b.Count, &b.IsActive,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get block number: %w", err)
	}
	return &b, nil
}

// Upsert creates or replaces the override for a key.
func (r *BlockNumberRepository) Upsert(ctx context.Context, b *model.BlockNumber) error {
	const query = `
		INSERT INTO block_numbers (field, number, draw_time, created_by, count, is_active)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (created_by, field, number, draw_time) DO UPDATE SET
			count = EXCLUDED.count,
			is_active = EXCLUDED.is_active
	`

	if _, err := r.pool.Exec(ctx, query, b.Field, b.Number, b.DrawTime, b.CreatedBy, b.Count, b.IsActive); err != nil {
		return fmt.Errorf("failed to upsert block number: %w", err)
	}
	return nil
}

// List returns an agent's overrides, active or not.
func (r *BlockNumberRepository) List(ctx context.Context, agent string) ([]model.BlockNumber, error) {
	const query = `
		SELECT id, field, number, draw_time, created_by, count, is_active
		FROM block_numbers
		WHERE created_by = $1
		ORDER BY id
	`

	rows, err := r.pool.Query(ctx, query, agent)
	if err != nil {
		return nil, fmt.Errorf("failed to list block numbers: %w", err)
	}
	defer rows.Close()

	var out []model.BlockNumber
	for rows.Next() {
		var b model.BlockNumber
		if err := rows.Scan(&b.ID, &b.Field, &b.Number, &b.DrawTime, &b.CreatedBy, &b.Count, &b.IsActive); err != nil {
			return nil, fmt.Errorf("failed to scan block number: %w", err)
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating block numbers: %w", err)
	}
	return out, nil
}

// Delete removes one override by id.
func (r *BlockNumberRepository) Delete(ctx context.Context, id int64) error {
	const query = `DELETE FROM block_numbers WHERE id = $1`

	if _, err := r.pool.Exec(ctx, query, id); err != nil {
		return fmt.Errorf("failed to delete block number: %w", err)
	}
	return nil
}
