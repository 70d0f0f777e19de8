package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"lotto-engine/internal/model"
)

// AgentRepository stores the reseller roster.
type AgentRepository struct {
	pool *pgxpool.Pool
}

// NewAgentRepository creates a new AgentRepository instance.
func NewAgentRepository(pool *pgxpool.Pool) *AgentRepository {
	return &AgentRepository{pool: pool}
}

// Create adds an agent under a parent.
func (r *AgentRepository) Create(ctx context.Context, a *model.Agent) (*model.Agent, error) {
	const query = `
		INSERT INTO agents (username, created_by, role, tier, created_at)
		VALUES ($1, $2, $3, $4, NOW())
		RETURNING id, created_at
	`

	out := *a
	err := r.pool.QueryRow(ctx, query, a.Username, a.CreatedBy, a.Role, a.Tier).Scan(&out.ID, &out.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create agent: %w", err)
	}
	return &out, nil
}

// GetByUsername returns one agent. Returns ErrAgentNotFound when absent.
func (r *AgentRepository) GetByUsername(ctx context.Context, username string) (*model.Agent, error) {
	const query = `
		SELECT id, username, created_by, role, tier, created_at
		FROM agents
		WHERE username = $1
	`

	var a model.Agent
	err := r.pool.QueryRow(ctx, query, username).Scan(&a.ID, &a.Username, &a.CreatedBy, &a.Role, &a.Tier, &a.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAgentNotFound
		}
		return nil, fmt.Errorf("failed to get agent: %w", err)
	}
	return &a, nil
}

// ListAgents returns the whole roster.
func (r *AgentRepository) ListAgents(ctx context.Context) ([]model.Agent, error) {
	const query = `
		SELECT id, username, created_by, role, tier, created_at
		FROM agents
		ORDER BY id
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list agents: %w", err)
	}
	defer rows.Close()

	var out []model.Agent
	for rows.Next() {
		var a model.Agent
		if err := rows.Scan(&a.ID, &a.Username, &a.CreatedBy, &a.Role, &a.Tier, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan agent: %w", err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating agents: %w", err)
	}
	return out, nil
}
