package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"lotto-engine/internal/model"
)

// SummaryRepository stores the hierarchical sales rollups.
type SummaryRepository struct {
	pool *pgxpool.Pool
}

// NewSummaryRepository creates a new SummaryRepository instance.
func NewSummaryRepository(pool *pgxpool.Pool) *SummaryRepository {
	return &SummaryRepository{pool: pool}
}

// IncrementSummary adds the deltas to one (agent, date, draw) summary in a
// single upsert. Totals are stored as self+child so they can never drift.
func (r *SummaryRepository) IncrementSummary(ctx context.Context, agentID, date, drawLabel string, selfCount int, selfAmount float64, childCount int, childAmount float64) error {
	const query = `
		INSERT INTO sales_summaries (agent_id, date, draw_label,
			self_count, self_amount, child_count, child_amount, total_count, total_amount)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $4 + $6, $5 + $7)
		ON CONFLICT (agent_id, date, draw_label) DO UPDATE SET
			self_count = sales_summaries.self_count + $4,
			self_amount = sales_summaries.self_amount + $5,
			child_count = sales_summaries.child_count + $6,
			child_amount = sales_summaries.child_amount + $7,
			total_count = sales_summaries.total_count + $4 + $6,
			total_amount = sales_summaries.total_amount + $5 + $7
	`

	if _, err := r.pool.Exec(ctx, query, agentID, date, drawLabel, selfCount, selfAmount, childCount, childAmount); err != nil {
		return fmt.Errorf("failed to increment sales summary: %w", err)
	}
	return nil
}

// IncrementRow adds the deltas to one per-scheme line of a summary.
func (r *SummaryRepository) IncrementRow(ctx context.Context, agentID, date, drawLabel, scheme string, count int, amount float64) error {
	const query = `
		INSERT INTO sales_summary_rows (agent_id, date, draw_label, scheme, count, amount)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (agent_id, date, draw_label, scheme) DO UPDATE SET
			count = sales_summary_rows.count + $5,
			amount = sales_summary_rows.amount + $6
	`

	if _, err := r.pool.Exec(ctx, query, agentID, date, drawLabel, scheme, count, amount); err != nil {
		return fmt.Errorf("failed to increment summary row: %w", err)
	}
	return nil
}

// DeleteRange removes every summary and row whose date falls in [from, to].
func (r *SummaryRepository) DeleteRange(ctx context.Context, from, to string) error {
	const rowsQuery = `DELETE FROM sales_summary_rows WHERE date BETWEEN $1 AND $2`
	const summariesQuery = `DELETE FROM sales_summaries WHERE date BETWEEN $1 AND $2`

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, rowsQuery, from, to); err != nil {
		return fmt.Errorf("failed to delete summary rows: %w", err)
	}
	if _, err := tx.Exec(ctx, summariesQuery, from, to); err != nil {
		return fmt.Errorf("failed to delete summaries: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit summary deletion: %w", err)
	}
	return nil
}

// List returns an agent's summaries inside a date range, per-scheme rows
// attached. An empty drawLabel matches every draw.
func (r *SummaryRepository) List(ctx context.Context, agentID, fromDate, toDate, drawLabel string) ([]model.SalesSummary, error) {
	const query = `
		SELECT agent_id, date, draw_label,
			self_count, self_amount, child_count, child_amount, total_count, total_amount
		FROM sales_summaries
		WHERE agent_id = $1 AND date BETWEEN $2 AND $3
			AND ($4 = '' OR draw_label = $4)
		ORDER BY date, draw_label
	`

	rows, err := r.pool.Query(ctx, query, agentID, fromDate, toDate, drawLabel)
	if err != nil {
		return nil, fmt.Errorf("failed to list sales summaries: %w", err)
	}
	defer rows.Close()

	var out []model.SalesSummary
	for rows.Next() {
		var s model.SalesSummary
		err := rows.Scan(&s.AgentID, &s.Date, &s.DrawLabel,
			&s.SelfCount, &s.SelfAmount, &s.ChildCount, &s.ChildAmount, &s.TotalCount, &s.TotalAmount)
		if err != nil {
			return nil, fmt.Errorf("failed to scan sales summary: %w", err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating sales summaries: %w", err)
	}

	for i := range out {
		rows, err := r.listRows(ctx, out[i].AgentID, out[i].Date, out[i].DrawLabel)
		if err != nil {
			return nil, err
		}
		out[i].Rows = rows
	}
	return out, nil
}

func (r *SummaryRepository) listRows(ctx context.Context, agentID, date, drawLabel string) ([]model.SummaryRow, error) {
	const query = `
		SELECT scheme, count, amount
		FROM sales_summary_rows
		WHERE agent_id = $1 AND date = $2 AND draw_label = $3
		ORDER BY scheme
	`

	rows, err := r.pool.Query(ctx, query, agentID, date, drawLabel)
	if err != nil {
		return nil, fmt.Errorf("failed to list summary rows: %w", err)
	}
	defer rows.Close()

	var out []model.SummaryRow
	for rows.Next() {
		var row model.SummaryRow
		if err := rows.Scan(&row.Scheme, &row.Count, &row.Amount); err != nil {
			return nil, fmt.Errorf("failed to scan summary row: %w", err)
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating summary rows: %w", err)
	}
	return out, nil
}
