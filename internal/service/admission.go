// Package service implements the application services over the repositories:
// the admission pipeline, result publication, reports and reconciliation.
package service

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog/log"

	"lotto-engine/internal/draw"
	"lotto-engine/internal/expand"
	"lotto-engine/internal/model"
	"lotto-engine/internal/quota"
)

// windowGate decides the draw time window for a submission instant.
type windowGate interface {
	Check(ctx context.Context, drawLabel, role string, now time.Time) (*draw.Decision, error)
}

// blockedDateStore answers calendar-date blocks.
type blockedDateStore interface {
	IsBlocked(ctx context.Context, ticket, date string) (bool, error)
}

// limitConfigStore loads the singleton global quota configuration.
type limitConfigStore interface {
	Get(ctx context.Context) (*model.TicketLimitConfig, error)
}

// rateSource resolves the selling agent's effective unit rates.
type rateSource interface {
	Table(ctx context.Context, agentID, drawLabel string) (map[model.BetType]float64, error)
}

// creditStore resolves the governing credit ceiling.
type creditStore interface {
	Resolve(ctx context.Context, toUser, drawLabel string) (*model.CreditLimit, error)
}

// entryStore is the subset of the entry repository the pipeline uses.
type entryStore interface {
	NextBillNumber(ctx context.Context) (string, error)
	CreateBatch(ctx context.Context, entries []model.BetEntry) ([]model.BetEntry, error)
	SoldAmount(ctx context.Context, agentID, date string, drawLabels []string) (float64, error)
}

// rollupApplier credits a persisted batch to the sales summaries.
type rollupApplier interface {
	Apply(ctx context.Context, agentID, date, drawLabel string, entries []model.BetEntry) error
}

// invalidator drops cached report reads after a write.
type invalidator interface {
	Clear()
}

// SubmitRequest is one batch submission.
type SubmitRequest struct {
	Entries           []model.EntrySpec `json:"entries"`
	DrawLabel         string            `json:"drawLabel"`
	TimeCode          string            `json:"timeCode"`
	SellingAgentID    string            `json:"sellingAgentId"`
	SubmittingAgentID string            `json:"submittingAgentId"`
	Role              string            `json:"role"`
	ToggleCount       int               `json:"toggleCount"`
	// SettlementDateOverride replaces the gate-derived settlement date when
	// set, for back-dated corrections by admins.
	SettlementDateOverride string `json:"settlementDate,omitempty"`
}

// SubmitResult is a successful admission. Truncated is non-empty when the
// global ledger silently reduced some counts (partial admission).
type SubmitResult struct {
	BillNo         string             `json:"billNo"`
	SettlementDate string             `json:"settlementDate"`
	EntryCount     int                `json:"entryCount"`
	TotalAmount    float64            `json:"totalAmount"`
	Truncated      []quota.Exceedance `json:"truncated,omitempty"`
}

// AdmissionPipeline runs the full submission sequence: window gate, blocked
// date, expansion, layered quotas, credit ceiling, pricing, atomic persist,
// ledger commit and rollup.
type AdmissionPipeline struct {
	gate        windowGate
	blocked     blockedDateStore
	limits      limitConfigStore
	ledger      *quota.Ledger
	rates       rateSource
	credits     creditStore
	entries     entryStore
	rollup      rollupApplier
	reportCache invalidator
	now         func() time.Time
}

// NewAdmissionPipeline wires the pipeline. reportCache may be nil; now
// defaults to time.Now.
func NewAdmissionPipeline(
	gate windowGate,
	blocked blockedDateStore,
	limits limitConfigStore,
	ledger *quota.Ledger,
	rates rateSource,
	credits creditStore,
	entries entryStore,
	rollup rollupApplier,
	reportCache invalidator,
) *AdmissionPipeline {
	return &AdmissionPipeline{
		gate:        gate,
		blocked:     blocked,
		limits:      limits,
		ledger:      ledger,
		rates:       rates,
		credits:     credits,
		entries:     entries,
		rollup:      rollup,
		reportCache: reportCache,
		now:         time.Now,
	}
}

// WithClock replaces the pipeline's time source.
func (p *AdmissionPipeline) WithClock(now func() time.Time) *AdmissionPipeline {
	p.now = now
	return p
}

// Submit admits one batch. Any returned error means nothing was persisted;
// failures after the batch insert are logged and left for reconciliation.
func (p *AdmissionPipeline) Submit(ctx context.Context, req *SubmitRequest) (*SubmitResult, error) {
	now := p.now()

	decision, err := p.gate.Check(ctx, req.DrawLabel, req.Role, now)
	if err != nil {
		return nil, err
	}
	if decision.Blocked {
		return nil, ErrDrawBlocked
	}
	settlementDate := decision.SettlementDate
	if req.SettlementDateOverride != "" {
		settlementDate = req.SettlementDateOverride
	}

	blocked, err := p.blocked.IsBlocked(ctx, draw.TicketCode(req.DrawLabel), settlementDate)
	if err != nil {
		return nil, fmt.Errorf("failed to check blocked date: %w", err)
	}
	if blocked {
		return nil, ErrDateBlocked
	}

	drafts, err := expand.Expand(req.Entries, req.ToggleCount)
	if err != nil {
		return nil, err
	}

	cfg, err := p.limits.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load ticket limit config: %w", err)
	}

	valid, exceeded, err := p.ledger.GlobalPass(ctx, settlementDate, drafts, cfg)
	if err != nil {
		return nil, err
	}
	if len(valid) == 0 && len(exceeded) > 0 {
		return nil, &AllExceededError{Exceeded: exceeded}
	}

	canonical := draw.Canonical(req.DrawLabel)

	overrideViolations, err := p.ledger.StrictOverridePass(ctx, req.SellingAgentID, canonical, valid)
	if err != nil {
		return nil, err
	}
	if len(overrideViolations) > 0 {
		return nil, &OverrideLimitError{Violations: overrideViolations}
	}

	agentViolations, err := p.ledger.AgentPass(ctx, settlementDate, req.SellingAgentID, canonical, valid, cfg)
	if err != nil {
		return nil, err
	}
	if len(agentViolations) > 0 {
		return nil, &AgentLimitError{Violations: agentViolations}
	}

	rates, err := p.rates.Table(ctx, req.SellingAgentID, req.DrawLabel)
	if err != nil {
		return nil, err
	}

	var attempt float64
	for _, d := range valid {
		attempt += rates[d.BetType] * float64(d.Count)
	}

	if err := p.checkCredit(ctx, req.SellingAgentID, canonical, settlementDate, attempt); err != nil {
		return nil, err
	}

	billNo, err := p.entries.NextBillNumber(ctx)
	if err != nil {
		return nil, err
	}

	batch := make([]model.BetEntry, len(valid))
	for i, d := range valid {
		rate := rates[d.BetType]
		batch[i] = model.BetEntry{
			Number:         d.Number,
			BetType:        d.BetType,
			Count:          d.Count,
			UnitRate:       rate,
			TotalAmount:    rate * float64(d.Count),
			DrawLabel:      req.DrawLabel,
			TimeCode:       req.TimeCode,
			AgentID:        req.SellingAgentID,
			BatchID:        billNo,
			SettlementDate: settlementDate,
		}
	}

	persisted, err := p.entries.CreateBatch(ctx, batch)
	if err != nil {
		return nil, err
	}

	// The batch is durable from here on. Ledger and rollup failures are
	// logged and repaired by reconciliation, never rolled back.
	if err := p.ledger.Commit(ctx, settlementDate, req.SellingAgentID, canonical, valid, cfg); err != nil {
		log.Error().Err(err).Str("bill_no", billNo).Msg("failed to commit quota ledgers after persist")
	}
	if err := p.rollup.Apply(ctx, req.SellingAgentID, settlementDate, canonical, persisted); err != nil {
		log.Error().Err(err).Str("bill_no", billNo).Msg("failed to apply sales rollup after persist")
	}
	if p.reportCache != nil {
		p.reportCache.Clear()
	}

	log.Info().
		Str("bill_no", billNo).
		Str("agent", req.SellingAgentID).
		Str("draw", canonical).
		Str("settlement_date", settlementDate).
		Int("entries", len(persisted)).
		Float64("amount", attempt).
		Int("truncated", len(exceeded)).
		Msg("batch admitted")

	return &SubmitResult{
		BillNo:         billNo,
		SettlementDate: settlementDate,
		EntryCount:     len(persisted),
		TotalAmount:    round2(attempt),
		Truncated:      exceeded,
	}, nil
}

func (p *AdmissionPipeline) checkCredit(ctx context.Context, agentID, canonical, date string, attempt float64) error {
	limit, err := p.credits.Resolve(ctx, agentID, canonical)
	if err != nil {
		return err
	}
	if limit == nil {
		return nil
	}

	sold, err := p.entries.SoldAmount(ctx, agentID, date, draw.LabelsFor(canonical))
	if err != nil {
		return err
	}
	if sold+attempt > limit.Amount {
		return &CreditLimitError{
			DrawLabel:      canonical,
			Limit:          round2(limit.Amount),
			AlreadySold:    round2(sold),
			CurrentAttempt: round2(attempt),
			Shortfall:      round2(sold + attempt - limit.Amount),
		}
	}
	return nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
