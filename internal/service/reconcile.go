package service

import (
	"context"
	"errors"

	"lotto-engine/internal/rollup"
)

// ErrBadDateRange rejects a reconciliation request with a reversed or empty
// range.
var ErrBadDateRange = errors.New("invalid date range")

// ReconciliationService rebuilds the sales summaries from the entry ledger.
type ReconciliationService struct {
	engine *rollup.Engine
	source rollup.EntrySource
	cache  invalidator
}

// NewReconciliationService creates a ReconciliationService. cache may be nil.
func NewReconciliationService(engine *rollup.Engine, source rollup.EntrySource, cache invalidator) *ReconciliationService {
	return &ReconciliationService{engine: engine, source: source, cache: cache}
}

// Run deletes every summary in [fromDate, toDate] and replays the valid
// entries of the range. The operation is idempotent; it is the designated
// repair for mid-pipeline persistence failures.
func (s *ReconciliationService) Run(ctx context.Context, fromDate, toDate string) (int, error) {
	if fromDate == "" || toDate == "" || toDate < fromDate {
		return 0, ErrBadDateRange
	}

	replayed, err := s.engine.Reconcile(ctx, s.source, fromDate, toDate)
	if err != nil {
		return 0, err
	}
	if s.cache != nil {
		s.cache.Clear()
	}
	return replayed, nil
}
