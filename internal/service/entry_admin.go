package service

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"lotto-engine/internal/model"
)

// adminEntryStore is the subset of the entry repository the admin surface
// uses.
type adminEntryStore interface {
	ListByBatch(ctx context.Context, batchID string) ([]model.BetEntry, error)
	UpdateCount(ctx context.Context, id int64, count int) (*model.BetEntry, error)
	InvalidateBatch(ctx context.Context, batchID string) (int64, error)
	DeleteBatch(ctx context.Context, batchID string) (int64, error)
}

// EntryAdminService covers post-submission corrections: voiding a bill,
// adjusting a count while the draw is still open, hard deletion.
type EntryAdminService struct {
	entries adminEntryStore
	gate    windowGate
	cache   invalidator
	now     func() time.Time
}

// NewEntryAdminService creates an EntryAdminService. cache may be nil.
func NewEntryAdminService(entries adminEntryStore, gate windowGate, cache invalidator) *EntryAdminService {
	return &EntryAdminService{entries: entries, gate: gate, now: time.Now, cache: cache}
}

// WithClock replaces the service's time source.
func (s *EntryAdminService) WithClock(now func() time.Time) *EntryAdminService {
	s.now = now
	return s
}

// ListBill returns the valid entries of one bill.
func (s *EntryAdminService) ListBill(ctx context.Context, billNo string) ([]model.BetEntry, error) {
	return s.entries.ListByBatch(ctx, billNo)
}

// UpdateCount adjusts one entry's count. The adjustment is only allowed while
// submissions for the entry's draw are themselves still accepted; once the
// draw is inside its blocked window the bill is frozen.
func (s *EntryAdminService) UpdateCount(ctx context.Context, entry *model.BetEntry, role string, count int) (*model.BetEntry, error) {
	decision, err := s.gate.Check(ctx, entry.DrawLabel, role, s.now())
	if err != nil {
		return nil, err
	}
	if decision.Blocked {
		return nil, ErrDrawBlocked
	}

	updated, err := s.entries.UpdateCount(ctx, entry.ID, count)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		s.cache.Clear()
	}
	return updated, nil
}

// Invalidate soft-deletes every entry of a bill. The quota already consumed
// by the bill is not restored; the stricter outcome stands.
func (s *EntryAdminService) Invalidate(ctx context.Context, billNo string) (int64, error) {
	n, err := s.entries.InvalidateBatch(ctx, billNo)
	if err != nil {
		return 0, err
	}
	if s.cache != nil {
		s.cache.Clear()
	}
	log.Info().Str("bill_no", billNo).Int64("entries", n).Msg("bill invalidated")
	return n, nil
}

// Delete permanently removes a bill.
func (s *EntryAdminService) Delete(ctx context.Context, billNo string) (int64, error) {
	n, err := s.entries.DeleteBatch(ctx, billNo)
	if err != nil {
		return 0, err
	}
	if s.cache != nil {
		s.cache.Clear()
	}
	log.Info().Str("bill_no", billNo).Int64("entries", n).Msg("bill deleted")
	return n, nil
}
