package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"lotto-engine/internal/draw"
	"lotto-engine/internal/model"
	"lotto-engine/internal/settle"
)

// ErrInvalidResult rejects a publication that does not carry the five
// ordered prize numbers.
var ErrInvalidResult = errors.New("a result must carry five ordered prize numbers")

// resultStore is the result repository contract.
type resultStore interface {
	Upsert(ctx context.Context, result *model.DrawResult) error
	Get(ctx context.Context, date, drawLabel string) (*model.DrawResult, error)
	ListByDate(ctx context.Context, date string) ([]model.DrawResult, error)
}

// ResultService publishes and reads draw results.
type ResultService struct {
	store resultStore
	cache invalidator
}

// NewResultService creates a ResultService. cache may be nil.
func NewResultService(store resultStore, cache invalidator) *ResultService {
	return &ResultService{store: store, cache: cache}
}

// Publish upserts the result for (date, draw). Results are stored under the
// canonical draw label so both spellings of a draw settle against one record.
// Republishing corrects a result in place; already-generated winning reports
// are recomputed on the next read rather than stored.
func (s *ResultService) Publish(ctx context.Context, date, drawLabel string, prizes, others []string) error {
	if len(prizes) != 5 {
		return ErrInvalidResult
	}
	for _, p := range prizes {
		if p == "" {
			return ErrInvalidResult
		}
	}

	result := &model.DrawResult{
		Date:      date,
		DrawLabel: draw.Canonical(drawLabel),
		Prizes:    prizes,
		Others:    settle.NormalizeOthers(others),
	}
	if err := s.store.Upsert(ctx, result); err != nil {
		return err
	}
	if s.cache != nil {
		s.cache.Clear()
	}

	log.Info().Str("date", date).Str("draw", result.DrawLabel).Msg("draw result published")
	return nil
}

// Get returns the result for (date, draw), looked up under the canonical
// label.
func (s *ResultService) Get(ctx context.Context, date, drawLabel string) (*model.DrawResult, error) {
	res, err := s.store.Get(ctx, date, draw.Canonical(drawLabel))
	if err != nil {
		return nil, fmt.Errorf("failed to get result for %s %s: %w", date, drawLabel, err)
	}
	return res, nil
}

// ListByDate returns every published result for one date.
func (s *ResultService) ListByDate(ctx context.Context, date string) ([]model.DrawResult, error) {
	return s.store.ListByDate(ctx, date)
}
