package service

import (
	"context"
	"errors"
	"fmt"

	"lotto-engine/internal/draw"
	"lotto-engine/internal/model"
	"lotto-engine/internal/pkg/cache"
	"lotto-engine/internal/repository"
	"lotto-engine/internal/settle"
)

// summaryStore reads the sales rollups.
type summaryStore interface {
	List(ctx context.Context, agentID, fromDate, toDate, drawLabel string) ([]model.SalesSummary, error)
}

// reportEntryStore reads entries for the winnings report.
type reportEntryStore interface {
	ListByAgents(ctx context.Context, agents []string, fromDate, toDate string, drawLabels []string) ([]model.BetEntry, error)
}

// schemeStore reads the per-tier payout tables.
type schemeStore interface {
	Get(ctx context.Context, tier int, drawLabel string) (*model.SchemeTable, error)
}

// agentTree resolves an agent's branch and tier.
type agentTree interface {
	Descendants(username string) []string
	Tier(username string) int
}

// WinningLine is one winning entry in a winnings report.
type WinningLine struct {
	BillNo    string  `json:"billNo"`
	AgentID   string  `json:"agentId"`
	Date      string  `json:"date"`
	DrawLabel string  `json:"drawLabel"`
	Number    string  `json:"number"`
	BetType   string  `json:"betType"`
	Count     int     `json:"count"`
	WinType   string  `json:"winType"`
	WinAmount float64 `json:"winAmount"`
}

// WinningsReport is the settlement of an agent's branch over a date range.
type WinningsReport struct {
	Lines      []WinningLine `json:"lines"`
	GrandTotal float64       `json:"grandTotal"`
}

// ReportService serves the sales and winnings reports with a short-TTL read
// cache in front of the summary tables.
type ReportService struct {
	summaries summaryStore
	entries   reportEntryStore
	results   resultStore
	schemes   schemeStore
	tree      agentTree
	cache     *cache.Cache
}

// NewReportService creates a ReportService. c may be nil to disable caching.
func NewReportService(summaries summaryStore, entries reportEntryStore, results resultStore, schemes schemeStore, tree agentTree, c *cache.Cache) *ReportService {
	return &ReportService{summaries: summaries, entries: entries, results: results, schemes: schemes, tree: tree, cache: c}
}

// Sales returns the agent's rollups for a date range. drawLabel may be empty
// to cover every draw.
func (s *ReportService) Sales(ctx context.Context, agentID, fromDate, toDate, drawLabel string) ([]model.SalesSummary, error) {
	canonical := ""
	if drawLabel != "" {
		canonical = draw.Canonical(drawLabel)
	}
	key := fmt.Sprintf("sales|%s|%s|%s|%s", agentID, fromDate, toDate, canonical)
	if s.cache != nil {
		if v, ok := s.cache.Get(key); ok {
			return v.([]model.SalesSummary), nil
		}
	}

	summaries, err := s.summaries.List(ctx, agentID, fromDate, toDate, canonical)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		s.cache.Set(key, summaries)
	}
	return summaries, nil
}

// Winnings settles the branch below (and including) the agent against the
// published results of a date range. Entries of an unpublished draw simply
// contribute nothing. Amounts come from the scheme table of each selling
// agent's own tier.
func (s *ReportService) Winnings(ctx context.Context, agentID, fromDate, toDate, drawLabel string) (*WinningsReport, error) {
	agents := append([]string{agentID}, s.tree.Descendants(agentID)...)

	var labels []string
	if drawLabel != "" {
		labels = draw.LabelsFor(draw.Canonical(drawLabel))
	}

	entries, err := s.entries.ListByAgents(ctx, agents, fromDate, toDate, labels)
	if err != nil {
		return nil, err
	}

	type resultKey struct{ date, label string }
	resultCache := make(map[resultKey]*model.DrawResult)
	type schemeKey struct {
		tier  int
		label string
	}
	schemeCache := make(map[schemeKey]*model.SchemeTable)

	report := &WinningsReport{}
	for i := range entries {
		e := &entries[i]
		canonical := draw.Canonical(e.DrawLabel)

		rk := resultKey{date: e.SettlementDate, label: canonical}
		result, seen := resultCache[rk]
		if !seen {
			result, err = s.results.Get(ctx, rk.date, rk.label)
			if err != nil && !errors.Is(err, repository.ErrResultNotFound) {
				return nil, err
			}
			resultCache[rk] = result
		}
		if result == nil {
			continue
		}

		tier := s.tree.Tier(e.AgentID)
		sk := schemeKey{tier: tier, label: canonical}
		scheme, seen := schemeCache[sk]
		if !seen {
			scheme, err = s.schemes.Get(ctx, tier, canonical)
			if err != nil {
				return nil, err
			}
			schemeCache[sk] = scheme
		}

		outcome := settle.Settle(e, result, scheme)
		if outcome.WinType == "" {
			continue
		}
		report.Lines = append(report.Lines, WinningLine{
			BillNo:    e.BatchID,
			AgentID:   e.AgentID,
			Date:      e.SettlementDate,
			DrawLabel: canonical,
			Number:    e.Number,
			BetType:   string(e.BetType),
			Count:     e.Count,
			WinType:   outcome.WinType,
			WinAmount: outcome.WinAmount,
		})
		report.GrandTotal += outcome.WinAmount
	}

	report.GrandTotal = round2(report.GrandTotal)
	return report, nil
}

// CountByNumber aggregates the sold counts per (bet type, number) over a
// branch, for exposure review before a draw.
func (s *ReportService) CountByNumber(ctx context.Context, agentID, date, drawLabel string) (map[string]int, error) {
	agents := append([]string{agentID}, s.tree.Descendants(agentID)...)

	var labels []string
	if drawLabel != "" {
		labels = draw.LabelsFor(draw.Canonical(drawLabel))
	}

	entries, err := s.entries.ListByAgents(ctx, agents, date, date, labels)
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int)
	for _, e := range entries {
		counts[string(e.BetType)+"-"+e.Number] += e.Count
	}
	return counts, nil
}
