// Package model defines the data models for the lottery sales engine.
package model

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// BetType classifies a wager. It is produced exactly once, at the system
// boundary, by ParseBetType; downstream code never re-infers it from strings.
type BetType string

const (
	BetTypeA     BetType = "A"
	BetTypeB     BetType = "B"
	BetTypeC     BetType = "C"
	BetTypeAB    BetType = "AB"
	BetTypeBC    BetType = "BC"
	BetTypeAC    BetType = "AC"
	BetTypeSuper BetType = "SUPER"
	BetTypeBox   BetType = "BOX"
)

// ErrUnknownBetType is returned when an encoded type string cannot be
// canonicalized into a BetType.
var ErrUnknownBetType = errors.New("unknown bet type encoding")

// AllBetTypes lists every valid bet type.
func AllBetTypes() []BetType {
	return []BetType{
		BetTypeA, BetTypeB, BetTypeC,
		BetTypeAB, BetTypeBC, BetTypeAC,
		BetTypeSuper, BetTypeBox,
	}
}

// ParseBetType canonicalizes an encoded type string such as "LSK3SUPER",
// "D-1-A" or "BOX" into a BetType. Combination types are checked before
// single-digit types so "AB" never parses as "A".
func ParseBetType(encoded string) (BetType, error) {
	upper := strings.ToUpper(strings.TrimSpace(encoded))
	if upper == "" {
		return "", fmt.Errorf("%w: empty string", ErrUnknownBetType)
	}
	switch {
	case strings.Contains(upper, "SUPER"):
		return BetTypeSuper, nil
	case strings.Contains(upper, "BOX"):
		return BetTypeBox, nil
	case strings.Contains(upper, "AB"):
		return BetTypeAB, nil
	case strings.Contains(upper, "BC"):
		return BetTypeBC, nil
	case strings.Contains(upper, "AC"):
		return BetTypeAC, nil
	case strings.HasSuffix(upper, "A"):
		return BetTypeA, nil
	case strings.HasSuffix(upper, "B"):
		return BetTypeB, nil
	case strings.HasSuffix(upper, "C"):
		return BetTypeC, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownBetType, encoded)
}

// IsSingleDigit reports whether the bet type wagers on one digit of the
// first prize (A, B or C).
func (t BetType) IsSingleDigit() bool {
	return t == BetTypeA || t == BetTypeB || t == BetTypeC
}

// IsPair reports whether the bet type wagers on a two-digit window (AB, BC, AC).
func (t BetType) IsPair() bool {
	return t == BetTypeAB || t == BetTypeBC || t == BetTypeAC
}

// BetEntry is one persisted bet. TotalAmount equals UnitRate*Count at creation
// time and is never recomputed afterwards, even if rate tables change.
type BetEntry struct {
	ID             int64     `db:"id"`
	Number         string    `db:"number"`
	BetType        BetType   `db:"bet_type"`
	Count          int       `db:"count"`
	UnitRate       float64   `db:"unit_rate"`
	TotalAmount    float64   `db:"total_amount"`
	DrawLabel      string    `db:"draw_label"`
	TimeCode       string    `db:"time_code"`
	AgentID        string    `db:"agent_id"`
	BatchID        string    `db:"batch_id"`
	SettlementDate string    `db:"settlement_date"`
	CreatedAt      time.Time `db:"created_at"`
	Valid          bool      `db:"valid"`
}

// EntryDraft is an expanded, not-yet-priced bet produced by the expander and
// consumed by the quota and credit checks.
type EntryDraft struct {
	Number  string
	BetType BetType
	Count   int
}

// EntrySpec is a compact bet specification accepted at the submission
// boundary: a literal number, a numeric range, or a permutation set.
type EntrySpec struct {
	Number     string `json:"number"`
	Type       string `json:"type"`
	Count      int    `json:"count"`
	RangeStart *int   `json:"rangeStart,omitempty"`
	RangeEnd   *int   `json:"rangeEnd,omitempty"`
	IsSet      bool   `json:"isSet,omitempty"`
}

// TicketLimitConfig is the singleton global quota seed: per-bet-type maximum
// count per number per day, split over the three groups the admin UI edits.
type TicketLimitConfig struct {
	Group1    map[BetType]int `db:"group1"`
	Group2    map[BetType]int `db:"group2"`
	Group3    map[BetType]int `db:"group3"`
	CreatedBy string          `db:"created_by"`
}

// DefaultQuotaMax is used for a bet type missing from every group.
const DefaultQuotaMax = 9999

// MaxFor returns the configured per-number daily maximum for a bet type,
// merging the three groups (later groups win, as in the admin UI).
func (c *TicketLimitConfig) MaxFor(t BetType) int {
	max := DefaultQuotaMax
	for _, g := range []map[BetType]int{c.Group1, c.Group2, c.Group3} {
		if g == nil {
			continue
		}
		if v, ok := g[t]; ok {
			max = v
		}
	}
	return max
}

// BlockNumber is a per-agent override of the daily quota for one
// (bet type, number, draw) key.
type BlockNumber struct {
	ID        int64   `db:"id"`
	Field     BetType `db:"field"`
	Number    string  `db:"number"`
	DrawTime  string  `db:"draw_time"`
	CreatedBy string  `db:"created_by"`
	Count     int     `db:"count"`
	IsActive  bool    `db:"is_active"`
}

// CreditLimit caps the cumulative charge a selling agent may accumulate per
// settlement date. DrawTime is a canonical draw label or "ALL"; the most
// specific record wins.
type CreditLimit struct {
	ID       int64   `db:"id"`
	FromUser string  `db:"from_user"`
	ToUser   string  `db:"to_user"`
	DrawTime string  `db:"draw_time"`
	Amount   float64 `db:"amount"`
}

// CreditLimitAll marks a credit limit that applies to every draw.
const CreditLimitAll = "ALL"

// RateRow is one bet type's unit price inside a rate table.
type RateRow struct {
	BetType    BetType `db:"bet_type"`
	Rate       float64 `db:"rate"`
	AssignRate float64 `db:"assign_rate"`
}

// RateTable holds an agent's unit prices for one draw ("All" applies to every
// draw without a specific table).
type RateTable struct {
	AgentID string    `db:"agent_id"`
	Draw    string    `db:"draw"`
	Rows    []RateRow `db:"-"`
}

// RateTableAll is the draw key of an agent's fallback rate table.
const RateTableAll = "All"

// DrawWindow is the submission cutoff for one draw and submitter role.
// BlockTime and UnblockTime are "HH:MM" local times.
type DrawWindow struct {
	DrawLabel   string `db:"draw_label"`
	Role        string `db:"role"`
	BlockTime   string `db:"block_time"`
	UnblockTime string `db:"unblock_time"`
}

// Submitter roles with their own cutoffs.
const (
	RoleAdmin  = "admin"
	RoleMaster = "master"
	RoleSub    = "sub"
)

// BlockedDate refuses all submissions for one ticket code on one date.
type BlockedDate struct {
	Ticket string `db:"ticket"`
	Date   string `db:"date"`
}

// DrawResult is the published outcome of one draw on one date: five ordered
// prize numbers plus a secondary list.
type DrawResult struct {
	Date      string    `db:"date"`
	DrawLabel string    `db:"draw_label"`
	Prizes    []string  `db:"prizes"`
	Others    []string  `db:"others"`
	UpdatedAt time.Time `db:"updated_at"`
}

// Prize returns the n-th ordered prize (1-based), or "" when absent.
func (r *DrawResult) Prize(n int) string {
	if r == nil || n < 1 || n > len(r.Prizes) {
		return ""
	}
	return r.Prizes[n-1]
}

// Scheme groups used by the payout tables.
const (
	SchemeGroupSingle = "Group 1"
	SchemeGroupPair   = "Group 2"
	SchemeGroupSuper  = "Group 3-SUPER"
	SchemeGroupBox    = "Group 3-BOX"
)

// Positions inside the SUPER and BOX scheme groups. SUPER positions 1..5 are
// the ordered prize slots; position 0 is the secondary ("others") list.
const (
	SuperPosOther = 0

	BoxPosPerfect           = 1
	BoxPosPermutation       = 2
	BoxPosDoublePerfect     = 3
	BoxPosDoublePermutation = 4
)

// SchemeRow is one payout amount inside a tier's scheme table. Single and
// pair groups key rows by Scheme (the bet type); SUPER and BOX key rows by Pos.
type SchemeRow struct {
	Group  string  `db:"group_name"`
	Scheme string  `db:"scheme"`
	Pos    int     `db:"pos"`
	Amount float64 `db:"amount"`
}

// SchemeTable holds a pricing tier's payout rows for one draw.
type SchemeTable struct {
	Tier      int         `db:"tier"`
	DrawLabel string      `db:"draw_label"`
	Rows      []SchemeRow `db:"-"`
}

// SalesSummary is one agent's per-day, per-draw sales rollup. Self figures
// are the agent's own sales; child figures are the whole branch below them.
type SalesSummary struct {
	AgentID     string  `db:"agent_id"`
	Date        string  `db:"date"`
	DrawLabel   string  `db:"draw_label"`
	SelfCount   int     `db:"self_count"`
	SelfAmount  float64 `db:"self_amount"`
	ChildCount  int     `db:"child_count"`
	ChildAmount float64 `db:"child_amount"`
	TotalCount  int     `db:"total_count"`
	TotalAmount float64 `db:"total_amount"`

	Rows []SummaryRow `db:"-"`
}

// SummaryRow is a per-scheme line inside a sales summary.
type SummaryRow struct {
	Scheme string  `db:"scheme"`
	Count  int     `db:"count"`
	Amount float64 `db:"amount"`
}

// Agent is a reseller. CreatedBy names the parent agent; the roster forms a
// forest walked by the hierarchy index.
type Agent struct {
	ID        int64     `db:"id"`
	Username  string    `db:"username"`
	CreatedBy string    `db:"created_by"`
	Role      string    `db:"role"`
	Tier      int       `db:"tier"`
	CreatedAt time.Time `db:"created_at"`
}
