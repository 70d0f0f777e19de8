// Package settle matches persisted bets against a published draw result and
// computes the win type and payout. Settlement is deterministic and never
// errors on missing data: an absent result or scheme row pays zero.
package settle

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"lotto-engine/internal/model"
)

// Win type labels. These appear verbatim in winning reports.
const (
	WinSuper1     = "SUPER 1"
	WinSuper2     = "SUPER 2"
	WinSuper3     = "SUPER 3"
	WinSuper4     = "SUPER 4"
	WinSuper5     = "SUPER 5"
	WinSuperOther = "SUPER other"

	WinBoxPerfect           = "BOX perfect"
	WinBoxPermutation       = "BOX permutation"
	WinBoxDoublePerfect     = "BOX double perfect"
	WinBoxDoublePermutation = "BOX double permutation"
)

// IsDoubleNumber reports whether a 3-digit number has exactly one repeated
// digit ("121", "store" terminology: a double).
func IsDoubleNumber(num string) bool {
	distinct := make(map[rune]struct{}, len(num))
	for _, r := range num {
		distinct[r] = struct{}{}
	}
	return len(distinct) == 2
}

// sortDigits returns the digits of s in ascending order, for multiset
// comparison between a bet number and the winning number.
func sortDigits(s string) string {
	b := []byte(s)
	sort.Slice(b, func(i, j int) bool { return b[i] < b[j] })
	return string(b)
}

// WinType classifies a bet against a result. The empty string means no win.
//
//	SUPER   exact match on the five ordered prize slots, then the others list
//	BOX     first prize verbatim (perfect) or as a digit multiset
//	        (permutation), in double variants when the winning number
//	        repeats a digit
//	AB/BC/AC two-digit windows of the first prize (positions 0-1, 1-2, 0&2)
//	A/B/C   one fixed digit of the first prize (position 0, 1, 2)
func WinType(number string, betType model.BetType, result *model.DrawResult) string {
	if result == nil {
		return ""
	}
	first := result.Prize(1)

	switch betType {
	case model.BetTypeSuper:
		for slot := 1; slot <= 5; slot++ {
			if p := result.Prize(slot); p != "" && number == p {
				return "SUPER " + strconv.Itoa(slot)
			}
		}
		for _, o := range result.Others {
			if number == o {
				return WinSuperOther
			}
		}
		return ""

	case model.BetTypeBox:
		if first == "" {
			return ""
		}
		double := IsDoubleNumber(first)
		switch {
		case number == first:
			if double {
				return WinBoxDoublePerfect
			}
			return WinBoxPerfect
		case sortDigits(number) == sortDigits(first):
			if double {
				return WinBoxDoublePermutation
			}
			return WinBoxPermutation
		}
		return ""

	case model.BetTypeAB, model.BetTypeBC, model.BetTypeAC:
		if len(first) < 3 || len(number) != 2 {
			return ""
		}
		var window string
		switch betType {
		case model.BetTypeAB:
			window = first[0:2]
		case model.BetTypeBC:
			window = first[1:3]
		default: // AC
			window = string(first[0]) + string(first[2])
		}
		if number == window {
			return string(betType)
		}
		return ""

	case model.BetTypeA, model.BetTypeB, model.BetTypeC:
		if len(first) < 3 || len(number) != 1 {
			return ""
		}
		pos := map[model.BetType]int{model.BetTypeA: 0, model.BetTypeB: 1, model.BetTypeC: 2}[betType]
		if number == string(first[pos]) {
			return string(betType)
		}
		return ""
	}
	return ""
}

// Outcome is the settlement of one bet entry.
type Outcome struct {
	WinType   string
	WinAmount float64
}

var winPosRe = regexp.MustCompile(`(\d+)`)

// Settle computes the outcome of one entry against a result under a pricing
// tier's scheme table. A missing result, group, or row yields a zero payout.
func Settle(entry *model.BetEntry, result *model.DrawResult, scheme *model.SchemeTable) Outcome {
	winType := WinType(entry.Number, entry.BetType, result)
	if winType == "" {
		return Outcome{}
	}

	row := findSchemeRow(entry.BetType, winType, scheme)
	if row == nil {
		return Outcome{WinType: winType}
	}
	return Outcome{WinType: winType, WinAmount: row.Amount * float64(entry.Count)}
}

// findSchemeRow picks the payout row for a win. Single and pair groups key
// rows by the bet type; SUPER keys by prize position (0 = others list); BOX
// keys by the four perfect/permutation/double variants and falls back to the
// group's first row when the variant row is missing.
func findSchemeRow(betType model.BetType, winType string, scheme *model.SchemeTable) *model.SchemeRow {
	if scheme == nil {
		return nil
	}

	var group string
	switch {
	case betType.IsSingleDigit():
		group = model.SchemeGroupSingle
	case betType.IsPair():
		group = model.SchemeGroupPair
	case betType == model.BetTypeSuper:
		group = model.SchemeGroupSuper
	case betType == model.BetTypeBox:
		group = model.SchemeGroupBox
	}

	var rows []model.SchemeRow
	for _, r := range scheme.Rows {
		if r.Group == group {
			rows = append(rows, r)
		}
	}
	if len(rows) == 0 {
		return nil
	}

	switch {
	case betType.IsSingleDigit() || betType.IsPair():
		for i := range rows {
			if rows[i].Scheme == string(betType) {
				return &rows[i]
			}
		}
	case betType == model.BetTypeSuper:
		pos := model.SuperPosOther
		if winType != WinSuperOther {
			if m := winPosRe.FindString(winType); m != "" {
				pos, _ = strconv.Atoi(m)
			}
		}
		for i := range rows {
			if rows[i].Pos == pos {
				return &rows[i]
			}
		}
	case betType == model.BetTypeBox:
		pos := boxPos(winType)
		for i := range rows {
			if rows[i].Pos == pos {
				return &rows[i]
			}
		}
		return &rows[0]
	}
	return nil
}

func boxPos(winType string) int {
	switch winType {
	case WinBoxPerfect:
		return model.BoxPosPerfect
	case WinBoxPermutation:
		return model.BoxPosPermutation
	case WinBoxDoublePerfect:
		return model.BoxPosDoublePerfect
	case WinBoxDoublePermutation:
		return model.BoxPosDoublePermutation
	}
	return model.BoxPosPerfect
}

// DefaultSchemeRows is the network's standard payout sheet, used to seed new
// tiers: SUPER 5000/500/250/100/50 with 20 on the others list, BOX
// 3000/800 and 3800/1600 for doubles, 700 for pairs and 100 for singles.
func DefaultSchemeRows() []model.SchemeRow {
	rows := []model.SchemeRow{
		{Group: model.SchemeGroupSuper, Pos: 1, Amount: 5000},
		{Group: model.SchemeGroupSuper, Pos: 2, Amount: 500},
		{Group: model.SchemeGroupSuper, Pos: 3, Amount: 250},
		{Group: model.SchemeGroupSuper, Pos: 4, Amount: 100},
		{Group: model.SchemeGroupSuper, Pos: 5, Amount: 50},
		{Group: model.SchemeGroupSuper, Pos: model.SuperPosOther, Amount: 20},
		{Group: model.SchemeGroupBox, Pos: model.BoxPosPerfect, Amount: 3000},
		{Group: model.SchemeGroupBox, Pos: model.BoxPosPermutation, Amount: 800},
		{Group: model.SchemeGroupBox, Pos: model.BoxPosDoublePerfect, Amount: 3800},
		{Group: model.SchemeGroupBox, Pos: model.BoxPosDoublePermutation, Amount: 1600},
	}
	for _, t := range []model.BetType{model.BetTypeAB, model.BetTypeBC, model.BetTypeAC} {
		rows = append(rows, model.SchemeRow{Group: model.SchemeGroupPair, Scheme: string(t), Amount: 700})
	}
	for _, t := range []model.BetType{model.BetTypeA, model.BetTypeB, model.BetTypeC} {
		rows = append(rows, model.SchemeRow{Group: model.SchemeGroupSingle, Scheme: string(t), Amount: 100})
	}
	return rows
}

// NormalizeOthers trims and drops empty strings from a published others list.
func NormalizeOthers(others []string) []string {
	var out []string
	for _, o := range others {
		if s := strings.TrimSpace(o); s != "" {
			out = append(out, s)
		}
	}
	return out
}
