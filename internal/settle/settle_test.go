package settle

import (
	"testing"

	"lotto-engine/internal/model"
)

func testResult() *model.DrawResult {
	return &model.DrawResult{
		Date:      "2026-08-29",
		DrawLabel: "DEAR 1 PM",
		Prizes:    []string{"123", "456", "789", "321", "654"},
		Others:    []string{"111", "999"},
	}
}

func TestIsDoubleNumber(t *testing.T) {
	tests := []struct {
		num      string
		expected bool
	}{
		{"121", true},
		{"112", true},
		{"211", true},
		{"123", false},
		{"777", false},
	}

	for _, tt := range tests {
		if got := IsDoubleNumber(tt.num); got != tt.expected {
			t.Errorf("IsDoubleNumber(%q) = %v, want %v", tt.num, got, tt.expected)
		}
	}
}

func TestWinTypeSuper(t *testing.T) {
	result := testResult()
	tests := []struct {
		name     string
		number   string
		expected string
	}{
		{"first prize", "123", WinSuper1},
		{"second prize", "456", WinSuper2},
		{"fifth prize", "654", WinSuper5},
		{"others list", "999", WinSuperOther},
		{"no match", "000", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := WinType(tt.number, model.BetTypeSuper, result); got != tt.expected {
				t.Errorf("WinType(%q, SUPER) = %q, want %q", tt.number, got, tt.expected)
			}
		})
	}
}

func TestWinTypeBox(t *testing.T) {
	tests := []struct {
		name     string
		first    string
		number   string
		expected string
	}{
		{"perfect", "123", "123", WinBoxPerfect},
		{"permutation", "123", "312", WinBoxPermutation},
		{"double perfect", "121", "121", WinBoxDoublePerfect},
		{"double permutation", "121", "211", WinBoxDoublePermutation},
		{"no match", "123", "124", ""},
		{"digit count differs", "123", "12", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := testResult()
			result.Prizes[0] = tt.first
			if got := WinType(tt.number, model.BetTypeBox, result); got != tt.expected {
				t.Errorf("WinType(%q, BOX) against %q = %q, want %q", tt.number, tt.first, got, tt.expected)
			}
		})
	}
}

func TestWinTypePairs(t *testing.T) {
	// First prize 123: AB window "12", BC window "23", AC window "13".
	result := testResult()
	tests := []struct {
		betType  model.BetType
		number   string
		expected string
	}{
		{model.BetTypeAB, "12", "AB"},
		{model.BetTypeAB, "23", ""},
		{model.BetTypeBC, "23", "BC"},
		{model.BetTypeBC, "12", ""},
		{model.BetTypeAC, "13", "AC"},
		{model.BetTypeAC, "12", ""},
	}

	for _, tt := range tests {
		if got := WinType(tt.number, tt.betType, result); got != tt.expected {
			t.Errorf("WinType(%q, %s) = %q, want %q", tt.number, tt.betType, got, tt.expected)
		}
	}
}

func TestWinTypeSingles(t *testing.T) {
	result := testResult()
	tests := []struct {
		betType  model.BetType
		number   string
		expected string
	}{
		{model.BetTypeA, "1", "A"},
		{model.BetTypeA, "2", ""},
		{model.BetTypeB, "2", "B"},
		{model.BetTypeC, "3", "C"},
		{model.BetTypeC, "1", ""},
	}

	for _, tt := range tests {
		if got := WinType(tt.number, tt.betType, result); got != tt.expected {
			t.Errorf("WinType(%q, %s) = %q, want %q", tt.number, tt.betType, got, tt.expected)
		}
	}
}

func TestWinTypeNilResult(t *testing.T) {
	if got := WinType("123", model.BetTypeSuper, nil); got != "" {
		t.Errorf("WinType against nil result = %q, want empty", got)
	}
}

func defaultScheme() *model.SchemeTable {
	return &model.SchemeTable{Tier: 1, DrawLabel: "DEAR 1 PM", Rows: DefaultSchemeRows()}
}

func TestSettlePayouts(t *testing.T) {
	result := testResult()
	scheme := defaultScheme()
	tests := []struct {
		name      string
		entry     model.BetEntry
		winType   string
		winAmount float64
	}{
		{"super first prize", model.BetEntry{Number: "123", BetType: model.BetTypeSuper, Count: 2}, WinSuper1, 10000},
		{"super second prize", model.BetEntry{Number: "456", BetType: model.BetTypeSuper, Count: 1}, WinSuper2, 500},
		{"super others", model.BetEntry{Number: "111", BetType: model.BetTypeSuper, Count: 3}, WinSuperOther, 60},
		{"box perfect", model.BetEntry{Number: "123", BetType: model.BetTypeBox, Count: 1}, WinBoxPerfect, 3000},
		{"box permutation", model.BetEntry{Number: "231", BetType: model.BetTypeBox, Count: 2}, WinBoxPermutation, 1600},
		{"pair AB", model.BetEntry{Number: "12", BetType: model.BetTypeAB, Count: 1}, "AB", 700},
		{"single A", model.BetEntry{Number: "1", BetType: model.BetTypeA, Count: 4}, "A", 400},
		{"losing entry", model.BetEntry{Number: "888", BetType: model.BetTypeSuper, Count: 5}, "", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			outcome := Settle(&tt.entry, result, scheme)
			if outcome.WinType != tt.winType {
				t.Errorf("win type = %q, want %q", outcome.WinType, tt.winType)
			}
			if outcome.WinAmount != tt.winAmount {
				t.Errorf("win amount = %v, want %v", outcome.WinAmount, tt.winAmount)
			}
		})
	}
}

func TestSettleDoubleVariants(t *testing.T) {
	result := testResult()
	result.Prizes[0] = "121"
	scheme := defaultScheme()

	perfect := Settle(&model.BetEntry{Number: "121", BetType: model.BetTypeBox, Count: 1}, result, scheme)
	if perfect.WinType != WinBoxDoublePerfect || perfect.WinAmount != 3800 {
		t.Errorf("double perfect = %+v, want 3800", perfect)
	}

	perm := Settle(&model.BetEntry{Number: "211", BetType: model.BetTypeBox, Count: 1}, result, scheme)
	if perm.WinType != WinBoxDoublePermutation || perm.WinAmount != 1600 {
		t.Errorf("double permutation = %+v, want 1600", perm)
	}
}

func TestSettleMissingData(t *testing.T) {
	entry := &model.BetEntry{Number: "123", BetType: model.BetTypeSuper, Count: 1}

	if got := Settle(entry, nil, defaultScheme()); got.WinType != "" || got.WinAmount != 0 {
		t.Errorf("missing result = %+v, want zero outcome", got)
	}

	// A win with no scheme table keeps the type but pays nothing.
	got := Settle(entry, testResult(), nil)
	if got.WinType != WinSuper1 || got.WinAmount != 0 {
		t.Errorf("missing scheme = %+v, want SUPER 1 at 0", got)
	}
}

func TestSettleBoxRowFallback(t *testing.T) {
	// A scheme with only the perfect row still pays permutation wins from
	// the group's first row.
	scheme := &model.SchemeTable{Tier: 1, DrawLabel: "DEAR 1 PM", Rows: []model.SchemeRow{
		{Group: model.SchemeGroupBox, Pos: model.BoxPosPerfect, Amount: 2500},
	}}

	got := Settle(&model.BetEntry{Number: "231", BetType: model.BetTypeBox, Count: 1}, testResult(), scheme)
	if got.WinType != WinBoxPermutation || got.WinAmount != 2500 {
		t.Errorf("fallback outcome = %+v, want BOX permutation at 2500", got)
	}
}
