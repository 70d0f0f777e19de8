package model

import (
	"errors"
	"testing"
)

func TestParseBetType(t *testing.T) {
	tests := []struct {
		input    string
		expected BetType
	}{
		{"SUPER", BetTypeSuper},
		{"LSK3SUPER", BetTypeSuper},
		{"BOX", BetTypeBox},
		{"D-1-BOX", BetTypeBox},
		{"AB", BetTypeAB},
		{"LSK3AB", BetTypeAB},
		{"BC", BetTypeBC},
		{"AC", BetTypeAC},
		{"A", BetTypeA},
		{"D-1-A", BetTypeA},
		{"lsk3b", BetTypeB},
		{" C ", BetTypeC},
	}

	for _, tt := range tests {
		got, err := ParseBetType(tt.input)
		if err != nil {
			t.Errorf("ParseBetType(%q) failed: %v", tt.input, err)
			continue
		}
		if got != tt.expected {
			t.Errorf("ParseBetType(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}

func TestParseBetTypeUnknown(t *testing.T) {
	for _, input := range []string{"", "XYZ", "123"} {
		if _, err := ParseBetType(input); !errors.Is(err, ErrUnknownBetType) {
			t.Errorf("ParseBetType(%q) = %v, want ErrUnknownBetType", input, err)
		}
	}
}

func TestMaxForGroupPrecedence(t *testing.T) {
	cfg := &TicketLimitConfig{
		Group1: map[BetType]int{BetTypeA: 50, BetTypeSuper: 100},
		Group3: map[BetType]int{BetTypeA: 30},
	}

	if got := cfg.MaxFor(BetTypeA); got != 30 {
		t.Errorf("MaxFor(A) = %d, want later group's 30", got)
	}
	if got := cfg.MaxFor(BetTypeSuper); got != 100 {
		t.Errorf("MaxFor(SUPER) = %d, want 100", got)
	}
	if got := cfg.MaxFor(BetTypeBox); got != DefaultQuotaMax {
		t.Errorf("MaxFor(BOX) = %d, want default %d", got, DefaultQuotaMax)
	}
}

func TestPrize(t *testing.T) {
	r := &DrawResult{Prizes: []string{"123", "456"}}

	if got := r.Prize(1); got != "123" {
		t.Errorf("Prize(1) = %q", got)
	}
	if got := r.Prize(2); got != "456" {
		t.Errorf("Prize(2) = %q", got)
	}
	for _, n := range []int{0, 3, -1} {
		if got := r.Prize(n); got != "" {
			t.Errorf("Prize(%d) = %q, want empty", n, got)
		}
	}

	var nilResult *DrawResult
	if got := nilResult.Prize(1); got != "" {
		t.Errorf("nil Prize(1) = %q, want empty", got)
	}
}
