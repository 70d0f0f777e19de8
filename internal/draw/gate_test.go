package draw

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"lotto-engine/internal/model"
)

// fakeWindowStore keys windows by "label|role".
type fakeWindowStore struct {
	windows map[string]*model.DrawWindow
}

func (f *fakeWindowStore) Get(_ context.Context, drawLabel, role string) (*model.DrawWindow, error) {
	return f.windows[drawLabel+"|"+role], nil
}

func (f *fakeWindowStore) GetFold(_ context.Context, drawLabel, role string) (*model.DrawWindow, error) {
	for k, w := range f.windows {
		if strings.EqualFold(k, drawLabel+"|"+role) {
			return w, nil
		}
	}
	return nil, nil
}

func at(t *testing.T, clock string) time.Time {
	t.Helper()
	parsed, err := time.Parse("2006-01-02 15:04", "2026-08-29 "+clock)
	if err != nil {
		t.Fatalf("bad clock %q: %v", clock, err)
	}
	return parsed
}

func TestGateCheck(t *testing.T) {
	store := &fakeWindowStore{windows: map[string]*model.DrawWindow{
		"DEAR 1 PM|sub": {DrawLabel: "DEAR 1 PM", Role: "sub", BlockTime: "12:55", UnblockTime: "13:30"},
	}}
	gate := NewGate(store, time.UTC)

	tests := []struct {
		name       string
		now        string
		blocked    bool
		settleDate string
	}{
		{"well before block", "09:00", false, "2026-08-29"},
		{"minute before block", "12:54", false, "2026-08-29"},
		{"exactly at block", "12:55", true, ""},
		{"inside window", "13:10", true, ""},
		{"minute before unblock", "13:29", true, ""},
		{"exactly at unblock", "13:30", false, "2026-08-30"},
		{"after unblock", "18:00", false, "2026-08-30"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			decision, err := gate.Check(context.Background(), "DEAR 1 PM", "sub", at(t, tt.now))
			if err != nil {
				t.Fatalf("Check failed: %v", err)
			}
			if decision.Blocked != tt.blocked {
				t.Errorf("blocked = %v, want %v", decision.Blocked, tt.blocked)
			}
			if !tt.blocked && decision.SettlementDate != tt.settleDate {
				t.Errorf("settlement date = %q, want %q", decision.SettlementDate, tt.settleDate)
			}
		})
	}
}

func TestGateCheckMissingConfig(t *testing.T) {
	gate := NewGate(&fakeWindowStore{windows: map[string]*model.DrawWindow{}}, time.UTC)

	_, err := gate.Check(context.Background(), "DEAR 1 PM", "sub", at(t, "10:00"))
	if !errors.Is(err, ErrConfigMissing) {
		t.Fatalf("expected ErrConfigMissing, got %v", err)
	}
}

func TestGateLookupFallsBackToTicketCode(t *testing.T) {
	store := &fakeWindowStore{windows: map[string]*model.DrawWindow{
		"LSK3|sub": {DrawLabel: "LSK3", Role: "sub", BlockTime: "14:55", UnblockTime: "15:30"},
	}}
	gate := NewGate(store, time.UTC)

	w, err := gate.Lookup(context.Background(), "LSK 3 PM", "sub")
	if err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}
	if w.DrawLabel != "LSK3" {
		t.Errorf("resolved window %q, want LSK3", w.DrawLabel)
	}
}

func TestGateLookupCaseInsensitive(t *testing.T) {
	store := &fakeWindowStore{windows: map[string]*model.DrawWindow{
		"dear1|sub": {DrawLabel: "dear1", Role: "sub", BlockTime: "12:55", UnblockTime: "13:30"},
	}}
	gate := NewGate(store, time.UTC)

	w, err := gate.Lookup(context.Background(), "DEAR 1 PM", "sub")
	if err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}
	if w.DrawLabel != "dear1" {
		t.Errorf("resolved window %q, want dear1", w.DrawLabel)
	}
}

func TestGateRolesSeparateWindows(t *testing.T) {
	store := &fakeWindowStore{windows: map[string]*model.DrawWindow{
		"DEAR 1 PM|sub":   {DrawLabel: "DEAR 1 PM", Role: "sub", BlockTime: "12:45", UnblockTime: "13:30"},
		"DEAR 1 PM|admin": {DrawLabel: "DEAR 1 PM", Role: "admin", BlockTime: "12:58", UnblockTime: "13:30"},
	}}
	gate := NewGate(store, time.UTC)
	now := at(t, "12:50")

	sub, err := gate.Check(context.Background(), "DEAR 1 PM", "sub", now)
	if err != nil {
		t.Fatalf("Check failed: %v", err)
	}
	admin, err := gate.Check(context.Background(), "DEAR 1 PM", "admin", now)
	if err != nil {
		t.Fatalf("Check failed: %v", err)
	}

	if !sub.Blocked {
		t.Error("sub should be blocked at 12:50")
	}
	if admin.Blocked {
		t.Error("admin should still be open at 12:50")
	}
}
