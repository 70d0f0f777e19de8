package draw

import "testing"

func TestCanonical(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"LSK 3 PM", "KERALA 3 PM"},
		{"KERALA 3 PM", "KERALA 3 PM"},
		{"DEAR 1 PM", "DEAR 1 PM"},
		{"SOMETHING ELSE", "SOMETHING ELSE"},
	}

	for _, tt := range tests {
		if got := Canonical(tt.input); got != tt.expected {
			t.Errorf("Canonical(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}

func TestLabelsFor(t *testing.T) {
	got := LabelsFor("KERALA 3 PM")
	if len(got) != 2 {
		t.Fatalf("LabelsFor(KERALA 3 PM) = %v, want label plus alias", got)
	}

	got = LabelsFor("DEAR 1 PM")
	if len(got) != 1 || got[0] != "DEAR 1 PM" {
		t.Fatalf("LabelsFor(DEAR 1 PM) = %v, want just the label", got)
	}
}

func TestTicketCode(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"LSK 3 PM", "LSK3"},
		{"DEAR 1 PM", "DEAR1"},
		{"dear 8 pm", "DEAR8"},
		{"KERALA 3 PM", "KERALA3"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := TicketCode(tt.input); got != tt.expected {
			t.Errorf("TicketCode(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}

func TestResultTime(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"DEAR 1 PM", "DEAR 1PM"},
		{"DEAR 6 PM", "DEAR 6PM"},
		{"DEAR 8 PM", "DEAR 8PM"},
		{"LSK 3 PM", "KERALA 3PM"},
		{"anything", "KERALA 3PM"},
	}

	for _, tt := range tests {
		if got := ResultTime(tt.input); got != tt.expected {
			t.Errorf("ResultTime(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}
