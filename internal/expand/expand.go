// Package expand turns compact bet specifications into concrete bet drafts.
// Expansion always happens before any quota check, so quotas see the full
// draft list.
package expand

import (
	"fmt"
	"strings"

	"lotto-engine/internal/model"
)

// Permutations returns every distinct digit permutation of s. Repeated digits
// collapse: "121" yields {121, 112, 211}, not six strings.
func Permutations(s string) []string {
	if len(s) <= 1 {
		return []string{s}
	}
	seen := make(map[string]struct{})
	var out []string
	var permute func(rest []byte, acc string)
	permute = func(rest []byte, acc string) {
		if len(rest) == 0 {
			if _, dup := seen[acc]; !dup {
				seen[acc] = struct{}{}
				out = append(out, acc)
			}
			return
		}
		for i := range rest {
			next := make([]byte, 0, len(rest)-1)
			next = append(next, rest[:i]...)
			next = append(next, rest[i+1:]...)
			permute(next, acc+string(rest[i]))
		}
	}
	permute([]byte(s), "")
	return out
}

// Width maps a toggle count onto the zero-padded digit width of a range
// expansion: 1 and 2 map to themselves, everything else is 3 digits.
func Width(toggleCount int) int {
	switch toggleCount {
	case 1:
		return 1
	case 2:
		return 2
	default:
		return 3
	}
}

// Expand flattens a list of bet specifications into concrete drafts, each
// carrying a canonical bet type. A spec is either a literal number, a numeric
// range enumerated at the toggle width, or a permutation set; range and set
// compose. Unrecognized type encodings fail the whole batch with a typed
// error so nothing downstream ever re-infers a type.
func Expand(specs []model.EntrySpec, toggleCount int) ([]model.EntryDraft, error) {
	width := Width(toggleCount)
	var drafts []model.EntryDraft

	for i, spec := range specs {
		betType, err := model.ParseBetType(spec.Type)
		if err != nil {
			return nil, fmt.Errorf("entry %d: %w", i, err)
		}
		count := spec.Count
		if count <= 0 {
			count = 1
		}

		switch {
		case spec.RangeStart != nil && spec.RangeEnd != nil:
			start, end := *spec.RangeStart, *spec.RangeEnd
			if end < start {
				return nil, fmt.Errorf("entry %d: range end %d before start %d", i, end, start)
			}
			for n := start; n <= end; n++ {
				num := zeroPad(n, width)
				if spec.IsSet {
					for _, p := range Permutations(num) {
						drafts = append(drafts, model.EntryDraft{Number: p, BetType: betType, Count: count})
					}
				} else {
					drafts = append(drafts, model.EntryDraft{Number: num, BetType: betType, Count: count})
				}
			}
		case spec.IsSet && spec.Number != "":
			for _, p := range Permutations(spec.Number) {
				drafts = append(drafts, model.EntryDraft{Number: p, BetType: betType, Count: count})
			}
		default:
			drafts = append(drafts, model.EntryDraft{Number: spec.Number, BetType: betType, Count: count})
		}
	}

	return drafts, nil
}

func zeroPad(n, width int) string {
	s := fmt.Sprintf("%d", n)
	if len(s) >= width {
		return s
	}
	return strings.Repeat("0", width-len(s)) + s
}
