// Package draw implements draw label canonicalization and the submission
// time-window gate.
package draw

import (
	"regexp"
	"strings"
	"time"
)

// Canonical draw labels of the network.
const (
	LabelDear1  = "DEAR 1 PM"
	LabelKerala = "KERALA 3 PM"
	LabelDear6  = "DEAR 6 PM"
	LabelDear8  = "DEAR 8 PM"

	// LabelLSK is the historical alias of the Kerala draw still used by
	// older agent terminals.
	LabelLSK = "LSK 3 PM"
)

// DateLayout is the wire and storage format of calendar dates.
const DateLayout = "2006-01-02"

var aliasMap = map[string]string{
	LabelLSK: LabelKerala,
}

// Canonical maps regional aliases onto a single canonical label. Unknown
// labels pass through unchanged.
func Canonical(label string) string {
	if c, ok := aliasMap[label]; ok {
		return c
	}
	return label
}

// Alias returns the alternate spelling of a label, or "" when it has none.
// Used when already-sold totals must cover both spellings of one draw.
func Alias(label string) string {
	if c, ok := aliasMap[label]; ok {
		return c
	}
	for a, c := range aliasMap {
		if c == label {
			return a
		}
	}
	return ""
}

// LabelsFor returns the label together with its alias, for queries that must
// match entries recorded under either spelling.
func LabelsFor(label string) []string {
	if a := Alias(label); a != "" {
		return []string{label, a}
	}
	return []string{label}
}

var ampmRe = regexp.MustCompile(`\b(AM|PM)\b`)
var spaceRe = regexp.MustCompile(`\s+`)

// TicketCode reduces a draw label to its compact ticket code: uppercased,
// AM/PM markers and whitespace stripped ("LSK 3 PM" -> "LSK3").
func TicketCode(label string) string {
	if label == "" {
		return ""
	}
	up := strings.ToUpper(label)
	up = ampmRe.ReplaceAllString(up, "")
	up = spaceRe.ReplaceAllString(up, "")
	return strings.TrimSpace(up)
}

// ResultTime converts any spelling of a draw label into the form results are
// published under ("DEAR 1PM", "KERALA 3PM"). Unknown labels default to the
// Kerala draw, matching the historical terminals.
func ResultTime(label string) string {
	t := strings.ToUpper(label)
	switch {
	case strings.Contains(t, "DEAR 1") || strings.Contains(t, "DEAR1"):
		return "DEAR 1PM"
	case strings.Contains(t, "DEAR 6") || strings.Contains(t, "DEAR6"):
		return "DEAR 6PM"
	case strings.Contains(t, "DEAR 8") || strings.Contains(t, "DEAR8"):
		return "DEAR 8PM"
	default:
		return "KERALA 3PM"
	}
}

// FormatDate renders the calendar date of t in loc.
func FormatDate(t time.Time, loc *time.Location) string {
	return t.In(loc).Format(DateLayout)
}
