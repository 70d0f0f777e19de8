package service

import (
	"errors"
	"fmt"
	"strings"

	"lotto-engine/internal/quota"
)

// Rejection sentinels for the submission pipeline. Each rejection means
// nothing was persisted.
var (
	ErrDrawBlocked = errors.New("entries are blocked for this draw time")
	ErrDateBlocked = errors.New("entries are blocked for this date")
)

// AllExceededError is returned when the global daily ledger zeroed every
// draft in a batch. Its message format is consumed verbatim by agent
// terminals and must not change.
type AllExceededError struct {
	Exceeded []quota.Exceedance
}

func (e *AllExceededError) Error() string {
	lines := make([]string, 0, len(e.Exceeded)+3)
	lines = append(lines, "Daily limit reached for:")
	for _, x := range e.Exceeded {
		lines = append(lines, x.String())
	}
	lines = append(lines, "", "Nothing was saved. Reduce the count and try again.")
	return strings.Join(lines, "\n")
}

// OverrideLimitError is returned when a draft exceeds an active per-agent
// block-number override. Message format is part of the terminal contract.
type OverrideLimitError struct {
	Violations []quota.Exceedance
}

func (e *OverrideLimitError) Error() string {
	lines := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		lines = append(lines, fmt.Sprintf("%s → attempted %d, allowed %d", v.Key, v.Attempted, v.Remaining))
	}
	return "User limit exceeded:\n" + strings.Join(lines, "\n")
}

// AgentLimitError is returned when the per-agent daily ledger rejects the
// batch. Message format is part of the terminal contract.
type AgentLimitError struct {
	Violations []quota.Exceedance
}

func (e *AgentLimitError) Error() string {
	lines := make([]string, 0, len(e.Violations)+3)
	lines = append(lines, "User daily limit reached for:")
	for _, v := range e.Violations {
		lines = append(lines, v.String())
	}
	lines = append(lines, "", "Nothing was saved. Reduce the count and try again.")
	return strings.Join(lines, "\n")
}

// CreditLimitError is returned when a batch would push the selling agent's
// cumulative charge past their ceiling for the settlement date.
type CreditLimitError struct {
	DrawLabel      string  `json:"drawLabel"`
	Limit          float64 `json:"limit"`
	AlreadySold    float64 `json:"alreadySold"`
	CurrentAttempt float64 `json:"currentAttempt"`
	Shortfall      float64 `json:"shortfall"`
}

func (e *CreditLimitError) Error() string {
	return fmt.Sprintf("Credit limit exceeded for %s.", e.DrawLabel)
}
