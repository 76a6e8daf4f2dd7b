package meta

import (
	"fmt"
	"strings"
)

// ZeroPolicy decides whether numeric zero and boolean false count as
// populated.
type ZeroPolicy int

const (
	// ZeroIsEmpty treats 0, 0.0 and false as empty
	ZeroIsEmpty ZeroPolicy = iota
	// ZeroIsMeaningful treats every scalar as populated
	ZeroIsMeaningful
)

// String returns the configuration name of the policy
func (z ZeroPolicy) String() string {
	switch z {
	case ZeroIsEmpty:
		return "empty"
	case ZeroIsMeaningful:
		return "meaningful"
	default:
		return "unknown"
	}
}

// ParseZeroPolicy parses a configuration name ("empty" or "meaningful")
func ParseZeroPolicy(s string) (ZeroPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "empty":
		return ZeroIsEmpty, nil
	case "meaningful":
		return ZeroIsMeaningful, nil
	default:
		return ZeroIsEmpty, fmt.Errorf("unknown zero policy %q (want empty or meaningful)", s)
	}
}

// Default summary settings
const (
	DefaultSummaryWords = 10
	DefaultSummaryMore  = "..."
	EmptyPlaceholder    = "(empty)"
	ObjectPlaceholder   = "Object"
)

// Policy carries the meaningfulness and summary rules. Callers customize
// behavior by setting the override functions instead of registering global
// hooks.
type Policy struct {
	// Zero decides how zero-like scalars are classified
	Zero ZeroPolicy

	// MeaningfulOverride, if set, receives every computed result together
	// with the value it was computed for and returns the final answer.
	MeaningfulOverride func(result bool, v Value) bool

	// SummaryWords is the number of words kept in a text summary
	SummaryWords int

	// SummaryMore is appended to truncated text summaries
	SummaryMore string

	// SummaryOverride, if set, post-processes every summary
	SummaryOverride func(summary string, v Value) string
}

// DefaultPolicy returns the policy used when none is configured
func DefaultPolicy() Policy {
	return Policy{
		Zero:         ZeroIsEmpty,
		SummaryWords: DefaultSummaryWords,
		SummaryMore:  DefaultSummaryMore,
	}
}

// IsMeaningful reports whether v is populated under the default policy
func IsMeaningful(v Value) bool {
	return DefaultPolicy().IsMeaningful(v)
}

// Summarize renders v under the default policy
func Summarize(v Value) string {
	return DefaultPolicy().Summarize(v)
}
