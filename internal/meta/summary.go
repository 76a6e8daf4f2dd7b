package meta

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	scriptStylePattern = regexp.MustCompile(`(?is)<(script|style)[^>]*?>.*?</(script|style)>`)
	tagPattern         = regexp.MustCompile(`<[^>]*>`)
	wordSplitPattern   = regexp.MustCompile(`[\n\r\t ]+`)
)

// Summarize produces a one-line, human readable rendering of v for display.
// It never influences filtering.
func (p Policy) Summarize(v Value) string {
	var summary string

	switch v.kind {
	case KindNull:
		summary = EmptyPlaceholder
	case KindText:
		summary = p.trimWords(v.text)
	case KindSequence, KindMapping:
		summary = "Collection(" + strconv.Itoa(v.Len()) + ")"
	case KindObject:
		summary = ObjectPlaceholder
	case KindScalar:
		summary = formatScalar(v.scalar)
	}

	if p.SummaryOverride != nil {
		summary = p.SummaryOverride(summary, v)
	}
	return summary
}

// trimWords keeps the first SummaryWords words of s after stripping markup
func (p Policy) trimWords(s string) string {
	limit := p.SummaryWords
	if limit <= 0 {
		limit = DefaultSummaryWords
	}

	text := stripTags(s)
	words := make([]string, 0, limit+1)
	for _, w := range wordSplitPattern.Split(text, -1) {
		if w == "" {
			continue
		}
		words = append(words, w)
		if len(words) > limit {
			break
		}
	}

	if len(words) > limit {
		return strings.Join(words[:limit], " ") + p.SummaryMore
	}
	return strings.Join(words, " ")
}

func stripTags(s string) string {
	s = scriptStylePattern.ReplaceAllString(s, "")
	s = tagPattern.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}
