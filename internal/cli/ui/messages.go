package ui

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
)

// Level represents the severity of a message
type Level int

const (
	LevelError Level = iota
	LevelWarning
	LevelInfo
)

// Problem describes something the operator should act on
type Problem struct {
	Level       Level
	Context     string
	Message     string
	Suggestions []string
	// Hints are follow-up commands, shown one per line
	Hints   []string
	NoColor bool
}

// Format renders the problem.
//
// Example output:
//
//	✗ UNKNOWN CONTENT TYPE: psot
//
//	   Did you mean: post, page?
//
//	   → List content types: fieldradar types
func (p Problem) Format() string {
	var b strings.Builder

	var header *color.Color
	var symbol string
	switch p.Level {
	case LevelWarning:
		header, symbol = newColor(p.NoColor, color.FgYellow, color.Bold), "!"
	case LevelInfo:
		header, symbol = newColor(p.NoColor, color.FgCyan, color.Bold), "i"
	default:
		header, symbol = newColor(p.NoColor, color.FgRed, color.Bold), "✗"
	}

	if p.Context != "" {
		header.Fprintf(&b, "%s %s: %s\n", symbol, strings.ToUpper(p.Context), p.Message)
	} else {
		header.Fprintf(&b, "%s %s\n", symbol, p.Message)
	}

	if len(p.Suggestions) > 0 {
		b.WriteString("\n")
		newColor(p.NoColor, color.FgYellow).Fprintf(&b, "   Did you mean: %s?\n", strings.Join(p.Suggestions, ", "))
	}

	if len(p.Hints) > 0 {
		b.WriteString("\n")
		cyan := newColor(p.NoColor, color.FgCyan)
		for _, hint := range p.Hints {
			cyan.Fprintf(&b, "   → %s\n", hint)
		}
	}

	return b.String()
}

// Write writes the formatted problem to w
func (p Problem) Write(w io.Writer) {
	fmt.Fprint(w, p.Format())
}

// UnknownContentType reports a content type absent from the store
func UnknownContentType(name string, known []string, noColor bool) Problem {
	return Problem{
		Context:     "unknown content type",
		Message:     name,
		Suggestions: Suggest(name, known),
		Hints:       []string{"List content types: fieldradar types"},
		NoColor:     noColor,
	}
}

// UnknownKey reports a metadata key that is not reportable for a type
func UnknownKey(contentType, key string, known []string, noColor bool) Problem {
	return Problem{
		Context:     "unknown key",
		Message:     key,
		Suggestions: Suggest(key, known),
		Hints:       []string{fmt.Sprintf("List keys: fieldradar keys --type %s", contentType)},
		NoColor:     noColor,
	}
}

// Empty reports a query that found nothing
func Empty(message string, noColor bool) string {
	return newColor(noColor, color.FgYellow).Sprintf("No %s found.", message)
}

// Success renders a success message
func Success(message string, noColor bool) string {
	return newColor(noColor, color.FgGreen, color.Bold).Sprintf("✓ %s", message)
}
