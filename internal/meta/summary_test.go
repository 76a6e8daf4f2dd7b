package meta

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSummarize(t *testing.T) {
	fifteen := "one two three four five six seven eight nine ten eleven twelve thirteen fourteen fifteen"

	tests := []struct {
		name string
		in   Value
		want string
	}{
		{"null", Null(), "(empty)"},
		{"short text", Text("hello world"), "hello world"},
		{"fifteen words", Text(fifteen), "one two three four five six seven eight nine ten..."},
		{"exactly ten words", Text("a b c d e f g h i j"), "a b c d e f g h i j"},
		{"collapses whitespace", Text("  a \n\t b  "), "a b"},
		{"strips markup", Text("<p>Hello <strong>there</strong></p>"), "Hello there"},
		{"drops script bodies", Text("<script>alert(1)</script>safe"), "safe"},
		{"sequence", Sequence(Text("a"), Text("b"), Text("c")), "Collection(3)"},
		{"mapping", Mapping(Entry{Key: "x", Value: Null()}), "Collection(1)"},
		{"empty sequence", Sequence(), "Collection(0)"},
		{"object", Object("stdClass"), "Object"},
		{"int", Int(42), "42"},
		{"float", Float(1.5), "1.5"},
		{"bool", Bool(true), "true"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Summarize(tt.in))
		})
	}
}

func TestSummarize_FifteenWordsKeepsTen(t *testing.T) {
	words := make([]string, 15)
	for i := range words {
		words[i] = "word"
	}
	got := Summarize(Text(strings.Join(words, " ")))

	assert.True(t, strings.HasSuffix(got, DefaultSummaryMore))
	assert.Len(t, strings.Fields(strings.TrimSuffix(got, DefaultSummaryMore)), 10)
}

func TestSummarize_CustomPolicy(t *testing.T) {
	p := DefaultPolicy()
	p.SummaryWords = 2
	p.SummaryMore = " [more]"
	assert.Equal(t, "a b [more]", p.Summarize(Text("a b c")))

	p.SummaryOverride = func(summary string, v Value) string {
		if v.Kind() == KindSequence {
			return "List of " + summary
		}
		return summary
	}
	assert.Equal(t, "List of Collection(2)", p.Summarize(Sequence(Int(1), Int(2))))
	assert.Equal(t, "(empty)", p.Summarize(Null()))
}
