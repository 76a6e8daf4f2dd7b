package meta

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var valueCmp = cmp.AllowUnexported(Value{})

func TestDecode(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want Value
	}{
		{"plain text", "hello", Text("hello")},
		{"empty text", "", Text("")},
		{"numeric text stays text", "0", Text("0")},
		{"null", "N;", Null()},
		{"bool false", "b:0;", Bool(false)},
		{"bool true", "b:1;", Bool(true)},
		{"int", "i:-12;", Int(-12)},
		{"float", "d:0.5;", Float(0.5)},
		{"string", `s:5:"hello";`, Text("hello")},
		{"multibyte string", `s:6:"héllo";`, Text("héllo")},
		{"string with quotes", `s:3:"a"b";`, Text(`a"b`)},
		{"empty array", "a:0:{}", Sequence()},
		{
			"list",
			`a:2:{i:0;s:1:"a";i:1;s:0:"";}`,
			Sequence(Text("a"), Text("")),
		},
		{
			"assoc",
			`a:2:{s:3:"url";s:0:"";s:5:"title";s:2:"Hi";}`,
			Mapping(Entry{Key: "url", Value: Text("")}, Entry{Key: "title", Value: Text("Hi")}),
		},
		{
			"sparse int keys",
			`a:1:{i:3;s:1:"x";}`,
			Mapping(Entry{Key: "3", Value: Text("x")}),
		},
		{
			"nested",
			`a:1:{s:4:"rows";a:1:{i:0;a:0:{}}}`,
			Mapping(Entry{Key: "rows", Value: Sequence(Sequence())}),
		},
		{
			"object",
			`O:8:"stdClass":1:{s:3:"foo";i:1;}`,
			Object("stdClass", Entry{Key: "foo", Value: Int(1)}),
		},
		{
			"custom serialized object",
			`C:11:"ArrayObject":4:{abcd}`,
			Object("ArrayObject"),
		},
		{
			"enum",
			`E:11:"Suit:Hearts";`,
			Object("Suit", Entry{Key: "case", Value: Text("Suit:Hearts")}),
		},
		{"surrounding whitespace", "  i:7;\n", Int(7)},
		{"looks serialized but broken", `s:9:"short";`, Text(`s:9:"short";`)},
		{"not serialized prefix", "x:1;", Text("x:1;")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Decode(tt.raw)
			if diff := cmp.Diff(tt.want, got, valueCmp); diff != "" {
				t.Errorf("Decode(%q) mismatch (-want +got):\n%s", tt.raw, diff)
			}
		})
	}
}

func TestUnserialize_Errors(t *testing.T) {
	bad := []string{
		"",
		"b:2;",
		"i:abc;",
		"a:1:{i:0;}",
		"a:1:{d:0.5;s:1:\"x\";}",
		"i:1;extra",
		"r:1;",
		`s:9223372036854775807:"x";`,
		`s:5:"ab";`,
		"a:9223372036854775807:{}",
		"a:3:{i:0;i:1;}",
		`C:1:"X":9223372036854775807:{}`,
		`C:1:"X":3:{ab}`,
		`O:9223372036854775807:"X":0:{}`,
	}
	for _, raw := range bad {
		_, err := Unserialize(raw)
		assert.ErrorIs(t, err, ErrMalformed, "input %q", raw)
	}
}

func TestDecode_CorruptLengthsFallBackToText(t *testing.T) {
	for _, raw := range []string{
		`s:9223372036854775807:"x";`,
		"a:9223372036854775807:{}",
		`C:1:"X":9223372036854775807:{}`,
	} {
		v := Decode(raw)
		require.Equal(t, KindText, v.Kind(), "input %q", raw)
		s, _ := v.Str()
		assert.Equal(t, raw, s)
	}
}

func TestLooksSerialized(t *testing.T) {
	assert.True(t, LooksSerialized("N;"))
	assert.True(t, LooksSerialized("a:0:{}"))
	assert.True(t, LooksSerialized(`s:0:"";`))
	assert.True(t, LooksSerialized("i:0;"))
	assert.False(t, LooksSerialized("i:0"))
	assert.False(t, LooksSerialized("hello world"))
	assert.False(t, LooksSerialized("s:1"))
}

func TestDecode_FeedsPredicate(t *testing.T) {
	// A repeater whose rows hold only blank sub-fields is not populated.
	blankRows := Decode(`a:2:{i:0;a:1:{s:4:"text";s:0:"";}i:1;a:1:{s:4:"text";s:1:" ";}}`)
	require.Equal(t, KindSequence, blankRows.Kind())
	assert.False(t, IsMeaningful(blankRows))
	assert.Equal(t, "Collection(2)", Summarize(blankRows))

	filled := Decode(`a:1:{i:0;a:1:{s:4:"text";s:2:"ok";}}`)
	assert.True(t, IsMeaningful(filled))
}

func TestMapping_DuplicateKeys(t *testing.T) {
	m := Mapping(
		Entry{Key: "a", Value: Text("1")},
		Entry{Key: "b", Value: Text("2")},
		Entry{Key: "a", Value: Text("3")},
	)
	require.Equal(t, 2, m.Len())
	v, ok := m.Get("a")
	require.True(t, ok)
	s, _ := v.Str()
	assert.Equal(t, "3", s)
	assert.Equal(t, "a", m.Entries()[0].Key)
}
