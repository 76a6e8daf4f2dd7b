// Package meta models stored metadata values and the rules that decide
// whether a value counts as populated.
//
// A Value is a closed variant: every stored value decodes to exactly one
// Kind, so the predicate and the summarizer switch over kinds instead of
// probing dynamic types.
package meta

import (
	"strconv"
)

// Kind identifies the shape of a Value
type Kind int

const (
	// KindNull is an absent value
	KindNull Kind = iota
	// KindText is a string value
	KindText
	// KindSequence is an ordered list of values
	KindSequence
	// KindMapping is an ordered map with unique string keys
	KindMapping
	// KindScalar is a number or boolean
	KindScalar
	// KindObject is an opaque serialized object
	KindObject
)

// String returns the string representation of Kind
func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindText:
		return "text"
	case KindSequence:
		return "sequence"
	case KindMapping:
		return "mapping"
	case KindScalar:
		return "scalar"
	case KindObject:
		return "object"
	default:
		return "unknown"
	}
}

// Entry is a single key/value pair of a mapping or object
type Entry struct {
	Key   string
	Value Value
}

// Value is a decoded metadata value. The zero Value is Null.
type Value struct {
	kind    Kind
	text    string
	items   []Value
	entries []Entry
	scalar  interface{}
	class   string
}

// Null returns the absent value
func Null() Value {
	return Value{kind: KindNull}
}

// Text returns a string value
func Text(s string) Value {
	return Value{kind: KindText, text: s}
}

// Sequence returns an ordered list value
func Sequence(items ...Value) Value {
	return Value{kind: KindSequence, items: items}
}

// Mapping returns an ordered map value. A repeated key replaces the earlier
// entry's value in place, keeping the first position.
func Mapping(entries ...Entry) Value {
	return Value{kind: KindMapping, entries: dedupeEntries(entries)}
}

// Int returns an integer scalar
func Int(i int64) Value {
	return Value{kind: KindScalar, scalar: i}
}

// Float returns a floating point scalar
func Float(f float64) Value {
	return Value{kind: KindScalar, scalar: f}
}

// Bool returns a boolean scalar
func Bool(b bool) Value {
	return Value{kind: KindScalar, scalar: b}
}

// Object returns an opaque object value of the given class
func Object(class string, fields ...Entry) Value {
	return Value{kind: KindObject, class: class, entries: dedupeEntries(fields)}
}

// Kind returns the value's kind
func (v Value) Kind() Kind {
	return v.kind
}

// IsNull reports whether the value is absent
func (v Value) IsNull() bool {
	return v.kind == KindNull
}

// Str returns the string of a Text value and false for other kinds
func (v Value) Str() (string, bool) {
	if v.kind != KindText {
		return "", false
	}
	return v.text, true
}

// Items returns the elements of a Sequence
func (v Value) Items() []Value {
	return v.items
}

// Entries returns the entries of a Mapping or the fields of an Object
func (v Value) Entries() []Entry {
	return v.entries
}

// Len returns the number of direct elements of a Sequence or Mapping, the
// byte length of Text and zero otherwise.
func (v Value) Len() int {
	switch v.kind {
	case KindText:
		return len(v.text)
	case KindSequence:
		return len(v.items)
	case KindMapping:
		return len(v.entries)
	default:
		return 0
	}
}

// Scalar returns the underlying int64, float64 or bool of a Scalar value
func (v Value) Scalar() interface{} {
	return v.scalar
}

// Class returns the class name of an Object
func (v Value) Class() string {
	return v.class
}

// Get returns the value stored under key in a Mapping or Object
func (v Value) Get(key string) (Value, bool) {
	for _, e := range v.entries {
		if e.Key == key {
			return e.Value, true
		}
	}
	return Null(), false
}

// String renders scalars and text plainly; it is used for logs and
// debugging, not for display summaries.
func (v Value) String() string {
	switch v.kind {
	case KindNull:
		return "null"
	case KindText:
		return strconv.Quote(v.text)
	case KindScalar:
		return formatScalar(v.scalar)
	case KindSequence:
		return "sequence(" + strconv.Itoa(len(v.items)) + ")"
	case KindMapping:
		return "mapping(" + strconv.Itoa(len(v.entries)) + ")"
	case KindObject:
		return "object(" + v.class + ")"
	default:
		return "unknown"
	}
}

func formatScalar(s interface{}) string {
	switch x := s.(type) {
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	default:
		return ""
	}
}

func dedupeEntries(entries []Entry) []Entry {
	if len(entries) < 2 {
		return entries
	}
	out := make([]Entry, 0, len(entries))
	index := make(map[string]int, len(entries))
	for _, e := range entries {
		if i, ok := index[e.Key]; ok {
			out[i].Value = e.Value
			continue
		}
		index[e.Key] = len(out)
		out = append(out, e)
	}
	return out
}
