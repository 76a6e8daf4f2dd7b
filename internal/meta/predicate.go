package meta

import "strings"

// phpTrimSet is the character set stripped by the platform's trim()
const phpTrimSet = " \t\n\r\x00\x0B"

// TrimText trims the whitespace set used when deciding whether text is empty
func TrimText(s string) string {
	return strings.Trim(s, phpTrimSet)
}

// IsMeaningful reports whether v counts as populated.
//
// Text is populated when it is non-blank after trimming. Sequences and
// mappings are populated when at least one element is. Scalars follow the
// policy's ZeroPolicy and objects are always populated. The override, when
// set, sees every intermediate result including those of nested elements.
func (p Policy) IsMeaningful(v Value) bool {
	var result bool

	switch v.kind {
	case KindNull:
		result = false
	case KindText:
		result = TrimText(v.text) != ""
	case KindSequence:
		for _, item := range v.items {
			if p.IsMeaningful(item) {
				result = true
				break
			}
		}
	case KindMapping:
		for _, e := range v.entries {
			if p.IsMeaningful(e.Value) {
				result = true
				break
			}
		}
	case KindScalar:
		result = p.Zero == ZeroIsMeaningful || !isZeroScalar(v.scalar)
	case KindObject:
		result = true
	}

	if p.MeaningfulOverride != nil {
		result = p.MeaningfulOverride(result, v)
	}
	return result
}

func isZeroScalar(s interface{}) bool {
	switch x := s.(type) {
	case int64:
		return x == 0
	case float64:
		return x == 0
	case bool:
		return !x
	default:
		return true
	}
}
