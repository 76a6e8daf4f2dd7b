package meta

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ErrMalformed is returned when serialized data cannot be decoded
var ErrMalformed = errors.New("malformed serialized value")

// Decode turns a raw stored string into a Value the way the platform reads
// metadata: data that looks serialized is unserialized, anything else is
// Text. Data that looks serialized but fails to decode is kept as Text.
func Decode(raw string) Value {
	if !LooksSerialized(raw) {
		return Text(raw)
	}
	v, err := Unserialize(strings.TrimSpace(raw))
	if err != nil {
		return Text(raw)
	}
	return v
}

// LooksSerialized reports whether raw has the shape of PHP serialize()
// output. It mirrors the platform's strict is_serialized check.
func LooksSerialized(raw string) bool {
	data := strings.TrimSpace(raw)
	if data == "N;" {
		return true
	}
	if len(data) < 4 || data[1] != ':' {
		return false
	}
	last := data[len(data)-1]
	if last != ';' && last != '}' {
		return false
	}

	switch data[0] {
	case 's':
		return data[len(data)-2] == '"'
	case 'a', 'O', 'C', 'E':
		return true
	case 'b', 'i', 'd':
		return last == ';'
	default:
		return false
	}
}

// Unserialize decodes a complete PHP serialize() payload
func Unserialize(data string) (Value, error) {
	d := &decoder{data: data}
	v, err := d.value()
	if err != nil {
		return Null(), err
	}
	if d.pos != len(d.data) {
		return Null(), fmt.Errorf("%w: trailing data at offset %d", ErrMalformed, d.pos)
	}
	return v, nil
}

type decoder struct {
	data string
	pos  int
}

func (d *decoder) errorf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s at offset %d", ErrMalformed, fmt.Sprintf(format, args...), d.pos)
}

func (d *decoder) value() (Value, error) {
	if d.pos >= len(d.data) {
		return Null(), d.errorf("unexpected end of data")
	}

	token := d.data[d.pos]
	d.pos++

	if token == 'N' {
		if err := d.expect(';'); err != nil {
			return Null(), err
		}
		return Null(), nil
	}

	if err := d.expect(':'); err != nil {
		return Null(), err
	}

	switch token {
	case 'b':
		raw, err := d.until(';')
		if err != nil {
			return Null(), err
		}
		switch raw {
		case "0":
			return Bool(false), nil
		case "1":
			return Bool(true), nil
		}
		return Null(), d.errorf("invalid boolean %q", raw)

	case 'i':
		raw, err := d.until(';')
		if err != nil {
			return Null(), err
		}
		i, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return Null(), d.errorf("invalid integer %q", raw)
		}
		return Int(i), nil

	case 'd':
		raw, err := d.until(';')
		if err != nil {
			return Null(), err
		}
		f, err := parseFloat(raw)
		if err != nil {
			return Null(), d.errorf("invalid float %q", raw)
		}
		return Float(f), nil

	case 's':
		s, err := d.lengthString()
		if err != nil {
			return Null(), err
		}
		if err := d.expect(';'); err != nil {
			return Null(), err
		}
		return Text(s), nil

	case 'a':
		return d.array()

	case 'O':
		class, err := d.lengthString()
		if err != nil {
			return Null(), err
		}
		if err := d.expect(':'); err != nil {
			return Null(), err
		}
		entries, err := d.members()
		if err != nil {
			return Null(), err
		}
		return Object(class, entries...), nil

	case 'C':
		class, err := d.lengthString()
		if err != nil {
			return Null(), err
		}
		if err := d.expect(':'); err != nil {
			return Null(), err
		}
		n, err := d.count(':')
		if err != nil {
			return Null(), err
		}
		if err := d.expect('{'); err != nil {
			return Null(), err
		}
		if n >= d.remaining() {
			return Null(), d.errorf("custom payload overruns data")
		}
		d.pos += n
		if err := d.expect('}'); err != nil {
			return Null(), err
		}
		return Object(class), nil

	case 'E':
		name, err := d.lengthString()
		if err != nil {
			return Null(), err
		}
		if err := d.expect(';'); err != nil {
			return Null(), err
		}
		class := name
		if i := strings.IndexByte(name, ':'); i >= 0 {
			class = name[:i]
		}
		return Object(class, Entry{Key: "case", Value: Text(name)}), nil
	}

	return Null(), d.errorf("unsupported token %q", token)
}

// array decodes a:<n>:{...}. Arrays whose keys are exactly 0..n-1 in order
// become sequences; everything else becomes a mapping.
func (d *decoder) array() (Value, error) {
	entries, err := d.members()
	if err != nil {
		return Null(), err
	}
	if len(entries) == 0 {
		return Sequence(), nil
	}

	sequential := true
	for i, e := range entries {
		if e.Key != strconv.Itoa(i) {
			sequential = false
			break
		}
	}
	if sequential {
		items := make([]Value, len(entries))
		for i, e := range entries {
			items[i] = e.Value
		}
		return Sequence(items...), nil
	}
	return Mapping(entries...), nil
}

// members decodes <n>:{key;value...}
func (d *decoder) members() ([]Entry, error) {
	n, err := d.count(':')
	if err != nil {
		return nil, err
	}
	if err := d.expect('{'); err != nil {
		return nil, err
	}

	// each member takes at least four bytes, so a larger count is corrupt
	entries := make([]Entry, 0, min(n, d.remaining()/4))
	for i := 0; i < n; i++ {
		key, err := d.value()
		if err != nil {
			return nil, err
		}
		var k string
		switch key.kind {
		case KindText:
			k = key.text
		case KindScalar:
			if _, ok := key.scalar.(int64); !ok {
				return nil, d.errorf("invalid array key")
			}
			k = formatScalar(key.scalar)
		default:
			return nil, d.errorf("invalid array key")
		}

		val, err := d.value()
		if err != nil {
			return nil, err
		}
		entries = append(entries, Entry{Key: k, Value: val})
	}

	if err := d.expect('}'); err != nil {
		return nil, err
	}
	return entries, nil
}

// lengthString decodes <len>:"<bytes>"
func (d *decoder) lengthString() (string, error) {
	n, err := d.count(':')
	if err != nil {
		return "", err
	}
	if err := d.expect('"'); err != nil {
		return "", err
	}
	if n > d.remaining() {
		return "", d.errorf("string length %d overruns data", n)
	}
	s := d.data[d.pos : d.pos+n]
	d.pos += n
	if err := d.expect('"'); err != nil {
		return "", err
	}
	return s, nil
}

func (d *decoder) count(term byte) (int, error) {
	raw, err := d.until(term)
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, d.errorf("invalid length %q", raw)
	}
	return n, nil
}

func (d *decoder) remaining() int {
	return len(d.data) - d.pos
}

// until returns the text up to term and consumes term
func (d *decoder) until(term byte) (string, error) {
	i := strings.IndexByte(d.data[d.pos:], term)
	if i < 0 {
		return "", d.errorf("missing %q", term)
	}
	s := d.data[d.pos : d.pos+i]
	d.pos += i + 1
	return s, nil
}

func (d *decoder) expect(b byte) error {
	if d.pos >= len(d.data) || d.data[d.pos] != b {
		return d.errorf("expected %q", b)
	}
	d.pos++
	return nil
}

func parseFloat(raw string) (float64, error) {
	switch raw {
	case "INF":
		return math.Inf(1), nil
	case "-INF":
		return math.Inf(-1), nil
	case "NAN":
		return math.NaN(), nil
	}
	return strconv.ParseFloat(raw, 64)
}
