package decoder

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// numericRegex matches plain decimal literals: integers, decimals and
// scientific notation. Hex, Inf and NaN spellings are deliberately text.
var numericRegex = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?$`)

// Kind identifies which variant a Value holds.
type Kind uint8

const (
	KindNull Kind = iota
	KindNumber
	KindText
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindNumber:
		return "number"
	case KindText:
		return "text"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

// Value is a decoded cell: exactly one of Null, Number or Text.
// The zero Value is Null.
type Value struct {
	kind Kind
	num  float64
	text string
}

// Null returns the empty cell value.
func Null() Value { return Value{} }

// Number returns a numeric cell value.
func Number(f float64) Value { return Value{kind: KindNumber, num: f} }

// Text returns a string cell value.
func Text(s string) Value { return Value{kind: KindText, text: s} }

// Coerce converts a raw token into a Value.
//
// An empty token is Null. A token that is entirely a decimal literal
// (surrounding whitespace ignored) is a Number, including "0". Literals
// outside the float64 range, such as "1e400", stay Text since JSON has no
// Infinity. Anything else is Text holding the token unchanged.
func Coerce(token string) Value {
	if token == "" {
		return Null()
	}
	if t := strings.TrimSpace(token); numericRegex.MatchString(t) {
		if f, err := strconv.ParseFloat(t, 64); err == nil {
			return Number(f)
		}
	}
	return Text(token)
}

func (v Value) Kind() Kind   { return v.kind }
func (v Value) IsNull() bool { return v.kind == KindNull }

// Number returns the numeric payload and whether v is a Number.
func (v Value) Number() (float64, bool) {
	return v.num, v.kind == KindNumber
}

// Text returns the string payload and whether v is Text.
func (v Value) Text() (string, bool) {
	return v.text, v.kind == KindText
}

// String returns the display form: "" for Null, the shortest decimal
// representation for numbers, the text itself otherwise.
func (v Value) String() string {
	switch v.kind {
	case KindNumber:
		return strconv.FormatFloat(v.num, 'f', -1, 64)
	case KindText:
		return v.text
	default:
		return ""
	}
}

// Equal reports whether two values have the same kind and payload.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindNumber:
		return v.num == o.num
	case KindText:
		return v.text == o.text
	default:
		return true
	}
}

// MarshalJSON encodes Null as null, numbers as JSON numbers and text as
// JSON strings.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindNumber:
		return json.Marshal(v.num)
	case KindText:
		return json.Marshal(v.text)
	default:
		return []byte("null"), nil
	}
}

// UnmarshalJSON is the inverse of MarshalJSON. Booleans, arrays and
// objects are rejected.
func (v *Value) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*v = Null()
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*v = Text(s)
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("cell value must be null, number or string: %w", err)
	}
	*v = Number(f)
	return nil
}
