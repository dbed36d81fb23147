// Package record defines the typed cell values that make up an imported row.
package record

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// Kind identifies which variant a Value holds.
type Kind uint8

const (
	KindNull Kind = iota
	KindString
	KindNumber
	KindBool
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	case KindBool:
		return "bool"
	default:
		return "null"
	}
}

// Value is a single spreadsheet cell: null, string, number or boolean.
// The zero Value is null.
type Value struct {
	kind Kind
	str  string
	num  float64
	b    bool
}

// Null returns the null value.
func Null() Value { return Value{} }

// String returns a string value.
func String(s string) Value { return Value{kind: KindString, str: s} }

// Number returns a numeric value.
func Number(f float64) Value { return Value{kind: KindNumber, num: f} }

// Bool returns a boolean value.
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

func (v Value) Kind() Kind   { return v.kind }
func (v Value) IsNull() bool { return v.kind == KindNull }

func (v Value) AsString() (string, bool) { return v.str, v.kind == KindString }

func (v Value) AsNumber() (float64, bool) { return v.num, v.kind == KindNumber }

func (v Value) AsBool() (bool, bool) { return v.b, v.kind == KindBool }

// String renders the value for display. Null renders as an empty string.
func (v Value) String() string {
	switch v.kind {
	case KindString:
		return v.str
	case KindNumber:
		return strconv.FormatFloat(v.num, 'f', -1, 64)
	case KindBool:
		if v.b {
			return "TRUE"
		}
		return "FALSE"
	default:
		return ""
	}
}

// MarshalJSON encodes the value as a bare JSON scalar.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindString:
		return json.Marshal(v.str)
	case KindNumber:
		return json.Marshal(v.num)
	case KindBool:
		return json.Marshal(v.b)
	default:
		return []byte("null"), nil
	}
}

// MarshalYAML encodes the value as a bare YAML scalar.
func (v Value) MarshalYAML() (interface{}, error) {
	switch v.kind {
	case KindString:
		return v.str, nil
	case KindNumber:
		return v.num, nil
	case KindBool:
		return v.b, nil
	default:
		return nil, nil
	}
}

// UnmarshalJSON accepts a JSON string, number, boolean or null.
func (v *Value) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return fmt.Errorf("empty cell value")
	}

	switch data[0] {
	case 'n':
		if string(data) != "null" {
			return fmt.Errorf("invalid cell value %s", data)
		}
		*v = Null()
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*v = String(s)
	case 't', 'f':
		var b bool
		if err := json.Unmarshal(data, &b); err != nil {
			return err
		}
		*v = Bool(b)
	case '{', '[':
		return fmt.Errorf("cell value must be a scalar, got %s", data)
	default:
		var f float64
		if err := json.Unmarshal(data, &f); err != nil {
			return err
		}
		*v = Number(f)
	}
	return nil
}

// Row maps column headers to cell values. Empty cells are absent.
type Row map[string]Value

// Get returns the value for a column, or null when the cell is absent.
func (r Row) Get(column string) Value {
	return r[column]
}
