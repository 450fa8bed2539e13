package models

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strconv"
)

// ErrInvalidValue is returned when a JSON payload is not a literal or an output reference.
var ErrInvalidValue = errors.New("invalid value")

// ValueKind discriminates the Value union.
type ValueKind int

const (
	KindEmpty ValueKind = iota
	KindText
	KindNumber
	KindBool
	KindTextList
	KindReference
)

func (k ValueKind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindNumber:
		return "number"
	case KindBool:
		return "bool"
	case KindTextList:
		return "text_list"
	case KindReference:
		return "reference"
	default:
		return "empty"
	}
}

// OutputReference points at a named output of another step.
type OutputReference struct {
	Step   string `json:"step"`
	Output string `json:"output"`
}

// Value is either a literal or a reference to another step's output.
// The zero Value is empty and encodes as JSON null.
type Value struct {
	kind ValueKind
	text string
	num  float64
	b    bool
	list []string
	ref  OutputReference
}

func Text(s string) Value            { return Value{kind: KindText, text: s} }
func Number(n float64) Value         { return Value{kind: KindNumber, num: n} }
func Bool(b bool) Value              { return Value{kind: KindBool, b: b} }
func TextList(items ...string) Value { return Value{kind: KindTextList, list: slices.Clone(items)} }

// Reference builds a Value pointing at output of step.
func Reference(step, output string) Value {
	return Value{kind: KindReference, ref: OutputReference{Step: step, Output: output}}
}

func (v Value) Kind() ValueKind      { return v.kind }
func (v Value) IsEmpty() bool        { return v.kind == KindEmpty }
func (v Value) IsReference() bool    { return v.kind == KindReference }
func (v Value) TextValue() string    { return v.text }
func (v Value) NumberValue() float64 { return v.num }
func (v Value) BoolValue() bool      { return v.b }
func (v Value) TextListValue() []string {
	return slices.Clone(v.list)
}

// Ref returns the referenced output, ok is false for literals.
func (v Value) Ref() (OutputReference, bool) {
	return v.ref, v.kind == KindReference
}

// Clone returns an independent copy.
func (v Value) Clone() Value {
	v.list = slices.Clone(v.list)

	return v
}

// Equal compares two values by kind and content.
func (v Value) Equal(other Value) bool {
	if v.kind != other.kind {
		return false
	}

	switch v.kind {
	case KindText:
		return v.text == other.text
	case KindNumber:
		return v.num == other.num
	case KindBool:
		return v.b == other.b
	case KindTextList:
		return slices.Equal(v.list, other.list)
	case KindReference:
		return v.ref == other.ref
	default:
		return true
	}
}

// Interface returns the plain Go representation used for schema validation.
func (v Value) Interface() any {
	switch v.kind {
	case KindText:
		return v.text
	case KindNumber:
		return v.num
	case KindBool:
		return v.b
	case KindTextList:
		items := make([]any, len(v.list))
		for i, item := range v.list {
			items[i] = item
		}

		return items
	case KindReference:
		return map[string]any{"step": v.ref.Step, "output": v.ref.Output}
	default:
		return nil
	}
}

func (v Value) String() string {
	switch v.kind {
	case KindText:
		return v.text
	case KindNumber:
		return strconv.FormatFloat(v.num, 'f', -1, 64)
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindTextList:
		return fmt.Sprintf("%v", v.list)
	case KindReference:
		return v.ref.Step + "." + v.ref.Output
	default:
		return ""
	}
}

// MarshalJSON implements json.Marshaler.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindText:
		return json.Marshal(v.text)
	case KindNumber:
		return json.Marshal(v.num)
	case KindBool:
		return json.Marshal(v.b)
	case KindTextList:
		if v.list == nil {
			return []byte("[]"), nil
		}

		return json.Marshal(v.list)
	case KindReference:
		return json.Marshal(v.ref)
	default:
		return []byte("null"), nil
	}
}

// UnmarshalJSON implements json.Unmarshaler.
func (v *Value) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return fmt.Errorf("%w: empty payload", ErrInvalidValue)
	}

	switch trimmed[0] {
	case 'n':
		*v = Value{}

		return nil
	case '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return err
		}

		*v = Text(s)

		return nil
	case 't', 'f':
		var b bool
		if err := json.Unmarshal(trimmed, &b); err != nil {
			return err
		}

		*v = Bool(b)

		return nil
	case '[':
		var items []string
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return fmt.Errorf("%w: lists must contain text: %w", ErrInvalidValue, err)
		}

		*v = TextList(items...)

		return nil
	case '{':
		var ref struct {
			Step   *string `json:"step"`
			Output *string `json:"output"`
		}
		if err := json.Unmarshal(trimmed, &ref); err != nil {
			return err
		}

		if ref.Step == nil || ref.Output == nil {
			return fmt.Errorf("%w: object is not an output reference", ErrInvalidValue)
		}

		*v = Reference(*ref.Step, *ref.Output)

		return nil
	default:
		var n float64
		if err := json.Unmarshal(trimmed, &n); err != nil {
			return fmt.Errorf("%w: %s", ErrInvalidValue, string(trimmed))
		}

		*v = Number(n)

		return nil
	}
}
