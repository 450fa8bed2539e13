package models

import (
	"bytes"
	"encoding/json"
	"slices"
)

// StepOutput is a declared output of a step. Value holds the runtime value
// reported by an execution and is display-only.
type StepOutput struct {
	Type  string          `json:"type,omitempty"`
	Value json.RawMessage `json:"value,omitempty"`
}

// Clone returns an independent copy.
func (o StepOutput) Clone() StepOutput {
	o.Value = slices.Clone(o.Value)

	return o
}

// HasValue reports whether a runtime value was reported for the output.
func (o StepOutput) HasValue() bool {
	return len(o.Value) > 0 && !bytes.Equal(o.Value, []byte("null"))
}

// UnmarshalJSON accepts a {type, value} object or a bare runtime value.
func (o *StepOutput) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)

	if len(trimmed) > 0 && trimmed[0] == '{' {
		var probe map[string]json.RawMessage
		if err := json.Unmarshal(trimmed, &probe); err != nil {
			return err
		}

		_, hasType := probe["type"]
		_, hasValue := probe["value"]

		declared := (len(probe) == 1 && (hasType || hasValue)) || (len(probe) == 2 && hasType && hasValue)
		if declared {
			type plain StepOutput

			var decoded plain
			if err := json.Unmarshal(trimmed, &decoded); err != nil {
				return err
			}

			*o = StepOutput(decoded)

			return nil
		}
	}

	*o = StepOutput{Value: slices.Clone(json.RawMessage(trimmed))}

	return nil
}
