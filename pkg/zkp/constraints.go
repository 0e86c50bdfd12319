package zkp

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

type ConstraintType string

const (
	ConstraintRange      ConstraintType = "range_check"
	ConstraintComparison ConstraintType = "comparison"
	ConstraintAge        ConstraintType = "age_verification"
)

// ConstraintDefinition constrains circuit elements addressed by their
// element names (minAge, birthDate[0], trusteePublicKey[1][0]).
type ConstraintDefinition struct {
	Type         ConstraintType  `json:"type"`
	Fields       []string        `json:"fields"`
	Operator     string          `json:"operator,omitempty"`
	Value        json.RawMessage `json:"value,omitempty"`
	ErrorMessage string          `json:"error_message,omitempty"`
}

func ParseConstraints(data []byte) ([]ConstraintDefinition, error) {
	var cs []ConstraintDefinition
	if err := json.Unmarshal(data, &cs); err != nil {
		return nil, fmt.Errorf("parse constraints: %w", err)
	}
	for _, c := range cs {
		if c.Type == "" {
			return nil, fmt.Errorf("constraint must declare type")
		}
		if len(c.Fields) == 0 {
			return nil, fmt.Errorf("constraint '%s' must reference at least one field", c.Type)
		}
	}
	return cs, nil
}

func (c ConstraintDefinition) ValueAsInt() (int64, error) {
	if len(c.Value) == 0 {
		return 0, errors.New("constraint missing value")
	}

	var number json.Number
	if err := json.Unmarshal(c.Value, &number); err == nil {
		if v, err := number.Int64(); err == nil {
			return v, nil
		}
	}

	var s string
	if err := json.Unmarshal(c.Value, &s); err == nil {
		return parseStringInt(s)
	}

	return 0, fmt.Errorf("constraint value is not an integer: %s", string(c.Value))
}

func (c ConstraintDefinition) ValueAsIntSlice() ([]int64, error) {
	if len(c.Value) == 0 {
		return nil, errors.New("constraint missing value array")
	}
	var values []json.Number
	if err := json.Unmarshal(c.Value, &values); err != nil {
		return nil, fmt.Errorf("constraint expects numeric array value: %w", err)
	}
	out := make([]int64, len(values))
	for i, v := range values {
		n, err := v.Int64()
		if err != nil {
			return nil, fmt.Errorf("constraint bound must be whole number, got %s", v)
		}
		out[i] = n
	}
	return out, nil
}

func parseStringInt(value string) (int64, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, errors.New("empty numeric string")
	}
	v, err := json.Number(value).Int64()
	if err != nil {
		return 0, fmt.Errorf("invalid numeric value '%s'", value)
	}
	return v, nil
}
