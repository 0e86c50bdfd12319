package zkp

import (
	"fmt"

	"github.com/consensys/gnark/frontend"

	"github.com/bsc-digital-identity/zk-compliance/pkg/field"
	reasoncodes "github.com/bsc-digital-identity/zk-compliance/pkg/reason_codes"
	"github.com/bsc-digital-identity/zk-compliance/pkg/signals"
)

// DynamicCircuit lays a signal interface out as gnark inputs: private
// signals become secret inputs, and the public signal vector (outputs, then
// public inputs) becomes the public inputs, element by element.
type DynamicCircuit struct {
	SecretValues []frontend.Variable `gnark:",secret"`
	PublicValues []frontend.Variable `gnark:",public"`

	constraints []ConstraintDefinition `gnark:"-"`
	secretOrder []string               `gnark:"-"`
	publicOrder []string               `gnark:"-"`
	secretIndex map[string]int         `gnark:"-"`
	publicIndex map[string]int         `gnark:"-"`
}

func elementNames(sigs []signals.Signal) []string {
	var out []string
	for _, s := range sigs {
		out = append(out, s.ElementNames()...)
	}
	return out
}

func NewDynamicCircuit(circuit signals.Circuit, constraints []ConstraintDefinition) (*DynamicCircuit, error) {
	if err := circuit.Validate(); err != nil {
		return nil, err
	}

	secretOrder := elementNames(circuit.PrivateSignals)
	publicOrder := elementNames(circuit.PublicOrder())

	dc := &DynamicCircuit{
		SecretValues: make([]frontend.Variable, len(secretOrder)),
		PublicValues: make([]frontend.Variable, len(publicOrder)),
		constraints:  constraints,
		secretOrder:  secretOrder,
		publicOrder:  publicOrder,
		secretIndex:  make(map[string]int, len(secretOrder)),
		publicIndex:  make(map[string]int, len(publicOrder)),
	}
	for i, name := range secretOrder {
		dc.secretIndex[name] = i
	}
	for i, name := range publicOrder {
		dc.publicIndex[name] = i
	}

	for _, c := range constraints {
		for _, name := range c.Fields {
			if _, ok := dc.secretIndex[name]; ok {
				continue
			}
			if _, ok := dc.publicIndex[name]; ok {
				continue
			}
			return nil, reasoncodes.Newf(reasoncodes.UnknownSignal, name, "constraint %s references an unknown element", c.Type)
		}
	}
	return dc, nil
}

func (dc *DynamicCircuit) Clone() *DynamicCircuit {
	return &DynamicCircuit{
		SecretValues: make([]frontend.Variable, len(dc.SecretValues)),
		PublicValues: make([]frontend.Variable, len(dc.PublicValues)),
		constraints:  dc.constraints,
		secretOrder:  dc.secretOrder,
		publicOrder:  dc.publicOrder,
		secretIndex:  dc.secretIndex,
		publicIndex:  dc.publicIndex,
	}
}

// AssignValues fills every element from values, keyed by element name.
func (dc *DynamicCircuit) AssignValues(values map[string]field.Scalar) error {
	for i, name := range dc.secretOrder {
		v, ok := values[name]
		if !ok {
			return reasoncodes.New(reasoncodes.MissingField, name)
		}
		dc.SecretValues[i] = v.BigInt()
	}
	return dc.AssignPublic(values)
}

func (dc *DynamicCircuit) AssignPublic(values map[string]field.Scalar) error {
	for i, name := range dc.publicOrder {
		v, ok := values[name]
		if !ok {
			return reasoncodes.New(reasoncodes.MissingField, name)
		}
		dc.PublicValues[i] = v.BigInt()
	}
	return nil
}

// PublicVector returns the assigned public inputs as field elements.
func (dc *DynamicCircuit) PublicVector(values map[string]field.Scalar) []field.Scalar {
	out := make([]field.Scalar, len(dc.publicOrder))
	for i, name := range dc.publicOrder {
		out[i] = values[name]
	}
	return out
}

func (dc *DynamicCircuit) Define(api frontend.API) error {
	for _, constraint := range dc.constraints {
		if err := dc.applyConstraint(api, constraint); err != nil {
			return err
		}
	}
	return nil
}

func (dc *DynamicCircuit) applyConstraint(api frontend.API, constraint ConstraintDefinition) error {
	switch constraint.Type {
	case ConstraintRange:
		return dc.applyRangeConstraint(api, constraint)
	case ConstraintComparison:
		return dc.applyComparisonConstraint(api, constraint)
	case ConstraintAge:
		return dc.applyAgeConstraint(api, constraint)
	default:
		return fmt.Errorf("unsupported constraint type '%s'", constraint.Type)
	}
}

func (dc *DynamicCircuit) applyRangeConstraint(api frontend.API, constraint ConstraintDefinition) error {
	if len(constraint.Fields) != 1 {
		return fmt.Errorf("range constraint requires exactly one field")
	}
	bounds, err := constraint.ValueAsIntSlice()
	if err != nil {
		return err
	}
	if len(bounds) != 2 {
		return fmt.Errorf("range constraint requires two bounds")
	}

	value, err := dc.fieldVariable(constraint.Fields[0])
	if err != nil {
		return err
	}

	api.AssertIsLessOrEqual(bounds[0], value)
	api.AssertIsLessOrEqual(value, bounds[1])
	return nil
}

func (dc *DynamicCircuit) applyComparisonConstraint(api frontend.API, constraint ConstraintDefinition) error {
	left, err := dc.fieldVariable(constraint.Fields[0])
	if err != nil {
		return err
	}

	var right frontend.Variable
	if len(constraint.Fields) > 1 {
		right, err = dc.fieldVariable(constraint.Fields[1])
		if err != nil {
			return err
		}
	} else {
		number, err := constraint.ValueAsInt()
		if err != nil {
			return err
		}
		right = number
	}

	switch constraint.Operator {
	case "greater_equal", "ge":
		api.AssertIsLessOrEqual(right, left)
	case "greater_than", "gt":
		api.AssertIsLessOrEqual(api.Add(right, 1), left)
	case "less_equal", "le":
		api.AssertIsLessOrEqual(left, right)
	case "less_than", "lt":
		api.AssertIsLessOrEqual(api.Add(left, 1), right)
	case "equal", "eq":
		api.AssertIsEqual(left, right)
	case "not_equal", "ne":
		api.AssertIsDifferent(left, right)
	default:
		return fmt.Errorf("unsupported comparison operator '%s'", constraint.Operator)
	}
	return nil
}

// applyAgeConstraint takes birth y/m/d then current y/m/d, and either a
// seventh field holding the minimum age or a constant value.
func (dc *DynamicCircuit) applyAgeConstraint(api frontend.API, constraint ConstraintDefinition) error {
	if n := len(constraint.Fields); n != 6 && n != 7 {
		return fmt.Errorf("age constraint expects 6 or 7 fields, got %d", n)
	}
	vars := make([]frontend.Variable, len(constraint.Fields))
	for i, name := range constraint.Fields {
		v, err := dc.fieldVariable(name)
		if err != nil {
			return err
		}
		vars[i] = v
	}
	birthYear, birthMonth, birthDay := vars[0], vars[1], vars[2]
	currYear, currMonth, currDay := vars[3], vars[4], vars[5]

	var minAge frontend.Variable
	if len(vars) == 7 {
		minAge = vars[6]
	} else {
		v, err := constraint.ValueAsInt()
		if err != nil {
			return err
		}
		minAge = v
	}

	api.AssertIsLessOrEqual(1, birthMonth)
	api.AssertIsLessOrEqual(birthMonth, 12)
	api.AssertIsLessOrEqual(1, birthDay)
	api.AssertIsLessOrEqual(birthDay, 31)

	api.AssertIsLessOrEqual(1, currMonth)
	api.AssertIsLessOrEqual(currMonth, 12)
	api.AssertIsLessOrEqual(1, currDay)
	api.AssertIsLessOrEqual(currDay, 31)

	minValidYear := api.Sub(currYear, minAge)
	api.AssertIsLessOrEqual(birthYear, minValidYear)

	// in the boundary year the birthday must not lie ahead
	yearIsMin := api.IsZero(api.Sub(birthYear, minValidYear))
	api.AssertIsLessOrEqual(birthMonth, api.Select(yearIsMin, currMonth, 12))

	monthIsCurr := api.IsZero(api.Sub(birthMonth, currMonth))
	api.AssertIsLessOrEqual(birthDay, api.Select(api.And(yearIsMin, monthIsCurr), currDay, 31))
	return nil
}

func (dc *DynamicCircuit) fieldVariable(name string) (frontend.Variable, error) {
	if idx, ok := dc.secretIndex[name]; ok {
		return dc.SecretValues[idx], nil
	}
	if idx, ok := dc.publicIndex[name]; ok {
		return dc.PublicValues[idx], nil
	}
	return nil, fmt.Errorf("unknown circuit element '%s'", name)
}
