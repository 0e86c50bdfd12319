package proofinput

import (
	"github.com/bsc-digital-identity/zk-compliance/pkg/babyjub"
	"github.com/bsc-digital-identity/zk-compliance/pkg/field"
	reasoncodes "github.com/bsc-digital-identity/zk-compliance/pkg/reason_codes"
	"github.com/bsc-digital-identity/zk-compliance/pkg/signals"
	"github.com/bsc-digital-identity/zk-compliance/pkg/utilities/timeutil"
)

type assembler struct {
	Builder
	ts timeutil.TimeUTC
	f  *field.Field
}

// resolve applies, in order: reserved time signals, policy rules, reserved
// key signals, credential claims. ok is false when nothing supplies sig.
func (a assembler) resolve(sig signals.Signal) (Value, bool, error) {
	switch sig.Name {
	case SignalCurrentDate:
		y, m, d := a.ts.Date()
		v := Value{Shape: []int{3}, Elems: []field.Scalar{a.f.FromInt64(int64(y)), a.f.FromInt64(int64(m)), a.f.FromInt64(int64(d))}}
		return checked(sig, v)
	case SignalTimestamp:
		return checked(sig, scalarValue(a.f.FromInt64(a.ts.T)))
	}

	if a.policy != nil {
		if rule, ok := a.policy.Rule(sig.Name); ok {
			return checked(sig, Value{Shape: rule.Value.Shape(), Elems: rule.Value.Elements(a.f)})
		}
	}

	switch sig.Name {
	case SignalUserPrivateKey:
		if a.userKey == nil {
			return Value{}, false, nil
		}
		return checked(sig, scalarValue(a.ctx.Scalar(*a.userKey)))
	case SignalTrusteePublicKey:
		if len(a.trustees) == 0 {
			return Value{}, false, nil
		}
		elems := make([]field.Scalar, 0, len(a.trustees)*babyjub.PointArity)
		for _, p := range a.trustees {
			elems = append(elems, p.Coordinates()...)
		}
		return checked(sig, Value{Shape: []int{len(a.trustees), babyjub.PointArity}, Elems: elems})
	case SignalIssuerPk:
		if a.credential == nil || a.credential.Proof == nil {
			return Value{}, false, nil
		}
		return checked(sig, Value{Shape: []int{babyjub.PointArity}, Elems: a.credential.Proof.PublicKey.Coordinates()})
	case SignalIssuerSignature:
		if a.credential == nil || a.credential.Proof == nil {
			return Value{}, false, nil
		}
		elems := a.credential.Proof.Signature.Elements()
		return checked(sig, Value{Shape: []int{len(elems)}, Elems: elems})
	}

	if a.credential == nil {
		return Value{}, false, nil
	}
	raw, ok := a.credential.Claim(sig.Name)
	if !ok {
		return Value{}, false, nil
	}
	v, err := encodeClaim(a.f, sig.Name, raw)
	if err != nil {
		return Value{}, false, err
	}
	return checked(sig, v)
}

func checked(sig signals.Signal, v Value) (Value, bool, error) {
	if !sig.SameShape(v.Shape) {
		return Value{}, false, reasoncodes.Newf(reasoncodes.ShapeMismatch, sig.Name, "expected %v, got %v", dimsOf(sig), v.Shape)
	}
	return v, true, nil
}

func dimsOf(sig signals.Signal) []int {
	if sig.Dimensions == nil {
		return []int{}
	}
	return sig.Dimensions
}
