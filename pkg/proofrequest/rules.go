package proofrequest

import (
	"github.com/bsc-digital-identity/zk-compliance/pkg/field"
	"github.com/bsc-digital-identity/zk-compliance/pkg/policy"
	reasoncodes "github.com/bsc-digital-identity/zk-compliance/pkg/reason_codes"
	"github.com/bsc-digital-identity/zk-compliance/pkg/signals"
)

// EvaluateRules checks every policy rule against the revealed public signal
// vector (outputs followed by public inputs). A rule naming a signal that is
// not public cannot be checked and is an error.
func EvaluateRules(f *field.Field, circuit signals.Circuit, p policy.Policy, publicSignals []field.Scalar) (bool, error) {
	if want := circuit.PublicSize(); len(publicSignals) != want {
		return false, reasoncodes.Newf(reasoncodes.ShapeMismatch, "publicSignals", "expected %d elements, got %d", want, len(publicSignals))
	}
	for _, rule := range p.Rules {
		sig, off, err := circuit.PublicOffset(rule.Key)
		if err != nil {
			return false, err
		}
		if !sig.SameShape(rule.Value.Shape()) {
			return false, reasoncodes.Newf(reasoncodes.ShapeMismatch, rule.Key, "rule shape %v, signal %v", rule.Value.Shape(), sig.Dimensions)
		}
		for i, want := range rule.Value.Elements(f) {
			if !f.Equal(want, publicSignals[off+i]) {
				return false, nil
			}
		}
	}
	return true, nil
}
