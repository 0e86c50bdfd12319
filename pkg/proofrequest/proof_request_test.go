package proofrequest_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bsc-digital-identity/zk-compliance/pkg/field"
	"github.com/bsc-digital-identity/zk-compliance/pkg/policy"
	"github.com/bsc-digital-identity/zk-compliance/pkg/proofrequest"
	reasoncodes "github.com/bsc-digital-identity/zk-compliance/pkg/reason_codes"
	"github.com/bsc-digital-identity/zk-compliance/pkg/signals"
)

var t0 = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

func pending() *proofrequest.ProofRequest {
	return &proofrequest.ProofRequest{
		Address:   "PR1",
		Status:    proofrequest.Pending,
		CreatedAt: t0,
		ExpiredAt: t0.Add(time.Hour),
	}
}

func TestHappyPathRecordsHistory(t *testing.T) {
	r := pending()
	require.NoError(t, r.Prove([]byte{1}, nil, t0.Add(time.Minute), false))
	require.NoError(t, r.Verify(proofrequest.VerificationOutcome{ProofValid: true, RulesSatisfied: true}, t0.Add(2*time.Minute)))

	assert.Equal(t, proofrequest.Verified, r.Status)
	require.Len(t, r.History, 2)
	assert.Equal(t, proofrequest.Transition{From: proofrequest.Pending, To: proofrequest.Proved, At: t0.Add(time.Minute)}, r.History[0])
	assert.Equal(t, t0.Add(2*time.Minute), r.VerifiedAt)
}

func TestMonotonicity(t *testing.T) {
	r := pending()
	require.NoError(t, r.Prove([]byte{1}, nil, t0, false))
	require.NoError(t, r.Verify(proofrequest.VerificationOutcome{ProofValid: true, RulesSatisfied: true}, t0))

	for _, to := range []proofrequest.Status{proofrequest.Pending, proofrequest.Proved, proofrequest.Rejected} {
		err := r.Advance(to, t0)
		assert.True(t, errors.Is(err, reasoncodes.ErrInvalidStateTransition), "-> %s", to)
	}
	err := r.Prove([]byte{2}, nil, t0, true)
	assert.True(t, errors.Is(err, reasoncodes.ErrInvalidStateTransition))
	assert.Equal(t, proofrequest.Verified, r.Status)
	assert.Len(t, r.History, 2)
}

func TestRejectedWhenAnyCheckFails(t *testing.T) {
	for _, outcome := range []proofrequest.VerificationOutcome{
		{ProofValid: false, RulesSatisfied: true},
		{ProofValid: true, RulesSatisfied: false},
		{},
	} {
		r := pending()
		require.NoError(t, r.Prove([]byte{1}, nil, t0, false))
		require.NoError(t, r.Verify(outcome, t0))
		assert.Equal(t, proofrequest.Rejected, r.Status)
	}
}

func TestSecondProofNeedsForce(t *testing.T) {
	r := pending()
	require.NoError(t, r.Prove([]byte{1}, nil, t0, false))

	err := r.Prove([]byte{2}, nil, t0, false)
	assert.True(t, errors.Is(err, reasoncodes.ErrProofAlreadyExists))
	assert.Equal(t, []byte{1}, r.Proof)

	require.NoError(t, r.Prove([]byte{2}, nil, t0.Add(time.Second), true))
	assert.Equal(t, []byte{2}, r.Proof)
	assert.Equal(t, proofrequest.Proved, r.Status)
}

func TestVerifyRequiresProof(t *testing.T) {
	r := pending()
	err := r.Verify(proofrequest.VerificationOutcome{ProofValid: true, RulesSatisfied: true}, t0)
	assert.True(t, errors.Is(err, reasoncodes.ErrInvalidStateTransition))
}

func TestExpiry(t *testing.T) {
	r := pending()
	late := t0.Add(2 * time.Hour)

	assert.Equal(t, proofrequest.Pending, r.EffectiveStatus(t0))
	assert.Equal(t, proofrequest.Expired, r.EffectiveStatus(late))
	assert.Equal(t, proofrequest.Pending, r.Status)

	err := r.Prove([]byte{1}, nil, late, false)
	assert.True(t, errors.Is(err, reasoncodes.ErrInvalidStateTransition))

	assert.True(t, errors.Is(r.Expire(t0), reasoncodes.ErrInvalidStateTransition))
	require.NoError(t, r.Expire(late))
	assert.Equal(t, proofrequest.Expired, r.Status)
	assert.True(t, errors.Is(r.Advance(proofrequest.Proved, late), reasoncodes.ErrInvalidStateTransition))

	proved := pending()
	require.NoError(t, proved.Prove([]byte{1}, nil, t0, false))
	err = proved.Verify(proofrequest.VerificationOutcome{ProofValid: true, RulesSatisfied: true}, late)
	assert.True(t, errors.Is(err, reasoncodes.ErrInvalidStateTransition))

	verified := pending()
	require.NoError(t, verified.Prove([]byte{1}, nil, t0, false))
	require.NoError(t, verified.Verify(proofrequest.VerificationOutcome{ProofValid: true, RulesSatisfied: true}, t0))
	assert.Equal(t, proofrequest.Verified, verified.EffectiveStatus(late))
}

func TestStatusText(t *testing.T) {
	var s proofrequest.Status
	require.NoError(t, s.UnmarshalText([]byte("rejected")))
	assert.Equal(t, proofrequest.Rejected, s)
	assert.Error(t, s.UnmarshalText([]byte("lost")))
}

func ruleCircuit() signals.Circuit {
	return signals.Circuit{
		ID:            "age",
		OutputSignals: []signals.Signal{signals.MustParse("valid")},
		PublicSignals: []signals.Signal{signals.MustParse("minAge"), signals.MustParse("currentDate[3]")},
		PrivateSignals: []signals.Signal{
			signals.MustParse("birthDate[3]"),
		},
	}
}

func TestEvaluateRules(t *testing.T) {
	f := field.BN254()
	circuit := ruleCircuit()
	p := policy.Policy{Rules: []policy.Rule{{Key: "minAge", Value: policy.Number(18)}}}

	pub := []field.Scalar{f.One(), f.FromInt64(18), f.FromInt64(2025), f.FromInt64(1), f.FromInt64(1)}
	ok, err := proofrequest.EvaluateRules(f, circuit, p, pub)
	require.NoError(t, err)
	assert.True(t, ok)

	pub[1] = f.FromInt64(16)
	ok, err = proofrequest.EvaluateRules(f, circuit, p, pub)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = proofrequest.EvaluateRules(f, circuit, p, pub[:3])
	assert.True(t, errors.Is(err, reasoncodes.ErrShapeMismatch))

	private := policy.Policy{Rules: []policy.Rule{{Key: "birthDate", Value: policy.Number(1990)}}}
	_, err = proofrequest.EvaluateRules(f, circuit, private, pub)
	assert.True(t, errors.Is(err, reasoncodes.ErrUnknownSignal))
}

func TestReconcile(t *testing.T) {
	valid := proofrequest.Hint{Outcome: proofrequest.VerificationOutcome{ProofValid: true, RulesSatisfied: true}}
	invalid := proofrequest.Hint{Outcome: proofrequest.VerificationOutcome{ProofValid: false, RulesSatisfied: true}}

	tests := []struct {
		name     string
		hint     proofrequest.Hint
		ledger   proofrequest.Status
		diverged bool
	}{
		{"agree verified", valid, proofrequest.Verified, false},
		{"agree rejected", invalid, proofrequest.Rejected, false},
		{"local valid ledger rejected", valid, proofrequest.Rejected, true},
		{"local invalid ledger verified", invalid, proofrequest.Verified, true},
		{"ledger not settled", valid, proofrequest.Proved, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := proofrequest.Reconcile(tt.hint, tt.ledger)
			assert.Equal(t, tt.ledger, rec.Status)
			assert.Equal(t, tt.diverged, rec.Diverged)
		})
	}
}
