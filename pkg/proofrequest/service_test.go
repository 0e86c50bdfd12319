package proofrequest_test

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bsc-digital-identity/zk-compliance/pkg/field"
	"github.com/bsc-digital-identity/zk-compliance/pkg/logger"
	"github.com/bsc-digital-identity/zk-compliance/pkg/policy"
	"github.com/bsc-digital-identity/zk-compliance/pkg/proofrequest"
	reasoncodes "github.com/bsc-digital-identity/zk-compliance/pkg/reason_codes"
	"github.com/bsc-digital-identity/zk-compliance/pkg/signals"
)

// fakeLedger applies transitions like the on-chain program would, except
// that verdict, when set, overrides the submitted verification.
type fakeLedger struct {
	mu      sync.Mutex
	reqs    map[string]proofrequest.ProofRequest
	verdict *bool
	now     time.Time
}

func (l *fakeLedger) CreateProofRequest(_ context.Context, req proofrequest.ProofRequest) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.reqs[req.Address] = req
	return nil
}

func (l *fakeLedger) ProofRequest(_ context.Context, address string) (proofrequest.ProofRequest, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	r, ok := l.reqs[address]
	if !ok {
		return proofrequest.ProofRequest{}, proofrequest.ErrNotFound
	}
	return r, nil
}

func (l *fakeLedger) SubmitProof(_ context.Context, address string, proof []byte, pub []field.Scalar, force bool) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	r := l.reqs[address]
	if err := r.Prove(proof, pub, l.now, force); err != nil {
		return err
	}
	l.reqs[address] = r
	return nil
}

func (l *fakeLedger) SubmitVerification(_ context.Context, address string, verified bool) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.verdict != nil {
		verified = *l.verdict
	}
	r := l.reqs[address]
	if err := r.Verify(proofrequest.VerificationOutcome{ProofValid: verified, RulesSatisfied: verified}, l.now); err != nil {
		return err
	}
	l.reqs[address] = r
	return nil
}

type fakeVerifier struct{ ok bool }

func (v fakeVerifier) Verify(context.Context, []byte, []byte, []field.Scalar) (bool, error) {
	return v.ok, nil
}

type policies map[string]policy.Policy

func (p policies) Policy(_ context.Context, id string) (policy.Policy, error) {
	pol, ok := p[id]
	if !ok {
		return policy.Policy{}, errors.New("unknown policy")
	}
	return pol, nil
}

func newService(t *testing.T, verifierOK bool, verdict *bool) (*proofrequest.Service, *fakeLedger) {
	t.Helper()
	registry, err := signals.NewRegistry(ruleCircuit())
	require.NoError(t, err)
	pols := policies{"over-18": {
		ID:               "over-18",
		CircuitRef:       "age",
		Rules:            []policy.Rule{{Key: "minAge", Value: policy.Number(18)}},
		ExpirationPeriod: time.Hour,
	}}
	l := &fakeLedger{reqs: map[string]proofrequest.ProofRequest{}, verdict: verdict, now: t0}

	var buf bytes.Buffer
	s := proofrequest.NewService(l, fakeVerifier{ok: verifierOK}, registry, pols, field.BN254(),
		proofrequest.WithClock(func() time.Time { return t0 }),
		proofrequest.WithLogger(logger.New().WithOutput(&buf)),
	)
	return s, l
}

func publicSignals(minAge int64) []field.Scalar {
	f := field.BN254()
	return []field.Scalar{f.One(), f.FromInt64(minAge), f.FromInt64(2025), f.FromInt64(1), f.FromInt64(1)}
}

func TestServiceLifecycle(t *testing.T) {
	ctx := context.Background()
	s, _ := newService(t, true, nil)

	req, err := s.Create(ctx, "PR1", "holder", "over-18")
	require.NoError(t, err)
	assert.Equal(t, t0.Add(time.Hour), req.ExpiredAt)

	require.NoError(t, s.SubmitProof(ctx, "PR1", []byte("proof"), publicSignals(18), false))
	err = s.SubmitProof(ctx, "PR1", []byte("proof"), publicSignals(18), false)
	assert.True(t, errors.Is(err, reasoncodes.ErrProofAlreadyExists))

	rec, err := s.Finalize(ctx, "PR1")
	require.NoError(t, err)
	assert.Equal(t, proofrequest.Verified, rec.Status)
	assert.False(t, rec.Diverged)

	status, err := s.Status(ctx, "PR1")
	require.NoError(t, err)
	assert.Equal(t, proofrequest.Verified, status)
}

func TestServiceRejectsWrongPublicSignalCount(t *testing.T) {
	ctx := context.Background()
	s, _ := newService(t, true, nil)
	_, err := s.Create(ctx, "PR1", "holder", "over-18")
	require.NoError(t, err)
	assert.Error(t, s.SubmitProof(ctx, "PR1", []byte("proof"), publicSignals(18)[:2], false))
}

func TestLocalHintFailsRules(t *testing.T) {
	ctx := context.Background()
	s, _ := newService(t, true, nil)
	_, err := s.Create(ctx, "PR1", "holder", "over-18")
	require.NoError(t, err)
	require.NoError(t, s.SubmitProof(ctx, "PR1", []byte("proof"), publicSignals(16), false))

	hint, err := s.VerifyLocal(ctx, "PR1")
	require.NoError(t, err)
	assert.True(t, hint.Outcome.ProofValid)
	assert.False(t, hint.Outcome.RulesSatisfied)
	assert.Equal(t, proofrequest.Rejected, hint.Status())
}

func TestLedgerOverridesLocalVerdict(t *testing.T) {
	ctx := context.Background()
	rejected := false
	s, _ := newService(t, true, &rejected)
	_, err := s.Create(ctx, "PR1", "holder", "over-18")
	require.NoError(t, err)
	require.NoError(t, s.SubmitProof(ctx, "PR1", []byte("proof"), publicSignals(18), false))

	rec, err := s.Finalize(ctx, "PR1")
	require.NoError(t, err)
	assert.Equal(t, proofrequest.Verified, rec.Local)
	assert.Equal(t, proofrequest.Rejected, rec.Status)
	assert.True(t, rec.Diverged)
}

func TestLedgerAcceptsWhatLocalRejected(t *testing.T) {
	ctx := context.Background()
	accepted := true
	s, _ := newService(t, false, &accepted)
	_, err := s.Create(ctx, "PR1", "holder", "over-18")
	require.NoError(t, err)
	require.NoError(t, s.SubmitProof(ctx, "PR1", []byte("proof"), publicSignals(18), false))

	rec, err := s.Finalize(ctx, "PR1")
	require.NoError(t, err)
	assert.Equal(t, proofrequest.Rejected, rec.Local)
	assert.Equal(t, proofrequest.Verified, rec.Status)
	assert.True(t, rec.Diverged)
}
