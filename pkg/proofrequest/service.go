package proofrequest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bsc-digital-identity/zk-compliance/pkg/field"
	"github.com/bsc-digital-identity/zk-compliance/pkg/logger"
	"github.com/bsc-digital-identity/zk-compliance/pkg/policy"
	"github.com/bsc-digital-identity/zk-compliance/pkg/signals"
)

var ErrNotFound = errors.New("proofrequest: not found")

// Ledger is the authoritative store of proof request accounts.
type Ledger interface {
	CreateProofRequest(ctx context.Context, req ProofRequest) error
	ProofRequest(ctx context.Context, address string) (ProofRequest, error)
	SubmitProof(ctx context.Context, address string, proof []byte, publicSignals []field.Scalar, force bool) error
	SubmitVerification(ctx context.Context, address string, verified bool) error
}

// ProofVerifier checks a SNARK proof against a verifying key.
type ProofVerifier interface {
	Verify(ctx context.Context, verifyingKey []byte, proof []byte, publicSignals []field.Scalar) (bool, error)
}

// PolicyResolver looks up policies by id.
type PolicyResolver interface {
	Policy(ctx context.Context, id string) (policy.Policy, error)
}

// Service drives proof requests against the ledger. Local checks only
// produce hints; the ledger result always wins.
type Service struct {
	ledger   Ledger
	verifier ProofVerifier
	circuits *signals.Registry
	policies PolicyResolver
	field    *field.Field
	log      *logger.Logger
	now      func() time.Time
}

func NewService(l Ledger, v ProofVerifier, circuits *signals.Registry, policies PolicyResolver, f *field.Field, opts ...func(*Service)) *Service {
	s := &Service{
		ledger:   l,
		verifier: v,
		circuits: circuits,
		policies: policies,
		field:    f,
		log:      logger.New(),
		now:      func() time.Time { return time.Now().UTC() },
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

func WithLogger(l *logger.Logger) func(*Service) {
	return func(s *Service) { s.log = l }
}

func WithClock(now func() time.Time) func(*Service) {
	return func(s *Service) { s.now = now }
}

// Create registers a new pending request; expiry follows the policy.
func (s *Service) Create(ctx context.Context, address, owner, policyID string) (ProofRequest, error) {
	pol, err := s.policies.Policy(ctx, policyID)
	if err != nil {
		return ProofRequest{}, err
	}
	if _, err := s.circuits.Circuit(pol.CircuitRef); err != nil {
		return ProofRequest{}, err
	}
	now := s.now()
	req := ProofRequest{
		Address:         address,
		ServiceProvider: pol.ServiceProviderRef,
		Policy:          pol.ID,
		Circuit:         pol.CircuitRef,
		Owner:           owner,
		Status:          Pending,
		CreatedAt:       now,
		ExpiredAt:       pol.ExpiresAt(now),
	}
	if err := s.ledger.CreateProofRequest(ctx, req); err != nil {
		return ProofRequest{}, fmt.Errorf("create proof request %s: %w", address, err)
	}
	s.log.Infof("proof request %s created for policy %s", address, pol.ID)
	return req, nil
}

// SubmitProof validates the transition against the current ledger state and
// then submits it.
func (s *Service) SubmitProof(ctx context.Context, address string, proof []byte, publicSignals []field.Scalar, force bool) error {
	req, err := s.ledger.ProofRequest(ctx, address)
	if err != nil {
		return err
	}
	circuit, err := s.circuits.Circuit(req.Circuit)
	if err != nil {
		return err
	}
	if want := circuit.PublicSize(); len(publicSignals) != want {
		return fmt.Errorf("proof request %s: expected %d public signals, got %d", address, want, len(publicSignals))
	}
	if err := req.Prove(proof, publicSignals, s.now(), force); err != nil {
		return err
	}
	if err := s.ledger.SubmitProof(ctx, address, proof, publicSignals, force); err != nil {
		return fmt.Errorf("submit proof %s: %w", address, err)
	}
	s.log.Infof("proof submitted for %s (force=%v)", address, force)
	return nil
}

// VerifyLocal runs the SNARK check and the policy rules on the ledger copy.
func (s *Service) VerifyLocal(ctx context.Context, address string) (Hint, error) {
	req, err := s.ledger.ProofRequest(ctx, address)
	if err != nil {
		return Hint{}, err
	}
	circuit, err := s.circuits.Circuit(req.Circuit)
	if err != nil {
		return Hint{}, err
	}
	pol, err := s.policies.Policy(ctx, req.Policy)
	if err != nil {
		return Hint{}, err
	}

	valid, err := s.verifier.Verify(ctx, circuit.VerifyingKey, req.Proof, req.PublicSignals)
	if err != nil {
		s.log.Warnf("local proof check for %s failed: %v", address, err)
		valid = false
	}
	rules, err := EvaluateRules(s.field, circuit, pol, req.PublicSignals)
	if err != nil {
		return Hint{}, err
	}
	return Hint{Outcome: VerificationOutcome{ProofValid: valid, RulesSatisfied: rules}}, nil
}

// Finalize submits the local verdict and reconciles with what the ledger
// recorded.
func (s *Service) Finalize(ctx context.Context, address string) (Reconciliation, error) {
	hint, err := s.VerifyLocal(ctx, address)
	if err != nil {
		return Reconciliation{}, err
	}
	if err := s.ledger.SubmitVerification(ctx, address, hint.Outcome.Verified()); err != nil {
		s.log.Errorf(err, "ledger rejected verification of %s", address)
	}
	req, err := s.ledger.ProofRequest(ctx, address)
	if err != nil {
		return Reconciliation{}, err
	}
	rec := Reconcile(hint, req.EffectiveStatus(s.now()))
	if rec.Diverged {
		s.log.Warnf("proof request %s: local verdict %s, ledger %s", address, rec.Local, rec.Status)
	}
	return rec, nil
}

func (s *Service) Get(ctx context.Context, address string) (ProofRequest, error) {
	return s.ledger.ProofRequest(ctx, address)
}

// Status is the ledger status with expiry applied at read time.
func (s *Service) Status(ctx context.Context, address string) (Status, error) {
	req, err := s.ledger.ProofRequest(ctx, address)
	if err != nil {
		return 0, err
	}
	return req.EffectiveStatus(s.now()), nil
}
