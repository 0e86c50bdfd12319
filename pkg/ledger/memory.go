package ledger

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/bsc-digital-identity/zk-compliance/pkg/field"
	"github.com/bsc-digital-identity/zk-compliance/pkg/investigation"
	"github.com/bsc-digital-identity/zk-compliance/pkg/proofrequest"
	reasoncodes "github.com/bsc-digital-identity/zk-compliance/pkg/reason_codes"
)

// Memory applies the same transition rules as the on-chain program.
type Memory struct {
	mu             sync.RWMutex
	requests       map[string]proofrequest.ProofRequest
	investigations map[string]investigation.Record
	now            func() time.Time
}

func NewMemory(now func() time.Time) *Memory {
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &Memory{
		requests:       map[string]proofrequest.ProofRequest{},
		investigations: map[string]investigation.Record{},
		now:            now,
	}
}

func (m *Memory) CreateProofRequest(_ context.Context, req proofrequest.ProofRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.requests[req.Address]; ok {
		return fmt.Errorf("ledger: proof request %s already exists", req.Address)
	}
	req.History = nil
	m.requests[req.Address] = req
	return nil
}

func (m *Memory) ProofRequest(_ context.Context, address string) (proofrequest.ProofRequest, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.requests[address]
	if !ok {
		return proofrequest.ProofRequest{}, fmt.Errorf("ledger: %s: %w", address, proofrequest.ErrNotFound)
	}
	return cloneRequest(r), nil
}

func (m *Memory) SubmitProof(_ context.Context, address string, proof []byte, publicSignals []field.Scalar, force bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.requests[address]
	if !ok {
		return fmt.Errorf("ledger: %s: %w", address, proofrequest.ErrNotFound)
	}
	if err := r.Prove(append([]byte(nil), proof...), append([]field.Scalar(nil), publicSignals...), m.now(), force); err != nil {
		return err
	}
	m.requests[address] = r
	return nil
}

func (m *Memory) SubmitVerification(_ context.Context, address string, verified bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.requests[address]
	if !ok {
		return fmt.Errorf("ledger: %s: %w", address, proofrequest.ErrNotFound)
	}
	outcome := proofrequest.VerificationOutcome{ProofValid: verified, RulesSatisfied: verified}
	if err := r.Verify(outcome, m.now()); err != nil {
		return err
	}
	m.requests[address] = r
	return nil
}

func (m *Memory) CreateInvestigation(_ context.Context, rec investigation.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.requests[rec.ProofRequest]; !ok {
		return fmt.Errorf("ledger: %s: %w", rec.ProofRequest, proofrequest.ErrNotFound)
	}
	if _, ok := m.investigations[rec.ID]; ok {
		return fmt.Errorf("ledger: investigation %s already exists", rec.ID)
	}
	m.investigations[rec.ID] = cloneRecord(rec)
	return nil
}

func (m *Memory) Investigation(_ context.Context, id string) (investigation.Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.investigations[id]
	if !ok {
		return investigation.Record{}, fmt.Errorf("ledger: %s: %w", id, investigation.ErrNotFound)
	}
	return cloneRecord(rec), nil
}

// RevealShare is a no-op for a share that is already revealed.
func (m *Memory) RevealShare(_ context.Context, id string, index uint8, share field.Scalar, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.investigations[id]
	if !ok {
		return fmt.Errorf("ledger: %s: %w", id, investigation.ErrNotFound)
	}
	revealed := 0
	found := false
	for i := range rec.SecretShares {
		s := &rec.SecretShares[i]
		if s.Index == index {
			found = true
			if s.Status != investigation.ShareRevealed {
				v := share
				s.Share = &v
				s.Status = investigation.ShareRevealed
				s.RevealedAt = at
			}
		}
		if s.Status == investigation.ShareRevealed {
			revealed++
		}
	}
	if !found {
		return reasoncodes.Newf(reasoncodes.UnknownTrustee, strconv.Itoa(int(index)), "no share slot in investigation %s", id)
	}
	if revealed >= int(rec.RequiredShareCount) {
		rec.Status = investigation.Ready
	}
	m.investigations[id] = rec
	return nil
}

func cloneRequest(r proofrequest.ProofRequest) proofrequest.ProofRequest {
	r.Proof = append([]byte(nil), r.Proof...)
	r.PublicSignals = append([]field.Scalar(nil), r.PublicSignals...)
	r.History = append([]proofrequest.Transition(nil), r.History...)
	return r
}

func cloneRecord(rec investigation.Record) investigation.Record {
	rec.SecretShares = append([]investigation.ShareRecord(nil), rec.SecretShares...)
	return rec
}
