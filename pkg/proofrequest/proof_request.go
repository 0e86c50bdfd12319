// Package proofrequest tracks the lifecycle of one holder proving one policy.
//
// The ledger copy of a proof request is authoritative. The state machine here
// validates transitions locally before they are submitted and mirrors what
// the ledger reports.
package proofrequest

import (
	"time"

	"github.com/bsc-digital-identity/zk-compliance/pkg/field"
	reasoncodes "github.com/bsc-digital-identity/zk-compliance/pkg/reason_codes"
)

type Transition struct {
	From Status    `json:"from"`
	To   Status    `json:"to"`
	At   time.Time `json:"at"`
}

type ProofRequest struct {
	Address         string         `json:"address"`
	ServiceProvider string         `json:"serviceProvider"`
	Policy          string         `json:"policy"`
	Circuit         string         `json:"circuit"`
	Owner           string         `json:"owner"`
	Status          Status         `json:"status"`
	CreatedAt       time.Time      `json:"createdAt"`
	ProvedAt        time.Time      `json:"provedAt"`
	VerifiedAt      time.Time      `json:"verifiedAt"`
	ExpiredAt       time.Time      `json:"expiredAt"`
	Proof           []byte         `json:"proof,omitempty"`
	PublicSignals   []field.Scalar `json:"publicSignals,omitempty"`
	History         []Transition   `json:"history,omitempty"`
}

// VerificationOutcome is the result of checking a submitted proof.
type VerificationOutcome struct {
	ProofValid     bool `json:"proofValid"`
	RulesSatisfied bool `json:"rulesSatisfied"`
}

func (o VerificationOutcome) Verified() bool { return o.ProofValid && o.RulesSatisfied }

// EffectiveStatus reports Expired for an open request past its expiry
// without recording anything.
func (r *ProofRequest) EffectiveStatus(now time.Time) Status {
	if (r.Status == Pending || r.Status == Proved) && r.expiredBy(now) {
		return Expired
	}
	return r.Status
}

func (r *ProofRequest) expiredBy(now time.Time) bool {
	return !r.ExpiredAt.IsZero() && now.After(r.ExpiredAt)
}

// Prove attaches a proof. A second proof is ProofAlreadyExists unless force
// is set, and force only applies before verification.
func (r *ProofRequest) Prove(proof []byte, publicSignals []field.Scalar, now time.Time, force bool) error {
	if r.expiredBy(now) && !r.Status.Terminal() {
		return reasoncodes.Newf(reasoncodes.InvalidStateTransition, r.Address, "%s -> %s: request expired", r.Status, Proved)
	}
	if r.Status == Proved && !force {
		return reasoncodes.Newf(reasoncodes.ProofAlreadyExists, r.Address, "use force to replace the proof")
	}
	if err := r.move(Proved, now); err != nil {
		return err
	}
	r.Proof = append([]byte(nil), proof...)
	r.PublicSignals = append([]field.Scalar(nil), publicSignals...)
	r.ProvedAt = now
	return nil
}

// Verify moves a proved request to Verified iff the proof is valid and all
// policy rules hold, otherwise to Rejected.
func (r *ProofRequest) Verify(outcome VerificationOutcome, now time.Time) error {
	if r.Status == Proved && r.expiredBy(now) {
		return reasoncodes.Newf(reasoncodes.InvalidStateTransition, r.Address, "%s -> verify: request expired", r.Status)
	}
	to := Rejected
	if outcome.Verified() {
		to = Verified
	}
	if err := r.move(to, now); err != nil {
		return err
	}
	r.VerifiedAt = now
	return nil
}

// Expire records the Expired state once now is past ExpiredAt.
func (r *ProofRequest) Expire(now time.Time) error {
	if !r.expiredBy(now) {
		return reasoncodes.Newf(reasoncodes.InvalidStateTransition, r.Address, "not expired before %s", r.ExpiredAt.Format(time.RFC3339))
	}
	return r.move(Expired, now)
}

// Advance applies an arbitrary forward transition, used when mirroring
// ledger state. Backward moves are InvalidStateTransition.
func (r *ProofRequest) Advance(to Status, now time.Time) error {
	if to == r.Status {
		return reasoncodes.Newf(reasoncodes.InvalidStateTransition, r.Address, "already %s", to)
	}
	if err := r.move(to, now); err != nil {
		return err
	}
	switch to {
	case Proved:
		r.ProvedAt = now
	case Verified, Rejected:
		r.VerifiedAt = now
	}
	return nil
}

func (r *ProofRequest) move(to Status, now time.Time) error {
	if !canMove(r.Status, to) {
		return reasoncodes.Newf(reasoncodes.InvalidStateTransition, r.Address, "%s -> %s", r.Status, to)
	}
	r.History = append(r.History, Transition{From: r.Status, To: to, At: now})
	r.Status = to
	return nil
}
