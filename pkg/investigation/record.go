package investigation

import (
	"fmt"
	"time"

	"github.com/bsc-digital-identity/zk-compliance/pkg/babyjub"
	"github.com/bsc-digital-identity/zk-compliance/pkg/field"
	"github.com/bsc-digital-identity/zk-compliance/pkg/utilities"
)

// ShareRecord is the persisted form of a SecretShare. Share is nil while
// the slot is pending.
type ShareRecord struct {
	Index      uint8         `json:"index"`
	Trustee    babyjub.Point `json:"trustee"`
	Share      *field.Scalar `json:"share,omitempty"`
	Status     ShareStatus   `json:"status"`
	CreatedAt  time.Time     `json:"createdAt"`
	RevealedAt time.Time     `json:"revealedAt,omitempty"`
}

// Record is the persisted form of a Request, as kept by the ledger and the
// local store.
type Record struct {
	ID                 string        `json:"id"`
	Authority          string        `json:"authority"`
	ProofRequest       string        `json:"proofRequest"`
	ProofRequestOwner  string        `json:"proofRequestOwner"`
	RequiredShareCount uint8         `json:"requiredShareCount"`
	Status             Status        `json:"status"`
	CreatedAt          time.Time     `json:"createdAt"`
	SecretShares       []ShareRecord `json:"secretShares"`
}

func (rec Record) Serialize() ([]byte, error) {
	return utilities.Serialize(rec)
}

// Record takes a consistent per-share snapshot of r.
func (r *Request) Record() Record {
	rec := Record{
		ID:                 r.ID,
		Authority:          r.Authority,
		ProofRequest:       r.ProofRequest,
		ProofRequestOwner:  r.ProofRequestOwner,
		RequiredShareCount: r.RequiredShareCount,
		CreatedAt:          r.CreatedAt,
		SecretShares:       make([]ShareRecord, len(r.shares)),
	}
	revealed := 0
	for i, s := range r.shares {
		rec.SecretShares[i] = s.record()
		if rec.SecretShares[i].Status == ShareRevealed {
			revealed++
		}
	}
	if revealed >= int(r.RequiredShareCount) {
		rec.Status = Ready
	}
	return rec
}

// FromRecord rebuilds a Request, re-running the opening checks.
func FromRecord(rec Record) (*Request, error) {
	trustees := make([]Trustee, len(rec.SecretShares))
	for i, s := range rec.SecretShares {
		trustees[i] = Trustee{PublicKey: s.Trustee, Index: s.Index}
	}
	r, err := Open(OpenParams{
		ID:                 rec.ID,
		Authority:          rec.Authority,
		ProofRequest:       rec.ProofRequest,
		Owner:              rec.ProofRequestOwner,
		Trustees:           trustees,
		RequiredShareCount: rec.RequiredShareCount,
	}, rec.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("investigation %s: %w", rec.ID, err)
	}
	for i, s := range rec.SecretShares {
		r.shares[i].createdAt = s.CreatedAt
		if s.Status != ShareRevealed {
			continue
		}
		if s.Share == nil {
			return nil, fmt.Errorf("investigation %s: share %d revealed without a value", rec.ID, s.Index)
		}
		r.shares[i].reveal(*s.Share, s.RevealedAt)
	}
	return r, nil
}
