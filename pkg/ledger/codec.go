package ledger

import (
	"fmt"
	"time"

	"github.com/near/borsh-go"

	"github.com/bsc-digital-identity/zk-compliance/pkg/babyjub"
	"github.com/bsc-digital-identity/zk-compliance/pkg/field"
	"github.com/bsc-digital-identity/zk-compliance/pkg/investigation"
	"github.com/bsc-digital-identity/zk-compliance/pkg/proofrequest"
)

// Instruction tags of the compliance program.
const (
	ixCreateProofRequest uint8 = iota
	ixSubmitProof
	ixSubmitVerification
	ixCreateInvestigation
	ixRevealShare
)

// word is a big-endian field element as stored on chain.
type word [32]byte

type proofRequestAccount struct {
	ServiceProvider string
	Policy          string
	Circuit         string
	Owner           string
	Status          uint8
	CreatedAt       int64
	ProvedAt        int64
	VerifiedAt      int64
	ExpiredAt       int64
	Proof           []byte
	PublicSignals   []word
}

type shareAccount struct {
	Index      uint8
	TrusteeX   word
	TrusteeY   word
	Share      word
	Status     uint8
	CreatedAt  int64
	RevealedAt int64
}

type investigationAccount struct {
	ID                 string
	Authority          string
	ProofRequest       string
	Owner              string
	RequiredShareCount uint8
	Status             uint8
	CreatedAt          int64
	Shares             []shareAccount
}

type createProofRequestIx struct {
	Tag             uint8
	ServiceProvider string
	Policy          string
	Circuit         string
	Owner           string
	CreatedAt       int64
	ExpiredAt       int64
}

type submitProofIx struct {
	Tag           uint8
	Force         bool
	Proof         []byte
	PublicSignals []word
}

type submitVerificationIx struct {
	Tag      uint8
	Verified bool
}

type trusteeArg struct {
	Index uint8
	X     word
	Y     word
}

type createInvestigationIx struct {
	Tag                uint8
	ID                 string
	Authority          string
	RequiredShareCount uint8
	CreatedAt          int64
	Trustees           []trusteeArg
}

type revealShareIx struct {
	Tag   uint8
	Index uint8
	Share word
	At    int64
}

// codec converts between domain types and account layouts.
type codec struct {
	f *field.Field
}

func (c codec) word(s field.Scalar) word {
	var w word
	b, err := c.f.ToBytes(s, field.BigEndian, len(w))
	if err != nil {
		// scalars of a field wider than 256 bits never reach the ledger
		panic(err)
	}
	copy(w[:], b)
	return w
}

func (c codec) scalar(w word) (field.Scalar, error) {
	return c.f.FromBytes(w[:], field.BigEndian)
}

func (c codec) words(in []field.Scalar) []word {
	out := make([]word, len(in))
	for i, s := range in {
		out[i] = c.word(s)
	}
	return out
}

func (c codec) scalars(in []word) ([]field.Scalar, error) {
	out := make([]field.Scalar, len(in))
	for i, w := range in {
		s, err := c.scalar(w)
		if err != nil {
			return nil, err
		}
		out[i] = s
	}
	return out, nil
}

func unix(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.Unix()
}

func fromUnix(s int64) time.Time {
	if s == 0 {
		return time.Time{}
	}
	return time.Unix(s, 0).UTC()
}

func (c codec) encodeProofRequest(r proofrequest.ProofRequest) ([]byte, error) {
	return borsh.Serialize(proofRequestAccount{
		ServiceProvider: r.ServiceProvider,
		Policy:          r.Policy,
		Circuit:         r.Circuit,
		Owner:           r.Owner,
		Status:          uint8(r.Status),
		CreatedAt:       unix(r.CreatedAt),
		ProvedAt:        unix(r.ProvedAt),
		VerifiedAt:      unix(r.VerifiedAt),
		ExpiredAt:       unix(r.ExpiredAt),
		Proof:           r.Proof,
		PublicSignals:   c.words(r.PublicSignals),
	})
}

func (c codec) decodeProofRequest(address string, data []byte) (proofrequest.ProofRequest, error) {
	var acc proofRequestAccount
	if err := borsh.Deserialize(&acc, data); err != nil {
		return proofrequest.ProofRequest{}, fmt.Errorf("ledger: decode proof request %s: %w", address, err)
	}
	if acc.Status > uint8(proofrequest.Expired) {
		return proofrequest.ProofRequest{}, fmt.Errorf("ledger: proof request %s: unknown status %d", address, acc.Status)
	}
	pub, err := c.scalars(acc.PublicSignals)
	if err != nil {
		return proofrequest.ProofRequest{}, fmt.Errorf("ledger: proof request %s: %w", address, err)
	}
	return proofrequest.ProofRequest{
		Address:         address,
		ServiceProvider: acc.ServiceProvider,
		Policy:          acc.Policy,
		Circuit:         acc.Circuit,
		Owner:           acc.Owner,
		Status:          proofrequest.Status(acc.Status),
		CreatedAt:       fromUnix(acc.CreatedAt),
		ProvedAt:        fromUnix(acc.ProvedAt),
		VerifiedAt:      fromUnix(acc.VerifiedAt),
		ExpiredAt:       fromUnix(acc.ExpiredAt),
		Proof:           acc.Proof,
		PublicSignals:   pub,
	}, nil
}

func (c codec) encodeInvestigation(rec investigation.Record) ([]byte, error) {
	acc := investigationAccount{
		ID:                 rec.ID,
		Authority:          rec.Authority,
		ProofRequest:       rec.ProofRequest,
		Owner:              rec.ProofRequestOwner,
		RequiredShareCount: rec.RequiredShareCount,
		Status:             uint8(rec.Status),
		CreatedAt:          unix(rec.CreatedAt),
		Shares:             make([]shareAccount, len(rec.SecretShares)),
	}
	for i, s := range rec.SecretShares {
		sa := shareAccount{
			Index:      s.Index,
			TrusteeX:   c.word(s.Trustee.X),
			TrusteeY:   c.word(s.Trustee.Y),
			Status:     uint8(s.Status),
			CreatedAt:  unix(s.CreatedAt),
			RevealedAt: unix(s.RevealedAt),
		}
		if s.Share != nil {
			sa.Share = c.word(*s.Share)
		}
		acc.Shares[i] = sa
	}
	return borsh.Serialize(acc)
}

func (c codec) decodeInvestigation(data []byte) (investigation.Record, error) {
	var acc investigationAccount
	if err := borsh.Deserialize(&acc, data); err != nil {
		return investigation.Record{}, fmt.Errorf("ledger: decode investigation: %w", err)
	}
	rec := investigation.Record{
		ID:                 acc.ID,
		Authority:          acc.Authority,
		ProofRequest:       acc.ProofRequest,
		ProofRequestOwner:  acc.Owner,
		RequiredShareCount: acc.RequiredShareCount,
		Status:             investigation.Status(acc.Status),
		CreatedAt:          fromUnix(acc.CreatedAt),
		SecretShares:       make([]investigation.ShareRecord, len(acc.Shares)),
	}
	for i, sa := range acc.Shares {
		x, err := c.scalar(sa.TrusteeX)
		if err != nil {
			return investigation.Record{}, err
		}
		y, err := c.scalar(sa.TrusteeY)
		if err != nil {
			return investigation.Record{}, err
		}
		sr := investigation.ShareRecord{
			Index:      sa.Index,
			Trustee:    babyjub.Point{X: x, Y: y},
			Status:     investigation.ShareStatus(sa.Status),
			CreatedAt:  fromUnix(sa.CreatedAt),
			RevealedAt: fromUnix(sa.RevealedAt),
		}
		if sr.Status == investigation.ShareRevealed {
			v, err := c.scalar(sa.Share)
			if err != nil {
				return investigation.Record{}, err
			}
			sr.Share = &v
		}
		rec.SecretShares[i] = sr
	}
	return rec, nil
}
