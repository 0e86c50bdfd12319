// Package investigation collects trustee shares for an opened investigation
// and reconstructs the secret the circuit distributed at proof time.
package investigation

import (
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/bsc-digital-identity/zk-compliance/pkg/babyjub"
	"github.com/bsc-digital-identity/zk-compliance/pkg/field"
	reasoncodes "github.com/bsc-digital-identity/zk-compliance/pkg/reason_codes"
	"github.com/bsc-digital-identity/zk-compliance/pkg/shamir"
)

type ShareStatus int

const (
	SharePending ShareStatus = iota
	ShareRevealed
)

func (s ShareStatus) String() string {
	if s == ShareRevealed {
		return "revealed"
	}
	return "pending"
}

func (s ShareStatus) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

func (s *ShareStatus) UnmarshalText(text []byte) error {
	switch string(text) {
	case "pending":
		*s = SharePending
	case "revealed":
		*s = ShareRevealed
	default:
		return fmt.Errorf("investigation: unknown share status %q", text)
	}
	return nil
}

// Status of a whole investigation. Ready means enough shares are revealed
// to reconstruct.
type Status int

const (
	Collecting Status = iota
	Ready
)

func (s Status) String() string {
	if s == Ready {
		return "ready"
	}
	return "collecting"
}

func (s Status) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

func (s *Status) UnmarshalText(text []byte) error {
	switch string(text) {
	case "collecting":
		*s = Collecting
	case "ready":
		*s = Ready
	default:
		return fmt.Errorf("investigation: unknown status %q", text)
	}
	return nil
}

// Trustee is a committee member holding the key for one share.
type Trustee struct {
	PublicKey babyjub.Point `json:"publicKey"`
	Index     uint8         `json:"index"`
}

// SecretShare is the slot for one trustee's share. Reveals on the same slot
// are serialized by mu.
type SecretShare struct {
	mu sync.Mutex

	trustee    Trustee
	share      field.Scalar
	status     ShareStatus
	createdAt  time.Time
	revealedAt time.Time
}

func (s *SecretShare) reveal(share field.Scalar, now time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status == ShareRevealed {
		return false
	}
	s.share = share
	s.status = ShareRevealed
	s.revealedAt = now
	return true
}

// value returns the revealed share, if any.
func (s *SecretShare) value() (field.Scalar, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.share, s.status == ShareRevealed
}

func (s *SecretShare) record() ShareRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec := ShareRecord{
		Index:      s.trustee.Index,
		Trustee:    s.trustee.PublicKey,
		Status:     s.status,
		CreatedAt:  s.createdAt,
		RevealedAt: s.revealedAt,
	}
	if s.status == ShareRevealed {
		v := s.share
		rec.Share = &v
	}
	return rec
}

// Request is one investigation against a proof request.
type Request struct {
	ID                 string
	Authority          string
	ProofRequest       string
	ProofRequestOwner  string
	RequiredShareCount uint8
	CreatedAt          time.Time

	shares []*SecretShare
	byIdx  map[uint8]*SecretShare
}

type OpenParams struct {
	ID                 string
	Authority          string
	ProofRequest       string
	Owner              string
	Trustees           []Trustee
	RequiredShareCount uint8
}

// Open creates a request with one pending share per trustee. Trustee
// indices are the Shamir x-coordinates and must be distinct and non-zero.
func Open(p OpenParams, now time.Time) (*Request, error) {
	if p.Authority == "" {
		return nil, reasoncodes.New(reasoncodes.MissingField, "authority")
	}
	if p.ProofRequest == "" {
		return nil, reasoncodes.New(reasoncodes.MissingField, "proofRequest")
	}
	if len(p.Trustees) == 0 || len(p.Trustees) > 255 {
		return nil, reasoncodes.Newf(reasoncodes.InvalidThreshold, "trustees", "need 1 to 255 trustees, got %d", len(p.Trustees))
	}
	if p.RequiredShareCount < 1 || int(p.RequiredShareCount) > len(p.Trustees) {
		return nil, reasoncodes.Newf(reasoncodes.InvalidThreshold, "requiredShareCount",
			"need 1 <= k <= %d, got %d", len(p.Trustees), p.RequiredShareCount)
	}

	id := p.ID
	if id == "" {
		id = uuid.NewString()
	}
	r := &Request{
		ID:                 id,
		Authority:          p.Authority,
		ProofRequest:       p.ProofRequest,
		ProofRequestOwner:  p.Owner,
		RequiredShareCount: p.RequiredShareCount,
		CreatedAt:          now,
		shares:             make([]*SecretShare, 0, len(p.Trustees)),
		byIdx:              make(map[uint8]*SecretShare, len(p.Trustees)),
	}
	for _, t := range p.Trustees {
		if t.Index == 0 {
			return nil, reasoncodes.Newf(reasoncodes.InvalidShareIndex, "0", "trustee indices are 1-based")
		}
		if _, dup := r.byIdx[t.Index]; dup {
			return nil, reasoncodes.Newf(reasoncodes.DuplicateShareIndex, strconv.Itoa(int(t.Index)), "trustee index used twice")
		}
		s := &SecretShare{trustee: t, createdAt: now}
		r.shares = append(r.shares, s)
		r.byIdx[t.Index] = s
	}
	return r, nil
}

func (r *Request) share(index uint8) (*SecretShare, error) {
	s, ok := r.byIdx[index]
	if !ok {
		return nil, reasoncodes.Newf(reasoncodes.UnknownTrustee, strconv.Itoa(int(index)), "no share slot in investigation %s", r.ID)
	}
	return s, nil
}

// Trustees lists the committee in opening order.
func (r *Request) Trustees() []Trustee {
	out := make([]Trustee, len(r.shares))
	for i, s := range r.shares {
		out[i] = s.trustee
	}
	return out
}

// Reveal records a plaintext share. It reports whether the slot changed;
// revealing an already revealed slot is a no-op.
func (r *Request) Reveal(index uint8, share field.Scalar, now time.Time) (bool, error) {
	s, err := r.share(index)
	if err != nil {
		return false, err
	}
	return s.reveal(share, now), nil
}

// RevealEncrypted decrypts a share with the trustee's key before revealing
// it. The key must belong to the trustee registered at index.
func (r *Request) RevealEncrypted(index uint8, key babyjub.PrivateKey, enc babyjub.EncryptedShare, bj *babyjub.Context, now time.Time) (bool, error) {
	s, err := r.share(index)
	if err != nil {
		return false, err
	}
	if !bj.Equal(bj.PublicKey(key), s.trustee.PublicKey) {
		return false, reasoncodes.Newf(reasoncodes.UnknownTrustee, strconv.Itoa(int(index)), "key does not match the trustee")
	}
	return s.reveal(bj.DecryptShare(key, enc), now), nil
}

func (r *Request) revealed() []shamir.Share {
	out := make([]shamir.Share, 0, len(r.shares))
	for _, s := range r.shares {
		s.mu.Lock()
		if s.status == ShareRevealed {
			out = append(out, shamir.Share{X: s.trustee.Index, Y: s.share})
		}
		s.mu.Unlock()
	}
	return out
}

func (r *Request) RevealedCount() int { return len(r.revealed()) }

func (r *Request) Status() Status {
	if r.RevealedCount() >= int(r.RequiredShareCount) {
		return Ready
	}
	return Collecting
}

// Reconstruct interpolates the secret from every revealed share.
func (r *Request) Reconstruct(f *field.Field) (field.Scalar, error) {
	shares := r.revealed()
	if len(shares) < int(r.RequiredShareCount) {
		return field.Scalar{}, reasoncodes.Newf(reasoncodes.InsufficientShares, r.ID,
			"%d of %d shares revealed", len(shares), r.RequiredShareCount)
	}
	return shamir.Reconstruct(f, shares, r.RequiredShareCount)
}
