package investigation

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/bsc-digital-identity/zk-compliance/pkg/babyjub"
	"github.com/bsc-digital-identity/zk-compliance/pkg/field"
	"github.com/bsc-digital-identity/zk-compliance/pkg/logger"
	"github.com/bsc-digital-identity/zk-compliance/pkg/payload"
	"github.com/bsc-digital-identity/zk-compliance/pkg/proofrequest"
	reasoncodes "github.com/bsc-digital-identity/zk-compliance/pkg/reason_codes"
	"github.com/bsc-digital-identity/zk-compliance/pkg/signals"
	"github.com/bsc-digital-identity/zk-compliance/pkg/utilities"
)

var ErrNotFound = errors.New("investigation: not found")

// Outbox event types.
const (
	EventOpened        = "investigation.opened"
	EventShareRevealed = "investigation.share_revealed"
	EventReconstructed = "investigation.reconstructed"
)

// Ledger holds the authoritative investigation accounts. RevealShare must be
// idempotent for an already revealed share.
type Ledger interface {
	CreateInvestigation(ctx context.Context, rec Record) error
	Investigation(ctx context.Context, id string) (Record, error)
	RevealShare(ctx context.Context, id string, index uint8, share field.Scalar, at time.Time) error
}

// ProofRequests reads the proof request an investigation targets.
type ProofRequests interface {
	ProofRequest(ctx context.Context, address string) (proofrequest.ProofRequest, error)
}

// Store mirrors investigations locally.
type Store interface {
	SaveInvestigation(ctx context.Context, rec Record) error
}

type Outbox interface {
	NewEvent(ctx context.Context, eventType string, payload utilities.Serializable) (string, error)
}

// Event is the outbox payload for every investigation event. It never
// carries share values or the reconstructed secret.
type Event struct {
	Type          string `json:"type"`
	Investigation string `json:"investigation"`
	ProofRequest  string `json:"proofRequest"`
	ShareIndex    uint8  `json:"shareIndex,omitempty"`
	Status        Status `json:"status"`
	At            int64  `json:"at"`
}

func (e Event) Serialize() ([]byte, error) {
	return utilities.Serialize(e)
}

type Service struct {
	ledger   Ledger
	requests ProofRequests
	circuits *signals.Registry
	store    Store
	outbox   Outbox
	bj       *babyjub.Context
	log      *logger.Logger
	now      func() time.Time

	mu    sync.RWMutex
	cache map[string]*Request
	locks map[string]*sync.Mutex
}

type Deps struct {
	Ledger        Ledger
	ProofRequests ProofRequests
	Circuits      *signals.Registry
	Store         Store
	Outbox        Outbox
	BabyJub       *babyjub.Context
}

func NewService(d Deps, opts ...func(*Service)) *Service {
	s := &Service{
		ledger:   d.Ledger,
		requests: d.ProofRequests,
		circuits: d.Circuits,
		store:    d.Store,
		outbox:   d.Outbox,
		bj:       d.BabyJub,
		log:      logger.New(),
		now:      func() time.Time { return time.Now().UTC() },
		cache:    map[string]*Request{},
		locks:    map[string]*sync.Mutex{},
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

// Open creates the investigation on the ledger and mirrors it locally.
func (s *Service) Open(ctx context.Context, p OpenParams) (Record, error) {
	if _, err := s.requests.ProofRequest(ctx, p.ProofRequest); err != nil {
		return Record{}, fmt.Errorf("investigation: proof request %s: %w", p.ProofRequest, err)
	}
	r, err := Open(p, s.now())
	if err != nil {
		return Record{}, err
	}
	rec := r.Record()
	if err := s.ledger.CreateInvestigation(ctx, rec); err != nil {
		return Record{}, fmt.Errorf("create investigation %s: %w", r.ID, err)
	}

	s.mu.Lock()
	s.cache[r.ID] = r
	s.mu.Unlock()

	s.persist(ctx, r, EventOpened, 0)
	s.log.Infof("investigation %s opened on %s, %d of %d shares required", r.ID, r.ProofRequest, r.RequiredShareCount, len(p.Trustees))
	return rec, nil
}

// load returns the cached request or rebuilds it from the ledger.
func (s *Service) load(ctx context.Context, id string) (*Request, error) {
	s.mu.RLock()
	r, ok := s.cache[id]
	s.mu.RUnlock()
	if ok {
		return r, nil
	}
	return s.refresh(ctx, id)
}

func (s *Service) refresh(ctx context.Context, id string) (*Request, error) {
	rec, err := s.ledger.Investigation(ctx, id)
	if err != nil {
		return nil, err
	}
	r, err := FromRecord(rec)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	s.cache[id] = r
	s.mu.Unlock()
	return r, nil
}

// lock serializes reveals on one investigation.
func (s *Service) lock(id string) func() {
	s.mu.Lock()
	l, ok := s.locks[id]
	if !ok {
		l = &sync.Mutex{}
		s.locks[id] = l
	}
	s.mu.Unlock()
	l.Lock()
	return l.Unlock
}

// Reveal submits a plaintext share to the ledger. The ledger account is
// authoritative: a share it already holds is never replaced, and the local
// mirror is rebuilt from it after the write.
func (s *Service) Reveal(ctx context.Context, id string, index uint8, share field.Scalar) (bool, error) {
	defer s.lock(id)()

	before, err := s.refresh(ctx, id)
	if err != nil {
		return false, err
	}
	slot, err := before.share(index)
	if err != nil {
		return false, err
	}
	if _, revealed := slot.value(); revealed {
		return false, nil
	}

	now := s.now()
	if err := s.ledger.RevealShare(ctx, id, index, share, now); err != nil {
		return false, fmt.Errorf("reveal share %d of %s: %w", index, id, err)
	}

	r, err := s.refresh(ctx, id)
	if err != nil {
		return false, err
	}
	slot, err = r.share(index)
	if err != nil {
		return false, err
	}
	got, revealed := slot.value()
	switch {
	case !revealed:
		// accepted but not yet visible on the account
		if _, err := r.Reveal(index, share, now); err != nil {
			return false, err
		}
	case !s.bj.Field().Equal(got, share):
		s.log.Warnf("investigation %s: share %d was revealed concurrently, keeping the ledger value", id, index)
		return false, nil
	}
	s.persist(ctx, r, EventShareRevealed, index)
	s.log.Infof("investigation %s: share %d revealed (%d/%d)", id, index, r.RevealedCount(), r.RequiredShareCount)
	return true, nil
}

// RevealFromProof decrypts the trustee's share from the encryptedShare
// output of the investigated proof and reveals it.
func (s *Service) RevealFromProof(ctx context.Context, id string, index uint8, key babyjub.PrivateKey) (bool, error) {
	r, err := s.load(ctx, id)
	if err != nil {
		return false, err
	}
	slot, err := r.share(index)
	if err != nil {
		return false, err
	}
	if !s.bj.Equal(s.bj.PublicKey(key), slot.trustee.PublicKey) {
		return false, reasoncodes.Newf(reasoncodes.UnknownTrustee, strconv.Itoa(int(index)), "key does not match the trustee")
	}
	enc, err := s.encryptedShare(ctx, r, index)
	if err != nil {
		return false, err
	}
	return s.Reveal(ctx, id, index, s.bj.DecryptShare(key, enc))
}

func (s *Service) encryptedShare(ctx context.Context, r *Request, index uint8) (babyjub.EncryptedShare, error) {
	pr, err := s.requests.ProofRequest(ctx, r.ProofRequest)
	if err != nil {
		return babyjub.EncryptedShare{}, err
	}
	circuit, err := s.circuits.Circuit(pr.Circuit)
	if err != nil {
		return babyjub.EncryptedShare{}, err
	}
	encs, err := EncryptedSharesFromSignals(circuit, pr.PublicSignals)
	if err != nil {
		return babyjub.EncryptedShare{}, err
	}
	for row, t := range r.Trustees() {
		if t.Index == index {
			if row >= len(encs) {
				break
			}
			return encs[row], nil
		}
	}
	return babyjub.EncryptedShare{}, reasoncodes.Newf(reasoncodes.UnknownTrustee, strconv.Itoa(int(index)), "proof carries no share for this trustee")
}

// Reconstruct recovers the secret from the ledger's revealed shares.
func (s *Service) Reconstruct(ctx context.Context, id string) (field.Scalar, error) {
	r, err := s.refresh(ctx, id)
	if err != nil {
		return field.Scalar{}, err
	}
	secret, err := r.Reconstruct(s.bj.Field())
	if err != nil {
		return field.Scalar{}, err
	}
	s.persist(ctx, r, EventReconstructed, 0)
	s.log.Infof("investigation %s reconstructed from %d shares", id, r.RevealedCount())
	return secret, nil
}

// Disclose reconstructs the secret and opens the protected payload sealed
// for the investigated proof request.
func (s *Service) Disclose(ctx context.Context, id string, sealed []byte) ([]byte, error) {
	secret, err := s.Reconstruct(ctx, id)
	if err != nil {
		return nil, err
	}
	r, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return payload.Open(s.bj.Field(), secret, sealed, []byte(r.ProofRequest))
}

// Get reads the investigation from the ledger, falling back to the local
// mirror when the ledger cannot be reached.
func (s *Service) Get(ctx context.Context, id string) (Record, error) {
	r, err := s.refresh(ctx, id)
	if err == nil {
		return r.Record(), nil
	}
	if errors.Is(err, ErrNotFound) {
		return Record{}, err
	}
	s.mu.RLock()
	cached, ok := s.cache[id]
	s.mu.RUnlock()
	if !ok {
		return Record{}, err
	}
	s.log.Warnf("investigation %s: serving cached copy, ledger read failed: %v", id, err)
	return cached.Record(), nil
}

// persist mirrors the request into the store and queues an event. Both are
// best effort; the ledger already holds the state.
func (s *Service) persist(ctx context.Context, r *Request, eventType string, index uint8) {
	rec := r.Record()
	if s.store != nil {
		if err := s.store.SaveInvestigation(ctx, rec); err != nil {
			s.log.Errorf(err, "could not save investigation %s", r.ID)
		}
	}
	if s.outbox != nil {
		ev := Event{
			Type:          eventType,
			Investigation: r.ID,
			ProofRequest:  r.ProofRequest,
			ShareIndex:    index,
			Status:        rec.Status,
			At:            s.now().Unix(),
		}
		if _, err := s.outbox.NewEvent(ctx, eventType, ev); err != nil {
			s.log.Errorf(err, "could not queue %s for %s", eventType, r.ID)
		}
	}
}
