package ledger

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/near/borsh-go"

	"github.com/bsc-digital-identity/zk-compliance/pkg/field"
	"github.com/bsc-digital-identity/zk-compliance/pkg/investigation"
	"github.com/bsc-digital-identity/zk-compliance/pkg/logger"
	"github.com/bsc-digital-identity/zk-compliance/pkg/proofrequest"
	reasoncodes "github.com/bsc-digital-identity/zk-compliance/pkg/reason_codes"
)

// RPC is the part of the solana rpc client the adapter uses.
type RPC interface {
	GetAccountInfo(ctx context.Context, account solana.PublicKey) (*rpc.GetAccountInfoResult, error)
	GetLatestBlockhash(ctx context.Context, commitment rpc.CommitmentType) (*rpc.GetLatestBlockhashResult, error)
	SendTransactionWithOpts(ctx context.Context, tx *solana.Transaction, opts rpc.TransactionOpts) (solana.Signature, error)
}

// Solana reads accounts of the compliance program and submits its
// instructions. Proof request addresses are base58 account keys;
// investigation accounts live at a PDA derived from the investigation id.
type Solana struct {
	rpc   RPC
	cfg   SolanaConfig
	codec codec
	log   *logger.Logger
}

func NewSolana(client RPC, cfg SolanaConfig, f *field.Field, log *logger.Logger) *Solana {
	if log == nil {
		log = logger.New()
	}
	return &Solana{rpc: client, cfg: cfg, codec: codec{f: f}, log: log}
}

// DialSolana connects to the configured rpc endpoint.
func DialSolana(cfg SolanaConfig, f *field.Field, log *logger.Logger) *Solana {
	return NewSolana(rpc.New(cfg.RpcUrl), cfg, f, log)
}

// InvestigationAddress hashes the id since seeds are capped at 32 bytes.
func (s *Solana) InvestigationAddress(id string) (solana.PublicKey, error) {
	seed := sha256.Sum256([]byte(id))
	addr, _, err := solana.FindProgramAddress([][]byte{[]byte("investigation"), seed[:]}, s.cfg.ProgramID)
	return addr, err
}

func (s *Solana) account(ctx context.Context, key solana.PublicKey, notFound error) ([]byte, error) {
	res, err := s.rpc.GetAccountInfo(ctx, key)
	if errors.Is(err, rpc.ErrNotFound) || (err == nil && (res == nil || res.Value == nil)) {
		return nil, fmt.Errorf("ledger: %s: %w", key, notFound)
	}
	if err != nil {
		return nil, fmt.Errorf("ledger: GetAccountInfo(%s): %w", key, err)
	}
	return res.Value.Data.GetBinary(), nil
}

func (s *Solana) send(ctx context.Context, data []byte, accounts ...*solana.AccountMeta) (solana.Signature, error) {
	payer := s.cfg.Payer.PublicKey()
	metas := append([]*solana.AccountMeta{solana.NewAccountMeta(payer, true, true)}, accounts...)
	metas = append(metas, solana.NewAccountMeta(solana.SystemProgramID, false, false))
	ix := solana.NewInstruction(s.cfg.ProgramID, metas, data)

	latest, err := s.rpc.GetLatestBlockhash(ctx, s.cfg.Commitment)
	if err != nil {
		return solana.Signature{}, reasoncodes.Newf(reasoncodes.ErrSolana, "blockhash", "%v", err)
	}
	tx, err := solana.NewTransaction([]solana.Instruction{ix}, latest.Value.Blockhash, solana.TransactionPayer(payer))
	if err != nil {
		return solana.Signature{}, err
	}
	_, err = tx.Sign(func(pk solana.PublicKey) *solana.PrivateKey {
		if pk.Equals(payer) {
			return &s.cfg.Payer
		}
		return nil
	})
	if err != nil {
		return solana.Signature{}, err
	}

	sig, err := s.rpc.SendTransactionWithOpts(ctx, tx, rpc.TransactionOpts{
		SkipPreflight:       false,
		PreflightCommitment: s.cfg.Commitment,
	})
	if err != nil {
		s.log.Errorf(err, "failed to send instruction %d", data[0])
		return solana.Signature{}, reasoncodes.Newf(reasoncodes.ErrSolana, fmt.Sprintf("instruction %d", data[0]), "send transaction: %v", err)
	}
	s.log.Debugf("sent instruction %d: %s", data[0], sig)
	return sig, nil
}

func (s *Solana) proofRequestKey(address string) (solana.PublicKey, error) {
	key, err := solana.PublicKeyFromBase58(address)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("ledger: invalid proof request address %q: %w", address, err)
	}
	return key, nil
}

func (s *Solana) CreateProofRequest(ctx context.Context, req proofrequest.ProofRequest) error {
	key, err := s.proofRequestKey(req.Address)
	if err != nil {
		return err
	}
	data, err := borsh.Serialize(createProofRequestIx{
		Tag:             ixCreateProofRequest,
		ServiceProvider: req.ServiceProvider,
		Policy:          req.Policy,
		Circuit:         req.Circuit,
		Owner:           req.Owner,
		CreatedAt:       unix(req.CreatedAt),
		ExpiredAt:       unix(req.ExpiredAt),
	})
	if err != nil {
		return err
	}
	_, err = s.send(ctx, data, solana.NewAccountMeta(key, true, false))
	return err
}

func (s *Solana) ProofRequest(ctx context.Context, address string) (proofrequest.ProofRequest, error) {
	key, err := s.proofRequestKey(address)
	if err != nil {
		return proofrequest.ProofRequest{}, err
	}
	data, err := s.account(ctx, key, proofrequest.ErrNotFound)
	if err != nil {
		return proofrequest.ProofRequest{}, err
	}
	return s.codec.decodeProofRequest(address, data)
}

func (s *Solana) SubmitProof(ctx context.Context, address string, proof []byte, publicSignals []field.Scalar, force bool) error {
	key, err := s.proofRequestKey(address)
	if err != nil {
		return err
	}
	data, err := borsh.Serialize(submitProofIx{
		Tag:           ixSubmitProof,
		Force:         force,
		Proof:         proof,
		PublicSignals: s.codec.words(publicSignals),
	})
	if err != nil {
		return err
	}
	_, err = s.send(ctx, data, solana.NewAccountMeta(key, true, false))
	return err
}

// SubmitVerification passes the local verdict; the program re-checks the
// proof and its own verdict is what the account records.
func (s *Solana) SubmitVerification(ctx context.Context, address string, verified bool) error {
	key, err := s.proofRequestKey(address)
	if err != nil {
		return err
	}
	data, err := borsh.Serialize(submitVerificationIx{Tag: ixSubmitVerification, Verified: verified})
	if err != nil {
		return err
	}
	_, err = s.send(ctx, data, solana.NewAccountMeta(key, true, false))
	return err
}

func (s *Solana) CreateInvestigation(ctx context.Context, rec investigation.Record) error {
	prKey, err := s.proofRequestKey(rec.ProofRequest)
	if err != nil {
		return err
	}
	invKey, err := s.InvestigationAddress(rec.ID)
	if err != nil {
		return err
	}
	ix := createInvestigationIx{
		Tag:                ixCreateInvestigation,
		ID:                 rec.ID,
		Authority:          rec.Authority,
		RequiredShareCount: rec.RequiredShareCount,
		CreatedAt:          unix(rec.CreatedAt),
		Trustees:           make([]trusteeArg, len(rec.SecretShares)),
	}
	for i, sh := range rec.SecretShares {
		ix.Trustees[i] = trusteeArg{Index: sh.Index, X: s.codec.word(sh.Trustee.X), Y: s.codec.word(sh.Trustee.Y)}
	}
	data, err := borsh.Serialize(ix)
	if err != nil {
		return err
	}
	_, err = s.send(ctx, data,
		solana.NewAccountMeta(invKey, true, false),
		solana.NewAccountMeta(prKey, false, false))
	return err
}

func (s *Solana) Investigation(ctx context.Context, id string) (investigation.Record, error) {
	key, err := s.InvestigationAddress(id)
	if err != nil {
		return investigation.Record{}, err
	}
	data, err := s.account(ctx, key, investigation.ErrNotFound)
	if err != nil {
		return investigation.Record{}, err
	}
	return s.codec.decodeInvestigation(data)
}

func (s *Solana) RevealShare(ctx context.Context, id string, index uint8, share field.Scalar, at time.Time) error {
	key, err := s.InvestigationAddress(id)
	if err != nil {
		return err
	}
	data, err := borsh.Serialize(revealShareIx{
		Tag:   ixRevealShare,
		Index: index,
		Share: s.codec.word(share),
		At:    unix(at),
	})
	if err != nil {
		return err
	}
	_, err = s.send(ctx, data, solana.NewAccountMeta(key, true, false))
	return err
}
