package babyjub

import (
	"crypto/rand"
	"fmt"
	"io"
	"math/big"

	"github.com/consensys/gnark-crypto/ecc/bn254/twistededwards/eddsa"

	"github.com/bsc-digital-identity/zk-compliance/pkg/field"
	reasoncodes "github.com/bsc-digital-identity/zk-compliance/pkg/reason_codes"
)

// PrivateKey is a scalar of the prime subgroup. Holders use it as the
// userPrivateKey circuit input and trustees as their share decryption key.
type PrivateKey struct {
	k *big.Int
}

func (c *Context) GenerateKey(rnd io.Reader) (PrivateKey, error) {
	k, err := c.randomScalar(rnd)
	if err != nil {
		return PrivateKey{}, err
	}
	return PrivateKey{k: k}, nil
}

func (c *Context) PrivateKeyFromScalar(s field.Scalar) (PrivateKey, error) {
	k := s.BigInt()
	if k.Sign() == 0 || k.Cmp(&c.curve.Order) >= 0 {
		return PrivateKey{}, fmt.Errorf("babyjub: private key out of range")
	}
	return PrivateKey{k: k}, nil
}

func (c *Context) PublicKey(priv PrivateKey) Point {
	return c.ScalarMul(c.Base(), priv.k)
}

func (c *Context) Scalar(priv PrivateKey) field.Scalar {
	return c.field.FromBigInt(priv.k)
}

// Signature is an EdDSA signature (R8, S) over a single field element message.
type Signature struct {
	R8 Point        `json:"r8"`
	S  field.Scalar `json:"s"`
}

func (s Signature) Elements() []field.Scalar {
	return []field.Scalar{s.R8.X, s.R8.Y, s.S}
}

// IssuerKey signs credential digests.
type IssuerKey struct {
	key *eddsa.PrivateKey
}

func (c *Context) GenerateIssuerKey(rnd io.Reader) (IssuerKey, error) {
	if rnd == nil {
		rnd = rand.Reader
	}
	key, err := eddsa.GenerateKey(rnd)
	if err != nil {
		return IssuerKey{}, fmt.Errorf("babyjub: generate issuer key: %w", err)
	}
	return IssuerKey{key: key}, nil
}

func (c *Context) IssuerPublicKey(k IssuerKey) Point {
	return c.fromAffine(&k.key.PublicKey.A)
}

func (c *Context) Sign(k IssuerKey, msg field.Scalar) (Signature, error) {
	m := field.ToFr(msg)
	mb := m.Bytes()
	raw, err := k.key.Sign(mb[:], c.NewHash())
	if err != nil {
		return Signature{}, fmt.Errorf("babyjub: sign: %w", err)
	}
	var sig eddsa.Signature
	if _, err := sig.SetBytes(raw); err != nil {
		return Signature{}, fmt.Errorf("babyjub: decode signature: %w", err)
	}
	return Signature{
		R8: c.fromAffine(&sig.R),
		S:  c.field.FromBigInt(new(big.Int).SetBytes(sig.S[:])),
	}, nil
}

// Verify checks sig over msg for the issuer public key pub.
func (c *Context) Verify(pub Point, msg field.Scalar, sig Signature) error {
	if !c.IsOnCurve(pub) || !c.IsOnCurve(sig.R8) {
		return reasoncodes.Newf(reasoncodes.InvalidSignature, "issuerPk", "point not on curve")
	}
	var es eddsa.Signature
	es.R = c.toAffine(sig.R8)
	sBytes, err := c.field.ToBytes(sig.S, field.BigEndian, len(es.S))
	if err != nil {
		return reasoncodes.Newf(reasoncodes.InvalidSignature, "issuerSignature", "%v", err)
	}
	copy(es.S[:], sBytes)

	pk := eddsa.PublicKey{A: c.toAffine(pub)}
	m := field.ToFr(msg)
	mb := m.Bytes()
	ok, err := pk.Verify(es.Bytes(), mb[:], c.NewHash())
	if err != nil {
		return reasoncodes.Newf(reasoncodes.InvalidSignature, "issuerSignature", "%v", err)
	}
	if !ok {
		return reasoncodes.New(reasoncodes.InvalidSignature, "issuerSignature")
	}
	return nil
}
