// Package credential holds issuer-signed verifiable credentials consumed by
// the proof input builder.
package credential

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"math/big"
	"time"

	"github.com/gowebpki/jcs"

	"github.com/bsc-digital-identity/zk-compliance/pkg/babyjub"
	"github.com/bsc-digital-identity/zk-compliance/pkg/field"
	reasoncodes "github.com/bsc-digital-identity/zk-compliance/pkg/reason_codes"
)

const FormatJwtVcJson = "jwt_vc_json"

// IssuerProof is the in-circuit verifiable signature of the issuer over the
// claims digest.
type IssuerProof struct {
	PublicKey babyjub.Point     `json:"publicKey"`
	Signature babyjub.Signature `json:"signature"`
}

// Credential is immutable once issued: nothing in this module mutates Claims.
type Credential struct {
	ID           string         `json:"id"`
	Issuer       string         `json:"issuer"`
	Subject      string         `json:"subject"`
	IssuanceDate time.Time      `json:"issuanceDate"`
	Claims       map[string]any `json:"credentialSubject"`
	Proof        *IssuerProof   `json:"proof,omitempty"`
}

// Claim returns a claim value and whether it was present.
func (c Credential) Claim(name string) (any, bool) {
	v, ok := c.Claims[name]
	return v, ok
}

// Digest is SHA-256 over the RFC 8785 canonical claims, reduced into f.
func (c Credential) Digest(f *field.Field) (field.Scalar, error) {
	raw, err := json.Marshal(c.Claims)
	if err != nil {
		return field.Scalar{}, fmt.Errorf("credential: marshal claims: %w", err)
	}
	canonical, err := jcs.Transform(raw)
	if err != nil {
		return field.Scalar{}, fmt.Errorf("credential: canonicalize claims: %w", err)
	}
	sum := sha256.Sum256(canonical)
	return f.Mod(new(big.Int).SetBytes(sum[:])), nil
}

// Sign returns a copy of c carrying an issuer proof over its digest.
func Sign(ctx *babyjub.Context, key babyjub.IssuerKey, c Credential) (Credential, error) {
	digest, err := c.Digest(ctx.Field())
	if err != nil {
		return Credential{}, err
	}
	sig, err := ctx.Sign(key, digest)
	if err != nil {
		return Credential{}, err
	}
	c.Proof = &IssuerProof{PublicKey: ctx.IssuerPublicKey(key), Signature: sig}
	return c, nil
}

// VerifyIssuer checks the issuer proof against the current claims.
func (c Credential) VerifyIssuer(ctx *babyjub.Context) error {
	if c.Proof == nil {
		return reasoncodes.New(reasoncodes.MissingField, "proof")
	}
	digest, err := c.Digest(ctx.Field())
	if err != nil {
		return err
	}
	return ctx.Verify(c.Proof.PublicKey, digest, c.Proof.Signature)
}
