package credential_test

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bsc-digital-identity/zk-compliance/pkg/babyjub"
	"github.com/bsc-digital-identity/zk-compliance/pkg/credential"
	reasoncodes "github.com/bsc-digital-identity/zk-compliance/pkg/reason_codes"
)

func sample() credential.Credential {
	return credential.Credential{
		ID:           "urn:uuid:6f1c",
		Issuer:       "did:web:issuer.example",
		Subject:      "did:key:holder",
		IssuanceDate: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		Claims: map[string]any{
			"birthDate": "1990-01-15",
			"country":   "PL",
		},
	}
}

func TestDigestIgnoresKeyOrder(t *testing.T) {
	ctx := babyjub.NewContext()
	a := sample()
	b := sample()
	b.Claims = map[string]any{"country": "PL", "birthDate": "1990-01-15"}

	da, err := a.Digest(ctx.Field())
	require.NoError(t, err)
	db, err := b.Digest(ctx.Field())
	require.NoError(t, err)
	assert.True(t, ctx.Field().Equal(da, db))
}

func TestIssuerProof(t *testing.T) {
	ctx := babyjub.NewContext()
	issuer, err := ctx.GenerateIssuerKey(nil)
	require.NoError(t, err)

	signed, err := credential.Sign(ctx, issuer, sample())
	require.NoError(t, err)
	require.NotNil(t, signed.Proof)
	require.NoError(t, signed.VerifyIssuer(ctx))

	tampered := signed
	tampered.Claims = map[string]any{"birthDate": "2010-01-15", "country": "PL"}
	assert.True(t, errors.Is(tampered.VerifyIssuer(ctx), reasoncodes.ErrInvalidSignature))

	assert.True(t, errors.Is(sample().VerifyIssuer(ctx), reasoncodes.ErrMissingField))
}

func TestEnvelopeRoundTrip(t *testing.T) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	set, ids, err := credential.PublicKeySet(pub)
	require.NoError(t, err)

	compact, err := credential.SealEnvelope(sample(), credential.EnvelopeKey{KeyID: ids[0], Private: priv})
	require.NoError(t, err)

	got, err := credential.OpenEnvelope(compact, set)
	require.NoError(t, err)
	assert.Equal(t, "did:web:issuer.example", got.Issuer)
	assert.Equal(t, "1990-01-15", got.Claims["birthDate"])

	otherPub, _, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	otherSet, _, err := credential.PublicKeySet(otherPub)
	require.NoError(t, err)
	_, err = credential.OpenEnvelope(compact, otherSet)
	assert.Error(t, err)
}

func TestDecodeKeepsNumbersExact(t *testing.T) {
	c, err := credential.Decode([]byte(`{"credentialSubject":{"score":12345678901234567890}}`))
	require.NoError(t, err)
	assert.Equal(t, json.Number("12345678901234567890"), c.Claims["score"])
}
