package credential

import (
	"bytes"
	"crypto/ed25519"
	"encoding/json"
	"fmt"

	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwk"
	"github.com/lestrrat-go/jwx/v2/jws"
)

// EnvelopeKey signs jwt_vc_json envelopes.
type EnvelopeKey struct {
	KeyID   string
	Private ed25519.PrivateKey
}

// PublicKeySet builds the verifier key set published by an issuer.
func PublicKeySet(pubs ...ed25519.PublicKey) (jwk.Set, []string, error) {
	set := jwk.NewSet()
	ids := make([]string, 0, len(pubs))
	for _, pub := range pubs {
		k, err := jwk.FromRaw(pub)
		if err != nil {
			return nil, nil, fmt.Errorf("credential: jwk from raw: %w", err)
		}
		if err := jwk.AssignKeyID(k); err != nil {
			return nil, nil, fmt.Errorf("credential: assign kid: %w", err)
		}
		if err := k.Set(jwk.AlgorithmKey, jwa.EdDSA); err != nil {
			return nil, nil, fmt.Errorf("credential: set alg: %w", err)
		}
		if err := set.AddKey(k); err != nil {
			return nil, nil, fmt.Errorf("credential: add key: %w", err)
		}
		ids = append(ids, k.KeyID())
	}
	return set, ids, nil
}

// SealEnvelope signs the JSON credential as a compact JWS.
func SealEnvelope(c Credential, key EnvelopeKey) ([]byte, error) {
	payload, err := json.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("credential: marshal: %w", err)
	}

	hdr := jws.NewHeaders()
	_ = hdr.Set(jws.AlgorithmKey, jwa.EdDSA)
	_ = hdr.Set(jws.KeyIDKey, key.KeyID)
	_ = hdr.Set("typ", "vc+jwt")

	signed, err := jws.Sign(payload, jws.WithKey(jwa.EdDSA, key.Private, jws.WithProtectedHeaders(hdr)))
	if err != nil {
		return nil, fmt.Errorf("credential: sign envelope: %w", err)
	}
	return signed, nil
}

// OpenEnvelope verifies a compact JWS against the issuer key set and decodes
// the credential. Numeric claims decode as json.Number.
func OpenEnvelope(compact []byte, keys jwk.Set) (Credential, error) {
	payload, err := jws.Verify(compact, jws.WithKeySet(keys))
	if err != nil {
		return Credential{}, fmt.Errorf("credential: verify envelope: %w", err)
	}
	return Decode(payload)
}

// Decode parses a JSON credential keeping numbers exact.
func Decode(raw []byte) (Credential, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var c Credential
	if err := dec.Decode(&c); err != nil {
		return Credential{}, fmt.Errorf("credential: decode: %w", err)
	}
	return c, nil
}
