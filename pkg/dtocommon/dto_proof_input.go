package dtocommon

import (
	"bytes"
	"encoding/json"
	"errors"

	"github.com/lestrrat-go/jwx/v2/jwk"

	"github.com/bsc-digital-identity/zk-compliance/pkg/babyjub"
	"github.com/bsc-digital-identity/zk-compliance/pkg/credential"
	reasoncodes "github.com/bsc-digital-identity/zk-compliance/pkg/reason_codes"
)

// ProofInputRequestDto asks the node to assemble a prover input. Credential
// is either the credential JSON or a jwt_vc_json compact JWS string.
type ProofInputRequestDto struct {
	CircuitId      string          `json:"circuit_id"`
	PolicyId       string          `json:"policy_id"`
	Credential     json.RawMessage `json:"credential"`
	UserPrivateKey string          `json:"user_private_key,omitempty"`
	Trustees       []PointDto      `json:"trustees,omitempty"`
	Timestamp      int64           `json:"timestamp,omitempty"`
}

var ErrNoEnvelopeKeys = errors.New("no issuer envelope keys configured")

func (d ProofInputRequestDto) ParseCredential(keys jwk.Set) (credential.Credential, error) {
	raw := bytes.TrimSpace(d.Credential)
	if len(raw) == 0 {
		return credential.Credential{}, reasoncodes.New(reasoncodes.MissingField, "credential")
	}
	if raw[0] != '"' {
		c, err := credential.Decode(raw)
		if err != nil {
			return credential.Credential{}, reasoncodes.Newf(reasoncodes.ErrUnmarshal, "credential", "%v", err)
		}
		return c, nil
	}

	var compact string
	if err := json.Unmarshal(raw, &compact); err != nil {
		return credential.Credential{}, reasoncodes.Newf(reasoncodes.ErrUnmarshal, "credential", "%v", err)
	}
	if keys == nil || keys.Len() == 0 {
		return credential.Credential{}, ErrNoEnvelopeKeys
	}
	c, err := credential.OpenEnvelope([]byte(compact), keys)
	if err != nil {
		return credential.Credential{}, reasoncodes.Newf(reasoncodes.InvalidSignature, "credential", "%v", err)
	}
	return c, nil
}

func (d ProofInputRequestDto) ParseTrustees(ctx *babyjub.Context) ([]babyjub.Point, error) {
	out := make([]babyjub.Point, 0, len(d.Trustees))
	for _, t := range d.Trustees {
		p, err := t.ToPoint(ctx)
		if err != nil {
			return nil, reasoncodes.Newf(reasoncodes.ErrUnmarshal, "trustees", "%v", err)
		}
		out = append(out, p)
	}
	return out, nil
}

func (d ProofInputRequestDto) ParseUserKey(ctx *babyjub.Context) (*babyjub.PrivateKey, error) {
	if d.UserPrivateKey == "" {
		return nil, nil
	}
	s, err := parseScalar(ctx.Field(), "user_private_key", d.UserPrivateKey)
	if err != nil {
		return nil, reasoncodes.Newf(reasoncodes.ErrUnmarshal, "user_private_key", "%v", err)
	}
	k, err := ctx.PrivateKeyFromScalar(s)
	if err != nil {
		return nil, reasoncodes.Newf(reasoncodes.ErrUnmarshal, "user_private_key", "%v", err)
	}
	return &k, nil
}

type VerifyResponseDto struct {
	Address  string `json:"address"`
	Status   string `json:"status"`
	Local    string `json:"local"`
	Diverged bool   `json:"diverged"`
}
