package dtocommon

import (
	"fmt"

	"github.com/bsc-digital-identity/zk-compliance/pkg/babyjub"
	"github.com/bsc-digital-identity/zk-compliance/pkg/field"
	"github.com/bsc-digital-identity/zk-compliance/pkg/investigation"
	reasoncodes "github.com/bsc-digital-identity/zk-compliance/pkg/reason_codes"
	"github.com/bsc-digital-identity/zk-compliance/pkg/utilities"
)

type TrusteeDto struct {
	Index     uint8    `json:"index"`
	PublicKey PointDto `json:"public_key"`
}

type OpenInvestigationDto struct {
	Authority          string       `json:"authority"`
	ProofRequest       string       `json:"proof_request"`
	Owner              string       `json:"owner"`
	Trustees           []TrusteeDto `json:"trustees"`
	RequiredShareCount uint8        `json:"required_share_count"`
}

func (d OpenInvestigationDto) ToParams(ctx *babyjub.Context) (investigation.OpenParams, error) {
	p := investigation.OpenParams{
		Authority:          d.Authority,
		ProofRequest:       d.ProofRequest,
		Owner:              d.Owner,
		RequiredShareCount: d.RequiredShareCount,
	}
	for _, t := range d.Trustees {
		pk, err := t.PublicKey.ToPoint(ctx)
		if err != nil {
			return investigation.OpenParams{}, reasoncodes.Newf(reasoncodes.ErrUnmarshal, fmt.Sprintf("trustees[%d]", t.Index), "%v", err)
		}
		p.Trustees = append(p.Trustees, investigation.Trustee{PublicKey: pk, Index: t.Index})
	}
	return p, nil
}

// ShareRevealDto carries one trustee's share, either in the clear or as the
// trustee's key so the node can decrypt the share from the proof.
type ShareRevealDto struct {
	EventId       string `json:"event_id,omitempty"`
	Investigation string `json:"investigation,omitempty"`
	ShareIndex    uint8  `json:"share_index"`
	Share         string `json:"share,omitempty"`
	TrusteeKey    string `json:"trustee_key,omitempty"`
}

func (d ShareRevealDto) Serialize() ([]byte, error) {
	return utilities.Serialize(d)
}

// Parse returns either the share or the trustee key; exactly one must be set.
func (d ShareRevealDto) Parse(ctx *babyjub.Context) (share *field.Scalar, key *babyjub.PrivateKey, err error) {
	switch {
	case d.Share != "" && d.TrusteeKey != "":
		return nil, nil, reasoncodes.Newf(reasoncodes.ErrUnmarshal, "share", "share and trustee_key are exclusive")
	case d.Share != "":
		v, err := parseScalar(ctx.Field(), "share", d.Share)
		if err != nil {
			return nil, nil, reasoncodes.Newf(reasoncodes.ErrUnmarshal, "share", "%v", err)
		}
		return &v, nil, nil
	case d.TrusteeKey != "":
		s, err := parseScalar(ctx.Field(), "trustee_key", d.TrusteeKey)
		if err != nil {
			return nil, nil, reasoncodes.Newf(reasoncodes.ErrUnmarshal, "trustee_key", "%v", err)
		}
		k, err := ctx.PrivateKeyFromScalar(s)
		if err != nil {
			return nil, nil, reasoncodes.Newf(reasoncodes.ErrUnmarshal, "trustee_key", "%v", err)
		}
		return nil, &k, nil
	}
	return nil, nil, reasoncodes.New(reasoncodes.MissingField, "share")
}

type ShareRevealResultDto struct {
	EventId       string                 `json:"event_id,omitempty"`
	Investigation string                 `json:"investigation"`
	ShareIndex    uint8                  `json:"share_index"`
	Changed       bool                   `json:"changed"`
	Status        string                 `json:"status,omitempty"`
	Error         string                 `json:"error,omitempty"`
	ReasonCode    reasoncodes.ReasonCode `json:"reason_code,omitempty"`
}

func (r ShareRevealResultDto) Serialize() ([]byte, error) {
	return utilities.Serialize(r)
}

func (r ShareRevealResultDto) MessageType() string { return "investigation.share_reveal_result" }

type ReconstructRequestDto struct {
	SealedPayload []byte `json:"sealed_payload,omitempty"`
}

type ReconstructResponseDto struct {
	Investigation string `json:"investigation"`
	Secret        string `json:"secret,omitempty"`
	Payload       []byte `json:"payload,omitempty"`
}
