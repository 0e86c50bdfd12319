package dtocommon

import (
	"fmt"

	"github.com/bsc-digital-identity/zk-compliance/pkg/field"
	reasoncodes "github.com/bsc-digital-identity/zk-compliance/pkg/reason_codes"
)

type CreateProofRequestDto struct {
	Address  string `json:"address"`
	Owner    string `json:"owner"`
	PolicyId string `json:"policy_id"`
}

func (d CreateProofRequestDto) Validate() error {
	switch {
	case d.Address == "":
		return reasoncodes.New(reasoncodes.MissingField, "address")
	case d.PolicyId == "":
		return reasoncodes.New(reasoncodes.MissingField, "policy_id")
	}
	return nil
}

// SubmitProofDto carries a proof blob (base64 in JSON) and its public
// signals as decimal or 0x-prefixed strings.
type SubmitProofDto struct {
	Proof         []byte   `json:"proof"`
	PublicSignals []string `json:"public_signals"`
	Force         bool     `json:"force,omitempty"`
}

func (d SubmitProofDto) ParseSignals(f *field.Field) ([]field.Scalar, error) {
	if len(d.Proof) == 0 {
		return nil, reasoncodes.New(reasoncodes.MissingField, "proof")
	}
	out := make([]field.Scalar, len(d.PublicSignals))
	for i, s := range d.PublicSignals {
		name := fmt.Sprintf("public_signals[%d]", i)
		v, err := parseScalar(f, name, s)
		if err != nil {
			return nil, reasoncodes.Newf(reasoncodes.ErrUnmarshal, name, "%v", err)
		}
		out[i] = v
	}
	return out, nil
}
