// Package reveal applies trustee share reveals arriving over REST or the
// message bus.
package reveal

import (
	"context"

	"github.com/bsc-digital-identity/zk-compliance/pkg/babyjub"
	"github.com/bsc-digital-identity/zk-compliance/pkg/dtocommon"
	"github.com/bsc-digital-identity/zk-compliance/pkg/field"
	"github.com/bsc-digital-identity/zk-compliance/pkg/investigation"
	reasoncodes "github.com/bsc-digital-identity/zk-compliance/pkg/reason_codes"
)

// Investigations is the part of investigation.Service a reveal needs.
type Investigations interface {
	Reveal(ctx context.Context, id string, index uint8, share field.Scalar) (bool, error)
	RevealFromProof(ctx context.Context, id string, index uint8, key babyjub.PrivateKey) (bool, error)
	Get(ctx context.Context, id string) (investigation.Record, error)
}

var _ Investigations = (*investigation.Service)(nil)

// Apply reveals the share d describes for investigation id. A plain share
// is revealed as is; a trustee key decrypts the share from the proof.
func Apply(ctx context.Context, svc Investigations, bj *babyjub.Context, id string, d dtocommon.ShareRevealDto) (dtocommon.ShareRevealResultDto, error) {
	res := dtocommon.ShareRevealResultDto{EventId: d.EventId, Investigation: id, ShareIndex: d.ShareIndex}
	if id == "" {
		return res, reasoncodes.New(reasoncodes.MissingField, "investigation")
	}

	share, key, err := d.Parse(bj)
	if err != nil {
		return res, err
	}
	if share != nil {
		res.Changed, err = svc.Reveal(ctx, id, d.ShareIndex, *share)
	} else {
		res.Changed, err = svc.RevealFromProof(ctx, id, d.ShareIndex, *key)
	}
	if err != nil {
		return res, err
	}

	rec, err := svc.Get(ctx, id)
	if err != nil {
		return res, err
	}
	res.Status = rec.Status.String()
	return res, nil
}

// Failed fills the error fields of a result.
func Failed(res dtocommon.ShareRevealResultDto, err error) dtocommon.ShareRevealResultDto {
	res.Error = err.Error()
	res.ReasonCode = reasoncodes.CodeOf(err)
	return res
}
