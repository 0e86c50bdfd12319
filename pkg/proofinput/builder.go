// Package proofinput assembles the exact named and shaped signal layout a
// circuit expects from a credential, a policy, trustee keys and a timestamp.
package proofinput

import (
	"fmt"

	"github.com/bsc-digital-identity/zk-compliance/pkg/babyjub"
	"github.com/bsc-digital-identity/zk-compliance/pkg/credential"
	"github.com/bsc-digital-identity/zk-compliance/pkg/policy"
	reasoncodes "github.com/bsc-digital-identity/zk-compliance/pkg/reason_codes"
	"github.com/bsc-digital-identity/zk-compliance/pkg/signals"
	"github.com/bsc-digital-identity/zk-compliance/pkg/utilities/timeutil"
)

// Reserved signal names filled from builder state rather than claims.
const (
	SignalCurrentDate      = "currentDate"
	SignalTimestamp        = "timestamp"
	SignalUserPrivateKey   = "userPrivateKey"
	SignalTrusteePublicKey = "trusteePublicKey"
	SignalIssuerPk         = "issuerPk"
	SignalIssuerSignature  = "issuerSignature"
)

// Builder is an immutable accumulator: every With method returns a new
// Builder and leaves the receiver untouched.
type Builder struct {
	ctx        *babyjub.Context
	credential *credential.Credential
	userKey    *babyjub.PrivateKey
	trustees   []babyjub.Point
	policy     *policy.Policy
	timestamp  *timeutil.TimeUTC
	circuit    *signals.Circuit
	now        func() timeutil.TimeUTC
}

func New(ctx *babyjub.Context) Builder {
	return Builder{ctx: ctx, now: timeutil.NowUTC}
}

func (b Builder) WithCredential(c credential.Credential) Builder {
	b.credential = &c
	return b
}

func (b Builder) WithUserPrivateKey(k babyjub.PrivateKey) Builder {
	b.userKey = &k
	return b
}

func (b Builder) WithTrusteePublicKey(points []babyjub.Point) Builder {
	b.trustees = append([]babyjub.Point(nil), points...)
	return b
}

func (b Builder) WithPolicy(p policy.Policy) Builder {
	b.policy = &p
	return b
}

// WithTimestamp pins the reference time, the Unix epoch included; without it
// Build uses the wall clock.
func (b Builder) WithTimestamp(ts timeutil.TimeUTC) Builder {
	b.timestamp = &ts
	return b
}

func (b Builder) WithCircuit(c signals.Circuit) Builder {
	b.circuit = &c
	return b
}

// Build resolves every declared signal. It never returns a partial Input.
func (b Builder) Build() (Input, error) {
	if b.ctx == nil {
		return Input{}, fmt.Errorf("proofinput: builder has no babyjub context")
	}
	if b.circuit == nil {
		return Input{}, reasoncodes.New(reasoncodes.MissingField, "circuit")
	}

	var ts timeutil.TimeUTC
	if b.timestamp != nil {
		ts = *b.timestamp
	} else {
		ts = b.now()
	}

	a := assembler{Builder: b, ts: ts, f: b.ctx.Field()}
	data := make(map[string]Value)
	for _, group := range []struct {
		kind signals.SignalKind
		sigs []signals.Signal
	}{
		{signals.Private, b.circuit.PrivateSignals},
		{signals.Public, b.circuit.PublicSignals},
		{signals.Output, b.circuit.OutputSignals},
	} {
		for _, sig := range group.sigs {
			v, ok, err := a.resolve(sig)
			if err != nil {
				return Input{}, err
			}
			if !ok {
				if group.kind == signals.Output {
					continue
				}
				return Input{}, reasoncodes.Newf(reasoncodes.MissingField, sig.Name, "not supplied by policy, builder or credential")
			}
			data[sig.Name] = v
		}
	}

	return Input{CircuitID: b.circuit.ID, Data: data, declared: b.circuit.Declared()}, nil
}
