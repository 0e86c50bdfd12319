package zkp

import (
	"bytes"
	"context"
	"fmt"

	"github.com/consensys/gnark/backend/groth16"
	"github.com/consensys/gnark/frontend"

	"github.com/bsc-digital-identity/zk-compliance/pkg/field"
	"github.com/bsc-digital-identity/zk-compliance/pkg/logger"
)

// Verifier checks borsh proof blobs against serialized groth16 verifying
// keys. The public witness is rebuilt from the supplied public signals, so
// the witness embedded in the blob is never trusted.
type Verifier struct {
	log *logger.Logger
}

func NewVerifier(log *logger.Logger) Verifier {
	if log == nil {
		log = logger.New()
	}
	return Verifier{log: log}
}

// publicAssignment only carries public values; its secret slice stays empty.
func publicAssignment(pub []field.Scalar) *DynamicCircuit {
	dc := &DynamicCircuit{PublicValues: make([]frontend.Variable, len(pub))}
	for i, v := range pub {
		dc.PublicValues[i] = v.BigInt()
	}
	return dc
}

// Verify returns false with a nil error for a well formed proof that does
// not verify. Undecodable keys or blobs are errors.
func (v Verifier) Verify(ctx context.Context, verifyingKey []byte, proof []byte, pub []field.Scalar) (bool, error) {
	if len(verifyingKey) == 0 {
		return false, fmt.Errorf("empty verifying key bytes")
	}
	vk := groth16.NewVerifyingKey(ElipticalCurveID)
	if _, err := vk.ReadFrom(bytes.NewReader(verifyingKey)); err != nil {
		return false, fmt.Errorf("read vk: %w", err)
	}
	if n := vk.NbPublicWitness(); n != len(pub) {
		v.log.Warnf("public signal count %d does not match verifying key (%d)", len(pub), n)
		return false, nil
	}

	result, err := ReconstructZkpResult(proof)
	if err != nil {
		return false, err
	}
	publicWitness, err := frontend.NewWitness(publicAssignment(pub), ElipticalCurveID.ScalarField(), frontend.PublicOnly())
	if err != nil {
		return false, fmt.Errorf("public witness: %w", err)
	}

	if err := ctx.Err(); err != nil {
		return false, err
	}
	if err := groth16.Verify(result.Proof, vk, publicWitness); err != nil {
		v.log.Debugf("groth16 verify: %v", err)
		return false, nil
	}
	return true, nil
}
