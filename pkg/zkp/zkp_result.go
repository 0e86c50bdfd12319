package zkp

import (
	"bytes"
	"fmt"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark/backend/groth16"
	"github.com/consensys/gnark/backend/witness"
	"github.com/near/borsh-go"
)

const ElipticalCurveID = ecc.BN254

// ZkpResult is a groth16 proof with the public witness it was produced for.
// Its borsh encoding is the proof blob stored on the ledger.
type ZkpResult struct {
	Proof         groth16.Proof
	PublicWitness witness.Witness
}

type intermediateSerializationStep struct {
	Proof         []byte `borsh:"proof"`
	PublicWitness []byte `borsh:"public_witness"`
}

func (zr *ZkpResult) SerializeBorsh() ([]byte, error) {
	var proofBuf bytes.Buffer
	if _, err := zr.Proof.WriteTo(&proofBuf); err != nil {
		return nil, fmt.Errorf("write proof: %w", err)
	}

	var witnessBuf bytes.Buffer
	if _, err := zr.PublicWitness.WriteTo(&witnessBuf); err != nil {
		return nil, fmt.Errorf("write public witness: %w", err)
	}

	return borsh.Serialize(intermediateSerializationStep{
		Proof:         proofBuf.Bytes(),
		PublicWitness: witnessBuf.Bytes(),
	})
}

func ReconstructZkpResult(serializedZkp []byte) (*ZkpResult, error) {
	var deserialized intermediateSerializationStep
	if err := borsh.Deserialize(&deserialized, serializedZkp); err != nil {
		return nil, fmt.Errorf("decode proof blob: %w", err)
	}

	proof := groth16.NewProof(ElipticalCurveID)
	if _, err := proof.ReadFrom(bytes.NewReader(deserialized.Proof)); err != nil {
		return nil, fmt.Errorf("read proof: %w", err)
	}

	w, err := witness.New(ElipticalCurveID.ScalarField())
	if err != nil {
		return nil, err
	}
	if _, err := w.ReadFrom(bytes.NewReader(deserialized.PublicWitness)); err != nil {
		return nil, fmt.Errorf("read public witness: %w", err)
	}

	return &ZkpResult{Proof: proof, PublicWitness: w}, nil
}
