package artifacts

import (
	"bytes"
	"context"
	"fmt"

	"github.com/bsc-digital-identity/zk-compliance/pkg/signals"
	"github.com/bsc-digital-identity/zk-compliance/pkg/zkp"
)

type CircuitSourceJson struct {
	ID            string `json:"id"`
	Symbols       string `json:"symbols"`
	Outputs       int    `json:"n_outputs"`
	PublicInputs  int    `json:"n_public_inputs"`
	PrivateInputs int    `json:"n_private_inputs"`
	ProvingKey    string `json:"proving_key,omitempty"`
	VerifyingKey  string `json:"verifying_key"`
	Constraints   string `json:"constraints,omitempty"`
}

// CircuitSource locates the artifacts of one circuit. ProvingKey and
// Constraints may be empty on nodes that only verify.
type CircuitSource struct {
	ID           string
	Symbols      string
	Counts       signals.Counts
	ProvingKey   string
	VerifyingKey string
	Constraints  string
}

func (j CircuitSourceJson) ConvertToDomain() CircuitSource {
	return CircuitSource{
		ID:      j.ID,
		Symbols: j.Symbols,
		Counts: signals.Counts{
			Outputs:       j.Outputs,
			PublicInputs:  j.PublicInputs,
			PrivateInputs: j.PrivateInputs,
		},
		ProvingKey:   j.ProvingKey,
		VerifyingKey: j.VerifyingKey,
		Constraints:  j.Constraints,
	}
}

// LoadCircuit fetches and assembles the artifacts described by src.
func (f *Fetcher) LoadCircuit(ctx context.Context, src CircuitSource) (zkp.CircuitArtifacts, error) {
	syms, err := f.Fetch(ctx, src.Symbols)
	if err != nil {
		return zkp.CircuitArtifacts{}, err
	}
	vk, err := f.Fetch(ctx, src.VerifyingKey)
	if err != nil {
		return zkp.CircuitArtifacts{}, err
	}
	circuit, err := signals.CircuitFromSymbols(src.ID, bytes.NewReader(syms), src.Counts, vk)
	if err != nil {
		return zkp.CircuitArtifacts{}, err
	}

	a := zkp.CircuitArtifacts{Circuit: circuit, VerifyingKey: vk}
	if src.ProvingKey != "" {
		if a.ProvingKey, err = f.Fetch(ctx, src.ProvingKey); err != nil {
			return zkp.CircuitArtifacts{}, err
		}
	}
	if src.Constraints != "" {
		raw, err := f.Fetch(ctx, src.Constraints)
		if err != nil {
			return zkp.CircuitArtifacts{}, err
		}
		if a.Constraints, err = zkp.ParseConstraints(raw); err != nil {
			return zkp.CircuitArtifacts{}, fmt.Errorf("circuit %s: %w", src.ID, err)
		}
	}
	f.log.Infof("loaded circuit %s: %d public signals", src.ID, circuit.PublicSize())
	return a, nil
}
