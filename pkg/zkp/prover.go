package zkp

import (
	"bytes"
	"context"
	"fmt"
	"sync"

	"github.com/consensys/gnark/backend/groth16"
	"github.com/consensys/gnark/constraint"
	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/frontend/cs/r1cs"

	"github.com/bsc-digital-identity/zk-compliance/pkg/field"
	"github.com/bsc-digital-identity/zk-compliance/pkg/logger"
	"github.com/bsc-digital-identity/zk-compliance/pkg/proofinput"
	reasoncodes "github.com/bsc-digital-identity/zk-compliance/pkg/reason_codes"
	"github.com/bsc-digital-identity/zk-compliance/pkg/signals"
)

// OutputFunc computes output signal elements the prover input does not
// carry, keyed by element name.
type OutputFunc func(in proofinput.Input) (map[string]field.Scalar, error)

// CircuitArtifacts is everything needed to prove and verify one circuit.
type CircuitArtifacts struct {
	Circuit      signals.Circuit
	Constraints  []ConstraintDefinition
	ProvingKey   []byte
	VerifyingKey []byte
	Outputs      OutputFunc
}

type compiled struct {
	ccs     constraint.ConstraintSystem
	circuit *DynamicCircuit
}

// Prover compiles each circuit once and proves with groth16 over BN254.
type Prover struct {
	mu    sync.Mutex
	cache map[string]compiled
	log   *logger.Logger
}

func NewProver(log *logger.Logger) *Prover {
	if log == nil {
		log = logger.New()
	}
	return &Prover{cache: map[string]compiled{}, log: log}
}

func compile(a CircuitArtifacts) (compiled, error) {
	dc, err := NewDynamicCircuit(a.Circuit, a.Constraints)
	if err != nil {
		return compiled{}, err
	}
	ccs, err := frontend.Compile(ElipticalCurveID.ScalarField(), r1cs.NewBuilder, dc)
	if err != nil {
		return compiled{}, fmt.Errorf("compile circuit %s: %w", a.Circuit.ID, err)
	}
	return compiled{ccs: ccs, circuit: dc}, nil
}

func (p *Prover) compiled(a CircuitArtifacts) (compiled, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if c, ok := p.cache[a.Circuit.ID]; ok {
		return c, nil
	}
	c, err := compile(a)
	if err != nil {
		return compiled{}, err
	}
	p.log.Infof("compiled circuit %s: %d constraints", a.Circuit.ID, c.ccs.GetNbConstraints())
	p.cache[a.Circuit.ID] = c
	return c, nil
}

// Setup runs a groth16 setup for the circuit and returns the serialized
// proving and verifying keys.
func Setup(a CircuitArtifacts) (pkBytes, vkBytes []byte, err error) {
	c, err := compile(a)
	if err != nil {
		return nil, nil, err
	}
	pk, vk, err := groth16.Setup(c.ccs)
	if err != nil {
		return nil, nil, fmt.Errorf("groth16 setup: %w", err)
	}
	var pkBuf, vkBuf bytes.Buffer
	if _, err := pk.WriteTo(&pkBuf); err != nil {
		return nil, nil, err
	}
	if _, err := vk.WriteTo(&vkBuf); err != nil {
		return nil, nil, err
	}
	return pkBuf.Bytes(), vkBuf.Bytes(), nil
}

// Prove returns the borsh encoded proof blob and the public signal vector
// (outputs then public inputs) it proves.
func (p *Prover) Prove(ctx context.Context, a CircuitArtifacts, in proofinput.Input) ([]byte, []field.Scalar, error) {
	if in.CircuitID != a.Circuit.ID {
		return nil, nil, fmt.Errorf("input built for circuit %s, artifacts are for %s", in.CircuitID, a.Circuit.ID)
	}
	if len(a.ProvingKey) == 0 {
		return nil, nil, fmt.Errorf("empty proving key bytes")
	}

	values := in.Flatten()
	if a.Outputs != nil {
		outs, err := a.Outputs(in)
		if err != nil {
			return nil, nil, fmt.Errorf("compute outputs: %w", err)
		}
		for name, v := range outs {
			values[name] = v
		}
	}

	c, err := p.compiled(a)
	if err != nil {
		return nil, nil, err
	}
	assignment := c.circuit.Clone()
	if err := assignment.AssignValues(values); err != nil {
		return nil, nil, err
	}

	fullWitness, err := frontend.NewWitness(assignment, ElipticalCurveID.ScalarField())
	if err != nil {
		return nil, nil, fmt.Errorf("new witness: %w", err)
	}
	publicWitness, err := fullWitness.Public()
	if err != nil {
		return nil, nil, fmt.Errorf("public witness: %w", err)
	}

	pk := groth16.NewProvingKey(ElipticalCurveID)
	if _, err := pk.ReadFrom(bytes.NewReader(a.ProvingKey)); err != nil {
		return nil, nil, fmt.Errorf("read pk: %w", err)
	}

	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	proof, err := groth16.Prove(c.ccs, pk, fullWitness)
	if err != nil {
		return nil, nil, reasoncodes.Newf(reasoncodes.ErrProofGeneration, a.Circuit.ID, "groth16 prove: %v", err)
	}

	blob, err := (&ZkpResult{Proof: proof, PublicWitness: publicWitness}).SerializeBorsh()
	if err != nil {
		return nil, nil, err
	}
	return blob, c.circuit.PublicVector(values), nil
}
