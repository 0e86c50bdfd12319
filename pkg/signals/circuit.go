package signals

import (
	"fmt"
	"io"

	reasoncodes "github.com/bsc-digital-identity/zk-compliance/pkg/reason_codes"
)

// Circuit is the signal interface of one compiled circuit.
type Circuit struct {
	ID             string   `json:"id"`
	PrivateSignals []Signal `json:"privateSignals"`
	PublicSignals  []Signal `json:"publicSignals"`
	OutputSignals  []Signal `json:"outputSignals"`
	VerifyingKey   []byte   `json:"verifyingKey,omitempty"`
}

// CircuitFromSymbols classifies a compiled symbol table into a Circuit.
func CircuitFromSymbols(id string, symbols io.Reader, counts Counts, vk []byte) (Circuit, error) {
	syms, err := ParseSymbols(symbols)
	if err != nil {
		return Circuit{}, err
	}
	layout, err := Classify(syms, counts)
	if err != nil {
		return Circuit{}, fmt.Errorf("signals: circuit %s: %w", id, err)
	}
	return Circuit{
		ID:             id,
		PrivateSignals: layout.Private,
		PublicSignals:  layout.Public,
		OutputSignals:  layout.Outputs,
		VerifyingKey:   vk,
	}, nil
}

// Declared lists every signal in private, public, output order.
func (c Circuit) Declared() []Signal {
	out := make([]Signal, 0, len(c.PrivateSignals)+len(c.PublicSignals)+len(c.OutputSignals))
	out = append(out, c.PrivateSignals...)
	out = append(out, c.PublicSignals...)
	return append(out, c.OutputSignals...)
}

// PublicOrder lists the signals exposed in a proof's public signal vector:
// outputs first, then public inputs.
func (c Circuit) PublicOrder() []Signal {
	out := make([]Signal, 0, len(c.OutputSignals)+len(c.PublicSignals))
	out = append(out, c.OutputSignals...)
	return append(out, c.PublicSignals...)
}

// PublicSize is the length of the flattened public signal vector.
func (c Circuit) PublicSize() int { return sizeOf(c.PublicOrder()) }

func (c Circuit) Lookup(name string) (Signal, SignalKind, bool) {
	for _, group := range []struct {
		kind SignalKind
		sigs []Signal
	}{{Output, c.OutputSignals}, {Public, c.PublicSignals}, {Private, c.PrivateSignals}} {
		for _, s := range group.sigs {
			if s.Name == name {
				return s, group.kind, true
			}
		}
	}
	return Signal{}, 0, false
}

// PublicOffset returns where a public or output signal starts in the
// flattened public vector.
func (c Circuit) PublicOffset(name string) (Signal, int, error) {
	off := 0
	for _, s := range c.PublicOrder() {
		if s.Name == name {
			return s, off, nil
		}
		off += s.Size()
	}
	return Signal{}, 0, reasoncodes.Newf(reasoncodes.UnknownSignal, name, "not a public or output signal of %s", c.ID)
}

// Validate rejects duplicate names across the three groups.
func (c Circuit) Validate() error {
	seen := map[string]bool{}
	for _, s := range c.Declared() {
		if seen[s.Name] {
			return reasoncodes.Newf(reasoncodes.UnknownSignal, s.Name, "declared twice in %s", c.ID)
		}
		seen[s.Name] = true
	}
	return nil
}
