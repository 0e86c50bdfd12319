package signals

import (
	"fmt"

	reasoncodes "github.com/bsc-digital-identity/zk-compliance/pkg/reason_codes"
)

// Registry is an immutable set of circuits keyed by id, built once at start.
type Registry struct {
	circuits map[string]Circuit
	kinds    map[string]map[string]SignalKind
}

func NewRegistry(circuits ...Circuit) (*Registry, error) {
	r := &Registry{
		circuits: make(map[string]Circuit, len(circuits)),
		kinds:    make(map[string]map[string]SignalKind, len(circuits)),
	}
	for _, c := range circuits {
		if c.ID == "" {
			return nil, fmt.Errorf("signals: circuit without id")
		}
		if _, dup := r.circuits[c.ID]; dup {
			return nil, fmt.Errorf("signals: circuit %s registered twice", c.ID)
		}
		if err := c.Validate(); err != nil {
			return nil, err
		}
		kinds := map[string]SignalKind{}
		for _, s := range c.OutputSignals {
			kinds[s.Name] = Output
		}
		for _, s := range c.PublicSignals {
			kinds[s.Name] = Public
		}
		for _, s := range c.PrivateSignals {
			kinds[s.Name] = Private
		}
		r.circuits[c.ID] = c
		r.kinds[c.ID] = kinds
	}
	return r, nil
}

func (r *Registry) Circuit(id string) (Circuit, error) {
	c, ok := r.circuits[id]
	if !ok {
		return Circuit{}, reasoncodes.Newf(reasoncodes.UnknownSignal, id, "unknown circuit")
	}
	return c, nil
}

func (r *Registry) Kind(circuitID, signal string) (SignalKind, error) {
	kinds, ok := r.kinds[circuitID]
	if !ok {
		return 0, reasoncodes.Newf(reasoncodes.UnknownSignal, circuitID, "unknown circuit")
	}
	k, ok := kinds[signal]
	if !ok {
		return 0, reasoncodes.Newf(reasoncodes.UnknownSignal, signal, "not declared by %s", circuitID)
	}
	return k, nil
}

func (r *Registry) IDs() []string {
	out := make([]string, 0, len(r.circuits))
	for id := range r.circuits {
		out = append(out, id)
	}
	return out
}
