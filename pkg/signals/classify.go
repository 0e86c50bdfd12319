package signals

import (
	"fmt"
	"sort"

	reasoncodes "github.com/bsc-digital-identity/zk-compliance/pkg/reason_codes"
)

type SignalKind int

const (
	Output SignalKind = iota
	Public
	Private
)

func (k SignalKind) String() string {
	switch k {
	case Output:
		return "output"
	case Public:
		return "public"
	case Private:
		return "private"
	}
	return fmt.Sprintf("SignalKind(%d)", int(k))
}

// Counts come from the compiled circuit metadata (nOutputs, nPubInputs, nPrvInputs).
type Counts struct {
	Outputs       int `json:"nOutputs"`
	PublicInputs  int `json:"nPubInputs"`
	PrivateInputs int `json:"nPrvInputs"`
}

func (c Counts) total() int { return c.Outputs + c.PublicInputs + c.PrivateInputs }

// KindAt classifies a 0-based position among the non-constant witness
// entries. Bounds are half-open: position nOutputs is the first public input.
// ok is false for intermediate signals past the last private input.
func (c Counts) KindAt(pos int) (kind SignalKind, ok bool) {
	switch {
	case pos < 0:
		return 0, false
	case pos < c.Outputs:
		return Output, true
	case pos < c.Outputs+c.PublicInputs:
		return Public, true
	case pos < c.total():
		return Private, true
	}
	return 0, false
}

// Layout is the classified signal interface of one circuit.
type Layout struct {
	Outputs []Signal
	Public  []Signal
	Private []Signal
}

// Classify assigns each top-level symbol to a kind by its witness position
// (witness index 0 is the constant one). Symbols removed by the optimiser and
// intermediate signals are dropped.
func Classify(symbols []Symbol, counts Counts) (Layout, error) {
	top := make([]Symbol, 0, len(symbols))
	for _, s := range symbols {
		if s.TopLevel() && s.Witness > 0 {
			top = append(top, s)
		}
	}
	sort.SliceStable(top, func(i, j int) bool { return top[i].Witness < top[j].Witness })

	grouped := map[SignalKind][]Symbol{}
	kindOf := map[string]SignalKind{}
	for _, s := range top {
		kind, ok := counts.KindAt(s.Witness - 1)
		if !ok {
			continue
		}
		if prev, seen := kindOf[s.Name]; seen && prev != kind {
			return Layout{}, reasoncodes.Newf(reasoncodes.UnknownSignal, s.Name, "elements span %s and %s", prev, kind)
		}
		kindOf[s.Name] = kind
		grouped[kind] = append(grouped[kind], s)
	}

	var layout Layout
	var err error
	if layout.Outputs, err = CollapseSymbols(grouped[Output]); err != nil {
		return Layout{}, err
	}
	if layout.Public, err = CollapseSymbols(grouped[Public]); err != nil {
		return Layout{}, err
	}
	if layout.Private, err = CollapseSymbols(grouped[Private]); err != nil {
		return Layout{}, err
	}

	if got := sizeOf(layout.Outputs) + sizeOf(layout.Public) + sizeOf(layout.Private); got != counts.total() {
		return Layout{}, reasoncodes.Newf(reasoncodes.ShapeMismatch, "", "symbols cover %d witness slots, metadata declares %d", got, counts.total())
	}
	return layout, nil
}

func sizeOf(sigs []Signal) int {
	n := 0
	for _, s := range sigs {
		n += s.Size()
	}
	return n
}
