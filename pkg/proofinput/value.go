package proofinput

import (
	"bytes"
	"encoding/json"
	"sort"
	"strconv"

	"github.com/bsc-digital-identity/zk-compliance/pkg/field"
	"github.com/bsc-digital-identity/zk-compliance/pkg/signals"
)

// Value is a shaped signal value with its elements flattened row-major.
type Value struct {
	Shape []int
	Elems []field.Scalar
}

func scalarValue(s field.Scalar) Value { return Value{Elems: []field.Scalar{s}} }

// Input is the prover input for one circuit instance.
type Input struct {
	CircuitID string
	Data      map[string]Value
	declared  []signals.Signal
}

func (in Input) Get(name string) (Value, bool) {
	v, ok := in.Data[name]
	return v, ok
}

// Flatten maps element names (name[i][j]) to their values in declaration order.
func (in Input) Flatten() map[string]field.Scalar {
	out := make(map[string]field.Scalar)
	for _, s := range in.declared {
		v, ok := in.Data[s.Name]
		if !ok {
			continue
		}
		for i, name := range s.ElementNames() {
			out[name] = v.Elems[i]
		}
	}
	return out
}

// MarshalJSON renders the prover input format: nested arrays of decimal strings.
func (in Input) MarshalJSON() ([]byte, error) {
	names := make([]string, 0, len(in.Data))
	for name := range in.Data {
		names = append(names, name)
	}
	sort.Strings(names)

	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, name := range names {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(name)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		v := in.Data[name]
		writeValue(&buf, v.Shape, v.Elems)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func writeValue(buf *bytes.Buffer, shape []int, elems []field.Scalar) {
	if len(shape) == 0 {
		buf.WriteString(strconv.Quote(elems[0].String()))
		return
	}
	buf.WriteByte('[')
	stride := len(elems) / shape[0]
	for i := 0; i < shape[0]; i++ {
		if i > 0 {
			buf.WriteByte(',')
		}
		writeValue(buf, shape[1:], elems[i*stride:(i+1)*stride])
	}
	buf.WriteByte(']')
}
