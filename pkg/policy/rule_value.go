package policy

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"math/big"
	"strings"

	"github.com/bsc-digital-identity/zk-compliance/pkg/field"
	reasoncodes "github.com/bsc-digital-identity/zk-compliance/pkg/reason_codes"
)

// RuleValue is either a number (scalar or rectangular array, flattened
// row-major) or a byte string injected one byte per element.
type RuleValue struct {
	shape   []int
	numbers []*big.Int
	raw     []byte
	isBytes bool
}

func Number(v int64) RuleValue {
	return RuleValue{numbers: []*big.Int{big.NewInt(v)}}
}

// Numbers builds an array value; len(vals) must equal the product of shape.
func Numbers(shape []int, vals ...int64) (RuleValue, error) {
	n := 1
	for _, d := range shape {
		n *= d
	}
	if n != len(vals) {
		return RuleValue{}, reasoncodes.Newf(reasoncodes.PolicyRuleFormatError, "", "shape %v holds %d values, got %d", shape, n, len(vals))
	}
	nums := make([]*big.Int, len(vals))
	for i, v := range vals {
		nums[i] = big.NewInt(v)
	}
	return RuleValue{shape: append([]int(nil), shape...), numbers: nums}, nil
}

func Bytes(b []byte) RuleValue {
	return RuleValue{shape: []int{len(b)}, raw: append([]byte(nil), b...), isBytes: true}
}

func (v RuleValue) empty() bool { return !v.isBytes && len(v.numbers) == 0 }

func (v RuleValue) IsBytes() bool { return v.isBytes }

func (v RuleValue) Shape() []int { return append([]int(nil), v.shape...) }

// Elements renders the value into f, row-major.
func (v RuleValue) Elements(f *field.Field) []field.Scalar {
	if v.isBytes {
		out := make([]field.Scalar, len(v.raw))
		for i, b := range v.raw {
			out[i] = f.FromUint64(uint64(b))
		}
		return out
	}
	out := make([]field.Scalar, len(v.numbers))
	for i, n := range v.numbers {
		out[i] = f.FromBigInt(n)
	}
	return out
}

func (v RuleValue) MarshalJSON() ([]byte, error) {
	if v.isBytes {
		return json.Marshal("0x" + hex.EncodeToString(v.raw))
	}
	if v.empty() {
		return []byte("null"), nil
	}
	if len(v.shape) == 0 {
		return []byte(v.numbers[0].String()), nil
	}
	var buf bytes.Buffer
	writeNested(&buf, v.shape, v.numbers)
	return buf.Bytes(), nil
}

func writeNested(buf *bytes.Buffer, shape []int, nums []*big.Int) {
	buf.WriteByte('[')
	if len(shape) == 1 {
		for i, n := range nums {
			if i > 0 {
				buf.WriteByte(',')
			}
			buf.WriteString(n.String())
		}
	} else {
		stride := len(nums) / shape[0]
		for i := 0; i < shape[0]; i++ {
			if i > 0 {
				buf.WriteByte(',')
			}
			writeNested(buf, shape[1:], nums[i*stride:(i+1)*stride])
		}
	}
	buf.WriteByte(']')
}

// UnmarshalJSON accepts an integer, a decimal string, a rectangular nested
// array of those, or a 0x-prefixed hex byte string.
func (v *RuleValue) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw any
	if err := dec.Decode(&raw); err != nil {
		return reasoncodes.Newf(reasoncodes.PolicyRuleFormatError, "", "%v", err)
	}

	if s, ok := raw.(string); ok && strings.HasPrefix(s, "0x") {
		b, err := hex.DecodeString(s[2:])
		if err != nil {
			return reasoncodes.Newf(reasoncodes.PolicyRuleFormatError, "", "invalid hex bytes: %v", err)
		}
		*v = Bytes(b)
		return nil
	}

	shape, err := inferShape(raw)
	if err != nil {
		return err
	}
	var nums []*big.Int
	if err := flatten(raw, shape, &nums); err != nil {
		return err
	}
	*v = RuleValue{shape: shape, numbers: nums}
	return nil
}

func inferShape(raw any) ([]int, error) {
	arr, ok := raw.([]any)
	if !ok {
		return nil, nil
	}
	if len(arr) == 0 {
		return nil, reasoncodes.Newf(reasoncodes.PolicyRuleFormatError, "", "empty array")
	}
	inner, err := inferShape(arr[0])
	if err != nil {
		return nil, err
	}
	return append([]int{len(arr)}, inner...), nil
}

func flatten(raw any, shape []int, out *[]*big.Int) error {
	if len(shape) == 0 {
		n, err := parseNumber(raw)
		if err != nil {
			return err
		}
		*out = append(*out, n)
		return nil
	}
	arr, ok := raw.([]any)
	if !ok || len(arr) != shape[0] {
		return reasoncodes.Newf(reasoncodes.PolicyRuleFormatError, "", "array is not rectangular")
	}
	for _, el := range arr {
		if err := flatten(el, shape[1:], out); err != nil {
			return err
		}
	}
	return nil
}

func parseNumber(raw any) (*big.Int, error) {
	var s string
	switch t := raw.(type) {
	case json.Number:
		s = t.String()
	case string:
		s = t
	default:
		return nil, reasoncodes.Newf(reasoncodes.PolicyRuleFormatError, "", "unsupported value %v", raw)
	}
	n, ok := new(big.Int).SetString(strings.TrimSpace(s), 10)
	if !ok {
		return nil, reasoncodes.Newf(reasoncodes.PolicyRuleFormatError, "", "%q is not an integer", s)
	}
	return n, nil
}
