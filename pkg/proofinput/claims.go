package proofinput

import (
	"crypto/sha256"
	"encoding/json"
	"math"
	"math/big"
	"strconv"
	"strings"
	"time"

	"github.com/bsc-digital-identity/zk-compliance/pkg/field"
	reasoncodes "github.com/bsc-digital-identity/zk-compliance/pkg/reason_codes"
)

const (
	dateSuffix    = "Date"
	dateSeparator = "-"
)

// encodeClaim converts a credential claim into field elements.
func encodeClaim(f *field.Field, name string, raw any) (Value, error) {
	if strings.HasSuffix(name, dateSuffix) {
		return encodeDate(f, name, raw)
	}
	if arr, ok := raw.([]any); ok {
		return encodeArray(f, name, arr)
	}
	s, err := encodeScalar(f, name, raw)
	if err != nil {
		return Value{}, err
	}
	return scalarValue(s), nil
}

// encodeDate splits "1990-01-15" into [1990, 1, 15]. A time part after the
// day ("15T10:00:00Z") is ignored.
func encodeDate(f *field.Field, name string, raw any) (Value, error) {
	s, ok := raw.(string)
	if !ok {
		return Value{}, reasoncodes.Newf(reasoncodes.InvalidDateField, name, "expected a date string, got %T", raw)
	}
	s = strings.TrimSpace(s)
	day := s
	if i := strings.IndexByte(s, 'T'); i >= 0 {
		if _, err := time.Parse(time.RFC3339Nano, s); err != nil {
			return Value{}, reasoncodes.Newf(reasoncodes.InvalidDateField, name, "%q is not an RFC 3339 timestamp", s)
		}
		day = s[:i]
	}
	parts := strings.Split(day, dateSeparator)
	if len(parts) != 3 {
		return Value{}, reasoncodes.Newf(reasoncodes.InvalidDateField, name, "%q has %d components, need 3", s, len(parts))
	}
	var ymd [3]int64
	for i, p := range parts {
		n, err := strconv.ParseInt(p, 10, 64)
		if err != nil {
			return Value{}, reasoncodes.Newf(reasoncodes.InvalidDateField, name, "component %q is not numeric", p)
		}
		ymd[i] = n
	}
	if ymd[1] < 1 || ymd[1] > 12 || ymd[2] < 1 || ymd[2] > 31 {
		return Value{}, reasoncodes.Newf(reasoncodes.InvalidDateField, name, "%q is out of range", s)
	}
	elems := make([]field.Scalar, 3)
	for i, n := range ymd {
		elems[i] = f.FromInt64(n)
	}
	return Value{Shape: []int{3}, Elems: elems}, nil
}

func encodeArray(f *field.Field, name string, arr []any) (Value, error) {
	if len(arr) == 0 {
		return Value{}, reasoncodes.Newf(reasoncodes.ShapeMismatch, name, "empty array")
	}
	var shape []int
	var elems []field.Scalar
	for i, el := range arr {
		var v Value
		var err error
		if inner, ok := el.([]any); ok {
			v, err = encodeArray(f, name, inner)
		} else {
			var s field.Scalar
			s, err = encodeScalar(f, name, el)
			v = scalarValue(s)
		}
		if err != nil {
			return Value{}, err
		}
		if i == 0 {
			shape = v.Shape
		} else if !sameInts(shape, v.Shape) {
			return Value{}, reasoncodes.Newf(reasoncodes.ShapeMismatch, name, "array is not rectangular")
		}
		elems = append(elems, v.Elems...)
	}
	return Value{Shape: append([]int{len(arr)}, shape...), Elems: elems}, nil
}

// encodeScalar maps integers directly, booleans to 0/1, and any other string
// to SHA-256 of its bytes reduced into the field.
func encodeScalar(f *field.Field, name string, raw any) (field.Scalar, error) {
	switch v := raw.(type) {
	case json.Number:
		if n, ok := new(big.Int).SetString(v.String(), 10); ok {
			return f.FromBigInt(n), nil
		}
		return field.Scalar{}, reasoncodes.Newf(reasoncodes.ShapeMismatch, name, "%s is not an integer", v)
	case float64:
		if v != math.Trunc(v) || math.IsInf(v, 0) {
			return field.Scalar{}, reasoncodes.Newf(reasoncodes.ShapeMismatch, name, "%v is not an integer", v)
		}
		n, _ := big.NewFloat(v).Int(nil)
		return f.FromBigInt(n), nil
	case int:
		return f.FromInt64(int64(v)), nil
	case int64:
		return f.FromInt64(v), nil
	case uint64:
		return f.FromUint64(v), nil
	case *big.Int:
		return f.FromBigInt(v), nil
	case bool:
		if v {
			return f.One(), nil
		}
		return f.Zero(), nil
	case string:
		if n, ok := new(big.Int).SetString(strings.TrimSpace(v), 10); ok {
			return f.FromBigInt(n), nil
		}
		sum := sha256.Sum256([]byte(v))
		return f.FromBigInt(new(big.Int).SetBytes(sum[:])), nil
	case field.Scalar:
		return v, nil
	}
	return field.Scalar{}, reasoncodes.Newf(reasoncodes.ShapeMismatch, name, "unsupported claim type %T", raw)
}

func sameInts(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
