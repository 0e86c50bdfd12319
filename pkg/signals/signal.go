// Package signals describes the named input/output slots of a compiled circuit.
package signals

import (
	"strconv"
	"strings"

	reasoncodes "github.com/bsc-digital-identity/zk-compliance/pkg/reason_codes"
)

// Signal is a declared circuit signal. Dimensions hold declared sizes, so
// birthDate[3] has Dimensions [3].
type Signal struct {
	Name       string
	Dimensions []int
}

// Parse reads a declaration such as "trusteePublicKey[3][2]". Each bracketed
// suffix, left to right, adds one dimension.
func Parse(decl string) (Signal, error) {
	decl = strings.TrimSpace(decl)
	open := strings.IndexByte(decl, '[')
	if open < 0 {
		if !validName(decl) {
			return Signal{}, reasoncodes.Newf(reasoncodes.UnknownSignal, decl, "invalid signal name")
		}
		return Signal{Name: decl}, nil
	}

	name := decl[:open]
	if !validName(name) {
		return Signal{}, reasoncodes.Newf(reasoncodes.UnknownSignal, decl, "invalid signal name")
	}

	var dims []int
	rest := decl[open:]
	for rest != "" {
		if rest[0] != '[' {
			return Signal{}, reasoncodes.Newf(reasoncodes.UnknownSignal, decl, "unexpected %q", rest)
		}
		end := strings.IndexByte(rest, ']')
		if end < 0 {
			return Signal{}, reasoncodes.Newf(reasoncodes.UnknownSignal, decl, "unterminated dimension")
		}
		n, err := strconv.Atoi(rest[1:end])
		if err != nil || n < 1 {
			return Signal{}, reasoncodes.Newf(reasoncodes.UnknownSignal, decl, "invalid dimension %q", rest[1:end])
		}
		dims = append(dims, n)
		rest = rest[end+1:]
	}
	return Signal{Name: name, Dimensions: dims}, nil
}

func MustParse(decl string) Signal {
	s, err := Parse(decl)
	if err != nil {
		panic(err)
	}
	return s
}

func (s Signal) String() string {
	var b strings.Builder
	b.WriteString(s.Name)
	for _, d := range s.Dimensions {
		b.WriteByte('[')
		b.WriteString(strconv.Itoa(d))
		b.WriteByte(']')
	}
	return b.String()
}

func (s Signal) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

func (s *Signal) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

func (s Signal) IsScalar() bool { return len(s.Dimensions) == 0 }

// Size is the number of field elements the signal occupies once flattened.
func (s Signal) Size() int {
	n := 1
	for _, d := range s.Dimensions {
		n *= d
	}
	return n
}

// SameShape reports whether dims matches the declared dimensions exactly.
func (s Signal) SameShape(dims []int) bool {
	if len(dims) != len(s.Dimensions) {
		return false
	}
	for i := range dims {
		if dims[i] != s.Dimensions[i] {
			return false
		}
	}
	return true
}

// ElementNames lists the flattened element names in row-major order,
// e.g. k[0][0], k[0][1], k[1][0].
func (s Signal) ElementNames() []string {
	if s.IsScalar() {
		return []string{s.Name}
	}
	out := make([]string, 0, s.Size())
	idx := make([]int, len(s.Dimensions))
	for i := 0; i < s.Size(); i++ {
		var b strings.Builder
		b.WriteString(s.Name)
		for _, v := range idx {
			b.WriteByte('[')
			b.WriteString(strconv.Itoa(v))
			b.WriteByte(']')
		}
		out = append(out, b.String())
		for d := len(idx) - 1; d >= 0; d-- {
			idx[d]++
			if idx[d] < s.Dimensions[d] {
				break
			}
			idx[d] = 0
		}
	}
	return out
}

func validName(name string) bool {
	if name == "" {
		return false
	}
	for i, r := range name {
		switch {
		case r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z'):
		case i > 0 && r >= '0' && r <= '9':
		default:
			return false
		}
	}
	return true
}
