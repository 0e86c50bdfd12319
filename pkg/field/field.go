// Package field implements arithmetic modulo a fixed prime.
//
// A Field carries the modulus; Scalar values are immutable canonical residues
// in [0, p). Every operation returns a fresh Scalar, so values may be shared
// freely between goroutines.
package field

import (
	"crypto/rand"
	"fmt"
	"io"
	"math/big"
	"strings"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark-crypto/ecc/bn254/fr"

	reasoncodes "github.com/bsc-digital-identity/zk-compliance/pkg/reason_codes"
)

const primalityRounds = 32

type Endianness int

const (
	BigEndian Endianness = iota
	LittleEndian
)

type Field struct {
	p       *big.Int
	byteLen int
}

// Scalar is a residue modulo the prime of the Field that produced it.
type Scalar struct {
	v *big.Int
}

func New(p *big.Int) (*Field, error) {
	if p == nil || p.Cmp(big.NewInt(2)) < 0 {
		return nil, fmt.Errorf("field: modulus must be a prime >= 2")
	}
	if !p.ProbablyPrime(primalityRounds) {
		return nil, fmt.Errorf("field: modulus %s is not prime", p.String())
	}
	return &Field{
		p:       new(big.Int).Set(p),
		byteLen: (p.BitLen() + 7) / 8,
	}, nil
}

func MustNew(p *big.Int) *Field {
	f, err := New(p)
	if err != nil {
		panic(err)
	}
	return f
}

// BN254 returns the scalar field of BN254, which is the base field of the
// BabyJubJub curve used for trustee keys and issuer signatures.
func BN254() *Field {
	return MustNew(ecc.BN254.ScalarField())
}

func (f *Field) Modulus() *big.Int { return new(big.Int).Set(f.p) }

// ByteLen is the fixed width of a default encoding.
func (f *Field) ByteLen() int { return f.byteLen }

func (f *Field) IsBN254() bool {
	return f.p.Cmp(fr.Modulus()) == 0
}

func (f *Field) reduce(x *big.Int) Scalar {
	v := new(big.Int).Mod(x, f.p)
	return Scalar{v: v}
}

func (f *Field) Zero() Scalar { return Scalar{v: new(big.Int)} }

func (f *Field) One() Scalar { return f.reduce(big.NewInt(1)) }

func (f *Field) FromInt64(x int64) Scalar { return f.reduce(big.NewInt(x)) }

func (f *Field) FromUint64(x uint64) Scalar { return f.reduce(new(big.Int).SetUint64(x)) }

func (f *Field) FromBigInt(x *big.Int) Scalar {
	if x == nil {
		return f.Zero()
	}
	return f.reduce(x)
}

// FromString parses a decimal or 0x-prefixed hexadecimal integer.
func (f *Field) FromString(s string) (Scalar, error) {
	s = strings.TrimSpace(s)
	base := 10
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		s, base = s[2:], 16
	}
	x, ok := new(big.Int).SetString(s, base)
	if !ok {
		return Scalar{}, fmt.Errorf("field: invalid integer %q", s)
	}
	return f.reduce(x), nil
}

// Random draws a uniform element; rnd defaults to crypto/rand.
func (f *Field) Random(rnd io.Reader) (Scalar, error) {
	if rnd == nil {
		rnd = rand.Reader
	}
	v, err := rand.Int(rnd, f.p)
	if err != nil {
		return Scalar{}, fmt.Errorf("field: sample random element: %w", err)
	}
	return Scalar{v: v}, nil
}

func (f *Field) Mod(x *big.Int) Scalar { return f.FromBigInt(x) }

func (f *Field) Add(a, b Scalar) Scalar {
	return f.reduce(new(big.Int).Add(a.big(), b.big()))
}

func (f *Field) Sub(a, b Scalar) Scalar {
	return f.reduce(new(big.Int).Sub(a.big(), b.big()))
}

func (f *Field) Mul(a, b Scalar) Scalar {
	return f.reduce(new(big.Int).Mul(a.big(), b.big()))
}

func (f *Field) Neg(a Scalar) Scalar {
	return f.reduce(new(big.Int).Neg(a.big()))
}

func (f *Field) Inv(a Scalar) (Scalar, error) {
	if f.IsZero(a) {
		return Scalar{}, reasoncodes.Newf(reasoncodes.DivisionByZero, "", "inverse of zero")
	}
	v := new(big.Int).ModInverse(f.reduce(a.big()).v, f.p)
	if v == nil {
		return Scalar{}, reasoncodes.Newf(reasoncodes.DivisionByZero, "", "%s has no inverse", a.String())
	}
	return Scalar{v: v}, nil
}

func (f *Field) Div(a, b Scalar) (Scalar, error) {
	inv, err := f.Inv(b)
	if err != nil {
		return Scalar{}, err
	}
	return f.Mul(a, inv), nil
}

// Pow raises a to e; negative exponents invert first.
func (f *Field) Pow(a Scalar, e *big.Int) (Scalar, error) {
	base := f.reduce(a.big())
	exp := new(big.Int).Set(e)
	if exp.Sign() < 0 {
		inv, err := f.Inv(base)
		if err != nil {
			return Scalar{}, err
		}
		base = inv
		exp.Neg(exp)
	}
	return Scalar{v: new(big.Int).Exp(base.v, exp, f.p)}, nil
}

func (f *Field) Equal(a, b Scalar) bool {
	return f.reduce(a.big()).v.Cmp(f.reduce(b.big()).v) == 0
}

func (f *Field) IsZero(a Scalar) bool {
	return f.reduce(a.big()).v.Sign() == 0
}

// FromFr converts a gnark-crypto BN254 element. The field must be BN254.
func (f *Field) FromFr(e fr.Element) Scalar {
	var b big.Int
	e.BigInt(&b)
	return f.reduce(&b)
}

// ToFr converts a scalar into a gnark-crypto BN254 element.
func ToFr(s Scalar) fr.Element {
	var e fr.Element
	e.SetBigInt(s.big())
	return e
}

func (s Scalar) big() *big.Int {
	if s.v == nil {
		return new(big.Int)
	}
	return s.v
}

// BigInt returns a copy of the underlying integer.
func (s Scalar) BigInt() *big.Int { return new(big.Int).Set(s.big()) }

func (s Scalar) Uint64() uint64 { return s.big().Uint64() }

func (s Scalar) String() string { return s.big().String() }

func (s Scalar) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

func (s *Scalar) UnmarshalText(text []byte) error {
	x, ok := new(big.Int).SetString(strings.TrimSpace(string(text)), 10)
	if !ok || x.Sign() < 0 {
		return fmt.Errorf("field: invalid scalar %q", string(text))
	}
	s.v = x
	return nil
}
