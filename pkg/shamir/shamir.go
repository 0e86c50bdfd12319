// Package shamir implements (k, n) threshold secret sharing over a prime field.
package shamir

import (
	"io"
	"math/big"
	"strconv"

	"github.com/bsc-digital-identity/zk-compliance/pkg/field"
	reasoncodes "github.com/bsc-digital-identity/zk-compliance/pkg/reason_codes"
)

// Share is a point (X, f(X)) of the sharing polynomial. X is 1-based.
type Share struct {
	X uint8        `json:"x"`
	Y field.Scalar `json:"y"`
}

// Split evaluates f(x) = secret + c1*x + ... + c_{k-1}*x^{k-1} at x = 1..n
// with uniformly random coefficients drawn from rnd (crypto/rand if nil).
func Split(f *field.Field, secret field.Scalar, n, k uint8, rnd io.Reader) ([]Share, error) {
	if k < 1 || k > n {
		return nil, reasoncodes.Newf(reasoncodes.InvalidThreshold, "k", "need 1 <= k <= n, got k=%d n=%d", k, n)
	}
	if big.NewInt(int64(n)).Cmp(f.Modulus()) >= 0 {
		return nil, reasoncodes.Newf(reasoncodes.InvalidThreshold, "n", "n=%d must be below the field modulus", n)
	}

	coeffs := make([]field.Scalar, k)
	coeffs[0] = f.Mod(secret.BigInt())
	for i := 1; i < int(k); i++ {
		c, err := f.Random(rnd)
		if err != nil {
			return nil, err
		}
		coeffs[i] = c
	}

	shares := make([]Share, n)
	for i := range shares {
		x := uint8(i + 1)
		shares[i] = Share{X: x, Y: eval(f, coeffs, f.FromUint64(uint64(x)))}
	}
	return shares, nil
}

// eval uses Horner's rule.
func eval(f *field.Field, coeffs []field.Scalar, x field.Scalar) field.Scalar {
	acc := f.Zero()
	for i := len(coeffs) - 1; i >= 0; i-- {
		acc = f.Add(f.Mul(acc, x), coeffs[i])
	}
	return acc
}

// Reconstruct interpolates the polynomial at zero over every supplied share.
// At least k shares are required; extra consistent shares do not change the
// result and the order of shares is irrelevant.
func Reconstruct(f *field.Field, shares []Share, k uint8) (field.Scalar, error) {
	if k < 1 {
		return field.Scalar{}, reasoncodes.Newf(reasoncodes.InvalidThreshold, "k", "k must be at least 1")
	}
	if len(shares) < int(k) {
		return field.Scalar{}, reasoncodes.Newf(reasoncodes.InsufficientShares, "", "have %d shares, need %d", len(shares), k)
	}

	// indices are compared as field elements so that x and x+p collide
	seen := make(map[string]struct{}, len(shares))
	xs := make([]field.Scalar, len(shares))
	for i, s := range shares {
		xs[i] = f.FromUint64(uint64(s.X))
		if f.IsZero(xs[i]) {
			return field.Scalar{}, reasoncodes.Newf(reasoncodes.InvalidShareIndex, strconv.Itoa(int(s.X)), "x = 0 would reveal the secret")
		}
		key := xs[i].String()
		if _, dup := seen[key]; dup {
			return field.Scalar{}, reasoncodes.Newf(reasoncodes.DuplicateShareIndex, strconv.Itoa(int(s.X)), "index supplied twice")
		}
		seen[key] = struct{}{}
	}

	secret := f.Zero()
	for j, s := range shares {
		num, den := f.One(), f.One()
		for m := range shares {
			if m == j {
				continue
			}
			num = f.Mul(num, xs[m])
			den = f.Mul(den, f.Sub(xs[m], xs[j]))
		}
		basis, err := f.Div(num, den)
		if err != nil {
			return field.Scalar{}, err
		}
		secret = f.Add(secret, f.Mul(s.Y, basis))
	}
	return secret, nil
}
