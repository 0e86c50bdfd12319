// Package babyjub wraps the BabyJubJub twisted Edwards curve over the BN254
// scalar field: points, trustee key pairs, issuer EdDSA signatures and the
// share encryption produced by the credential circuits.
//
// All primitives hang off an explicit Context created once at process start
// and passed by reference. MiMC hash states are created per call, so a single
// Context is safe for concurrent use.
package babyjub

import (
	"crypto/rand"
	"fmt"
	"hash"
	"io"
	"math/big"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/consensys/gnark-crypto/ecc/bn254/fr/mimc"
	"github.com/consensys/gnark-crypto/ecc/bn254/twistededwards"

	"github.com/bsc-digital-identity/zk-compliance/pkg/field"
)

type Context struct {
	curve twistededwards.CurveParams
	field *field.Field
}

func NewContext() *Context {
	return &Context{
		curve: twistededwards.GetEdwardsCurve(),
		field: field.BN254(),
	}
}

func (c *Context) Field() *field.Field { return c.field }

// Order is the order of the prime subgroup generated by Base.
func (c *Context) Order() *big.Int { return new(big.Int).Set(&c.curve.Order) }

func (c *Context) Base() Point { return c.fromAffine(&c.curve.Base) }

// NewHash returns a fresh MiMC state. States are not shared.
func (c *Context) NewHash() hash.Hash {
	return mimc.NewMiMC()
}

// Hash absorbs the elements in order and returns the MiMC digest as a field element.
func (c *Context) Hash(elems ...field.Scalar) field.Scalar {
	h := c.NewHash()
	for _, e := range elems {
		el := field.ToFr(e)
		b := el.Bytes()
		h.Write(b[:])
	}
	var out fr.Element
	out.SetBytes(h.Sum(nil))
	return c.field.FromFr(out)
}

// randomScalar samples k in [1, order).
func (c *Context) randomScalar(rnd io.Reader) (*big.Int, error) {
	if rnd == nil {
		rnd = rand.Reader
	}
	bound := new(big.Int).Sub(&c.curve.Order, big.NewInt(1))
	k, err := rand.Int(rnd, bound)
	if err != nil {
		return nil, fmt.Errorf("babyjub: sample scalar: %w", err)
	}
	return k.Add(k, big.NewInt(1)), nil
}
