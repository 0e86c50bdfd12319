package babyjub

import (
	"fmt"
	"math/big"

	"github.com/consensys/gnark-crypto/ecc/bn254/twistededwards"

	"github.com/bsc-digital-identity/zk-compliance/pkg/field"
)

// PointArity is the number of field elements a point occupies in a circuit signal.
const PointArity = 2

// Point is an affine BabyJubJub point.
type Point struct {
	X field.Scalar `json:"x"`
	Y field.Scalar `json:"y"`
}

func (p Point) Coordinates() []field.Scalar {
	return []field.Scalar{p.X, p.Y}
}

func (p Point) String() string {
	return fmt.Sprintf("(%s, %s)", p.X.String(), p.Y.String())
}

func (c *Context) PointFromCoordinates(x, y field.Scalar) (Point, error) {
	p := Point{X: x, Y: y}
	if !c.IsOnCurve(p) {
		return Point{}, fmt.Errorf("babyjub: point %s is not on the curve", p.String())
	}
	return p, nil
}

func (c *Context) IsOnCurve(p Point) bool {
	a := c.toAffine(p)
	return a.IsOnCurve()
}

func (c *Context) Equal(p, q Point) bool {
	return c.field.Equal(p.X, q.X) && c.field.Equal(p.Y, q.Y)
}

func (c *Context) ScalarMul(p Point, k *big.Int) Point {
	a := c.toAffine(p)
	var res twistededwards.PointAffine
	res.ScalarMultiplication(&a, k)
	return c.fromAffine(&res)
}

func (c *Context) Add(p, q Point) Point {
	a, b := c.toAffine(p), c.toAffine(q)
	var res twistededwards.PointAffine
	res.Add(&a, &b)
	return c.fromAffine(&res)
}

func (c *Context) toAffine(p Point) twistededwards.PointAffine {
	return twistededwards.PointAffine{X: field.ToFr(p.X), Y: field.ToFr(p.Y)}
}

func (c *Context) fromAffine(a *twistededwards.PointAffine) Point {
	return Point{X: c.field.FromFr(a.X), Y: c.field.FromFr(a.Y)}
}
