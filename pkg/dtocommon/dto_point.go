package dtocommon

import (
	"fmt"

	"github.com/bsc-digital-identity/zk-compliance/pkg/babyjub"
	"github.com/bsc-digital-identity/zk-compliance/pkg/field"
)

// PointDto is a BabyJubJub point with decimal coordinates.
type PointDto struct {
	X string `json:"x"`
	Y string `json:"y"`
}

func NewPointDto(p babyjub.Point) PointDto {
	return PointDto{X: p.X.String(), Y: p.Y.String()}
}

func (p PointDto) ToPoint(ctx *babyjub.Context) (babyjub.Point, error) {
	f := ctx.Field()
	x, err := f.FromString(p.X)
	if err != nil {
		return babyjub.Point{}, fmt.Errorf("x: %w", err)
	}
	y, err := f.FromString(p.Y)
	if err != nil {
		return babyjub.Point{}, fmt.Errorf("y: %w", err)
	}
	return ctx.PointFromCoordinates(x, y)
}

func parseScalar(f *field.Field, name, s string) (field.Scalar, error) {
	v, err := f.FromString(s)
	if err != nil {
		return field.Scalar{}, fmt.Errorf("%s: %w", name, err)
	}
	return v, nil
}
