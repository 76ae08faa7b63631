package ept

import (
	"math"

	"github.com/golang/geo/r3"
)

// Box is an axis aligned bounding box.
type Box struct {
	Min r3.Vector
	Max r3.Vector
}

// NewEmptyBox returns a box whose corners are the most extreme representable values, so
// that the first merged point becomes both corners.
func NewEmptyBox() Box {
	return Box{
		Min: r3.Vector{X: math.MaxFloat64, Y: math.MaxFloat64, Z: math.MaxFloat64},
		Max: r3.Vector{X: -math.MaxFloat64, Y: -math.MaxFloat64, Z: -math.MaxFloat64},
	}
}

// Merge grows the box to include p.
func (b *Box) Merge(p r3.Vector) {
	b.Min.X = math.Min(b.Min.X, p.X)
	b.Min.Y = math.Min(b.Min.Y, p.Y)
	b.Min.Z = math.Min(b.Min.Z, p.Z)
	b.Max.X = math.Max(b.Max.X, p.X)
	b.Max.Y = math.Max(b.Max.Y, p.Y)
	b.Max.Z = math.Max(b.Max.Z, p.Z)
}

// Empty reports whether no point has been merged.
func (b Box) Empty() bool {
	return b.Min.X > b.Max.X
}

// Quantization holds the per axis parameters turning stored coordinates into real ones.
type Quantization struct {
	Scale  r3.Vector
	Offset r3.Vector
}

// geometryAccumulator de-quantizes positions relative to the node's minimum corner and
// tracks their mean and tight bounds.
type geometryAccumulator struct {
	xyz   [3]Extractor
	q     Quantization
	mins  r3.Vector
	n     float64
	mean  r3.Vector
	bound Box
}

func newGeometryAccumulator(l Layout, q Quantization, mins r3.Vector, numPoints int) (*geometryAccumulator, error) {
	ex, err := extractorsFor(l, DimX, DimY, DimZ)
	if err != nil {
		return nil, err
	}
	return &geometryAccumulator{
		xyz:   [3]Extractor{ex[0], ex[1], ex[2]},
		q:     q,
		mins:  mins,
		n:     float64(numPoints),
		bound: NewEmptyBox(),
	}, nil
}

// position returns raw*scale + offset - mins for the record at base.
func (ga *geometryAccumulator) position(buf []byte, base int) r3.Vector {
	return r3.Vector{
		X: ga.xyz[0].Read(buf, base)*ga.q.Scale.X + ga.q.Offset.X - ga.mins.X,
		Y: ga.xyz[1].Read(buf, base)*ga.q.Scale.Y + ga.q.Offset.Y - ga.mins.Y,
		Z: ga.xyz[2].Read(buf, base)*ga.q.Scale.Z + ga.q.Offset.Z - ga.mins.Z,
	}
}

// add folds p into the running mean and bounds. The mean is accumulated as a sum of
// p/n terms in point order.
func (ga *geometryAccumulator) add(p r3.Vector) {
	ga.mean.X += p.X / ga.n
	ga.mean.Y += p.Y / ga.n
	ga.mean.Z += p.Z / ga.n
	ga.bound.Merge(p)
}

// write decodes the record at base into dst[0:3] and accumulates it.
func (ga *geometryAccumulator) write(dst []float32, buf []byte, base int) {
	p := ga.position(buf, base)
	ga.add(p)
	dst[0] = float32(p.X)
	dst[1] = float32(p.Y)
	dst[2] = float32(p.Z)
}
