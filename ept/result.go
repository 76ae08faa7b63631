package ept

import "github.com/golang/geo/r3"

// Result is a fully decoded node. Every slice is newly allocated by the decode that
// produced it and is owned by the caller. An attribute slice is nil when its source
// fields are absent from the schema.
type Result struct {
	NumPoints        int
	TightBoundingBox Box
	Mean             r3.Vector
	// TwoByteColor is set when color was stored at 16 bit depth and scaled down.
	TwoByteColor bool

	// Position holds 3 node-local float32 components per point.
	Position []float32
	// Color holds 4 components per point; the 4th is unused.
	Color           []uint8
	Intensity       []float32
	Classification  []uint8
	ReturnNumber    []uint8
	NumberOfReturns []uint8
	PointSourceID   []uint16
	// Indices holds 0..NumPoints-1 in order.
	Indices []uint32
	// Channels is parallel to the requested channel names.
	Channels []Channel
}

// Transferables returns every buffer present in the result, in the order position, color,
// intensity, classification, return number, number of returns, point source id, indices,
// then channels.
func (r *Result) Transferables() []any {
	var out []any
	add := func(present bool, buf any) {
		if present {
			out = append(out, buf)
		}
	}
	add(r.Position != nil, r.Position)
	add(r.Color != nil, r.Color)
	add(r.Intensity != nil, r.Intensity)
	add(r.Classification != nil, r.Classification)
	add(r.ReturnNumber != nil, r.ReturnNumber)
	add(r.NumberOfReturns != nil, r.NumberOfReturns)
	add(r.PointSourceID != nil, r.PointSourceID)
	add(r.Indices != nil, r.Indices)
	for _, ch := range r.Channels {
		out = append(out, ch.Values)
	}
	return out
}

// sequentialIndices returns [0, 1, ..., n-1].
func sequentialIndices(n int) []uint32 {
	indices := make([]uint32, n)
	for i := range indices {
		indices[i] = uint32(i)
	}
	return indices
}

// packageResult assembles the output from the pipelines that ran.
func packageResult(numPoints int, p *pipelines) *Result {
	res := &Result{
		NumPoints:        numPoints,
		TightBoundingBox: NewEmptyBox(),
		Position:         p.position,
		Color:            p.color,
		Intensity:        p.intensity,
		Classification:   p.classification,
		ReturnNumber:     p.returnNumber,
		NumberOfReturns:  p.numberOfReturns,
		PointSourceID:    p.pointSourceID,
		Indices:          sequentialIndices(numPoints),
		Channels:         p.channels.channels,
	}
	if p.geometry != nil {
		res.Mean = p.geometry.mean
		res.TightBoundingBox = p.geometry.bound
	}
	if p.colors != nil {
		res.TwoByteColor = p.colors.twoByteColor
	}
	return res
}
