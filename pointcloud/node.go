package pointcloud

import (
	"image/color"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	"go.viam.com/ept/ept"
)

// FromNode builds a cloud from a decoded node. origin is added to every node-local
// position, so passing the node's minimum corner restores dataset coordinates. Points
// decoding to the same position collapse into one.
func FromNode(res *ept.Result, origin r3.Vector) (PointCloud, error) {
	if res.Position == nil {
		return nil, errors.New("decoded node has no positions")
	}
	pc := NewWithPrealloc(res.NumPoints)
	for i := 0; i < res.NumPoints; i++ {
		p := r3.Vector{
			X: float64(res.Position[3*i]),
			Y: float64(res.Position[3*i+1]),
			Z: float64(res.Position[3*i+2]),
		}.Add(origin)

		d := NewBasicData()
		if res.Color != nil {
			d.SetColor(color.NRGBA{R: res.Color[4*i], G: res.Color[4*i+1], B: res.Color[4*i+2], A: 255})
		}
		if res.Intensity != nil {
			d.SetIntensity(clampUint16(res.Intensity[i]))
		}
		if res.Classification != nil {
			d.SetValue(int(res.Classification[i]))
		}
		if err := pc.Set(p, d); err != nil {
			return nil, errors.Wrapf(err, "point %d", i)
		}
	}
	return pc, nil
}

func clampUint16(v float32) uint16 {
	switch {
	case v <= 0:
		return 0
	case v >= 65535:
		return 65535
	default:
		return uint16(v)
	}
}
