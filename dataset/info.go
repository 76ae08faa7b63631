// Package dataset reads the metadata of an Entwine Point Tile dataset: the ept.json
// description, node keys and the node hierarchy.
package dataset

import (
	"encoding/json"
	"path"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"github.com/samber/lo"
	"github.com/spf13/afero"

	"go.viam.com/ept/ept"
)

// InfoFile is the name of the dataset description at the root of a dataset.
const InfoFile = "ept.json"

// DataTypeBinary is the only node encoding the decoder understands.
const DataTypeBinary = "binary"

// Dimension is one schema entry of ept.json. Scale and Offset are only set for
// quantized dimensions.
type Dimension struct {
	Name   string   `json:"name"`
	Type   ept.Kind `json:"type"`
	Size   int      `json:"size"`
	Scale  *float64 `json:"scale,omitempty"`
	Offset *float64 `json:"offset,omitempty"`
}

// SRS is the spatial reference system of the dataset.
type SRS struct {
	Authority  string `json:"authority,omitempty"`
	Horizontal string `json:"horizontal,omitempty"`
	Vertical   string `json:"vertical,omitempty"`
	WKT        string `json:"wkt,omitempty"`
}

// Info is the parsed contents of ept.json.
type Info struct {
	Bounds           [6]float64  `json:"bounds"`
	BoundsConforming [6]float64  `json:"boundsConforming"`
	DataType         string      `json:"dataType"`
	HierarchyType    string      `json:"hierarchyType"`
	Points           int64       `json:"points"`
	Schema           []Dimension `json:"schema"`
	Span             int         `json:"span"`
	SRS              *SRS        `json:"srs,omitempty"`
	Version          string      `json:"version,omitempty"`
}

// ParseInfo parses and validates an ept.json document.
func ParseInfo(data []byte) (*Info, error) {
	var info Info
	if err := json.Unmarshal(data, &info); err != nil {
		return nil, errors.Wrap(err, "error parsing ept.json")
	}
	if err := info.validate(); err != nil {
		return nil, err
	}
	return &info, nil
}

// ReadInfo reads ept.json from the dataset directory root on fs.
func ReadInfo(fs afero.Fs, root string) (*Info, error) {
	data, err := afero.ReadFile(fs, path.Join(root, InfoFile))
	if err != nil {
		return nil, err
	}
	return ParseInfo(data)
}

func (info *Info) validate() error {
	if info.DataType != DataTypeBinary {
		return errors.Errorf("unsupported ept dataType %q, only %q nodes can be decoded", info.DataType, DataTypeBinary)
	}
	if len(info.Schema) == 0 {
		return errors.New("ept.json has an empty schema")
	}
	for i := 0; i < 3; i++ {
		if info.Bounds[i] >= info.Bounds[i+3] {
			return errors.Errorf("ept.json bounds are empty on axis %d", i)
		}
	}
	return ept.ValidateSchema(info.PointSchema())
}

// PointSchema returns the record layout of a node.
func (info *Info) PointSchema() ept.Schema {
	return lo.Map(info.Schema, func(d Dimension, _ int) ept.FieldDescriptor {
		return ept.FieldDescriptor{Name: d.Name, Kind: d.Type, Size: d.Size}
	})
}

func (info *Info) dimension(name string) (Dimension, bool) {
	return lo.Find(info.Schema, func(d Dimension) bool { return d.Name == name })
}

// Quantization returns the per axis scale and offset of X, Y and Z. Dimensions without
// a scale use 1 and without an offset use 0.
func (info *Info) Quantization() ept.Quantization {
	q := ept.Quantization{Scale: r3.Vector{X: 1, Y: 1, Z: 1}}
	set := func(name string, scale, offset *float64) {
		d, ok := info.dimension(name)
		if !ok {
			return
		}
		if d.Scale != nil {
			*scale = *d.Scale
		}
		if d.Offset != nil {
			*offset = *d.Offset
		}
	}
	set(ept.DimX, &q.Scale.X, &q.Offset.X)
	set(ept.DimY, &q.Scale.Y, &q.Offset.Y)
	set(ept.DimZ, &q.Scale.Z, &q.Offset.Z)
	return q
}

// Cube returns the root bounds of the octree.
func (info *Info) Cube() Bounds {
	return Bounds{
		Min: r3.Vector{X: info.Bounds[0], Y: info.Bounds[1], Z: info.Bounds[2]},
		Max: r3.Vector{X: info.Bounds[3], Y: info.Bounds[4], Z: info.Bounds[5]},
	}
}

// ChannelNames returns the dimensions that are not standard attributes, in schema order.
func (info *Info) ChannelNames() []string {
	return lo.FilterMap(info.Schema, func(d Dimension, _ int) (string, bool) {
		return d.Name, !ept.IsStandardDimension(d.Name)
	})
}

// ChannelDefs returns the descriptors of the requested channels, in request order. It
// rejects standard attributes, unknown names and repeats.
func (info *Info) ChannelDefs(names []string) ([]ept.FieldDescriptor, error) {
	if dups := lo.FindDuplicates(names); len(dups) > 0 {
		return nil, errors.Errorf("channels requested more than once: %v", dups)
	}
	defs := make([]ept.FieldDescriptor, 0, len(names))
	for _, name := range names {
		if ept.IsStandardDimension(name) {
			return nil, errors.Errorf("%q is a standard attribute, not a channel", name)
		}
		d, ok := info.dimension(name)
		if !ok {
			return nil, errors.Errorf("dataset has no dimension %q", name)
		}
		defs = append(defs, ept.FieldDescriptor{Name: d.Name, Kind: d.Type, Size: d.Size})
	}
	return defs, nil
}
