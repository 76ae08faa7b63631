// Package ept decodes Entwine Point Tile binary nodes into typed attribute buffers.
//
// A node is a tightly packed sequence of little-endian point records whose layout is
// described at runtime by a Schema. Decoding is a pure, synchronous transformation from
// a Request to a Result and holds no state between calls.
package ept

import "fmt"

// Kind is the numeric interpretation of a field.
type Kind string

// The field kinds a schema may declare.
const (
	KindSigned   Kind = "signed"
	KindUnsigned Kind = "unsigned"
	KindFloat    Kind = "float"
)

// Names of the dimensions decoded into the standard attribute buffers.
const (
	DimX               = "X"
	DimY               = "Y"
	DimZ               = "Z"
	DimRed             = "Red"
	DimGreen           = "Green"
	DimBlue            = "Blue"
	DimIntensity       = "Intensity"
	DimClassification  = "Classification"
	DimReturnNumber    = "ReturnNumber"
	DimNumberOfReturns = "NumberOfReturns"
	DimPointSourceID   = "PointSourceId"
)

// standardDims are never exposed as channels.
var standardDims = map[string]bool{
	DimX: true, DimY: true, DimZ: true,
	DimRed: true, DimGreen: true, DimBlue: true,
	DimIntensity: true, DimClassification: true, DimReturnNumber: true,
	DimNumberOfReturns: true, DimPointSourceID: true,
}

// IsStandardDimension reports whether name feeds one of the fixed attribute buffers.
func IsStandardDimension(name string) bool {
	return standardDims[name]
}

// FieldDescriptor describes one named field of a point record.
type FieldDescriptor struct {
	Name string `json:"name"`
	Kind Kind   `json:"type"`
	Size int    `json:"size"`
}

func (fd FieldDescriptor) String() string {
	return fmt.Sprintf(`{"name":%q,"type":%q,"size":%d}`, fd.Name, fd.Kind, fd.Size)
}

// Schema is the ordered list of fields making up a point record.
type Schema []FieldDescriptor

// Stride returns the number of bytes in one point record.
func (s Schema) Stride() int {
	stride := 0
	for _, fd := range s {
		stride += fd.Size
	}
	return stride
}

// ResolvedField is a field together with its byte offset inside a record.
type ResolvedField struct {
	FieldDescriptor
	Offset int
}

// Layout maps field names to their resolved position in a record.
type Layout struct {
	fields []ResolvedField
	byName map[string]int
	stride int
}

// Resolve computes the offset of every field and the record stride. When two fields share
// a name the first one wins for lookups; later duplicates still occupy their bytes.
func Resolve(s Schema) Layout {
	l := Layout{
		fields: make([]ResolvedField, 0, len(s)),
		byName: make(map[string]int, len(s)),
	}
	offset := 0
	for _, fd := range s {
		if _, ok := l.byName[fd.Name]; !ok {
			l.byName[fd.Name] = len(l.fields)
		}
		l.fields = append(l.fields, ResolvedField{FieldDescriptor: fd, Offset: offset})
		offset += fd.Size
	}
	l.stride = offset
	return l
}

// Stride returns the total bytes per record.
func (l Layout) Stride() int {
	return l.stride
}

// Fields returns the resolved fields in schema order.
func (l Layout) Fields() []ResolvedField {
	return l.fields
}

// Field returns the resolved field for name.
func (l Layout) Field(name string) (ResolvedField, bool) {
	idx, ok := l.byName[name]
	if !ok {
		return ResolvedField{}, false
	}
	return l.fields[idx], true
}

// Has reports whether every name is present in the layout.
func (l Layout) Has(names ...string) bool {
	for _, name := range names {
		if _, ok := l.byName[name]; !ok {
			return false
		}
	}
	return true
}
