package ept

import (
	"encoding/binary"
	"math"
)

type fieldType struct {
	kind Kind
	size int
}

// readFunc interprets the leading bytes of b as a number.
type readFunc func(b []byte) float64

var le = binary.LittleEndian

// readers holds every supported (kind, size) pair. 8 byte integers are read at full
// width and then converted to float64, so values beyond 2^53 lose precision.
var readers = map[fieldType]readFunc{
	{KindSigned, 1}:   func(b []byte) float64 { return float64(int8(b[0])) },
	{KindSigned, 2}:   func(b []byte) float64 { return float64(int16(le.Uint16(b))) },
	{KindSigned, 4}:   func(b []byte) float64 { return float64(int32(le.Uint32(b))) },
	{KindSigned, 8}:   func(b []byte) float64 { return float64(int64(le.Uint64(b))) },
	{KindUnsigned, 1}: func(b []byte) float64 { return float64(b[0]) },
	{KindUnsigned, 2}: func(b []byte) float64 { return float64(le.Uint16(b)) },
	{KindUnsigned, 4}: func(b []byte) float64 { return float64(le.Uint32(b)) },
	{KindUnsigned, 8}: func(b []byte) float64 { return float64(le.Uint64(b)) },
	{KindFloat, 4}:    func(b []byte) float64 { return float64(math.Float32frombits(le.Uint32(b))) },
	{KindFloat, 8}:    func(b []byte) float64 { return math.Float64frombits(le.Uint64(b)) },
}

// Extractor reads one field out of a point record.
type Extractor struct {
	offset int
	read   readFunc
}

// NewExtractor builds the reader for a resolved field.
func NewExtractor(f ResolvedField) (Extractor, error) {
	read, ok := readers[fieldType{f.Kind, f.Size}]
	if !ok {
		return Extractor{}, NewUnsupportedFieldError(f.FieldDescriptor)
	}
	return Extractor{offset: f.Offset, read: read}, nil
}

// Read returns the field's value for the record starting at base.
func (e Extractor) Read(buf []byte, base int) float64 {
	return e.read(buf[base+e.offset:])
}

// ValidateSchema checks that every field in s can be read.
func ValidateSchema(s Schema) error {
	for _, fd := range s {
		if _, ok := readers[fieldType{fd.Kind, fd.Size}]; !ok {
			return NewUnsupportedFieldError(fd)
		}
	}
	return nil
}

func extractorsFor(l Layout, names ...string) ([]Extractor, error) {
	out := make([]Extractor, 0, len(names))
	for _, name := range names {
		f, _ := l.Field(name)
		e, err := NewExtractor(f)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

// toUint wraps a number into an unsigned integer of the given bit width, truncating
// toward zero first. NaN and infinities become 0.
func toUint(v float64, bits uint) uint64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	modulus := math.Ldexp(1, int(bits))
	m := math.Mod(math.Trunc(v), modulus)
	if m < 0 {
		m += modulus
	}
	return uint64(m)
}

func toUint8(v float64) uint8 {
	return uint8(toUint(v, 8))
}

func toUint16(v float64) uint16 {
	return uint16(toUint(v, 16))
}
