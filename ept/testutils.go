package ept

import (
	"math"

	"github.com/pkg/errors"
)

// RecordWriter packs point records for a schema. It is meant for tests and tools that
// need to produce node buffers.
type RecordWriter struct {
	layout Layout
	buf    []byte
}

// NewRecordWriter returns a writer for s.
func NewRecordWriter(s Schema) (*RecordWriter, error) {
	if err := ValidateSchema(s); err != nil {
		return nil, err
	}
	return &RecordWriter{layout: Resolve(s)}, nil
}

// Append adds one record. values maps field names to values; missing fields are zero.
func (rw *RecordWriter) Append(values map[string]float64) error {
	rec := make([]byte, rw.layout.Stride())
	for name, v := range values {
		f, ok := rw.layout.Field(name)
		if !ok {
			return errors.Errorf("no field %q in schema", name)
		}
		putField(rec[f.Offset:], f.FieldDescriptor, v)
	}
	rw.buf = append(rw.buf, rec...)
	return nil
}

// Bytes returns the packed records.
func (rw *RecordWriter) Bytes() []byte {
	return rw.buf
}

func putField(b []byte, fd FieldDescriptor, v float64) {
	switch fd.Kind {
	case KindSigned:
		switch fd.Size {
		case 1:
			b[0] = byte(int8(v))
		case 2:
			le.PutUint16(b, uint16(int16(v)))
		case 4:
			le.PutUint32(b, uint32(int32(v)))
		case 8:
			le.PutUint64(b, uint64(int64(v)))
		}
	case KindUnsigned:
		switch fd.Size {
		case 1:
			b[0] = uint8(v)
		case 2:
			le.PutUint16(b, uint16(v))
		case 4:
			le.PutUint32(b, uint32(v))
		case 8:
			le.PutUint64(b, uint64(v))
		}
	case KindFloat:
		switch fd.Size {
		case 4:
			le.PutUint32(b, math.Float32bits(float32(v)))
		case 8:
			le.PutUint64(b, math.Float64bits(v))
		}
	}
}
