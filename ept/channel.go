package ept

import "math"

// Channel is a caller requested dimension copied verbatim out of every record. Values
// holds a slice whose element type matches the field: []int8, []int16, []int32, []int64,
// []uint8, []uint16, []uint32, []uint64, []float32 or []float64.
type Channel struct {
	Field  FieldDescriptor
	Values any
}

// Len returns the number of values in the channel.
func (c Channel) Len() int {
	switch v := c.Values.(type) {
	case []int8:
		return len(v)
	case []int16:
		return len(v)
	case []int32:
		return len(v)
	case []int64:
		return len(v)
	case []uint8:
		return len(v)
	case []uint16:
		return len(v)
	case []uint32:
		return len(v)
	case []uint64:
		return len(v)
	case []float32:
		return len(v)
	case []float64:
		return len(v)
	default:
		return 0
	}
}

// Float64 returns value i widened to a float64.
func (c Channel) Float64(i int) float64 {
	switch v := c.Values.(type) {
	case []int8:
		return float64(v[i])
	case []int16:
		return float64(v[i])
	case []int32:
		return float64(v[i])
	case []int64:
		return float64(v[i])
	case []uint8:
		return float64(v[i])
	case []uint16:
		return float64(v[i])
	case []uint32:
		return float64(v[i])
	case []uint64:
		return float64(v[i])
	case []float32:
		return float64(v[i])
	case []float64:
		return v[i]
	default:
		return math.NaN()
	}
}

// channelFill copies the channel value of the record at base into slot i.
type channelFill func(i int, buf []byte, base int)

func typedChannel[T any](offset, n int, read func([]byte) T) (any, channelFill) {
	vals := make([]T, n)
	return vals, func(i int, buf []byte, base int) {
		vals[i] = read(buf[base+offset:])
	}
}

func newChannel(f ResolvedField, n int) (Channel, channelFill, error) {
	var (
		vals any
		fill channelFill
		off  = f.Offset
	)
	switch (fieldType{f.Kind, f.Size}) {
	case fieldType{KindSigned, 1}:
		vals, fill = typedChannel(off, n, func(b []byte) int8 { return int8(b[0]) })
	case fieldType{KindSigned, 2}:
		vals, fill = typedChannel(off, n, func(b []byte) int16 { return int16(le.Uint16(b)) })
	case fieldType{KindSigned, 4}:
		vals, fill = typedChannel(off, n, func(b []byte) int32 { return int32(le.Uint32(b)) })
	case fieldType{KindSigned, 8}:
		vals, fill = typedChannel(off, n, func(b []byte) int64 { return int64(le.Uint64(b)) })
	case fieldType{KindUnsigned, 1}:
		vals, fill = typedChannel(off, n, func(b []byte) uint8 { return b[0] })
	case fieldType{KindUnsigned, 2}:
		vals, fill = typedChannel(off, n, le.Uint16)
	case fieldType{KindUnsigned, 4}:
		vals, fill = typedChannel(off, n, le.Uint32)
	case fieldType{KindUnsigned, 8}:
		vals, fill = typedChannel(off, n, le.Uint64)
	case fieldType{KindFloat, 4}:
		vals, fill = typedChannel(off, n, func(b []byte) float32 { return math.Float32frombits(le.Uint32(b)) })
	case fieldType{KindFloat, 8}:
		vals, fill = typedChannel(off, n, func(b []byte) float64 { return math.Float64frombits(le.Uint64(b)) })
	default:
		return Channel{}, nil, NewUnsupportedFieldError(f.FieldDescriptor)
	}
	return Channel{Field: f.FieldDescriptor, Values: vals}, fill, nil
}

// channelCompiler owns the requested channel buffers, in request order.
type channelCompiler struct {
	channels []Channel
	fills    []channelFill
}

func newChannelCompiler(l Layout, names []string, numPoints int) (*channelCompiler, error) {
	cc := &channelCompiler{
		channels: make([]Channel, 0, len(names)),
		fills:    make([]channelFill, 0, len(names)),
	}
	for _, name := range names {
		f, ok := l.Field(name)
		if !ok {
			return nil, &UnknownChannelError{Name: name}
		}
		ch, fill, err := newChannel(f, numPoints)
		if err != nil {
			return nil, err
		}
		cc.channels = append(cc.channels, ch)
		cc.fills = append(cc.fills, fill)
	}
	return cc, nil
}

func (cc *channelCompiler) write(i int, buf []byte, base int) {
	for _, fill := range cc.fills {
		fill(i, buf, base)
	}
}
