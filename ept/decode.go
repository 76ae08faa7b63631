package ept

import (
	"github.com/edaniels/golog"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
)

// MisalignedPolicy decides what happens when a buffer is not a whole number of records.
type MisalignedPolicy int

const (
	// MisalignedReject fails the decode with a MisalignedBufferError.
	MisalignedReject MisalignedPolicy = iota
	// MisalignedTruncate drops the trailing partial record and logs a warning.
	MisalignedTruncate
)

func (p MisalignedPolicy) String() string {
	switch p {
	case MisalignedReject:
		return "reject"
	case MisalignedTruncate:
		return "truncate"
	default:
		return "unknown"
	}
}

// ParseMisalignedPolicy parses "reject" or "truncate". The empty string means reject.
func ParseMisalignedPolicy(s string) (MisalignedPolicy, error) {
	switch s {
	case "", "reject":
		return MisalignedReject, nil
	case "truncate":
		return MisalignedTruncate, nil
	default:
		return MisalignedReject, errors.Errorf("unknown misaligned buffer policy %q", s)
	}
}

// Request is everything needed to decode one node.
type Request struct {
	// Buffer is taken by the decode; it cannot be decoded twice.
	Buffer *OwnedBuffer
	Schema Schema
	Scale  r3.Vector
	Offset r3.Vector
	// Mins is the node's minimum corner, subtracted from every position.
	Mins r3.Vector
	// Channels are extra dimensions to copy out, in the order they should be returned.
	Channels []string
}

// Options configure a Decoder.
type Options struct {
	Misaligned MisalignedPolicy
}

// A Decoder turns requests into results. It holds no per-decode state and is safe to use
// from many goroutines at once.
type Decoder struct {
	opts   Options
	logger golog.Logger
}

// NewDecoder returns a Decoder. logger may be nil.
func NewDecoder(opts Options, logger golog.Logger) *Decoder {
	return &Decoder{opts: opts, logger: logger}
}

// Decode decodes req with the default options.
func Decode(req Request) (*Result, error) {
	return NewDecoder(Options{}, nil).Decode(req)
}

// pipelines are the per-attribute outputs of one decode. A nil field is an attribute
// whose source dimensions are missing.
type pipelines struct {
	geometry *geometryAccumulator
	colors   *colorNormalizer
	channels *channelCompiler

	intensityEx, classificationEx, returnNumberEx, numberOfReturnsEx, pointSourceIDEx *Extractor

	position        []float32
	color           []uint8
	intensity       []float32
	classification  []uint8
	returnNumber    []uint8
	numberOfReturns []uint8
	pointSourceID   []uint16
}

func scalarExtractor(l Layout, name string) (*Extractor, error) {
	f, ok := l.Field(name)
	if !ok {
		return nil, nil
	}
	e, err := NewExtractor(f)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func newPipelines(l Layout, req Request, numPoints int) (*pipelines, error) {
	p := &pipelines{}
	var err error
	if l.Has(DimX, DimY, DimZ) {
		q := Quantization{Scale: req.Scale, Offset: req.Offset}
		if p.geometry, err = newGeometryAccumulator(l, q, req.Mins, numPoints); err != nil {
			return nil, err
		}
		p.position = make([]float32, 3*numPoints)
	}
	if l.Has(DimRed, DimGreen, DimBlue) {
		if p.colors, err = newColorNormalizer(l); err != nil {
			return nil, err
		}
		p.color = make([]uint8, 4*numPoints)
	}
	for _, s := range []struct {
		name string
		ex   **Extractor
	}{
		{DimIntensity, &p.intensityEx},
		{DimClassification, &p.classificationEx},
		{DimReturnNumber, &p.returnNumberEx},
		{DimNumberOfReturns, &p.numberOfReturnsEx},
		{DimPointSourceID, &p.pointSourceIDEx},
	} {
		if *s.ex, err = scalarExtractor(l, s.name); err != nil {
			return nil, err
		}
	}
	if p.intensityEx != nil {
		p.intensity = make([]float32, numPoints)
	}
	if p.classificationEx != nil {
		p.classification = make([]uint8, numPoints)
	}
	if p.returnNumberEx != nil {
		p.returnNumber = make([]uint8, numPoints)
	}
	if p.numberOfReturnsEx != nil {
		p.numberOfReturns = make([]uint8, numPoints)
	}
	if p.pointSourceIDEx != nil {
		p.pointSourceID = make([]uint16, numPoints)
	}
	if p.channels, err = newChannelCompiler(l, req.Channels, numPoints); err != nil {
		return nil, err
	}
	return p, nil
}

// decodePoint runs every active pipeline on record i.
func (p *pipelines) decodePoint(buf []byte, i, base int) {
	p.channels.write(i, buf, base)
	if p.geometry != nil {
		p.geometry.write(p.position[3*i:3*i+3], buf, base)
	}
	if p.colors != nil {
		p.colors.write(p.color[4*i:4*i+4], buf, base)
	}
	if p.intensityEx != nil {
		p.intensity[i] = float32(p.intensityEx.Read(buf, base))
	}
	if p.classificationEx != nil {
		p.classification[i] = toUint8(p.classificationEx.Read(buf, base))
	}
	if p.returnNumberEx != nil {
		p.returnNumber[i] = toUint8(p.returnNumberEx.Read(buf, base))
	}
	if p.numberOfReturnsEx != nil {
		p.numberOfReturns[i] = toUint8(p.numberOfReturnsEx.Read(buf, base))
	}
	if p.pointSourceIDEx != nil {
		p.pointSourceID[i] = toUint16(p.pointSourceIDEx.Read(buf, base))
	}
}

// Decode takes ownership of req.Buffer and decodes it. It either returns a complete
// Result or an error and no output at all.
func (d *Decoder) Decode(req Request) (*Result, error) {
	if req.Buffer == nil {
		return nil, errors.New("decode request has no buffer")
	}
	buf, err := req.Buffer.take()
	if err != nil {
		return nil, err
	}

	layout := Resolve(req.Schema)
	stride := layout.Stride()
	if stride <= 0 {
		return nil, ErrEmptySchema
	}
	if err := ValidateSchema(req.Schema); err != nil {
		return nil, err
	}

	if rem := len(buf) % stride; rem != 0 {
		if d.opts.Misaligned != MisalignedTruncate {
			return nil, &MisalignedBufferError{Length: len(buf), Stride: stride}
		}
		if d.logger != nil {
			d.logger.Warnw("dropping trailing partial point record",
				"length", len(buf), "stride", stride, "dropped", rem)
		}
	}
	numPoints := len(buf) / stride

	p, err := newPipelines(layout, req, numPoints)
	if err != nil {
		return nil, err
	}
	if p.colors != nil {
		p.colors.scan(buf, stride, numPoints)
	}
	for i := 0; i < numPoints; i++ {
		p.decodePoint(buf, i, i*stride)
	}
	return packageResult(numPoints, p), nil
}
