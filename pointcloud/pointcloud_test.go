package pointcloud

import (
	"bytes"
	"encoding/binary"
	"image/color"
	"math"
	"path/filepath"
	"strings"
	"testing"

	"github.com/edaniels/golog"
	"github.com/golang/geo/r3"
	"go.viam.com/test"

	"go.viam.com/ept/ept"
)

func TestPointCloudBasic(t *testing.T) {
	pc := New()
	test.That(t, pc.Size(), test.ShouldEqual, 0)

	p0 := r3.Vector{X: 1, Y: 2, Z: 3}
	test.That(t, pc.Set(p0, NewColoredData(color.NRGBA{255, 0, 0, 255})), test.ShouldBeNil)
	test.That(t, pc.Size(), test.ShouldEqual, 1)

	d, ok := pc.At(1, 2, 3)
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, d.HasColor(), test.ShouldBeTrue)
	_, ok = pc.At(1, 2, 4)
	test.That(t, ok, test.ShouldBeFalse)

	test.That(t, pc.Set(p0, NewValueData(7)), test.ShouldBeNil)
	test.That(t, pc.Size(), test.ShouldEqual, 1)
	d, ok = pc.At(1, 2, 3)
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, d.Value(), test.ShouldEqual, 7)

	test.That(t, pc.Set(r3.Vector{X: -1, Y: 5, Z: 0}, nil), test.ShouldBeNil)
	meta := pc.MetaData()
	test.That(t, meta.HasColor, test.ShouldBeTrue)
	test.That(t, meta.HasValue, test.ShouldBeTrue)
	test.That(t, meta.HasIntensity, test.ShouldBeFalse)
	test.That(t, meta.MinX, test.ShouldEqual, -1.0)
	test.That(t, meta.MaxX, test.ShouldEqual, 1.0)
	test.That(t, meta.MaxY, test.ShouldEqual, 5.0)

	err := pc.Set(r3.Vector{X: math.NaN()}, nil)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "non-finite")
	test.That(t, pc.Set(r3.Vector{Z: math.Inf(1)}, nil), test.ShouldNotBeNil)
	test.That(t, pc.Size(), test.ShouldEqual, 2)
}

func TestIterateBatches(t *testing.T) {
	pc := New()
	for i := 0; i < 10; i++ {
		test.That(t, pc.Set(r3.Vector{X: float64(i)}, nil), test.ShouldBeNil)
	}

	var seen []float64
	for b := 0; b < 3; b++ {
		pc.Iterate(3, b, func(p r3.Vector, d Data) bool {
			seen = append(seen, p.X)
			return true
		})
	}
	test.That(t, seen, test.ShouldResemble, []float64{0, 1, 2, 3, 4, 5, 6, 7, 8, 9})

	count := 0
	pc.Iterate(0, 0, func(p r3.Vector, d Data) bool {
		count++
		return count < 4
	})
	test.That(t, count, test.ShouldEqual, 4)

	test.That(t, CloudCentroid(pc), test.ShouldResemble, r3.Vector{X: 4.5})
	test.That(t, CloudCentroid(New()), test.ShouldResemble, r3.Vector{})
}

func decodeTestNode(t *testing.T) *ept.Result {
	t.Helper()
	s := ept.Schema{
		{Name: ept.DimX, Kind: ept.KindSigned, Size: 4},
		{Name: ept.DimY, Kind: ept.KindSigned, Size: 4},
		{Name: ept.DimZ, Kind: ept.KindSigned, Size: 4},
		{Name: ept.DimRed, Kind: ept.KindUnsigned, Size: 1},
		{Name: ept.DimGreen, Kind: ept.KindUnsigned, Size: 1},
		{Name: ept.DimBlue, Kind: ept.KindUnsigned, Size: 1},
		{Name: ept.DimIntensity, Kind: ept.KindUnsigned, Size: 4},
		{Name: ept.DimClassification, Kind: ept.KindUnsigned, Size: 1},
	}
	rw, err := ept.NewRecordWriter(s)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, rw.Append(map[string]float64{
		"X": 1, "Y": 2, "Z": 3, "Red": 10, "Green": 20, "Blue": 30, "Intensity": 500, "Classification": 2,
	}), test.ShouldBeNil)
	test.That(t, rw.Append(map[string]float64{
		"X": 4, "Y": 5, "Z": 6, "Red": 40, "Green": 50, "Blue": 60, "Intensity": 70000, "Classification": 6,
	}), test.ShouldBeNil)

	res, err := ept.Decode(ept.Request{
		Buffer: ept.NewOwnedBuffer(rw.Bytes()),
		Schema: s,
		Scale:  r3.Vector{X: 1, Y: 1, Z: 1},
	})
	test.That(t, err, test.ShouldBeNil)
	return res
}

func TestFromNode(t *testing.T) {
	res := decodeTestNode(t)

	pc, err := FromNode(res, r3.Vector{X: 10, Y: 20, Z: 30})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, pc.Size(), test.ShouldEqual, 2)

	d, ok := pc.At(11, 22, 33)
	test.That(t, ok, test.ShouldBeTrue)
	r, g, b := d.RGB255()
	test.That(t, []uint8{r, g, b}, test.ShouldResemble, []uint8{10, 20, 30})
	test.That(t, d.Intensity(), test.ShouldEqual, uint16(500))
	test.That(t, d.Value(), test.ShouldEqual, 2)

	// 70000 does not fit in uint16 and stored intensity is clamped.
	d, ok = pc.At(14, 25, 36)
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, d.Intensity(), test.ShouldEqual, uint16(65535))
	test.That(t, d.Value(), test.ShouldEqual, 6)

	meta := pc.MetaData()
	test.That(t, meta.HasColor, test.ShouldBeTrue)
	test.That(t, meta.HasIntensity, test.ShouldBeTrue)
	test.That(t, meta.MinX, test.ShouldEqual, 11.0)
	test.That(t, meta.MaxZ, test.ShouldEqual, 36.0)

	_, err = FromNode(&ept.Result{NumPoints: 1}, r3.Vector{})
	test.That(t, err, test.ShouldNotBeNil)
}

func TestToPCD(t *testing.T) {
	pc := New()
	test.That(t, pc.Set(r3.Vector{X: 1, Y: 2, Z: 3}, NewColoredData(color.NRGBA{1, 2, 3, 255})), test.ShouldBeNil)
	test.That(t, pc.Set(r3.Vector{X: -1.5, Y: 0, Z: 0.25}, nil), test.ShouldBeNil)

	var buf bytes.Buffer
	test.That(t, ToPCD(pc, &buf, PCDAscii), test.ShouldBeNil)
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	test.That(t, lines[0], test.ShouldEqual, "VERSION .7")
	test.That(t, lines[1], test.ShouldEqual, "FIELDS x y z rgb")
	test.That(t, lines[5], test.ShouldEqual, "WIDTH 2")
	test.That(t, lines[8], test.ShouldEqual, "POINTS 2")
	test.That(t, lines[9], test.ShouldEqual, "DATA ascii")
	test.That(t, lines[10], test.ShouldEqual, "1.000000 2.000000 3.000000 66051")
	test.That(t, lines[11], test.ShouldEqual, "-1.500000 0.000000 0.250000 0")

	buf.Reset()
	test.That(t, ToPCD(pc, &buf, PCDBinary), test.ShouldBeNil)
	header, data, found := strings.Cut(buf.String(), "DATA binary\n")
	test.That(t, found, test.ShouldBeTrue)
	test.That(t, header, test.ShouldContainSubstring, "SIZE 4 4 4 4")
	raw := []byte(data)
	test.That(t, len(raw), test.ShouldEqual, 32)
	test.That(t, math.Float32frombits(binary.LittleEndian.Uint32(raw[16:])), test.ShouldEqual, float32(-1.5))
	test.That(t, binary.LittleEndian.Uint32(raw[12:]), test.ShouldEqual, uint32(66051))

	test.That(t, ToPCD(pc, &buf, PCDType(9)), test.ShouldNotBeNil)
}

func TestToPCDNoColor(t *testing.T) {
	pc := New()
	test.That(t, pc.Set(r3.Vector{X: 1}, NewValueData(3)), test.ShouldBeNil)

	var buf bytes.Buffer
	test.That(t, ToPCD(pc, &buf, PCDAscii), test.ShouldBeNil)
	test.That(t, buf.String(), test.ShouldContainSubstring, "FIELDS x y z\n")
	test.That(t, buf.String(), test.ShouldContainSubstring, "DATA ascii\n1.000000 0.000000 0.000000\n")
}

func TestLASRoundTrip(t *testing.T) {
	logger := golog.NewTestLogger(t)
	res := decodeTestNode(t)
	pc, err := FromNode(res, r3.Vector{X: 100, Y: 200, Z: 300})
	test.That(t, err, test.ShouldBeNil)

	fn := filepath.Join(t.TempDir(), "node.las")
	test.That(t, WriteToLASFile(pc, fn), test.ShouldBeNil)

	back, err := NewFromFile(fn, logger)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, back.Size(), test.ShouldEqual, 2)
	test.That(t, back.MetaData().HasColor, test.ShouldBeTrue)

	var intensities []uint16
	back.Iterate(0, 0, func(p r3.Vector, d Data) bool {
		intensities = append(intensities, d.Intensity())
		return true
	})
	test.That(t, intensities, test.ShouldResemble, []uint16{500, 65535})

	_, err = NewFromFile(filepath.Join(t.TempDir(), "node.xyz"), logger)
	test.That(t, err, test.ShouldNotBeNil)
}
