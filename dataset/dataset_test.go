package dataset

import (
	"testing"

	"github.com/golang/geo/r3"
	"github.com/spf13/afero"
	"go.viam.com/test"

	"go.viam.com/ept/ept"
)

const testInfo = `{
	"bounds": [0, 0, 0, 64, 64, 64],
	"boundsConforming": [1, 2, 3, 60, 61, 62],
	"dataType": "binary",
	"hierarchyType": "json",
	"points": 1000,
	"schema": [
		{"name": "X", "type": "signed", "size": 4, "scale": 0.01, "offset": 32},
		{"name": "Y", "type": "signed", "size": 4, "scale": 0.02, "offset": 16},
		{"name": "Z", "type": "signed", "size": 4},
		{"name": "Intensity", "type": "unsigned", "size": 2},
		{"name": "GpsTime", "type": "float", "size": 8},
		{"name": "Amplitude", "type": "unsigned", "size": 2}
	],
	"span": 128,
	"srs": {"authority": "EPSG", "horizontal": "3857"},
	"version": "1.0.0"
}`

func TestParseInfo(t *testing.T) {
	info, err := ParseInfo([]byte(testInfo))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, info.Points, test.ShouldEqual, int64(1000))
	test.That(t, info.Span, test.ShouldEqual, 128)
	test.That(t, info.SRS.Horizontal, test.ShouldEqual, "3857")

	s := info.PointSchema()
	test.That(t, s.Stride(), test.ShouldEqual, 24)
	test.That(t, s[4], test.ShouldResemble, ept.FieldDescriptor{Name: "GpsTime", Kind: ept.KindFloat, Size: 8})

	q := info.Quantization()
	test.That(t, q.Scale, test.ShouldResemble, r3.Vector{X: 0.01, Y: 0.02, Z: 1})
	test.That(t, q.Offset, test.ShouldResemble, r3.Vector{X: 32, Y: 16, Z: 0})

	test.That(t, info.Cube().Max, test.ShouldResemble, r3.Vector{X: 64, Y: 64, Z: 64})
	test.That(t, info.ChannelNames(), test.ShouldResemble, []string{"GpsTime", "Amplitude"})
}

func TestParseInfoErrors(t *testing.T) {
	for _, tc := range []struct {
		name string
		doc  string
		err  string
	}{
		{"bad json", `{`, "error parsing"},
		{"laszip", `{"dataType": "laszip", "bounds": [0,0,0,1,1,1], "schema": [{"name":"X","type":"signed","size":4}]}`, "unsupported ept dataType"},
		{"no schema", `{"dataType": "binary", "bounds": [0,0,0,1,1,1]}`, "empty schema"},
		{"flat bounds", `{"dataType": "binary", "bounds": [0,0,0,1,0,1], "schema": [{"name":"X","type":"signed","size":4}]}`, "axis 1"},
		{"bad field", `{"dataType": "binary", "bounds": [0,0,0,1,1,1], "schema": [{"name":"X","type":"signed","size":3}]}`, "invalid dimension"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseInfo([]byte(tc.doc))
			test.That(t, err, test.ShouldNotBeNil)
			test.That(t, err.Error(), test.ShouldContainSubstring, tc.err)
		})
	}
}

func TestReadInfo(t *testing.T) {
	fs := afero.NewMemMapFs()
	test.That(t, afero.WriteFile(fs, "/data/ept.json", []byte(testInfo), 0o644), test.ShouldBeNil)
	info, err := ReadInfo(fs, "/data")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, info.DataType, test.ShouldEqual, DataTypeBinary)

	_, err = ReadInfo(fs, "/missing")
	test.That(t, err, test.ShouldNotBeNil)
}

func TestChannelDefs(t *testing.T) {
	info, err := ParseInfo([]byte(testInfo))
	test.That(t, err, test.ShouldBeNil)

	defs, err := info.ChannelDefs([]string{"Amplitude", "GpsTime"})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, defs, test.ShouldResemble, []ept.FieldDescriptor{
		{Name: "Amplitude", Kind: ept.KindUnsigned, Size: 2},
		{Name: "GpsTime", Kind: ept.KindFloat, Size: 8},
	})

	_, err = info.ChannelDefs([]string{"Intensity"})
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "standard attribute")

	_, err = info.ChannelDefs([]string{"Nope"})
	test.That(t, err, test.ShouldNotBeNil)

	_, err = info.ChannelDefs([]string{"GpsTime", "GpsTime"})
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "more than once")
}

func TestKey(t *testing.T) {
	k, err := ParseKey("2-1-3-0")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, k, test.ShouldResemble, Key{D: 2, X: 1, Y: 3, Z: 0})
	test.That(t, k.String(), test.ShouldEqual, "2-1-3-0")
	test.That(t, k.Parent(), test.ShouldResemble, Key{D: 1, X: 0, Y: 1, Z: 0})
	test.That(t, RootKey.Parent(), test.ShouldResemble, RootKey)
	test.That(t, RootKey.Child(5), test.ShouldResemble, Key{D: 1, X: 1, Y: 0, Z: 1})
	test.That(t, k.Child(7).Parent(), test.ShouldResemble, k)

	for _, bad := range []string{"", "1-2-3", "a-0-0-0", "1-2-0-0", "0-0-0--1"} {
		_, err := ParseKey(bad)
		test.That(t, err, test.ShouldNotBeNil)
	}
}

func TestKeyBounds(t *testing.T) {
	root := Bounds{Min: r3.Vector{X: -32, Y: 0, Z: 100}, Max: r3.Vector{X: 32, Y: 64, Z: 164}}
	test.That(t, RootKey.Bounds(root), test.ShouldResemble, root)

	b := Key{D: 2, X: 1, Y: 3, Z: 0}.Bounds(root)
	test.That(t, b.Min, test.ShouldResemble, r3.Vector{X: -16, Y: 48, Z: 100})
	test.That(t, b.Max, test.ShouldResemble, r3.Vector{X: 0, Y: 64, Z: 116})
	test.That(t, b.Size(), test.ShouldResemble, r3.Vector{X: 16, Y: 16, Z: 16})
	test.That(t, b.Contains(r3.Vector{X: -16, Y: 50, Z: 115}), test.ShouldBeTrue)
	test.That(t, b.Contains(r3.Vector{X: 0, Y: 50, Z: 115}), test.ShouldBeFalse)
}

func TestHierarchy(t *testing.T) {
	fs := afero.NewMemMapFs()
	test.That(t, afero.WriteFile(fs, HierarchyPath("/data", RootKey),
		[]byte(`{"0-0-0-0": 100, "1-1-0-0": 40, "1-0-0-0": 50, "2-0-0-0": -1}`), 0o644), test.ShouldBeNil)

	h, err := ReadHierarchy(fs, "/data", RootKey)
	test.That(t, err, test.ShouldBeNil)
	c, ok := h.Count(Key{D: 1, X: 1})
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, c, test.ShouldEqual, int64(40))
	test.That(t, h.Nodes(), test.ShouldResemble, []Key{{}, {D: 1}, {D: 1, X: 1}})
	test.That(t, h.Subtrees(), test.ShouldResemble, []Key{{D: 2}})

	sub, err := ParseHierarchy([]byte(`{"2-0-0-0": 7, "3-1-1-1": 3}`))
	test.That(t, err, test.ShouldBeNil)
	h.Merge(sub)
	test.That(t, h.Subtrees(), test.ShouldBeEmpty)
	test.That(t, h.Nodes(), test.ShouldHaveLength, 5)

	_, err = ParseHierarchy([]byte(`{"0-0-0-0": -2}`))
	test.That(t, err, test.ShouldNotBeNil)
	_, err = ParseHierarchy([]byte(`{"zero": 1}`))
	test.That(t, err, test.ShouldNotBeNil)

	test.That(t, NodePath("/data", Key{D: 1, X: 1}), test.ShouldEqual, "/data/ept-data/1-1-0-0.bin")
}
