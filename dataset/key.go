package dataset

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
)

// Bounds is an axis aligned cube of the octree.
type Bounds struct {
	Min r3.Vector
	Max r3.Vector
}

// Size returns the edge lengths of b.
func (b Bounds) Size() r3.Vector {
	return b.Max.Sub(b.Min)
}

// Contains reports whether p is inside b, inclusive of the minimum faces only.
func (b Bounds) Contains(p r3.Vector) bool {
	return p.X >= b.Min.X && p.X < b.Max.X &&
		p.Y >= b.Min.Y && p.Y < b.Max.Y &&
		p.Z >= b.Min.Z && p.Z < b.Max.Z
}

// Key addresses one node: its depth and its integer position at that depth.
type Key struct {
	D, X, Y, Z int
}

// RootKey is the key of the octree root.
var RootKey = Key{}

// ParseKey parses a "D-X-Y-Z" node name.
func ParseKey(s string) (Key, error) {
	parts := strings.Split(s, "-")
	if len(parts) != 4 {
		return Key{}, errors.Errorf("invalid node key %q, expected D-X-Y-Z", s)
	}
	var vals [4]int
	for i, p := range parts {
		v, err := strconv.Atoi(p)
		if err != nil || v < 0 {
			return Key{}, errors.Errorf("invalid node key %q: component %q", s, p)
		}
		vals[i] = v
	}
	k := Key{D: vals[0], X: vals[1], Y: vals[2], Z: vals[3]}
	if !k.valid() {
		return Key{}, errors.Errorf("invalid node key %q: position out of range for depth %d", s, k.D)
	}
	return k, nil
}

func (k Key) valid() bool {
	if k.D >= 62 {
		return false
	}
	limit := 1 << k.D
	return k.X < limit && k.Y < limit && k.Z < limit
}

func (k Key) String() string {
	return fmt.Sprintf("%d-%d-%d-%d", k.D, k.X, k.Y, k.Z)
}

// Child returns the child in octant dir, where bit 0 selects +X, bit 1 +Y and bit 2 +Z.
func (k Key) Child(dir int) Key {
	return Key{
		D: k.D + 1,
		X: 2*k.X + dir&1,
		Y: 2*k.Y + (dir>>1)&1,
		Z: 2*k.Z + (dir>>2)&1,
	}
}

// Parent returns the key one level up. The root is its own parent.
func (k Key) Parent() Key {
	if k.D == 0 {
		return k
	}
	return Key{D: k.D - 1, X: k.X / 2, Y: k.Y / 2, Z: k.Z / 2}
}

// Bounds returns the cube of k inside the root cube.
func (k Key) Bounds(root Bounds) Bounds {
	cells := math.Ldexp(1, k.D)
	size := root.Size().Mul(1 / cells)
	min := r3.Vector{
		X: root.Min.X + float64(k.X)*size.X,
		Y: root.Min.Y + float64(k.Y)*size.Y,
		Z: root.Min.Z + float64(k.Z)*size.Z,
	}
	return Bounds{Min: min, Max: min.Add(size)}
}
