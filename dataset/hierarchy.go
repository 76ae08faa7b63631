package dataset

import (
	"encoding/json"
	"path"
	"sort"

	"github.com/pkg/errors"
	"github.com/samber/lo"
	"github.com/spf13/afero"
)

// HierarchyDir is the directory holding hierarchy files.
const HierarchyDir = "ept-hierarchy"

// DataDir is the directory holding node files.
const DataDir = "ept-data"

// subtreeMarker is the point count that marks a node whose subtree lives in its own
// hierarchy file.
const subtreeMarker = -1

// Hierarchy maps node keys to their point counts.
type Hierarchy struct {
	counts map[Key]int64
}

// ParseHierarchy parses one ept-hierarchy JSON document.
func ParseHierarchy(data []byte) (*Hierarchy, error) {
	var raw map[string]int64
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, errors.Wrap(err, "error parsing hierarchy")
	}
	h := &Hierarchy{counts: make(map[Key]int64, len(raw))}
	for name, count := range raw {
		k, err := ParseKey(name)
		if err != nil {
			return nil, err
		}
		if count < subtreeMarker {
			return nil, errors.Errorf("node %s has invalid point count %d", name, count)
		}
		h.counts[k] = count
	}
	return h, nil
}

// ReadHierarchy reads the hierarchy file rooted at k from the dataset at root.
func ReadHierarchy(fs afero.Fs, root string, k Key) (*Hierarchy, error) {
	data, err := afero.ReadFile(fs, HierarchyPath(root, k))
	if err != nil {
		return nil, err
	}
	return ParseHierarchy(data)
}

// HierarchyPath returns the location of the hierarchy file for k.
func HierarchyPath(root string, k Key) string {
	return path.Join(root, HierarchyDir, k.String()+".json")
}

// NodePath returns the location of the binary node file for k.
func NodePath(root string, k Key) string {
	return path.Join(root, DataDir, k.String()+".bin")
}

// Count returns the number of points in k and whether k is listed.
func (h *Hierarchy) Count(k Key) (int64, bool) {
	c, ok := h.counts[k]
	return c, ok
}

// Subtrees returns keys whose descendants are described by another hierarchy file.
func (h *Hierarchy) Subtrees() []Key {
	return sortKeys(lo.Keys(lo.PickByValues(h.counts, []int64{subtreeMarker})))
}

// Nodes returns every key with points, ordered by depth then position.
func (h *Hierarchy) Nodes() []Key {
	return sortKeys(lo.Keys(lo.OmitByValues(h.counts, []int64{subtreeMarker})))
}

// Merge adds the entries of other, replacing subtree markers with real counts.
func (h *Hierarchy) Merge(other *Hierarchy) {
	for k, c := range other.counts {
		if existing, ok := h.counts[k]; ok && existing != subtreeMarker && c == subtreeMarker {
			continue
		}
		h.counts[k] = c
	}
}

func sortKeys(keys []Key) []Key {
	sort.Slice(keys, func(i, j int) bool {
		a, b := keys[i], keys[j]
		if a.D != b.D {
			return a.D < b.D
		}
		if a.X != b.X {
			return a.X < b.X
		}
		if a.Y != b.Y {
			return a.Y < b.Y
		}
		return a.Z < b.Z
	})
	return keys
}
