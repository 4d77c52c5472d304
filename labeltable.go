package labeltree

import (
	"fmt"
	"sort"
)

// Label is one entry of a LabelTable: an integer key, a name, and an RGBA
// color with components in [0, 1].
type Label struct {
	Key   int32
	Name  string
	Red   float32
	Green float32
	Blue  float32
	Alpha float32
}

// RGBABytes returns the label color quantized to four bytes, clamping each
// component into [0, 255].
func (l *Label) RGBABytes() [4]uint8 {
	var rgba [4]uint8
	for i, f := range [4]float32{l.Red, l.Green, l.Blue, l.Alpha} {
		c := int32(f * 255.0)
		if c > 255 {
			c = 255
		}
		if c < 0 {
			c = 0
		}
		rgba[i] = uint8(c)
	}
	return rgba
}

// LabelTable is a flat mapping between integer label keys and names, with a
// color per label. Keys are unique; names are not required to be, and
// name lookups resolve to the first label added with that name. Key 0 is
// the reserved "unassigned" label, present from construction and excluded
// from all mismatch analysis.
type LabelTable struct {
	byKey         map[int32]*Label
	byName        map[string]*Label
	unassignedKey int32
}

// UnassignedLabelName is the name of the reserved unassigned label.
const UnassignedLabelName = "???"

// NewLabelTable returns a table containing only the unassigned label
// (key 0, name "???", transparent black).
func NewLabelTable() *LabelTable {
	lt := &LabelTable{
		byKey:  make(map[int32]*Label),
		byName: make(map[string]*Label),
	}
	unassigned := &Label{Key: 0, Name: UnassignedLabelName}
	lt.byKey[unassigned.Key] = unassigned
	lt.byName[unassigned.Name] = unassigned
	return lt
}

// AddLabel inserts a label. The key must not already be in the table.
func (lt *LabelTable) AddLabel(key int32, name string, red, green, blue, alpha float32) error {
	if _, ok := lt.byKey[key]; ok {
		return fmt.Errorf("labeltree: label key %d is already in the table", key)
	}
	label := &Label{Key: key, Name: name, Red: red, Green: green, Blue: blue, Alpha: alpha}
	lt.byKey[key] = label
	if _, ok := lt.byName[name]; !ok {
		lt.byName[name] = label
	}
	return nil
}

// LabelWithKey returns the label with the given key, or nil.
func (lt *LabelTable) LabelWithKey(key int32) *Label { return lt.byKey[key] }

// LabelWithName returns the first label added with the given name, or nil.
func (lt *LabelTable) LabelWithName(name string) *Label { return lt.byName[name] }

// LabelName returns the name of the label with the given key, or the empty
// string if there is none.
func (lt *LabelTable) LabelName(key int32) string {
	if l := lt.byKey[key]; l != nil {
		return l.Name
	}
	return ""
}

// UnassignedLabelKey returns the key of the reserved unassigned label.
func (lt *LabelTable) UnassignedLabelKey() int32 { return lt.unassignedKey }

// KeysSortedByName returns every label key ordered by label name, with key
// order breaking ties between labels sharing a name.
func (lt *LabelTable) KeysSortedByName() []int32 {
	labels := make([]*Label, 0, len(lt.byKey))
	for _, l := range lt.byKey {
		labels = append(labels, l)
	}
	sort.Slice(labels, func(i, j int) bool {
		if labels[i].Name != labels[j].Name {
			return labels[i].Name < labels[j].Name
		}
		return labels[i].Key < labels[j].Key
	})
	keys := make([]int32, len(labels))
	for i, l := range labels {
		keys[i] = l.Key
	}
	return keys
}
