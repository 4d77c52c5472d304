package labeltree

import (
	"fmt"
	"strings"
)

// CheckState is the tri-state visibility of a display node. Group nodes
// aggregate the states of their children, so a group whose children
// disagree is PartiallyChecked.
type CheckState int

const (
	Unchecked CheckState = iota
	PartiallyChecked
	Checked
)

// String returns the display name of the check state.
func (cs CheckState) String() string {
	switch cs {
	case Checked:
		return "Checked"
	case PartiallyChecked:
		return "PartiallyChecked"
	default:
		return "Unchecked"
	}
}

// ItemType tags a display node.
type ItemType int

const (
	// ItemTypeLabel marks a node that may carry a label attachment and is
	// toggled on and off by the user.
	ItemTypeLabel ItemType = iota
	// ItemTypeHierarchy marks a pure grouping node from the hierarchy with
	// no label of its own.
	ItemTypeHierarchy
)

// NoLabelKey is the label key of a display node with no direct label.
const NoLabelKey int32 = -1

// LabelTreeItem is one node of the display tree built by a SelectionModel:
// a hierarchy group or label leaf annotated with color, check state,
// tooltip, and the clusters resolved for its label key. A parent
// exclusively owns its children.
type LabelTreeItem struct {
	itemType   ItemType
	name       string
	ontologyID string
	labelKey   int32
	rgba       [4]uint8
	checkState CheckState
	enabled    bool
	tooltip    string
	children   []*LabelTreeItem

	rawClusters           []Cluster
	mergedClusters        []Cluster
	subtreeMergedClusters []Cluster
}

// defaultItemRGBA is opaque white, used when no label resolves for a node.
var defaultItemRGBA = [4]uint8{255, 255, 255, 255}

// newLabelItem creates a display node that can carry a label attachment.
// labelKey is NoLabelKey when the name resolved to no label.
func newLabelItem(name, ontologyID string, labelKey int32, rgba [4]uint8) *LabelTreeItem {
	return &LabelTreeItem{
		itemType:   ItemTypeLabel,
		name:       name,
		ontologyID: ontologyID,
		labelKey:   labelKey,
		rgba:       rgba,
		checkState: Checked,
		enabled:    true,
	}
}

// newHierarchyItem creates a pure grouping node.
func newHierarchyItem(name, ontologyID string) *LabelTreeItem {
	return &LabelTreeItem{
		itemType:   ItemTypeHierarchy,
		name:       name,
		ontologyID: ontologyID,
		labelKey:   NoLabelKey,
		rgba:       defaultItemRGBA,
		checkState: Checked,
		enabled:    true,
	}
}

// Name returns the display name.
func (it *LabelTreeItem) Name() string { return it.name }

// OntologyID returns the opaque external identifier from the hierarchy.
func (it *LabelTreeItem) OntologyID() string { return it.ontologyID }

// LabelKey returns the attached label-table key, or NoLabelKey.
func (it *LabelTreeItem) LabelKey() int32 { return it.labelKey }

// Type returns the node's tag.
func (it *LabelTreeItem) Type() ItemType { return it.itemType }

// RGBA returns the node's color as bytes.
func (it *LabelTreeItem) RGBA() [4]uint8 { return it.rgba }

// Children returns the node's children in display order.
func (it *LabelTreeItem) Children() []*LabelTreeItem { return it.children }

// HasChildren reports whether the node has children.
func (it *LabelTreeItem) HasChildren() bool { return len(it.children) > 0 }

// IsEnabled reports whether the node is interactive. Inert nodes (no label,
// no clusters, no children) are disabled.
func (it *LabelTreeItem) IsEnabled() bool { return it.enabled }

// ToolTip returns the accumulated tooltip text.
func (it *LabelTreeItem) ToolTip() string { return it.tooltip }

// AppendToToolTip appends a line to the node's tooltip.
func (it *LabelTreeItem) AppendToToolTip(text string) {
	if it.tooltip != "" {
		it.tooltip += "\n"
	}
	it.tooltip += text
}

// CheckState returns the node's tri-state.
func (it *LabelTreeItem) CheckState() CheckState { return it.checkState }

// SetCheckState sets the node's tri-state without touching its children.
func (it *LabelTreeItem) SetCheckState(state CheckState) { it.checkState = state }

func (it *LabelTreeItem) appendChild(child *LabelTreeItem) {
	it.children = append(it.children, child)
}

// SetAllChildrenChecked sets every descendant to checked or unchecked.
func (it *LabelTreeItem) SetAllChildrenChecked(checked bool) {
	state := Unchecked
	if checked {
		state = Checked
	}
	for _, child := range it.children {
		child.checkState = state
		child.SetAllChildrenChecked(checked)
	}
}

// SetCheckStateFromChildren recomputes the subtree's check states bottom-up
// and returns this node's resulting state. A leaf's own state is
// authoritative. A group is Checked when all children are, Unchecked when
// none are, and PartiallyChecked when they disagree.
func (it *LabelTreeItem) SetCheckStateFromChildren() CheckState {
	if len(it.children) == 0 {
		return it.checkState
	}
	numChecked := 0
	numUnchecked := 0
	partial := false
	for _, child := range it.children {
		switch child.SetCheckStateFromChildren() {
		case Checked:
			numChecked++
		case Unchecked:
			numUnchecked++
		default:
			partial = true
		}
	}
	switch {
	case partial, numChecked > 0 && numUnchecked > 0:
		it.checkState = PartiallyChecked
	case numChecked > 0:
		it.checkState = Checked
	default:
		it.checkState = Unchecked
	}
	return it.checkState
}

// ThisAndAllDescendants returns the node and every descendant, depth-first.
func (it *LabelTreeItem) ThisAndAllDescendants() []*LabelTreeItem {
	items := []*LabelTreeItem{it}
	for _, child := range it.children {
		items = append(items, child.ThisAndAllDescendants()...)
	}
	return items
}

// ThisAndAllDescendantsOfType returns the node and every descendant whose
// tag matches itemType, depth-first.
func (it *LabelTreeItem) ThisAndAllDescendantsOfType(itemType ItemType) []*LabelTreeItem {
	var items []*LabelTreeItem
	if it.itemType == itemType {
		items = append(items, it)
	}
	for _, child := range it.children {
		items = append(items, child.ThisAndAllDescendantsOfType(itemType)...)
	}
	return items
}

// setRawClusters attaches the clusters resolved for this node's label key
// and derives the node's own merged view from them.
func (it *LabelTreeItem) setRawClusters(clusters []*Cluster) {
	it.rawClusters = make([]Cluster, 0, len(clusters))
	for _, c := range clusters {
		it.rawClusters = append(it.rawClusters, NewCluster(c.Key, c.Name, c.Location, c.coords))
	}
	it.mergedClusters = mergeClusterList(it.name, it.labelKey, it.rawClusters)
}

// RawClusters returns the clusters attached to this node's exact key.
func (it *LabelTreeItem) RawClusters() []Cluster { return it.rawClusters }

// MergedClusters returns this node's clusters consolidated to at most one
// per hemisphere (Central clusters split first).
func (it *LabelTreeItem) MergedClusters() []Cluster { return it.mergedClusters }

// SubtreeMergedClusters returns the own-plus-descendant merged cluster set,
// the aggregate region geometry shown at this tree level. Valid after the
// owning model has built its tree.
func (it *LabelTreeItem) SubtreeMergedClusters() []Cluster { return it.subtreeMergedClusters }

// updateSubtreeMergedClusters computes the subtree aggregate bottom-up:
// all raw clusters below this node, consolidated per hemisphere and named
// after this node.
func (it *LabelTreeItem) updateSubtreeMergedClusters() {
	var subtreeRaw []Cluster
	it.collectRawClusters(&subtreeRaw)
	it.subtreeMergedClusters = mergeClusterList(it.name, it.labelKey, subtreeRaw)
	for _, child := range it.children {
		child.updateSubtreeMergedClusters()
	}
}

func (it *LabelTreeItem) collectRawClusters(out *[]Cluster) {
	*out = append(*out, it.rawClusters...)
	for _, child := range it.children {
		child.collectRawClusters(out)
	}
}

// mergeClusterList consolidates clusters into at most one per location
// bucket, splitting Central clusters into left and right parts first. The
// merged clusters take the given name and key, since the inputs may span
// several labels when aggregating a subtree.
func mergeClusterList(name string, key int32, clusters []Cluster) []Cluster {
	if len(clusters) == 0 {
		return nil
	}
	var buckets [4]*Cluster
	fold := func(c Cluster) {
		if buckets[c.Location] == nil {
			merged := NewCluster(key, name, c.Location, c.coords)
			buckets[c.Location] = &merged
		} else {
			buckets[c.Location].MergeCoordinates(c)
		}
	}
	for i := range clusters {
		c := &clusters[i]
		if c.Location == LocationCentral {
			for _, part := range c.SplitIntoRightAndLeft() {
				fold(part)
			}
			continue
		}
		fold(*c)
	}
	var out []Cluster
	for _, loc := range []LocationType{LocationUnknown, LocationCentral, LocationLeft, LocationRight} {
		if buckets[loc] != nil {
			out = append(out, *buckets[loc])
		}
	}
	return out
}

// FormattedString returns the subtree as indented text for diagnostics.
func (it *LabelTreeItem) FormattedString(indentation string) string {
	var sb strings.Builder
	it.formatInto(&sb, indentation)
	return strings.TrimSuffix(sb.String(), "\n")
}

func (it *LabelTreeItem) formatInto(sb *strings.Builder, indentation string) {
	if it.labelKey != NoLabelKey {
		fmt.Fprintf(sb, "%s%s (key %d, %s)\n", indentation, it.name, it.labelKey, it.checkState)
	} else {
		fmt.Fprintf(sb, "%s%s (%s)\n", indentation, it.name, it.checkState)
	}
	for _, child := range it.children {
		child.formatInto(sb, indentation+"   ")
	}
}
