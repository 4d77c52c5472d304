package labeltree

import (
	"log/slog"
	"sort"
	"strings"
)

// SelectionStore is an external per-label selection store, such as an
// application's per-display-context label visibility table. A store is
// bound to its display context by the caller before being handed to
// SynchronizeSelections.
type SelectionStore interface {
	IsLabelSelected(key int32) bool
	SetLabelSelected(key int32, selected bool)
}

// SelectionModel reconciles a label hierarchy with a flat label table and
// an optional cluster container into one annotated, selectable display
// tree. The tree is built once at construction; any structural change to
// the inputs requires building a new model. The model is the only
// structure a presentation layer needs to consume.
type SelectionModel struct {
	fileAndMapName string
	labelTable     *LabelTable
	logMismatches  bool

	valid bool
	root  *LabelTreeItem

	// keyToItem gives O(1) "is this label checked" lookups by key without
	// re-walking the tree.
	keyToItem map[int32]*LabelTreeItem

	missingLabelNames    map[string]struct{}
	hierarchyParentNames map[string]struct{}
	mismatchReport       string
}

// labelTableOnlyGroupName is the synthesized top-level group that receives
// labels present in the label table but absent from the hierarchy.
const labelTableOnlyGroupName = "Label Table Only"

// Tooltip annotations attached during reconciliation.
const (
	missingLabelToolTip     = "There is no label in the label table for this name"
	noBrainordinatesToolTip = "This label is not used by any brainordinates"
)

// NewSelectionModel builds the display tree for the given hierarchy, label
// table and cluster container (which may be nil). fileAndMapName names the
// inputs in the mismatch report. When logMismatches is set and the inputs
// disagree, the aggregated report is logged once.
func NewSelectionModel(fileAndMapName string, hierarchy *Hierarchy, labelTable *LabelTable, clusters *ClusterContainer, logMismatches bool) *SelectionModel {
	m := &SelectionModel{
		fileAndMapName:       fileAndMapName,
		labelTable:           labelTable,
		logMismatches:        logMismatches,
		root:                 newHierarchyItem("", ""),
		keyToItem:            make(map[int32]*LabelTreeItem),
		missingLabelNames:    make(map[string]struct{}),
		hierarchyParentNames: make(map[string]struct{}),
	}
	m.build(hierarchy, clusters)
	return m
}

// IsValid reports whether the model was built from a non-empty hierarchy.
func (m *SelectionModel) IsValid() bool { return m.valid }

// MismatchReport returns the human-readable summary of hierarchy/label
// disagreements found while building, or the empty string if none.
func (m *SelectionModel) MismatchReport() string { return m.mismatchReport }

func (m *SelectionModel) build(hierarchy *Hierarchy, clusters *ClusterContainer) {
	if hierarchy.IsEmpty() {
		return
	}

	hierarchyRoot := hierarchy.Root()
	var topLevelItems []*LabelTreeItem
	for i := range hierarchyRoot.Children {
		topLevelItems = append(topLevelItems, m.buildTree(&hierarchyRoot.Children[i], clusters))
	}

	var report []string

	// Childless hierarchy entries whose names resolve to no label.
	if len(m.missingLabelNames) > 0 {
		report = append(report, "   No labels in the label table were found for these childless elements in the hierarchy:")
		for _, name := range sortedNames(m.missingLabelNames) {
			report = append(report, "      "+name)
		}
	}

	// Classify every label key that never got attached to a node: either
	// its name is a hierarchy parent (the group already represents it), or
	// the label is missing from the hierarchy entirely. The unassigned key
	// is exempt.
	unassignedKey := m.labelTable.UnassignedLabelKey()
	missingHierarchyNames := make(map[string]struct{})
	labelIsParentNames := make(map[string]struct{})
	for _, key := range m.labelTable.KeysSortedByName() {
		if key == unassignedKey {
			continue
		}
		if _, attached := m.keyToItem[key]; attached {
			continue
		}
		name := m.labelTable.LabelName(key)
		if _, isParent := m.hierarchyParentNames[name]; isParent {
			labelIsParentNames[name] = struct{}{}
		} else {
			missingHierarchyNames[name] = struct{}{}
		}
	}

	if len(missingHierarchyNames) > 0 {
		// Labels absent from the hierarchy are grouped under a synthesized
		// top-level item so no labeled region is silently missing.
		parentItem := newHierarchyItem(labelTableOnlyGroupName, "")
		for _, name := range sortedNames(missingHierarchyNames) {
			label := m.labelTable.LabelWithName(name)
			if label == nil {
				continue
			}
			item := newLabelItem(name, "", label.Key, label.RGBABytes())
			if clusters != nil {
				item.setRawClusters(clusters.ClustersWithKey(label.Key))
			}
			parentItem.appendChild(item)
			m.keyToItem[label.Key] = item
		}
		topLevelItems = append(topLevelItems, parentItem)

		report = append(report, "   These labels not in hierarchy have been added to the group \""+labelTableOnlyGroupName+"\": ")
		for _, name := range sortedNames(missingHierarchyNames) {
			report = append(report, "      "+name)
		}
	}

	if len(labelIsParentNames) > 0 {
		report = append(report, "   Label from label table is in the element hierarchy but element contains children:")
		for _, name := range sortedNames(labelIsParentNames) {
			report = append(report, "      "+name)
		}
	}

	if len(report) > 0 {
		m.mismatchReport = strings.Join(report, "\n")
		if m.logMismatches {
			slog.Info(m.fileAndMapName + "\n" + m.mismatchReport)
		}
	}

	for _, item := range topLevelItems {
		m.root.appendChild(item)
	}

	if clusters != nil {
		keysNotInClusters := clusters.KeysNotInAnyClusters()
		for key, item := range m.keyToItem {
			if _, ok := keysNotInClusters[key]; !ok {
				continue
			}
			item.AppendToToolTip(noBrainordinatesToolTip)
			if !item.HasChildren() {
				// Toggling it would do nothing: no brainordinates use it
				// and it has nothing to reveal.
				item.enabled = false
			}
		}
	}

	m.SetAllChecked(true)
	m.UpdateCheckStates()

	for _, item := range m.TopLevelItems() {
		item.updateSubtreeMergedClusters()
	}

	m.valid = true
}

// buildTree depth-first translates one hierarchy item into a display node.
// An item with children becomes a group (label-colored only if its name
// also resolves in the label table); a childless item becomes a leaf, inert
// when its name resolves to no label.
func (m *SelectionModel) buildTree(hierarchyItem *Item, clusters *ClusterContainer) *LabelTreeItem {
	rgba := defaultItemRGBA
	labelKey := NoLabelKey
	label := m.labelTable.LabelWithName(hierarchyItem.Name)
	if label != nil {
		rgba = label.RGBABytes()
		labelKey = label.Key
	}

	var item *LabelTreeItem
	if len(hierarchyItem.Children) > 0 {
		if label != nil {
			item = newLabelItem(hierarchyItem.Name, hierarchyItem.ID, labelKey, rgba)
			if clusters != nil {
				item.setRawClusters(clusters.ClustersWithKey(labelKey))
			}
		} else {
			item = newHierarchyItem(hierarchyItem.Name, hierarchyItem.ID)
		}
		for i := range hierarchyItem.Children {
			item.appendChild(m.buildTree(&hierarchyItem.Children[i], clusters))
		}
		if labelKey != NoLabelKey {
			m.keyToItem[labelKey] = item
		}
		m.hierarchyParentNames[hierarchyItem.Name] = struct{}{}
		return item
	}

	item = newLabelItem(hierarchyItem.Name, hierarchyItem.ID, labelKey, rgba)
	if clusters != nil {
		item.setRawClusters(clusters.ClustersWithKey(labelKey))
	}
	if labelKey != NoLabelKey {
		m.keyToItem[labelKey] = item
	}
	if label == nil {
		m.missingLabelNames[hierarchyItem.Name] = struct{}{}
		item.AppendToToolTip(missingLabelToolTip)
		// It can neither toggle a real label nor reveal children.
		item.enabled = false
	}
	return item
}

// TopLevelItems returns the ordered forest of top-level display nodes.
func (m *SelectionModel) TopLevelItems() []*LabelTreeItem {
	return m.root.Children()
}

// AllDescendants returns every display node, depth-first.
func (m *SelectionModel) AllDescendants() []*LabelTreeItem {
	var items []*LabelTreeItem
	for _, item := range m.root.Children() {
		items = append(items, item.ThisAndAllDescendants()...)
	}
	return items
}

// AllDescendantsOfType returns every display node with the given tag,
// depth-first.
func (m *SelectionModel) AllDescendantsOfType(itemType ItemType) []*LabelTreeItem {
	var items []*LabelTreeItem
	for _, item := range m.root.Children() {
		items = append(items, item.ThisAndAllDescendantsOfType(itemType)...)
	}
	return items
}

// SetAllChecked sets the checked state of every node.
func (m *SelectionModel) SetAllChecked(checked bool) {
	state := Unchecked
	if checked {
		state = Checked
	}
	for _, item := range m.root.Children() {
		item.SetCheckState(state)
		item.SetAllChildrenChecked(checked)
	}
}

// UpdateCheckStates recomputes every group's tri-state from its children,
// bottom-up. Leaf states are authoritative.
func (m *SelectionModel) UpdateCheckStates() {
	for _, item := range m.root.Children() {
		item.SetCheckStateFromChildren()
	}
}

// IsLabelChecked reports whether the display node attached to the given
// label key is fully checked. Unknown keys report false.
func (m *SelectionModel) IsLabelChecked(labelKey int32) bool {
	if item, ok := m.keyToItem[labelKey]; ok {
		return item.CheckState() == Checked
	}
	return false
}

// SynchronizeSelections copies selection state between this model and an
// external selection store. With copyToStore set, each label node's state
// is written to the store (partially checked counts as selected); otherwise
// the store's state replaces the tree's and group states are recomputed.
func (m *SelectionModel) SynchronizeSelections(store SelectionStore, copyToStore bool) {
	for key, item := range m.keyToItem {
		if copyToStore {
			store.SetLabelSelected(key, item.CheckState() != Unchecked)
		} else {
			if store.IsLabelSelected(key) {
				item.SetCheckState(Checked)
			} else {
				item.SetCheckState(Unchecked)
			}
		}
	}
	if !copyToStore {
		m.UpdateCheckStates()
	}
}

// CheckedLabelNames returns the names of every fully checked label node,
// for saving the selection compactly by name.
func (m *SelectionModel) CheckedLabelNames() []string {
	var names []string
	for _, item := range m.AllDescendantsOfType(ItemTypeLabel) {
		if item.CheckState() == Checked {
			names = append(names, item.Name())
		}
	}
	return names
}

// ApplyCheckedLabelNames checks exactly the label nodes whose names appear
// in names and unchecks the rest, then recomputes group states. An empty
// set falls back to everything checked.
func (m *SelectionModel) ApplyCheckedLabelNames(names []string) {
	if len(names) == 0 {
		m.SetAllChecked(true)
		m.UpdateCheckStates()
		return
	}
	checked := make(map[string]struct{}, len(names))
	for _, name := range names {
		checked[name] = struct{}{}
	}
	for _, item := range m.AllDescendantsOfType(ItemTypeLabel) {
		if _, ok := checked[item.Name()]; ok {
			item.SetCheckState(Checked)
		} else {
			item.SetCheckState(Unchecked)
		}
	}
	m.UpdateCheckStates()
}

// FormattedString returns the display tree as indented text for diagnostics.
func (m *SelectionModel) FormattedString(indentation string) string {
	var lines []string
	for _, item := range m.root.Children() {
		lines = append(lines, item.FormattedString(indentation+"   "))
	}
	return strings.Join(lines, "\n")
}

func sortedNames(set map[string]struct{}) []string {
	names := make([]string, 0, len(set))
	for name := range set {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
