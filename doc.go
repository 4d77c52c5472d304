// Package labeltree implements the label hierarchy and cluster-aggregation
// subsystem of a brain-surface/volume viewer: a tree of named, nested label
// groups with per-item key/value metadata, serialized to and from XML and
// JSON, cross-referenced against a flat label table and a spatial cluster
// index.
//
// The three building blocks are:
//
//   - Hierarchy: an n-ary tree of uniquely named items with ordered side
//     data per item, round-tripping through the CaretHierarchy XML format
//     and a lenient JSON format.
//   - Cluster and ClusterContainer: spatial regions keyed by label-table
//     key with centroid and member-count aggregates, indexed by key and
//     name, with a merge algorithm that consolidates disjoint same-key
//     fragments into one canonical cluster per hemisphere.
//   - SelectionModel: the reconciliation engine that merges a hierarchy, a
//     label table and a cluster container into one display tree with
//     tri-state selection, flagging every hierarchy/label mismatch and
//     synthesizing grouping nodes so no labeled region is silently absent.
//
// Basic usage:
//
//	hier := labeltree.NewHierarchy()
//	if err := hier.ReadXMLFile("parcellation.xml"); err != nil { ... }
//	model := labeltree.NewSelectionModel("file.dlabel.nii map#1", hier, table, clusters, true)
//	// model.TopLevelItems() is the ordered forest for the presentation layer
//	// model.IsLabelChecked(key) answers visibility queries by label key
//
// Everything is single-threaded and synchronous; structures have one owner
// and no structure may be mutated while another goroutine reads its cached
// views.
package labeltree
