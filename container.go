package labeltree

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// ClusterContainer owns a set of clusters and serves them through lazily
// built sorted indices by key and by name. Any mutation invalidates the
// indices; they are rebuilt on the next read. The container is not
// synchronized: a single owner mutates it, and no reader may hold a sorted
// view across a mutation.
type ClusterContainer struct {
	clusters []Cluster

	// Lazily built, cleared by any mutation.
	sortedByKey  []*Cluster
	sortedByName []*Cluster
	keysSorted   []int32

	keysNotInAnyCluster map[int32]struct{}
}

// NewClusterContainer returns an empty container.
func NewClusterContainer() *ClusterContainer {
	return &ClusterContainer{keysNotInAnyCluster: make(map[int32]struct{})}
}

// AddCluster adds a cluster to the container, which takes ownership of it.
func (cc *ClusterContainer) AddCluster(cluster Cluster) {
	cc.clusters = append(cc.clusters, cluster)
	cc.clearSortedContainers()
}

// Clear removes all clusters.
func (cc *ClusterContainer) Clear() {
	cc.clusters = nil
	cc.clearSortedContainers()
}

func (cc *ClusterContainer) clearSortedContainers() {
	cc.sortedByKey = nil
	cc.sortedByName = nil
	cc.keysSorted = nil
}

// NumberOfClusters returns the number of clusters in the container.
func (cc *ClusterContainer) NumberOfClusters() int { return len(cc.clusters) }

// buildKeyIndex lazily (re)builds the by-key index. Ties keep insertion order.
func (cc *ClusterContainer) buildKeyIndex() {
	if cc.sortedByKey != nil || len(cc.clusters) == 0 {
		return
	}
	cc.sortedByKey = make([]*Cluster, len(cc.clusters))
	for i := range cc.clusters {
		cc.sortedByKey[i] = &cc.clusters[i]
	}
	sort.SliceStable(cc.sortedByKey, func(i, j int) bool {
		return cc.sortedByKey[i].Key < cc.sortedByKey[j].Key
	})
}

// buildNameIndex lazily (re)builds the by-name index. Ties keep insertion order.
func (cc *ClusterContainer) buildNameIndex() {
	if cc.sortedByName != nil || len(cc.clusters) == 0 {
		return
	}
	cc.sortedByName = make([]*Cluster, len(cc.clusters))
	for i := range cc.clusters {
		cc.sortedByName[i] = &cc.clusters[i]
	}
	sort.SliceStable(cc.sortedByName, func(i, j int) bool {
		return cc.sortedByName[i].Name < cc.sortedByName[j].Name
	})
}

// ClustersSortedByKey returns all clusters ordered by key. The returned
// slice stays valid until the next mutation of the container.
func (cc *ClusterContainer) ClustersSortedByKey() []*Cluster {
	cc.buildKeyIndex()
	return cc.sortedByKey
}

// ClustersSortedByName returns all clusters ordered by name. The returned
// slice stays valid until the next mutation of the container.
func (cc *ClusterContainer) ClustersSortedByName() []*Cluster {
	cc.buildNameIndex()
	return cc.sortedByName
}

// ClustersWithKey returns every cluster with the given key, in index order.
func (cc *ClusterContainer) ClustersWithKey(key int32) []*Cluster {
	cc.buildKeyIndex()
	lo := sort.Search(len(cc.sortedByKey), func(i int) bool {
		return cc.sortedByKey[i].Key >= key
	})
	hi := sort.Search(len(cc.sortedByKey), func(i int) bool {
		return cc.sortedByKey[i].Key > key
	})
	out := make([]*Cluster, hi-lo)
	copy(out, cc.sortedByKey[lo:hi])
	return out
}

// ClustersWithName returns every cluster with the given name, in index order.
func (cc *ClusterContainer) ClustersWithName(name string) []*Cluster {
	cc.buildNameIndex()
	lo := sort.Search(len(cc.sortedByName), func(i int) bool {
		return cc.sortedByName[i].Name >= name
	})
	hi := sort.Search(len(cc.sortedByName), func(i int) bool {
		return cc.sortedByName[i].Name > name
	})
	out := make([]*Cluster, hi-lo)
	copy(out, cc.sortedByName[lo:hi])
	return out
}

// AllClusterKeys returns the distinct keys of all clusters, sorted.
func (cc *ClusterContainer) AllClusterKeys() []int32 {
	if cc.keysSorted == nil {
		seen := make(map[int32]struct{})
		for i := range cc.clusters {
			key := cc.clusters[i].Key
			if _, ok := seen[key]; !ok {
				seen[key] = struct{}{}
				cc.keysSorted = append(cc.keysSorted, key)
			}
		}
		sort.Slice(cc.keysSorted, func(i, j int) bool {
			return cc.keysSorted[i] < cc.keysSorted[j]
		})
	}
	return cc.keysSorted
}

// AddKeyNotInAnyCluster records a label key that maps to no cluster, such
// as a labeled region with zero brainordinates. This set is informational
// and independent of the cluster list.
func (cc *ClusterContainer) AddKeyNotInAnyCluster(key int32) {
	cc.keysNotInAnyCluster[key] = struct{}{}
}

// KeysNotInAnyClusters returns the keys that map to no cluster. The returned
// set is a copy; mutating it does not affect the container.
func (cc *ClusterContainer) KeysNotInAnyClusters() map[int32]struct{} {
	out := make(map[int32]struct{}, len(cc.keysNotInAnyCluster))
	for key := range cc.keysNotInAnyCluster {
		out[key] = struct{}{}
	}
	return out
}

// MergeDisjointRightLeftClusters consolidates same-key clusters by
// hemisphere into a new container. Central clusters are first split into
// left and right parts (the split parts are added to this container so they
// participate uniformly); then, per key, all clusters fold into at most one
// cluster per location bucket. The result holds at most four clusters per
// distinct key. The receiver's raw cluster list is left in place apart from
// the appended split parts.
func (cc *ClusterContainer) MergeDisjointRightLeftClusters() *ClusterContainer {
	allKeys := cc.AllClusterKeys()

	// Split central clusters before merging. Staged so the index stays
	// stable while iterating.
	var newClustersFromSplitting []Cluster
	for _, key := range allKeys {
		for _, cluster := range cc.ClustersWithKey(key) {
			if cluster.Location == LocationCentral {
				newClustersFromSplitting = append(newClustersFromSplitting, cluster.SplitIntoRightAndLeft()...)
			}
		}
	}
	for _, c := range newClustersFromSplitting {
		cc.AddCluster(c)
	}

	out := NewClusterContainer()
	for _, key := range allKeys {
		// One merge bucket per location type; empty buckets emit nothing.
		var buckets [4]*Cluster
		for _, cluster := range cc.ClustersWithKey(key) {
			if cluster.Location == LocationCentral {
				// Replaced by its split parts in the staging pass; folding it
				// too would re-emit a Central cluster.
				continue
			}
			b := cluster.Location
			if buckets[b] == nil {
				merged := NewCluster(cluster.Key, cluster.Name, cluster.Location, cluster.coords)
				buckets[b] = &merged
			} else {
				buckets[b].MergeCoordinates(*cluster)
			}
		}
		for _, loc := range []LocationType{LocationUnknown, LocationCentral, LocationLeft, LocationRight} {
			if buckets[loc] != nil {
				out.AddCluster(*buckets[loc])
			}
		}
	}
	return out
}

// FormattedString returns the clusters as a fixed seven-column text table
// (Key, Count, X, Y, Z, Location, Name) sorted by name, for diagnostics.
func (cc *ClusterContainer) FormattedString() string {
	clusters := cc.ClustersSortedByName()
	if len(clusters) == 0 {
		return "No clusters were found."
	}

	table := newStringTable(len(clusters)+1, 7)
	for col, right := range []bool{true, true, true, true, true, false, false} {
		table.alignRight[col] = right
	}
	table.set(0, 0, "Key")
	table.set(0, 1, "Count")
	table.set(0, 2, "X")
	table.set(0, 3, "Y")
	table.set(0, 4, "Z")
	table.set(0, 5, "Location")
	table.set(0, 6, fmt.Sprintf("Cluster Name  (%d total clusters)", len(clusters)))
	for i, c := range clusters {
		row := i + 1
		cog := c.CenterOfGravity()
		table.set(row, 0, strconv.FormatInt(int64(c.Key), 10))
		table.set(row, 1, strconv.Itoa(c.NumberOfBrainordinates()))
		table.set(row, 2, strconv.FormatFloat(cog.X, 'f', 3, 64))
		table.set(row, 3, strconv.FormatFloat(cog.Y, 'f', 3, 64))
		table.set(row, 4, strconv.FormatFloat(cog.Z, 'f', 3, 64))
		table.set(row, 5, c.Location.String())
		table.set(row, 6, c.Name)
	}
	return table.String()
}

// stringTable formats a fixed grid of cells with per-column alignment.
// text/tabwriter cannot mix left- and right-aligned columns, so widths are
// computed by hand.
type stringTable struct {
	rows, cols int
	cells      []string
	alignRight []bool
}

func newStringTable(rows, cols int) *stringTable {
	return &stringTable{
		rows:       rows,
		cols:       cols,
		cells:      make([]string, rows*cols),
		alignRight: make([]bool, cols),
	}
}

func (st *stringTable) set(row, col int, text string) {
	st.cells[row*st.cols+col] = text
}

func (st *stringTable) String() string {
	widths := make([]int, st.cols)
	for r := 0; r < st.rows; r++ {
		for c := 0; c < st.cols; c++ {
			if n := len(st.cells[r*st.cols+c]); n > widths[c] {
				widths[c] = n
			}
		}
	}
	var sb strings.Builder
	for r := 0; r < st.rows; r++ {
		for c := 0; c < st.cols; c++ {
			if c > 0 {
				sb.WriteString("  ")
			}
			cell := st.cells[r*st.cols+c]
			pad := widths[c] - len(cell)
			if st.alignRight[c] {
				sb.WriteString(strings.Repeat(" ", pad))
				sb.WriteString(cell)
			} else {
				sb.WriteString(cell)
				if c < st.cols-1 {
					sb.WriteString(strings.Repeat(" ", pad))
				}
			}
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}
