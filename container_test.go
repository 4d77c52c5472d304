package labeltree

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"
)

func TestClusterContainer_SortedViews(t *testing.T) {
	cc := NewClusterContainer()
	cc.AddCluster(NewCluster(9, "zeta", LocationLeft, []r3.Vec{{X: -1}}))
	cc.AddCluster(NewCluster(3, "alpha", LocationRight, []r3.Vec{{X: 1}}))
	cc.AddCluster(NewCluster(3, "mid", LocationLeft, []r3.Vec{{X: -1}}))

	byKey := cc.ClustersSortedByKey()
	require.Len(t, byKey, 3)
	assert.Equal(t, int32(3), byKey[0].Key)
	assert.Equal(t, int32(3), byKey[1].Key)
	assert.Equal(t, int32(9), byKey[2].Key)

	byName := cc.ClustersSortedByName()
	require.Len(t, byName, 3)
	assert.Equal(t, "alpha", byName[0].Name)
	assert.Equal(t, "mid", byName[1].Name)
	assert.Equal(t, "zeta", byName[2].Name)

	assert.Equal(t, []int32{3, 9}, cc.AllClusterKeys())
}

func TestClusterContainer_MutationInvalidatesViews(t *testing.T) {
	cc := NewClusterContainer()
	cc.AddCluster(NewCluster(5, "a", LocationLeft, []r3.Vec{{X: -1}}))
	require.Len(t, cc.ClustersSortedByKey(), 1)

	cc.AddCluster(NewCluster(2, "b", LocationRight, []r3.Vec{{X: 1}}))
	byKey := cc.ClustersSortedByKey()
	require.Len(t, byKey, 2)
	assert.Equal(t, int32(2), byKey[0].Key)

	assert.Equal(t, []int32{2, 5}, cc.AllClusterKeys())

	cc.Clear()
	assert.Empty(t, cc.ClustersSortedByKey())
	assert.Empty(t, cc.AllClusterKeys())
}

func TestClusterContainer_EqualRangeLookups(t *testing.T) {
	cc := NewClusterContainer()
	cc.AddCluster(NewCluster(7, "first", LocationLeft, []r3.Vec{{X: -1}}))
	cc.AddCluster(NewCluster(7, "second", LocationRight, []r3.Vec{{X: 1}}))
	cc.AddCluster(NewCluster(8, "first", LocationLeft, []r3.Vec{{X: -2}}))

	withKey := cc.ClustersWithKey(7)
	require.Len(t, withKey, 2)
	for _, c := range withKey {
		assert.Equal(t, int32(7), c.Key)
	}
	assert.Empty(t, cc.ClustersWithKey(99))

	withName := cc.ClustersWithName("first")
	require.Len(t, withName, 2)
	for _, c := range withName {
		assert.Equal(t, "first", c.Name)
	}
	assert.Empty(t, cc.ClustersWithName("none"))
}

func TestClusterContainer_KeysNotInAnyCluster(t *testing.T) {
	cc := NewClusterContainer()
	cc.AddKeyNotInAnyCluster(12)
	cc.AddKeyNotInAnyCluster(12)
	cc.AddKeyNotInAnyCluster(40)

	keys := cc.KeysNotInAnyClusters()
	assert.Len(t, keys, 2)
	_, ok := keys[12]
	assert.True(t, ok)
	_, ok = keys[40]
	assert.True(t, ok)

	// The returned set is a copy: deleting from it must not reach the
	// container's own record.
	delete(keys, 12)
	_, ok = cc.KeysNotInAnyClusters()[12]
	assert.True(t, ok)
}

// Two disjoint central clusters with key 7, members split 3-negative /
// 2-positive and 1-negative / 4-positive. After merging, exactly one Left
// cluster (4 members) and one Right cluster (6 members) remain for key 7
// and no Central cluster survives.
func TestClusterContainer_MergeDisjointRightLeftClusters(t *testing.T) {
	cc := NewClusterContainer()
	cc.AddCluster(NewCluster(7, "area A", LocationCentral, []r3.Vec{
		{X: -1, Y: 1, Z: 0}, {X: -2, Y: 1, Z: 0}, {X: -3, Y: 1, Z: 0},
		{X: 1, Y: 1, Z: 0}, {X: 2, Y: 1, Z: 0},
	}))
	cc.AddCluster(NewCluster(7, "area A", LocationCentral, []r3.Vec{
		{X: -4, Y: 3, Z: 0},
		{X: 3, Y: 3, Z: 0}, {X: 4, Y: 3, Z: 0}, {X: 5, Y: 3, Z: 0}, {X: 6, Y: 3, Z: 0},
	}))

	merged := cc.MergeDisjointRightLeftClusters()

	clusters := merged.ClustersWithKey(7)
	require.Len(t, clusters, 2)

	var left, right *Cluster
	for _, c := range clusters {
		switch c.Location {
		case LocationLeft:
			left = c
		case LocationRight:
			right = c
		case LocationCentral:
			t.Fatalf("central cluster survived the merge: %+v", c)
		}
	}
	require.NotNil(t, left)
	require.NotNil(t, right)
	assert.Equal(t, 4, left.NumberOfBrainordinates())
	assert.Equal(t, 6, right.NumberOfBrainordinates())

	// Centroids equal recomputation from the member unions.
	assert.InDelta(t, (-1-2-3-4)/4.0, left.CenterOfGravity().X, 1e-12)
	assert.InDelta(t, (1+2+3+4+5+6)/6.0, right.CenterOfGravity().X, 1e-12)
}

func TestClusterContainer_MergeFoldsPerLocationBucket(t *testing.T) {
	cc := NewClusterContainer()
	// Three left fragments and one unknown for key 2, plus key 5 untouched.
	cc.AddCluster(NewCluster(2, "frag1", LocationLeft, []r3.Vec{{X: -1}}))
	cc.AddCluster(NewCluster(2, "frag2", LocationLeft, []r3.Vec{{X: -3}}))
	cc.AddCluster(NewCluster(2, "frag3", LocationLeft, []r3.Vec{{X: -5}}))
	cc.AddCluster(NewCluster(2, "lost", LocationUnknown, []r3.Vec{{X: 9}}))
	cc.AddCluster(NewCluster(5, "other", LocationRight, []r3.Vec{{X: 2}}))

	merged := cc.MergeDisjointRightLeftClusters()

	key2 := merged.ClustersWithKey(2)
	require.Len(t, key2, 2) // one Unknown, one Left
	for _, c := range key2 {
		if c.Location == LocationLeft {
			assert.Equal(t, 3, c.NumberOfBrainordinates())
			assert.InDelta(t, -3.0, c.CenterOfGravity().X, 1e-12)
		}
	}
	require.Len(t, merged.ClustersWithKey(5), 1)

	// The source container keeps its raw fragments (no splits occurred).
	assert.Equal(t, 5, cc.NumberOfClusters())
}

// Central clusters are consumed by the merge: every Central input is
// replaced by its split parts and must not also fold into a Central bucket
// of the output.
func TestClusterContainer_MergeLeavesNoCentralClusters(t *testing.T) {
	cc := NewClusterContainer()
	cc.AddCluster(NewCluster(7, "both sides", LocationCentral, []r3.Vec{
		{X: -1, Y: 0, Z: 0}, {X: 2, Y: 0, Z: 0},
	}))
	cc.AddCluster(NewCluster(9, "one sided", LocationCentral, []r3.Vec{
		{X: 5, Y: 0, Z: 0},
	}))

	merged := cc.MergeDisjointRightLeftClusters()

	for _, c := range merged.ClustersSortedByKey() {
		assert.NotEqual(t, LocationCentral, c.Location,
			"central cluster survived the merge: %s", c.Name)
	}
	require.Len(t, merged.ClustersWithKey(7), 2) // one Left, one Right
	require.Len(t, merged.ClustersWithKey(9), 1) // Right only
}

func TestClusterContainer_MergeIsIdempotentOnMergedOutput(t *testing.T) {
	cc := NewClusterContainer()
	cc.AddCluster(NewCluster(7, "a", LocationCentral, []r3.Vec{
		{X: -1, Y: 2, Z: 3}, {X: 4, Y: 5, Z: 6},
	}))

	once := cc.MergeDisjointRightLeftClusters()
	twice := once.MergeDisjointRightLeftClusters()

	require.Equal(t, once.NumberOfClusters(), twice.NumberOfClusters())
	for _, c1 := range once.ClustersSortedByName() {
		found := twice.ClustersWithName(c1.Name)
		require.Len(t, found, 1)
		assert.Equal(t, c1.NumberOfBrainordinates(), found[0].NumberOfBrainordinates())
		assert.InDelta(t, c1.CenterOfGravity().X, found[0].CenterOfGravity().X, 1e-12)
	}
}

func TestClusterContainer_FormattedString(t *testing.T) {
	cc := NewClusterContainer()
	assert.Equal(t, "No clusters were found.", cc.FormattedString())

	cc.AddCluster(NewCluster(7, "visual cortex", LocationLeft, []r3.Vec{
		{X: -10, Y: 4, Z: 2}, {X: -12, Y: 6, Z: 4},
	}))
	text := cc.FormattedString()
	lines := strings.Split(strings.TrimSuffix(text, "\n"), "\n")
	require.Len(t, lines, 2)

	header := lines[0]
	for _, col := range []string{"Key", "Count", "X", "Y", "Z", "Location", "Cluster Name  (1 total clusters)"} {
		assert.Contains(t, header, col)
	}
	row := lines[1]
	assert.Contains(t, row, "7")
	assert.Contains(t, row, "2")
	assert.Contains(t, row, "-11.000")
	assert.Contains(t, row, "5.000")
	assert.Contains(t, row, "3.000")
	assert.Contains(t, row, "Left")
	assert.Contains(t, row, "visual cortex")
}
