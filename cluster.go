package labeltree

import (
	"gonum.org/v1/gonum/spatial/r3"
)

// LocationType classifies a cluster by anatomical side.
type LocationType int

const (
	// LocationUnknown means no hemisphere classification is available.
	LocationUnknown LocationType = iota
	// LocationCentral marks a cluster spanning the midline.
	LocationCentral
	// LocationLeft marks a left-hemisphere cluster (negative x).
	LocationLeft
	// LocationRight marks a right-hemisphere cluster (positive x).
	LocationRight
)

// String returns the display name of the location type.
func (lt LocationType) String() string {
	switch lt {
	case LocationCentral:
		return "Central"
	case LocationLeft:
		return "Left"
	case LocationRight:
		return "Right"
	default:
		return "Unknown"
	}
}

// Cluster is one spatial region of labeled brainordinates: a label-table
// key (shared by any number of clusters), a name, a hemisphere
// classification, and the member coordinates. The full member list is
// retained, not just the aggregate: splitting a Central cluster needs the
// individual coordinates, while count and center of gravity derive from the
// running sum.
type Cluster struct {
	Key      int32
	Name     string
	Location LocationType

	coords   []r3.Vec
	coordSum r3.Vec
}

// NewCluster creates a cluster over the given member coordinates. The
// coordinate slice is copied.
func NewCluster(key int32, name string, location LocationType, coords []r3.Vec) Cluster {
	c := Cluster{
		Key:      key,
		Name:     name,
		Location: location,
		coords:   append([]r3.Vec(nil), coords...),
	}
	for _, v := range c.coords {
		c.coordSum = r3.Add(c.coordSum, v)
	}
	return c
}

// NumberOfBrainordinates returns the member count.
func (c *Cluster) NumberOfBrainordinates() int { return len(c.coords) }

// Coordinates returns the member coordinates. Callers must not mutate the
// returned slice.
func (c *Cluster) Coordinates() []r3.Vec { return c.coords }

// CenterOfGravity returns the mean of the member coordinates, or the zero
// vector for an empty cluster.
func (c *Cluster) CenterOfGravity() r3.Vec {
	n := len(c.coords)
	if n == 0 {
		return r3.Vec{}
	}
	return r3.Scale(1/float64(n), c.coordSum)
}

// MergeCoordinates folds other into c: member count, coordinate list and
// running sum all combine. The resulting center of gravity is exactly the
// centroid of the union of both member sets. The caller is responsible for
// only merging clusters of the same key and location.
func (c *Cluster) MergeCoordinates(other Cluster) {
	c.coords = append(c.coords, other.coords...)
	c.coordSum = r3.Add(c.coordSum, other.coordSum)
}

// SplitIntoRightAndLeft partitions a Central cluster's members by the sign
// of their x coordinate: negative x goes to a Left cluster, positive x to a
// Right cluster. Members exactly on the midline (x == 0) go Left. A side
// with no members produces no cluster, so the result holds zero, one, or
// two clusters; their combined member count always equals the input's.
// Calling this on a non-Central cluster is a programming error and panics.
func (c *Cluster) SplitIntoRightAndLeft() []Cluster {
	if c.Location != LocationCentral {
		panic("labeltree: SplitIntoRightAndLeft requires a Central cluster, got " + c.Location.String())
	}
	var leftCoords, rightCoords []r3.Vec
	for _, v := range c.coords {
		if v.X > 0 {
			rightCoords = append(rightCoords, v)
		} else {
			leftCoords = append(leftCoords, v)
		}
	}
	var out []Cluster
	if len(leftCoords) > 0 {
		out = append(out, NewCluster(c.Key, c.Name+" (Left)", LocationLeft, leftCoords))
	}
	if len(rightCoords) > 0 {
		out = append(out, NewCluster(c.Key, c.Name+" (Right)", LocationRight, rightCoords))
	}
	return out
}
