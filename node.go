package osm2lanelet

import (
	"github.com/paulmach/osm"
)

// Node is an original OSM node kept because at least one road way
// references it. useCount tracks how many way node references point at it.
type Node struct {
	node osm.Node

	ID       osm.NodeID
	useCount int
}
