package osm2lanelet

import (
	"fmt"

	"github.com/paulmach/orb"
	"github.com/paulmach/osm"
)

// endpointKey identifies a mergeable group of boundary endpoints: the
// original node they derive from plus the lane side they represent.
// Proximity plays no part here. Two boundaries passing near each other
// without sharing an OSM node stay disconnected.
type endpointKey struct {
	nodeID osm.NodeID
	side   BoundarySide
}

// endpointUse is one polyline endpoint considered for merging.
type endpointUse struct {
	polyline *BoundaryPolyline
	position int
}

// junctionResolution is the resolver outcome: the shared vertices it
// synthesized, in synthesis order, plus diagnostics for suspicious
// junctions.
type junctionResolution struct {
	canonicalVertices []*BoundaryVertex
	diagnostics       []Diagnostic
	junctionNodes     int
}

// resolveJunctions merges boundary endpoints that derive from the same
// original node and the same lane side into single canonical vertices, so
// lanes converging at a junction share geometry by node identity. The
// polylines are rewritten in place. The pass is idempotent: running it on
// its own output changes nothing.
//
// When converging ways disagree on lane sides (a oneway meets a
// bidirectional road) the merge happens per side among the ways presenting
// that side: the outer boundaries always merge, the centerline side exists
// only for bidirectional ways and merges only among those. No vertex is
// synthesized for a side nothing presents, so the pass never produces
// orphan nodes.
func resolveJunctions(boundaries []*laneBoundaries) *junctionResolution {
	groups := make(map[endpointKey][]endpointUse)
	keysOrdered := []endpointKey{}
	for _, b := range boundaries {
		for _, polyline := range []*BoundaryPolyline{b.left, b.center, b.right} {
			if polyline == nil {
				continue
			}
			for _, position := range []int{0, len(polyline.vertices) - 1} {
				vertex := polyline.vertices[position]
				key := endpointKey{nodeID: vertex.sourceNode, side: polyline.side}
				if _, ok := groups[key]; !ok {
					keysOrdered = append(keysOrdered, key)
				}
				groups[key] = append(groups[key], endpointUse{polyline: polyline, position: position})
			}
		}
	}

	resolution := &junctionResolution{}
	for _, key := range keysOrdered {
		uses := groups[key]
		if len(uses) < 2 {
			// Dead end. The endpoint keeps its independently offset vertex
			continue
		}
		if alreadyCanonical(uses) {
			continue
		}
		canonical := synthesizeVertex(key, uses)
		for _, use := range uses {
			use.polyline.vertices[use.position] = canonical
		}
		resolution.canonicalVertices = append(resolution.canonicalVertices, canonical)
	}

	resolution.junctionNodes, resolution.diagnostics = junctionMismatches(boundaries)
	return resolution
}

// alreadyCanonical reports whether the whole group has been merged into one
// shared vertex by a previous pass.
func alreadyCanonical(uses []endpointUse) bool {
	first := uses[0].polyline.vertices[uses[0].position]
	if !first.canonical {
		return false
	}
	for _, use := range uses[1:] {
		if use.polyline.vertices[use.position] != first {
			return false
		}
	}
	return true
}

// synthesizeVertex builds the canonical shared vertex for a merge group:
// the original node position offset along the normalized average of the
// members' perpendiculars by the mean of their half-widths. With a single
// presenting way this reproduces the way's own endpoint vertex, with
// several it lands between their individually offset endpoints.
func synthesizeVertex(key endpointKey, uses []endpointUse) *BoundaryVertex {
	origin := uses[0].polyline.vertices[uses[0].position].origin
	sum := orb.Point{}
	halfWidthSum := 0.0
	for _, use := range uses {
		vertex := use.polyline.vertices[use.position]
		sum[0] += vertex.perp[0]
		sum[1] += vertex.perp[1]
		halfWidthSum += vertex.halfWidth
	}
	dir := normalizeVector(sum)
	halfWidth := halfWidthSum / float64(len(uses))
	point := origin
	switch key.side {
	case SIDE_LEFT:
		point = orb.Point{origin[0] + dir[0]*halfWidth, origin[1] + dir[1]*halfWidth}
	case SIDE_RIGHT:
		point = orb.Point{origin[0] - dir[0]*halfWidth, origin[1] - dir[1]*halfWidth}
	}
	return &BoundaryVertex{
		point:      point,
		origin:     origin,
		perp:       dir,
		halfWidth:  halfWidth,
		sourceNode: key.nodeID,
		side:       key.side,
		canonical:  true,
	}
}

// junctionMismatches reports every original node shared by two or more kept
// ways where some sharing way runs through the node mid-sequence instead of
// terminating there. Such a boundary passes the junction unconnected, which
// usually signals an intersection the source data models without a split.
func junctionMismatches(boundaries []*laneBoundaries) (int, []Diagnostic) {
	waysAt := make(map[osm.NodeID]int)
	endpointsAt := make(map[osm.NodeID]int)
	nodesOrdered := []osm.NodeID{}
	for _, b := range boundaries {
		seen := make(map[osm.NodeID]struct{}, len(b.way.Nodes))
		for _, nodeID := range b.way.Nodes {
			if _, ok := seen[nodeID]; ok {
				continue
			}
			seen[nodeID] = struct{}{}
			if _, ok := waysAt[nodeID]; !ok {
				nodesOrdered = append(nodesOrdered, nodeID)
			}
			waysAt[nodeID]++
		}
		first := b.way.Nodes[0]
		last := b.way.Nodes[len(b.way.Nodes)-1]
		endpointsAt[first]++
		if last != first {
			endpointsAt[last]++
		}
	}

	junctionNodes := 0
	diagnostics := []Diagnostic{}
	for _, nodeID := range nodesOrdered {
		sharingWays := waysAt[nodeID]
		if sharingWays < 2 {
			continue
		}
		junctionNodes++
		if converging := endpointsAt[nodeID]; converging != sharingWays {
			diagnostics = append(diagnostics, Diagnostic{
				Kind:    DIAG_JUNCTION_MISMATCH,
				NodeID:  nodeID,
				Message: fmt.Sprintf("%d ways share the node but only %d terminate there", sharingWays, converging),
			})
		}
	}
	return junctionNodes, diagnostics
}
