package osm2lanelet

import (
	"fmt"
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/osm"
)

// BoundarySide tells which edge of the source road a boundary polyline
// represents.
type BoundarySide uint16

const (
	SIDE_LEFT = BoundarySide(iota + 1)
	SIDE_CENTER
	SIDE_RIGHT
)

func (iotaIdx BoundarySide) String() string {
	return [...]string{"left", "center", "right"}[iotaIdx-1]
}

// BoundaryVertex is one point of a boundary polyline. Besides the offset
// position it keeps its provenance: the source OSM node, the lane side and
// the perpendicular/half-width it was offset with. The junction resolver
// groups by that provenance, so two boundaries connect only when they
// derive from the same original node. After resolution the converging
// polylines hold the same *BoundaryVertex: shared geometry is pointer
// identity, never coordinate comparison.
type BoundaryVertex struct {
	point      orb.Point
	origin     orb.Point
	perp       orb.Point
	halfWidth  float64
	sourceNode osm.NodeID
	side       BoundarySide
	canonical  bool
}

// BoundaryPolyline is one lane edge of one source way.
type BoundaryPolyline struct {
	wayID    osm.WayID
	side     BoundarySide
	vertices []*BoundaryVertex
}

// reversedVertices returns the polyline's vertices in reverse traversal
// order. The vertex objects are shared, only the order is new.
func (polyline *BoundaryPolyline) reversedVertices() []*BoundaryVertex {
	inputLen := len(polyline.vertices)
	output := make([]*BoundaryVertex, inputLen)
	for i, vertex := range polyline.vertices {
		output[inputLen-i-1] = vertex
	}
	return output
}

// laneBoundaries bundles everything the later stages need for one kept way:
// the resolved profile and the offset polylines. Center is nil for oneway
// roads.
type laneBoundaries struct {
	way     *WayData
	profile RoadProfile
	left    *BoundaryPolyline
	center  *BoundaryPolyline
	right   *BoundaryPolyline
}

// Segments shorter than this (meters, on the local plane) have no usable
// direction.
const degenerateSegmentMeters = 1e-9

// buildBoundaries projects the way onto the local metric plane and offsets
// its centerline into the lane boundary polylines: left and right for a
// oneway road, plus the shared centerline for a bidirectional one. Reversed
// oneway ways are walked back to front so the boundaries always follow the
// driving direction. Degenerate geometry skips the way with a diagnostic.
// Junction stitching is not this stage's job: every way is offset in
// isolation and the junction resolver connects the endpoints afterwards.
func buildBoundaries(way *WayData, profile RoadProfile, nodes map[osm.NodeID]*Node, proj equirectangular) (*laneBoundaries, *Diagnostic, error) {
	nodeIDs := way.Nodes
	if profile.IsReversed {
		nodeIDs = reverseNodeIDs(nodeIDs)
	}
	line := make(orb.LineString, 0, len(nodeIDs))
	for _, nodeID := range nodeIDs {
		node, ok := nodes[nodeID]
		if !ok {
			return nil, nil, fmt.Errorf("No such node '%d'. Way ID: '%d'", nodeID, way.ID)
		}
		line = append(line, proj.project(GeoPoint{Lat: node.node.Lat, Lon: node.node.Lon}))
	}
	for i := 1; i < len(line); i++ {
		if math.Hypot(line[i][0]-line[i-1][0], line[i][1]-line[i-1][1]) < degenerateSegmentMeters {
			return nil, &Diagnostic{
				Kind:    DIAG_DEGENERATE_WAY,
				WayID:   way.ID,
				NodeID:  nodeIDs[i],
				Message: fmt.Sprintf("zero-length segment between nodes '%d' and '%d'", nodeIDs[i-1], nodeIDs[i]),
			}, nil
		}
	}

	perps := smoothedPerpendiculars(line)
	boundaries := &laneBoundaries{
		way:     way,
		profile: profile,
		left:    &BoundaryPolyline{wayID: way.ID, side: SIDE_LEFT, vertices: make([]*BoundaryVertex, len(line))},
		right:   &BoundaryPolyline{wayID: way.ID, side: SIDE_RIGHT, vertices: make([]*BoundaryVertex, len(line))},
	}
	if !profile.Oneway {
		boundaries.center = &BoundaryPolyline{wayID: way.ID, side: SIDE_CENTER, vertices: make([]*BoundaryVertex, len(line))}
	}
	for i, pt := range line {
		perp := perps[i]
		boundaries.left.vertices[i] = &BoundaryVertex{
			point:      orb.Point{pt[0] + perp[0]*profile.HalfWidth, pt[1] + perp[1]*profile.HalfWidth},
			origin:     pt,
			perp:       perp,
			halfWidth:  profile.HalfWidth,
			sourceNode: nodeIDs[i],
			side:       SIDE_LEFT,
		}
		boundaries.right.vertices[i] = &BoundaryVertex{
			point:      orb.Point{pt[0] - perp[0]*profile.HalfWidth, pt[1] - perp[1]*profile.HalfWidth},
			origin:     pt,
			perp:       perp,
			halfWidth:  profile.HalfWidth,
			sourceNode: nodeIDs[i],
			side:       SIDE_RIGHT,
		}
		if boundaries.center != nil {
			boundaries.center.vertices[i] = &BoundaryVertex{
				point:      pt,
				origin:     pt,
				perp:       perp,
				halfWidth:  0,
				sourceNode: nodeIDs[i],
				side:       SIDE_CENTER,
			}
		}
	}
	return boundaries, nil, nil
}

// reverseNodeIDs returns node references in reverse order. Returns new slice
func reverseNodeIDs(ids []osm.NodeID) []osm.NodeID {
	inputLen := len(ids)
	output := make([]osm.NodeID, inputLen)
	for i, id := range ids {
		output[inputLen-i-1] = id
	}
	return output
}
