package osm2lanelet

import (
	"math"
	"testing"

	"github.com/paulmach/osm"
)

func mustBuildBoundaries(t *testing.T, way *WayData, profile RoadProfile, nodes map[osm.NodeID]*Node, proj equirectangular) *laneBoundaries {
	t.Helper()
	boundaries, diagnostic, err := buildBoundaries(way, profile, nodes, proj)
	if err != nil {
		t.Fatal(err)
	}
	if diagnostic != nil {
		t.Fatalf("Offsetting should produce no diagnostic, but got '%s'", diagnostic)
	}
	return boundaries
}

// crossroadNodes is a plus-shaped fixture: node 5 in the middle, nodes 1-4
// to the west, east, south and north of it.
func crossroadNodes() map[osm.NodeID]*Node {
	return map[osm.NodeID]*Node{
		1: {ID: 1, node: osm.Node{Lat: 0.0, Lon: -0.0001}},
		2: {ID: 2, node: osm.Node{Lat: 0.0, Lon: 0.0001}},
		3: {ID: 3, node: osm.Node{Lat: -0.0001, Lon: 0.0}},
		4: {ID: 4, node: osm.Node{Lat: 0.0001, Lon: 0.0}},
		5: {ID: 5, node: osm.Node{Lat: 0.0, Lon: 0.0}},
	}
}

func TestResolveJunctionsCrossroad(t *testing.T) {
	nodes := crossroadNodes()
	proj := newEquirectangular(GeoPoint{Lat: 0, Lon: 0})
	profile := RoadProfile{Highway: HIGHWAY_RESIDENTIAL, HalfWidth: 2.75, SpeedLimit: 30, Lanes: 2, Vehicular: true}
	boundaries := []*laneBoundaries{
		mustBuildBoundaries(t, &WayData{ID: 101, Nodes: []osm.NodeID{1, 5}}, profile, nodes, proj),
		mustBuildBoundaries(t, &WayData{ID: 102, Nodes: []osm.NodeID{5, 2}}, profile, nodes, proj),
		mustBuildBoundaries(t, &WayData{ID: 103, Nodes: []osm.NodeID{3, 5}}, profile, nodes, proj),
		mustBuildBoundaries(t, &WayData{ID: 104, Nodes: []osm.NodeID{5, 4}}, profile, nodes, proj),
	}

	resolution := resolveJunctions(boundaries)
	if len(resolution.canonicalVertices) != 3 {
		t.Errorf("Shared vertices number should be %d, but got %d", 3, len(resolution.canonicalVertices))
	}
	if resolution.junctionNodes != 1 {
		t.Errorf("Junction nodes number should be %d, but got %d", 1, resolution.junctionNodes)
	}
	if len(resolution.diagnostics) != 0 {
		t.Errorf("Diagnostics number should be %d, but got %d", 0, len(resolution.diagnostics))
	}

	leftShared := boundaries[0].left.vertices[1]
	if !leftShared.canonical {
		t.Errorf("Merged endpoint should be marked canonical")
	}
	if boundaries[1].left.vertices[0] != leftShared {
		t.Errorf("Left boundaries of ways 101 and 102 should share the junction vertex")
	}
	if boundaries[2].left.vertices[1] != leftShared || boundaries[3].left.vertices[0] != leftShared {
		t.Errorf("Left boundaries of all four ways should share the junction vertex")
	}

	// Two ways head east, two head north, so the averaged offset direction
	// points northwest
	expected := profile.HalfWidth / math.Sqrt2
	if math.Abs(leftShared.point[0]+expected) > 1e-9 || math.Abs(leftShared.point[1]-expected) > 1e-9 {
		t.Errorf("Shared left vertex should be at (%v, %v), but got (%v, %v)", -expected, expected, leftShared.point[0], leftShared.point[1])
	}

	centerShared := boundaries[0].center.vertices[1]
	if boundaries[1].center.vertices[0] != centerShared {
		t.Errorf("Centerlines of ways 101 and 102 should share the junction vertex")
	}
	if math.Abs(centerShared.point[0]) > 1e-12 || math.Abs(centerShared.point[1]) > 1e-12 {
		t.Errorf("Shared centerline vertex should sit on the junction node, but got (%v, %v)", centerShared.point[0], centerShared.point[1])
	}

	// Running the resolver on its own output must change nothing
	second := resolveJunctions(boundaries)
	if len(second.canonicalVertices) != 0 {
		t.Errorf("Second pass should synthesize %d vertices, but got %d", 0, len(second.canonicalVertices))
	}
	if boundaries[0].left.vertices[1] != leftShared {
		t.Errorf("Second pass should keep the shared vertex")
	}
}

func TestResolveJunctionsMixedSides(t *testing.T) {
	nodes := crossroadNodes()
	proj := newEquirectangular(GeoPoint{Lat: 0, Lon: 0})
	bidi := RoadProfile{Highway: HIGHWAY_RESIDENTIAL, HalfWidth: 2.75, SpeedLimit: 30, Lanes: 2, Vehicular: true}
	oneway := RoadProfile{Highway: HIGHWAY_RESIDENTIAL, HalfWidth: 2.75, SpeedLimit: 30, Lanes: 1, Oneway: true, Vehicular: true}
	boundaries := []*laneBoundaries{
		mustBuildBoundaries(t, &WayData{ID: 101, Nodes: []osm.NodeID{1, 5}}, bidi, nodes, proj),
		mustBuildBoundaries(t, &WayData{ID: 102, Nodes: []osm.NodeID{5, 2}}, oneway, nodes, proj),
	}

	resolution := resolveJunctions(boundaries)
	// Left and right edges merge, the centerline has no counterpart
	if len(resolution.canonicalVertices) != 2 {
		t.Errorf("Shared vertices number should be %d, but got %d", 2, len(resolution.canonicalVertices))
	}
	if boundaries[0].left.vertices[1] != boundaries[1].left.vertices[0] {
		t.Errorf("Left boundaries should share the junction vertex")
	}
	if boundaries[0].right.vertices[1] != boundaries[1].right.vertices[0] {
		t.Errorf("Right boundaries should share the junction vertex")
	}
	if boundaries[0].center.vertices[1].canonical {
		t.Errorf("Centerline endpoint without a counterpart should keep its own vertex")
	}
	if resolution.junctionNodes != 1 {
		t.Errorf("Junction nodes number should be %d, but got %d", 1, resolution.junctionNodes)
	}
	if len(resolution.diagnostics) != 0 {
		t.Errorf("Diagnostics number should be %d, but got %d", 0, len(resolution.diagnostics))
	}
}

func TestResolveJunctionsPassThrough(t *testing.T) {
	nodes := crossroadNodes()
	proj := newEquirectangular(GeoPoint{Lat: 0, Lon: 0})
	profile := RoadProfile{Highway: HIGHWAY_RESIDENTIAL, HalfWidth: 2.75, SpeedLimit: 30, Lanes: 2, Vehicular: true}
	boundaries := []*laneBoundaries{
		// Way 101 runs through the junction node mid-sequence
		mustBuildBoundaries(t, &WayData{ID: 101, Nodes: []osm.NodeID{1, 5, 2}}, profile, nodes, proj),
		mustBuildBoundaries(t, &WayData{ID: 102, Nodes: []osm.NodeID{3, 5}}, profile, nodes, proj),
	}

	resolution := resolveJunctions(boundaries)
	if len(resolution.canonicalVertices) != 0 {
		t.Errorf("Shared vertices number should be %d, but got %d", 0, len(resolution.canonicalVertices))
	}
	if resolution.junctionNodes != 1 {
		t.Errorf("Junction nodes number should be %d, but got %d", 1, resolution.junctionNodes)
	}
	if len(resolution.diagnostics) != 1 {
		t.Errorf("Diagnostics number should be %d, but got %d", 1, len(resolution.diagnostics))
		return
	}
	if resolution.diagnostics[0].Kind != DIAG_JUNCTION_MISMATCH {
		t.Errorf("Diagnostic kind should be '%s', but got '%s'", DIAG_JUNCTION_MISMATCH, resolution.diagnostics[0].Kind)
	}
	if resolution.diagnostics[0].NodeID != 5 {
		t.Errorf("Diagnostic node ID should be %d, but got %d", 5, resolution.diagnostics[0].NodeID)
	}
}

func TestResolveJunctionsCyclicWay(t *testing.T) {
	nodes := map[osm.NodeID]*Node{
		1: {ID: 1, node: osm.Node{Lat: 0.0, Lon: 0.0}},
		2: {ID: 2, node: osm.Node{Lat: 0.0, Lon: 0.0001}},
		3: {ID: 3, node: osm.Node{Lat: 0.0001, Lon: 0.0001}},
	}
	proj := newEquirectangular(GeoPoint{Lat: 0, Lon: 0})
	profile := RoadProfile{Highway: HIGHWAY_RESIDENTIAL, HalfWidth: 2.75, SpeedLimit: 30, Lanes: 1, Oneway: true, Vehicular: true}
	way := &WayData{ID: 42, Nodes: []osm.NodeID{1, 2, 3, 1}}
	boundaries := mustBuildBoundaries(t, way, profile, nodes, proj)

	resolution := resolveJunctions([]*laneBoundaries{boundaries})
	if len(resolution.canonicalVertices) != 2 {
		t.Errorf("Shared vertices number should be %d, but got %d", 2, len(resolution.canonicalVertices))
	}
	if boundaries.left.vertices[0] != boundaries.left.vertices[3] {
		t.Errorf("Closed loop should share the left vertex between its first and last positions")
	}
	if boundaries.right.vertices[0] != boundaries.right.vertices[3] {
		t.Errorf("Closed loop should share the right vertex between its first and last positions")
	}
	// A node visited twice by the same way is not a junction
	if resolution.junctionNodes != 0 {
		t.Errorf("Junction nodes number should be %d, but got %d", 0, resolution.junctionNodes)
	}
}
