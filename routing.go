package osm2lanelet

import (
	"github.com/LdDl/ch"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
	"github.com/pkg/errors"
)

// laneletEndpoints is the connectivity signature of one lanelet: the
// terminal node ids of its bounds. Two lanelets connect when the first
// lanelet's exit pair equals the second one's entry pair, which after
// junction resolution happens exactly for lanes meeting at a shared
// original node.
type laneletEndpoints struct {
	id           int64
	leftFirst    int64
	leftLast     int64
	rightFirst   int64
	rightLast    int64
	lengthMeters float64
}

// RoutingReport sums up the routability check over an emitted map.
type RoutingReport struct {
	IsolatedLanelets []int64
	Lanelets         int
	Connections      int
	Components       int
	ProbeFromID      int64
	ProbeToID        int64
	ProbeCostMeters  float64
	ProbeFound       bool
}

// CheckRoutability rebuilds the lane graph a downstream router would see:
// one vertex per lanelet, one edge per ordered pair of lanelets whose
// bounds meet end to start. It reports isolated lanelets and weakly
// connected components, then contracts the graph and runs one shortest
// path probe over the first connection found. Traveling an edge costs the
// source lanelet's mean boundary length in meters.
func (laneletMap *LaneletMap) CheckRoutability() (*RoutingReport, error) {
	nodesByID := make(map[int64]*MapNode, len(laneletMap.Nodes))
	for _, node := range laneletMap.Nodes {
		nodesByID[node.ID] = node
	}
	waysByID := make(map[int64]*MapWay, len(laneletMap.Ways))
	for _, way := range laneletMap.Ways {
		waysByID[way.ID] = way
	}
	lengthOf := func(way *MapWay) (float64, error) {
		line := make(orb.LineString, 0, len(way.NodeIDs))
		for _, nodeID := range way.NodeIDs {
			node, ok := nodesByID[nodeID]
			if !ok {
				return 0, errors.Errorf("Way '%d' references missing node '%d'", way.ID, nodeID)
			}
			line = append(line, orb.Point{node.Lon, node.Lat})
		}
		return geo.LengthHaversign(line), nil
	}

	endpoints := []*laneletEndpoints{}
	for _, relation := range laneletMap.Relations {
		var leftWay, rightWay *MapWay
		for _, member := range relation.Members {
			if member.Type != "way" {
				continue
			}
			way, ok := waysByID[member.Ref]
			if !ok {
				return nil, errors.Errorf("Lanelet '%d' references missing way '%d'", relation.ID, member.Ref)
			}
			switch member.Role {
			case "left":
				leftWay = way
			case "right":
				rightWay = way
			}
		}
		if leftWay == nil || rightWay == nil {
			return nil, errors.Errorf("Lanelet '%d' lacks left or right bound", relation.ID)
		}
		if len(leftWay.NodeIDs) == 0 || len(rightWay.NodeIDs) == 0 {
			return nil, errors.Errorf("Lanelet '%d' has an empty bound", relation.ID)
		}
		leftLength, err := lengthOf(leftWay)
		if err != nil {
			return nil, err
		}
		rightLength, err := lengthOf(rightWay)
		if err != nil {
			return nil, err
		}
		endpoints = append(endpoints, &laneletEndpoints{
			id:           relation.ID,
			leftFirst:    leftWay.NodeIDs[0],
			leftLast:     leftWay.NodeIDs[len(leftWay.NodeIDs)-1],
			rightFirst:   rightWay.NodeIDs[0],
			rightLast:    rightWay.NodeIDs[len(rightWay.NodeIDs)-1],
			lengthMeters: (leftLength + rightLength) / 2.0,
		})
	}

	graph := ch.Graph{}
	report := &RoutingReport{Lanelets: len(endpoints)}
	components := newDisjointSet()
	for _, lanelet := range endpoints {
		if err := graph.CreateVertex(lanelet.id); err != nil {
			return nil, errors.Wrap(err, "Can't create lanelet vertex")
		}
		components.add(lanelet.id)
	}

	entriesByKey := make(map[[2]int64][]*laneletEndpoints)
	for _, lanelet := range endpoints {
		key := [2]int64{lanelet.leftFirst, lanelet.rightFirst}
		entriesByKey[key] = append(entriesByKey[key], lanelet)
	}
	connected := make(map[int64]struct{})
	probeSet := false
	for _, from := range endpoints {
		for _, to := range entriesByKey[[2]int64{from.leftLast, from.rightLast}] {
			if to == from {
				continue
			}
			if err := graph.AddEdge(from.id, to.id, from.lengthMeters); err != nil {
				return nil, errors.Wrap(err, "Can't add lanelet connection")
			}
			report.Connections++
			connected[from.id] = struct{}{}
			connected[to.id] = struct{}{}
			components.union(from.id, to.id)
			if !probeSet {
				report.ProbeFromID = from.id
				report.ProbeToID = to.id
				probeSet = true
			}
		}
	}

	for _, lanelet := range endpoints {
		if _, ok := connected[lanelet.id]; !ok {
			report.IsolatedLanelets = append(report.IsolatedLanelets, lanelet.id)
		}
	}
	report.Components = components.count()

	if probeSet {
		graph.PrepareContractionHierarchies()
		cost, path := graph.ShortestPath(report.ProbeFromID, report.ProbeToID)
		if len(path) > 0 {
			report.ProbeFound = true
			report.ProbeCostMeters = cost
		}
	}
	return report, nil
}

// disjointSet is a minimal union-find over lanelet ids, enough to count the
// weakly connected components of the lane graph.
type disjointSet struct {
	parent map[int64]int64
}

func newDisjointSet() *disjointSet {
	return &disjointSet{parent: make(map[int64]int64)}
}

func (set *disjointSet) add(id int64) {
	if _, ok := set.parent[id]; !ok {
		set.parent[id] = id
	}
}

func (set *disjointSet) find(id int64) int64 {
	for set.parent[id] != id {
		set.parent[id] = set.parent[set.parent[id]]
		id = set.parent[id]
	}
	return id
}

func (set *disjointSet) union(a, b int64) {
	rootA := set.find(a)
	rootB := set.find(b)
	if rootA != rootB {
		set.parent[rootA] = rootB
	}
}

func (set *disjointSet) count() int {
	roots := make(map[int64]struct{})
	for id := range set.parent {
		roots[set.find(id)] = struct{}{}
	}
	return len(roots)
}
