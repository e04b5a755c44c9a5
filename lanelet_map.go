package osm2lanelet

import (
	"strconv"
)

// MapTag is one key/value pair on an output element, kept in emission
// order.
type MapTag struct {
	Key   string
	Value string
}

// MapNode is one output map node. When local coordinates are requested they
// ride in Tags as `local_x`/`local_y`.
type MapNode struct {
	ID   int64
	Lat  float64
	Lon  float64
	Tags []MapTag
}

// MapWay is one boundary polyline of the output map.
type MapWay struct {
	NodeIDs []int64
	Tags    []MapTag
	ID      int64
}

// MapMember is one member reference of an output relation.
type MapMember struct {
	Type string
	Role string
	Ref  int64
}

// MapRelation is one lanelet of the output map.
type MapRelation struct {
	Members []MapMember
	Tags    []MapTag
	ID      int64
}

// LaneletMap is the converter output: the whole node/way/relation document
// in creation order plus everything the callers report around it. Identical
// input assembles the identical map, so serialized exports are diffable.
type LaneletMap struct {
	Generator   string
	Bounds      *Bounds
	Origin      GeoPoint
	Nodes       []*MapNode
	Ways        []*MapWay
	Relations   []*MapRelation
	Diagnostics []Diagnostic
}

// mapAssembler allocates negative element ids per element kind in creation
// order, the map-builder convention for elements that never lived on the
// OSM servers. Boundary vertices are deduplicated by identity: a vertex
// shared by several polylines becomes exactly one output node.
type mapAssembler struct {
	laneletMap *LaneletMap
	proj       equirectangular
	nodeIDs    map[*BoundaryVertex]int64
	nextNode   int64
	nextWay    int64
	nextRel    int64
	localXY    bool
}

func newMapAssembler(laneletMap *LaneletMap, proj equirectangular, localXY bool) *mapAssembler {
	return &mapAssembler{
		laneletMap: laneletMap,
		proj:       proj,
		nodeIDs:    make(map[*BoundaryVertex]int64),
		nextNode:   -1,
		nextWay:    -1,
		nextRel:    -1,
		localXY:    localXY,
	}
}

func (assembler *mapAssembler) nodeID(vertex *BoundaryVertex) int64 {
	if id, ok := assembler.nodeIDs[vertex]; ok {
		return id
	}
	id := assembler.nextNode
	assembler.nextNode--
	assembler.nodeIDs[vertex] = id
	geoPt := assembler.proj.unproject(vertex.point)
	node := &MapNode{ID: id, Lat: geoPt.Lat, Lon: geoPt.Lon}
	if assembler.localXY {
		node.Tags = []MapTag{
			{Key: "local_x", Value: strconv.FormatFloat(vertex.point[0], 'f', 4, 64)},
			{Key: "local_y", Value: strconv.FormatFloat(vertex.point[1], 'f', 4, 64)},
		}
	}
	assembler.laneletMap.Nodes = append(assembler.laneletMap.Nodes, node)
	return id
}

func (assembler *mapAssembler) addWay(vertices []*BoundaryVertex, subtype string) int64 {
	nodeIDs := make([]int64, len(vertices))
	for i, vertex := range vertices {
		nodeIDs[i] = assembler.nodeID(vertex)
	}
	id := assembler.nextWay
	assembler.nextWay--
	assembler.laneletMap.Ways = append(assembler.laneletMap.Ways, &MapWay{
		ID:      id,
		NodeIDs: nodeIDs,
		Tags: []MapTag{
			{Key: "type", Value: boundaryWayType},
			{Key: "subtype", Value: subtype},
		},
	})
	return id
}

func (assembler *mapAssembler) addLanelet(lanelet *Lanelet) int64 {
	leftID := assembler.addWay(lanelet.LeftVertices, lanelet.LeftSubtype)
	rightID := assembler.addWay(lanelet.RightVertices, lanelet.RightSubtype)
	tags := []MapTag{
		{Key: "type", Value: "lanelet"},
		{Key: "subtype", Value: "road"},
		{Key: "speed_limit", Value: formatSpeedLimit(lanelet.SpeedLimit)},
		{Key: "location", Value: "urban"},
		{Key: "participant:vehicle", Value: "yes"},
		{Key: "participant:pedestrian", Value: "no"},
	}
	if lanelet.Name != "" {
		tags = append(tags, MapTag{Key: "name", Value: lanelet.Name})
	}
	if lanelet.Oneway {
		tags = append(tags, MapTag{Key: "one_way", Value: "yes"})
	}
	id := assembler.nextRel
	assembler.nextRel--
	assembler.laneletMap.Relations = append(assembler.laneletMap.Relations, &MapRelation{
		ID: id,
		Members: []MapMember{
			{Type: "way", Ref: leftID, Role: "left"},
			{Type: "way", Ref: rightID, Role: "right"},
		},
		Tags: tags,
	})
	return id
}

// emitLaneletMap materializes the output document. Canonical junction
// vertices claim the first node ids in synthesis order, then each lanelet
// is walked and its boundaries append whatever nodes, ways and relations
// they still miss. Nothing gets dropped here: every excluded way was
// already reported by an earlier stage.
func emitLaneletMap(lanelets []*Lanelet, resolution *junctionResolution, data *OSMData, origin GeoPoint, proj equirectangular, generator string, localXY bool) *LaneletMap {
	laneletMap := &LaneletMap{
		Generator: generator,
		Bounds:    data.bounds,
		Origin:    origin,
	}
	assembler := newMapAssembler(laneletMap, proj, localXY)
	for _, vertex := range resolution.canonicalVertices {
		assembler.nodeID(vertex)
	}
	for _, lanelet := range lanelets {
		assembler.addLanelet(lanelet)
	}
	return laneletMap
}
