package osm2lanelet

import (
	geojson "github.com/paulmach/go.geojson"
	"github.com/pkg/errors"
)

// ToGeoJSON renders every boundary way of the map as a LineString feature,
// the quickest way to eyeball the offset geometry in a GIS viewer. Feature
// properties carry the way id, the boundary tags and the ids of the lanelet
// relations referencing the way.
func (laneletMap *LaneletMap) ToGeoJSON() ([]byte, error) {
	nodesByID := make(map[int64]*MapNode, len(laneletMap.Nodes))
	for _, node := range laneletMap.Nodes {
		nodesByID[node.ID] = node
	}
	laneletsByWay := make(map[int64][]int64)
	for _, relation := range laneletMap.Relations {
		for _, member := range relation.Members {
			if member.Type == "way" {
				laneletsByWay[member.Ref] = append(laneletsByWay[member.Ref], relation.ID)
			}
		}
	}

	collection := geojson.NewFeatureCollection()
	for _, way := range laneletMap.Ways {
		coordinates := make([][]float64, 0, len(way.NodeIDs))
		for _, nodeID := range way.NodeIDs {
			node, ok := nodesByID[nodeID]
			if !ok {
				return nil, errors.Errorf("Way '%d' references missing node '%d'", way.ID, nodeID)
			}
			coordinates = append(coordinates, []float64{node.Lon, node.Lat})
		}
		feature := geojson.NewLineStringFeature(coordinates)
		feature.SetProperty("way_id", way.ID)
		for _, tag := range way.Tags {
			feature.SetProperty(tag.Key, tag.Value)
		}
		feature.SetProperty("lanelets", laneletsByWay[way.ID])
		collection.AddFeature(feature)
	}
	return collection.MarshalJSON()
}
