package osm2lanelet

import (
	"fmt"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/wkt"
	"github.com/pkg/errors"
)

// ToWKT renders every boundary way of the map as one `id;LINESTRING(...)`
// line for quick inspection in anything that speaks WKT.
func (laneletMap *LaneletMap) ToWKT() (string, error) {
	nodesByID := make(map[int64]*MapNode, len(laneletMap.Nodes))
	for _, node := range laneletMap.Nodes {
		nodesByID[node.ID] = node
	}

	var builder strings.Builder
	for _, way := range laneletMap.Ways {
		line := make(orb.LineString, 0, len(way.NodeIDs))
		for _, nodeID := range way.NodeIDs {
			node, ok := nodesByID[nodeID]
			if !ok {
				return "", errors.Errorf("Way '%d' references missing node '%d'", way.ID, nodeID)
			}
			line = append(line, orb.Point{node.Lon, node.Lat})
		}
		fmt.Fprintf(&builder, "%d;%s\n", way.ID, wkt.MarshalString(line))
	}
	return builder.String(), nil
}
