package osm2lanelet

import (
	"strconv"

	"github.com/paulmach/osm"
)

// DirectionType tells which travel direction along the source way a lanelet
// serves.
type DirectionType uint16

const (
	DIRECTION_FORWARD = DirectionType(iota + 1)
	DIRECTION_BACKWARD
)

func (iotaIdx DirectionType) String() string {
	return [...]string{"forward", "backward"}[iotaIdx-1]
}

const (
	boundaryWayType = "line_thin"
	boundarySolid   = "solid"
	boundaryDashed  = "dashed"
)

// Lanelet is one directional lane cell: a left and a right boundary of
// equal vertex counts plus the regulatory attributes the map format
// carries. Boundaries are ordered along the travel direction.
type Lanelet struct {
	Name          string
	LeftSubtype   string
	RightSubtype  string
	LeftVertices  []*BoundaryVertex
	RightVertices []*BoundaryVertex
	SpeedLimit    float64
	WayID         osm.WayID
	Direction     DirectionType
	Oneway        bool
}

// buildLanelets assembles directional lanelets from the resolved
// boundaries: one per oneway road, two otherwise. The forward lanelet runs
// between the left boundary and the shared centerline, the backward one
// between the reversed centerline and the reversed right boundary, so both
// follow their own travel direction and the dashed centerline is shared.
// Call it only after junction resolution: the lanelets alias the resolved
// vertices.
func buildLanelets(boundaries []*laneBoundaries) []*Lanelet {
	lanelets := []*Lanelet{}
	for _, b := range boundaries {
		if b.profile.Oneway {
			lanelets = append(lanelets, &Lanelet{
				Name:          b.way.name,
				LeftSubtype:   boundarySolid,
				RightSubtype:  boundarySolid,
				LeftVertices:  b.left.vertices,
				RightVertices: b.right.vertices,
				SpeedLimit:    b.profile.SpeedLimit,
				WayID:         b.way.ID,
				Direction:     DIRECTION_FORWARD,
				Oneway:        true,
			})
			continue
		}
		lanelets = append(lanelets, &Lanelet{
			Name:          b.way.name,
			LeftSubtype:   boundarySolid,
			RightSubtype:  boundaryDashed,
			LeftVertices:  b.left.vertices,
			RightVertices: b.center.vertices,
			SpeedLimit:    b.profile.SpeedLimit,
			WayID:         b.way.ID,
			Direction:     DIRECTION_FORWARD,
		})
		lanelets = append(lanelets, &Lanelet{
			Name:          b.way.name,
			LeftSubtype:   boundaryDashed,
			RightSubtype:  boundarySolid,
			LeftVertices:  b.center.reversedVertices(),
			RightVertices: b.right.reversedVertices(),
			SpeedLimit:    b.profile.SpeedLimit,
			WayID:         b.way.ID,
			Direction:     DIRECTION_BACKWARD,
		})
	}
	return lanelets
}

// formatSpeedLimit renders a speed limit the way the map format carries it:
// shortest decimal form, no unit suffix.
func formatSpeedLimit(speed float64) string {
	return strconv.FormatFloat(speed, 'f', -1, 64)
}
