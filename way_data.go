package osm2lanelet

import (
	"github.com/paulmach/osm"
)

// WayData is a single road way as the loader keeps it: ordered node
// references, the verbatim tags copy and the handful of flattened tag
// values the later stages consume.
type WayData struct {
	name     string
	highway  string
	junction string
	oneway   string
	maxspeed string
	width    string
	lanes    string

	TagMap osm.Tags
	Nodes  []osm.NodeID
	ID     osm.WayID
}

// flattenTags extracts the tag values the classifier needs so the rest of
// the pipeline never searches the tags list again.
func (way *WayData) flattenTags() {
	way.name = way.TagMap.Find("name")
	way.highway = way.TagMap.Find("highway")
	way.junction = way.TagMap.Find("junction")
	way.oneway = way.TagMap.Find("oneway")
	way.maxspeed = way.TagMap.Find("maxspeed")
	way.width = way.TagMap.Find("width")
	way.lanes = way.TagMap.Find("lanes")
}

func (way *WayData) isHighway() bool {
	return way.highway != ""
}
