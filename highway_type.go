package osm2lanelet

type HighwayType uint16

const (
	HIGHWAY_UNDEFINED = HighwayType(0)

	HIGHWAY_MOTORWAY = HighwayType(iota)
	HIGHWAY_MOTORWAY_LINK
	HIGHWAY_TRUNK
	HIGHWAY_TRUNK_LINK
	HIGHWAY_PRIMARY
	HIGHWAY_PRIMARY_LINK
	HIGHWAY_SECONDARY
	HIGHWAY_SECONDARY_LINK
	HIGHWAY_TERTIARY
	HIGHWAY_TERTIARY_LINK
	HIGHWAY_RESIDENTIAL
	HIGHWAY_LIVING_STREET
	HIGHWAY_SERVICE
	HIGHWAY_UNCLASSIFIED
	HIGHWAY_ROAD
	HIGHWAY_FOOTWAY
	HIGHWAY_CYCLEWAY
	HIGHWAY_PATH
	HIGHWAY_PEDESTRIAN
	HIGHWAY_STEPS
)

func (iotaIdx HighwayType) String() string {
	if iotaIdx == HIGHWAY_UNDEFINED {
		return "undefined"
	}
	return [...]string{"motorway", "motorway_link", "trunk", "trunk_link", "primary", "primary_link", "secondary", "secondary_link", "tertiary", "tertiary_link", "residential", "living_street", "service", "unclassified", "road", "footway", "cycleway", "path", "pedestrian", "steps"}[iotaIdx-1]
}

func getHighwayType(str string) HighwayType {
	if found, ok := highwaysTypes[str]; ok {
		return found
	}
	return HIGHWAY_UNDEFINED
}

const (
	// Profile applied when the `highway` tag value is not recognized:
	// narrow and slow rather than a rejected way.
	fallbackHalfWidthMeters = 2.0
	fallbackSpeedLimitKmh   = 20.0
	// Speed for vehicular categories missing from defaultSpeedByHighway.
	defaultSpeedLimitKmh = 50.0
)

var (
	highwaysTypes = map[string]HighwayType{
		"motorway":       HIGHWAY_MOTORWAY,
		"motorway_link":  HIGHWAY_MOTORWAY_LINK,
		"trunk":          HIGHWAY_TRUNK,
		"trunk_link":     HIGHWAY_TRUNK_LINK,
		"primary":        HIGHWAY_PRIMARY,
		"primary_link":   HIGHWAY_PRIMARY_LINK,
		"secondary":      HIGHWAY_SECONDARY,
		"secondary_link": HIGHWAY_SECONDARY_LINK,
		"tertiary":       HIGHWAY_TERTIARY,
		"tertiary_link":  HIGHWAY_TERTIARY_LINK,
		"residential":    HIGHWAY_RESIDENTIAL,
		"living_street":  HIGHWAY_LIVING_STREET,
		"service":        HIGHWAY_SERVICE,
		"unclassified":   HIGHWAY_UNCLASSIFIED,
		"road":           HIGHWAY_ROAD,
		"footway":        HIGHWAY_FOOTWAY,
		"cycleway":       HIGHWAY_CYCLEWAY,
		"path":           HIGHWAY_PATH,
		"pedestrian":     HIGHWAY_PEDESTRIAN,
		"steps":          HIGHWAY_STEPS,
	}

	// Distance in meters from the road centerline to each lane boundary.
	halfWidthByHighway = map[HighwayType]float64{
		HIGHWAY_MOTORWAY:       3.75,
		HIGHWAY_MOTORWAY_LINK:  3.5,
		HIGHWAY_TRUNK:          3.5,
		HIGHWAY_TRUNK_LINK:     3.25,
		HIGHWAY_PRIMARY:        3.25,
		HIGHWAY_PRIMARY_LINK:   3.0,
		HIGHWAY_SECONDARY:      3.0,
		HIGHWAY_SECONDARY_LINK: 2.75,
		HIGHWAY_TERTIARY:       3.0,
		HIGHWAY_TERTIARY_LINK:  2.75,
		HIGHWAY_RESIDENTIAL:    2.75,
		HIGHWAY_LIVING_STREET:  2.5,
		HIGHWAY_SERVICE:        2.5,
		HIGHWAY_UNCLASSIFIED:   3.0,
		HIGHWAY_ROAD:           3.0,
		HIGHWAY_FOOTWAY:        1.5,
		HIGHWAY_CYCLEWAY:       1.5,
		HIGHWAY_PATH:           1.5,
		HIGHWAY_PEDESTRIAN:     2.0,
		HIGHWAY_STEPS:          1.0,
	}

	// Speed limits in km/h applied when the way carries no `maxspeed` tag.
	defaultSpeedByHighway = map[HighwayType]float64{
		HIGHWAY_MOTORWAY:      130,
		HIGHWAY_TRUNK:         100,
		HIGHWAY_PRIMARY:       90,
		HIGHWAY_SECONDARY:     70,
		HIGHWAY_TERTIARY:      50,
		HIGHWAY_RESIDENTIAL:   30,
		HIGHWAY_SERVICE:       20,
		HIGHWAY_LIVING_STREET: 10,
		HIGHWAY_UNCLASSIFIED:  50,
		HIGHWAY_ROAD:          50,
	}

	// Categories carrying motor traffic. Anything else known produces no
	// lanelets.
	vehicleHighways = map[HighwayType]struct{}{
		HIGHWAY_MOTORWAY:       {},
		HIGHWAY_MOTORWAY_LINK:  {},
		HIGHWAY_TRUNK:          {},
		HIGHWAY_TRUNK_LINK:     {},
		HIGHWAY_PRIMARY:        {},
		HIGHWAY_PRIMARY_LINK:   {},
		HIGHWAY_SECONDARY:      {},
		HIGHWAY_SECONDARY_LINK: {},
		HIGHWAY_TERTIARY:       {},
		HIGHWAY_TERTIARY_LINK:  {},
		HIGHWAY_RESIDENTIAL:    {},
		HIGHWAY_LIVING_STREET:  {},
		HIGHWAY_SERVICE:        {},
		HIGHWAY_UNCLASSIFIED:   {},
		HIGHWAY_ROAD:           {},
	}

	// See ref. https://wiki.openstreetmap.org/wiki/Key:junction
	junctionTypes = map[string]struct{}{
		"circular":   {},
		"roundabout": {},
	}

	// See ref. https://wiki.openstreetmap.org/wiki/Tag:oneway%3Dreversible
	onewayReversible = map[string]struct{}{
		"reversible":  {},
		"alternating": {},
	}
)
