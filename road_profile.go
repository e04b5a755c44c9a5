package osm2lanelet

import (
	"fmt"
	"regexp"
	"strconv"
)

// RoadProfile is the resolved attribute bundle for a single road way. It is
// derived from the way's tags once and consumed read-only by the offsetter
// and the emitter.
type RoadProfile struct {
	Highway    HighwayType
	HalfWidth  float64 // meters from the centerline to each lane boundary
	SpeedLimit float64 // km/h
	Lanes      int
	Oneway     bool
	IsReversed bool
	Vehicular  bool
}

const mphToKmh = 1.609344

var (
	numericRegExp = regexp.MustCompile(`^\d+\.?\d*$`)
	kmhRegExp     = regexp.MustCompile(`^(\d+\.?\d*)\s*(?:km/h|kmh|kph)$`)
	mphRegExp     = regexp.MustCompile(`^(\d+\.?\d*)\s*mph$`)
	widthRegExp   = regexp.MustCompile(`^(\d+\.?\d*)\s*m?$`)
)

// parseMaxspeed resolves a `maxspeed` tag value to km/h. Bare numbers are
// km/h already per OSM convention, mph values get converted.
func parseMaxspeed(value string) (float64, bool) {
	if numericRegExp.MatchString(value) {
		speed, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return 0, false
		}
		return speed, true
	}
	if match := kmhRegExp.FindStringSubmatch(value); match != nil {
		speed, err := strconv.ParseFloat(match[1], 64)
		if err != nil {
			return 0, false
		}
		return speed, true
	}
	if match := mphRegExp.FindStringSubmatch(value); match != nil {
		speed, err := strconv.ParseFloat(match[1], 64)
		if err != nil {
			return 0, false
		}
		return speed * mphToKmh, true
	}
	return 0, false
}

// parseWidth resolves a `width` tag value to meters. Bare numbers and the
// `<number> m` form are accepted.
func parseWidth(value string) (float64, bool) {
	match := widthRegExp.FindStringSubmatch(value)
	if match == nil {
		return 0, false
	}
	width, err := strconv.ParseFloat(match[1], 64)
	if err != nil || width <= 0 {
		return 0, false
	}
	return width, true
}

// classifyWay resolves the way's tags to a road profile. Classification
// never fails: unknown road categories degrade to the fallback profile and
// unparseable attribute values keep the category defaults, each with a
// diagnostic. Non-vehicular ways come back with Vehicular unset and produce
// no lanelets.
func classifyWay(way *WayData) (RoadProfile, []Diagnostic) {
	diagnostics := []Diagnostic{}
	profile := RoadProfile{Highway: getHighwayType(way.highway)}

	if profile.Highway == HIGHWAY_UNDEFINED {
		profile.HalfWidth = fallbackHalfWidthMeters
		profile.SpeedLimit = fallbackSpeedLimitKmh
		profile.Vehicular = true
		diagnostics = append(diagnostics, Diagnostic{
			Kind:    DIAG_UNCLASSIFIED_ROAD,
			WayID:   way.ID,
			Message: fmt.Sprintf("unknown `highway` tag value '%s', fallback profile applied", way.highway),
		})
	} else {
		profile.HalfWidth = halfWidthByHighway[profile.Highway]
		if speed, ok := defaultSpeedByHighway[profile.Highway]; ok {
			profile.SpeedLimit = speed
		} else {
			profile.SpeedLimit = defaultSpeedLimitKmh
		}
		_, profile.Vehicular = vehicleHighways[profile.Highway]
	}

	if !profile.Vehicular {
		diagnostics = append(diagnostics, Diagnostic{
			Kind:    DIAG_NONVEHICULAR_WAY,
			WayID:   way.ID,
			Message: fmt.Sprintf("non-vehicular way ('highway'='%s') produces no lanelets", way.highway),
		})
		return profile, diagnostics
	}

	/* Explicit tags beat the category defaults */
	if way.maxspeed != "" {
		if speed, ok := parseMaxspeed(way.maxspeed); ok {
			profile.SpeedLimit = speed
		} else {
			diagnostics = append(diagnostics, Diagnostic{
				Kind:    DIAG_UNPARSEABLE_ATTRIBUTE,
				WayID:   way.ID,
				Message: fmt.Sprintf("can't parse `maxspeed` tag value '%s', keeping %v km/h", way.maxspeed, profile.SpeedLimit),
			})
		}
	}
	if way.width != "" {
		if width, ok := parseWidth(way.width); ok {
			profile.HalfWidth = width / 2.0
		} else {
			diagnostics = append(diagnostics, Diagnostic{
				Kind:    DIAG_UNPARSEABLE_ATTRIBUTE,
				WayID:   way.ID,
				Message: fmt.Sprintf("can't parse `width` tag value '%s', keeping %v meters", way.width, profile.HalfWidth*2.0),
			})
		}
	}

	/* Resolve driving directions */
	switch {
	case way.oneway == "yes" || way.oneway == "1" || way.oneway == "true":
		profile.Oneway = true
	case way.oneway == "no" || way.oneway == "0":
		// Explicitly bidirectional
	case way.oneway == "-1":
		profile.Oneway = true
		profile.IsReversed = true
	case way.oneway == "":
		// Roundabouts are oneway unless tagged otherwise
		if _, ok := junctionTypes[way.junction]; ok {
			profile.Oneway = true
		}
	default:
		reason := "unhandled"
		if _, ok := onewayReversible[way.oneway]; ok {
			// Those depend on time conditions
			reason = "time-dependent"
		}
		diagnostics = append(diagnostics, Diagnostic{
			Kind:    DIAG_UNPARSEABLE_ATTRIBUTE,
			WayID:   way.ID,
			Message: fmt.Sprintf("%s `oneway` tag value '%s' treated as bidirectional", reason, way.oneway),
		})
	}

	profile.Lanes = 2
	if profile.Oneway {
		profile.Lanes = 1
	}
	if way.lanes != "" {
		if lanesNum, err := strconv.Atoi(way.lanes); err == nil && lanesNum > 0 {
			profile.Lanes = lanesNum
		} else {
			diagnostics = append(diagnostics, Diagnostic{
				Kind:    DIAG_UNPARSEABLE_ATTRIBUTE,
				WayID:   way.ID,
				Message: fmt.Sprintf("can't parse `lanes` tag value '%s', keeping %d", way.lanes, profile.Lanes),
			})
		}
	}
	return profile, diagnostics
}
