package osm2lanelet

import (
	"math"
	"testing"

	"github.com/paulmach/osm"
)

func testWay(id osm.WayID, tags osm.Tags) *WayData {
	way := &WayData{
		ID:     id,
		TagMap: tags,
		Nodes:  []osm.NodeID{1, 2},
	}
	way.flattenTags()
	return way
}

func hasDiagnostic(diagnostics []Diagnostic, kind DiagnosticKind) bool {
	for _, diagnostic := range diagnostics {
		if diagnostic.Kind == kind {
			return true
		}
	}
	return false
}

func TestClassifyDefaults(t *testing.T) {
	way := testWay(1, osm.Tags{{Key: "highway", Value: "residential"}})
	profile, diagnostics := classifyWay(way)
	if len(diagnostics) != 0 {
		t.Errorf("Diagnostics number should be %d, but got %d", 0, len(diagnostics))
	}
	if profile.Highway != HIGHWAY_RESIDENTIAL {
		t.Errorf("Highway type should be '%s', but got '%s'", HIGHWAY_RESIDENTIAL, profile.Highway)
	}
	if profile.HalfWidth != 2.75 {
		t.Errorf("Half width should be %v, but got %v", 2.75, profile.HalfWidth)
	}
	if profile.SpeedLimit != 30 {
		t.Errorf("Speed limit should be %v, but got %v", 30.0, profile.SpeedLimit)
	}
	if !profile.Vehicular {
		t.Errorf("Residential road should be vehicular")
	}
	if profile.Oneway {
		t.Errorf("Road should be bidirectional by default")
	}
	if profile.Lanes != 2 {
		t.Errorf("Lanes number should be %d, but got %d", 2, profile.Lanes)
	}
}

func TestClassifyTagOverrides(t *testing.T) {
	way := testWay(1, osm.Tags{
		{Key: "highway", Value: "residential"},
		{Key: "maxspeed", Value: "60"},
		{Key: "width", Value: "5"},
		{Key: "lanes", Value: "3"},
	})
	profile, diagnostics := classifyWay(way)
	if len(diagnostics) != 0 {
		t.Errorf("Diagnostics number should be %d, but got %d", 0, len(diagnostics))
	}
	if profile.SpeedLimit != 60 {
		t.Errorf("Speed limit should be %v, but got %v", 60.0, profile.SpeedLimit)
	}
	if profile.HalfWidth != 2.5 {
		t.Errorf("Half width should be %v, but got %v", 2.5, profile.HalfWidth)
	}
	if profile.Lanes != 3 {
		t.Errorf("Lanes number should be %d, but got %d", 3, profile.Lanes)
	}
}

func TestClassifyUnparseableAttributes(t *testing.T) {
	way := testWay(1, osm.Tags{
		{Key: "highway", Value: "residential"},
		{Key: "maxspeed", Value: "RU:urban"},
		{Key: "width", Value: "narrow"},
		{Key: "lanes", Value: "2;3"},
	})
	profile, diagnostics := classifyWay(way)
	if len(diagnostics) != 3 {
		t.Errorf("Diagnostics number should be %d, but got %d", 3, len(diagnostics))
	}
	if !hasDiagnostic(diagnostics, DIAG_UNPARSEABLE_ATTRIBUTE) {
		t.Errorf("Unparseable attributes should be reported")
	}
	if profile.SpeedLimit != 30 {
		t.Errorf("Speed limit should keep the default %v, but got %v", 30.0, profile.SpeedLimit)
	}
	if profile.HalfWidth != 2.75 {
		t.Errorf("Half width should keep the default %v, but got %v", 2.75, profile.HalfWidth)
	}
	if profile.Lanes != 2 {
		t.Errorf("Lanes should keep the default %d, but got %d", 2, profile.Lanes)
	}
}

func TestClassifyOnewayVariants(t *testing.T) {
	cases := []struct {
		value      string
		oneway     bool
		isReversed bool
	}{
		{"yes", true, false},
		{"1", true, false},
		{"true", true, false},
		{"no", false, false},
		{"0", false, false},
		{"-1", true, true},
		{"", false, false},
	}
	for _, testCase := range cases {
		tags := osm.Tags{{Key: "highway", Value: "residential"}}
		if testCase.value != "" {
			tags = append(tags, osm.Tag{Key: "oneway", Value: testCase.value})
		}
		profile, _ := classifyWay(testWay(1, tags))
		if profile.Oneway != testCase.oneway {
			t.Errorf("Oneway for tag value '%s' should be %t, but got %t", testCase.value, testCase.oneway, profile.Oneway)
		}
		if profile.IsReversed != testCase.isReversed {
			t.Errorf("IsReversed for tag value '%s' should be %t, but got %t", testCase.value, testCase.isReversed, profile.IsReversed)
		}
	}
}

func TestClassifyRoundabout(t *testing.T) {
	way := testWay(1, osm.Tags{
		{Key: "highway", Value: "residential"},
		{Key: "junction", Value: "roundabout"},
	})
	profile, _ := classifyWay(way)
	if !profile.Oneway {
		t.Errorf("Roundabout should be oneway by default")
	}
	if profile.Lanes != 1 {
		t.Errorf("Lanes number should be %d, but got %d", 1, profile.Lanes)
	}

	// Explicit tag beats the junction hint
	way = testWay(1, osm.Tags{
		{Key: "highway", Value: "residential"},
		{Key: "junction", Value: "roundabout"},
		{Key: "oneway", Value: "no"},
	})
	profile, _ = classifyWay(way)
	if profile.Oneway {
		t.Errorf("Explicit 'oneway'='no' should beat the junction hint")
	}
}

func TestClassifyReversibleOneway(t *testing.T) {
	way := testWay(1, osm.Tags{
		{Key: "highway", Value: "residential"},
		{Key: "oneway", Value: "alternating"},
	})
	profile, diagnostics := classifyWay(way)
	if profile.Oneway {
		t.Errorf("Time-dependent oneway should degrade to bidirectional")
	}
	if !hasDiagnostic(diagnostics, DIAG_UNPARSEABLE_ATTRIBUTE) {
		t.Errorf("Time-dependent oneway should be reported")
	}
}

func TestClassifyNonVehicular(t *testing.T) {
	for _, value := range []string{"footway", "cycleway", "path", "pedestrian", "steps"} {
		way := testWay(1, osm.Tags{{Key: "highway", Value: value}})
		profile, diagnostics := classifyWay(way)
		if profile.Vehicular {
			t.Errorf("'%s' should not be vehicular", value)
		}
		if !hasDiagnostic(diagnostics, DIAG_NONVEHICULAR_WAY) {
			t.Errorf("Non-vehicular way '%s' should be reported", value)
		}
	}
}

func TestClassifyUnknownHighway(t *testing.T) {
	way := testWay(1, osm.Tags{{Key: "highway", Value: "hyperloop"}})
	profile, diagnostics := classifyWay(way)
	if !hasDiagnostic(diagnostics, DIAG_UNCLASSIFIED_ROAD) {
		t.Errorf("Unknown highway value should be reported")
	}
	if !profile.Vehicular {
		t.Errorf("Unknown highway value should still be converted")
	}
	if profile.HalfWidth != fallbackHalfWidthMeters {
		t.Errorf("Half width should be the fallback %v, but got %v", fallbackHalfWidthMeters, profile.HalfWidth)
	}
	if profile.SpeedLimit != fallbackSpeedLimitKmh {
		t.Errorf("Speed limit should be the fallback %v, but got %v", fallbackSpeedLimitKmh, profile.SpeedLimit)
	}
}

func TestParseMaxspeed(t *testing.T) {
	cases := []struct {
		value string
		speed float64
		ok    bool
	}{
		{"50", 50, true},
		{"7.5", 7.5, true},
		{"50 km/h", 50, true},
		{"50km/h", 50, true},
		{"40 mph", 40 * mphToKmh, true},
		{"40mph", 40 * mphToKmh, true},
		{"RU:urban", 0, false},
		{"walk", 0, false},
		{"", 0, false},
	}
	for _, testCase := range cases {
		speed, ok := parseMaxspeed(testCase.value)
		if ok != testCase.ok {
			t.Errorf("Parse result for '%s' should be %t, but got %t", testCase.value, testCase.ok, ok)
			continue
		}
		if ok && math.Abs(speed-testCase.speed) > 1e-12 {
			t.Errorf("Speed for '%s' should be %v, but got %v", testCase.value, testCase.speed, speed)
		}
	}
}

func TestParseWidth(t *testing.T) {
	cases := []struct {
		value string
		width float64
		ok    bool
	}{
		{"5", 5, true},
		{"5.5", 5.5, true},
		{"4 m", 4, true},
		{"4m", 4, true},
		{"narrow", 0, false},
		{"0", 0, false},
	}
	for _, testCase := range cases {
		width, ok := parseWidth(testCase.value)
		if ok != testCase.ok {
			t.Errorf("Parse result for '%s' should be %t, but got %t", testCase.value, testCase.ok, ok)
			continue
		}
		if ok && width != testCase.width {
			t.Errorf("Width for '%s' should be %v, but got %v", testCase.value, testCase.width, width)
		}
	}
}
