package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/lanekit/osm2lanelet"
)

var (
	osmFileName = flag.String("i", "map.osm", "Filename of input *.osm (or *.pbf) file with the road network")
	out         = flag.String("o", "lanelet2_map.osm", "Filename of output Lanelet2 map")
	geomOut     = flag.String("geom", "", "Filename for debug geometry of boundary ways. Empty disables the export")
	geomFormat  = flag.String("geomf", "wkt", "Format of debug geometry. Expected values: wkt / geojson")
	projOut     = flag.String("projection", "", "Filename of the projection descriptor. Defaults to '<output>_projection.json'")
	originStr   = flag.String("origin", "", "Projection origin as 'lat,lon'. Defaults to the center of the input bounds")
	localXY     = flag.Bool("local-xy", false, "Store local metric coordinates on output nodes as 'local_x'/'local_y' tags")
	workers     = flag.Int("workers", 1, "Number of goroutines for the offsetting stage")
	doCheck     = flag.Bool("check", false, "Build the lane graph over the emitted lanelets and report its connectivity")
	quiet       = flag.Bool("quiet", false, "Suppress progress output")
)

func main() {
	flag.Parse()

	options := []func(*osm2lanelet.Converter){
		osm2lanelet.WithVerbose(!*quiet),
		osm2lanelet.WithLocalXY(*localXY),
		osm2lanelet.WithWorkers(*workers),
	}
	if *originStr != "" {
		lat, lon, err := parseOrigin(*originStr)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Bad -origin value: %v\n", err)
			os.Exit(1)
		}
		options = append(options, osm2lanelet.WithOrigin(lat, lon))
	}

	converter := osm2lanelet.NewConverter(*osmFileName, options...)
	laneletMap, err := converter.Convert()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	// Warnings go to stderr and do not affect the exit code
	for _, diagnostic := range laneletMap.Diagnostics {
		fmt.Fprintf(os.Stderr, "[WARNING]: %s\n", diagnostic)
	}

	outFile, err := os.Create(*out)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if err := osm2lanelet.EncodeLaneletMap(outFile, laneletMap); err != nil {
		outFile.Close()
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if err := outFile.Close(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	projectionPath := *projOut
	if projectionPath == "" {
		projectionPath = strings.TrimSuffix(*out, filepath.Ext(*out)) + "_projection.json"
	}
	descriptor := osm2lanelet.NewProjectionDescriptor(laneletMap.Origin)
	if err := descriptor.WriteFile(projectionPath); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	if *geomOut != "" {
		if err := exportGeometry(laneletMap, *geomOut, *geomFormat); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
	}

	if *doCheck {
		report, err := laneletMap.CheckRoutability()
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		fmt.Printf("Lane graph:\n")
		fmt.Printf("\tlanelets: %d\n", report.Lanelets)
		fmt.Printf("\tconnections: %d\n", report.Connections)
		fmt.Printf("\tcomponents: %d\n", report.Components)
		fmt.Printf("\tisolated lanelets: %d\n", len(report.IsolatedLanelets))
		if report.ProbeFound {
			fmt.Printf("\tprobe path %d -> %d: %.2f meters\n", report.ProbeFromID, report.ProbeToID, report.ProbeCostMeters)
		}
	}

	if !*quiet {
		fmt.Printf("Lanelet map: %s\n", *out)
		fmt.Printf("Projection descriptor: %s\n", projectionPath)
	}
}

func exportGeometry(laneletMap *osm2lanelet.LaneletMap, filename, format string) error {
	if strings.ToLower(format) == "geojson" {
		data, err := laneletMap.ToGeoJSON()
		if err != nil {
			return err
		}
		return os.WriteFile(filename, data, 0644)
	}
	data, err := laneletMap.ToWKT()
	if err != nil {
		return err
	}
	return os.WriteFile(filename, []byte(data), 0644)
}

func parseOrigin(value string) (float64, float64, error) {
	parts := strings.Split(value, ",")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("expected 'lat,lon', got '%s'", value)
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return 0, 0, err
	}
	lon, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return 0, 0, err
	}
	return lat, lon, nil
}
