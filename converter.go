package osm2lanelet

import (
	"fmt"
	"sync"
	"time"

	"github.com/paulmach/osm"
	"github.com/pkg/errors"
)

const defaultGenerator = "osm2lanelet"

// Converter turns an OSM road extract into a lanelet map. Configure it with
// the With* options and call Convert once.
type Converter struct {
	filename  string
	generator string
	origin    *GeoPoint
	workers   int
	verbose   bool
	localXY   bool
}

func (converter *Converter) String() string {
	origin := "bounds center"
	if converter.origin != nil {
		origin = converter.origin.String()
	}
	return fmt.Sprintf(`
Lanelet converter parameters:
	filename: '%s'
	generator: '%s'
	origin: %s
	workers: %d
	verbose?: %t
	local_xy?: %t
	`,
		converter.filename,
		converter.generator,
		origin,
		converter.workers,
		converter.verbose,
		converter.localXY,
	)
}

func NewConverter(fileName string, options ...func(*Converter)) *Converter {
	converter := &Converter{
		filename:  fileName,
		generator: defaultGenerator,
		workers:   1,
	}
	for _, option := range options {
		option(converter)
	}
	if converter.workers < 1 {
		converter.workers = 1
	}
	return converter
}

func WithVerbose(verbose bool) func(*Converter) {
	return func(converter *Converter) {
		converter.verbose = verbose
	}
}

// WithLocalXY stores the local metric coordinates on every output node as
// `local_x`/`local_y` tags next to lat/lon.
func WithLocalXY(localXY bool) func(*Converter) {
	return func(converter *Converter) {
		converter.localXY = localXY
	}
}

// WithOrigin overrides the projection origin. Default is the center of the
// bounding box over the kept nodes.
func WithOrigin(lat, lon float64) func(*Converter) {
	return func(converter *Converter) {
		converter.origin = &GeoPoint{Lat: lat, Lon: lon}
	}
}

func WithGenerator(generator string) func(*Converter) {
	return func(converter *Converter) {
		converter.generator = generator
	}
}

// WithWorkers fans the per-way classification and offsetting out over the
// given number of goroutines. Ways carry no cross-way dependency at that
// stage and every result lands in its own slot, so the output is identical
// to the sequential pass.
func WithWorkers(workers int) func(*Converter) {
	return func(converter *Converter) {
		converter.workers = workers
	}
}

// wayResult is the per-way outcome of the classify+offset stage, slotted by
// way position to keep the document order.
type wayResult struct {
	boundaries  *laneBoundaries
	diagnostics []Diagnostic
	err         error
}

// classifyAndOffset resolves the road profile for one way and builds its
// offset boundary polylines. Excluded and degenerate ways yield nil
// boundaries plus the explaining diagnostics.
func classifyAndOffset(way *WayData, nodes map[osm.NodeID]*Node, proj equirectangular) wayResult {
	result := wayResult{}
	profile, diagnostics := classifyWay(way)
	result.diagnostics = diagnostics
	if !profile.Vehicular {
		return result
	}
	boundaries, diagnostic, err := buildBoundaries(way, profile, nodes, proj)
	if err != nil {
		result.err = err
		return result
	}
	if diagnostic != nil {
		result.diagnostics = append(result.diagnostics, *diagnostic)
		return result
	}
	result.boundaries = boundaries
	return result
}

// Convert runs the whole pipeline: read, classify, offset, resolve
// junctions, emit. Structural input faults abort with no map; recoverable
// issues land in the returned map's Diagnostics.
func (converter *Converter) Convert() (*LaneletMap, error) {
	data, err := readOSM(converter.filename, converter.verbose)
	if err != nil {
		return nil, errors.Wrap(err, "Can't read OSM data")
	}

	origin := GeoPoint{}
	if converter.origin != nil {
		origin = *converter.origin
	} else if data.bounds != nil {
		origin = data.bounds.Center()
	}
	proj := newEquirectangular(origin)

	/* Classify ways and offset centerlines */
	if converter.verbose {
		fmt.Printf("Offsetting lane boundaries... ")
	}
	st := time.Now()
	results := make([]wayResult, len(data.ways))
	if converter.workers == 1 {
		for i, way := range data.ways {
			results[i] = classifyAndOffset(way, data.nodes, proj)
		}
	} else {
		indexes := make(chan int)
		var wg sync.WaitGroup
		for i := 0; i < converter.workers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for idx := range indexes {
					results[idx] = classifyAndOffset(data.ways[idx], data.nodes, proj)
				}
			}()
		}
		for i := range data.ways {
			indexes <- i
		}
		close(indexes)
		wg.Wait()
	}
	diagnostics := []Diagnostic{}
	boundaries := make([]*laneBoundaries, 0, len(data.ways))
	for i := range results {
		if results[i].err != nil {
			return nil, errors.Wrap(results[i].err, "Can't offset way")
		}
		diagnostics = append(diagnostics, results[i].diagnostics...)
		if results[i].boundaries != nil {
			boundaries = append(boundaries, results[i].boundaries)
		}
	}
	if converter.verbose {
		fmt.Printf("Done in %v\n", time.Since(st))
		fmt.Printf("\tKept ways: %d of %d\n", len(boundaries), len(data.ways))
	}

	/* Resolve junctions. Needs every way offset, hence after the stage above */
	if converter.verbose {
		fmt.Printf("Resolving junctions... ")
	}
	st = time.Now()
	resolution := resolveJunctions(boundaries)
	diagnostics = append(diagnostics, resolution.diagnostics...)
	if converter.verbose {
		fmt.Printf("Done in %v\n", time.Since(st))
		fmt.Printf("\tJunction nodes: %d\n", resolution.junctionNodes)
		fmt.Printf("\tShared vertices: %d\n", len(resolution.canonicalVertices))
	}

	/* Emit lanelets */
	if converter.verbose {
		fmt.Printf("Emitting lanelets... ")
	}
	st = time.Now()
	lanelets := buildLanelets(boundaries)
	laneletMap := emitLaneletMap(lanelets, resolution, data, origin, proj, converter.generator, converter.localXY)
	laneletMap.Diagnostics = diagnostics
	if converter.verbose {
		fmt.Printf("Done in %v\n", time.Since(st))
		fmt.Printf("\tLanelets: %d\n", len(laneletMap.Relations))
	}
	return laneletMap, nil
}
