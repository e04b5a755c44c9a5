package osm2lanelet

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/paulmach/osm"
	"github.com/paulmach/osm/osmpbf"
	"github.com/paulmach/osm/osmxml"
	"github.com/pkg/errors"
)

// OSMScanner is the subset of the paulmach scanners the loader relies on,
// so XML and PBF extracts go through the same code path.
type OSMScanner interface {
	Scan() bool
	Close() error
	Err() error
	Object() osm.Object
}

// ElementKind names the kind of input element a structural fault points at.
type ElementKind uint16

const (
	ELEMENT_NODE = ElementKind(iota + 1)
	ELEMENT_WAY
)

func (iotaIdx ElementKind) String() string {
	return [...]string{"node", "way"}[iotaIdx-1]
}

// MalformedInputError reports a structurally invalid input element. It is
// fatal: the conversion aborts and no output is written.
type MalformedInputError struct {
	Reason      string
	ID          int64
	ElementKind ElementKind
}

func (e *MalformedInputError) Error() string {
	return fmt.Sprintf("malformed input: %s '%d': %s", e.ElementKind, e.ID, e.Reason)
}

// Bounds is the bounding box over every node referenced by kept road ways.
type Bounds struct {
	MinLat float64
	MinLon float64
	MaxLat float64
	MaxLon float64
}

func (bounds *Bounds) extend(lat, lon float64) {
	if lat < bounds.MinLat {
		bounds.MinLat = lat
	}
	if lat > bounds.MaxLat {
		bounds.MaxLat = lat
	}
	if lon < bounds.MinLon {
		bounds.MinLon = lon
	}
	if lon > bounds.MaxLon {
		bounds.MaxLon = lon
	}
}

// Center returns the midpoint of the box, the default projection origin.
func (bounds *Bounds) Center() GeoPoint {
	return GeoPoint{Lat: (bounds.MinLat + bounds.MaxLat) / 2.0, Lon: (bounds.MinLon + bounds.MaxLon) / 2.0}
}

// OSMData is the loader output: road ways in document order plus every node
// they reference. Bounds is nil when no road way was found.
type OSMData struct {
	ways   []*WayData
	nodes  map[osm.NodeID]*Node
	bounds *Bounds
}

func newScanner(filename string, file *os.File) (OSMScanner, error) {
	ext := filepath.Ext(filename)
	switch ext {
	case ".osm", ".xml":
		return osmxml.New(context.Background(), file), nil
	case ".pbf":
		return osmpbf.New(context.Background(), file, 4), nil
	}
	return nil, fmt.Errorf("File extension '%s' for file '%s' is not handled yet", ext, filename)
}

// readOSM scans the extract twice: ways first to learn which nodes matter,
// then nodes. Only ways carrying a `highway` tag are kept, everything else
// is inventory the converter has no use for. Structural faults are
// collected per pass and reported in document order (nodes precede ways),
// recoverable issues are left to the later stages.
func readOSM(filename string, verbose bool) (*OSMData, error) {
	if verbose {
		fmt.Printf("Opening file: '%s'...\n", filename)
	}
	file, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	/* Process ways */
	if verbose {
		fmt.Printf("\tProcessing ways... ")
	}
	st := time.Now()
	ways := []*WayData{}
	nodesSeen := make(map[osm.NodeID]struct{})
	wayIDsSeen := make(map[osm.WayID]struct{})
	var wayFault *MalformedInputError
	{
		scannerWays, err := newScanner(filename, file)
		if err != nil {
			return nil, err
		}
		defer scannerWays.Close()

		for scannerWays.Scan() {
			obj := scannerWays.Object()
			if obj.ObjectID().Type() != "way" {
				continue
			}
			way := obj.(*osm.Way)
			if _, ok := wayIDsSeen[way.ID]; ok {
				if wayFault == nil {
					wayFault = &MalformedInputError{ElementKind: ELEMENT_WAY, ID: int64(way.ID), Reason: "duplicate way id"}
				}
				continue
			}
			wayIDsSeen[way.ID] = struct{}{}
			preparedWay := &WayData{
				ID:     way.ID,
				Nodes:  make([]osm.NodeID, 0, len(way.Nodes)),
				TagMap: make(osm.Tags, len(way.Tags)),
			}
			copy(preparedWay.TagMap, way.Tags)
			// Call tags flattening to make further processing easier
			preparedWay.flattenTags()
			if !preparedWay.isHighway() {
				// Buildings, landuse and the rest of the non-road inventory
				continue
			}
			if len(way.Nodes) < 2 {
				if wayFault == nil {
					wayFault = &MalformedInputError{ElementKind: ELEMENT_WAY, ID: int64(way.ID), Reason: fmt.Sprintf("got %d node references, at least 2 required", len(way.Nodes))}
				}
				continue
			}
			// Mark way's nodes as seen to drop unreferenced nodes in further
			for _, wayNode := range way.Nodes {
				nodesSeen[wayNode.ID] = struct{}{}
				preparedWay.Nodes = append(preparedWay.Nodes, wayNode.ID)
			}
			ways = append(ways, preparedWay)
		}
		if scannerWays.Err() != nil {
			return nil, errors.Wrap(scannerWays.Err(), "Scanner error on ways")
		}
	}
	if verbose {
		fmt.Printf("Done in %v\n", time.Since(st))
	}

	// Seek file to start
	_, err = file.Seek(0, io.SeekStart)
	if err != nil {
		return nil, errors.Wrap(err, "Can't repeat seeking after ways scanning")
	}

	/* Process nodes */
	if verbose {
		fmt.Printf("\tProcessing nodes... ")
	}
	st = time.Now()
	nodes := make(map[osm.NodeID]*Node)
	nodeIDsSeen := make(map[osm.NodeID]struct{})
	var nodeFault *MalformedInputError
	var bounds *Bounds
	{
		scannerNodes, err := newScanner(filename, file)
		if err != nil {
			return nil, err
		}
		defer scannerNodes.Close()

		for scannerNodes.Scan() {
			obj := scannerNodes.Object()
			if obj.ObjectID().Type() != "node" {
				continue
			}
			node := obj.(*osm.Node)
			if _, ok := nodeIDsSeen[node.ID]; ok {
				if nodeFault == nil {
					nodeFault = &MalformedInputError{ElementKind: ELEMENT_NODE, ID: int64(node.ID), Reason: "duplicate node id"}
				}
				continue
			}
			nodeIDsSeen[node.ID] = struct{}{}
			if _, ok := nodesSeen[node.ID]; !ok {
				continue
			}
			delete(nodesSeen, node.ID)
			nodes[node.ID] = &Node{
				node:     *node,
				ID:       node.ID,
				useCount: 0,
			}
			if bounds == nil {
				bounds = &Bounds{MinLat: node.Lat, MinLon: node.Lon, MaxLat: node.Lat, MaxLon: node.Lon}
			} else {
				bounds.extend(node.Lat, node.Lon)
			}
		}
		if scannerNodes.Err() != nil {
			return nil, errors.Wrap(scannerNodes.Err(), "Scanner error on nodes")
		}
	}
	if verbose {
		fmt.Printf("Done in %v\n", time.Since(st))
	}

	if nodeFault != nil {
		return nil, nodeFault
	}
	if wayFault != nil {
		return nil, wayFault
	}

	/* Verify node references and count node use cases */
	junctionCandidates := 0
	for _, way := range ways {
		for _, nodeID := range way.Nodes {
			node, ok := nodes[nodeID]
			if !ok {
				return nil, &MalformedInputError{ElementKind: ELEMENT_WAY, ID: int64(way.ID), Reason: fmt.Sprintf("dangling reference to node '%d'", nodeID)}
			}
			node.useCount++
			if node.useCount == 2 {
				junctionCandidates++
			}
		}
	}

	if verbose {
		fmt.Printf("Number of ways: %d\n", len(ways))
		fmt.Printf("Number of nodes: %d\n", len(nodes))
		fmt.Printf("Number of junction candidates: %d\n", junctionCandidates)
	}
	return &OSMData{ways: ways, nodes: nodes, bounds: bounds}, nil
}
