package osm2lanelet

import (
	"bufio"
	"encoding/xml"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

const osmFormatVersion = "0.6"

// The five characters the OSM XML profile needs escaped in attribute
// values.
var xmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&apos;",
)

func escapeXML(value string) string {
	return xmlEscaper.Replace(value)
}

// formatCoord renders coordinates with fixed 8 decimal places, about
// millimeter resolution on Earth. Fixed width keeps the output stable under
// decode/encode round trips.
func formatCoord(value float64) string {
	return strconv.FormatFloat(value, 'f', 8, 64)
}

// EncodeLaneletMap serializes the map in the Lanelet2 OSM XML profile. The
// writer is fully deterministic: elements go out in creation order with a
// fixed attribute layout, so the same map always produces byte-identical
// output.
func EncodeLaneletMap(w io.Writer, laneletMap *LaneletMap) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "<?xml version=\"1.0\" encoding=\"UTF-8\"?>\n")
	fmt.Fprintf(bw, "<osm version=\"%s\" generator=\"%s\">\n", osmFormatVersion, escapeXML(laneletMap.Generator))
	if laneletMap.Bounds != nil {
		bounds := laneletMap.Bounds
		fmt.Fprintf(bw, "  <bounds minlat=\"%s\" minlon=\"%s\" maxlat=\"%s\" maxlon=\"%s\"/>\n",
			formatCoord(bounds.MinLat), formatCoord(bounds.MinLon), formatCoord(bounds.MaxLat), formatCoord(bounds.MaxLon))
	}
	for _, node := range laneletMap.Nodes {
		if len(node.Tags) == 0 {
			fmt.Fprintf(bw, "  <node id=\"%d\" visible=\"true\" lat=\"%s\" lon=\"%s\" ele=\"0\"/>\n", node.ID, formatCoord(node.Lat), formatCoord(node.Lon))
			continue
		}
		fmt.Fprintf(bw, "  <node id=\"%d\" visible=\"true\" lat=\"%s\" lon=\"%s\" ele=\"0\">\n", node.ID, formatCoord(node.Lat), formatCoord(node.Lon))
		writeTags(bw, node.Tags)
		fmt.Fprintf(bw, "  </node>\n")
	}
	for _, way := range laneletMap.Ways {
		fmt.Fprintf(bw, "  <way id=\"%d\" visible=\"true\">\n", way.ID)
		for _, ref := range way.NodeIDs {
			fmt.Fprintf(bw, "    <nd ref=\"%d\"/>\n", ref)
		}
		writeTags(bw, way.Tags)
		fmt.Fprintf(bw, "  </way>\n")
	}
	for _, relation := range laneletMap.Relations {
		fmt.Fprintf(bw, "  <relation id=\"%d\" visible=\"true\">\n", relation.ID)
		for _, member := range relation.Members {
			fmt.Fprintf(bw, "    <member type=\"%s\" ref=\"%d\" role=\"%s\"/>\n", escapeXML(member.Type), member.Ref, escapeXML(member.Role))
		}
		writeTags(bw, relation.Tags)
		fmt.Fprintf(bw, "  </relation>\n")
	}
	fmt.Fprintf(bw, "</osm>\n")
	if err := bw.Flush(); err != nil {
		return errors.Wrap(err, "Can't write lanelet map document")
	}
	return nil
}

func writeTags(w io.Writer, tags []MapTag) {
	for _, tag := range tags {
		fmt.Fprintf(w, "    <tag k=\"%s\" v=\"%s\"/>\n", escapeXML(tag.Key), escapeXML(tag.Value))
	}
}

type xmlTag struct {
	K string `xml:"k,attr"`
	V string `xml:"v,attr"`
}

type xmlNd struct {
	Ref int64 `xml:"ref,attr"`
}

type xmlNode struct {
	ID   int64    `xml:"id,attr"`
	Lat  float64  `xml:"lat,attr"`
	Lon  float64  `xml:"lon,attr"`
	Tags []xmlTag `xml:"tag"`
}

type xmlWay struct {
	ID   int64    `xml:"id,attr"`
	Nds  []xmlNd  `xml:"nd"`
	Tags []xmlTag `xml:"tag"`
}

type xmlMember struct {
	Type string `xml:"type,attr"`
	Ref  int64  `xml:"ref,attr"`
	Role string `xml:"role,attr"`
}

type xmlRelation struct {
	ID      int64       `xml:"id,attr"`
	Members []xmlMember `xml:"member"`
	Tags    []xmlTag    `xml:"tag"`
}

type xmlBounds struct {
	MinLat float64 `xml:"minlat,attr"`
	MinLon float64 `xml:"minlon,attr"`
	MaxLat float64 `xml:"maxlat,attr"`
	MaxLon float64 `xml:"maxlon,attr"`
}

type xmlDocument struct {
	XMLName   xml.Name      `xml:"osm"`
	Generator string        `xml:"generator,attr"`
	Bounds    *xmlBounds    `xml:"bounds"`
	Nodes     []xmlNode     `xml:"node"`
	Ways      []xmlWay      `xml:"way"`
	Relations []xmlRelation `xml:"relation"`
}

// DecodeLaneletMap parses a previously emitted map back, preserving element
// order and tags, so documents touched by external map editors can flow
// through the same serializer again. The Origin field is not part of the
// document (it lives in the projection descriptor) and stays zero.
func DecodeLaneletMap(r io.Reader) (*LaneletMap, error) {
	doc := xmlDocument{}
	decoder := xml.NewDecoder(r)
	if err := decoder.Decode(&doc); err != nil {
		return nil, errors.Wrap(err, "Can't decode lanelet map document")
	}
	laneletMap := &LaneletMap{Generator: doc.Generator}
	if doc.Bounds != nil {
		laneletMap.Bounds = &Bounds{
			MinLat: doc.Bounds.MinLat,
			MinLon: doc.Bounds.MinLon,
			MaxLat: doc.Bounds.MaxLat,
			MaxLon: doc.Bounds.MaxLon,
		}
	}
	for i := range doc.Nodes {
		laneletMap.Nodes = append(laneletMap.Nodes, &MapNode{
			ID:   doc.Nodes[i].ID,
			Lat:  doc.Nodes[i].Lat,
			Lon:  doc.Nodes[i].Lon,
			Tags: tagsFromXML(doc.Nodes[i].Tags),
		})
	}
	for i := range doc.Ways {
		nodeIDs := make([]int64, len(doc.Ways[i].Nds))
		for j, nd := range doc.Ways[i].Nds {
			nodeIDs[j] = nd.Ref
		}
		laneletMap.Ways = append(laneletMap.Ways, &MapWay{
			ID:      doc.Ways[i].ID,
			NodeIDs: nodeIDs,
			Tags:    tagsFromXML(doc.Ways[i].Tags),
		})
	}
	for i := range doc.Relations {
		members := make([]MapMember, len(doc.Relations[i].Members))
		for j, member := range doc.Relations[i].Members {
			members[j] = MapMember{Type: member.Type, Ref: member.Ref, Role: member.Role}
		}
		laneletMap.Relations = append(laneletMap.Relations, &MapRelation{
			ID:      doc.Relations[i].ID,
			Members: members,
			Tags:    tagsFromXML(doc.Relations[i].Tags),
		})
	}
	return laneletMap, nil
}

func tagsFromXML(tags []xmlTag) []MapTag {
	if len(tags) == 0 {
		return nil
	}
	output := make([]MapTag, len(tags))
	for i, tag := range tags {
		output[i] = MapTag{Key: tag.K, Value: tag.V}
	}
	return output
}
