package osm2lanelet

import (
	"fmt"

	"github.com/paulmach/osm"
)

// DiagnosticKind classifies recoverable conversion issues. Those are
// reported and the conversion keeps going; only structural input faults
// abort the whole pass.
type DiagnosticKind uint16

const (
	DIAG_UNCLASSIFIED_ROAD = DiagnosticKind(iota + 1)
	DIAG_NONVEHICULAR_WAY
	DIAG_DEGENERATE_WAY
	DIAG_JUNCTION_MISMATCH
	DIAG_UNPARSEABLE_ATTRIBUTE
)

func (iotaIdx DiagnosticKind) String() string {
	return [...]string{"unclassified_road_type", "nonvehicular_way_excluded", "degenerate_way_skipped", "junction_endpoint_mismatch", "unparseable_attribute"}[iotaIdx-1]
}

// Diagnostic is a single recoverable issue met during the conversion. WayID
// and NodeID are zero when the issue is not bound to that element kind.
type Diagnostic struct {
	Message string
	WayID   osm.WayID
	NodeID  osm.NodeID
	Kind    DiagnosticKind
}

func (diagnostic Diagnostic) String() string {
	switch {
	case diagnostic.WayID != 0 && diagnostic.NodeID != 0:
		return fmt.Sprintf("%s: %s. Way ID: '%d'. Node ID: '%d'", diagnostic.Kind, diagnostic.Message, diagnostic.WayID, diagnostic.NodeID)
	case diagnostic.WayID != 0:
		return fmt.Sprintf("%s: %s. Way ID: '%d'", diagnostic.Kind, diagnostic.Message, diagnostic.WayID)
	case diagnostic.NodeID != 0:
		return fmt.Sprintf("%s: %s. Node ID: '%d'", diagnostic.Kind, diagnostic.Message, diagnostic.NodeID)
	}
	return fmt.Sprintf("%s: %s", diagnostic.Kind, diagnostic.Message)
}
