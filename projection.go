package osm2lanelet

import (
	"encoding/json"
	"os"

	"github.com/pkg/errors"
)

const projectorTypeLocal = "local_cartesian"

// MapOrigin is the geographic reference point of the local metric frame.
type MapOrigin struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// ProjectionDescriptor is the side file downstream map consumers read to
// interpret the flattened coordinates of an emitted map.
type ProjectionDescriptor struct {
	ProjectorType string    `json:"projector_type"`
	MapOrigin     MapOrigin `json:"map_origin"`
}

// NewProjectionDescriptor describes the local frame the map was flattened
// with.
func NewProjectionDescriptor(origin GeoPoint) ProjectionDescriptor {
	return ProjectionDescriptor{
		ProjectorType: projectorTypeLocal,
		MapOrigin:     MapOrigin{Latitude: origin.Lat, Longitude: origin.Lon},
	}
}

// WriteFile stores the descriptor as indented JSON.
func (descriptor ProjectionDescriptor) WriteFile(filename string) error {
	data, err := json.MarshalIndent(descriptor, "", "  ")
	if err != nil {
		return errors.Wrap(err, "Can't marshal projection descriptor")
	}
	data = append(data, '\n')
	if err := os.WriteFile(filename, data, 0644); err != nil {
		return errors.Wrap(err, "Can't write projection descriptor")
	}
	return nil
}
