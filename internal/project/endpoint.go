package project

import (
	"encoding/json"
	"fmt"

	"vantage/internal/geometry"
)

// legacyCameraOffset is added to a bare-coordinate endpoint's target to derive
// its default camera position.
var legacyCameraOffset = geometry.Vec(3, 2, 3)

// Endpoint is a stored camera viewpoint anchored to a 3D point.
//
// Two historical encodings exist: the canonical object form
// {"target":[x,y,z],"camera":[x,y,z],"name":"..."} and a legacy bare
// [x,y,z] array interpreted as the target. Decoding normalizes the legacy
// form immediately so downstream code only ever sees the canonical shape.
type Endpoint struct {
	Target geometry.Vec3 `json:"target"`
	Camera geometry.Vec3 `json:"camera"`
	Name   string        `json:"name,omitempty"`
}

// NormalizeLegacy builds the canonical endpoint for a legacy bare target.
func NormalizeLegacy(target geometry.Vec3, index int) Endpoint {
	return Endpoint{
		Target: target,
		Camera: target.Add(legacyCameraOffset),
		Name:   fmt.Sprintf("Endpoint %d", index+1),
	}
}

// UnmarshalJSON accepts both endpoint encodings and normalizes on ingest.
func (e *Endpoint) UnmarshalJSON(data []byte) error {
	var target geometry.Vec3
	if err := json.Unmarshal(data, &target); err == nil {
		*e = Endpoint{Target: target, Camera: target.Add(legacyCameraOffset)}
		return nil
	}

	type canonical Endpoint
	var decoded canonical
	if err := json.Unmarshal(data, &decoded); err != nil {
		return fmt.Errorf("endpoint: %w", err)
	}
	*e = Endpoint(decoded)
	return nil
}

// EnsureEndpointNames fills in generated names for endpoints that lack one.
// Legacy arrays carry no name, so this runs after decoding a set.
func EnsureEndpointNames(endpoints []Endpoint) {
	for i := range endpoints {
		if endpoints[i].Name == "" {
			endpoints[i].Name = fmt.Sprintf("Endpoint %d", i+1)
		}
	}
}
