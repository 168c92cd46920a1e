package project

import (
	"encoding/json"
	"testing"

	"vantage/internal/geometry"
)

func TestUnmarshalLegacyEndpoint(t *testing.T) {
	var ep Endpoint
	if err := json.Unmarshal([]byte(`[1, 2, 3]`), &ep); err != nil {
		t.Fatalf("unmarshal legacy: %v", err)
	}
	if ep.Target != geometry.Vec(1, 2, 3) {
		t.Fatalf("unexpected target: %v", ep.Target)
	}
	if ep.Camera != geometry.Vec(4, 4, 6) {
		t.Fatalf("expected derived camera offset (+3,+2,+3), got %v", ep.Camera)
	}
}

func TestUnmarshalCanonicalEndpoint(t *testing.T) {
	var ep Endpoint
	raw := `{"target":[0,0,0],"camera":[5,5,5],"name":"Entrance"}`
	if err := json.Unmarshal([]byte(raw), &ep); err != nil {
		t.Fatalf("unmarshal canonical: %v", err)
	}
	if ep.Camera != geometry.Vec(5, 5, 5) || ep.Name != "Entrance" {
		t.Fatalf("unexpected endpoint: %+v", ep)
	}
}

func TestUnmarshalEndpointRejectsGarbage(t *testing.T) {
	var ep Endpoint
	if err := json.Unmarshal([]byte(`"nope"`), &ep); err == nil {
		t.Fatalf("expected error for invalid encoding")
	}
}

func TestNormalizeLegacy(t *testing.T) {
	ep := NormalizeLegacy(geometry.Vec(-1, 0, 2), 4)
	if ep.Camera != geometry.Vec(2, 2, 5) {
		t.Fatalf("unexpected camera: %v", ep.Camera)
	}
	if ep.Name != "Endpoint 5" {
		t.Fatalf("unexpected generated name: %q", ep.Name)
	}
}

func TestEnsureEndpointNames(t *testing.T) {
	endpoints := []Endpoint{
		{Name: "Keep"},
		{},
	}
	EnsureEndpointNames(endpoints)
	if endpoints[0].Name != "Keep" {
		t.Fatalf("existing name overwritten")
	}
	if endpoints[1].Name != "Endpoint 2" {
		t.Fatalf("missing generated name: %q", endpoints[1].Name)
	}
}

func TestAnnotationSetDecodeMixedEndpoints(t *testing.T) {
	raw := `{"endpoints":[[1,1,1],{"target":[2,2,2],"camera":[9,9,9],"name":"Roof"}],"hotspots":[]}`
	var set AnnotationSet
	if err := json.Unmarshal([]byte(raw), &set); err != nil {
		t.Fatalf("unmarshal set: %v", err)
	}
	if len(set.Endpoints) != 2 {
		t.Fatalf("expected 2 endpoints, got %d", len(set.Endpoints))
	}
	if set.Endpoints[0].Camera != geometry.Vec(4, 3, 4) {
		t.Fatalf("legacy endpoint not normalized: %v", set.Endpoints[0].Camera)
	}
	if set.Endpoints[1].Name != "Roof" {
		t.Fatalf("canonical endpoint mangled: %+v", set.Endpoints[1])
	}
}
