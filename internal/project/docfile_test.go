package project

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"vantage/internal/geometry"
)

func TestDocumentFileRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "project_config.json")

	doc := &Document{
		Scenes: []Scene{{URL: "/assets/scenes/demo.glb", Name: "Demo", Scale: 1}},
		Data: map[string]AnnotationSet{
			"/assets/scenes/demo.glb": {
				Endpoints: []Endpoint{{Target: geometry.Vec(1, 1, 1), Camera: geometry.Vec(4, 3, 4), Name: "Endpoint 1"}},
				Hotspots:  []Hotspot{{Position: geometry.Vec(0, 1, 0), ImageRef: "/assets/hotspots/p.jpg"}},
			},
		},
	}
	if err := WriteDocumentFile(path, doc); err != nil {
		t.Fatalf("write: %v", err)
	}

	loaded, exists, err := ReadDocumentFile(path)
	if err != nil || !exists {
		t.Fatalf("read: exists=%v err=%v", exists, err)
	}
	set, ok := loaded.AnnotationsFor("/assets/scenes/demo.glb")
	if !ok || len(set.Endpoints) != 1 || len(set.Hotspots) != 1 {
		t.Fatalf("unexpected annotations: %+v", set)
	}
	if set.Endpoints[0].Name != "Endpoint 1" {
		t.Fatalf("endpoint name lost: %q", set.Endpoints[0].Name)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read raw: %v", err)
	}
	if !strings.Contains(string(raw), "\n  \"models\"") {
		t.Fatalf("document not pretty printed:\n%s", raw)
	}
}

func TestReadDocumentFileAbsent(t *testing.T) {
	doc, exists, err := ReadDocumentFile(filepath.Join(t.TempDir(), "missing.json"))
	if err != nil {
		t.Fatalf("absence reported as error: %v", err)
	}
	if exists || doc != nil {
		t.Fatalf("expected absent document")
	}
}

func TestReadDocumentFileNormalizesLegacyShapes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "project_config.json")
	raw := `{
  "models": [{"url": "/assets/scenes/old.glb", "name": "Old"}],
  "data": {"/assets/scenes/old.glb": {"endpoints": [[1,2,3]], "hotspots": []}}
}`
	if err := os.WriteFile(path, []byte(raw), 0o644); err != nil {
		t.Fatalf("seed file: %v", err)
	}

	doc, exists, err := ReadDocumentFile(path)
	if err != nil || !exists {
		t.Fatalf("read: exists=%v err=%v", exists, err)
	}
	if doc.Scenes[0].Scale != 1 {
		t.Fatalf("scale not sanitized: %v", doc.Scenes[0].Scale)
	}
	set, _ := doc.AnnotationsFor("/assets/scenes/old.glb")
	ep := set.Endpoints[0]
	if ep.Target != geometry.Vec(1, 2, 3) || ep.Camera != geometry.Vec(4, 4, 6) {
		t.Fatalf("legacy endpoint not normalized: %+v", ep)
	}
	if ep.Name != "Endpoint 1" {
		t.Fatalf("generated name missing: %q", ep.Name)
	}
}

func TestWriteDocumentFileRejectsNil(t *testing.T) {
	if err := WriteDocumentFile(filepath.Join(t.TempDir(), "x.json"), nil); err == nil {
		t.Fatalf("expected error for nil document")
	}
}
