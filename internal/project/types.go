package project

import (
	"fmt"
	"strings"

	"vantage/internal/faults"
	"vantage/internal/geometry"
)

// Scene describes one navigable 3D scene. URL doubles as the scene identity
// throughout the project document.
type Scene struct {
	URL   string  `json:"url"`
	Name  string  `json:"name"`
	Scale float64 `json:"realScale"`
}

// Hotspot is an image-linked marker anchored to a 3D point. ImageRef may be a
// server-relative path, a remote URL, an inline data URI, or a blob store key.
type Hotspot struct {
	Position geometry.Vec3 `json:"position"`
	ImageRef string        `json:"image,omitempty"`
	Name     string        `json:"name,omitempty"`
}

// AnnotationSet holds the ordered annotations of one scene. The zero value is
// the empty set.
type AnnotationSet struct {
	Endpoints []Endpoint `json:"endpoints"`
	Hotspots  []Hotspot  `json:"hotspots"`
}

// Clone returns a deep copy so callers can hand out snapshots without
// exposing internal slices to mutation.
func (s AnnotationSet) Clone() AnnotationSet {
	out := AnnotationSet{}
	if len(s.Endpoints) > 0 {
		out.Endpoints = append([]Endpoint{}, s.Endpoints...)
	}
	if len(s.Hotspots) > 0 {
		out.Hotspots = append([]Hotspot{}, s.Hotspots...)
	}
	return out
}

// Document is the authoritative persisted shape: the scene list plus the
// per-scene annotation sets keyed by scene URL.
type Document struct {
	Scenes []Scene                  `json:"models"`
	Data   map[string]AnnotationSet `json:"data"`
}

// AnnotationsFor returns the annotation set stored for the given scene.
func (d *Document) AnnotationsFor(sceneURL string) (AnnotationSet, bool) {
	if d == nil || d.Data == nil {
		return AnnotationSet{}, false
	}
	set, ok := d.Data[sceneURL]
	return set, ok
}

// Sanitize coerces invalid scale factors to the default of 1. Older documents
// stored scenes without a scale.
func (d *Document) Sanitize() {
	if d == nil {
		return
	}
	for i := range d.Scenes {
		if d.Scenes[i].Scale <= 0 {
			d.Scenes[i].Scale = 1
		}
	}
}

// SceneByURL locates a scene in the document's scene list.
func (d *Document) SceneByURL(url string) (Scene, bool) {
	if d == nil {
		return Scene{}, false
	}
	for _, scene := range d.Scenes {
		if scene.URL == url {
			return scene, true
		}
	}
	return Scene{}, false
}

// RefKind classifies a hotspot image reference.
type RefKind int

const (
	// RefNone means no image is attached.
	RefNone RefKind = iota
	// RefServerPath is a server-relative upload path (leading slash).
	RefServerPath
	// RefRemoteURL is an external http(s) URL.
	RefRemoteURL
	// RefInline is an inline data or blob URI.
	RefInline
	// RefBlobKey is an opaque key into the local blob store.
	RefBlobKey
)

// ClassifyRef reports how a hotspot image reference should be resolved.
func ClassifyRef(ref string) RefKind {
	switch {
	case strings.TrimSpace(ref) == "":
		return RefNone
	case strings.HasPrefix(ref, "/"):
		return RefServerPath
	case strings.HasPrefix(ref, "http"):
		return RefRemoteURL
	case strings.HasPrefix(ref, "data:"), strings.HasPrefix(ref, "blob:"):
		return RefInline
	default:
		return RefBlobKey
	}
}

// ValidateScale rejects non-positive scale factors at the edit boundary.
func ValidateScale(scale float64) error {
	if scale <= 0 {
		return faults.Wrap(faults.ErrValidation, "project", "validate_scale",
			fmt.Sprintf("scale factor must be strictly positive, got %v", scale), nil)
	}
	return nil
}
