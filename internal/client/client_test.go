package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"vantage/internal/api"
	"vantage/internal/faults"
	"vantage/internal/geometry"
	"vantage/internal/project"
)

func TestFetchDocument(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/project" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"models": [{"url": "/assets/scenes/demo.glb", "name": "Demo", "realScale": 0}],
			"data": {
				"/assets/scenes/demo.glb": {
					"endpoints": [[1, 2, 3]],
					"hotspots": []
				}
			}
		}`))
	}))
	defer srv.Close()

	c := New(srv.URL, nil, nil)
	doc, err := c.FetchDocument(context.Background())
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if doc.Scenes[0].Scale != 1 {
		t.Fatalf("zero scale not sanitized: %v", doc.Scenes[0].Scale)
	}
	set := doc.Data["/assets/scenes/demo.glb"]
	if len(set.Endpoints) != 1 {
		t.Fatalf("expected one endpoint, got %d", len(set.Endpoints))
	}
	ep := set.Endpoints[0]
	if ep.Target != geometry.Vec(1, 2, 3) {
		t.Fatalf("unexpected target: %+v", ep.Target)
	}
	if ep.Camera != geometry.Vec(4, 4, 6) {
		t.Fatalf("legacy camera not derived: %+v", ep.Camera)
	}
	if ep.Name != "Endpoint 1" {
		t.Fatalf("legacy name not derived: %q", ep.Name)
	}
}

func TestFetchDocumentAbsentIsTransient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "not found", http.StatusNotFound)
	}))
	defer srv.Close()

	c := New(srv.URL, nil, nil)
	if _, err := c.FetchDocument(context.Background()); !errors.Is(err, faults.ErrTransient) {
		t.Fatalf("expected transient fault, got %v", err)
	}
}

func TestFetchDocumentUnreachableIsTransient(t *testing.T) {
	c := New("http://127.0.0.1:1", nil, nil)
	if _, err := c.FetchDocument(context.Background()); !errors.Is(err, faults.ErrTransient) {
		t.Fatalf("expected transient fault, got %v", err)
	}
}

func TestSaveDocument(t *testing.T) {
	var received project.Document
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/save-config" || r.Method != http.MethodPost {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&received); err != nil {
			t.Errorf("decode body: %v", err)
		}
		_ = json.NewEncoder(w).Encode(api.SaveResponse{Success: true})
	}))
	defer srv.Close()

	doc := &project.Document{
		Scenes: []project.Scene{{URL: "/assets/scenes/demo.glb", Name: "Demo", Scale: 2}},
		Data: map[string]project.AnnotationSet{
			"/assets/scenes/demo.glb": {Hotspots: []project.Hotspot{{Name: "door"}}},
		},
	}
	c := New(srv.URL, nil, nil)
	if err := c.SaveDocument(context.Background(), doc); err != nil {
		t.Fatalf("save: %v", err)
	}
	if received.Scenes[0].Scale != 2 {
		t.Fatalf("document body lost: %+v", received)
	}
}

func TestSaveDocumentServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_ = json.NewEncoder(w).Encode(api.SaveResponse{Success: false, Error: "disk full"})
	}))
	defer srv.Close()

	c := New(srv.URL, nil, nil)
	err := c.SaveDocument(context.Background(), &project.Document{})
	if !errors.Is(err, faults.ErrTransient) {
		t.Fatalf("expected transient fault, got %v", err)
	}
	if !strings.Contains(err.Error(), "disk full") {
		t.Fatalf("server detail lost: %v", err)
	}
}

func TestUploadScene(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("parse multipart: %v", err)
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			t.Errorf("form file: %v", err)
			return
		}
		defer file.Close()
		if header.Filename != "museum hall.glb" {
			t.Errorf("unexpected filename %q", header.Filename)
		}
		_ = json.NewEncoder(w).Encode(api.UploadSceneResponse{
			Success: true,
			URL:     "/assets/scenes/1756500000000_museum_hall.glb",
			Name:    "Museum Hall",
		})
	}))
	defer srv.Close()

	c := New(srv.URL, nil, nil)
	url, name, err := c.UploadScene(context.Background(), "/tmp/museum hall.glb", strings.NewReader("glb-bytes"))
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if url != "/assets/scenes/1756500000000_museum_hall.glb" || name != "Museum Hall" {
		t.Fatalf("unexpected result: url=%q name=%q", url, name)
	}
}

func TestUploadSceneRejectedIsValidation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(api.UploadSceneResponse{Success: false, Error: "unsupported file type"})
	}))
	defer srv.Close()

	c := New(srv.URL, nil, nil)
	_, _, err := c.UploadScene(context.Background(), "notes.txt", strings.NewReader("nope"))
	if !errors.Is(err, faults.ErrValidation) {
		t.Fatalf("expected validation fault, got %v", err)
	}
}

func TestUploadHotspotImage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/upload-hotspot-image" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		_ = json.NewEncoder(w).Encode(api.UploadImageResponse{Success: true, URL: "/assets/hotspots/1756500000000_door.jpg"})
	}))
	defer srv.Close()

	c := New(srv.URL, nil, nil)
	url, err := c.UploadHotspotImage(context.Background(), "door.jpg", strings.NewReader("jpeg-bytes"))
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if url != "/assets/hotspots/1756500000000_door.jpg" {
		t.Fatalf("unexpected url: %q", url)
	}
}

func TestDeleteFile(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req api.DeleteFileRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode body: %v", err)
		}
		if req.FilePath != "/assets/hotspots/old.jpg" {
			t.Errorf("unexpected path %q", req.FilePath)
		}
		_ = json.NewEncoder(w).Encode(api.DeleteFileResponse{Success: true})
	}))
	defer srv.Close()

	c := New(srv.URL, nil, nil)
	if err := c.DeleteFile(context.Background(), "/assets/hotspots/old.jpg"); err != nil {
		t.Fatalf("delete: %v", err)
	}
}

func TestDeleteFileFailureIsPhysicalDelete(t *testing.T) {
	c := New("http://127.0.0.1:1", nil, nil)
	err := c.DeleteFile(context.Background(), "/assets/hotspots/old.jpg")
	if !errors.Is(err, faults.ErrPhysicalDelete) {
		t.Fatalf("expected physical delete fault, got %v", err)
	}
}
