package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"vantage/internal/api"
)

func newDocumentServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/project":
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{
				"models": [{"url": "/assets/scenes/demo.glb", "name": "Demo", "realScale": 1}],
				"data": {"/assets/scenes/demo.glb": {"endpoints": [[1,2,3]], "hotspots": []}}
			}`))
		case "/api/health":
			_ = json.NewEncoder(w).Encode(api.HealthResponse{
				Running: true, PID: 4321, DocumentExists: true,
				DataDir: "/srv/vantage", FreeBytes: 10 << 30, TotalBytes: 20 << 30,
			})
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestConfigInit(t *testing.T) {
	target := filepath.Join(t.TempDir(), "config.toml")
	out, _, err := runCLI(t, []string{"config", "init", "--path", target}, "")
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, out, "Wrote sample configuration")
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected config file at %s: %v", target, err)
	}

	if _, _, err := runCLI(t, []string{"config", "init", "--path", target}, ""); err == nil {
		t.Fatalf("expected refusal without --overwrite")
	}
	if _, _, err := runCLI(t, []string{"config", "init", "--path", target, "--overwrite"}, ""); err != nil {
		t.Fatalf("config init --overwrite: %v", err)
	}
}

func TestScenesJSON(t *testing.T) {
	srv := newDocumentServer(t)
	configPath := writeTestConfig(t, srv.URL)

	out, _, err := runCLI(t, []string{"scenes", "--json"}, configPath)
	if err != nil {
		t.Fatalf("scenes: %v", err)
	}
	requireContains(t, out, "/assets/scenes/demo.glb")
	requireContains(t, out, "Demo")
}

func TestScenesTable(t *testing.T) {
	srv := newDocumentServer(t)
	configPath := writeTestConfig(t, srv.URL)

	out, _, err := runCLI(t, []string{"scenes"}, configPath)
	if err != nil {
		t.Fatalf("scenes: %v", err)
	}
	requireContains(t, out, "Demo")
	requireContains(t, out, "Endpoints")
}

func TestShowNormalizesLegacyEndpoints(t *testing.T) {
	srv := newDocumentServer(t)
	configPath := writeTestConfig(t, srv.URL)

	out, _, err := runCLI(t, []string{"show", "/assets/scenes/demo.glb"}, configPath)
	if err != nil {
		t.Fatalf("show: %v", err)
	}
	requireContains(t, out, "Endpoint 1")
	requireContains(t, out, "(4.00, 4.00, 6.00)")
}

func TestShowUnknownScene(t *testing.T) {
	srv := newDocumentServer(t)
	configPath := writeTestConfig(t, srv.URL)

	if _, _, err := runCLI(t, []string{"show", "/assets/scenes/missing.glb"}, configPath); err == nil {
		t.Fatalf("expected error for unknown scene")
	}
}

func TestUploadSceneRejectsBadExtensionLocally(t *testing.T) {
	srv := newDocumentServer(t)
	configPath := writeTestConfig(t, srv.URL)

	badFile := filepath.Join(t.TempDir(), "scene.obj")
	if err := os.WriteFile(badFile, []byte("obj"), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}
	if _, _, err := runCLI(t, []string{"upload-scene", badFile}, configPath); err == nil {
		t.Fatalf("expected validation error")
	}
}

func TestDoctor(t *testing.T) {
	srv := newDocumentServer(t)
	configPath := writeTestConfig(t, srv.URL)

	out, _, err := runCLI(t, []string{"doctor"}, configPath)
	if err != nil {
		t.Fatalf("doctor: %v", err)
	}
	requireContains(t, out, "running (pid 4321)")
	requireContains(t, out, "10 GiB free of 20 GiB")
}

func TestGCWithoutBlobStore(t *testing.T) {
	srv := newDocumentServer(t)
	configPath := writeTestConfig(t, srv.URL)

	out, _, err := runCLI(t, []string{"gc"}, configPath)
	if err != nil {
		t.Fatalf("gc: %v", err)
	}
	requireContains(t, out, "nothing to collect")
}
