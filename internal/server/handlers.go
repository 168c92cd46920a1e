package server

import (
	"encoding/json"
	"errors"
	"io"
	"io/fs"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sys/unix"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"vantage/internal/api"
	"vantage/internal/logging"
	"vantage/internal/project"
)

const maxUploadBytes = 256 << 20

var (
	whitespaceRun   = regexp.MustCompile(`\s+`)
	sceneExtensions = map[string]struct{}{".glb": {}, ".gltf": {}}
)

func (s *Server) handleProject(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	doc, ok, err := project.ReadDocumentFile(s.cfg.DocumentPath())
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "failed to read project document")
		s.logger.Error("project document read failed", logging.Error(err))
		return
	}
	if !ok {
		s.writeError(w, http.StatusNotFound, "project document not found")
		return
	}
	s.writeJSON(w, http.StatusOK, doc)
}

func (s *Server) handleSaveConfig(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var doc project.Document
	if err := json.NewDecoder(r.Body).Decode(&doc); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid project document")
		return
	}
	if err := project.WriteDocumentFile(s.cfg.DocumentPath(), &doc); err != nil {
		s.writeError(w, http.StatusInternalServerError, "failed to save project document")
		s.logger.Error("project document write failed", logging.Error(err))
		return
	}
	s.logger.Info("project document saved", logging.Int("scenes", len(doc.Scenes)))
	s.writeJSON(w, http.StatusOK, api.SaveResponse{Success: true, Message: "configuration saved"})
}

func (s *Server) handleUploadScene(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	file, header, ok := s.formFile(w, r)
	if !ok {
		return
	}
	defer file.Close()

	ext := strings.ToLower(filepath.Ext(header.Filename))
	if _, allowed := sceneExtensions[ext]; !allowed {
		s.writeError(w, http.StatusBadRequest, "unsupported file type, use .glb or .gltf")
		return
	}

	url, err := s.storeUpload(s.cfg.SceneAssetDir(), "/assets/scenes/", header.Filename, file)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "failed to save scene file")
		s.logger.Error("scene upload failed", logging.Error(err))
		return
	}
	name := displayName(header.Filename)
	s.logger.Info("scene uploaded", logging.String("url", url), logging.String("name", name))
	s.writeJSON(w, http.StatusOK, api.UploadSceneResponse{Success: true, URL: url, Name: name})
}

func (s *Server) handleUploadHotspotImage(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	file, header, ok := s.formFile(w, r)
	if !ok {
		return
	}
	defer file.Close()

	url, err := s.storeUpload(s.cfg.HotspotAssetDir(), "/assets/hotspots/", header.Filename, file)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "failed to save image file")
		s.logger.Error("hotspot image upload failed", logging.Error(err))
		return
	}
	s.logger.Info("hotspot image uploaded", logging.String("url", url))
	s.writeJSON(w, http.StatusOK, api.UploadImageResponse{Success: true, URL: url})
}

func (s *Server) handleDeleteFile(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var req api.DeleteFileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.FilePath == "" || !strings.HasPrefix(req.FilePath, "/") {
		s.writeError(w, http.StatusBadRequest, "invalid file path")
		return
	}

	fullPath := filepath.Join(s.cfg.Paths.DataDir, filepath.FromSlash(req.FilePath))
	root := filepath.Clean(s.cfg.Paths.DataDir) + string(filepath.Separator)
	if !strings.HasPrefix(filepath.Clean(fullPath), root) {
		s.writeError(w, http.StatusBadRequest, "invalid file path")
		return
	}

	if err := os.Remove(fullPath); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			s.writeJSON(w, http.StatusOK, api.DeleteFileResponse{Success: true, Message: "file already absent"})
			return
		}
		s.writeError(w, http.StatusInternalServerError, "failed to delete file")
		s.logger.Error("file delete failed", logging.String("path", req.FilePath), logging.Error(err))
		return
	}
	s.logger.Info("file deleted", logging.String("path", req.FilePath))
	s.writeJSON(w, http.StatusOK, api.DeleteFileResponse{Success: true, Message: "file deleted"})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	_, exists, _ := project.ReadDocumentFile(s.cfg.DocumentPath())

	health := api.HealthResponse{
		Running:        true,
		PID:            os.Getpid(),
		DocumentExists: exists,
		DataDir:        s.cfg.Paths.DataDir,
	}
	var stat unix.Statfs_t
	if err := unix.Statfs(s.cfg.Paths.DataDir, &stat); err == nil {
		health.FreeBytes = stat.Bavail * uint64(stat.Bsize)
		health.TotalBytes = stat.Blocks * uint64(stat.Bsize)
	} else {
		s.logger.Warn("statfs failed", logging.String("path", s.cfg.Paths.DataDir), logging.Error(err))
	}
	s.writeJSON(w, http.StatusOK, health)
}

func (s *Server) formFile(w http.ResponseWriter, r *http.Request) (multipart.File, *multipart.FileHeader, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		s.writeError(w, http.StatusBadRequest, "no file provided")
		return nil, nil, false
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "no file provided")
		return nil, nil, false
	}
	return file, header, true
}

// storeUpload persists payload under a timestamp-prefixed, whitespace
// normalized name and returns the server-relative reference path.
func (s *Server) storeUpload(dir, urlPrefix, originalName string, payload io.Reader) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	fileName := uploadFileName(originalName, time.Now())
	out, err := os.Create(filepath.Join(dir, fileName))
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(out, payload); err != nil {
		_ = out.Close()
		return "", err
	}
	if err := out.Close(); err != nil {
		return "", err
	}
	return urlPrefix + fileName, nil
}

func uploadFileName(originalName string, now time.Time) string {
	base := whitespaceRun.ReplaceAllString(filepath.Base(originalName), "_")
	return strconv.FormatInt(now.UnixMilli(), 10) + "_" + base
}

// displayName turns an uploaded file name into a human readable scene name:
// extension stripped, separators spaced out, title-cased.
func displayName(originalName string) string {
	base := filepath.Base(originalName)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	base = strings.NewReplacer("_", " ", "-", " ").Replace(base)
	base = whitespaceRun.ReplaceAllString(strings.TrimSpace(base), " ")
	if base == "" {
		return "Untitled Scene"
	}
	return cases.Title(language.Und).String(base)
}
