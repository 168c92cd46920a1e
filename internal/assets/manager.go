// Package assets handles uploaded scene files and hotspot imagery on behalf
// of the editing session.
package assets

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"

	"vantage/internal/faults"
	"vantage/internal/logging"
	"vantage/internal/project"
)

// Uploader is the subset of the API client the manager needs.
type Uploader interface {
	UploadScene(ctx context.Context, filename string, payload io.Reader) (url, name string, err error)
	UploadHotspotImage(ctx context.Context, filename string, payload io.Reader) (string, error)
	DeleteFile(ctx context.Context, serverPath string) error
}

var sceneExtensions = map[string]struct{}{
	".glb":  {},
	".gltf": {},
}

// Manager validates and forwards asset operations to the server.
type Manager struct {
	uploader Uploader
	logger   *slog.Logger
}

// NewManager builds an asset manager on top of the given uploader.
func NewManager(uploader Uploader, logger *slog.Logger) *Manager {
	return &Manager{
		uploader: uploader,
		logger:   logging.NewComponentLogger(logger, "assets"),
	}
}

// UploadScene checks the file extension locally before handing the payload to
// the server, so an unsupported file never leaves the machine.
func (m *Manager) UploadScene(ctx context.Context, filename string, payload io.Reader) (url, name string, err error) {
	ext := strings.ToLower(filepath.Ext(filename))
	if _, ok := sceneExtensions[ext]; !ok {
		return "", "", faults.Wrap(faults.ErrValidation, "assets", "upload_scene", fmt.Sprintf("unsupported scene file %q", ext), nil)
	}
	url, name, err = m.uploader.UploadScene(ctx, filename, payload)
	if err != nil {
		return "", "", err
	}
	m.logger.Info("scene uploaded", logging.String("url", url), logging.String("name", name))
	return url, name, nil
}

// UploadHotspotImage forwards a hotspot image to the server.
func (m *Manager) UploadHotspotImage(ctx context.Context, filename string, payload io.Reader) (string, error) {
	url, err := m.uploader.UploadHotspotImage(ctx, filename, payload)
	if err != nil {
		return "", err
	}
	m.logger.Info("hotspot image uploaded", logging.String("url", url))
	return url, nil
}

// DeletePhysical removes a server-hosted file referenced by an annotation.
// Only server paths are deletable; remote URLs, inline data and blob keys are
// skipped. The returned error reports the failure but callers proceed with
// the logical removal either way.
func (m *Manager) DeletePhysical(ctx context.Context, ref string) error {
	if project.ClassifyRef(ref) != project.RefServerPath {
		return nil
	}
	if err := m.uploader.DeleteFile(ctx, ref); err != nil {
		m.logger.Warn("physical delete failed", logging.String("path", ref), logging.Error(err))
		return err
	}
	m.logger.Debug("physical file removed", logging.String("path", ref))
	return nil
}
