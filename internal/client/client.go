// Package client talks to the vantaged HTTP API on behalf of the
// synchronization session and the CLI.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"vantage/internal/api"
	"vantage/internal/faults"
	"vantage/internal/logging"
	"vantage/internal/project"
)

// HTTPDoer abstracts the HTTP transport for testing.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client wraps the project document endpoints of a vantaged server.
type Client struct {
	baseURL string
	httpc   HTTPDoer
	logger  *slog.Logger
}

// New builds a client for the given base URL. A nil doer falls back to a
// default http.Client with a request timeout.
func New(baseURL string, doer HTTPDoer, logger *slog.Logger) *Client {
	if doer == nil {
		doer = &http.Client{Timeout: 15 * time.Second}
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpc:   doer,
		logger:  logging.NewComponentLogger(logger, "client"),
	}
}

// FetchDocument retrieves the authoritative project document. Any transport
// failure or non-success status is reported as a transient fault so callers
// can fall back to local state.
func (c *Client) FetchDocument(ctx context.Context) (*project.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/project", nil)
	if err != nil {
		return nil, faults.Wrap(faults.ErrTransient, "client", "fetch_document", "build request", err)
	}
	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, faults.Wrap(faults.ErrTransient, "client", "fetch_document", "document absent", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, faults.Wrap(faults.ErrTransient, "client", "fetch_document", fmt.Sprintf("document absent (status %d)", resp.StatusCode), nil)
	}

	var doc project.Document
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return nil, faults.Wrap(faults.ErrTransient, "client", "fetch_document", "decode document", err)
	}
	doc.Sanitize()
	for url, set := range doc.Data {
		project.EnsureEndpointNames(set.Endpoints)
		doc.Data[url] = set
	}
	return &doc, nil
}

// SaveDocument writes the full project document to the server.
func (c *Client) SaveDocument(ctx context.Context, doc *project.Document) error {
	body, err := json.Marshal(doc)
	if err != nil {
		return faults.Wrap(faults.ErrValidation, "client", "save_document", "encode document", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/save-config", bytes.NewReader(body))
	if err != nil {
		return faults.Wrap(faults.ErrTransient, "client", "save_document", "build request", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return faults.Wrap(faults.ErrTransient, "client", "save_document", "server unreachable", err)
	}
	defer resp.Body.Close()

	var saved api.SaveResponse
	if err := json.NewDecoder(resp.Body).Decode(&saved); err != nil {
		return faults.Wrap(faults.ErrTransient, "client", "save_document", "decode response", err)
	}
	if resp.StatusCode != http.StatusOK || !saved.Success {
		detail := saved.Error
		if detail == "" {
			detail = fmt.Sprintf("status %d", resp.StatusCode)
		}
		return faults.Wrap(faults.ErrTransient, "client", "save_document", detail, nil)
	}
	c.logger.Debug("document saved", logging.Int("scenes", len(doc.Scenes)))
	return nil
}

// UploadScene uploads a scene file and returns its server path and the
// display name the server derived for it.
func (c *Client) UploadScene(ctx context.Context, filename string, payload io.Reader) (url, name string, err error) {
	resp, err := c.uploadMultipart(ctx, "/api/upload-scene", filename, payload)
	if err != nil {
		return "", "", err
	}
	defer resp.Body.Close()

	var uploaded api.UploadSceneResponse
	if err := json.NewDecoder(resp.Body).Decode(&uploaded); err != nil {
		return "", "", faults.Wrap(faults.ErrTransient, "client", "upload_scene", "decode response", err)
	}
	if resp.StatusCode != http.StatusOK || !uploaded.Success {
		return "", "", uploadFailure(resp.StatusCode, uploaded.Error, "upload_scene")
	}
	return uploaded.URL, uploaded.Name, nil
}

// UploadHotspotImage uploads a hotspot image and returns its server path.
func (c *Client) UploadHotspotImage(ctx context.Context, filename string, payload io.Reader) (string, error) {
	resp, err := c.uploadMultipart(ctx, "/api/upload-hotspot-image", filename, payload)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var uploaded api.UploadImageResponse
	if err := json.NewDecoder(resp.Body).Decode(&uploaded); err != nil {
		return "", faults.Wrap(faults.ErrTransient, "client", "upload_hotspot_image", "decode response", err)
	}
	if resp.StatusCode != http.StatusOK || !uploaded.Success {
		return "", uploadFailure(resp.StatusCode, uploaded.Error, "upload_hotspot_image")
	}
	return uploaded.URL, nil
}

// DeleteFile asks the server to remove a previously uploaded file. Deleting a
// file that no longer exists succeeds.
func (c *Client) DeleteFile(ctx context.Context, serverPath string) error {
	body, err := json.Marshal(api.DeleteFileRequest{FilePath: serverPath})
	if err != nil {
		return faults.Wrap(faults.ErrValidation, "client", "delete_file", "encode request", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/delete-file", bytes.NewReader(body))
	if err != nil {
		return faults.Wrap(faults.ErrTransient, "client", "delete_file", "build request", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return faults.Wrap(faults.ErrPhysicalDelete, "client", "delete_file", serverPath, err)
	}
	defer resp.Body.Close()

	var deleted api.DeleteFileResponse
	if err := json.NewDecoder(resp.Body).Decode(&deleted); err != nil {
		return faults.Wrap(faults.ErrPhysicalDelete, "client", "delete_file", "decode response", err)
	}
	if resp.StatusCode != http.StatusOK || !deleted.Success {
		detail := deleted.Error
		if detail == "" {
			detail = fmt.Sprintf("status %d", resp.StatusCode)
		}
		return faults.Wrap(faults.ErrPhysicalDelete, "client", "delete_file", detail, nil)
	}
	return nil
}

// Health fetches the daemon health report.
func (c *Client) Health(ctx context.Context) (*api.HealthResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/health", nil)
	if err != nil {
		return nil, faults.Wrap(faults.ErrTransient, "client", "health", "build request", err)
	}
	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, faults.Wrap(faults.ErrTransient, "client", "health", "server unreachable", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, faults.Wrap(faults.ErrTransient, "client", "health", fmt.Sprintf("status %d", resp.StatusCode), nil)
	}
	var health api.HealthResponse
	if err := json.NewDecoder(resp.Body).Decode(&health); err != nil {
		return nil, faults.Wrap(faults.ErrTransient, "client", "health", "decode response", err)
	}
	return &health, nil
}

func (c *Client) uploadMultipart(ctx context.Context, endpoint, filename string, payload io.Reader) (*http.Response, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", filepath.Base(filename))
	if err != nil {
		return nil, faults.Wrap(faults.ErrTransient, "client", "upload", "create form file", err)
	}
	if _, err := io.Copy(part, payload); err != nil {
		return nil, faults.Wrap(faults.ErrTransient, "client", "upload", "copy payload", err)
	}
	if err := writer.Close(); err != nil {
		return nil, faults.Wrap(faults.ErrTransient, "client", "upload", "finalize form", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+endpoint, &body)
	if err != nil {
		return nil, faults.Wrap(faults.ErrTransient, "client", "upload", "build request", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, faults.Wrap(faults.ErrTransient, "client", "upload", "server unreachable", err)
	}
	return resp, nil
}

func uploadFailure(status int, detail, operation string) error {
	marker := faults.ErrTransient
	if status == http.StatusBadRequest {
		marker = faults.ErrValidation
	}
	if detail == "" {
		detail = fmt.Sprintf("status %d", status)
	}
	return faults.Wrap(marker, "client", operation, detail, nil)
}
