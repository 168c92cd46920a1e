// Package api defines the JSON wire types shared by the vantaged HTTP
// server and its clients.
package api

// SaveResponse is returned by the save-config endpoint.
type SaveResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

// UploadSceneResponse is returned by the upload-scene endpoint.
type UploadSceneResponse struct {
	Success bool   `json:"success"`
	URL     string `json:"url,omitempty"`
	Name    string `json:"name,omitempty"`
	Error   string `json:"error,omitempty"`
}

// UploadImageResponse is returned by the upload-hotspot-image endpoint.
type UploadImageResponse struct {
	Success bool   `json:"success"`
	URL     string `json:"url,omitempty"`
	Error   string `json:"error,omitempty"`
}

// DeleteFileRequest is the body of the delete-file endpoint.
type DeleteFileRequest struct {
	FilePath string `json:"filePath"`
}

// DeleteFileResponse is returned by the delete-file endpoint.
type DeleteFileResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

// HealthResponse reports daemon liveness and data-dir capacity.
type HealthResponse struct {
	Running        bool   `json:"running"`
	PID            int    `json:"pid"`
	DocumentExists bool   `json:"documentExists"`
	DataDir        string `json:"dataDir"`
	FreeBytes      uint64 `json:"freeBytes"`
	TotalBytes     uint64 `json:"totalBytes"`
}
