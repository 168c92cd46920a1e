package project

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// ReadDocumentFile loads the project document from disk. A missing file is
// reported as (nil, false, nil) so callers can distinguish absence from
// corruption.
func ReadDocumentFile(path string) (*Document, bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("read project document: %w", err)
	}

	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, false, fmt.Errorf("parse project document: %w", err)
	}
	doc.Sanitize()
	for url, set := range doc.Data {
		EnsureEndpointNames(set.Endpoints)
		doc.Data[url] = set
	}
	return &doc, true, nil
}

// WriteDocumentFile persists the document as indented JSON, creating parent
// directories as needed. The write goes through a temp file and rename so a
// crash cannot leave a truncated document behind.
func WriteDocumentFile(path string, doc *Document) error {
	if doc == nil {
		return errors.New("nil project document")
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode project document: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create document directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".project_config-*.json")
	if err != nil {
		return fmt.Errorf("create temp document: %w", err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("write project document: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("close temp document: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("replace project document: %w", err)
	}
	return nil
}
