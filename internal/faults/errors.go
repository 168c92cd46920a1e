package faults

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel markers classify failures across the storage tiers. Callers tag
// errors with a marker via Wrap and branch with errors.Is at the boundary
// where the failure is absorbed, logged, or surfaced.
var (
	// ErrValidation covers rejected input: bad upload extensions, missing
	// multipart files, invalid delete paths, non-positive scale factors.
	ErrValidation = errors.New("validation error")
	// ErrTransient covers server unreachability and non-2xx fetch responses.
	// It triggers the cache fallback and is never surfaced as a user error.
	ErrTransient = errors.New("transient failure")
	// ErrNotFound covers absent documents, scenes, and blob keys.
	ErrNotFound = errors.New("not found")
	// ErrQuota covers local cache write failures. Logged and tolerated.
	ErrQuota = errors.New("storage quota exceeded")
	// ErrBlobStore covers blob store open/read/write failures.
	ErrBlobStore = errors.New("blob store failure")
	// ErrPhysicalDelete covers backing-file deletion failures. Reported but
	// never blocks the logical deletion it was part of.
	ErrPhysicalDelete = errors.New("physical delete failure")
)

// Wrap tags err with marker and component/operation context. A nil marker
// defaults to ErrTransient.
func Wrap(marker error, component, operation, message string, err error) error {
	detail := buildDetail(component, operation, message)
	if marker == nil {
		marker = ErrTransient
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

func buildDetail(component, operation, message string) string {
	parts := make([]string, 0, 3)
	if component = strings.TrimSpace(component); component != "" {
		parts = append(parts, component)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "storage failure"
	}
	return strings.Join(parts, ": ")
}
