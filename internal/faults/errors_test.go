package faults

import (
	"errors"
	"testing"
)

func TestWrapTagsMarker(t *testing.T) {
	underlying := errors.New("disk full")
	err := Wrap(ErrQuota, "cache", "put", "scene demo", underlying)

	if !errors.Is(err, ErrQuota) {
		t.Fatalf("expected ErrQuota classification")
	}
	if !errors.Is(err, underlying) {
		t.Fatalf("expected underlying error preserved")
	}
	want := "storage quota exceeded: cache: put: scene demo: disk full"
	if err.Error() != want {
		t.Fatalf("unexpected message: %q", err.Error())
	}
}

func TestWrapDefaultsToTransient(t *testing.T) {
	err := Wrap(nil, "client", "fetch", "", nil)
	if !errors.Is(err, ErrTransient) {
		t.Fatalf("nil marker should default to transient")
	}
}

func TestWrapEmptyDetail(t *testing.T) {
	err := Wrap(ErrBlobStore, "", "", "", nil)
	if err.Error() != "blob store failure: storage failure" {
		t.Fatalf("unexpected message: %q", err.Error())
	}
}
