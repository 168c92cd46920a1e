// Package session owns the live annotation state and reconciles it across
// the server document, the local cache, and the blob store.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"vantage/internal/blob"
	"vantage/internal/faults"
	"vantage/internal/geometry"
	"vantage/internal/logging"
	"vantage/internal/project"
)

// DocumentClient is the subset of the API client the session needs.
type DocumentClient interface {
	FetchDocument(ctx context.Context) (*project.Document, error)
	SaveDocument(ctx context.Context, doc *project.Document) error
}

// AnnotationCache is the local write-through mirror of per-scene annotations.
type AnnotationCache interface {
	Get(ctx context.Context, sceneURL string) (project.AnnotationSet, bool, error)
	Put(ctx context.Context, sceneURL string, set project.AnnotationSet) error
	All(ctx context.Context) (map[string]project.AnnotationSet, error)
}

// BlobStore holds captured hotspot imagery too large for the document.
type BlobStore interface {
	Put(ctx context.Context, key string, payload []byte) (string, error)
	Get(ctx context.Context, key string) ([]byte, bool, error)
	CollectGarbage(ctx context.Context, activeKeys map[string]struct{}) error
}

// PhysicalDeleter removes server-hosted files referenced by annotations.
type PhysicalDeleter interface {
	DeletePhysical(ctx context.Context, ref string) error
}

// LoadSource identifies which tier satisfied a load.
type LoadSource string

const (
	SourceServer LoadSource = "server"
	SourceCache  LoadSource = "cache"
	SourceEmpty  LoadSource = "empty"
)

// SaveResult is the structured outcome of an explicit save.
type SaveResult struct {
	Success bool
	Scenes  int
	Err     error
}

// Session is the synchronization core. The mutex guards the live annotation
// set, the scene list, and the bookkeeping for load staleness and the cache
// write-through ordering guard. Storage I/O always happens outside the lock.
type Session struct {
	client DocumentClient
	cache  AnnotationCache
	blobs  BlobStore
	assets PhysicalDeleter
	logger *slog.Logger

	mu          sync.Mutex
	scenes      []project.Scene
	activeScene string
	live        project.AnnotationSet
	generation  uint64
	// prevScene is the active scene id observed by the last write-through
	// cycle. A cycle that observes a different id skips its cache write and
	// records the new id instead, so a stale pre-switch snapshot can never
	// land under the freshly activated scene.
	prevScene string
}

// New builds a session over the given storage tiers.
func New(client DocumentClient, cache AnnotationCache, blobs BlobStore, assets PhysicalDeleter, logger *slog.Logger) *Session {
	return &Session{
		client: client,
		cache:  cache,
		blobs:  blobs,
		assets: assets,
		logger: logging.NewComponentLogger(logger, "session"),
	}
}

// SetScenes replaces the in-memory scene list.
func (s *Session) SetScenes(scenes []project.Scene) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scenes = append([]project.Scene(nil), scenes...)
}

// Scenes returns a copy of the scene list.
func (s *Session) Scenes() []project.Scene {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]project.Scene(nil), s.scenes...)
}

// ActiveScene returns the id of the currently active scene.
func (s *Session) ActiveScene() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activeScene
}

// Annotations returns a copy of the live annotation set.
func (s *Session) Annotations() project.AnnotationSet {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.live.Clone()
}

// Endpoint returns the endpoint at index, if present.
func (s *Session) Endpoint(index int) (project.Endpoint, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if index < 0 || index >= len(s.live.Endpoints) {
		return project.Endpoint{}, false
	}
	return s.live.Endpoints[index], true
}

// ActivateScene makes sceneURL the active scene and resolves its annotation
// set through the tier chain: server document, then local cache, then the
// empty set. Tier failures are absorbed and logged; the caller always gets a
// usable set. If the active scene changes while the load is in flight the
// result is discarded and the reported source is the empty set.
func (s *Session) ActivateScene(ctx context.Context, sceneURL string) (project.AnnotationSet, LoadSource) {
	s.mu.Lock()
	s.activeScene = sceneURL
	s.generation++
	gen := s.generation
	s.mu.Unlock()

	set, source := s.resolve(ctx, sceneURL)

	s.mu.Lock()
	if s.generation != gen {
		s.mu.Unlock()
		s.logger.Debug("discarding stale load",
			logging.String(logging.FieldScene, sceneURL),
			logging.String("source", string(source)))
		return project.AnnotationSet{}, SourceEmpty
	}
	s.live = set
	s.mu.Unlock()

	s.logger.Info("scene activated",
		logging.String(logging.FieldScene, sceneURL),
		logging.String("source", string(source)),
		logging.Int("endpoints", len(set.Endpoints)),
		logging.Int("hotspots", len(set.Hotspots)))

	// The publish counts as a write cycle so the guard observes the new
	// scene id here rather than on the first edit.
	s.maybeCommit(ctx)
	return set.Clone(), source
}

func (s *Session) resolve(ctx context.Context, sceneURL string) (project.AnnotationSet, LoadSource) {
	doc, err := s.client.FetchDocument(ctx)
	if err == nil {
		if set, ok := doc.AnnotationsFor(sceneURL); ok {
			return set, SourceServer
		}
		s.logger.Debug("scene absent from server document", logging.String(logging.FieldScene, sceneURL))
	} else {
		s.logger.Debug("server document unavailable", logging.Error(err))
	}

	set, ok, err := s.cache.Get(ctx, sceneURL)
	if err != nil {
		s.logger.Warn("cache lookup failed", logging.String(logging.FieldScene, sceneURL), logging.Error(err))
	} else if ok {
		return set, SourceCache
	}

	return project.AnnotationSet{}, SourceEmpty
}

// CommitLocal writes the live annotation set through to the cache entry of
// the active scene. Quota failures are logged and tolerated, never surfaced.
func (s *Session) CommitLocal(ctx context.Context) {
	s.maybeCommit(ctx)
}

// maybeCommit writes the live set through to the cache. The cycle that first
// observes a scene switch skips the write and only records the new id. Quota
// failures are logged and tolerated.
func (s *Session) maybeCommit(ctx context.Context) {
	s.mu.Lock()
	active := s.activeScene
	if s.prevScene != active {
		s.prevScene = active
		s.mu.Unlock()
		s.logger.Debug("skipping cache write after scene switch", logging.String(logging.FieldScene, active))
		return
	}
	set := s.live.Clone()
	s.mu.Unlock()

	if active == "" {
		return
	}
	if err := s.cache.Put(ctx, active, set); err != nil {
		s.logger.Warn("cache write-through failed", logging.String(logging.FieldScene, active), logging.Error(err))
	}
}

// Save assembles the full project document from the scene list, the cache's
// accumulated per-scene map, and the live set for the active scene, then
// submits it to the server. Failures come back in the result, never as a
// panic.
func (s *Session) Save(ctx context.Context) SaveResult {
	s.mu.Lock()
	scenes := append([]project.Scene(nil), s.scenes...)
	active := s.activeScene
	live := s.live.Clone()
	s.mu.Unlock()

	data, err := s.cache.All(ctx)
	if err != nil {
		s.logger.Warn("cache enumeration failed, saving live state only", logging.Error(err))
		data = map[string]project.AnnotationSet{}
	}
	if active != "" {
		data[active] = live
	}

	doc := &project.Document{Scenes: scenes, Data: data}
	if err := s.client.SaveDocument(ctx, doc); err != nil {
		return SaveResult{Success: false, Scenes: len(scenes), Err: err}
	}
	return SaveResult{Success: true, Scenes: len(scenes)}
}

// AddEndpoint appends an endpoint to the live set.
func (s *Session) AddEndpoint(ctx context.Context, ep project.Endpoint) {
	s.mu.Lock()
	s.live.Endpoints = append(s.live.Endpoints, ep)
	project.EnsureEndpointNames(s.live.Endpoints)
	s.mu.Unlock()
	s.maybeCommit(ctx)
}

// UpdateEndpoint replaces the endpoint at index.
func (s *Session) UpdateEndpoint(ctx context.Context, index int, ep project.Endpoint) error {
	s.mu.Lock()
	if index < 0 || index >= len(s.live.Endpoints) {
		s.mu.Unlock()
		return faults.Wrap(faults.ErrValidation, "session", "update_endpoint", fmt.Sprintf("no endpoint at index %d", index), nil)
	}
	s.live.Endpoints[index] = ep
	s.mu.Unlock()
	s.maybeCommit(ctx)
	return nil
}

// UpdateEndpointCamera writes a new camera point for the endpoint at index.
// This is the edit path view capture goes through.
func (s *Session) UpdateEndpointCamera(ctx context.Context, index int, camera geometry.Vec3) error {
	s.mu.Lock()
	if index < 0 || index >= len(s.live.Endpoints) {
		s.mu.Unlock()
		return faults.Wrap(faults.ErrValidation, "session", "update_endpoint_camera", fmt.Sprintf("no endpoint at index %d", index), nil)
	}
	s.live.Endpoints[index].Camera = camera
	s.mu.Unlock()
	s.maybeCommit(ctx)
	return nil
}

// RemoveEndpoint deletes the endpoint at index.
func (s *Session) RemoveEndpoint(ctx context.Context, index int) error {
	s.mu.Lock()
	if index < 0 || index >= len(s.live.Endpoints) {
		s.mu.Unlock()
		return faults.Wrap(faults.ErrValidation, "session", "remove_endpoint", fmt.Sprintf("no endpoint at index %d", index), nil)
	}
	s.live.Endpoints = append(s.live.Endpoints[:index], s.live.Endpoints[index+1:]...)
	s.mu.Unlock()
	s.maybeCommit(ctx)
	return nil
}

// AddHotspot appends a hotspot to the live set.
func (s *Session) AddHotspot(ctx context.Context, h project.Hotspot) {
	s.mu.Lock()
	s.live.Hotspots = append(s.live.Hotspots, h)
	s.mu.Unlock()
	s.maybeCommit(ctx)
}

// UpdateHotspot replaces the hotspot at index.
func (s *Session) UpdateHotspot(ctx context.Context, index int, h project.Hotspot) error {
	s.mu.Lock()
	if index < 0 || index >= len(s.live.Hotspots) {
		s.mu.Unlock()
		return faults.Wrap(faults.ErrValidation, "session", "update_hotspot", fmt.Sprintf("no hotspot at index %d", index), nil)
	}
	s.live.Hotspots[index] = h
	s.mu.Unlock()
	s.maybeCommit(ctx)
	return nil
}

// RemoveHotspot deletes the hotspot at index. The physical backing file is
// deleted first; a physical-delete failure is reported through the log but
// never blocks the logical removal.
func (s *Session) RemoveHotspot(ctx context.Context, index int) error {
	s.mu.Lock()
	if index < 0 || index >= len(s.live.Hotspots) {
		s.mu.Unlock()
		return faults.Wrap(faults.ErrValidation, "session", "remove_hotspot", fmt.Sprintf("no hotspot at index %d", index), nil)
	}
	ref := s.live.Hotspots[index].ImageRef
	s.mu.Unlock()

	if ref != "" && s.assets != nil {
		if err := s.assets.DeletePhysical(ctx, ref); err != nil {
			s.logger.Warn("physical delete failed, removing hotspot anyway",
				logging.String("ref", ref), logging.Error(err))
		}
	}

	s.mu.Lock()
	if index >= len(s.live.Hotspots) {
		s.mu.Unlock()
		return nil
	}
	s.live.Hotspots = append(s.live.Hotspots[:index], s.live.Hotspots[index+1:]...)
	s.mu.Unlock()
	s.maybeCommit(ctx)
	return nil
}

// AttachHotspotImage stores payload in the blob store under a fresh key and
// records that key as the hotspot's image reference.
func (s *Session) AttachHotspotImage(ctx context.Context, index int, payload []byte) (string, error) {
	s.mu.Lock()
	if index < 0 || index >= len(s.live.Hotspots) {
		s.mu.Unlock()
		return "", faults.Wrap(faults.ErrValidation, "session", "attach_hotspot_image", fmt.Sprintf("no hotspot at index %d", index), nil)
	}
	s.mu.Unlock()

	key, err := s.blobs.Put(ctx, blob.NewKey(), payload)
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	if index >= len(s.live.Hotspots) {
		s.mu.Unlock()
		return "", faults.Wrap(faults.ErrValidation, "session", "attach_hotspot_image", "hotspot removed during attach", nil)
	}
	s.live.Hotspots[index].ImageRef = key
	s.mu.Unlock()
	s.maybeCommit(ctx)
	return key, nil
}

// HotspotImage resolves a hotspot's image when it is blob-backed. Both an
// absent key and a store failure come back as unavailable rather than an
// error the view would crash on.
func (s *Session) HotspotImage(ctx context.Context, index int) ([]byte, bool) {
	s.mu.Lock()
	if index < 0 || index >= len(s.live.Hotspots) {
		s.mu.Unlock()
		return nil, false
	}
	ref := s.live.Hotspots[index].ImageRef
	s.mu.Unlock()

	if project.ClassifyRef(ref) != project.RefBlobKey {
		return nil, false
	}
	payload, ok, err := s.blobs.Get(ctx, ref)
	if err != nil {
		s.logger.Warn("hotspot image unavailable", logging.String("key", ref), logging.Error(err))
		return nil, false
	}
	return payload, ok
}

// SetScale updates a scene's scale factor. Zero and negative values are
// rejected and the prior value stays in place.
func (s *Session) SetScale(ctx context.Context, sceneURL string, scale float64) error {
	if err := project.ValidateScale(scale); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.scenes {
		if s.scenes[i].URL == sceneURL {
			s.scenes[i].Scale = scale
			return nil
		}
	}
	return faults.Wrap(faults.ErrValidation, "session", "set_scale", fmt.Sprintf("unknown scene %q", sceneURL), nil)
}

// CollectBlobGarbage removes blob entries no hotspot references anymore. The
// active key set is gathered from every cached scene plus the live set.
func (s *Session) CollectBlobGarbage(ctx context.Context) error {
	active := map[string]struct{}{}

	all, err := s.cache.All(ctx)
	if err != nil {
		s.logger.Warn("cache enumeration failed during garbage collection", logging.Error(err))
		all = map[string]project.AnnotationSet{}
	}
	for _, set := range all {
		collectBlobKeys(set, active)
	}

	s.mu.Lock()
	live := s.live.Clone()
	s.mu.Unlock()
	collectBlobKeys(live, active)

	return s.blobs.CollectGarbage(ctx, active)
}

func collectBlobKeys(set project.AnnotationSet, into map[string]struct{}) {
	for _, h := range set.Hotspots {
		if project.ClassifyRef(h.ImageRef) == project.RefBlobKey {
			into[h.ImageRef] = struct{}{}
		}
	}
}
