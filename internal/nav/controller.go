// Package nav drives interpolated camera transitions between the live view
// and stored endpoint viewpoints.
package nav

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"vantage/internal/faults"
	"vantage/internal/geometry"
	"vantage/internal/logging"
	"vantage/internal/project"
)

// Rig abstracts the renderer's orbit controls: a look-at target and a camera
// position, both in scene coordinates.
type Rig interface {
	Target() geometry.Vec3
	SetTarget(geometry.Vec3)
	Position() geometry.Vec3
	SetPosition(geometry.Vec3)
	SetMaxDistance(float64)
}

// Endpoints is the annotation access the controller needs.
type Endpoints interface {
	Endpoint(index int) (project.Endpoint, bool)
	UpdateEndpoint(ctx context.Context, index int, ep project.Endpoint) error
	UpdateEndpointCamera(ctx context.Context, index int, camera geometry.Vec3) error
}

// State is the controller's animation state.
type State int

const (
	// StateIdle means no transition is in progress and the camera is free.
	StateIdle State = iota
	// StateAnimating means the camera is interpolating toward goals and
	// user-driven manipulation is locked out.
	StateAnimating
	// StateSettled means the goals were just reached; the next tick returns
	// the controller to idle.
	StateSettled
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAnimating:
		return "animating"
	case StateSettled:
		return "settled"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

const (
	frameMinDistance = 5.0
	frameSizePadding = 1.2
	frameRangeFactor = 5.0
)

// Controller owns the camera transition goals and the exclusive lock that
// suppresses user input while a transition runs.
type Controller struct {
	rig       Rig
	endpoints Endpoints
	lerp      float64
	epsilon   float64
	logger    *slog.Logger

	mu         sync.Mutex
	state      State
	goalTarget geometry.Vec3
	goalCamera geometry.Vec3
	locked     bool
}

// NewController builds a controller over the given rig. lerp is the fraction
// of remaining distance closed per tick; epsilon is the convergence distance
// in scene units.
func NewController(rig Rig, endpoints Endpoints, lerp, epsilon float64, logger *slog.Logger) *Controller {
	return &Controller{
		rig:       rig,
		endpoints: endpoints,
		lerp:      lerp,
		epsilon:   epsilon,
		logger:    logging.NewComponentLogger(logger, "nav"),
	}
}

// State returns the current animation state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Locked reports whether user camera manipulation is currently suppressed.
func (c *Controller) Locked() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.locked
}

// Focus starts a transition toward the endpoint at index. A bare legacy
// endpoint that was added in memory without a camera point is normalized
// first and the canonical form written back through the edit path. Calling
// Focus mid-animation replaces the goals; the lock is held, not stacked.
func (c *Controller) Focus(ctx context.Context, index int) error {
	ep, ok := c.endpoints.Endpoint(index)
	if !ok {
		return faults.Wrap(faults.ErrValidation, "nav", "focus", fmt.Sprintf("no endpoint at index %d", index), nil)
	}
	if ep.Camera == (geometry.Vec3{}) && ep.Target != (geometry.Vec3{}) {
		ep = project.NormalizeLegacy(ep.Target, index)
		if err := c.endpoints.UpdateEndpoint(ctx, index, ep); err != nil {
			return err
		}
	}

	c.mu.Lock()
	c.goalTarget = ep.Target
	c.goalCamera = ep.Camera
	c.state = StateAnimating
	c.locked = true
	c.mu.Unlock()

	c.logger.Debug("focusing endpoint",
		logging.Int("index", index),
		logging.String("name", ep.Name))
	return nil
}

// Tick advances the animation one frame. While animating, the rig's target
// and position each close a fixed fraction of their remaining distance to
// the goals. When both distances fall under epsilon the rig snaps exactly to
// the goals, the goals are cleared, and the lock is released.
func (c *Controller) Tick() {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.state {
	case StateIdle:
		return
	case StateSettled:
		c.state = StateIdle
		return
	}

	c.rig.SetTarget(c.rig.Target().Lerp(c.goalTarget, c.lerp))
	c.rig.SetPosition(c.rig.Position().Lerp(c.goalCamera, c.lerp))

	if c.rig.Target().DistanceTo(c.goalTarget) < c.epsilon &&
		c.rig.Position().DistanceTo(c.goalCamera) < c.epsilon {
		c.rig.SetTarget(c.goalTarget)
		c.rig.SetPosition(c.goalCamera)
		c.goalTarget = geometry.Vec3{}
		c.goalCamera = geometry.Vec3{}
		c.locked = false
		c.state = StateSettled
	}
}

// CaptureCurrentView writes the rig's live camera position into the endpoint
// at index. The animation state is untouched; capture works mid-transition.
func (c *Controller) CaptureCurrentView(ctx context.Context, index int) error {
	return c.endpoints.UpdateEndpointCamera(ctx, index, c.rig.Position())
}

// FrameScene positions the camera to take in a freshly loaded scene: the
// target goes to the origin and the camera backs off along the diagonal far
// enough to cover the scene's largest dimension.
func (c *Controller) FrameScene(size float64) {
	distance := size * frameSizePadding
	if distance < frameMinDistance {
		distance = frameMinDistance
	}
	c.rig.SetTarget(geometry.Vec3{})
	c.rig.SetPosition(geometry.Vec(distance, distance, distance))
	c.rig.SetMaxDistance(distance * frameRangeFactor)
}
