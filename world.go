// Package quill steps a world of rigid bodies: it gathers the contacts between their collision
// skins, resolves them into impulses, integrates the bodies and freezes those at rest.
package quill

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/akmonengine/quill/actor"
	"github.com/akmonengine/quill/collision"
	"github.com/akmonengine/quill/constraint"
	"github.com/akmonengine/quill/geom"
	"github.com/go-gl/mathgl/mgl64"
)

const DEFAULT_WORKERS = 1

// ErrOwnedSkin is returned when a body's skin is registered as static geometry
var ErrOwnedSkin = errors.New("skin belongs to a body")

// groundedNormalY is the smallest upward component of a contact normal a body can stand on
const groundedNormalY = 0.5

type World struct {
	// Logger receives the debug records of the world and its contact pool. nil means slog.Default().
	Logger *slog.Logger
	Events Events

	config    Config
	materials *collision.MaterialTable
	pool      *collision.Pool
	functor   *collision.BasicCollisionFunctor
	system    collision.CollisionSystem
	resolver  constraint.ContactResolver

	// List of all rigid bodies stepped by the world
	bodies []*actor.RigidBody
	byID   map[uint32]*actor.RigidBody
	nextID uint32
	// active is rebuilt every step
	active []*actor.RigidBody

	locomotion map[uint32]*actor.LocomotionState
	grounded   map[uint32]bool

	forces forceQueue
}

// NewWorld builds a world from a validated copy of cfg
func NewWorld(cfg Config) (*World, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	materials := collision.NewMaterialTable()
	pool := collision.NewPool(materials, cfg.PoolSize)

	w := &World{
		Events:     NewEvents(),
		materials:  materials,
		pool:       pool,
		functor:    collision.NewBasicCollisionFunctor(pool),
		resolver:   constraint.NewImpulseSolver(),
		byID:       make(map[uint32]*actor.RigidBody),
		locomotion: make(map[uint32]*actor.LocomotionState),
		grounded:   make(map[uint32]bool),
	}
	if err := w.SetConfig(cfg); err != nil {
		return nil, err
	}

	return w, nil
}

func (w *World) logger() *slog.Logger {
	if w.Logger == nil {
		return slog.Default()
	}
	return w.Logger
}

// Config returns a copy of the configuration in use
func (w *World) Config() Config {
	return w.config.Clone()
}

// SetConfig applies cfg to the running world. Gravity, iterations, tolerances, workers and
// materials take effect on the next step; a new broad phase moves every skin into it.
// Body activity defaults only apply to bodies added afterwards.
func (w *World) SetConfig(cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	cfg = cfg.Clone()

	if w.system == nil || cfg.BroadPhase != w.config.BroadPhase ||
		cfg.GridCellSize != w.config.GridCellSize || cfg.GridCells != w.config.GridCells {
		w.setCollisionSystem(newCollisionSystem(cfg))
	}
	if grid, ok := w.system.(*collision.Grid); ok {
		grid.Workers = cfg.Workers
	}

	if solver, ok := w.resolver.(*constraint.ImpulseSolver); ok {
		solver.AllowedPenetration = cfg.AllowedPenetration
	}

	for _, m := range cfg.Materials {
		w.materials.SetMaterialProperties(collision.MaterialID(m.ID), m.Properties())
	}

	for _, body := range w.bodies {
		body.SetGravity(cfg.Gravity)
	}

	w.config = cfg
	w.logger().Debug("config applied",
		"broad_phase", cfg.BroadPhase, "workers", cfg.Workers, "materials", len(cfg.Materials))
	return nil
}

func newCollisionSystem(cfg Config) collision.CollisionSystem {
	registry := collision.DefaultRegistry()
	switch cfg.BroadPhase {
	case BroadPhaseGrid:
		grid := collision.NewGrid(registry, cfg.GridCellSize, cfg.GridCells)
		grid.Workers = cfg.Workers
		return grid
	case BroadPhaseBrute:
		return collision.NewBrute(registry)
	default:
		return collision.NewSweepAndPrune(registry)
	}
}

// setCollisionSystem replaces the broad phase, moving every registered skin into the new one
func (w *World) setCollisionSystem(system collision.CollisionSystem) {
	if w.system != nil {
		w.functor.Reset()
		for _, skin := range slices.Clone(w.system.Skins()) {
			system.AddCollisionSkin(skin)
		}
	}
	w.system = system
}

func (w *World) CollisionSystem() collision.CollisionSystem {
	return w.system
}

func (w *World) Pool() *collision.Pool {
	return w.pool
}

func (w *World) Materials() *collision.MaterialTable {
	return w.materials
}

func (w *World) Resolver() constraint.ContactResolver {
	return w.resolver
}

// SetResolver replaces the contact resolver, nil restores the default one
func (w *World) SetResolver(resolver constraint.ContactResolver) {
	if resolver == nil {
		solver := constraint.NewImpulseSolver()
		solver.AllowedPenetration = w.config.AllowedPenetration
		resolver = solver
	}
	w.resolver = resolver
}

// Bodies returns the bodies stepped by the world. The slice must not be modified.
func (w *World) Bodies() []*actor.RigidBody {
	return w.bodies
}

// Body returns the body registered under id
func (w *World) Body(id uint32) (*actor.RigidBody, bool) {
	body, ok := w.byID[id]
	return body, ok
}

// Contacts returns the contacts of the last step, valid until the next one
func (w *World) Contacts() []*collision.CollisionInfo {
	return w.functor.Infos
}

// AddBody gives body a unique ID if it has none, applies the configured activity settings
// and enables it
func (w *World) AddBody(body *actor.RigidBody) {
	if other, taken := w.byID[body.ID]; body.ID == 0 || (taken && other != body) {
		w.nextID++
		for w.byID[w.nextID] != nil {
			w.nextID++
		}
		body.ID = w.nextID
	}

	body.SetDeactivationTime(w.config.Bodies.DeactivationTime)
	body.SetActivityThreshold(w.config.Bodies.VelocityThreshold, w.config.Bodies.AngVelocityThreshold)

	w.EnableBody(body)
}

// RemoveBody disables body and drops its locomotion state
func (w *World) RemoveBody(body *actor.RigidBody) {
	w.DisableBody(body)
	delete(w.locomotion, body.ID)
	delete(w.grounded, body.ID)
}

// EnableBody registers body and its skin with the stepping system
func (w *World) EnableBody(body *actor.RigidBody) {
	if slices.Contains(w.bodies, body) {
		return
	}

	w.bodies = append(w.bodies, body)
	w.byID[body.ID] = body
	body.SetGravity(w.config.Gravity)

	if skin := skinOf(body); skin != nil {
		w.system.AddCollisionSkin(skin)
	}
	w.logger().Debug("body enabled", "id", body.ID)
}

// DisableBody unregisters body and its skin. The body keeps its state.
func (w *World) DisableBody(body *actor.RigidBody) {
	k := slices.Index(w.bodies, body)
	if k == -1 {
		return
	}
	w.bodies = slices.Delete(w.bodies, k, k+1)
	if w.byID[body.ID] == body {
		delete(w.byID, body.ID)
	}

	skin := skinOf(body)
	if skin != nil {
		w.system.RemoveCollisionSkin(skin)
	}
	w.Events.forget(body, skin)
	w.logger().Debug("body disabled", "id", body.ID)
}

// AddSkin registers static geometry, a skin without owner
func (w *World) AddSkin(skin *collision.CollisionSkin) error {
	if skin.Owner() != nil {
		return fmt.Errorf("add skin: %w", ErrOwnedSkin)
	}
	w.system.AddCollisionSkin(skin)
	return nil
}

func (w *World) RemoveSkin(skin *collision.CollisionSkin) bool {
	w.Events.forget(nil, skin)
	return w.system.RemoveCollisionSkin(skin)
}

func skinOf(body *actor.RigidBody) *collision.CollisionSkin {
	skin, _ := body.Skin().(*collision.CollisionSkin)
	return skin
}

// SetLocomotion attaches a character controller to body, nil detaches it
func (w *World) SetLocomotion(body *actor.RigidBody, state *actor.LocomotionState) {
	if state == nil {
		delete(w.locomotion, body.ID)
		return
	}
	w.locomotion[body.ID] = state
}

func (w *World) Locomotion(body *actor.RigidBody) (*actor.LocomotionState, bool) {
	state, ok := w.locomotion[body.ID]
	return state, ok
}

// Grounded reports whether body stood on something at the end of the last step.
// Only bodies with a locomotion state are tracked.
func (w *World) Grounded(body *actor.RigidBody) bool {
	return w.grounded[body.ID]
}

// SegmentIntersect returns the closest skin hit by seg
func (w *World) SegmentIntersect(seg geom.Segment, pred collision.SkinPredicate) (collision.SegmentResult, bool, error) {
	return w.system.SegmentIntersect(seg, pred)
}

// Step advances the world by dt, clamped to the configured max timestep
func (w *World) Step(dt float64) {
	dt = min(dt, w.config.MaxTimestep)
	if dt <= 0 {
		return
	}
	w.pool.Logger = w.logger()
	workers := max(DEFAULT_WORKERS, w.config.Workers)

	// Phase 1: contacts of the previous step go back to the pool
	w.functor.Reset()

	// Phase 2: forces
	w.applyForces(dt)

	// Phase 3: collision detection for every active body, then for the bodies they wake up
	w.active = w.active[:0]
	for _, body := range w.bodies {
		if body.IsActive() {
			w.active = append(w.active, body)
		}
	}
	w.system.DetectAllCollisions(w.active, w.functor, nil, w.config.CollisionTolerance)
	w.reactivate()
	infos := w.functor.Infos

	// Phase 4: collisions, then forces, then resting contacts
	w.resolver.PreProcess(infos, dt)
	w.resolver.Iterate(infos, dt, w.config.CollisionIterations, false)
	task(workers, w.active, func(body *actor.RigidBody) {
		body.UpdateVelocity(dt)
	})
	w.resolver.Iterate(infos, dt, w.config.ContactIterations, true)

	// Phase 5: integration. Skins notify the shared broad phase, positions are updated serially.
	task(workers, w.active, func(body *actor.RigidBody) {
		body.LimitVelocities()
		body.CopyCurrentStateToOld()
	})
	for _, body := range w.active {
		body.UpdatePositionWithAux(dt)
	}
	w.updateGrounded(infos)

	// Phase 6: freezing
	if w.config.EnableFreezing {
		w.updateFreezing(dt)
	}

	// Phase 7: events
	w.Events.recordCollisions(infos)
	w.Events.processSleepEvents(w.bodies)
	w.Events.flush()
}

// applyForces resets the forces to gravity, then adds the queued forces and the locomotion
func (w *World) applyForces(dt float64) {
	for _, body := range w.bodies {
		body.ClearForces()
		body.AddGravityForce()
	}

	for _, f := range w.forces.drain() {
		if w.byID[f.body.ID] != f.body {
			continue
		}
		f.apply()
	}

	for id, state := range w.locomotion {
		if body, ok := w.byID[id]; ok {
			state.Apply(body, w.grounded[id], dt)
		}
	}
}

// updateGrounded records the bodies with a locomotion state resting on a blocking contact
func (w *World) updateGrounded(infos []*collision.CollisionInfo) {
	clear(w.grounded)
	if len(w.locomotion) == 0 {
		return
	}

	for _, ci := range infos {
		if !ci.Blocking {
			continue
		}
		up := ci.DirToBody0.Y()
		if body := ci.SkinInfo.Skin0.Owner(); body != nil && up > groundedNormalY {
			w.grounded[body.ID] = true
		}
		if body := ci.SkinInfo.Skin1.Owner(); body != nil && -up > groundedNormalY {
			w.grounded[body.ID] = true
		}
	}
}

// updateFreezing freezes the bodies at rest for long enough and damps those getting there
func (w *World) updateFreezing(dt float64) {
	for _, body := range w.active {
		body.UpdateDeactivation(dt)
		if !body.AllowFreezing {
			continue
		}
		if body.ShouldBeActive() {
			body.DampForDeactivation()
			continue
		}
		body.SetInactive()
		w.logger().Debug("body frozen", "id", body.ID)
	}
}

// reactivate wakes the frozen bodies hit by an active body moving faster than the activity
// threshold. The woken bodies join this step: their other contacts are detected too.
func (w *World) reactivate() {
	threshold := w.config.Bodies.VelocityThreshold
	thresholdSq := threshold * threshold
	detected := len(w.active)

	wake := func(frozen, other *actor.RigidBody) {
		if frozen == nil || other == nil || frozen.IsActive() || !other.IsActive() {
			return
		}
		if other.Velocity().LenSqr() <= thresholdSq {
			return
		}
		frozen.SetActive()
		w.active = append(w.active, frozen)
		w.logger().Debug("body woken by contact", "id", frozen.ID, "by", other.ID)
	}

	for _, ci := range w.functor.Infos {
		if !ci.Blocking {
			continue
		}
		b0, b1 := ci.SkinInfo.Skin0.Owner(), ci.SkinInfo.Skin1.Owner()
		wake(b0, b1)
		wake(b1, b0)
	}

	if len(w.active) == detected {
		return
	}

	// pairs with bodies already tested were all found, each woken pair is tested once
	tested := make(map[*actor.RigidBody]bool, len(w.active))
	for _, body := range w.active[:detected] {
		tested[body] = true
	}
	untested := func(_, other *collision.CollisionSkin) bool {
		owner := other.Owner()
		return owner == nil || !tested[owner]
	}
	for _, body := range w.active[detected:] {
		w.system.DetectCollisions(body, w.functor, untested, w.config.CollisionTolerance)
		tested[body] = true
	}
}

// Gravity is a shortcut for the configured gravity
func (w *World) Gravity() mgl64.Vec3 {
	return w.config.Gravity
}
