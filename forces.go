package quill

import (
	"sync"

	"github.com/akmonengine/quill/actor"
	"github.com/go-gl/mathgl/mgl64"
)

// Frame tells in which coordinate system a queued force or torque is expressed
type Frame uint8

const (
	WorldFrame Frame = iota
	BodyFrame
)

type queuedForce struct {
	body   *actor.RigidBody
	force  mgl64.Vec3
	torque mgl64.Vec3
	frame  Frame
}

func (f queuedForce) apply() {
	switch f.frame {
	case BodyFrame:
		if f.force != (mgl64.Vec3{}) {
			f.body.AddBodyForce(f.force)
		}
		if f.torque != (mgl64.Vec3{}) {
			f.body.AddBodyTorque(f.torque)
		}
	default:
		if f.force != (mgl64.Vec3{}) {
			f.body.AddWorldForce(f.force)
		}
		if f.torque != (mgl64.Vec3{}) {
			f.body.AddWorldTorque(f.torque)
		}
	}
}

// forceQueue collects forces from any goroutine until the next step drains it
type forceQueue struct {
	mu      sync.Mutex
	pending []queuedForce
	drained []queuedForce
}

func (q *forceQueue) push(f queuedForce) {
	if f.body == nil {
		return
	}
	q.mu.Lock()
	q.pending = append(q.pending, f)
	q.mu.Unlock()
}

// drain returns the queued forces, valid until the next drain
func (q *forceQueue) drain() []queuedForce {
	q.mu.Lock()
	defer q.mu.Unlock()

	clear(q.drained)
	q.pending, q.drained = q.drained[:0], q.pending
	return q.drained
}

func (q *forceQueue) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

// QueueForce adds force to body at the start of the next step, through its centre of mass.
// It is safe to call while another goroutine steps the world. A nil body is ignored.
func (w *World) QueueForce(body *actor.RigidBody, force mgl64.Vec3, frame Frame) {
	w.forces.push(queuedForce{body: body, force: force, frame: frame})
}

// QueueTorque adds torque to body at the start of the next step
func (w *World) QueueTorque(body *actor.RigidBody, torque mgl64.Vec3, frame Frame) {
	w.forces.push(queuedForce{body: body, torque: torque, frame: frame})
}

// PendingForces returns the number of forces and torques waiting for the next step
func (w *World) PendingForces() int {
	return w.forces.len()
}
