package geom

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Capsule is a segment swept by a sphere.
// The transform position is one end of the segment; the segment runs Length along local +Z.
type Capsule struct {
	transform Transform
	Length    float64
	Radius    float64
}

// NewCapsule creates a capsule starting at position, with its axis along orientation's Z column
func NewCapsule(position mgl64.Vec3, orientation mgl64.Mat3, length, radius float64) *Capsule {
	return &Capsule{
		transform: Transform{Position: position, Orientation: orientation},
		Length:    math.Abs(length),
		Radius:    math.Abs(radius),
	}
}

func (c *Capsule) primitive() {}

func (c *Capsule) Type() PrimitiveType { return PrimitiveTypeCapsule }

func (c *Capsule) Transform() Transform { return c.transform }

func (c *Capsule) SetTransform(transform Transform) { c.transform = transform }

func (c *Capsule) Clone() Primitive {
	clone := *c
	return &clone
}

// Axis returns the world unit direction of the capsule segment
func (c *Capsule) Axis() mgl64.Vec3 {
	return c.transform.Orientation.Col(2)
}

// Start returns the world position of the first end of the segment
func (c *Capsule) Start() mgl64.Vec3 {
	return c.transform.Position
}

// End returns the world position of the second end of the segment
func (c *Capsule) End() mgl64.Vec3 {
	return c.transform.Position.Add(c.Axis().Mul(c.Length))
}

// Segment returns the world core segment of the capsule
func (c *Capsule) Segment() Segment {
	return Segment{Origin: c.Start(), Delta: c.Axis().Mul(c.Length)}
}

// Centre returns the middle of the core segment
func (c *Capsule) Centre() mgl64.Vec3 {
	return c.transform.Position.Add(c.Axis().Mul(0.5 * c.Length))
}

func (c *Capsule) cylinderVolume() float64 {
	return math.Pi * c.Radius * c.Radius * c.Length
}

func (c *Capsule) sphereVolume() float64 {
	return (4.0 / 3.0) * math.Pi * c.Radius * c.Radius * c.Radius
}

func (c *Capsule) cylinderArea() float64 {
	return 2.0 * math.Pi * c.Radius * c.Length
}

func (c *Capsule) sphereArea() float64 {
	return 4.0 * math.Pi * c.Radius * c.Radius
}

func (c *Capsule) Volume() float64 {
	return c.cylinderVolume() + c.sphereVolume()
}

func (c *Capsule) SurfaceArea() float64 {
	return c.cylinderArea() + c.sphereArea()
}

// MassProperties splits the mass between the cylinder and the two caps, by volume for a
// solid capsule and by area for a shell, then sums their tensors about the centre.
func (c *Capsule) MassProperties(props PrimitiveProperties) (float64, mgl64.Vec3, mgl64.Mat3) {
	mass := massFromProperties(props, c.Volume(), c.SurfaceArea())
	centerOfMass := c.Centre()

	r2 := c.Radius * c.Radius
	l := c.Length

	var axial, perpendicular float64
	if props.MassDistribution == Solid {
		total := c.Volume()
		var cylMass, capsMass float64
		if total > Epsilon {
			cylMass = mass * c.cylinderVolume() / total
			capsMass = mass * c.sphereVolume() / total
		}
		axial = cylMass*r2/2 + capsMass*2*r2/5
		perpendicular = cylMass*(l*l/12+r2/4) + capsMass*(2*r2/5+l*l/4+3*l*c.Radius/8)
	} else {
		total := c.SurfaceArea()
		var cylMass, capsMass float64
		if total > Epsilon {
			cylMass = mass * c.cylinderArea() / total
			capsMass = mass * c.sphereArea() / total
		}
		axial = cylMass*r2 + capsMass*2*r2/3
		perpendicular = cylMass*(r2/2+l*l/12) + capsMass*(5*r2/12+(l+c.Radius)*(l+c.Radius)/4)
	}

	inertia := DiagonalTensor(perpendicular, perpendicular, axial)
	inertia = RotateTensor(c.transform.Orientation, inertia)
	inertia = TransferAxes(inertia, mass, centerOfMass)

	return mass, centerOfMass, inertia
}

func (c *Capsule) BoundingBox() AABB {
	r := mgl64.Vec3{c.Radius, c.Radius, c.Radius}
	box := EmptyAABB()
	box.AddPoint(c.Start().Sub(r))
	box.AddPoint(c.Start().Add(r))
	box.AddPoint(c.End().Sub(r))
	box.AddPoint(c.End().Add(r))
	return box
}

func (c *Capsule) SegmentIntersect(seg Segment) (SegmentHit, bool, error) {
	core := c.Segment()

	if d, _ := PointSegmentDistanceSq(seg.Origin, core); d <= c.Radius*c.Radius {
		return SegmentHit{Frac: 0, Position: seg.Origin, Normal: backNormal(seg)}, true, nil
	}

	best, found := math.Inf(1), false
	for _, centre := range [2]mgl64.Vec3{c.Start(), c.End()} {
		if t, ok := segmentSphere(seg, centre, c.Radius); ok && t < best {
			best, found = t, true
		}
	}
	if t, ok := segmentCylinder(seg, c.Start(), c.Axis(), c.Length, c.Radius); ok && t < best {
		best, found = t, true
	}
	if !found {
		return SegmentHit{}, false, nil
	}

	position := seg.PointAt(best)
	onAxis, _ := ClosestPointOnSegment(position, core)
	normal := position.Sub(onAxis)
	if normal.LenSqr() < Epsilon {
		normal = backNormal(seg)
	} else {
		normal = normal.Normalize()
	}

	return SegmentHit{Frac: best, Position: position, Normal: normal}, true, nil
}

// Support returns the world point of the capsule furthest along direction
func (c *Capsule) Support(direction mgl64.Vec3) mgl64.Vec3 {
	end := c.Start()
	if direction.Dot(c.Axis()) >= 0 {
		end = c.End()
	}
	if direction.LenSqr() < Epsilon {
		return end
	}
	return end.Add(direction.Normalize().Mul(c.Radius))
}

// ContactFeature returns the side edge of the capsule when direction is nearly
// perpendicular to its axis, the support point otherwise
func (c *Capsule) ContactFeature(direction mgl64.Vec3) []mgl64.Vec3 {
	if direction.LenSqr() < Epsilon {
		return []mgl64.Vec3{c.Support(direction)}
	}

	n := direction.Normalize()
	if math.Abs(n.Dot(c.Axis())) < 0.1 {
		offset := n.Mul(c.Radius)
		return []mgl64.Vec3{c.Start().Add(offset), c.End().Add(offset)}
	}

	return []mgl64.Vec3{c.Support(direction)}
}

// segmentCylinder intersects seg with the lateral surface of the cylinder of the given
// radius, based at base and extending length along the unit axis
func segmentCylinder(seg Segment, base, axis mgl64.Vec3, length, radius float64) (float64, bool) {
	m := seg.Origin.Sub(base)
	d := seg.Delta

	mPerp := m.Sub(axis.Mul(m.Dot(axis)))
	dPerp := d.Sub(axis.Mul(d.Dot(axis)))

	a := dPerp.Dot(dPerp)
	if a < Epsilon {
		return 0, false
	}
	b := mPerp.Dot(dPerp)
	c := mPerp.Dot(mPerp) - radius*radius

	disc := b*b - a*c
	if disc < 0 {
		return 0, false
	}

	t := (-b - math.Sqrt(disc)) / a
	if t < 0 || t > 1 {
		return 0, false
	}

	s := m.Add(d.Mul(t)).Dot(axis)
	if s < 0 || s > length {
		return 0, false
	}

	return t, true
}
