package geom

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// MassDistribution selects whether mass lives in the volume or on the surface of a primitive
type MassDistribution int

const (
	// Solid distributes the mass over the whole volume
	Solid MassDistribution = iota
	// Shell distributes the mass over the surface only
	Shell
)

func (d MassDistribution) String() string {
	switch d {
	case Solid:
		return "solid"
	case Shell:
		return "shell"
	}
	return "unknown"
}

// MassType tells how PrimitiveProperties.MassOrDensity must be read
type MassType int

const (
	// MassTypeMass means MassOrDensity is the total mass
	MassTypeMass MassType = iota
	// MassTypeDensity means MassOrDensity is a density, per volume (Solid) or per area (Shell)
	MassTypeDensity
)

// PrimitiveProperties drives the mass computation of a primitive
type PrimitiveProperties struct {
	MassDistribution MassDistribution
	MassType         MassType
	MassOrDensity    float64
}

// NewPrimitiveProperties creates the properties for a primitive
func NewPrimitiveProperties(distribution MassDistribution, massType MassType, massOrDensity float64) PrimitiveProperties {
	return PrimitiveProperties{
		MassDistribution: distribution,
		MassType:         massType,
		MassOrDensity:    massOrDensity,
	}
}

// massFromProperties resolves the total mass of a primitive of the given volume and area
func massFromProperties(props PrimitiveProperties, volume, area float64) float64 {
	if props.MassType == MassTypeMass {
		return props.MassOrDensity
	}
	if props.MassDistribution == Solid {
		return props.MassOrDensity * volume
	}
	return props.MassOrDensity * area
}

// RotateTensor expresses a body-frame inertia tensor in world-aligned axes.
// With world = O * local, the similarity transform is O * I * Oᵗ.
func RotateTensor(orientation, inertia mgl64.Mat3) mgl64.Mat3 {
	return orientation.Mul3(inertia).Mul3(orientation.Transpose())
}

// TransferAxes applies the parallel-axis theorem: shifts an inertia tensor
// expressed about the centre of mass to a point located at -offset from it
// (i.e. offset is the centre of mass position relative to the new reference point).
func TransferAxes(inertia mgl64.Mat3, mass float64, offset mgl64.Vec3) mgl64.Mat3 {
	x, y, z := offset.X(), offset.Y(), offset.Z()

	shift := mgl64.Mat3{
		y*y + z*z, -x * y, -x * z,
		-x * y, x*x + z*z, -y * z,
		-x * z, -y * z, x*x + y*y,
	}

	return inertia.Add(shift.Mul(mass))
}

// InverseTransferAxes is the opposite of TransferAxes: it brings an inertia tensor
// about a reference point back to the centre of mass located at offset.
func InverseTransferAxes(inertia mgl64.Mat3, mass float64, offset mgl64.Vec3) mgl64.Mat3 {
	return TransferAxes(inertia, -mass, offset)
}

// DiagonalTensor builds a diagonal inertia tensor
func DiagonalTensor(ix, iy, iz float64) mgl64.Mat3 {
	return mgl64.Mat3{
		ix, 0, 0,
		0, iy, 0,
		0, 0, iz,
	}
}

// masslessProperties are the mass properties of static geometry: no mass, a centre at
// the origin and an identity inertia
func masslessProperties() (float64, mgl64.Vec3, mgl64.Mat3) {
	return 0, mgl64.Vec3{}, mgl64.Ident3()
}

// SafeInverse inverts a tensor, returning the zero matrix for a singular input.
// Singularity is judged relative to the largest diagonal entry, not in absolute terms.
func SafeInverse(m mgl64.Mat3) mgl64.Mat3 {
	scale := max(math.Abs(m.At(0, 0)), math.Abs(m.At(1, 1)), math.Abs(m.At(2, 2)))
	if scale == 0 {
		return mgl64.Mat3{}
	}
	if math.Abs(m.Det()) < Epsilon*scale*scale*scale {
		return mgl64.Mat3{}
	}
	return m.Inv()
}
