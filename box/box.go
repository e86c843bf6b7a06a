// Package box implements the periodic, possibly triclinic simulation cell
// that defines the coordinate metric for neighbor queries.
//
// A Box converts between Cartesian and fractional coordinates, wraps
// positions into the primary cell, and computes minimum-image displacements.
// Boxes are immutable after construction and safe for concurrent use.
package box

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// ErrInvalidBox indicates a box construction with non-positive edge lengths
// or a 2D box that violates the planar constraints.
type ErrInvalidBox struct {
	Lx, Ly, Lz float32
	Reason     string
}

// Error returns the error message for an invalid box.
func (e *ErrInvalidBox) Error() string {
	return fmt.Sprintf("invalid box (%g, %g, %g): %s", e.Lx, e.Ly, e.Lz, e.Reason)
}

// Options contains configuration options for a box.
type Options struct {
	// TiltXY, TiltXZ and TiltYZ are the dimensionless triclinic tilt factors.
	// All zero yields an orthorhombic box.
	TiltXY float32
	TiltXZ float32
	TiltYZ float32

	// Periodic enables periodic boundary conditions per axis.
	Periodic [3]bool
}

// Box is a periodic/triclinic unit cell. The cell matrix has columns
//
//	a1 = (Lx,       0,      0)
//	a2 = (xy*Ly,    Ly,     0)
//	a3 = (xz*Lz, yz*Lz,    Lz)
//
// so fractional coordinates f map to Cartesian v = a1*f.x + a2*f.y + a3*f.z.
type Box struct {
	l        mgl32.Vec3
	xy       float32
	xz       float32
	yz       float32
	periodic [3]bool
	is2D     bool
}

// New creates a 3D box with the given edge lengths.
// All axes default to periodic.
func New(lx, ly, lz float32, optFns ...func(o *Options)) (*Box, error) {
	opts := Options{Periodic: [3]bool{true, true, true}}

	for _, fn := range optFns {
		fn(&opts)
	}

	if lx <= 0 || ly <= 0 || lz <= 0 {
		return nil, &ErrInvalidBox{Lx: lx, Ly: ly, Lz: lz, Reason: "edge lengths must be positive"}
	}

	return &Box{
		l:        mgl32.Vec3{lx, ly, lz},
		xy:       opts.TiltXY,
		xz:       opts.TiltXZ,
		yz:       opts.TiltYZ,
		periodic: opts.Periodic,
	}, nil
}

// New2D creates a 2D box with the given edge lengths. The third axis has zero
// length and is never periodic; the xz and yz tilts are forced to zero.
func New2D(lx, ly float32, optFns ...func(o *Options)) (*Box, error) {
	opts := Options{Periodic: [3]bool{true, true, false}}

	for _, fn := range optFns {
		fn(&opts)
	}

	if lx <= 0 || ly <= 0 {
		return nil, &ErrInvalidBox{Lx: lx, Ly: ly, Reason: "edge lengths must be positive"}
	}

	if opts.TiltXZ != 0 || opts.TiltYZ != 0 {
		return nil, &ErrInvalidBox{Lx: lx, Ly: ly, Reason: "2D box cannot have xz or yz tilt"}
	}

	return &Box{
		l:        mgl32.Vec3{lx, ly, 0},
		xy:       opts.TiltXY,
		periodic: [3]bool{opts.Periodic[0], opts.Periodic[1], false},
		is2D:     true,
	}, nil
}

// Is2D reports whether the box is two-dimensional.
func (b *Box) Is2D() bool { return b.is2D }

// Dim returns the dimensionality of the box (2 or 3).
func (b *Box) Dim() int {
	if b.is2D {
		return 2
	}
	return 3
}

// Lengths returns the edge lengths (Lz is 0 for a 2D box).
func (b *Box) Lengths() mgl32.Vec3 { return b.l }

// Tilts returns the xy, xz and yz tilt factors.
func (b *Box) Tilts() (xy, xz, yz float32) { return b.xy, b.xz, b.yz }

// Periodic returns the per-axis periodicity flags.
func (b *Box) Periodic() [3]bool { return b.periodic }

// Tilted reports whether any tilt factor is nonzero.
func (b *Box) Tilted() bool { return b.xy != 0 || b.xz != 0 || b.yz != 0 }

// Volume returns the box volume (area for 2D boxes). Tilts are
// volume-preserving shears and do not contribute.
func (b *Box) Volume() float32 {
	if b.is2D {
		return b.l.X() * b.l.Y()
	}
	return b.l.X() * b.l.Y() * b.l.Z()
}

// String returns a human-readable description of the box.
func (b *Box) String() string {
	return fmt.Sprintf("Box(L=(%g, %g, %g), tilt=(%g, %g, %g), periodic=%v, 2D=%v)",
		b.l.X(), b.l.Y(), b.l.Z(), b.xy, b.xz, b.yz, b.periodic, b.is2D)
}

// LatticeVectors returns the columns of the cell matrix.
// a3 is the zero vector for 2D boxes.
func (b *Box) LatticeVectors() (a1, a2, a3 mgl32.Vec3) {
	a1 = mgl32.Vec3{b.l.X(), 0, 0}
	a2 = mgl32.Vec3{b.xy * b.l.Y(), b.l.Y(), 0}
	a3 = mgl32.Vec3{b.xz * b.l.Z(), b.yz * b.l.Z(), b.l.Z()}
	return a1, a2, a3
}

// Fraction converts a Cartesian position to fractional coordinates via the
// inverse shear transform. The z component is 0 for 2D boxes.
func (b *Box) Fraction(v mgl32.Vec3) mgl32.Vec3 {
	var fz float32
	if !b.is2D {
		fz = v.Z() / b.l.Z()
	}
	fy := (v.Y() - b.yz*b.l.Z()*fz) / b.l.Y()
	fx := (v.X() - b.xy*b.l.Y()*fy - b.xz*b.l.Z()*fz) / b.l.X()
	return mgl32.Vec3{fx, fy, fz}
}

// Absolute converts fractional coordinates back to a Cartesian position.
func (b *Box) Absolute(f mgl32.Vec3) mgl32.Vec3 {
	z := b.l.Z() * f.Z()
	y := b.l.Y()*f.Y() + b.yz*z
	x := b.l.X()*f.X() + b.xy*b.l.Y()*f.Y() + b.xz*z
	return mgl32.Vec3{x, y, z}
}

// Wrap folds a position into the primary cell. Only periodic axes are
// wrapped; non-periodic fractional components pass through unmodified.
func (b *Box) Wrap(v mgl32.Vec3) mgl32.Vec3 {
	f := b.Fraction(v)
	for i := 0; i < 3; i++ {
		if b.periodic[i] {
			f[i] -= float32(math.Floor(float64(f[i])))
		}
	}
	return b.Absolute(f)
}

// MinImage returns the minimum-image displacement from one position to
// another and its Euclidean norm. The displacement points from `from` to
// `to`.
//
// For orthorhombic boxes the [-0.5, 0.5) fractional fold is the exact
// minimum image. For tilted boxes that single-image shortcut can pick a
// non-minimal image when the displacement approaches the interplanar
// spacing, so the full 3^d stencil of periodic translations is scanned.
func (b *Box) MinImage(from, to mgl32.Vec3) (mgl32.Vec3, float32) {
	df := b.Fraction(to).Sub(b.Fraction(from))
	for i := 0; i < 3; i++ {
		if b.periodic[i] {
			df[i] -= float32(math.Floor(float64(df[i]) + 0.5))
		}
	}
	delta := b.Absolute(df)

	if !b.Tilted() {
		return delta, delta.Len()
	}
	return b.imageStencilMin(delta)
}

// imageStencilMin scans the periodic translations of delta within one image
// in every periodic direction and returns the shortest candidate.
func (b *Box) imageStencilMin(delta mgl32.Vec3) (mgl32.Vec3, float32) {
	a1, a2, a3 := b.LatticeVectors()

	lo, hi := [3]int{0, 0, 0}, [3]int{0, 0, 0}
	for i := 0; i < 3; i++ {
		if b.periodic[i] {
			lo[i], hi[i] = -1, 1
		}
	}

	best := delta
	bestLen2 := delta.LenSqr()
	for iz := lo[2]; iz <= hi[2]; iz++ {
		for iy := lo[1]; iy <= hi[1]; iy++ {
			for ix := lo[0]; ix <= hi[0]; ix++ {
				cand := delta.
					Add(a1.Mul(float32(ix))).
					Add(a2.Mul(float32(iy))).
					Add(a3.Mul(float32(iz)))
				if l2 := cand.LenSqr(); l2 < bestLen2 {
					best, bestLen2 = cand, l2
				}
			}
		}
	}
	return best, float32(math.Sqrt(float64(bestLen2)))
}

// PlaneSpacings returns the perpendicular distance between opposing box
// faces along each axis. For orthorhombic boxes these equal the edge
// lengths; shear shrinks them. The z spacing is 0 for 2D boxes.
//
// These spacings, not the edge lengths, bound how far a cell grid axis can
// be subdivided while still covering a given search radius.
func (b *Box) PlaneSpacings() [3]float32 {
	a1, a2, a3 := b.LatticeVectors()

	if b.is2D {
		area := b.Volume()
		return [3]float32{area / a2.Len(), area / a1.Len(), 0}
	}

	vol := b.Volume()
	return [3]float32{
		vol / a2.Cross(a3).Len(),
		vol / a3.Cross(a1).Len(),
		vol / a1.Cross(a2).Len(),
	}
}
