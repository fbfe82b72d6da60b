package mousepose

import (
	"fmt"
	"math"

	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/mat"
)

// Dot-product threshold past which two unit vectors are treated as (anti)parallel.
const parallelTolerance = 1e-9

// RotationBetween computes the 4x4 homogeneous rotation that maps the
// direction of from onto the direction of to, using the Rodrigues axis-angle
// construction. Both inputs must be non-zero; they are normalized internally.
func RotationBetween(from, to r3.Vector) (*mat.Dense, error) {
	fromNorm := from.Norm()
	toNorm := to.Norm()
	if fromNorm < 1e-15 || toNorm < 1e-15 {
		return nil, fmt.Errorf("%w: cannot build rotation", ErrZeroVector)
	}
	f := from.Mul(1.0 / fromNorm)
	t := to.Mul(1.0 / toNorm)

	cosTheta := f.Dot(t)
	switch {
	case cosTheta >= 1-parallelTolerance:
		return identity4(), nil

	case cosTheta <= -1+parallelTolerance:
		// Antiparallel: rotate 180 degrees about any axis perpendicular to f.
		perp := r3.Vector{X: 1}
		if math.Abs(f.X) >= 0.9 {
			perp = r3.Vector{Y: 1}
		}
		axis := f.Cross(perp)
		axis = axis.Mul(1.0 / axis.Norm())
		// R = I + 2K² for theta = pi.
		k := skewSymmetric(axis)
		var k2 mat.Dense
		k2.Mul(k, k)
		return embedRotation(func(i, j int) float64 {
			return eye(i, j) + 2*k2.At(i, j)
		}), nil

	default:
		axis := f.Cross(t)
		axis = axis.Mul(1.0 / axis.Norm())
		theta := math.Acos(clamp(cosTheta, -1, 1))

		k := skewSymmetric(axis)
		var k2 mat.Dense
		k2.Mul(k, k)
		sin, cos := math.Sin(theta), math.Cos(theta)
		return embedRotation(func(i, j int) float64 {
			return eye(i, j) + sin*k.At(i, j) + (1-cos)*k2.At(i, j)
		}), nil
	}
}

// AlignmentMatrix computes the transform that carries the landmark set's
// nose→tail direction onto the canonical axis named by params, composed with a
// uniform scale. Scale applies before rotation: combined = rotation · scale.
func AlignmentMatrix(landmarks *LandmarkSet, params GeometryParameters) (*mat.Dense, error) {
	if landmarks == nil {
		return nil, fmt.Errorf("%w: nil landmark set", ErrZeroVector)
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}

	noseTail := landmarks.NoseTailVector()
	if noseTail.Norm() < 1e-15 {
		return nil, fmt.Errorf("%w: nose and tail coincide", ErrZeroVector)
	}

	target, err := params.NoseTailAxis.Vector()
	if err != nil {
		return nil, err
	}

	rotation, err := RotationBetween(noseTail, target)
	if err != nil {
		return nil, err
	}

	scale := scaleMatrix(params.ScaleFactor)
	var combined mat.Dense
	combined.Mul(rotation, scale)
	return &combined, nil
}

// ApplyTransform applies a 4x4 homogeneous transform to each point. Fails with
// ErrSingularTransform when any transformed point has a zero w coordinate, and
// with ErrNonFiniteValue when the matrix contains NaN or Inf entries.
func ApplyTransform(m *mat.Dense, points []r3.Vector) ([]r3.Vector, error) {
	if err := checkTransform(m); err != nil {
		return nil, err
	}

	out := make([]r3.Vector, len(points))
	for i, pt := range points {
		transformed, err := applyToPoint(m, pt)
		if err != nil {
			return nil, err
		}
		out[i] = transformed
	}
	return out, nil
}

// ApplyToPoint applies a 4x4 homogeneous transform to a single point.
func ApplyToPoint(m *mat.Dense, pt r3.Vector) (r3.Vector, error) {
	if err := checkTransform(m); err != nil {
		return r3.Vector{}, err
	}
	return applyToPoint(m, pt)
}

func applyToPoint(m *mat.Dense, pt r3.Vector) (r3.Vector, error) {
	h := [4]float64{pt.X, pt.Y, pt.Z, 1}
	var result [4]float64
	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			result[i] += m.At(i, j) * h[j]
		}
	}
	if result[3] == 0 {
		return r3.Vector{}, fmt.Errorf("%w: zero homogeneous coordinate for point %v", ErrSingularTransform, pt)
	}
	return r3.Vector{
		X: result[0] / result[3],
		Y: result[1] / result[3],
		Z: result[2] / result[3],
	}, nil
}

func checkTransform(m *mat.Dense) error {
	if m == nil {
		return fmt.Errorf("%w: nil matrix", ErrNonFiniteValue)
	}
	r, c := m.Dims()
	if r != 4 || c != 4 {
		return fmt.Errorf("%w: expected 4x4 matrix, got %dx%d", ErrNonFiniteValue, r, c)
	}
	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			if !isFinite(m.At(i, j)) {
				return fmt.Errorf("%w: entry (%d,%d)", ErrNonFiniteValue, i, j)
			}
		}
	}
	return nil
}

// skewSymmetric returns the 3x3 cross-product matrix K such that K·v = axis × v.
func skewSymmetric(axis r3.Vector) *mat.Dense {
	return mat.NewDense(3, 3, []float64{
		0, -axis.Z, axis.Y,
		axis.Z, 0, -axis.X,
		-axis.Y, axis.X, 0,
	})
}

// embedRotation builds a 4x4 homogeneous matrix whose upper-left 3x3 block is
// given elementwise by rot.
func embedRotation(rot func(i, j int) float64) *mat.Dense {
	m := identity4()
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			m.Set(i, j, rot(i, j))
		}
	}
	return m
}

func identity4() *mat.Dense {
	m := mat.NewDense(4, 4, nil)
	for i := 0; i < 4; i++ {
		m.Set(i, i, 1)
	}
	return m
}

func scaleMatrix(factor float64) *mat.Dense {
	m := identity4()
	for i := 0; i < 3; i++ {
		m.Set(i, i, factor)
	}
	return m
}

func eye(i, j int) float64 {
	if i == j {
		return 1
	}
	return 0
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
