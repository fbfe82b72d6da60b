package mousepose

import (
	"fmt"
	"math"

	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/mat"

	"go.viam.com/rdk/pointcloud"
)

// Relative variance below which the cloud is treated as collinear or coincident.
const degenerateVarianceRatio = 1e-12

// AnalyzeGeometry computes the centroid and principal-axis frame of a point cloud.
func AnalyzeGeometry(cloud pointcloud.PointCloud) (*PrincipalAxisFrame, error) {
	if cloud == nil {
		return nil, ErrNilPointCloud
	}
	return AnalyzePoints(pointcloud.CloudToPoints(cloud))
}

// AnalyzePoints computes the centroid and principal-axis frame of a vertex array.
// Requires at least 4 non-degenerate points. Axes are unit length, mutually
// orthogonal, and ordered by descending variance, with the sign of each axis
// fixed so that its largest-magnitude component is positive. The split between
// the two minor axes is not unique when their variances coincide; either
// orthogonal pair is accepted.
func AnalyzePoints(points []r3.Vector) (*PrincipalAxisFrame, error) {
	if len(points) < 4 {
		return nil, fmt.Errorf("%w: need at least 4 points, got %d", ErrDegenerateGeometry, len(points))
	}

	centroid := meanPoint(points)

	// Covariance of the centered cloud.
	var cov [9]float64 // 3x3 row-major
	for _, pt := range points {
		dx := pt.X - centroid.X
		dy := pt.Y - centroid.Y
		dz := pt.Z - centroid.Z
		cov[0] += dx * dx
		cov[1] += dx * dy
		cov[2] += dx * dz
		cov[4] += dy * dy
		cov[5] += dy * dz
		cov[8] += dz * dz
	}
	n := float64(len(points))
	cov[3] = cov[1]
	cov[6] = cov[2]
	cov[7] = cov[5]
	for i := range cov {
		cov[i] /= n
	}

	covMat := mat.NewSymDense(3, cov[:])

	var eigen mat.EigenSym
	if ok := eigen.Factorize(covMat, true); !ok {
		return nil, fmt.Errorf("%w: eigendecomposition failed", ErrDegenerateGeometry)
	}

	vals := eigen.Values(nil)
	var vecs mat.Dense
	eigen.VectorsTo(&vecs)

	// Eigenvalues come back in ascending order; the frame wants descending.
	frame := &PrincipalAxisFrame{Centroid: centroid}
	for i := 0; i < 3; i++ {
		col := 2 - i
		frame.Variances[i] = vals[col]
		frame.Axes[i] = normalizeWithSign(r3.Vector{
			X: vecs.At(0, col),
			Y: vecs.At(1, col),
			Z: vecs.At(2, col),
		})
	}

	if frame.Variances[0] <= 0 || !isFinite(frame.Variances[0]) {
		return nil, fmt.Errorf("%w: all points coincident", ErrDegenerateGeometry)
	}
	if frame.Variances[1] <= frame.Variances[0]*degenerateVarianceRatio {
		return nil, fmt.Errorf("%w: points are collinear", ErrDegenerateGeometry)
	}

	return frame, nil
}

// meanPoint returns the arithmetic mean of a vertex array.
func meanPoint(points []r3.Vector) r3.Vector {
	var cx, cy, cz float64
	for _, pt := range points {
		cx += pt.X
		cy += pt.Y
		cz += pt.Z
	}
	n := float64(len(points))
	return r3.Vector{X: cx / n, Y: cy / n, Z: cz / n}
}

// normalizeWithSign scales v to unit length and flips it, if needed, so that
// its largest-magnitude component is positive. The flip makes repeated
// analyses of the same cloud return identical axes regardless of the
// eigensolver's arbitrary sign choice.
func normalizeWithSign(v r3.Vector) r3.Vector {
	norm := v.Norm()
	if norm < 1e-15 {
		return v
	}
	v = v.Mul(1.0 / norm)

	dominant := v.X
	if math.Abs(v.Y) > math.Abs(dominant) {
		dominant = v.Y
	}
	if math.Abs(v.Z) > math.Abs(dominant) {
		dominant = v.Z
	}
	if dominant < 0 {
		return v.Mul(-1)
	}
	return v
}

// projectOntoAxis returns the signed projection of each point, relative to
// origin, onto the unit axis.
func projectOntoAxis(points []r3.Vector, origin, axis r3.Vector) []float64 {
	out := make([]float64, len(points))
	for i, pt := range points {
		out[i] = pt.Sub(origin).Dot(axis)
	}
	return out
}

// boundingBoxDiagonal returns the length of the axis-aligned bounding box
// diagonal of a vertex array.
func boundingBoxDiagonal(points []r3.Vector) float64 {
	if len(points) == 0 {
		return 0
	}
	min := points[0]
	max := points[0]
	for _, pt := range points[1:] {
		min.X = math.Min(min.X, pt.X)
		min.Y = math.Min(min.Y, pt.Y)
		min.Z = math.Min(min.Z, pt.Z)
		max.X = math.Max(max.X, pt.X)
		max.Y = math.Max(max.Y, pt.Y)
		max.Z = math.Max(max.Z, pt.Z)
	}
	return max.Sub(min).Norm()
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
