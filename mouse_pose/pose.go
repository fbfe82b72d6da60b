package mousepose

import (
	"fmt"
	"math"

	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/mat"

	"go.viam.com/rdk/spatialmath"
)

// PoseFromTransform converts a rotation(+uniform scale) homogeneous transform
// into a spatialmath.Pose for consumers of the instrument's spatial APIs. The
// uniform scale is divided out of the rotation block; the translation column
// is carried through unchanged.
func PoseFromTransform(m *mat.Dense) (spatialmath.Pose, error) {
	if err := checkTransform(m); err != nil {
		return nil, err
	}

	// Column norms of a scaled rotation block all equal the scale factor.
	scale := math.Sqrt(m.At(0, 0)*m.At(0, 0) + m.At(1, 0)*m.At(1, 0) + m.At(2, 0)*m.At(2, 0))
	if scale < 1e-15 {
		return nil, fmt.Errorf("%w: zero rotation block", ErrSingularTransform)
	}

	rot := make([]float64, 0, 9)
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			rot = append(rot, m.At(i, j)/scale)
		}
	}
	rm, err := spatialmath.NewRotationMatrix(rot)
	if err != nil {
		return nil, err
	}

	translation := r3.Vector{X: m.At(0, 3), Y: m.At(1, 3), Z: m.At(2, 3)}
	return spatialmath.NewPose(translation, rm), nil
}
