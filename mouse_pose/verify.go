package mousepose

import (
	"fmt"
	"math"

	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/mat"
)

// VerifyAlignment applies the transform to the landmark set and reports the
// angular deviation of the transformed anatomical axes from their canonical
// targets. Axis alignment is undirected: a 180-degree-flipped axis reads as a
// small error, not a large one. The ear error is nil when the landmark set has
// no ears and does not count toward the overall error.
func VerifyAlignment(landmarks *LandmarkSet, m *mat.Dense, params GeometryParameters) (*AlignmentResult, error) {
	if landmarks == nil {
		return nil, fmt.Errorf("%w: nil landmark set", ErrZeroVector)
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}

	transformed, err := ApplyTransform(m, []r3.Vector{landmarks.Nose, landmarks.TailTip})
	if err != nil {
		return nil, err
	}

	noseTailTarget, err := params.NoseTailAxis.Vector()
	if err != nil {
		return nil, err
	}
	noseTailErr, err := angularErrorDeg(transformed[1].Sub(transformed[0]), noseTailTarget)
	if err != nil {
		return nil, fmt.Errorf("nose-tail axis: %w", err)
	}

	result := &AlignmentResult{
		Transform:        m,
		NoseTailErrorDeg: noseTailErr,
		OverallErrorDeg:  noseTailErr,
	}

	if landmarks.HasEars() {
		ears, err := ApplyTransform(m, []r3.Vector{*landmarks.LeftEar, *landmarks.RightEar})
		if err != nil {
			return nil, err
		}
		earTarget, err := params.EarAxis.Vector()
		if err != nil {
			return nil, err
		}
		earErr, err := angularErrorDeg(ears[1].Sub(ears[0]), earTarget)
		if err != nil {
			return nil, fmt.Errorf("ear axis: %w", err)
		}
		result.EarErrorDeg = &earErr
		if earErr > result.OverallErrorDeg {
			result.OverallErrorDeg = earErr
		}
	}

	result.IsValid = result.OverallErrorDeg <= params.AlignmentToleranceDeg
	return result, nil
}

// angularErrorDeg returns the undirected angle, in degrees, between v and the
// unit target axis.
func angularErrorDeg(v, target r3.Vector) (float64, error) {
	norm := v.Norm()
	if norm < 1e-15 {
		return 0, ErrZeroVector
	}
	dot := clamp(v.Dot(target)/norm, -1, 1)
	return math.Acos(math.Abs(dot)) * 180 / math.Pi, nil
}
