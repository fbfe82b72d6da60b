package mousepose

import (
	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/mat"
)

// Landmark identifies an anatomical feature on a mouse model.
type Landmark int

const (
	// LandmarkNose is the tip of the snout.
	LandmarkNose Landmark = iota
	// LandmarkTailTip is the distal end of the tail.
	LandmarkTailTip
	// LandmarkTailAttachment is the point where the tail joins the body.
	LandmarkTailAttachment
	// LandmarkLeftEar is the left lateral head extremum.
	LandmarkLeftEar
	// LandmarkRightEar is the right lateral head extremum.
	LandmarkRightEar
	// LandmarkEyeCenter is derived from the nose and ear midpoint.
	LandmarkEyeCenter
)

func (l Landmark) String() string {
	switch l {
	case LandmarkNose:
		return "nose"
	case LandmarkTailTip:
		return "tail_tip"
	case LandmarkTailAttachment:
		return "tail_attachment"
	case LandmarkLeftEar:
		return "left_ear"
	case LandmarkRightEar:
		return "right_ear"
	case LandmarkEyeCenter:
		return "eye_center"
	default:
		return "unknown"
	}
}

// DetectionMethod describes which strategy produced a landmark set.
type DetectionMethod int

const (
	// MethodDensity is the cross-sectional density sweep along the primary axis.
	MethodDensity DetectionMethod = iota
	// MethodExtremes is the global projection-extremes fallback.
	MethodExtremes
)

func (m DetectionMethod) String() string {
	switch m {
	case MethodDensity:
		return "density_analysis"
	case MethodExtremes:
		return "projection_extremes"
	default:
		return "unknown"
	}
}

// PrincipalAxisFrame is the intrinsic frame of a point cloud: its centroid and
// orthonormal principal axes ordered by descending variance. Axes[0] is the
// primary (longest) body axis.
type PrincipalAxisFrame struct {
	Centroid  r3.Vector
	Axes      [3]r3.Vector
	Variances [3]float64
}

// Primary returns the axis of greatest positional variance.
func (f *PrincipalAxisFrame) Primary() r3.Vector {
	return f.Axes[0]
}

// Secondary returns the axis of second-greatest variance (the lateral axis).
func (f *PrincipalAxisFrame) Secondary() r3.Vector {
	return f.Axes[1]
}

// LandmarkSet holds detected anatomical landmark positions. Nose, tail tip,
// and tail attachment are always present. Ears and the derived eye center are
// best-effort and nil when the bilateral refinement could not place them.
type LandmarkSet struct {
	Nose           r3.Vector
	TailTip        r3.Vector
	TailAttachment r3.Vector
	LeftEar        *r3.Vector
	RightEar       *r3.Vector
	EyeCenter      *r3.Vector

	// Method records which detection strategy ran; Confidence is that
	// strategy's self-assessed reliability in [0, 1].
	Method     DetectionMethod
	Confidence float64
}

// HasEars reports whether both bilateral landmarks were placed.
func (ls *LandmarkSet) HasEars() bool {
	return ls.LeftEar != nil && ls.RightEar != nil
}

// NoseTailVector is the direction from the nose toward the tail tip.
func (ls *LandmarkSet) NoseTailVector() r3.Vector {
	return ls.TailTip.Sub(ls.Nose)
}

// EarVector is the direction from the left ear toward the right ear.
// The second return is false when either ear is absent.
func (ls *LandmarkSet) EarVector() (r3.Vector, bool) {
	if !ls.HasEars() {
		return r3.Vector{}, false
	}
	return ls.RightEar.Sub(*ls.LeftEar), true
}

// Landmarks returns every present landmark keyed by identifier.
func (ls *LandmarkSet) Landmarks() map[Landmark]r3.Vector {
	out := map[Landmark]r3.Vector{
		LandmarkNose:           ls.Nose,
		LandmarkTailTip:        ls.TailTip,
		LandmarkTailAttachment: ls.TailAttachment,
	}
	if ls.LeftEar != nil {
		out[LandmarkLeftEar] = *ls.LeftEar
	}
	if ls.RightEar != nil {
		out[LandmarkRightEar] = *ls.RightEar
	}
	if ls.EyeCenter != nil {
		out[LandmarkEyeCenter] = *ls.EyeCenter
	}
	return out
}

// AlignmentResult is the output of alignment verification. EarErrorDeg is nil
// when the landmark set has no ears; an absent ear error does not count toward
// OverallErrorDeg.
type AlignmentResult struct {
	Transform        *mat.Dense
	NoseTailErrorDeg float64
	EarErrorDeg      *float64
	OverallErrorDeg  float64
	IsValid          bool
}

// Axis names a canonical world axis.
type Axis string

const (
	AxisX Axis = "x"
	AxisY Axis = "y"
	AxisZ Axis = "z"
)

// Vector returns the unit vector for the named axis.
func (a Axis) Vector() (r3.Vector, error) {
	switch a {
	case AxisX:
		return r3.Vector{X: 1}, nil
	case AxisY:
		return r3.Vector{Y: 1}, nil
	case AxisZ:
		return r3.Vector{Z: 1}, nil
	default:
		return r3.Vector{}, ErrInvalidAxis
	}
}

// GeometryParameters selects the canonical target axes, the uniform scale, and
// the acceptable residual angular error for an alignment.
type GeometryParameters struct {
	ScaleFactor           float64 // Uniform scale applied before rotation
	AlignmentToleranceDeg float64 // Max acceptable angular error, in (0, 5]
	NoseTailAxis          Axis    // Canonical axis for the nose→tail direction
	EarAxis               Axis    // Canonical axis for the left→right ear direction
}

// DefaultParameters returns the standard imaging-frame parameters.
func DefaultParameters() GeometryParameters {
	return GeometryParameters{
		ScaleFactor:           8.0,
		AlignmentToleranceDeg: 0.5,
		NoseTailAxis:          AxisY,
		EarAxis:               AxisX,
	}
}

// Validate checks parameter ranges eagerly so that faults surface before any
// geometry work starts.
func (p GeometryParameters) Validate() error {
	if !(p.ScaleFactor > 0) {
		return errInvalidParameterf("scale_factor must be positive, got %v", p.ScaleFactor)
	}
	if !(p.AlignmentToleranceDeg > 0) || p.AlignmentToleranceDeg > 5 {
		return errInvalidParameterf("alignment_tolerance must be in (0, 5], got %v", p.AlignmentToleranceDeg)
	}
	if _, err := p.NoseTailAxis.Vector(); err != nil {
		return errInvalidParameterf("nose_tail_axis %q: %v", p.NoseTailAxis, err)
	}
	if _, err := p.EarAxis.Vector(); err != nil {
		return errInvalidParameterf("ear_alignment_axis %q: %v", p.EarAxis, err)
	}
	return nil
}
