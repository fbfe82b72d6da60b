package mousepose

import (
	"errors"
	"fmt"
)

var (
	// ErrDegenerateGeometry is returned when a point cloud has too few points
	// or no well-defined principal axes (coincident or collinear points).
	ErrDegenerateGeometry = errors.New("degenerate geometry")

	// ErrTooFewPoints is returned when a point cloud has insufficient points for an operation.
	ErrTooFewPoints = errors.New("too few points for operation")

	// ErrNilPointCloud is returned when a nil point cloud is passed.
	ErrNilPointCloud = errors.New("point cloud is nil")

	// ErrZeroVector is returned when a direction is required but the vector has zero length.
	ErrZeroVector = errors.New("zero-length vector has no direction")

	// ErrSingularTransform is returned when a homogeneous transform produces a
	// zero w coordinate for some point.
	ErrSingularTransform = errors.New("singular transform")

	// ErrInvalidAxis is returned for axis names other than x, y, or z.
	ErrInvalidAxis = errors.New("axis must be one of x, y, z")

	// ErrNonFiniteValue is returned when a matrix contains NaN or Inf entries.
	ErrNonFiniteValue = errors.New("non-finite value in transform")

	// ErrInvalidParameter is returned for out-of-range geometry parameters.
	ErrInvalidParameter = errors.New("invalid geometry parameter")
)

func errInvalidParameterf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidParameter, fmt.Sprintf(format, args...))
}
