package mousepose

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/golang/geo/r3"

	"go.viam.com/rdk/pointcloud"
)

// ellipsoidCloud generates a seeded random cloud with the given axis extents,
// so the principal axes are known in advance.
func ellipsoidCloud(seed int64, n int, ex, ey, ez float64) []r3.Vector {
	//nolint:gosec
	rng := rand.New(rand.NewSource(seed))
	points := make([]r3.Vector, n)
	for i := range points {
		points[i] = r3.Vector{
			X: rng.NormFloat64() * ex,
			Y: rng.NormFloat64() * ey,
			Z: rng.NormFloat64() * ez,
		}
	}
	return points
}

func TestAnalyzePoints_Orthonormal(t *testing.T) {
	points := ellipsoidCloud(42, 2000, 10, 3, 1)

	frame, err := AnalyzePoints(points)
	if err != nil {
		t.Fatalf("AnalyzePoints failed: %v", err)
	}

	for i := 0; i < 3; i++ {
		if diff := math.Abs(frame.Axes[i].Norm() - 1); diff > 1e-6 {
			t.Errorf("axis %d not unit length: |norm-1| = %g", i, diff)
		}
		for j := i + 1; j < 3; j++ {
			if dot := math.Abs(frame.Axes[i].Dot(frame.Axes[j])); dot > 1e-6 {
				t.Errorf("axes %d and %d not orthogonal: |dot| = %g", i, j, dot)
			}
		}
	}

	if frame.Variances[0] < frame.Variances[1] || frame.Variances[1] < frame.Variances[2] {
		t.Errorf("variances not in descending order: %v", frame.Variances)
	}

	// The cloud is elongated along X, so the primary axis must be near ±X;
	// the sign convention makes it +X.
	if math.Abs(frame.Axes[0].X) < 0.99 {
		t.Errorf("primary axis should be near X, got %v", frame.Axes[0])
	}
	if frame.Axes[0].X < 0 {
		t.Errorf("sign convention violated: dominant component negative, axis %v", frame.Axes[0])
	}

	t.Logf("centroid=%v variances=%v", frame.Centroid, frame.Variances)
}

func TestAnalyzePoints_Deterministic(t *testing.T) {
	points := ellipsoidCloud(7, 500, 5, 2, 1)

	first, err := AnalyzePoints(points)
	if err != nil {
		t.Fatalf("first analysis failed: %v", err)
	}
	second, err := AnalyzePoints(points)
	if err != nil {
		t.Fatalf("second analysis failed: %v", err)
	}

	for i := 0; i < 3; i++ {
		if first.Axes[i] != second.Axes[i] {
			t.Errorf("axis %d differs between runs: %v vs %v", i, first.Axes[i], second.Axes[i])
		}
	}
}

func TestAnalyzePoints_Degenerate(t *testing.T) {
	tests := []struct {
		name   string
		points []r3.Vector
	}{
		{
			"too few points",
			[]r3.Vector{{X: 1}, {Y: 1}, {Z: 1}},
		},
		{
			"coincident points",
			[]r3.Vector{{X: 1, Y: 2, Z: 3}, {X: 1, Y: 2, Z: 3}, {X: 1, Y: 2, Z: 3}, {X: 1, Y: 2, Z: 3}},
		},
		{
			"collinear points",
			[]r3.Vector{{X: 0}, {X: 1}, {X: 2}, {X: 3}, {X: 4}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := AnalyzePoints(tt.points)
			if !errors.Is(err, ErrDegenerateGeometry) {
				t.Errorf("expected ErrDegenerateGeometry, got %v", err)
			}
		})
	}
}

func TestAnalyzeGeometry_NilCloud(t *testing.T) {
	if _, err := AnalyzeGeometry(nil); !errors.Is(err, ErrNilPointCloud) {
		t.Errorf("expected ErrNilPointCloud, got %v", err)
	}
}

func TestAnalyzeGeometry_Cloud(t *testing.T) {
	cloud := pointcloud.NewBasicEmpty()
	for _, pt := range ellipsoidCloud(13, 300, 8, 2, 1) {
		//nolint:errcheck
		cloud.Set(pt, nil)
	}

	frame, err := AnalyzeGeometry(cloud)
	if err != nil {
		t.Fatalf("AnalyzeGeometry failed: %v", err)
	}
	if math.Abs(frame.Primary().X) < 0.98 {
		t.Errorf("primary axis should be near X, got %v", frame.Primary())
	}
}

func TestAnalyzePoints_NearEqualMinorVariances(t *testing.T) {
	// A rod with circular cross-section: the two minor axes are not uniquely
	// determined, but the analysis must still succeed with an orthonormal frame.
	var points []r3.Vector
	for i := 0; i < 50; i++ {
		x := float64(i) * 0.4
		for k := 0; k < 8; k++ {
			theta := 2 * math.Pi * float64(k) / 8
			points = append(points, r3.Vector{X: x, Y: math.Cos(theta), Z: math.Sin(theta)})
		}
	}

	frame, err := AnalyzePoints(points)
	if err != nil {
		t.Fatalf("AnalyzePoints failed: %v", err)
	}
	if math.Abs(frame.Primary().X) < 0.999 {
		t.Errorf("primary axis should be X for a rod, got %v", frame.Primary())
	}
	ratio := frame.Variances[2] / frame.Variances[1]
	t.Logf("minor variance ratio: %.6f", ratio)
	if ratio < 0.9 {
		t.Errorf("expected near-equal minor variances, got %v", frame.Variances)
	}
}
