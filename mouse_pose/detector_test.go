package mousepose

import (
	"fmt"
	"math"
	"math/rand"
	"os"
	"testing"
	"time"

	"github.com/golang/geo/r3"
	vizClient "github.com/viam-labs/motion-tools/client/client"

	"go.viam.com/rdk/pointcloud"
	"go.viam.com/rdk/spatialmath"
)

// syntheticMouseCloud builds the canonical test shape along X from -10 to 10:
// a sparse wide disk for x < -7 (the tail scans at low cross-sectional
// density), a dense 1.5-unit body disk up to the snout, and a rounded snout
// cap past x=9 whose point count tracks its shrinking area so the density
// stays flat. Nose is at x=10, tail tip at x=-10.
func syntheticMouseCloud(spacing float64) []r3.Vector {
	//nolint:gosec
	rng := rand.New(rand.NewSource(42))
	var points []r3.Vector

	disk := func(x, radius float64, count int) {
		for k := 0; k < count; k++ {
			r := radius * math.Sqrt(rng.Float64())
			theta := rng.Float64() * 2 * math.Pi
			points = append(points, r3.Vector{X: x, Y: r * math.Cos(theta), Z: r * math.Sin(theta)})
		}
	}

	for x := -10.0; x <= 10.0+1e-9; x += spacing {
		// Spine: a tight bundle around the axis.
		for k := 0; k < 3; k++ {
			points = append(points, r3.Vector{
				X: x,
				Y: rng.NormFloat64() * 0.05,
				Z: rng.NormFloat64() * 0.05,
			})
		}

		if x < -7 {
			disk(x, 3.0, 12)
			continue
		}
		radius := 1.5
		if x > 9 {
			radius = 1.5 * math.Sqrt(1-(x-9)*(x-9))
		}
		disk(x, radius, int(40*(radius/1.5)*(radius/1.5)))
	}
	return points
}

func mirrorX(points []r3.Vector) []r3.Vector {
	out := make([]r3.Vector, len(points))
	for i, pt := range points {
		out[i] = r3.Vector{X: -pt.X, Y: pt.Y, Z: pt.Z}
	}
	return out
}

func TestDetect_SyntheticMouse(t *testing.T) {
	const spacing = 0.25
	points := syntheticMouseCloud(spacing)
	t.Logf("synthetic mouse: %d points", len(points))

	detector := NewDetector(nil)
	frame, err := AnalyzePoints(points)
	if err != nil {
		t.Fatalf("AnalyzePoints failed: %v", err)
	}

	set, err := detector.DetectWithFrame(points, frame)
	if err != nil {
		t.Fatalf("DetectWithFrame failed: %v", err)
	}

	t.Logf("method=%s confidence=%.2f", set.Method, set.Confidence)
	t.Logf("nose=%v tail_tip=%v tail_attachment=%v", set.Nose, set.TailTip, set.TailAttachment)

	if set.Method != MethodDensity {
		t.Errorf("expected density method, got %s", set.Method)
	}
	if math.Abs(set.Nose.X-10) > spacing {
		t.Errorf("nose should be near x=10, got %v", set.Nose)
	}
	if math.Abs(set.TailTip.X-(-10)) > spacing {
		t.Errorf("tail tip should be near x=-10, got %v", set.TailTip)
	}
	// The attachment sits where the wide tail disk meets the body.
	if math.Abs(set.TailAttachment.X-(-7)) > 2 {
		t.Errorf("tail attachment should be near x=-7, got %v", set.TailAttachment)
	}
	if set.Confidence <= 0.5 {
		t.Errorf("density detection on a clean cloud should be confident, got %.2f", set.Confidence)
	}
}

func TestDetect_ReversedCloudSwapsLandmarks(t *testing.T) {
	points := syntheticMouseCloud(0.25)
	mirrored := mirrorX(points)

	detector := NewDetector(nil)

	detect := func(pts []r3.Vector) *LandmarkSet {
		t.Helper()
		frame, err := AnalyzePoints(pts)
		if err != nil {
			t.Fatalf("AnalyzePoints failed: %v", err)
		}
		set, err := detector.DetectWithFrame(pts, frame)
		if err != nil {
			t.Fatalf("DetectWithFrame failed: %v", err)
		}
		return set
	}

	orig := detect(points)
	flipped := detect(mirrored)

	if math.Abs(orig.Nose.X+flipped.Nose.X) > 0.5 {
		t.Errorf("mirrored nose should mirror: %v vs %v", orig.Nose, flipped.Nose)
	}
	if math.Abs(orig.TailTip.X+flipped.TailTip.X) > 0.5 {
		t.Errorf("mirrored tail should mirror: %v vs %v", orig.TailTip, flipped.TailTip)
	}

	// The magnitude of the alignment error is orientation-independent.
	params := DefaultParameters()
	m := identity4()
	origResult, err := VerifyAlignment(orig, m, params)
	if err != nil {
		t.Fatalf("verify original: %v", err)
	}
	flippedResult, err := VerifyAlignment(flipped, m, params)
	if err != nil {
		t.Fatalf("verify mirrored: %v", err)
	}
	if diff := math.Abs(origResult.NoseTailErrorDeg - flippedResult.NoseTailErrorDeg); diff > 0.5 {
		t.Errorf("alignment error magnitude should be unchanged under reversal: %.4f vs %.4f",
			origResult.NoseTailErrorDeg, flippedResult.NoseTailErrorDeg)
	}
}

func TestDetect_Dumbbell(t *testing.T) {
	// Two equal spheres joined by a thin rod: nose/tail assignment is
	// ambiguous, but detection must not fail and must return distinct extrema.
	//nolint:gosec
	rng := rand.New(rand.NewSource(7))
	var points []r3.Vector
	for _, cx := range []float64{-5, 5} {
		for k := 0; k < 300; k++ {
			theta := rng.Float64() * 2 * math.Pi
			phi := math.Acos(2*rng.Float64() - 1)
			points = append(points, r3.Vector{
				X: cx + 2*math.Sin(phi)*math.Cos(theta),
				Y: 2 * math.Sin(phi) * math.Sin(theta),
				Z: 2 * math.Cos(phi),
			})
		}
	}
	for k := 0; k < 100; k++ {
		points = append(points, r3.Vector{
			X: -3 + 6*rng.Float64(),
			Y: rng.NormFloat64() * 0.2,
			Z: rng.NormFloat64() * 0.2,
		})
	}

	set, err := NewDetector(nil).DetectWithFrame(points, mustFrame(t, points))
	if err != nil {
		t.Fatalf("DetectWithFrame failed: %v", err)
	}

	t.Logf("dumbbell: method=%s nose=%v tail=%v", set.Method, set.Nose, set.TailTip)
	if set.Nose == set.TailTip {
		t.Error("nose and tail must be distinct extrema")
	}
	if set.Nose.Sub(set.TailTip).Norm() < 10 {
		t.Errorf("extrema should span the dumbbell, separation %v", set.Nose.Sub(set.TailTip).Norm())
	}
}

func TestDetect_SparseCloudFallsBack(t *testing.T) {
	points := ellipsoidCloud(99, 25, 6, 2, 1)

	set, err := NewDetector(nil).DetectWithFrame(points, mustFrame(t, points))
	if err != nil {
		t.Fatalf("DetectWithFrame failed: %v", err)
	}

	if set.Method != MethodExtremes {
		t.Errorf("sparse cloud should fall back to extremes, got %s", set.Method)
	}
	if set.Confidence >= 0.5 {
		t.Errorf("fallback must report low confidence, got %.2f", set.Confidence)
	}

	// Fallback attachment is the 70% interpolation from nose toward tail.
	want := set.Nose.Add(set.TailTip.Sub(set.Nose).Mul(0.7))
	if set.TailAttachment.Sub(want).Norm() > 1e-9 {
		t.Errorf("fallback attachment should interpolate nose->tail: got %v want %v", set.TailAttachment, want)
	}
}

func TestDetect_Ears(t *testing.T) {
	//nolint:gosec
	rng := rand.New(rand.NewSource(21))
	var points []r3.Vector

	for x := 0.0; x <= 10.0; x += 0.2 {
		for k := 0; k < 8; k++ {
			theta := rng.Float64() * 2 * math.Pi
			points = append(points, r3.Vector{
				X: x,
				Y: 0.9 * math.Cos(theta),
				Z: 0.7 * math.Sin(theta),
			})
		}
		if x < 1 {
			// Sparse wide tail disk so the density sweep puts the nose at x=10.
			for k := 0; k < 8; k++ {
				r := 3.0 * math.Sqrt(rng.Float64())
				theta := rng.Float64() * 2 * math.Pi
				points = append(points, r3.Vector{X: x, Y: r * math.Cos(theta), Z: r * math.Sin(theta)})
			}
		}
	}
	// Ear lobes near the head.
	for _, side := range []float64{-1, 1} {
		for k := 0; k < 10; k++ {
			points = append(points, r3.Vector{
				X: 9 + rng.NormFloat64()*0.1,
				Y: side * (1.8 + rng.NormFloat64()*0.1),
				Z: rng.NormFloat64() * 0.1,
			})
		}
	}

	cfg := DefaultConfig()
	cfg.Ears.HeadRadiusFraction = 0.3
	cfg.Ears.MinHeadPoints = 5

	set, err := NewDetector(&cfg).DetectWithFrame(points, mustFrame(t, points))
	if err != nil {
		t.Fatalf("DetectWithFrame failed: %v", err)
	}

	if math.Abs(set.Nose.X-10) > 0.5 {
		t.Fatalf("nose should be near x=10, got %v", set.Nose)
	}
	if !set.HasEars() {
		t.Fatal("expected ears on a cloud with lateral head lobes")
	}
	t.Logf("left_ear=%v right_ear=%v eye_center=%v", *set.LeftEar, *set.RightEar, *set.EyeCenter)

	if set.LeftEar.Y >= 0 || set.RightEar.Y <= 0 {
		t.Errorf("ears should straddle the lateral axis: left=%v right=%v", *set.LeftEar, *set.RightEar)
	}
	if set.EyeCenter == nil {
		t.Fatal("eye center should be derived when both ears are present")
	}
	if set.EyeCenter.X >= set.Nose.X || set.EyeCenter.X <= set.TailAttachment.X {
		t.Errorf("eye center should sit between nose and body, got %v", *set.EyeCenter)
	}
}

func TestDetect_NilCloud(t *testing.T) {
	if _, err := NewDetector(nil).Detect(nil); err == nil {
		t.Error("expected error for nil cloud")
	}
}

func mustFrame(t *testing.T, points []r3.Vector) *PrincipalAxisFrame {
	t.Helper()
	frame, err := AnalyzePoints(points)
	if err != nil {
		t.Fatalf("AnalyzePoints failed: %v", err)
	}
	return frame
}

const testPCDPath = "testdata/mousescan.pcd"

// TestDetect_RealScan runs the full pipeline on a captured scan and draws the
// result in the motion-tools visualizer when one is running.
func TestDetect_RealScan(t *testing.T) {
	if _, err := os.Stat(testPCDPath); os.IsNotExist(err) {
		t.Skipf("test PCD not found at %s", testPCDPath)
	}
	cloud, err := pointcloud.NewFromFile(testPCDPath, "")
	if err != nil {
		t.Fatalf("failed to load PCD: %v", err)
	}
	t.Logf("loaded %d points", cloud.Size())

	set, err := NewDetector(nil).Detect(cloud)
	if err != nil {
		t.Fatalf("Detect failed: %v", err)
	}

	t.Logf("method=%s confidence=%.2f", set.Method, set.Confidence)
	for id, pos := range set.Landmarks() {
		t.Logf("  %s: (%.1f, %.1f, %.1f)", id, pos.X, pos.Y, pos.Z)
	}

	visualizeLandmarks(t, cloud, set)
}

const vizDelay = 300 * time.Millisecond

// visualizeLandmarks draws the cloud and landmark markers in motion-tools.
func visualizeLandmarks(t *testing.T, cloud pointcloud.PointCloud, set *LandmarkSet) {
	t.Helper()

	if err := vizClient.RemoveAllSpatialObjects(); err != nil {
		t.Logf("viz: could not clear scene (is motion-tools running?): %v", err)
		return
	}
	time.Sleep(vizDelay)

	if err := vizClient.DrawPointCloud("mousescan", cloud, nil); err != nil {
		t.Logf("viz: could not draw pointcloud: %v", err)
		return
	}
	time.Sleep(vizDelay)

	colors := map[Landmark]string{
		LandmarkNose:           "red",
		LandmarkTailTip:        "blue",
		LandmarkTailAttachment: "green",
		LandmarkLeftEar:        "yellow",
		LandmarkRightEar:       "orange",
		LandmarkEyeCenter:      "purple",
	}
	for id, pos := range set.Landmarks() {
		marker, err := spatialmath.NewSphere(
			spatialmath.NewPoseFromPoint(pos),
			2.0,
			fmt.Sprintf("landmark_%s", id),
		)
		if err != nil {
			t.Logf("viz: failed to create %s marker: %v", id, err)
			continue
		}
		if err := vizClient.DrawGeometry(marker, colors[id]); err != nil {
			t.Logf("viz: could not draw %s marker: %v", id, err)
			continue
		}
		time.Sleep(vizDelay)
	}

	t.Log("viz: visualization complete")
}
