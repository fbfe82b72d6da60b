package mousepose

import (
	"math"

	"github.com/golang/geo/r3"

	"go.viam.com/rdk/pointcloud"
)

// Detector locates anatomical landmarks on a mouse point cloud.
type Detector struct {
	cfg Config
}

// NewDetector creates a new Detector with the given configuration.
func NewDetector(cfg *Config) *Detector {
	if cfg == nil {
		c := DefaultConfig()
		cfg = &c
	}
	return &Detector{cfg: *cfg}
}

// Detect analyzes the cloud's geometry and locates landmarks. Once the frame
// is established the detection itself never hard-fails: when the density
// sweep cannot classify the cloud it degrades to the projection-extremes
// fallback and reports that in the result metadata.
func (d *Detector) Detect(cloud pointcloud.PointCloud) (*LandmarkSet, error) {
	if cloud == nil {
		return nil, ErrNilPointCloud
	}
	points := pointcloud.CloudToPoints(cloud)
	frame, err := AnalyzePoints(points)
	if err != nil {
		return nil, err
	}
	return d.DetectWithFrame(points, frame)
}

// DetectWithFrame locates landmarks using a precomputed principal-axis frame.
func (d *Detector) DetectWithFrame(points []r3.Vector, frame *PrincipalAxisFrame) (*LandmarkSet, error) {
	if frame == nil {
		return nil, ErrDegenerateGeometry
	}
	if len(points) < 4 {
		return nil, ErrTooFewPoints
	}

	projections := projectOntoAxis(points, frame.Centroid, frame.Primary())

	set := d.detectNoseAndTail(points, projections, frame)
	d.refineEars(points, frame, set)
	return set, nil
}

// sliceStat holds the cross-sectional measurements of one slice along the
// primary axis.
type sliceStat struct {
	pos     float64 // Projection value of the slice center
	count   int     // Points within the slice half-thickness
	density float64 // Points per unit cross-sectional area
}

// detectNoseAndTail runs the density sweep, falling back to projection
// extremes when too few slices survive or the transition cannot partition the
// cloud into two usable regions.
func (d *Detector) detectNoseAndTail(points []r3.Vector, projections []float64, frame *PrincipalAxisFrame) *LandmarkSet {
	cfg := d.cfg.Detector

	minProj, maxProj := minMax(projections)
	slices := d.sweepSlices(points, projections, frame, minProj, maxProj)
	if len(slices) < cfg.MinUsableSlices {
		return d.fallbackFromExtremes(points, projections)
	}

	densities := make([]float64, len(slices))
	for i, s := range slices {
		densities[i] = s.density
	}
	window := len(slices) / cfg.SmoothingDivisor
	if window < 3 {
		window = 3
	}
	smoothed := movingAverage(densities, window)

	// The steepest density rise marks the thin tail joining the wider body.
	transitionIdx := steepestRise(smoothed)
	if transitionIdx < 0 {
		return d.fallbackFromExtremes(points, projections)
	}
	transitionPos := slices[transitionIdx].pos

	var lowSide, highSide []int
	for i, s := range slices {
		if s.pos <= transitionPos {
			lowSide = append(lowSide, i)
		} else {
			highSide = append(highSide, i)
		}
	}
	if len(lowSide) < cfg.MinRegionSlices || len(highSide) < cfg.MinRegionSlices {
		return d.fallbackFromExtremes(points, projections)
	}

	lowMean := meanAt(smoothed, lowSide)
	highMean := meanAt(smoothed, highSide)

	// The side with lower average density is the tail. Each landmark is the
	// most extreme point within a band near its own region's end of the
	// projection range.
	var noseIdx, tailIdx int
	if lowMean < highMean {
		tailIdx = extremeInBand(projections, minProj, transitionPos, cfg.RegionExtentFraction, false)
		noseIdx = extremeInBand(projections, transitionPos, maxProj, cfg.RegionExtentFraction, true)
	} else {
		tailIdx = extremeInBand(projections, transitionPos, maxProj, cfg.RegionExtentFraction, true)
		noseIdx = extremeInBand(projections, minProj, transitionPos, cfg.RegionExtentFraction, false)
	}

	set := &LandmarkSet{
		Nose:       points[noseIdx],
		TailTip:    points[tailIdx],
		Method:     MethodDensity,
		Confidence: densityConfidence(lowMean, highMean),
	}

	// Tail attachment: the cloud point nearest to the transition position on
	// the primary axis.
	attachTarget := frame.Centroid.Add(frame.Primary().Mul(transitionPos))
	set.TailAttachment = nearestPoint(points, attachTarget)

	return set
}

// sweepSlices partitions the projection range into overlapping slices and
// measures each slice's cross-sectional density. Slices with too few points
// are dropped.
func (d *Detector) sweepSlices(points []r3.Vector, projections []float64, frame *PrincipalAxisFrame, minProj, maxProj float64) []sliceStat {
	cfg := d.cfg.Detector
	numSlices := cfg.NumSlices
	if numSlices < 2 {
		numSlices = 2
	}

	axis := frame.Primary()
	halfThickness := (maxProj - minProj) / (float64(numSlices) * cfg.SliceOverlap)
	step := (maxProj - minProj) / float64(numSlices-1)

	slices := make([]sliceStat, 0, numSlices)
	for s := 0; s < numSlices; s++ {
		pos := minProj + step*float64(s)

		count := 0
		maxRadius := 0.0
		sliceCenter := frame.Centroid.Add(axis.Mul(pos))
		for i, pt := range points {
			if math.Abs(projections[i]-pos) > halfThickness {
				continue
			}
			count++

			// Perpendicular distance from the point to the axis line through
			// the slice center.
			toPt := pt.Sub(sliceCenter)
			perpendicular := toPt.Sub(axis.Mul(toPt.Dot(axis)))
			if r := perpendicular.Norm(); r > maxRadius {
				maxRadius = r
			}
		}

		if count <= cfg.MinSlicePoints {
			continue
		}
		if maxRadius < cfg.MinCrossSectionRadius {
			maxRadius = cfg.MinCrossSectionRadius
		}
		slices = append(slices, sliceStat{
			pos:     pos,
			count:   count,
			density: float64(count) / (math.Pi * maxRadius * maxRadius),
		})
	}
	return slices
}

// fallbackFromExtremes classifies the two global projection extremes directly.
// Polarity comes from a local-density test: the pointier end (fewer neighbors
// within a small radius) is taken as the nose. Deterministic, but reported
// with low confidence.
func (d *Detector) fallbackFromExtremes(points []r3.Vector, projections []float64) *LandmarkSet {
	cfg := d.cfg.Detector

	minIdx, maxIdx := 0, 0
	for i, p := range projections {
		if p < projections[minIdx] {
			minIdx = i
		}
		if p > projections[maxIdx] {
			maxIdx = i
		}
	}

	end1 := points[minIdx]
	end2 := points[maxIdx]

	radius := boundingBoxDiagonal(points) * cfg.NeighborRadiusFraction
	n1 := countWithin(points, end1, radius)
	n2 := countWithin(points, end2, radius)

	nose, tail := end2, end1
	if n1 < n2 {
		nose, tail = end1, end2
	}

	set := &LandmarkSet{
		Nose:       nose,
		TailTip:    tail,
		Method:     MethodExtremes,
		Confidence: 0.3,
	}
	set.TailAttachment = nose.Add(tail.Sub(nose).Mul(cfg.TailAttachmentFraction))
	return set
}

// extremeInBand returns the index of the most extreme projection within the
// band covering the outer fraction of the region [lo, hi]: near hi when
// positive is true, near lo otherwise. The region's own extreme always
// qualifies, so a valid index is always found.
func extremeInBand(projections []float64, lo, hi, fraction float64, positive bool) int {
	best := -1
	if positive {
		cut := hi - (hi-lo)*fraction
		for i, p := range projections {
			if p < cut {
				continue
			}
			if best < 0 || p > projections[best] {
				best = i
			}
		}
	} else {
		cut := lo + (hi-lo)*fraction
		for i, p := range projections {
			if p > cut {
				continue
			}
			if best < 0 || p < projections[best] {
				best = i
			}
		}
	}
	return best
}

// movingAverage smooths values with a zero-padded window of the given width.
func movingAverage(values []float64, window int) []float64 {
	if window <= 1 || len(values) == 0 {
		out := make([]float64, len(values))
		copy(out, values)
		return out
	}
	out := make([]float64, len(values))
	half := window / 2
	for i := range values {
		var sum float64
		for j := i - half; j < i-half+window; j++ {
			if j >= 0 && j < len(values) {
				sum += values[j]
			}
		}
		out[i] = sum / float64(window)
	}
	return out
}

// steepestRise returns the index of the largest positive first difference, or
// -1 when the sequence never rises.
func steepestRise(values []float64) int {
	best := -1
	bestGrad := 0.0
	for i := 0; i+1 < len(values); i++ {
		grad := values[i+1] - values[i]
		if grad > bestGrad {
			bestGrad = grad
			best = i
		}
	}
	return best
}

// densityConfidence maps the tail/body density contrast onto [0.5, 0.9].
func densityConfidence(lowMean, highMean float64) float64 {
	if highMean <= 0 {
		return 0.5
	}
	lo, hi := lowMean, highMean
	if lo > hi {
		lo, hi = hi, lo
	}
	contrast := 1 - lo/hi
	return math.Min(0.5+0.4*contrast, 0.9)
}

func minMax(values []float64) (float64, float64) {
	min, max := values[0], values[0]
	for _, v := range values[1:] {
		min = math.Min(min, v)
		max = math.Max(max, v)
	}
	return min, max
}

func meanAt(values []float64, idx []int) float64 {
	var sum float64
	for _, i := range idx {
		sum += values[i]
	}
	return sum / float64(len(idx))
}

func nearestPoint(points []r3.Vector, target r3.Vector) r3.Vector {
	best := points[0]
	bestDist := math.MaxFloat64
	for _, pt := range points {
		if d := pt.Sub(target).Norm(); d < bestDist {
			bestDist = d
			best = pt
		}
	}
	return best
}

func countWithin(points []r3.Vector, center r3.Vector, radius float64) int {
	count := 0
	for _, pt := range points {
		if pt.Sub(center).Norm() <= radius {
			count++
		}
	}
	return count
}
