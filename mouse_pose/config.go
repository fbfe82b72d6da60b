package mousepose

// Config holds all configuration for landmark detection.
type Config struct {
	Detector DetectorConfig
	Ears     EarConfig
}

// DetectorConfig holds parameters for the cross-sectional density sweep.
type DetectorConfig struct {
	NumSlices              int     // Number of overlapping slice positions along the primary axis
	SliceOverlap           float64 // Slice half-thickness = projection range / (NumSlices * SliceOverlap)
	MinSlicePoints         int     // Slices with fewer points are discarded as unreliable
	MinUsableSlices        int     // Below this many retained slices the sweep falls back to extremes
	MinRegionSlices        int     // Min slices on each side of the transition for region classification
	SmoothingDivisor       int     // Moving-average window = retained slices / SmoothingDivisor (min 3)
	RegionExtentFraction   float64 // Outer fraction of each region searched for its landmark
	TailAttachmentFraction float64 // Nose→tail interpolation fraction used by the fallback
	NeighborRadiusFraction float64 // Fraction of the bounding-box diagonal for the fallback density test
	MinCrossSectionRadius  float64 // Floor on the slice radius to avoid division by zero
}

// EarConfig holds parameters for the bilateral ear refinement.
type EarConfig struct {
	HeadRadiusFraction float64 // Head region radius as a fraction of the bounding-box diagonal
	MinHeadPoints      int     // Minimum head-region points required to place ears
	EyeCenterFraction  float64 // Nose→ear-midpoint fraction for the derived eye center
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Detector: DetectorConfig{
			NumSlices:              40,
			SliceOverlap:           1.5,
			MinSlicePoints:         5,
			MinUsableSlices:        10,
			MinRegionSlices:        3,
			SmoothingDivisor:       8,
			RegionExtentFraction:   0.25,
			TailAttachmentFraction: 0.7,
			NeighborRadiusFraction: 0.03,
			MinCrossSectionRadius:  1e-3,
		},
		Ears: EarConfig{
			HeadRadiusFraction: 0.15,
			MinHeadPoints:      10,
			EyeCenterFraction:  0.375,
		},
	}
}
