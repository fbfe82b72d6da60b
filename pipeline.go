package isi

import (
	"context"
	"fmt"

	"go.viam.com/rdk/logging"
	"go.viam.com/rdk/pointcloud"

	mousepose "github.com/Kim-Neuroscience-Lab/ISI/mouse_pose"
)

// Pipeline runs the full alignment workflow: analyze geometry, detect
// landmarks, compute the canonical-frame transform, and verify the residual
// angular error.
type Pipeline struct {
	logger   logging.Logger
	detector *mousepose.Detector
}

// NewPipeline creates a Pipeline. A nil config uses detection defaults.
func NewPipeline(logger logging.Logger, cfg *mousepose.Config) *Pipeline {
	return &Pipeline{
		logger:   logger,
		detector: mousepose.NewDetector(cfg),
	}
}

// Align runs analyze → detect → align → verify on a single mesh cloud and
// returns the wire-format report for the API boundary.
func (p *Pipeline) Align(ctx context.Context, cloud pointcloud.PointCloud, params mousepose.GeometryParameters) (*AlignmentReport, error) {
	if cloud == nil {
		return nil, mousepose.ErrNilPointCloud
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	points := pointcloud.CloudToPoints(cloud)
	p.logger.Infof("Starting alignment on %d vertices", len(points))

	frame, err := mousepose.AnalyzePoints(points)
	if err != nil {
		return nil, fmt.Errorf("geometry analysis: %w", err)
	}
	p.logger.Infof("Centroid: (%.3f, %.3f, %.3f), primary axis: (%.3f, %.3f, %.3f)",
		frame.Centroid.X, frame.Centroid.Y, frame.Centroid.Z,
		frame.Axes[0].X, frame.Axes[0].Y, frame.Axes[0].Z)
	p.logger.Debugf("Axis variances: %.4f, %.4f, %.4f",
		frame.Variances[0], frame.Variances[1], frame.Variances[2])

	landmarks, err := p.detector.DetectWithFrame(points, frame)
	if err != nil {
		return nil, fmt.Errorf("landmark detection: %w", err)
	}
	if landmarks.Method == mousepose.MethodExtremes {
		p.logger.Warnf("Density sweep degraded to %s (confidence %.2f)", landmarks.Method, landmarks.Confidence)
	} else {
		p.logger.Infof("Landmarks detected via %s (confidence %.2f)", landmarks.Method, landmarks.Confidence)
	}
	p.logger.Infof("Nose: %v, tail tip: %v, ears present: %v",
		landmarks.Nose, landmarks.TailTip, landmarks.HasEars())

	matrix, err := mousepose.AlignmentMatrix(landmarks, params)
	if err != nil {
		return nil, fmt.Errorf("alignment matrix: %w", err)
	}

	result, err := mousepose.VerifyAlignment(landmarks, matrix, params)
	if err != nil {
		return nil, fmt.Errorf("alignment verification: %w", err)
	}

	pose, err := mousepose.PoseFromTransform(matrix)
	if err != nil {
		return nil, fmt.Errorf("canonical pose: %w", err)
	}
	p.logger.Infof("Alignment error %.4f° (tolerance %.2f°), valid=%v",
		result.OverallErrorDeg, params.AlignmentToleranceDeg, result.IsValid)

	report := buildReport(frame, landmarks, result, len(points))
	report.Pose = pose
	return report, nil
}
