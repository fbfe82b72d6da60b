package isi

import (
	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/mat"

	"go.viam.com/rdk/spatialmath"

	mousepose "github.com/Kim-Neuroscience-Lab/ISI/mouse_pose"
)

// AlignmentReport is the JSON-serializable result handed to the external API
// layer: landmark name → coordinates, the 4x4 transform, the per-axis angular
// errors, and detection metadata.
type AlignmentReport struct {
	Landmarks map[string][3]float64 `json:"landmarks"`
	Matrix    [4][4]float64         `json:"transformation_matrix"`
	Errors    AlignmentErrors       `json:"alignment_errors"`
	IsValid   bool                  `json:"is_valid"`
	Metadata  ReportMetadata        `json:"metadata"`

	// Pose and Transform are the canonical-frame pose and raw matrix for
	// in-process consumers; they have no wire representation of their own.
	Pose      spatialmath.Pose `json:"-"`
	Transform *mat.Dense       `json:"-"`
}

// AlignmentErrors holds angular errors in degrees. Ear is null when no ear
// landmarks were detected.
type AlignmentErrors struct {
	NoseTail float64  `json:"nose_tail_alignment"`
	Ear      *float64 `json:"ear_alignment"`
	Overall  float64  `json:"overall_error"`
}

// ReportMetadata describes how the landmarks were obtained.
type ReportMetadata struct {
	DetectionMethod  string        `json:"detection_method"`
	Confidence       float64       `json:"confidence"`
	CoordinateSystem string        `json:"coordinate_system"`
	Centroid         [3]float64    `json:"centroid"`
	PrincipalAxes    [3][3]float64 `json:"principal_axes"`
	VertexCount      int           `json:"vertex_count"`
	Detected         []string      `json:"landmarks_detected"`
}

func buildReport(frame *mousepose.PrincipalAxisFrame, landmarks *mousepose.LandmarkSet, result *mousepose.AlignmentResult, vertexCount int) *AlignmentReport {
	report := &AlignmentReport{
		Landmarks: make(map[string][3]float64),
		Matrix:    matrix4(result.Transform),
		Transform: result.Transform,
		Errors: AlignmentErrors{
			NoseTail: result.NoseTailErrorDeg,
			Ear:      result.EarErrorDeg,
			Overall:  result.OverallErrorDeg,
		},
		IsValid: result.IsValid,
		Metadata: ReportMetadata{
			DetectionMethod:  landmarks.Method.String(),
			Confidence:       landmarks.Confidence,
			CoordinateSystem: "mesh_relative",
			Centroid:         vec3(frame.Centroid),
			VertexCount:      vertexCount,
		},
	}
	for i, axis := range frame.Axes {
		report.Metadata.PrincipalAxes[i] = vec3(axis)
	}
	for id, pos := range landmarks.Landmarks() {
		report.Landmarks[id.String()] = vec3(pos)
		report.Metadata.Detected = append(report.Metadata.Detected, id.String())
	}
	return report
}

func vec3(v r3.Vector) [3]float64 {
	return [3]float64{v.X, v.Y, v.Z}
}

func matrix4(m *mat.Dense) [4][4]float64 {
	var out [4][4]float64
	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			out[i][j] = m.At(i, j)
		}
	}
	return out
}
