package isi

import (
	"fmt"

	"github.com/go-viper/mapstructure/v2"

	mousepose "github.com/Kim-Neuroscience-Lab/ISI/mouse_pose"
)

// wireParams mirrors the JSON parameter object accepted at the API boundary.
// Absent fields keep their defaults.
type wireParams struct {
	ScaleFactor        *float64 `mapstructure:"scale_factor"`
	AlignmentTolerance *float64 `mapstructure:"alignment_tolerance"`
	NoseTailAxis       *string  `mapstructure:"nose_tail_axis"`
	EarAlignmentAxis   *string  `mapstructure:"ear_alignment_axis"`
}

// DecodeParams decodes a wire-format parameter map into GeometryParameters,
// applying defaults for absent fields and validating ranges eagerly.
func DecodeParams(raw map[string]interface{}) (mousepose.GeometryParameters, error) {
	params := mousepose.DefaultParameters()

	var wire wireParams
	if err := mapstructure.Decode(raw, &wire); err != nil {
		return params, fmt.Errorf("decode parameters: %w", err)
	}

	if wire.ScaleFactor != nil {
		params.ScaleFactor = *wire.ScaleFactor
	}
	if wire.AlignmentTolerance != nil {
		params.AlignmentToleranceDeg = *wire.AlignmentTolerance
	}
	if wire.NoseTailAxis != nil {
		params.NoseTailAxis = mousepose.Axis(*wire.NoseTailAxis)
	}
	if wire.EarAlignmentAxis != nil {
		params.EarAxis = mousepose.Axis(*wire.EarAlignmentAxis)
	}

	if err := params.Validate(); err != nil {
		return params, err
	}
	return params, nil
}
