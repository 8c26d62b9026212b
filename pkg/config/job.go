package config

import (
	"github.com/quantfocus/semsim/pkg/errors"
	"github.com/quantfocus/semsim/pkg/params"
)

// Params validates the job table and builds its parameter set. Keys that
// belong to the other calibration mode are rejected.
func (j Job) Params() (params.Set, error) {
	mode, err := params.ParseMode(j.Mode)
	if err != nil {
		return params.Set{}, err
	}
	if j.EnergyKeV == nil {
		return params.Set{}, missing(params.FieldEnergy)
	}

	switch mode {
	case params.ModeBeam:
		if err := j.reject("thickness_nm", j.ThicknessNM != nil, "angle_stddev_rad", j.AngleStdDevRad != nil,
			"angle_stddev_deg", j.AngleStdDevDeg != nil, "num_electrons", j.Electrons != nil); err != nil {
			return params.Set{}, err
		}
		switch {
		case j.CurrentNA == nil:
			return params.Set{}, missing(params.FieldCurrent)
		case j.Resolution == nil:
			return params.Set{}, missing(params.FieldResolution)
		case j.DistanceMM == nil:
			return params.Set{}, missing(params.FieldDistance)
		}
		return params.NewBeam(*j.EnergyKeV, *j.CurrentNA, *j.Resolution, *j.DistanceMM)

	default:
		if err := j.reject("current_na", j.CurrentNA != nil, "resolution", j.Resolution != nil,
			"distance_mm", j.DistanceMM != nil); err != nil {
			return params.Set{}, err
		}
		switch {
		case j.ThicknessNM == nil:
			return params.Set{}, missing(params.FieldThickness)
		case j.Electrons == nil:
			return params.Set{}, missing(params.FieldElectrons)
		case j.AngleStdDevRad != nil && j.AngleStdDevDeg != nil:
			return params.Set{}, errors.New(errors.ErrCodeInvalidConfig,
				"set only one of angle_stddev_rad and angle_stddev_deg")
		case j.AngleStdDevDeg != nil:
			return params.NewTransmissionDegrees(*j.EnergyKeV, *j.ThicknessNM, *j.AngleStdDevDeg, *j.Electrons)
		case j.AngleStdDevRad != nil:
			return params.NewTransmission(*j.EnergyKeV, *j.ThicknessNM, *j.AngleStdDevRad, *j.Electrons)
		default:
			return params.Set{}, missing(params.FieldAngleStdDev)
		}
	}
}

// reject takes (key, present) pairs and fails on the first present key.
func (j Job) reject(pairs ...any) error {
	for i := 0; i+1 < len(pairs); i += 2 {
		if pairs[i+1].(bool) {
			return errors.New(errors.ErrCodeInvalidConfig, "%s does not apply to %s mode", pairs[i], j.Mode)
		}
	}
	return nil
}

func missing(field string) error {
	return &errors.InvalidParameterError{Field: field, Constraint: "is required"}
}
