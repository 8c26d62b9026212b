// Package params defines the validated, immutable description of one
// simulation run.
//
// A [Set] always carries a beam energy plus the field group of exactly one
// calibration [Mode]:
//
//   - [ModeBeam]: probe current, image resolution and working distance
//   - [ModeTransmission]: sample thickness, angular spread and electron count
//
// Construction is the only validation point. Every constructor funnels into
// the same checks, so a Set that exists is a Set that is valid:
//
//	p, err := params.NewBeam(15, 1.0, 256, 10)
//	if err != nil {
//	    var ip *errors.InvalidParameterError
//	    if stderrors.As(err, &ip) {
//	        fmt.Println(ip.Field, ip.Constraint)
//	    }
//	}
package params

import (
	"fmt"
	"math"
	"strconv"

	"github.com/quantfocus/semsim/pkg/errors"
)

// Energy bounds in keV.
const (
	MinEnergyKeV = 1.0
	MaxEnergyKeV = 100.0
)

// Canonical field names, used in validation errors and config files.
const (
	FieldEnergy      = "energy_kev"
	FieldCurrent     = "current_na"
	FieldResolution  = "resolution"
	FieldDistance    = "distance_mm"
	FieldThickness   = "thickness_nm"
	FieldAngleStdDev = "angle_stddev_rad"
	FieldElectrons   = "num_electrons"
	FieldMode        = "mode"
)

// Mode identifies the calibration mode of a parameter set.
type Mode int

const (
	// ModeBeam describes a scanning run by probe current, resolution and
	// working distance.
	ModeBeam Mode = iota + 1

	// ModeTransmission describes a run by sample thickness, angular spread
	// and number of simulated electrons.
	ModeTransmission
)

// String returns the mode name used in metadata and config files.
func (m Mode) String() string {
	switch m {
	case ModeBeam:
		return "beam"
	case ModeTransmission:
		return "transmission"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// ParseMode parses a mode name as produced by [Mode.String].
func ParseMode(s string) (Mode, error) {
	switch s {
	case "beam":
		return ModeBeam, nil
	case "transmission":
		return ModeTransmission, nil
	}
	return 0, &errors.InvalidParameterError{
		Field:      FieldMode,
		Constraint: "must be one of: beam, transmission",
		Value:      s,
	}
}

// Fields holds the raw, unvalidated mode-specific values passed to [New].
// Only the fields of the selected mode are read.
type Fields struct {
	// Beam mode
	CurrentNA  float64
	Resolution int
	DistanceMM float64

	// Transmission mode
	ThicknessNM    float64
	AngleStdDevRad float64
	Electrons      int
}

// Set is an immutable, validated parameter set. The zero value is not a
// valid Set; obtain one from a constructor.
type Set struct {
	mode   Mode
	energy float64
	f      Fields
}

// New validates energy and the fields of mode and returns the Set.
// It is the canonical constructor; all others delegate to it.
func New(mode Mode, energyKeV float64, f Fields) (Set, error) {
	if err := errors.ValidateRange(FieldEnergy, energyKeV, MinEnergyKeV, MaxEnergyKeV, "keV"); err != nil {
		return Set{}, err
	}

	var kept Fields
	switch mode {
	case ModeBeam:
		if err := errors.ValidatePositive(FieldCurrent, f.CurrentNA, "nA"); err != nil {
			return Set{}, err
		}
		if err := errors.ValidatePositiveInt(FieldResolution, f.Resolution); err != nil {
			return Set{}, err
		}
		if err := errors.ValidatePositive(FieldDistance, f.DistanceMM, "mm"); err != nil {
			return Set{}, err
		}
		kept = Fields{CurrentNA: f.CurrentNA, Resolution: f.Resolution, DistanceMM: f.DistanceMM}
	case ModeTransmission:
		if err := errors.ValidatePositive(FieldThickness, f.ThicknessNM, "nm"); err != nil {
			return Set{}, err
		}
		if err := errors.ValidateNonNegative(FieldAngleStdDev, f.AngleStdDevRad, "rad"); err != nil {
			return Set{}, err
		}
		if err := errors.ValidatePositiveInt(FieldElectrons, f.Electrons); err != nil {
			return Set{}, err
		}
		kept = Fields{ThicknessNM: f.ThicknessNM, AngleStdDevRad: f.AngleStdDevRad, Electrons: f.Electrons}
	default:
		return Set{}, &errors.InvalidParameterError{
			Field:      FieldMode,
			Constraint: "must be one of: beam, transmission",
			Value:      int(mode),
		}
	}

	return Set{mode: mode, energy: energyKeV, f: kept}, nil
}

// NewBeam returns a beam-mode Set.
func NewBeam(energyKeV, currentNA float64, resolution int, distanceMM float64) (Set, error) {
	return New(ModeBeam, energyKeV, Fields{
		CurrentNA:  currentNA,
		Resolution: resolution,
		DistanceMM: distanceMM,
	})
}

// NewTransmission returns a transmission-mode Set. The angular spread is
// the standard deviation of the scattering angle in radians.
func NewTransmission(energyKeV, thicknessNM, angleStdDevRad float64, electrons int) (Set, error) {
	return New(ModeTransmission, energyKeV, Fields{
		ThicknessNM:    thicknessNM,
		AngleStdDevRad: angleStdDevRad,
		Electrons:      electrons,
	})
}

// NewTransmissionDegrees is like [NewTransmission] with the angular spread
// given in degrees.
func NewTransmissionDegrees(energyKeV, thicknessNM, angleStdDevDeg float64, electrons int) (Set, error) {
	return NewTransmission(energyKeV, thicknessNM, angleStdDevDeg*math.Pi/180, electrons)
}

// Mode returns the calibration mode.
func (s Set) Mode() Mode { return s.mode }

// EnergyKeV returns the beam energy in keV.
func (s Set) EnergyKeV() float64 { return s.energy }

// CurrentNA returns the probe current in nA (beam mode only).
func (s Set) CurrentNA() float64 { return s.f.CurrentNA }

// Resolution returns the image resolution in pixels (beam mode only).
func (s Set) Resolution() int { return s.f.Resolution }

// DistanceMM returns the working distance in mm (beam mode only).
func (s Set) DistanceMM() float64 { return s.f.DistanceMM }

// ThicknessNM returns the sample thickness in nm (transmission mode only).
func (s Set) ThicknessNM() float64 { return s.f.ThicknessNM }

// AngleStdDevRad returns the angular spread in radians (transmission mode only).
func (s Set) AngleStdDevRad() float64 { return s.f.AngleStdDevRad }

// Electrons returns the number of simulated electrons (transmission mode only).
func (s Set) Electrons() int { return s.f.Electrons }

// Fields returns a copy of the mode-specific values.
func (s Set) Fields() Fields { return s.f }

// IsZero reports whether s is the zero value (never constructed).
func (s Set) IsZero() bool { return s.mode == 0 }

// Equal reports whether two sets describe the same run.
func (s Set) Equal(o Set) bool {
	return s.mode == o.mode && s.energy == o.energy && s.f == o.f
}

// EngineArgs returns the engine init arguments in the fixed order of the
// set's mode: (energy, current, resolution, distance) for beam and
// (energy, thickness, angle, electrons) for transmission.
func (s Set) EngineArgs() (energy, p2, p3, p4 float64) {
	if s.mode == ModeTransmission {
		return s.energy, s.f.ThicknessNM, s.f.AngleStdDevRad, float64(s.f.Electrons)
	}
	return s.energy, s.f.CurrentNA, float64(s.f.Resolution), s.f.DistanceMM
}

// String returns a compact human-readable description.
func (s Set) String() string {
	switch s.mode {
	case ModeBeam:
		return fmt.Sprintf("beam{%s keV, %s nA, %d px, %s mm}",
			formatFloat(s.energy), formatFloat(s.f.CurrentNA), s.f.Resolution, formatFloat(s.f.DistanceMM))
	case ModeTransmission:
		return fmt.Sprintf("transmission{%s keV, %s nm, %s rad, %d e-}",
			formatFloat(s.energy), formatFloat(s.f.ThicknessNM), formatFloat(s.f.AngleStdDevRad), s.f.Electrons)
	}
	return "params{}"
}

// formatFloat returns the shortest decimal that parses back to v exactly.
func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
