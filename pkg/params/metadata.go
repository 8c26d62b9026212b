package params

import (
	"strconv"

	"github.com/quantfocus/semsim/pkg/errors"
)

// Metadata keys. The key set written for a Set depends on its mode.
const (
	KeyMode        = "Calibration_mode"
	KeyEnergy      = "Energy_keV"
	KeyCurrent     = "Current_nA"
	KeyResolution  = "Resolution_px"
	KeyDistance    = "Distance_mm"
	KeyThickness   = "Thickness_nm"
	KeyAngleStdDev = "Angle_stddev_rad"
	KeyElectrons   = "Num_electrons"
)

// Record is one named text metadata entry.
type Record struct {
	Key   string
	Value string
}

// Metadata returns the set's fields as ordered text records: the mode,
// the energy, then the mode-specific fields. Numeric values use the
// shortest representation that parses back to the same value.
func (s Set) Metadata() []Record {
	recs := []Record{
		{KeyMode, s.mode.String()},
		{KeyEnergy, formatFloat(s.energy)},
	}
	switch s.mode {
	case ModeBeam:
		recs = append(recs,
			Record{KeyCurrent, formatFloat(s.f.CurrentNA)},
			Record{KeyResolution, strconv.Itoa(s.f.Resolution)},
			Record{KeyDistance, formatFloat(s.f.DistanceMM)},
		)
	case ModeTransmission:
		recs = append(recs,
			Record{KeyThickness, formatFloat(s.f.ThicknessNM)},
			Record{KeyAngleStdDev, formatFloat(s.f.AngleStdDevRad)},
			Record{KeyElectrons, strconv.Itoa(s.f.Electrons)},
		)
	}
	return recs
}

// MetadataKeys returns the ordered metadata keys written for mode.
func MetadataKeys(mode Mode) []string {
	switch mode {
	case ModeBeam:
		return []string{KeyMode, KeyEnergy, KeyCurrent, KeyResolution, KeyDistance}
	case ModeTransmission:
		return []string{KeyMode, KeyEnergy, KeyThickness, KeyAngleStdDev, KeyElectrons}
	}
	return nil
}

// FromMetadata rebuilds a Set from text records such as those produced by
// [Set.Metadata]. Unknown keys are ignored. Missing or malformed keys are
// reported as *errors.InvalidParameterError; the rebuilt values go through
// the same validation as any other constructor.
func FromMetadata(md map[string]string) (Set, error) {
	modeStr, ok := md[KeyMode]
	if !ok {
		return Set{}, &errors.InvalidParameterError{Field: FieldMode, Constraint: "missing " + KeyMode + " record"}
	}
	mode, err := ParseMode(modeStr)
	if err != nil {
		return Set{}, err
	}

	r := recordReader{md: md}
	energy := r.float(KeyEnergy, FieldEnergy)

	var f Fields
	switch mode {
	case ModeBeam:
		f.CurrentNA = r.float(KeyCurrent, FieldCurrent)
		f.Resolution = r.int(KeyResolution, FieldResolution)
		f.DistanceMM = r.float(KeyDistance, FieldDistance)
	case ModeTransmission:
		f.ThicknessNM = r.float(KeyThickness, FieldThickness)
		f.AngleStdDevRad = r.float(KeyAngleStdDev, FieldAngleStdDev)
		f.Electrons = r.int(KeyElectrons, FieldElectrons)
	}
	if r.err != nil {
		return Set{}, r.err
	}
	return New(mode, energy, f)
}

// recordReader parses records and keeps the first error.
type recordReader struct {
	md  map[string]string
	err error
}

func (r *recordReader) raw(key, field string) (string, bool) {
	if r.err != nil {
		return "", false
	}
	v, ok := r.md[key]
	if !ok {
		r.err = &errors.InvalidParameterError{Field: field, Constraint: "missing " + key + " record"}
	}
	return v, ok
}

func (r *recordReader) float(key, field string) float64 {
	v, ok := r.raw(key, field)
	if !ok {
		return 0
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		r.err = &errors.InvalidParameterError{Field: field, Constraint: "not a number", Value: v}
	}
	return f
}

func (r *recordReader) int(key, field string) int {
	v, ok := r.raw(key, field)
	if !ok {
		return 0
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		r.err = &errors.InvalidParameterError{Field: field, Constraint: "not an integer", Value: v}
	}
	return n
}
