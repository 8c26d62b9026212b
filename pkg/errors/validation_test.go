package errors

import (
	"errors"
	"math"
	"testing"
)

func TestValidateRange(t *testing.T) {
	tests := []struct {
		name    string
		v       float64
		wantErr bool
	}{
		{"lower bound", 1.0, false},
		{"upper bound", 100.0, false},
		{"inside", 15.0, false},
		{"below", 0.5, true},
		{"above", 100.01, true},
		{"nan", math.NaN(), true},
		{"inf", math.Inf(1), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateRange("energy_kev", tt.v, 1, 100, "keV")
			if (err != nil) != tt.wantErr {
				t.Fatalf("ValidateRange(%v) error = %v, wantErr %v", tt.v, err, tt.wantErr)
			}
			if err == nil {
				return
			}
			var ip *InvalidParameterError
			if !errors.As(err, &ip) || ip.Field != "energy_kev" {
				t.Errorf("error should be InvalidParameterError for energy_kev, got %v", err)
			}
		})
	}
}

func TestValidatePositiveAndNonNegative(t *testing.T) {
	if err := ValidatePositive("current_na", 0, "nA"); err == nil {
		t.Error("zero should not be positive")
	}
	if err := ValidatePositive("current_na", 0.1, "nA"); err != nil {
		t.Errorf("0.1 should be positive: %v", err)
	}
	if err := ValidateNonNegative("angle_stddev_rad", 0, "rad"); err != nil {
		t.Errorf("zero should be non-negative: %v", err)
	}
	if err := ValidateNonNegative("angle_stddev_rad", -0.1, "rad"); err == nil {
		t.Error("-0.1 should be rejected")
	}
	if err := ValidatePositiveInt("resolution", 0); err == nil {
		t.Error("resolution 0 should be rejected")
	}
}

func TestValidateOutputDir(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"relative", "out", false},
		{"absolute", "/tmp/out", false},
		{"empty", "", true},
		{"too long", string(make([]byte, 600)), true},
		{"control char", "out\x01dir", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateOutputDir(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateOutputDir(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}
