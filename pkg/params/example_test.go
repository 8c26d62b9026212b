package params_test

import (
	"errors"
	"fmt"

	semerrors "github.com/quantfocus/semsim/pkg/errors"
	"github.com/quantfocus/semsim/pkg/params"
)

func ExampleNewBeam() {
	p, err := params.NewBeam(15, 1.5, 256, 10)
	if err != nil {
		panic(err)
	}
	for _, r := range p.Metadata() {
		fmt.Printf("%s=%s\n", r.Key, r.Value)
	}
	// Output:
	// Calibration_mode=beam
	// Energy_keV=15
	// Current_nA=1.5
	// Resolution_px=256
	// Distance_mm=10
}

func ExampleNew_invalid() {
	_, err := params.NewTransmission(0.5, 100, 0.5, 50000)

	var ip *semerrors.InvalidParameterError
	if errors.As(err, &ip) {
		fmt.Println(ip.Field)
	}
	// Output:
	// energy_kev
}
