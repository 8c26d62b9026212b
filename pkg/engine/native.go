//go:build semengine

package engine

/*
#cgo LDFLAGS: -lsem_sim -lgfortran -lm
#include <stdlib.h>
#include "sem_sim_c.h"
*/
import "C"

import (
	"unsafe"

	"github.com/quantfocus/semsim/pkg/params"
)

// Native binds the linked Fortran scattering engine. The library keeps a
// single global simulation state, so at most one Native should exist per
// process and it must be driven through a [Client].
type Native struct{}

// NewNative returns the handle to the linked engine.
func NewNative() *Native { return &Native{} }

// Name implements [Namer].
func (*Native) Name() string { return "native" }

// Supports implements [ModeSupporter]. The native library only exposes the
// beam calibration.
func (*Native) Supports(mode params.Mode) bool { return mode == params.ModeBeam }

// Init implements [Engine].
func (*Native) Init(_ params.Mode, energy, current, resolution, distance float64) {
	C.c_init_simulation(C.double(energy), C.double(current), C.int(resolution), C.double(distance))
}

// Run implements [Engine].
func (*Native) Run() { C.c_run_simulation() }

// ScatterData implements [Engine].
func (*Native) ScatterData() ([]float64, int, int) {
	var (
		ptr        *C.double
		rows, cols C.int
	)
	C.c_get_scatter_data(&ptr, &rows, &cols)
	return view(ptr, int(rows)*int(cols)), int(rows), int(cols)
}

// ImageData implements [Engine].
func (*Native) ImageData() ([]float64, int, int) {
	var (
		ptr           *C.double
		width, height C.int
	)
	C.c_get_image_data(&ptr, &width, &height)
	return view(ptr, int(width)*int(height)), int(width), int(height)
}

// view exposes engine memory without copying. The dimensions reported by
// the engine are the only length information available, so the slice is
// sized from them and copyOut performs the remaining checks.
func view(ptr *C.double, n int) []float64 {
	if ptr == nil {
		return nil
	}
	if n <= 0 {
		return []float64{}
	}
	return unsafe.Slice((*float64)(unsafe.Pointer(ptr)), n)
}
