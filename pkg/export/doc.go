// Package export writes formed rasters to disk with their simulation
// parameters embedded.
//
// # PNG
//
// [Encode] and [Write] produce an 8-bit grayscale PNG. Every metadata record
// of the parameter set becomes one tEXt chunk, placed after IHDR and before
// the first IDAT so that readers that stop early still see it:
//
//	Calibration_mode = beam
//	Energy_keV       = 15
//	Current_nA       = 1.5
//	Resolution_px    = 256
//	Distance_mm      = 10
//
// [ReadMetadata] and [ReadFile] recover the records, and params.FromMetadata
// turns them back into a parameter set.
//
// # TIFF
//
// TIFF output carries pixels only. The parameter records go to a TOML
// sidecar next to the image (image.tiff.meta.toml).
//
// # Errors
//
// Filesystem failures carry the EXPORT_IO code and malformed rasters or
// encoder failures carry EXPORT_ENCODING. An export error never affects the
// in-memory raster or other exports.
package export
