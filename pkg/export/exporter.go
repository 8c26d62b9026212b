package export

import (
	stderrors "errors"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"golang.org/x/image/tiff"

	"github.com/quantfocus/semsim/pkg/errors"
	"github.com/quantfocus/semsim/pkg/imaging"
	"github.com/quantfocus/semsim/pkg/params"
)

// Format is an output image format.
type Format string

// Supported output formats.
const (
	FormatPNG  Format = "png"
	FormatTIFF Format = "tiff"
)

// ParseFormat maps a case-insensitive name to a Format. "tif" is accepted
// as an alias for tiff.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "png":
		return FormatPNG, nil
	case "tiff", "tif":
		return FormatTIFF, nil
	default:
		return "", errors.New(errors.ErrCodeInvalidConfig, "unsupported output format %q (want png or tiff)", s)
	}
}

// Exporter writes rasters into one output directory in one or more formats.
// It is safe for concurrent use; distinct indexes never share a file.
type Exporter struct {
	dir     string
	formats []Format
}

// NewExporter returns an exporter writing to dir. With no formats, PNG is
// written.
func NewExporter(dir string, formats ...Format) (*Exporter, error) {
	if err := errors.ValidateOutputDir(dir); err != nil {
		return nil, err
	}
	if len(formats) == 0 {
		formats = []Format{FormatPNG}
	}
	seen := make(map[Format]bool, len(formats))
	var uniq []Format
	for _, f := range formats {
		f, err := ParseFormat(string(f))
		if err != nil {
			return nil, err
		}
		if !seen[f] {
			seen[f] = true
			uniq = append(uniq, f)
		}
	}
	return &Exporter{dir: dir, formats: uniq}, nil
}

// Dir returns the output directory.
func (e *Exporter) Dir() string { return e.dir }

// Formats returns the configured formats.
func (e *Exporter) Formats() []Format { return append([]Format(nil), e.formats...) }

// FileName returns the file name for job index in format f, for example
// 0003_beam_15keV.png.
func FileName(index int, p params.Set, f Format) string {
	energy := strconv.FormatFloat(p.EnergyKeV(), 'f', -1, 64)
	return fmt.Sprintf("%04d_%s_%skeV.%s", index, p.Mode(), energy, f)
}

// Export writes r in every configured format and returns the paths written.
// Paths of formats that succeeded are returned even when another fails.
func (e *Exporter) Export(index int, r *imaging.Raster, p params.Set) ([]string, error) {
	var (
		paths []string
		errs  []error
	)
	for _, f := range e.formats {
		path := filepath.Join(e.dir, FileName(index, p, f))
		var err error
		switch f {
		case FormatTIFF:
			err = WriteTIFF(path, r, p)
		default:
			err = Write(path, r, p)
		}
		if err != nil {
			errs = append(errs, err)
			continue
		}
		paths = append(paths, path)
	}
	return paths, stderrors.Join(errs...)
}

// ReadAny returns the metadata records for an exported image, reading
// tEXt chunks from PNG files and the sidecar of TIFF files.
func ReadAny(path string) (map[string]string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".tif", ".tiff", ".toml":
		return ReadSidecar(path)
	default:
		return ReadFile(path)
	}
}

// ReadImage decodes an exported PNG or TIFF file into a raster.
func ReadImage(path string) (*imaging.Raster, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "open %s", path)
		}
		return nil, errors.Wrap(errors.ErrCodeExportIO, err, "open %s", path)
	}
	defer f.Close()

	var img image.Image
	switch strings.ToLower(filepath.Ext(path)) {
	case ".tif", ".tiff":
		img, err = tiff.Decode(f)
	default:
		img, err = png.Decode(f)
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode %s", path)
	}
	return imaging.FromImage(img), nil
}
