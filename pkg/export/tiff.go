package export

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"golang.org/x/image/tiff"

	"github.com/quantfocus/semsim/pkg/errors"
	"github.com/quantfocus/semsim/pkg/imaging"
	"github.com/quantfocus/semsim/pkg/params"
)

// SidecarSuffix is appended to a TIFF path to name its metadata file.
const SidecarSuffix = ".meta.toml"

// sidecar is the TOML document written next to a TIFF image.
type sidecar struct {
	Image    string            `toml:"image"`
	Metadata map[string]string `toml:"metadata"`
}

// EncodeTIFF writes r to w as a deflate-compressed grayscale TIFF.
func EncodeTIFF(w io.Writer, r *imaging.Raster) error {
	if err := r.Validate(); err != nil {
		return errors.Wrap(errors.ErrCodeExportEncoding, err, "invalid raster")
	}
	var buf bytes.Buffer
	if err := tiff.Encode(&buf, r.Image(), &tiff.Options{Compression: tiff.Deflate}); err != nil {
		return errors.Wrap(errors.ErrCodeExportEncoding, err, "encode tiff")
	}
	if _, err := w.Write(buf.Bytes()); err != nil {
		return errors.Wrap(errors.ErrCodeExportIO, err, "write tiff")
	}
	return nil
}

// WriteTIFF writes r to path and its parameter records to
// path+SidecarSuffix.
func WriteTIFF(path string, r *imaging.Raster, p params.Set) error {
	var img bytes.Buffer
	if err := EncodeTIFF(&img, r); err != nil {
		return err
	}

	doc := sidecar{Image: filepath.Base(path), Metadata: make(map[string]string)}
	for _, rec := range p.Metadata() {
		doc.Metadata[rec.Key] = rec.Value
	}
	var meta bytes.Buffer
	if err := toml.NewEncoder(&meta).Encode(doc); err != nil {
		return errors.Wrap(errors.ErrCodeExportEncoding, err, "encode sidecar")
	}

	if err := writeFileAtomic(path, img.Bytes()); err != nil {
		return err
	}
	return writeFileAtomic(path+SidecarSuffix, meta.Bytes())
}

// ReadSidecar returns the parameter records stored next to a TIFF image.
// path may name either the image or the sidecar itself.
func ReadSidecar(path string) (map[string]string, error) {
	if !strings.HasSuffix(path, SidecarSuffix) {
		path += SidecarSuffix
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "open %s", path)
		}
		return nil, errors.Wrap(errors.ErrCodeExportIO, err, "read %s", path)
	}
	var doc sidecar
	if _, err := toml.Decode(string(data), &doc); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "parse %s", path)
	}
	if doc.Metadata == nil {
		doc.Metadata = map[string]string{}
	}
	return doc.Metadata, nil
}
