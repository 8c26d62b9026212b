package export

import (
	"bytes"
	"encoding/binary"
	"hash/crc32"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"golang.org/x/image/tiff"

	"github.com/quantfocus/semsim/pkg/errors"
	"github.com/quantfocus/semsim/pkg/imaging"
	"github.com/quantfocus/semsim/pkg/params"
)

func testRaster() *imaging.Raster {
	return &imaging.Raster{Pix: []byte{0, 255, 128, 64, 10, 20}, Width: 3, Height: 2}
}

func mustBeam(t *testing.T) params.Set {
	t.Helper()
	p, err := params.NewBeam(15, 1.5, 256, 10)
	if err != nil {
		t.Fatal(err)
	}
	return p
}

type chunk struct {
	typ  string
	data []byte
}

func chunks(t *testing.T, b []byte) []chunk {
	t.Helper()
	if !bytes.HasPrefix(b, pngSignature) {
		t.Fatal("missing PNG signature")
	}
	var out []chunk
	for off := len(pngSignature); off < len(b); {
		n := int(binary.BigEndian.Uint32(b[off:]))
		typ := string(b[off+4 : off+8])
		data := b[off+8 : off+8+n]
		crc := binary.BigEndian.Uint32(b[off+8+n:])
		if crc32.ChecksumIEEE(b[off+4:off+8+n]) != crc {
			t.Fatalf("chunk %s: bad CRC", typ)
		}
		out = append(out, chunk{typ, data})
		off += 12 + n
	}
	return out
}

func TestEncodeChunkLayout(t *testing.T) {
	p := mustBeam(t)
	var buf bytes.Buffer
	if err := Encode(&buf, testRaster(), p); err != nil {
		t.Fatal(err)
	}

	cs := chunks(t, buf.Bytes())
	if cs[0].typ != "IHDR" {
		t.Fatalf("first chunk = %s, want IHDR", cs[0].typ)
	}
	// Bit depth 8, color type 0 (grayscale).
	if cs[0].data[8] != 8 || cs[0].data[9] != 0 {
		t.Errorf("IHDR depth/color = %d/%d, want 8/0", cs[0].data[8], cs[0].data[9])
	}

	records := p.Metadata()
	firstIDAT := -1
	var texts []chunk
	for i, c := range cs {
		switch c.typ {
		case "tEXt":
			if firstIDAT >= 0 {
				t.Errorf("tEXt chunk at %d after first IDAT at %d", i, firstIDAT)
			}
			texts = append(texts, c)
		case "IDAT":
			if firstIDAT < 0 {
				firstIDAT = i
			}
		}
	}
	if len(texts) != len(records) {
		t.Fatalf("%d tEXt chunks, want %d", len(texts), len(records))
	}
	for i, rec := range records {
		want := rec.Key + "\x00" + rec.Value
		if string(texts[i].data) != want {
			t.Errorf("tEXt %d = %q, want %q", i, texts[i].data, want)
		}
	}
}

func TestEncodeDecodesPixels(t *testing.T) {
	r := testRaster()
	var buf bytes.Buffer
	if err := Encode(&buf, r, mustBeam(t)); err != nil {
		t.Fatal(err)
	}
	img, err := png.Decode(&buf)
	if err != nil {
		t.Fatal(err)
	}
	g, ok := img.(*image.Gray)
	if !ok {
		t.Fatalf("decoded %T, want *image.Gray", img)
	}
	if g.Bounds().Dx() != 3 || g.Bounds().Dy() != 2 {
		t.Fatalf("bounds = %v", g.Bounds())
	}
	if !bytes.Equal(imaging.FromImage(g).Pix, r.Pix) {
		t.Errorf("pixels = %v, want %v", g.Pix, r.Pix)
	}
}

func TestMetadataRoundTrip(t *testing.T) {
	dir := t.TempDir()
	sets := []params.Set{mustBeam(t)}
	tr, err := params.NewTransmission(20, 100, 0.5, 50000)
	if err != nil {
		t.Fatal(err)
	}
	sets = append(sets, tr)

	for i, p := range sets {
		path := filepath.Join(dir, FileName(i, p, FormatPNG))
		if err := Write(path, testRaster(), p); err != nil {
			t.Fatalf("Write: %v", err)
		}
		md, err := ReadFile(path)
		if err != nil {
			t.Fatalf("ReadFile: %v", err)
		}
		for _, rec := range p.Metadata() {
			if md[rec.Key] != rec.Value {
				t.Errorf("%s = %q, want %q", rec.Key, md[rec.Key], rec.Value)
			}
		}
		back, err := params.FromMetadata(md)
		if err != nil {
			t.Fatal(err)
		}
		if !back.Equal(p) {
			t.Errorf("FromMetadata = %s, want %s", back, p)
		}
	}
}

func TestEncodingErrors(t *testing.T) {
	p := mustBeam(t)
	tests := []struct {
		name string
		r    *imaging.Raster
	}{
		{"short buffer", &imaging.Raster{Pix: []byte{1, 2, 3}, Width: 2, Height: 2}},
		{"zero width", &imaging.Raster{Width: 0, Height: 1}},
		{"nil", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			err := Encode(&buf, tt.r, p)
			if !errors.Is(err, errors.ErrCodeExportEncoding) {
				t.Errorf("Encode() = %v, want EXPORT_ENCODING", err)
			}
			if buf.Len() != 0 {
				t.Error("nothing should be written on encoding failure")
			}
		})
	}
}

func TestWriteIOError(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	if err := os.WriteFile(blocker, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	// A regular file where a directory is needed.
	err := Write(filepath.Join(blocker, "out.png"), testRaster(), mustBeam(t))
	if !errors.Is(err, errors.ErrCodeExportIO) {
		t.Errorf("Write() = %v, want EXPORT_IO", err)
	}
}

func TestReadMetadataErrors(t *testing.T) {
	if _, err := ReadMetadata(bytes.NewReader([]byte("GIF89a"))); !errors.Is(err, errors.ErrCodeInvalidFormat) {
		t.Errorf("non-PNG error = %v", err)
	}

	var buf bytes.Buffer
	if err := Encode(&buf, testRaster(), mustBeam(t)); err != nil {
		t.Fatal(err)
	}
	b := buf.Bytes()
	// Corrupt the first byte of the first tEXt keyword.
	b[ihdrEnd+8] ^= 0xff
	if _, err := ReadMetadata(bytes.NewReader(b)); !errors.Is(err, errors.ErrCodeInvalidFormat) {
		t.Errorf("corrupt CRC error = %v", err)
	}

	if _, err := ReadFile(filepath.Join(t.TempDir(), "missing.png")); !errors.Is(err, errors.ErrCodeFileNotFound) {
		t.Errorf("missing file error = %v", err)
	}
}

func TestTIFFWithSidecar(t *testing.T) {
	dir := t.TempDir()
	p := mustBeam(t)
	path := filepath.Join(dir, "scan.tiff")
	if err := WriteTIFF(path, testRaster(), p); err != nil {
		t.Fatal(err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	img, err := tiff.Decode(f)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(imaging.FromImage(img).Pix, testRaster().Pix) {
		t.Error("TIFF pixels differ")
	}

	md, err := ReadAny(path)
	if err != nil {
		t.Fatal(err)
	}
	back, err := params.FromMetadata(md)
	if err != nil {
		t.Fatal(err)
	}
	if !back.Equal(p) {
		t.Errorf("sidecar params = %s, want %s", back, p)
	}
}

func TestExporter(t *testing.T) {
	dir := t.TempDir()
	ex, err := NewExporter(dir, FormatPNG, FormatTIFF, FormatPNG)
	if err != nil {
		t.Fatal(err)
	}
	if got := ex.Formats(); len(got) != 2 {
		t.Errorf("Formats() = %v, want deduplicated png, tiff", got)
	}

	p := mustBeam(t)
	paths, err := ex.Export(3, testRaster(), p)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{
		filepath.Join(dir, "0003_beam_15keV.png"),
		filepath.Join(dir, "0003_beam_15keV.tiff"),
	}
	if len(paths) != len(want) {
		t.Fatalf("paths = %v, want %v", paths, want)
	}
	for i := range want {
		if paths[i] != want[i] {
			t.Errorf("paths[%d] = %s, want %s", i, paths[i], want[i])
		}
		if _, err := os.Stat(want[i]); err != nil {
			t.Error(err)
		}
	}
	if _, err := os.Stat(want[1] + SidecarSuffix); err != nil {
		t.Errorf("missing sidecar: %v", err)
	}

	for _, path := range want {
		r, err := ReadImage(path)
		if err != nil {
			t.Fatalf("ReadImage(%s): %v", path, err)
		}
		if r.Width != 3 || r.Height != 2 || !bytes.Equal(r.Pix, testRaster().Pix) {
			t.Errorf("ReadImage(%s) = %dx%d %v", path, r.Width, r.Height, r.Pix)
		}
	}
	if _, err := ReadImage(filepath.Join(dir, "missing.png")); !errors.Is(err, errors.ErrCodeFileNotFound) {
		t.Errorf("ReadImage(missing) = %v", err)
	}
}

func TestNewExporterErrors(t *testing.T) {
	if _, err := NewExporter(""); !errors.Is(err, errors.ErrCodeInvalidConfig) {
		t.Errorf("empty dir error = %v", err)
	}
	if _, err := NewExporter(t.TempDir(), Format("bmp")); !errors.Is(err, errors.ErrCodeInvalidConfig) {
		t.Errorf("bad format error = %v", err)
	}
}

func TestParseFormat(t *testing.T) {
	tests := map[string]Format{"png": FormatPNG, "PNG": FormatPNG, "tif": FormatTIFF, " tiff ": FormatTIFF}
	for in, want := range tests {
		got, err := ParseFormat(in)
		if err != nil || got != want {
			t.Errorf("ParseFormat(%q) = %q, %v", in, got, err)
		}
	}
}

func TestFileName(t *testing.T) {
	tr, _ := params.NewTransmission(12.5, 100, 0.5, 10)
	if got := FileName(12, tr, FormatPNG); got != "0012_transmission_12.5keV.png" {
		t.Errorf("FileName() = %q", got)
	}
}
