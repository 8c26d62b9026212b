package export

import (
	"bytes"
	"encoding/binary"
	"hash/crc32"
	"image/png"
	"io"
	"os"
	"path/filepath"

	"github.com/quantfocus/semsim/pkg/errors"
	"github.com/quantfocus/semsim/pkg/imaging"
	"github.com/quantfocus/semsim/pkg/params"
)

var pngSignature = []byte("\x89PNG\r\n\x1a\n")

// ihdrEnd is the offset just past the IHDR chunk: signature, then length,
// type, 13 data bytes and CRC.
const ihdrEnd = 8 + 4 + 4 + 13 + 4

// Encode writes r to w as an 8-bit grayscale PNG with one tEXt chunk per
// metadata record of p.
func Encode(w io.Writer, r *imaging.Raster, p params.Set) error {
	data, err := encodePNG(r, p.Metadata())
	if err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		return errors.Wrap(errors.ErrCodeExportIO, err, "write png")
	}
	return nil
}

// Write encodes r to a PNG file at path. The file is written to a
// temporary name and renamed into place, so a failed export never leaves a
// truncated image behind.
func Write(path string, r *imaging.Raster, p params.Set) error {
	data, err := encodePNG(r, p.Metadata())
	if err != nil {
		return err
	}
	return writeFileAtomic(path, data)
}

func encodePNG(r *imaging.Raster, records []params.Record) ([]byte, error) {
	if err := r.Validate(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeExportEncoding, err, "invalid raster")
	}

	var buf bytes.Buffer
	enc := png.Encoder{CompressionLevel: png.DefaultCompression}
	if err := enc.Encode(&buf, r.Image()); err != nil {
		return nil, errors.Wrap(errors.ErrCodeExportEncoding, err, "encode png")
	}
	encoded := buf.Bytes()
	if len(encoded) < ihdrEnd || string(encoded[12:16]) != "IHDR" {
		return nil, errors.New(errors.ErrCodeExportEncoding, "png encoder produced no IHDR chunk")
	}

	var text bytes.Buffer
	for _, rec := range records {
		if err := writeTextChunk(&text, rec.Key, rec.Value); err != nil {
			return nil, err
		}
	}

	out := make([]byte, 0, len(encoded)+text.Len())
	out = append(out, encoded[:ihdrEnd]...)
	out = append(out, text.Bytes()...)
	out = append(out, encoded[ihdrEnd:]...)
	return out, nil
}

// writeTextChunk appends a tEXt chunk: keyword, NUL separator, text.
func writeTextChunk(w *bytes.Buffer, key, value string) error {
	if len(key) == 0 || len(key) > 79 {
		return errors.New(errors.ErrCodeExportEncoding, "tEXt keyword %q must be 1-79 bytes", key)
	}
	if bytes.IndexByte([]byte(key), 0) >= 0 || bytes.IndexByte([]byte(value), 0) >= 0 {
		return errors.New(errors.ErrCodeExportEncoding, "tEXt record %q contains a NUL byte", key)
	}

	body := make([]byte, 0, 4+len(key)+1+len(value))
	body = append(body, "tEXt"...)
	body = append(body, key...)
	body = append(body, 0)
	body = append(body, value...)

	var n [4]byte
	binary.BigEndian.PutUint32(n[:], uint32(len(body)-4))
	w.Write(n[:])
	w.Write(body)
	binary.BigEndian.PutUint32(n[:], crc32.ChecksumIEEE(body))
	w.Write(n[:])
	return nil
}

// ReadMetadata returns every tEXt record in the PNG stream read from r.
// Chunk CRCs are verified.
func ReadMetadata(r io.Reader) (map[string]string, error) {
	sig := make([]byte, len(pngSignature))
	if _, err := io.ReadFull(r, sig); err != nil || !bytes.Equal(sig, pngSignature) {
		return nil, errors.New(errors.ErrCodeInvalidFormat, "not a PNG stream")
	}

	md := make(map[string]string)
	var hdr [8]byte
	for {
		if _, err := io.ReadFull(r, hdr[:]); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "truncated PNG chunk header")
		}
		length := binary.BigEndian.Uint32(hdr[:4])
		typ := string(hdr[4:8])
		if length > 1<<30 {
			return nil, errors.New(errors.ErrCodeInvalidFormat, "PNG chunk %q too large", typ)
		}

		if typ != "tEXt" {
			if _, err := io.CopyN(io.Discard, r, int64(length)+4); err != nil {
				return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "truncated PNG chunk %q", typ)
			}
			if typ == "IEND" {
				return md, nil
			}
			continue
		}

		body := make([]byte, 4+length+4)
		copy(body, hdr[4:8])
		if _, err := io.ReadFull(r, body[4:]); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "truncated tEXt chunk")
		}
		data, crc := body[:4+length], binary.BigEndian.Uint32(body[4+length:])
		if crc32.ChecksumIEEE(data) != crc {
			return nil, errors.New(errors.ErrCodeInvalidFormat, "tEXt chunk CRC mismatch")
		}
		key, value, ok := bytes.Cut(data[4:], []byte{0})
		if !ok {
			return nil, errors.New(errors.ErrCodeInvalidFormat, "tEXt chunk without keyword separator")
		}
		md[string(key)] = string(value)
	}
}

// ReadFile returns the tEXt records of the PNG file at path.
func ReadFile(path string) (map[string]string, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "open %s", path)
		}
		return nil, errors.Wrap(errors.ErrCodeExportIO, err, "open %s", path)
	}
	defer f.Close()
	return ReadMetadata(f)
}

func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return errors.Wrap(errors.ErrCodeExportIO, err, "create %s", dir)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return errors.Wrap(errors.ErrCodeExportIO, err, "create %s", path)
	}
	if err := tmp.Chmod(0644); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return errors.Wrap(errors.ErrCodeExportIO, err, "chmod %s", path)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return errors.Wrap(errors.ErrCodeExportIO, err, "write %s", path)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return errors.Wrap(errors.ErrCodeExportIO, err, "write %s", path)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return errors.Wrap(errors.ErrCodeExportIO, err, "rename to %s", path)
	}
	return nil
}
