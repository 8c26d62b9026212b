package imaging

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/quantfocus/semsim/pkg/errors"
)

func TestBuiltinTables(t *testing.T) {
	id, inv := Identity(), Invert()
	for i := 0; i < 256; i++ {
		if id[i] != byte(i) {
			t.Fatalf("Identity()[%d] = %d", i, id[i])
		}
		if inv[i] != byte(255-i) {
			t.Fatalf("Invert()[%d] = %d", i, inv[i])
		}
	}

	g, err := GammaTable(1)
	if err != nil {
		t.Fatal(err)
	}
	if *g != *id {
		t.Error("GammaTable(1) should equal Identity()")
	}
	g2, _ := GammaTable(2.2)
	if g2[0] != 0 || g2[255] != 255 || g2[64] <= 64 {
		t.Errorf("GammaTable(2.2) endpoints/brightening wrong: %d %d %d", g2[0], g2[255], g2[64])
	}
	if _, err := GammaTable(0); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("GammaTable(0) error = %v", err)
	}
}

func TestLoadLUT(t *testing.T) {
	dir := t.TempDir()

	raw := make([]byte, 256)
	for i := range raw {
		raw[i] = byte(255 - i)
	}
	raw[0] = 0xff
	rawPath := filepath.Join(dir, "raw.lut")
	if err := os.WriteFile(rawPath, raw, 0o644); err != nil {
		t.Fatal(err)
	}
	lut, err := LoadLUT(rawPath)
	if err != nil {
		t.Fatalf("raw: %v", err)
	}
	if *lut != *Invert() {
		t.Error("raw LUT should match Invert()")
	}

	var sb strings.Builder
	sb.WriteString("# inverted\n")
	for i := 0; i < 256; i++ {
		sb.WriteString(strconv.Itoa(255 - i))
		sb.WriteByte('\n')
	}
	textPath := filepath.Join(dir, "text.lut")
	if err := os.WriteFile(textPath, []byte(sb.String()), 0o644); err != nil {
		t.Fatal(err)
	}
	lut, err = LoadLUT(textPath)
	if err != nil {
		t.Fatalf("text: %v", err)
	}
	if *lut != *Invert() {
		t.Error("text LUT should match Invert()")
	}
}

func TestLoadLUTErrors(t *testing.T) {
	dir := t.TempDir()
	write := func(name, content string) string {
		p := filepath.Join(dir, name)
		if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
		return p
	}

	tests := []struct {
		name string
		path string
		code errors.Code
	}{
		{"missing", filepath.Join(dir, "nope.lut"), errors.ErrCodeFileNotFound},
		{"too few", write("few.lut", "1\n2\n3\n"), errors.ErrCodeInvalidFormat},
		{"out of range", write("range.lut", "256\n"), errors.ErrCodeInvalidFormat},
		{"not a number", write("nan.lut", "abc\n"), errors.ErrCodeInvalidFormat},
		{"too many", write("many.lut", strings.Repeat("1\n", 257)), errors.ErrCodeInvalidFormat},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadLUT(tt.path)
			if !errors.Is(err, tt.code) {
				t.Errorf("error = %v, want %s", err, tt.code)
			}
		})
	}
}

func TestResolveLUT(t *testing.T) {
	if lut, err := ResolveLUT(""); lut != nil || err != nil {
		t.Errorf(`ResolveLUT("") = %v, %v`, lut, err)
	}
	if lut, _ := ResolveLUT("invert"); lut == nil || *lut != *Invert() {
		t.Error(`ResolveLUT("invert") mismatch`)
	}
	if lut, err := ResolveLUT("gamma:2"); err != nil || lut[64] <= 64 {
		t.Errorf(`ResolveLUT("gamma:2") = %v`, err)
	}
	if _, err := ResolveLUT("gamma:x"); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf(`ResolveLUT("gamma:x") error = %v`, err)
	}
}
