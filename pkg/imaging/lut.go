package imaging

import (
	"bufio"
	"bytes"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/quantfocus/semsim/pkg/errors"
)

// LookupTable maps each quantized byte to an output byte.
type LookupTable [256]byte

// Identity returns the table that leaves every byte unchanged.
func Identity() *LookupTable {
	var t LookupTable
	for i := range t {
		t[i] = byte(i)
	}
	return &t
}

// Invert returns the table that maps b to 255-b.
func Invert() *LookupTable {
	var t LookupTable
	for i := range t {
		t[i] = byte(255 - i)
	}
	return &t
}

// GammaTable returns a display-gamma curve applied after quantization.
func GammaTable(gamma float64) (*LookupTable, error) {
	if math.IsNaN(gamma) || math.IsInf(gamma, 0) || gamma <= 0 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "LUT gamma must be a positive finite number, got %g", gamma)
	}
	var t LookupTable
	for i := range t {
		t[i] = byte(math.Round(255 * math.Pow(float64(i)/255, 1/gamma)))
	}
	return &t, nil
}

// LoadLUT reads a table from path. Two layouts are accepted: exactly 256
// raw bytes, or 256 lines holding one integer in [0, 255] each. Blank lines
// and lines starting with '#' are ignored in the text layout.
func LoadLUT(path string) (*LookupTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "LUT file %s", path)
		}
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "read LUT %s", path)
	}
	if len(data) == 256 && !isText(data) {
		var t LookupTable
		copy(t[:], data)
		return &t, nil
	}
	return parseTextLUT(path, data)
}

func parseTextLUT(path string, data []byte) (*LookupTable, error) {
	var t LookupTable
	n := 0
	sc := bufio.NewScanner(bytes.NewReader(data))
	for line := 1; sc.Scan(); line++ {
		s := strings.TrimSpace(sc.Text())
		if s == "" || strings.HasPrefix(s, "#") {
			continue
		}
		v, err := strconv.Atoi(s)
		if err != nil || v < 0 || v > 255 {
			return nil, errors.New(errors.ErrCodeInvalidFormat, "%s:%d: %q is not a byte value", path, line, s)
		}
		if n == len(t) {
			return nil, errors.New(errors.ErrCodeInvalidFormat, "%s: more than 256 entries", path)
		}
		t[n] = byte(v)
		n++
	}
	if n != len(t) {
		return nil, errors.New(errors.ErrCodeInvalidFormat, "%s: %d entries, want 256", path, n)
	}
	return &t, nil
}

func isText(data []byte) bool {
	for _, b := range data {
		if (b < '0' || b > '9') && b != '\n' && b != '\r' && b != ' ' && b != '\t' && b != '#' {
			return false
		}
	}
	return true
}

// ResolveLUT interprets a LUT name as used in job files and flags:
// "" or "none" for no table, "identity", "invert", "gamma:<g>", or a path
// to a LUT file.
func ResolveLUT(name string) (*LookupTable, error) {
	switch {
	case name == "" || name == "none":
		return nil, nil
	case name == "identity":
		return Identity(), nil
	case name == "invert":
		return Invert(), nil
	case strings.HasPrefix(name, "gamma:"):
		g, err := strconv.ParseFloat(strings.TrimPrefix(name, "gamma:"), 64)
		if err != nil {
			return nil, errors.New(errors.ErrCodeInvalidInput, "invalid LUT %q: %v", name, err)
		}
		return GammaTable(g)
	default:
		return LoadLUT(name)
	}
}
