package buildinfo

import (
	"strings"
	"testing"
)

func TestString(t *testing.T) {
	old := Version
	defer func() { Version = old }()
	Version = "v9.9.9"

	s := String()
	for _, want := range []string{"version: v9.9.9", "commit: ", "engine: "} {
		if !strings.Contains(s, want) {
			t.Errorf("String() = %q, missing %q", s, want)
		}
	}
	if !strings.HasPrefix(Template(), "{{.Name}} version v9.9.9\n") {
		t.Errorf("Template() = %q", Template())
	}
}
