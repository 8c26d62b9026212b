package cli

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
)

func TestNewLoggerLevels(t *testing.T) {
	tests := []struct {
		name  string
		level log.Level
		emit  func(*log.Logger)
		want  bool
	}{
		{"info at info", log.InfoLevel, func(l *log.Logger) { l.Info("grid cached") }, true},
		{"debug at info", log.InfoLevel, func(l *log.Logger) { l.Debug("grid cached") }, false},
		{"debug at debug", log.DebugLevel, func(l *log.Logger) { l.Debug("grid cached") }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			tt.emit(newLogger(&buf, tt.level))
			if got := buf.Len() > 0; got != tt.want {
				t.Errorf("logged = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestProgressDone(t *testing.T) {
	var buf bytes.Buffer
	p := newProgress(newLogger(&buf, log.InfoLevel))
	p.start = time.Now().Add(-5 * time.Millisecond)
	p.done("Loaded 3 jobs from jobs.toml")

	out := buf.String()
	if !strings.Contains(out, "Loaded 3 jobs from jobs.toml (") {
		t.Errorf("done() output = %q", out)
	}
	if !strings.Contains(out, "ms)") {
		t.Errorf("done() should report the elapsed time: %q", out)
	}
}

func TestLoggerFromContext(t *testing.T) {
	if loggerFromContext(context.Background()) != log.Default() {
		t.Error("an empty context should yield log.Default()")
	}

	custom := newLogger(io.Discard, log.WarnLevel)
	if loggerFromContext(withLogger(context.Background(), custom)) != custom {
		t.Error("loggerFromContext should return the attached logger")
	}
}

func TestSetLogLevelReachesCommands(t *testing.T) {
	var logs bytes.Buffer
	c := New(&logs, LogInfo)
	c.out = io.Discard
	c.SetLogLevel(LogDebug)

	root := c.RootCommand()
	root.SetArgs([]string{"simulate", "-m", "beam", "-e", "10", "--current", "1",
		"--resolution", "4", "--distance", "5", "--no-export", "-o", t.TempDir()})
	if err := root.ExecuteContext(context.Background()); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(logs.String(), "DEBU") {
		t.Errorf("debug level should reach the pipeline logger:\n%s", logs.String())
	}
}
