package cli

import (
	"context"
	stderrors "errors"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/quantfocus/semsim/pkg/buildinfo"
	"github.com/quantfocus/semsim/pkg/cache"
	"github.com/quantfocus/semsim/pkg/config"
	"github.com/quantfocus/semsim/pkg/engine"
	"github.com/quantfocus/semsim/pkg/errors"
	"github.com/quantfocus/semsim/pkg/export"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for directories and display.
	appName = "semsim"

	// minPreviewWidth is the smallest width, in pixels, a raster is shown at.
	minPreviewWidth = 320
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	// out receives command output; tests swap it for a buffer.
	out io.Writer
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: newLogger(w, level),
		out:    os.Stdout,
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "semsim simulates electron microscope images",
		Long: `semsim drives an electron-scattering engine over batches of parameter sets,
forms 8-bit grayscale images from the rendered grids and exports them with the
parameters embedded as metadata.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.SetOut(c.out)

	root.AddCommand(c.runCommand())
	root.AddCommand(c.simulateCommand())
	root.AddCommand(c.inspectCommand())
	root.AddCommand(c.materialsCommand())
	root.AddCommand(c.previewCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Factories
// =============================================================================

// newEngine returns the engine named by the job file or --engine.
func newEngine(name string, seed uint64) (engine.Engine, error) {
	switch name {
	case "", "synthetic":
		return engine.NewSynthetic(seed), nil
	case "native":
		return newNativeEngine()
	default:
		return nil, errors.New(errors.ErrCodeInvalidConfig, "unknown engine %q (must be synthetic or native)", name)
	}
}

// newCache opens the grid cache backend. An unreachable Redis server is
// not fatal: the run continues without caching.
func newCache(ctx context.Context, cfg config.Cache) (cache.Cache, error) {
	logger := loggerFromContext(ctx)

	switch cfg.Backend {
	case "", "none":
		return cache.NewNullCache(), nil
	case "file":
		dir := cfg.Dir
		if dir == "" {
			d, err := cacheDir()
			if err != nil {
				logger.Warn("no cache directory, caching disabled", "error", err)
				return cache.NewNullCache(), nil
			}
			dir = d
		}
		fc, err := cache.NewFileCache(dir)
		if err != nil {
			return nil, err
		}
		return fc, nil
	case "redis":
		c, err := cache.NewRedisCache(ctx, cache.RedisConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if stderrors.Is(err, cache.ErrUnavailable) {
			logger.Warn("redis unavailable, caching disabled", "addr", cfg.RedisAddr, "error", err)
			return cache.NewNullCache(), nil
		}
		if err != nil {
			return nil, err
		}
		return c, nil
	default:
		return nil, errors.New(errors.ErrCodeInvalidConfig, "unknown cache backend %q (must be none, file or redis)", cfg.Backend)
	}
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the cache directory using XDG standard (~/.cache/semsim/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}

// =============================================================================
// Flag Helpers
// =============================================================================

// formatList renders formats for display.
func formatList(formats []export.Format) string {
	parts := make([]string, len(formats))
	for i, f := range formats {
		parts[i] = string(f)
	}
	return strings.Join(parts, ",")
}
