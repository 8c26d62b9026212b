package cli

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/quantfocus/semsim/pkg/cache"
	"github.com/quantfocus/semsim/pkg/config"
	"github.com/quantfocus/semsim/pkg/engine"
	"github.com/quantfocus/semsim/pkg/observability"
	"github.com/quantfocus/semsim/pkg/pipeline"
)

// maxListedJobs bounds the runs whose written files are listed one by one.
const maxListedJobs = 4

// runFlags are the flags shared by run and simulate. A flag overrides the
// job file only when it was given on the command line.
type runFlags struct {
	output   string
	formats  string
	workers  int
	engine   string
	seed     uint64
	cache    string
	cacheTTL time.Duration
	gamma    float64
	lut      string
	refresh  bool
	noExport bool
}

func (f *runFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.output, "output", "o", config.DefaultOutputDir, "output directory")
	cmd.Flags().StringVarP(&f.formats, "format", "f", "png", "output format(s): png, tiff (comma-separated)")
	cmd.Flags().IntVarP(&f.workers, "workers", "w", 0, "formation and export workers (0 = number of CPUs)")
	cmd.Flags().StringVar(&f.engine, "engine", config.DefaultEngine, "simulation engine: synthetic, native")
	cmd.Flags().Uint64Var(&f.seed, "seed", config.DefaultSeed, "random seed for the synthetic engine")
	cmd.Flags().StringVar(&f.cache, "cache", config.DefaultBackend, "grid cache: none, file, redis")
	cmd.Flags().DurationVar(&f.cacheTTL, "cache-ttl", 0, "lifetime of cached grids (default 168h)")
	cmd.Flags().Float64Var(&f.gamma, "gamma", 1, "gamma correction: n' = n^(1/gamma)")
	cmd.Flags().StringVar(&f.lut, "lut", "", "lookup table: identity, invert, gamma:<g> or a file")
	cmd.Flags().BoolVar(&f.refresh, "refresh", false, "ignore cached grids")
	cmd.Flags().BoolVar(&f.noExport, "no-export", false, "simulate without writing images")
}

// apply copies the flags that were set onto the decoded job file.
func (f *runFlags) apply(cmd *cobra.Command, file *config.File) {
	changed := cmd.Flags().Changed
	if changed("output") {
		file.Output.Dir = f.output
	}
	if changed("format") {
		file.Output.Formats = strings.Split(f.formats, ",")
	}
	if changed("workers") {
		file.Run.Workers = f.workers
	}
	if changed("engine") {
		file.Run.Engine = f.engine
	}
	if changed("seed") {
		file.Run.Seed = f.seed
	}
	if changed("cache") {
		file.Cache.Backend = f.cache
	}
	if changed("cache-ttl") {
		file.Cache.TTL = config.Duration{Duration: f.cacheTTL}
	}
	if changed("gamma") {
		gamma := f.gamma
		file.Formation.Gamma = &gamma
	}
	if changed("lut") {
		file.Formation.LUT = f.lut
	}
}

// runCommand creates the run command for executing a job file.
func (c *CLI) runCommand() *cobra.Command {
	var flags runFlags

	cmd := &cobra.Command{
		Use:   "run <jobs.toml>",
		Short: "Run every job in a job file and export the images",
		Long: `Run every job in a TOML job file through the engine, form 8-bit grayscale
images and export them with the parameters embedded as metadata.

Flags override the corresponding job file settings.`,
		Example: `  semsim run jobs.toml
  semsim run jobs.toml -o images -f png,tiff --cache file`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			prog := newProgress(loggerFromContext(ctx))

			file, err := config.ReadFile(args[0])
			if err != nil {
				return err
			}
			flags.apply(cmd, file)
			cfg, err := file.Resolve()
			if err != nil {
				return fmt.Errorf("%s: %w", args[0], err)
			}
			if len(cfg.Jobs) == 0 {
				printWarning(c.out, "%s has no jobs", args[0])
				return nil
			}
			prog.done(fmt.Sprintf("Loaded %d jobs from %s", len(cfg.Jobs), args[0]))

			return c.execute(ctx, cfg, &flags)
		},
	}

	flags.register(cmd)
	return cmd
}

// execute runs a resolved job file and prints the outcome.
func (c *CLI) execute(ctx context.Context, cfg *config.Config, flags *runFlags) error {
	logger := loggerFromContext(ctx)

	eng, err := newEngine(cfg.Run.Engine, cfg.Run.Seed)
	if err != nil {
		return err
	}
	gridCache, err := newCache(ctx, cfg.Cache)
	if err != nil {
		return err
	}

	var keyer cache.Keyer
	if ns := cfg.Cache.Namespace; ns != "" {
		keyer = cache.NewScopedKeyer(nil, ns+":")
	}

	runner := pipeline.NewRunner(engine.NewClient(eng, logger), gridCache, keyer, logger)
	runner.CacheTTL = cfg.Cache.TTL.Duration
	defer runner.Close()

	hooks := observability.NewLogHooks(logger)
	spinner := newSpinnerWithContext(ctx, os.Stderr, "")
	observability.SetSimulationHooks(newJobProgress(spinner, len(cfg.Jobs), hooks))
	observability.SetCacheHooks(hooks)
	observability.SetExportHooks(hooks)
	defer observability.Reset()

	if logger.GetLevel() > log.DebugLevel {
		spinner.Start()
	}
	res, err := runner.Execute(ctx, pipeline.Options{
		Jobs:      cfg.Jobs,
		Materials: cfg.JobMaterials,
		Formation: cfg.Formation,
		OutputDir: cfg.OutputDir,
		Formats:   cfg.Formats,
		Workers:   cfg.Run.Workers,
		Refresh:   flags.refresh,
		NoExport:  flags.noExport,
		Logger:    logger,
	})
	spinner.Stop()

	if res == nil {
		return err
	}
	c.printRun(res, cfg, hooks.Summary())
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	return err
}

func (c *CLI) printRun(res *pipeline.Result, cfg *config.Config, sum observability.Summary) {
	fmt.Fprintln(c.out, renderJobsTable(res, cfg.JobMaterials))

	ok := res.Stats.Jobs - res.Stats.Failed
	if res.Stats.Failed == 0 {
		printSuccess(c.out, "%d jobs complete", ok)
	} else {
		printError(c.out, "%d of %d jobs failed", res.Stats.Failed, res.Stats.Jobs)
	}
	printDetail(c.out, "%s", joinDim(
		fmt.Sprintf("simulate %s", res.Stats.SimulateTime.Round(time.Millisecond)),
		fmt.Sprintf("export %s", res.Stats.ExportTime.Round(time.Millisecond)),
		fmt.Sprintf("engine wait %s", sum.EngineWait.Round(time.Millisecond)),
		fmt.Sprintf("cache %d/%d", res.CacheInfo.Hits, res.CacheInfo.Hits+res.CacheInfo.Misses),
	))
	if len(res.Exports) > 0 {
		printInfo(c.out, "Wrote %d files (%s) to %s", sum.Exports-sum.ExportErrs, formatList(cfg.Formats), cfg.OutputDir)
		if len(res.Exports) <= maxListedJobs {
			for _, e := range res.Exports {
				for _, path := range e.Paths {
					printFile(c.out, path)
				}
			}
		}
	}
	if sum.ExportErrs > 0 {
		printWarning(c.out, "%d exports failed", sum.ExportErrs)
	}
}
