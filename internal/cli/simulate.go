package cli

import (
	"github.com/spf13/cobra"

	"github.com/quantfocus/semsim/pkg/config"
)

// jobFlags describe one job on the command line. They are turned into a
// config.Job so flag jobs are validated exactly like job file entries.
type jobFlags struct {
	mode       string
	energy     float64
	current    float64
	resolution int
	distance   float64
	thickness  float64
	angleRad   float64
	angleDeg   float64
	electrons  int
	material   string
}

func (f *jobFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.mode, "mode", "m", "", "calibration mode: beam, transmission (required)")
	cmd.Flags().Float64VarP(&f.energy, "energy", "e", 0, "beam energy in keV (required)")
	cmd.Flags().Float64Var(&f.current, "current", 0, "probe current in nA (beam)")
	cmd.Flags().IntVar(&f.resolution, "resolution", 0, "image resolution in pixels (beam)")
	cmd.Flags().Float64Var(&f.distance, "distance", 0, "working distance in mm (beam)")
	cmd.Flags().Float64Var(&f.thickness, "thickness", 0, "sample thickness in nm (transmission)")
	cmd.Flags().Float64Var(&f.angleRad, "angle", 0, "angular spread std-dev in radians (transmission)")
	cmd.Flags().Float64Var(&f.angleDeg, "angle-deg", 0, "angular spread std-dev in degrees (transmission)")
	cmd.Flags().IntVar(&f.electrons, "electrons", 0, "number of electrons (transmission)")
	cmd.Flags().StringVar(&f.material, "material", "", "specimen material label")
	_ = cmd.MarkFlagRequired("mode")
	_ = cmd.MarkFlagRequired("energy")
	cmd.MarkFlagsMutuallyExclusive("angle", "angle-deg")
}

// job builds the config.Job for the flags that were given.
func (f *jobFlags) job(cmd *cobra.Command) config.Job {
	changed := cmd.Flags().Changed
	j := config.Job{Mode: f.mode, Material: f.material, EnergyKeV: &f.energy}
	if changed("current") {
		j.CurrentNA = &f.current
	}
	if changed("resolution") {
		j.Resolution = &f.resolution
	}
	if changed("distance") {
		j.DistanceMM = &f.distance
	}
	if changed("thickness") {
		j.ThicknessNM = &f.thickness
	}
	if changed("angle") {
		j.AngleStdDevRad = &f.angleRad
	}
	if changed("angle-deg") {
		j.AngleStdDevDeg = &f.angleDeg
	}
	if changed("electrons") {
		j.Electrons = &f.electrons
	}
	return j
}

// simulateCommand creates the simulate command for running one job from flags.
func (c *CLI) simulateCommand() *cobra.Command {
	var (
		job   jobFlags
		flags runFlags
	)

	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Run a single simulation described by flags",
		Example: `  semsim simulate --mode beam --energy 15 --current 1 --resolution 256 --distance 10
  semsim simulate -m transmission -e 20 --thickness 100 --angle-deg 5 --electrons 50000 -f tiff`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			file := &config.File{Jobs: []config.Job{job.job(cmd)}}
			flags.apply(cmd, file)
			cfg, err := file.Resolve()
			if err != nil {
				return err
			}
			return c.execute(cmd.Context(), cfg, &flags)
		},
	}

	job.register(cmd)
	flags.register(cmd)
	return cmd
}
