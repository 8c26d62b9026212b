package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/quantfocus/semsim/pkg/config"
	"github.com/quantfocus/semsim/pkg/materials"
)

// materialsCommand creates the materials command for listing specimen materials.
func (c *CLI) materialsCommand() *cobra.Command {
	var jobsFile string

	cmd := &cobra.Command{
		Use:   "materials",
		Short: "List preset and custom specimen materials",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			catalog, err := materials.NewCatalog()
			if err != nil {
				return err
			}
			if jobsFile != "" {
				cfg, err := config.Load(jobsFile)
				if err != nil {
					return err
				}
				catalog = cfg.Materials
			}
			fmt.Fprintln(c.out, renderMaterialsTable(catalog.All()))
			return nil
		},
	}

	cmd.Flags().StringVarP(&jobsFile, "jobs", "j", "", "job file whose [[material]] entries to include")
	return cmd
}
