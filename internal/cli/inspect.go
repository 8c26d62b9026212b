package cli

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/quantfocus/semsim/pkg/export"
	"github.com/quantfocus/semsim/pkg/params"
)

// inspectCommand creates the inspect command for reading embedded metadata.
func (c *CLI) inspectCommand() *cobra.Command {
	var raw bool

	cmd := &cobra.Command{
		Use:   "inspect <image>...",
		Short: "Print the simulation parameters embedded in exported images",
		Long: `Print the metadata records of exported images and the parameter set they
describe. PNG files carry the records as tEXt chunks, TIFF files in a
.meta.toml sidecar next to the image.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var failed int
			for i, path := range args {
				if i > 0 {
					fmt.Fprintln(c.out)
				}
				if err := c.inspect(path, raw); err != nil {
					printError(c.out, "%s: %v", path, err)
					failed++
				}
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d files could not be inspected", failed, len(args))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&raw, "raw", false, "print every record, not only the parameter set")
	return cmd
}

func (c *CLI) inspect(path string, raw bool) error {
	md, err := export.ReadAny(path)
	if err != nil {
		return err
	}
	fmt.Fprintln(c.out, StyleTitle.Render(path))

	if r, err := export.ReadImage(path); err == nil {
		printKeyValue(c.out, "size", fmt.Sprintf("%dx%d", r.Width, r.Height))
	}

	p, perr := params.FromMetadata(md)
	if raw || perr != nil {
		keys := make([]string, 0, len(md))
		for k := range md {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			printKeyValue(c.out, k, md[k])
		}
	}
	if perr != nil {
		printWarning(c.out, "records do not form a parameter set: %v", perr)
		return nil
	}

	if !raw {
		for _, rec := range p.Metadata() {
			printKeyValue(c.out, rec.Key, rec.Value)
		}
	}
	printDetail(c.out, "%s", p)
	return nil
}
