package cli

import (
	"fmt"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/Faultbox/meshview/internal/colormap"
)

// newLUTCommand creates the "lut" subcommand, which prints the lookup
// table a preset produces over a scalar range.
func newLUTCommand(env *Env) *cobra.Command {
	var samples int

	cmd := &cobra.Command{
		Use:   "lut <preset> <min> <max>",
		Short: "Print the color map control points for a scalar range",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			scheme, err := colormap.Lookup(args[0])
			if err != nil {
				return err
			}
			lo, err := strconv.ParseFloat(args[1], 64)
			if err != nil {
				return fmt.Errorf("min: %w", err)
			}
			hi, err := strconv.ParseFloat(args[2], 64)
			if err != nil {
				return fmt.Errorf("max: %w", err)
			}
			lut := colormap.Build(scheme, lo, hi)
			lo, hi = lut.Range()

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "VALUE\tCOLOR")
			if samples > 0 {
				cols := lut.Table(samples)
				for i, c := range cols {
					v := lo
					if len(cols) > 1 {
						v = lo + (hi-lo)*float64(i)/float64(len(cols)-1)
					}
					fmt.Fprintf(tw, "%g\t%s\n", v, c.Hex())
				}
			} else {
				for _, p := range lut.Points() {
					fmt.Fprintf(tw, "%g\t%s\n", p.Value, p.Color.Hex())
				}
			}
			return tw.Flush()
		},
	}

	cmd.Flags().IntVarP(&samples, "samples", "n", 0, "Sample this many evenly spaced colors instead of the control points")
	return cmd
}
