package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Faultbox/meshview/internal/scene"
)

// newPickCommand creates the "pick" subcommand. It fits the camera to the
// mesh, as the viewer does on open, and selects inside a screen rectangle.
func newPickCommand(env *Env) *cobra.Command {
	var (
		rect  []int
		field string
		array string
	)

	cmd := &cobra.Command{
		Use:   "pick <file>",
		Short: "Select points or cells of a mesh inside a screen rectangle",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(rect) != 4 {
				return fmt.Errorf("--rect wants x0,y0,x1,y1, got %d values", len(rect))
			}
			s, err := openSession(env, args[0], field)
			if err != nil {
				return err
			}
			if array != "" {
				if err := s.ctl.SetColorByArray(array); err != nil {
					return err
				}
			}

			area := scene.Rect{X0: rect[0], Y0: rect[1], X1: rect[2], Y1: rect[3]}
			if !cmd.Flags().Changed("rect") {
				w, h := s.backend.Size()
				area = scene.Rect{X1: w - 1, Y1: h - 1}
			}
			res, err := s.ctl.Pick(area)
			if err != nil {
				return err
			}
			env.Log("pick").Debug("selection", zap.Stringer("field", res.FieldType), zap.Int("count", len(res.IDs)))
			writeSelection(cmd, res)
			return nil
		},
	}

	cmd.Flags().IntSliceVar(&rect, "rect", []int{0, 0, 0, 0}, "Selection rectangle in pixels: x0,y0,x1,y1 (default whole viewport)")
	cmd.Flags().StringVar(&field, "field", "", "Selection field: POINT or CELL (default from config)")
	cmd.Flags().StringVar(&array, "array", "", "Color by this array and report its values")
	return cmd
}

func writeSelection(cmd *cobra.Command, res *scene.SelectionResult) {
	out := cmd.OutOrStdout()
	ids := make([]string, len(res.IDs))
	for i, id := range res.IDs {
		ids[i] = fmt.Sprint(id)
	}
	fmt.Fprintf(out, "field: %s\n", res.FieldType)
	fmt.Fprintf(out, "ids:   %s\n", strings.Join(ids, ";"))
	if res.Array != "" {
		vals := make([]string, len(res.Values))
		for i, v := range res.Values {
			vals[i] = fmt.Sprintf("%g", v)
		}
		fmt.Fprintf(out, "%s: %s\n", res.Array, strings.Join(vals, ";"))
	}
}
