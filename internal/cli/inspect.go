package cli

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/Faultbox/meshview/internal/colormap"
	"github.com/Faultbox/meshview/pkg/formats"
	"github.com/Faultbox/meshview/pkg/mesh"
)

// newInspectCommand creates the "inspect" subcommand, which prints a mesh
// summary and its attribute arrays.
func newInspectCommand(env *Env) *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <file>",
		Short: "Print geometry and attribute arrays of a mesh file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(env, args[0], "")
			if err != nil {
				return err
			}
			m := s.ctl.Scene().Mesh
			return writeSummary(cmd.OutOrStdout(), args[0], m)
		},
	}
}

func writeSummary(out io.Writer, name string, m *mesh.Mesh) error {
	b := m.Bounds()
	fmt.Fprintf(out, "file:   %s\n", name)
	fmt.Fprintf(out, "points: %d\n", m.NumberOfPoints())
	fmt.Fprintf(out, "cells:  %d (verts %d, lines %d, polys %d, strips %d)\n",
		m.NumberOfCells(), len(m.Verts), len(m.Lines), len(m.Polys), len(m.Strips))
	fmt.Fprintf(out, "bounds: [%g %g %g] - [%g %g %g]\n",
		b.Min[0], b.Min[1], b.Min[2], b.Max[0], b.Max[1], b.Max[2])

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "DOMAIN\tARRAY\tCOMPONENTS\tRANGE")
	for _, d := range []struct {
		name string
		data *mesh.FieldData
	}{{"POINT", m.PointData}, {"CELL", m.CellData}} {
		for i := 0; i < d.data.Len(); i++ {
			a := d.data.At(i)
			lo, hi, err := a.Range(0)
			rng := fmt.Sprintf("%g .. %g", lo, hi)
			if err != nil {
				rng = "-"
			}
			fmt.Fprintf(tw, "%s\t%s\t%d\t%s\n", d.name, a.Name, a.Components, rng)
		}
	}
	return tw.Flush()
}

// newPresetsCommand lists the color map presets.
func newPresetsCommand(env *Env) *cobra.Command {
	return &cobra.Command{
		Use:   "presets",
		Short: "List color map presets",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			for _, name := range colormap.Names() {
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}
		},
	}
}

// newFormatsCommand lists the registered file formats.
func newFormatsCommand(env *Env) *cobra.Command {
	return &cobra.Command{
		Use:   "formats",
		Short: "List supported mesh file formats",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "FORMAT\tEXTENSIONS\tINPUT\tSTATUS")
			for _, f := range formats.Default().Formats() {
				status := "enabled"
				if f.Disabled {
					status = "disabled: " + f.Reason
				}
				fmt.Fprintf(tw, "%s\t%v\t%s\t%s\n", f.Name, f.Extensions, f.Input, status)
			}
			return tw.Flush()
		},
	}
}
