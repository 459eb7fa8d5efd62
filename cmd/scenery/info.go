package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newInfoCmd(g *globalFlags) *cobra.Command {
	var verbose bool
	cmd := &cobra.Command{
		Use:   "info <file>",
		Short: "Print a summary of a scene",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, l, err := g.load(cmd, args[0])
			if err != nil {
				return err
			}
			st := s.Stats()
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintf(w, "file\t%s\n", s.Source)
			fmt.Fprintf(w, "meshes\t%d\n", st.Meshes)
			fmt.Fprintf(w, "instances\t%d\n", st.Instances)
			fmt.Fprintf(w, "geometries\t%d unique, %d instanced\n", st.Geometries, st.TotalGeometries)
			fmt.Fprintf(w, "triangles\t%d unique, %d instanced\n", st.UniqueTris, st.TotalTris)
			fmt.Fprintf(w, "vertices\t%d\n", st.Vertices)
			fmt.Fprintf(w, "materials\t%d\n", st.Materials)
			fmt.Fprintf(w, "textures\t%d\n", st.Textures)
			fmt.Fprintf(w, "lights\t%d\n", st.Lights)
			if lo, hi, ok := s.Bounds(); ok {
				fmt.Fprintf(w, "bounds\t(%.3g, %.3g, %.3g) to (%.3g, %.3g, %.3g)\n", lo.X, lo.Y, lo.Z, hi.X, hi.Y, hi.Z)
			}
			fmt.Fprintf(w, "warnings\t%d\n", len(l.Warnings))
			if err := w.Flush(); err != nil {
				return err
			}

			if !verbose {
				return nil
			}
			out := cmd.OutOrStdout()
			for i, m := range s.Meshes {
				fmt.Fprintf(out, "mesh %d %q: %d geometries, %d triangles\n", i, m.Name, len(m.Geometries), m.TriangleCount())
			}
			for i, m := range s.Materials {
				fmt.Fprintf(out, "material %d %q: base (%.3g, %.3g, %.3g) metallic %.3g roughness %.3g texture %d\n",
					i, m.Name, m.BaseColor.X, m.BaseColor.Y, m.BaseColor.Z, m.Metallic, m.Roughness, m.ColorTexture)
			}
			for i, t := range s.Textures {
				fmt.Fprintf(out, "texture %d %q: %dx%d, %d channels, %s\n", i, t.Name, t.Width, t.Height, t.Channels, t.ColorSpace)
			}
			for _, warn := range l.Warnings {
				fmt.Fprintf(out, "warning: %s\n", warn)
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "list meshes, materials, textures and warnings")
	return cmd
}
