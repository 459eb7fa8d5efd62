package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/taigrr/scenery/pkg/pbrt"
)

func newConvertCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "convert <in.pbrt> [out.pbf]",
		Short: "Write a PBRT scene as a prebuilt binary .pbf file",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := g.resolve(cmd); err != nil {
				return err
			}
			in := args[0]
			if ext := strings.ToLower(filepath.Ext(in)); ext != ".pbrt" {
				return fmt.Errorf("convert: %s is not a .pbrt file", in)
			}
			out := strings.TrimSuffix(in, filepath.Ext(in)) + ".pbf"
			if len(args) == 2 {
				out = args[1]
			}

			s, err := pbrt.ReadFile(in)
			if err != nil {
				return fmt.Errorf("convert: %w", err)
			}
			if err := pbrt.WriteBinaryFile(out, s); err != nil {
				return fmt.Errorf("convert: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s: %d objects, %d instances, %d root shapes\n",
				out, len(s.Objects), len(s.Instances), len(s.World.Shapes))
			for _, w := range s.Warnings {
				fmt.Fprintf(cmd.ErrOrStderr(), "warning: %s\n", w)
			}
			return nil
		},
	}
}
