package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

func newValidateCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "validate <file>...",
		Short: "Load scenes and report whether they are valid",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			l, err := g.newLoader(cmd)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			var errs []error
			for _, path := range args {
				s, err := l.Load(path)
				if err != nil {
					fmt.Fprintf(out, "FAIL %s: %v\n", path, err)
					errs = append(errs, err)
					continue
				}
				fmt.Fprintf(out, "ok   %s: %s", path, s.Stats())
				if n := len(l.Warnings); n > 0 {
					fmt.Fprintf(out, " (%d warnings)", n)
				}
				fmt.Fprintln(out)
			}
			if len(errs) > 0 {
				return fmt.Errorf("%d of %d files failed: %w", len(errs), len(args), errors.Join(errs...))
			}
			return nil
		},
	}
}
