package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"designagent/internal/contrast"
)

func newContrastCommand() *cobra.Command {
	var threshold float64
	cmd := &cobra.Command{
		Use:               "contrast <fg> <bg>",
		Short:             "Check the WCAG contrast ratio of two colors",
		Args:              cobra.ExactArgs(2),
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		RunE: func(cmd *cobra.Command, args []string) error {
			fg, bg := args[0], args[1]
			ratio, err := contrast.Ratio(fg, bg)
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "ratio: %.2f:1\n", ratio)
			if ratio >= threshold {
				fmt.Fprintln(w, labelOK.Render("AA: pass"))
				return nil
			}
			fmt.Fprintln(w, labelError.Render("AA: fail"))
			fmt.Fprintln(w, "suggested foreground:", contrast.Repair(fg, bg))
			return nil
		},
	}
	cmd.Flags().Float64Var(&threshold, "threshold", contrast.AAThreshold, "minimum ratio")
	return cmd
}
