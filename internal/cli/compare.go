package cli

import (
	"fmt"
	"math"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/mkadlec/binsim/bitvec"
	"github.com/mkadlec/binsim/measure"
)

func compareCmd() *cobra.Command {
	var measureName, maskBits string
	var showCounts bool

	cmd := &cobra.Command{
		Use:   "compare X_BITS Y_BITS",
		Short: "Evaluate a measure over two bit strings",
		Long: `Evaluate one measure (or the full catalog with --measure all) over two
bit strings such as 1100 and 1010. An optional mask restricts which
positions count.`,
		Args: cobra.ExactArgs(2),
		RunE: func(c *cobra.Command, args []string) error {
			x, y, mask, err := parseVectors(args[0], args[1], maskBits)
			if err != nil {
				return err
			}

			if measureName == "all" {
				return compareAll(c, x, y, mask)
			}

			m, ok := measure.Lookup(measureName)
			if !ok {
				return fmt.Errorf("unknown measure %q (try 'binsim measures')", measureName)
			}
			value, err := m.Evaluate(x, y, mask)
			if err != nil {
				return err
			}
			fmt.Fprintf(c.OutOrStdout(), "%s = %s\n", m.Name, formatValue(value))
			if showCounts {
				counts, _ := bitvec.CountMasked(x, y, mask)
				fmt.Fprintf(c.OutOrStdout(), "a=%.0f b=%.0f c=%.0f d=%.0f n=%.0f\n",
					counts.A, counts.B, counts.C, counts.D, counts.N())
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&measureName, "measure", "m", "jaccard", "measure name or alias, or 'all'")
	cmd.Flags().StringVar(&maskBits, "mask", "", "optional mask bit string")
	cmd.Flags().BoolVar(&showCounts, "counts", false, "print the contingency counts")
	return cmd
}

func compareAll(c *cobra.Command, x, y, mask bitvec.Vector) error {
	w := tabwriter.NewWriter(c.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "MEASURE\tKIND\tVALUE")
	for _, m := range measure.All() {
		value, err := m.Evaluate(x, y, mask)
		switch {
		case err != nil:
			fmt.Fprintf(w, "%s\t%s\terror: %v\n", m.Name, m.Kind, err)
		case !isFinite(value):
			fmt.Fprintf(w, "%s\t%s\tundefined\n", m.Name, m.Kind)
		default:
			fmt.Fprintf(w, "%s\t%s\t%s\n", m.Name, m.Kind, formatValue(value))
		}
	}
	return w.Flush()
}

// parseVectors parses x, y and an optional mask. Length agreement is
// checked by the measure evaluation itself.
func parseVectors(xBits, yBits, maskBits string) (x, y, mask bitvec.Vector, err error) {
	xv, err := bitvec.ParseBitString(xBits)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("x: %w", err)
	}
	yv, err := bitvec.ParseBitString(yBits)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("y: %w", err)
	}
	if maskBits == "" {
		return xv, yv, nil, nil
	}
	mv, err := bitvec.ParseBitString(maskBits)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("mask: %w", err)
	}
	return xv, yv, mv, nil
}

func formatValue(v float64) string {
	if !isFinite(v) {
		return "undefined"
	}
	return strconv.FormatFloat(v, 'g', 10, 64)
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
