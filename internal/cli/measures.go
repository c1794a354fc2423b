package cli

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/mkadlec/binsim/measure"
)

func measuresCmd() *cobra.Command {
	var kind, family string

	cmd := &cobra.Command{
		Use:   "measures",
		Short: "List the measure catalog",
		RunE: func(c *cobra.Command, _ []string) error {
			catalog, err := selectMeasures(kind, family)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(c.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tKIND\tFAMILY\tALIASES")
			for _, m := range catalog {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", m.Name, m.Kind, m.Family, strings.Join(m.Aliases, ","))
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVar(&kind, "kind", "", "filter by kind (similarity|distance)")
	cmd.Flags().StringVar(&family, "family", "", "filter by family (positive_match|full_table|cross_product|difference)")
	return cmd
}

func selectMeasures(kind, family string) ([]measure.Measure, error) {
	catalog := measure.All()
	if kind != "" {
		switch measure.Kind(kind) {
		case measure.KindSimilarity, measure.KindDistance:
			catalog = measure.ByKind(measure.Kind(kind))
		default:
			return nil, fmt.Errorf("unknown kind %q (want similarity or distance)", kind)
		}
	}
	if family != "" {
		var out []measure.Measure
		for _, m := range catalog {
			if m.Family == measure.Family(family) {
				out = append(out, m)
			}
		}
		if len(out) == 0 && len(measure.ByFamily(measure.Family(family))) == 0 {
			return nil, fmt.Errorf("unknown family %q", family)
		}
		catalog = out
	}
	return catalog, nil
}
