package main

import (
	"fmt"
	"math"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"latency.space/orrery/shared/celestial"
)

func bodiesCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bodies",
		Short: "List catalog bodies and their reference orbits",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			kindName, _ := cmd.Flags().GetString("kind")

			cat, err := a.loadCatalog()
			if err != nil {
				return err
			}
			bodies := cat.Bodies()
			if kindName != "" {
				kind, ok := celestial.ParseBodyKind(kindName)
				if !ok {
					return &celestial.UnknownKindError{Kind: kindName}
				}
				bodies = cat.ByKind(kind)
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tKIND\tA (AU)\tE\tI (DEG)\tQ (AU)\tPERIOD (YR)")
			for _, b := range bodies {
				el := b.Elements
				fmt.Fprintf(w, "%s\t%s\t%s\t%.4f\t%.5f\t%.3f\t%.4f\t%s\n",
					b.ID, b.Name, b.Kind, el.SemiMajorAxisAU, el.Eccentricity, el.InclinationDeg,
					el.PerihelionAU(), formatPeriod(el.PeriodDays()))
			}
			return w.Flush()
		},
	}

	cmd.Flags().String("kind", "", "only list bodies of this kind (planet, asteroid, comet, neo, interstellar)")
	return cmd
}

func formatPeriod(days float64) string {
	if math.IsInf(days, 1) {
		return "unbound"
	}
	return fmt.Sprintf("%.2f", days/celestial.DAYS_PER_YEAR)
}
