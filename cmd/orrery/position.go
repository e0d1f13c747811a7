package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"latency.space/orrery/shared/celestial"
)

func positionCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "position <id>",
		Short: "Print a body's heliocentric ecliptic position",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			instant, err := instantFromFlags(cmd)
			if err != nil {
				return err
			}

			cat, err := a.loadCatalog()
			if err != nil {
				return err
			}
			pos, err := a.newEngine(cat, nil).Position(args[0], instant)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s (%s) at JD %.5f (%s)\n", pos.Name, pos.Kind, instant,
				celestial.JDToTime(instant).Format(time.RFC3339))
			fmt.Fprintf(out, "  x = %+.8f AU\n  y = %+.8f AU\n  z = %+.8f AU\n", pos.Position.X, pos.Position.Y, pos.Position.Z)
			fmt.Fprintf(out, "  r = %.8f AU (%.0f km)\n", pos.DistanceAU, pos.DistanceAU*celestial.AU)
			if pos.Approximate {
				fmt.Fprintln(out, "  warning: anomaly solver did not converge, position is approximate")
			}
			return nil
		},
	}

	addInstantFlags(cmd)
	return cmd
}

// addInstantFlags registers the mutually exclusive --jd and --date flags.
func addInstantFlags(cmd *cobra.Command) {
	cmd.Flags().Float64("jd", 0, "Julian Date (TT)")
	cmd.Flags().String("date", "", "calendar time, RFC3339 or YYYY-MM-DD (default now)")
	cmd.MarkFlagsMutuallyExclusive("jd", "date")
}

func instantFromFlags(cmd *cobra.Command) (float64, error) {
	if cmd.Flags().Changed("jd") {
		jd, _ := cmd.Flags().GetFloat64("jd")
		return jd, nil
	}
	date, _ := cmd.Flags().GetString("date")
	if date == "" {
		return celestial.TimeToJD(time.Now()), nil
	}
	t, err := parseDate(date)
	if err != nil {
		return 0, err
	}
	return celestial.TimeToJD(t), nil
}

func parseDate(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("invalid --date %q: want RFC3339 or YYYY-MM-DD", s)
}
