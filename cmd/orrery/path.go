package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

const (
	formatJSON = "json"
	formatSVG  = "svg"
)

func pathCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "path <id>",
		Short: "Export a body's orbit path as JSON or an SVG plot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			segments, _ := cmd.Flags().GetInt("segments")
			format, _ := cmd.Flags().GetString("format")
			outFile, _ := cmd.Flags().GetString("out")

			if format != formatJSON && format != formatSVG {
				return fmt.Errorf("unknown format %q, want %s or %s", format, formatJSON, formatSVG)
			}
			if segments < 0 {
				return fmt.Errorf("segments must not be negative, got %d", segments)
			}
			epoch, err := instantFromFlags(cmd)
			if err != nil {
				return err
			}

			cat, err := a.loadCatalog()
			if err != nil {
				return err
			}
			body, err := cat.Get(args[0])
			if err != nil {
				return err
			}
			engine := a.newEngine(cat, nil)
			path, err := engine.Path(body.ID, epoch, segments)
			if err != nil {
				return err
			}
			pos, err := engine.Position(body.ID, epoch)
			if err != nil {
				return err
			}

			var out io.Writer = cmd.OutOrStdout()
			if outFile != "" {
				f, err := os.Create(outFile)
				if err != nil {
					return err
				}
				defer f.Close()
				out = f
			}

			if format == formatSVG {
				_, err = io.WriteString(out, renderPathSVG(body, path, pos.Position))
				return err
			}
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(path)
		},
	}

	cmd.Flags().Int("segments", 0, "number of sampled points (default depends on eccentricity)")
	cmd.Flags().String("format", formatJSON, "output format: json or svg")
	cmd.Flags().StringP("out", "o", "", "write to file instead of stdout")
	addInstantFlags(cmd)
	return cmd
}
