package main

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/vrcdolly/dolly-agent/internal/dolly"
)

func newShowCommand() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "show <file>",
		Short: "Print the paths in a dolly document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			paths, err := readDocument(args[0])
			if err != nil {
				return err
			}
			if asJSON {
				doc, err := dolly.MarshalDocument(paths)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), doc)
				return nil
			}
			renderPaths(cmd.OutOrStdout(), paths)
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the flattened JSON document instead of tables")
	return cmd
}

func readDocument(path string) ([]dolly.Path, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	paths, err := dolly.Decode(data, dolly.FormatFromPath(path))
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return paths, nil
}

func renderPaths(out io.Writer, paths []dolly.Path) {
	headers := []string{"#", "Name", "Speed", "Duration", "Zoom", "Focus", "Aperture", "Position", "Rotation"}
	aligns := []columnAlignment{alignRight, alignLeft, alignRight, alignRight, alignRight, alignRight, alignRight, alignLeft, alignLeft}

	for _, p := range paths {
		var total float64
		rows := make([][]string, 0, len(p.Points))
		for _, pt := range p.Points {
			total += pt.Duration
			rows = append(rows, []string{
				strconv.Itoa(pt.Index),
				pt.Name,
				formatFloat(pt.Speed),
				formatFloat(pt.Duration) + "s",
				formatFloat(pt.Zoom),
				formatFloat(pt.FocalDistance),
				formatFloat(pt.Aperture),
				formatVector(pt.Position),
				formatVector(pt.Rotation),
			})
		}
		fmt.Fprintf(out, "Path %d  (%d points, %ss)\n", p.Index+1, len(p.Points), formatFloat(total))
		fmt.Fprintln(out, renderTable(headers, rows, aligns))
		fmt.Fprintln(out)
	}
	fmt.Fprintf(out, "%d paths, %d/%d points\n", len(paths), dolly.CountPoints(paths), dolly.MaxTotalPoints)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func formatVector(v dolly.Vector3) string {
	return fmt.Sprintf("%.2f, %.2f, %.2f", v.X, v.Y, v.Z)
}
