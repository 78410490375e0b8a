package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"caretflat/pkg/caretfile"
	"caretflat/pkg/cutter"
)

var cutFlags struct {
	coord       string
	topo        string
	projections string
	prefix      string
	mode        string
	extend      bool
	name        string
}

// cutCmd removes the triangles crossed by border projections
var cutCmd = &cobra.Command{
	Use:   "cut",
	Short: "Remove every triangle crossed by a set of cut borders",
	Long: `Unprojects border projections onto a coordinate file and removes every triangle
they cross. The resulting topology is written to the output directory; the input
files are left untouched.`,
	RunE: runCut,
}

func init() {
	cutCmd.Flags().StringVar(&cutFlags.coord, "coord", "", "Coordinate file (required)")
	cutCmd.Flags().StringVar(&cutFlags.topo, "topo", "", "Topology file (required)")
	cutCmd.Flags().StringVar(&cutFlags.projections, "borderproj", "", "Border projection file with the cuts (required)")
	cutCmd.Flags().StringVar(&cutFlags.prefix, "prefix", "", "Only use borders whose name starts with this prefix")
	cutCmd.Flags().StringVar(&cutFlags.mode, "mode", cutter.ModeFlat.String(), "Cutting mode: flat, non-negative-z or spherical")
	cutCmd.Flags().BoolVar(&cutFlags.extend, "extend", false, "Extend each cut to the nearest mesh boundary")
	cutCmd.Flags().StringVar(&cutFlags.name, "name", "", "Name of the written topology (default: <topology>.CUT)")
	cutCmd.MarkFlagRequired("coord")
	cutCmd.MarkFlagRequired("topo")
	cutCmd.MarkFlagRequired("borderproj")
}

func runCut(cmd *cobra.Command, args []string) error {
	mode, err := cutter.ParseMode(cutFlags.mode)
	if err != nil {
		return err
	}

	topo, err := caretfile.LoadTopology(cutFlags.topo)
	if err != nil {
		return err
	}
	surface, err := caretfile.LoadSurface(cutFlags.coord, topo)
	if err != nil {
		return err
	}
	projections, err := caretfile.LoadBorderProjections(cutFlags.projections, topo)
	if err != nil {
		return err
	}

	cuts := projections.Projections
	if cutFlags.prefix != "" {
		cuts = projections.WithPrefix(cutFlags.prefix)
	}

	startTime := time.Now()
	bc := cutter.NewBorderCutter(&cutter.Params{
		Surface:      surface,
		Cuts:         cuts,
		Mode:         mode,
		ExtendToEdge: cutFlags.extend,
		Logger:       logger,
	})
	out := bc.Execute()

	name := cutFlags.name
	if name == "" {
		name = topo.Name + ".CUT"
	}
	out.Name = name
	store := outputStore()
	if err := store.SaveTopology(out, name); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Removed %d of %d triangles in %.2f seconds\n",
		bc.NumCut(), topo.NumTriangles(), time.Since(startTime).Seconds())
	fmt.Fprintf(cmd.OutOrStdout(), "Topology saved to: %s\n", store.Path(name, caretfile.TopologyExt))
	return nil
}
