package main

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"caretflat/internal/models"
	"caretflat/pkg/areal"
	"caretflat/pkg/caretfile"
)

var arealFlags struct {
	coord       string
	topo        string
	borders     string
	projections string
	arealFile   string
	column      int
	columnName  string
	longName    string
	comment     string
	paint       string
	paintColumn string
	paintMatch  string
	override    float64
	name        string
}

// arealCmd converts border uncertainty into areal estimates
var arealCmd = &cobra.Command{
	Use:   "areal",
	Short: "Convert border uncertainty into per-node areal estimates",
	Long: `Assigns each node up to four candidate region names with probabilities derived
from its signed distance to every border and the border's uncertainty radius.

With --paint-match only nodes carrying that paint label are assigned; the others
receive the "???" sentinel.`,
	RunE: runAreal,
}

func init() {
	arealCmd.Flags().StringVar(&arealFlags.coord, "coord", "", "Fiducial coordinate file (required)")
	arealCmd.Flags().StringVar(&arealFlags.topo, "topo", "", "Topology file (required)")
	arealCmd.Flags().StringVar(&arealFlags.borders, "borders", "", "Border file")
	arealCmd.Flags().StringVar(&arealFlags.projections, "borderproj", "", "Border projection file, unprojected onto --coord")
	arealCmd.Flags().StringVar(&arealFlags.arealFile, "areal", "", "Existing areal estimation file to update (default: a new one)")
	arealCmd.Flags().IntVar(&arealFlags.column, "column", -1, "Column to replace; negative appends a column")
	arealCmd.Flags().StringVar(&arealFlags.columnName, "column-name", "Border Uncertainty", "Name of the written column")
	arealCmd.Flags().StringVar(&arealFlags.longName, "long-name", "", "Long name of the written column")
	arealCmd.Flags().StringVar(&arealFlags.comment, "comment", "", "Comment of the written column")
	arealCmd.Flags().StringVar(&arealFlags.paint, "paint", "", "Paint file selecting the nodes")
	arealCmd.Flags().StringVar(&arealFlags.paintColumn, "paint-column", "", "Name of the paint column selecting the nodes")
	arealCmd.Flags().StringVar(&arealFlags.paintMatch, "paint-match", "", "Paint label of the nodes to assign")
	arealCmd.Flags().Float64Var(&arealFlags.override, "override-radius", 0, "Use this uncertainty radius for every border")
	arealCmd.Flags().StringVar(&arealFlags.name, "name", "", "Name of the written file (default: <coord>.areal)")
	arealCmd.MarkFlagRequired("coord")
	arealCmd.MarkFlagRequired("topo")
	arealCmd.MarkFlagsOneRequired("borders", "borderproj")
	arealCmd.MarkFlagsMutuallyExclusive("borders", "borderproj")
	arealCmd.MarkFlagsRequiredTogether("paint", "paint-column", "paint-match")
}

func runAreal(cmd *cobra.Command, args []string) error {
	topo, err := caretfile.LoadTopology(arealFlags.topo)
	if err != nil {
		return err
	}
	surface, err := caretfile.LoadSurface(arealFlags.coord, topo)
	if err != nil {
		return err
	}

	var borders *models.BorderFile
	if arealFlags.borders != "" {
		borders, err = caretfile.LoadBorders(arealFlags.borders)
	} else {
		var projections *models.BorderProjectionFile
		projections, err = caretfile.LoadBorderProjections(arealFlags.projections, topo)
		if err == nil {
			borders = projections.Unproject(surface.Coords)
		}
	}
	if err != nil {
		return err
	}

	name := arealFlags.name
	if name == "" {
		base := surface.Name
		if base == "" {
			base = strings.TrimSuffix(filepath.Base(arealFlags.coord), caretfile.CoordinateExt)
		}
		name = base + ".areal"
	}
	af := &models.ArealEstimationFile{Name: name}
	if arealFlags.arealFile != "" {
		if af, err = caretfile.LoadArealEstimation(arealFlags.arealFile); err != nil {
			return err
		}
	}

	params := &areal.Params{
		Surface:         surface,
		ArealFile:       af,
		Borders:         borders,
		Mode:            areal.ModeAllNodes,
		Column:          arealFlags.column,
		ColumnName:      arealFlags.columnName,
		LongName:        arealFlags.longName,
		Comment:         arealFlags.comment,
		MaxInsideWeight: cfg.Areal.MaxInsideWeight,
		KDTreeMinLinks:  cfg.Areal.KDTreeMinLinks,
		Logger:          logger,
	}
	if cmd.Flags().Changed("override-radius") {
		params.OverrideUncertainty = true
		params.OverrideRadius = arealFlags.override
	}
	if arealFlags.paint != "" {
		paint, err := caretfile.LoadPaint(arealFlags.paint)
		if err != nil {
			return err
		}
		column := paint.ColumnWithName(arealFlags.paintColumn)
		if column < 0 {
			return fmt.Errorf("paint file %s has no column %q", arealFlags.paint, arealFlags.paintColumn)
		}
		params.Mode = areal.ModeNodesWithPaint
		params.Paint = paint
		params.PaintColumn = column
		params.PaintMatch = arealFlags.paintMatch
	}

	startTime := time.Now()
	conv := areal.NewConverter(params)
	if err := conv.Execute(); err != nil {
		return fmt.Errorf("areal estimation failed: %w", err)
	}

	store := outputStore()
	if err := store.SaveArealEstimation(af, name); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Estimated %d nodes from %d borders in %.2f seconds (column %d)\n",
		surface.NumNodes(), borders.NumBorders(), time.Since(startTime).Seconds(), conv.Column())
	fmt.Fprintf(cmd.OutOrStdout(), "Areal estimation saved to: %s\n", store.Path(name, caretfile.ArealEstimationExt))
	return nil
}
