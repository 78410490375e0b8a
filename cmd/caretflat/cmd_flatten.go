package main

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"caretflat/internal/models"
	"caretflat/pkg/caretfile"
	"caretflat/pkg/flatten"
)

var flattenFlags struct {
	fiducial    string
	sphere      string
	topo        string
	projections string
	paint       string
	areaColors  string
	name        string
}

// flattenCmd runs the hemisphere flattener
var flattenCmd = &cobra.Command{
	Use:   "flatten",
	Short: "Produce the initial flat surface of a hemisphere",
	Long: `Identifies the medial wall from its border, opens the sphere there, projects it
onto the plane, applies the standard cuts and scales the result to the configured
multiple of the fiducial area.

Written files (when output.autoSave is set):
  <name>.Spherical      spherical coordinates, when the input is not yet spherical
  <name>.OPEN           topology with the medial wall removed
  <name>.InitialFlat    flat coordinates
  <name>.CUT            topology with the cuts applied
  plus the updated paint and area colour files`,
	RunE: runFlatten,
}

func init() {
	flattenCmd.Flags().StringVar(&flattenFlags.fiducial, "fiducial", "", "Fiducial coordinate file (required)")
	flattenCmd.Flags().StringVar(&flattenFlags.sphere, "sphere", "", "Spherical or ellipsoidal coordinate file (required)")
	flattenCmd.Flags().StringVar(&flattenFlags.topo, "topo", "", "Closed topology file (required)")
	flattenCmd.Flags().StringVar(&flattenFlags.projections, "borderproj", "", "Border projections with the medial wall and the cuts (required)")
	flattenCmd.Flags().StringVar(&flattenFlags.paint, "paint", "", "Paint file receiving the medial wall (default: a new one)")
	flattenCmd.Flags().StringVar(&flattenFlags.areaColors, "areacolor", "", "Area colour file (default: a new one)")
	flattenCmd.Flags().StringVar(&flattenFlags.name, "name", "", "Base name of the written files (default: sphere name)")
	flattenCmd.MarkFlagRequired("fiducial")
	flattenCmd.MarkFlagRequired("sphere")
	flattenCmd.MarkFlagRequired("topo")
	flattenCmd.MarkFlagRequired("borderproj")
}

// intermediateSaver sends the intermediate coordinate dumps to their own directory
type intermediateSaver struct {
	*caretfile.Store
	intermediate *caretfile.Store
}

func (s intermediateSaver) SaveSurface(surf *models.Surface, name string) error {
	switch name {
	case flatten.OrientedSphereDump, flatten.CompressedSphereDump, flatten.FlatBeforeCutsDump:
		return s.intermediate.SaveSurface(surf, name)
	}
	return s.Store.SaveSurface(surf, name)
}

func runFlatten(cmd *cobra.Command, args []string) error {
	topo, err := caretfile.LoadTopology(flattenFlags.topo)
	if err != nil {
		return err
	}
	fiducial, err := caretfile.LoadSurface(flattenFlags.fiducial, topo)
	if err != nil {
		return err
	}
	sphere, err := caretfile.LoadSurface(flattenFlags.sphere, topo)
	if err != nil {
		return err
	}
	switch {
	case flattenFlags.name != "":
		sphere.Name = flattenFlags.name
	case sphere.Name == "":
		sphere.Name = strings.TrimSuffix(filepath.Base(flattenFlags.sphere), caretfile.CoordinateExt)
	}
	projections, err := caretfile.LoadBorderProjections(flattenFlags.projections, topo)
	if err != nil {
		return err
	}

	paint := models.NewPaintFile(topo.NumNodes, 0)
	paint.Name = sphere.Name
	if flattenFlags.paint != "" {
		if paint, err = caretfile.LoadPaint(flattenFlags.paint); err != nil {
			return err
		}
	}
	areaColors := &models.AreaColorFile{Name: sphere.Name}
	if flattenFlags.areaColors != "" {
		if areaColors, err = caretfile.LoadAreaColors(flattenFlags.areaColors); err != nil {
			return err
		}
	}

	store := outputStore()
	saver := intermediateSaver{
		Store:        store,
		intermediate: caretfile.NewStore(filepath.Join(cfg.Output.Directory, cfg.Output.IntermediateDir)),
	}

	startTime := time.Now()
	f := flatten.NewFlattener(&flatten.Params{
		Fiducial:                         fiducial,
		Sphere:                           sphere,
		Borders:                          projections,
		Paint:                            paint,
		AreaColors:                       areaColors,
		CreateSmoothedMedialWallFiducial: cfg.Flatten.SmoothedMedialWallFiducial,
		AutoSave:                         cfg.Output.AutoSave,
		SaveIntermediateResults:          cfg.Output.SaveIntermediateResults,
		Saver:                            saver,
		MedialWallBorderName:             cfg.Flatten.MedialWallBorder,
		CutsPrefix:                       cfg.Flatten.CutsPrefix,
		Settings:                         cfg.FlattenSettings(),
		NumCores:                         cfg.Processing.NumCores,
		Logger:                           logger,
	})
	if err := f.Execute(); err != nil {
		return fmt.Errorf("flattening failed: %w", err)
	}

	out := cmd.OutOrStdout()
	flat := f.InitialFlatSurface()
	fmt.Fprintf(out, "Flattening completed in %.2f seconds\n", time.Since(startTime).Seconds())
	fmt.Fprintf(out, "- medial wall nodes: %d\n", f.MedialWallNodes().GetCardinality())
	fmt.Fprintf(out, "- open topology triangles: %d\n", f.OpenTopology().NumTriangles())
	fmt.Fprintf(out, "- cut topology triangles: %d\n", f.CutTopology().NumTriangles())
	fmt.Fprintf(out, "- flat area: %.1f (fiducial %.1f)\n", flat.Area(), fiducial.Area())
	if cfg.Output.AutoSave {
		fmt.Fprintf(out, "Files saved to: %s\n", store.Dir)
	}
	return nil
}
