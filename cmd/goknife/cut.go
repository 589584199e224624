package main

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/philipparndt/goknife/internal/knife"
	"github.com/philipparndt/goknife/internal/scene"
	"github.com/philipparndt/goknife/internal/script"
	"github.com/philipparndt/goknife/pkg/geometry"
	"github.com/philipparndt/goknife/pkg/mesh"
	"github.com/philipparndt/goknife/pkg/stl"
	"github.com/philipparndt/goknife/pkg/viewer"
	"github.com/spf13/cobra"
)

var (
	cutOutput     string
	cutASCII      bool
	cutConfigPath string
	cutThrough    bool
	cutSelected   bool
	cutAngle      string
	cutIncrement  float64
	cutNoIslands  bool
)

var cutCmd = &cobra.Command{
	Use:   "cut [trail] [model...]",
	Short: "Replay a knife trail on one or more meshes",
	Long: `Replay the clicks, drags and events of a YAML trail file against the given
STL or OpenSCAD models and write the cut meshes. Without --output the result is only
summarized. With several models, --output names a directory.`,
	Args: cobra.MinimumNArgs(2),
	RunE: runCut,
}

func init() {
	rootCmd.AddCommand(cutCmd)

	f := cutCmd.Flags()
	f.StringVarP(&cutOutput, "output", "o", "", "Write the cut mesh to this file (or directory for several models)")
	f.BoolVar(&cutASCII, "ascii", false, "Write ASCII instead of binary STL")
	f.StringVarP(&cutConfigPath, "config", "c", "", "Knife settings file (.yaml or .toml)")
	f.BoolVarP(&cutThrough, "through", "t", false, "Cut through occluded geometry")
	f.BoolVar(&cutSelected, "only-selected", false, "Only cut selected faces")
	f.StringVar(&cutAngle, "angle-snap", "", "Angle snap mode: none, screen or relative")
	f.Float64Var(&cutIncrement, "angle-increment", 0, "Angle snap increment in degrees")
	f.BoolVar(&cutNoIslands, "no-islands", false, "Leave closed loops inside a face uncut")
	f.Float64Var(&weldTolerance, "weld", 0, "Distance under which STL corners are merged (default 1e-6)")
}

// cutConfig loads the settings file and applies the flags that were set
func cutConfig(cmd *cobra.Command) (knife.Config, error) {
	cfg := knife.DefaultConfig()
	if cutConfigPath != "" {
		var err error
		if cfg, err = knife.LoadConfig(cutConfigPath); err != nil {
			return cfg, err
		}
	}

	flags := cmd.Flags()
	if flags.Changed("through") {
		cfg.CutThrough = cutThrough
	}
	if flags.Changed("only-selected") {
		cfg.OnlySelected = cutSelected
	}
	if flags.Changed("angle-snap") {
		if err := cfg.AngleSnap.UnmarshalText([]byte(cutAngle)); err != nil {
			return cfg, err
		}
	}
	if flags.Changed("angle-increment") {
		cfg.AngleIncrement = cutIncrement
	}
	if flags.Changed("no-islands") {
		cfg.ConnectIslands = !cutNoIslands
	}
	return cfg, cfg.Validate()
}

// cameraFor builds the view a trail was recorded in
func cameraFor(c script.Camera, objects []*scene.Object) *viewer.Camera {
	if c.Ortho {
		return viewer.NewOrthoCamera(geometry.NewVector3(c.Target[0], c.Target[1], c.Target[2]), c.Scale, c.Width, c.Height)
	}

	bbox := geometry.NewBoundingBox()
	for _, obj := range objects {
		bbox.Union(obj.Mesh.(*mesh.Mesh).Bounds())
	}
	cam := viewer.NewCamera(bbox)
	cam.SetViewport(c.Width, c.Height)
	// scale multiplies the framing distance
	cam.Zoom(c.Scale - 1)
	cam.Rotate(c.Rotate[0], c.Rotate[1])
	return cam
}

// cutResult is one replay of a trail
type cutResult struct {
	report  script.Report
	objects []*scene.Object
}

func replay(cmd *cobra.Command, trailPath string, models []string) (*cutResult, error) {
	cfg, err := cutConfig(cmd)
	if err != nil {
		return nil, err
	}
	trail, err := script.Load(trailPath)
	if err != nil {
		return nil, err
	}
	objects, err := loadObjects(cmd.Context(), models)
	if err != nil {
		return nil, err
	}

	tool, err := knife.NewTool(objects, cameraFor(trail.Camera, objects), cfg)
	if err != nil {
		return nil, err
	}
	return &cutResult{report: trail.Run(tool), objects: objects}, nil
}

func runCut(cmd *cobra.Command, args []string) error {
	res, err := replay(cmd, args[0], args[1:])
	if err != nil {
		return err
	}
	if err := printCut(res); err != nil {
		return err
	}
	if cutOutput == "" {
		return nil
	}
	return writeCut(res.objects, cutOutput)
}

func printCut(res *cutResult) error {
	fmt.Println("Knife Cut")
	fmt.Println("=========")
	for _, msg := range res.report.Messages() {
		fmt.Printf("  %s\n", msg)
	}

	c := res.report.Commit
	if c == nil {
		fmt.Println("\nCut cancelled, meshes unchanged.")
		return nil
	}
	if !c.Changed {
		if c.Reason == "" {
			return errors.New("cut left the meshes unchanged")
		}
		return errors.New(c.Reason)
	}

	fmt.Printf("\nEdge splits: %d\n", c.Splits)
	fmt.Printf("Face splits: %d\n", c.FaceSplits)
	fmt.Printf("Islands: %d (%d left uncut)\n", c.Islands, c.UncutIslands)
	if c.Skipped > 0 {
		fmt.Printf("Skipped edges: %d\n", c.Skipped)
	}
	fmt.Println()
	for _, obj := range res.objects {
		m := obj.Mesh.(*mesh.Mesh)
		fmt.Printf("%s: %d vertices, %d edges, %d faces\n", obj.Name, m.VertCount(), m.EdgeCount(), m.FaceCount())
	}
	return nil
}

// writeCut triangulates and writes the cut meshes
func writeCut(objects []*scene.Object, output string) error {
	for _, obj := range objects {
		path := output
		if len(objects) > 1 {
			path = filepath.Join(output, obj.Name+".stl")
		} else if !strings.EqualFold(filepath.Ext(path), ".stl") {
			path += ".stl"
		}
		if err := stl.Write(path, obj.Mesh.(*mesh.Mesh).ToSTL(), cutASCII); err != nil {
			return fmt.Errorf("failed to write %s: %w", path, err)
		}
		fmt.Printf("Wrote %s\n", path)
	}
	return nil
}
