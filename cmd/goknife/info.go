package main

import (
	"fmt"
	"slices"

	"github.com/philipparndt/goknife/pkg/analysis"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
)

var infoCmd = &cobra.Command{
	Use:   "info [file]",
	Short: "Display general information about a mesh",
	Long:  "Show the welded mesh: vertex, edge and face counts, polygon sizes, dimensions and edge statistics.",
	Args:  cobra.ExactArgs(1),
	RunE:  runInfo,
}

func init() {
	rootCmd.AddCommand(infoCmd)
	infoCmd.Flags().Float64Var(&weldTolerance, "weld", 0, "Distance under which STL corners are merged (default 1e-6)")
}

func runInfo(cmd *cobra.Command, args []string) error {
	filename := args[0]

	m, err := loadMesh(cmd.Context(), filename)
	if err != nil {
		return err
	}
	result := analysis.AnalyzeMesh(m)

	fmt.Println("Mesh Information")
	fmt.Println("================")
	fmt.Printf("Name: %s\n", m.Name)
	fmt.Printf("File: %s\n\n", filename)

	fmt.Println("Topology:")
	fmt.Printf("  Vertices: %d\n", result.VertexCount)
	fmt.Printf("  Edges: %d (%d boundary)\n", result.EdgeCount, result.BoundaryEdges)
	fmt.Printf("  Faces: %d\n", result.FaceCount)
	fmt.Printf("  Triangles: %d\n", result.TriangleCount)
	sizes := lo.Keys(result.FaceSizes)
	slices.Sort(sizes)
	for _, n := range sizes {
		fmt.Printf("    %d-gons: %d\n", n, result.FaceSizes[n])
	}
	fmt.Printf("  Surface Area: %.6f square units\n\n", result.SurfaceArea)

	fmt.Println("Bounding Box:")
	fmt.Printf("  Min: %s\n", analysis.FormatVector(result.BoundingBox.Min))
	fmt.Printf("  Max: %s\n", analysis.FormatVector(result.BoundingBox.Max))
	fmt.Printf("  Center: %s\n\n", analysis.FormatVector(result.BoundingBox.Center()))

	fmt.Println("Dimensions:")
	fmt.Printf("  Width (X): %.6f units\n", result.Dimensions.X)
	fmt.Printf("  Depth (Y): %.6f units\n", result.Dimensions.Y)
	fmt.Printf("  Height (Z): %.6f units\n", result.Dimensions.Z)
	fmt.Printf("  Diagonal: %.6f units\n\n", result.BoundingBox.Diagonal())

	fmt.Println("Edge Lengths:")
	fmt.Printf("  Minimum: %.6f units\n", result.MinEdgeLength)
	fmt.Printf("  Maximum: %.6f units\n", result.MaxEdgeLength)
	fmt.Printf("  Average: %.6f units\n", result.AvgEdgeLength)
	return nil
}
