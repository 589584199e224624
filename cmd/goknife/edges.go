package main

import (
	"fmt"

	"github.com/philipparndt/goknife/pkg/analysis"
	"github.com/spf13/cobra"
)

var (
	edgesCount     int
	edgesLongest   bool
	edgesShortest  bool
	edgesMinLength float64
	edgesMaxLength float64
)

var edgesCmd = &cobra.Command{
	Use:   "edges [file]",
	Short: "List and measure the edges of a mesh",
	Long:  "Find and measure welded mesh edges, including longest, shortest, or edges within a specific length range.",
	Args:  cobra.ExactArgs(1),
	RunE:  runEdges,
}

func init() {
	rootCmd.AddCommand(edgesCmd)

	edgesCmd.Flags().IntVarP(&edgesCount, "count", "n", 10, "Number of edges to display")
	edgesCmd.Flags().BoolVarP(&edgesLongest, "longest", "l", false, "Show longest edges")
	edgesCmd.Flags().BoolVarP(&edgesShortest, "shortest", "s", false, "Show shortest edges")
	edgesCmd.Flags().Float64Var(&edgesMinLength, "min", 0.0, "Minimum edge length filter")
	edgesCmd.Flags().Float64Var(&edgesMaxLength, "max", 0.0, "Maximum edge length filter")
	edgesCmd.Flags().Float64Var(&weldTolerance, "weld", 0, "Distance under which STL corners are merged (default 1e-6)")
}

func runEdges(cmd *cobra.Command, args []string) error {
	m, err := loadMesh(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	result := analysis.AnalyzeMesh(m)

	var edges []analysis.EdgeInfo
	var title string

	switch {
	case edgesLongest:
		edges = analysis.FindLongestEdges(result, edgesCount)
		title = fmt.Sprintf("Top %d Longest Edges", len(edges))
	case edgesShortest:
		edges = analysis.FindShortestEdges(result, edgesCount)
		title = fmt.Sprintf("Top %d Shortest Edges", len(edges))
	case edgesMaxLength > 0:
		edges = analysis.FindEdgesByLength(result, edgesMinLength, edgesMaxLength)
		title = fmt.Sprintf("Edges between %.6f and %.6f units (found %d)", edgesMinLength, edgesMaxLength, len(edges))
		if len(edges) > edgesCount {
			edges = edges[:edgesCount]
		}
	default:
		edges = result.AllEdges
		title = fmt.Sprintf("All Edges (showing first %d of %d)", min(edgesCount, len(edges)), len(edges))
		if len(edges) > edgesCount {
			edges = edges[:edgesCount]
		}
	}

	fmt.Println(title)
	fmt.Println("====================")
	fmt.Printf("Total edges in mesh: %d (%d boundary)\n", result.EdgeCount, result.BoundaryEdges)
	fmt.Printf("Min edge length: %.6f units\n", result.MinEdgeLength)
	fmt.Printf("Max edge length: %.6f units\n", result.MaxEdgeLength)
	fmt.Printf("Avg edge length: %.6f units\n\n", result.AvgEdgeLength)

	if len(edges) == 0 {
		fmt.Println("No edges found matching the criteria.")
		return nil
	}

	fmt.Printf("%-6s %-35s %-35s %-15s %-5s\n", "Edge", "Start", "End", "Length", "Faces")
	fmt.Println("-----------------------------------------------------------------------------------------------------------------")
	for _, edge := range edges {
		fmt.Printf("%-6d %-35s %-35s %-15.6f %-5d\n",
			edge.ID,
			analysis.FormatVector(edge.Start),
			analysis.FormatVector(edge.End),
			edge.Length,
			edge.Faces)
	}
	return nil
}
