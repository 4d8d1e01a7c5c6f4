package nodelink_test

import (
	"context"
	"fmt"
	"strings"

	"github.com/matzehuels/grid3d/pkg/graph"
	"github.com/matzehuels/grid3d/pkg/lattice"
	"github.com/matzehuels/grid3d/pkg/render/nodelink"
)

func ExampleToDOT() {
	cfg := lattice.GridConfig{
		Width: 2, Height: 1, Depth: 1, Spacing: 1, Positioning: true,
		Policy: lattice.FixedDegree{Degree: lattice.Connectivity4},
	}
	l, _ := lattice.Generate(context.Background(), cfg)
	g, _ := graph.FromLattice(lattice.KindGrid, l)

	dot := nodelink.ToDOT(g, nodelink.Options{Scale: 1})
	for _, line := range strings.Split(dot, "\n") {
		if strings.Contains(line, "label=") || strings.Contains(line, "--") {
			fmt.Println(strings.TrimSpace(line))
		}
	}
	// Output:
	// 0 [label="0", fillcolor="#4e79a7", pos="0,0!"];
	// 1 [label="1", fillcolor="#4e79a7", pos="2,0!"];
	// 0 -- 1;
}

func ExampleRenderSVG() {
	dot := "graph G { a -- b; }"

	svg, err := nodelink.RenderSVG(context.Background(), dot)
	if err != nil {
		fmt.Println("Error:", err)
		return
	}

	fmt.Println(strings.Contains(string(svg), "<svg"))
	// Output:
	// true
}
