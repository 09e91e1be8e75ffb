package pag_test

import (
	"fmt"

	"github.com/matzehuels/pagsearch/pkg/pag"
)

func Example() {
	g := pag.New("x", "y", "z")
	g.AddNondirectedEdge("x", "y")
	g.AddNondirectedEdge("z", "y")

	// Orient the collider x *-> y <-* z.
	g.SetEndpoint("x", "y", pag.Arrow)
	g.SetEndpoint("z", "y", pag.Arrow)

	fmt.Println(g.IsDefCollider("x", "y", "z"))
	fmt.Println(g.Endpoint("y", "x"), g.Endpoint("x", "y"))
	// Output:
	// true
	// o >
}
