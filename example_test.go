package neargo_test

import (
	"bytes"
	"context"
	"fmt"
	"log"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/hupe1980/neargo"
	"github.com/hupe1980/neargo/box"
	"github.com/hupe1980/neargo/codec"
)

// Example_ball demonstrates a ball query across a periodic boundary.
func Example_ball() {
	ctx := context.Background()

	// Periodic 10x10x10 box
	b, err := box.New(10, 10, 10)
	if err != nil {
		log.Fatal(err)
	}

	// Two points straddling the x boundary
	e, err := neargo.New(b, []mgl32.Vec3{
		{0.1, 0.0, 0.0},
		{9.9, 0.0, 0.0},
	})
	if err != nil {
		log.Fatal(err)
	}

	// Find all neighbors closer than 1.0
	list, err := e.SelfQuery().Ball(1.0).Execute(ctx)
	if err != nil {
		log.Fatal(err)
	}

	for _, bond := range list.All() {
		fmt.Printf("%d -> %d at %.1f\n", bond.Query, bond.Neighbor, bond.Distance)
	}
	// Output:
	// 0 -> 1 at 0.2
	// 1 -> 0 at 0.2
}

// Example_knn demonstrates a k-nearest-neighbor query against a separate
// query set.
func Example_knn() {
	ctx := context.Background()

	b, err := box.New(10, 10, 10)
	if err != nil {
		log.Fatal(err)
	}

	e, err := neargo.New(b, []mgl32.Vec3{
		{1.0, 1.0, 1.0},
		{2.0, 2.0, 2.0},
		{8.0, 8.0, 8.0},
	})
	if err != nil {
		log.Fatal(err)
	}

	// Two nearest reference points for each query point
	list, err := e.Query([]mgl32.Vec3{{1.5, 1.5, 1.5}}).KNN(2).Execute(ctx)
	if err != nil {
		log.Fatal(err)
	}

	for _, bond := range list.Bonds(0) {
		fmt.Printf("neighbor %d\n", bond.Neighbor)
	}
	// Output:
	// neighbor 0
	// neighbor 1
}

// Example_mutual demonstrates symmetrizing a k-NN result so every bond has
// its mirror.
func Example_mutual() {
	ctx := context.Background()

	b, err := box.New2D(10, 10)
	if err != nil {
		log.Fatal(err)
	}

	e, err := neargo.New(b, []mgl32.Vec3{
		{1.0, 1.0, 0.0},
		{1.5, 1.0, 0.0},
		{8.0, 8.0, 0.0},
	})
	if err != nil {
		log.Fatal(err)
	}

	// With k=1 point 2's nearest is point 0, but not the other way around;
	// Mutual adds the missing mirror bonds.
	list, err := e.SelfQuery().KNN(1).Mutual().Execute(ctx)
	if err != nil {
		log.Fatal(err)
	}

	fmt.Printf("Bonds after symmetrization: %d\n", list.Len())
	// Output: Bonds after symmetrization: 4
}

// Example_codec demonstrates serializing a neighbor list for another
// process.
func Example_codec() {
	ctx := context.Background()

	b, _ := box.New(10, 10, 10)
	e, _ := neargo.New(b, []mgl32.Vec3{{1, 1, 1}, {1.5, 1, 1}})

	list, err := e.SelfQuery().Ball(1.0).Execute(ctx)
	if err != nil {
		log.Fatal(err)
	}

	var buf bytes.Buffer
	if _, err := codec.Encode(&buf, list, func(o *codec.Options) {
		o.Compression = codec.CompressionZstd
	}); err != nil {
		log.Fatal(err)
	}

	decoded, err := codec.Decode(&buf)
	if err != nil {
		log.Fatal(err)
	}

	fmt.Printf("Round-tripped %d bonds\n", decoded.Len())
	// Output: Round-tripped 2 bonds
}
