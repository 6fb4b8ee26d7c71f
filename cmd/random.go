package cmd

import (
	"math/rand"

	"github.com/achilleasa/pruner/aabbtree"
	"github.com/achilleasa/pruner/types"
)

// Max edge length of generated boxes and triangles.
const maxPrimitiveSize = 8

func randomPoint(rng *rand.Rand, world float32) types.Vec3 {
	return types.XYZ(rng.Float32()*world, rng.Float32()*world, rng.Float32()*world)
}

func randomBox(rng *rand.Rand, world float32) types.BBox {
	min := randomPoint(rng, world)
	size := randomPoint(rng, maxPrimitiveSize).Add(types.Splat(0.1))
	return types.NewBBox(min, min.Add(size))
}

func randomBoxes(rng *rand.Rand, count int, world float32) []types.BBox {
	boxes := make([]types.BBox, count)
	for i := range boxes {
		boxes[i] = randomBox(rng, world)
	}
	return boxes
}

func randomVertices(rng *rand.Rand, count int, world float32) []types.Vec3 {
	vertices := make([]types.Vec3, count)
	for i := range vertices {
		vertices[i] = randomPoint(rng, world)
	}
	return vertices
}

func randomTriangles(rng *rand.Rand, count int, world float32) aabbtree.TriangleList {
	tris := make(aabbtree.TriangleList, count)
	for i := range tris {
		v0 := randomPoint(rng, world)
		tris[i] = [3]types.Vec3{
			v0,
			v0.Add(randomPoint(rng, maxPrimitiveSize)),
			v0.Add(randomPoint(rng, maxPrimitiveSize)),
		}
	}
	return tris
}

// Random unit direction.
func randomDir(rng *rand.Rand) types.Vec3 {
	for {
		dir := types.XYZ(rng.Float32()*2-1, rng.Float32()*2-1, rng.Float32()*2-1)
		if l := dir.Len(); l > 1e-3 && l <= 1 {
			return dir.Normalize()
		}
	}
}
