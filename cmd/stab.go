package cmd

import (
	"bytes"
	"fmt"
	"math/rand"
	"time"

	"github.com/chewxy/math32"
	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli"

	"github.com/achilleasa/pruner/aabbtree"
	"github.com/achilleasa/pruner/pruner"
	"github.com/achilleasa/pruner/types"
)

// StabFlags are the flags accepted by the stab command.
var StabFlags = append([]cli.Flag{
	cli.IntFlag{
		Name:  "rays",
		Value: 1000,
		Usage: "number of random rays",
	},
	cli.Float64Flag{
		Name:  "max-dist",
		Value: 0,
		Usage: "segment length; 0 casts infinite rays",
	},
	cli.BoolFlag{
		Name:  "closest",
		Usage: "shrink each query to the closest hit found so far",
	},
}, buildFlags...)

type stabResult struct {
	hits    int
	hitRays int
	closest float32
}

// StabObjects casts random rays against random boxes.
func StabObjects(ctx *cli.Context) error {
	cfg, err := setupCommand(ctx)
	if err != nil {
		return err
	}

	p, err := pruner.New(cfg.Pruner)
	if err != nil {
		return err
	}
	defer p.Release()

	world := float32(ctx.Float64("world"))
	rng := rand.New(rand.NewSource(ctx.Int64("seed")))
	for _, box := range randomBoxes(rng, ctx.Int("count"), world) {
		if err = p.Add(pruner.NewObject(box), box); err != nil {
			return err
		}
	}
	p.Tick()

	maxDist := float32(ctx.Float64("max-dist"))
	if maxDist <= 0 {
		maxDist = math32.MaxFloat32
	}

	numRays := ctx.Int("rays")
	var res stabResult
	start := time.Now()
	for i := 0; i < numRays; i++ {
		hits, closest := stabRay(p, randomPoint(rng, world), randomDir(rng), maxDist, ctx.Bool("closest"))
		res.hits += hits
		if hits > 0 {
			res.hitRays++
			res.closest += closest
		}
	}
	elapsed := time.Since(start)

	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetAutoFormatHeaders(false)
	table.SetHeader([]string{"Objects", "Rays", "Rays with hits", "Hits", "Avg closest dist", "Query time"})
	avgClosest := float32(0)
	if res.hitRays > 0 {
		avgClosest = res.closest / float32(res.hitRays)
	}
	table.Append([]string{
		fmt.Sprintf("%d", p.Len()),
		fmt.Sprintf("%d", numRays),
		fmt.Sprintf("%d", res.hitRays),
		fmt.Sprintf("%d", res.hits),
		fmt.Sprintf("%.2f", avgClosest),
		elapsed.String(),
	})
	table.Render()
	logger.Noticef("stab statistics\n%s", buf.String())
	return nil
}

// Cast a single ray and return the number of boxes hit and the distance
// to the closest box entry point. When shrink is set, the query is
// narrowed to the closest hit as hits are reported.
func stabRay(p pruner.Pruner, origin, dir types.Vec3, maxDist float32, shrink bool) (int, float32) {
	hits := 0
	closest := float32(math32.MaxFloat32)
	p.Stab(origin, dir, maxDist, func(obj *pruner.Object, dist *float32) aabbtree.StabStatus {
		entry, ok := rayEntry(origin, dir, obj.Data.(types.BBox))
		if !ok || entry > *dist {
			return aabbtree.StabContinue
		}
		hits++
		if entry < closest {
			closest = entry
		}
		if shrink && entry < *dist {
			*dist = entry
			return aabbtree.StabUpdateMaxDist
		}
		return aabbtree.StabContinue
	})
	return hits, closest
}

// Return the distance along dir at which the ray enters box. Rays
// starting inside the box enter at 0.
func rayEntry(origin, dir types.Vec3, box types.BBox) (float32, bool) {
	tMin, tMax := float32(0), float32(math32.MaxFloat32)
	for axis := 0; axis < 3; axis++ {
		if math32.Abs(dir[axis]) < 1e-8 {
			if origin[axis] < box.Min[axis] || origin[axis] > box.Max[axis] {
				return 0, false
			}
			continue
		}
		inv := 1 / dir[axis]
		t0 := (box.Min[axis] - origin[axis]) * inv
		t1 := (box.Max[axis] - origin[axis]) * inv
		if t0 > t1 {
			t0, t1 = t1, t0
		}
		tMin = math32.Max(tMin, t0)
		tMax = math32.Min(tMax, t1)
		if tMin > tMax {
			return 0, false
		}
	}
	return tMin, true
}
