package cmd

import (
	"bytes"
	"fmt"
	"math/rand"
	"strconv"
	"strings"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/olekukonko/tablewriter"
	"github.com/pkg/errors"
	"github.com/urfave/cli"

	"github.com/achilleasa/pruner/aabbtree"
	"github.com/achilleasa/pruner/pruner"
	"github.com/achilleasa/pruner/types"
)

// CullFlags are the flags accepted by the cull command.
var CullFlags = append([]cli.Flag{
	cli.StringFlag{
		Name:  "eye",
		Value: "-200,500,-200",
		Usage: "camera position as x,y,z",
	},
	cli.StringFlag{
		Name:  "target",
		Value: "500,500,500",
		Usage: "camera look-at point as x,y,z",
	},
	cli.Float64Flag{
		Name:  "fov",
		Value: 60,
		Usage: "vertical field of view in degrees",
	},
	cli.Float64Flag{
		Name:  "aspect",
		Value: 16.0 / 9.0,
		Usage: "viewport aspect ratio",
	},
	cli.Float64Flag{
		Name:  "near",
		Value: 1,
		Usage: "near plane distance",
	},
	cli.Float64Flag{
		Name:  "far",
		Value: 800,
		Usage: "far plane distance",
	},
}, buildFlags...)

// Camera describes a perspective view.
type Camera struct {
	Eye, Target mgl32.Vec3
	FovY        float32
	Aspect      float32
	Near, Far   float32
}

// Planes returns the outward facing frustum planes of the camera.
func (c Camera) Planes() []types.Plane {
	proj := mgl32.Perspective(mgl32.DegToRad(c.FovY), c.Aspect, c.Near, c.Far)
	view := mgl32.LookAtV(c.Eye, c.Target, mgl32.Vec3{0, 1, 0})
	return types.FrustumPlanes(proj.Mul4(view))
}

// CullObjects culls random boxes against a camera frustum.
func CullObjects(ctx *cli.Context) error {
	cfg, err := setupCommand(ctx)
	if err != nil {
		return err
	}

	cam := Camera{
		FovY:   float32(ctx.Float64("fov")),
		Aspect: float32(ctx.Float64("aspect")),
		Near:   float32(ctx.Float64("near")),
		Far:    float32(ctx.Float64("far")),
	}
	if cam.Eye, err = parseVec3(ctx.String("eye")); err != nil {
		return errors.Wrap(err, "invalid --eye")
	}
	if cam.Target, err = parseVec3(ctx.String("target")); err != nil {
		return errors.Wrap(err, "invalid --target")
	}

	p, err := pruner.New(cfg.Pruner)
	if err != nil {
		return err
	}
	defer p.Release()

	rng := rand.New(rand.NewSource(ctx.Int64("seed")))
	boxes := randomBoxes(rng, ctx.Int("count"), float32(ctx.Float64("world")))
	for i, box := range boxes {
		if err = p.Add(pruner.NewObject(i), box); err != nil {
			return err
		}
	}
	p.Tick()

	planes := cam.Planes()
	var visible, clipped int
	start := time.Now()
	p.Cull(planes, func(_ *pruner.Object, needsClipping bool) {
		visible++
		if needsClipping {
			clipped++
		}
	})
	elapsed := time.Since(start)

	expected := 0
	mask := aabbtree.PlaneMask(len(planes))
	for _, box := range boxes {
		if _, overlap := aabbtree.PlanesBoxOverlap(box, planes, mask); overlap {
			expected++
		}
	}
	if visible < expected {
		return errors.Errorf("cull reported %d objects; brute force found %d", visible, expected)
	}

	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetAutoFormatHeaders(false)
	table.SetHeader([]string{"Objects", "Visible", "Needs clipping", "Brute force", "Query time"})
	table.Append([]string{
		fmt.Sprintf("%d", len(boxes)),
		fmt.Sprintf("%d", visible),
		fmt.Sprintf("%d", clipped),
		fmt.Sprintf("%d", expected),
		elapsed.String(),
	})
	table.Render()
	logger.Noticef("cull statistics\n%s", buf.String())
	return nil
}

// Parse a "x,y,z" vector.
func parseVec3(s string) (mgl32.Vec3, error) {
	var v mgl32.Vec3
	parts := strings.Split(s, ",")
	if len(parts) != 3 {
		return v, errors.Errorf("expected x,y,z; got %q", s)
	}
	for i, part := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(part), 32)
		if err != nil {
			return v, errors.Wrapf(err, "component %d", i)
		}
		v[i] = float32(f)
	}
	return v, nil
}
