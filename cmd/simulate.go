package cmd

import (
	"bytes"
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/olekukonko/tablewriter"
	"github.com/pkg/errors"
	"github.com/urfave/cli"
	"golang.org/x/sync/errgroup"

	"github.com/achilleasa/pruner/pruner"
	"github.com/achilleasa/pruner/types"
)

// SimulateFlags are the flags accepted by the simulate command.
var SimulateFlags = append([]cli.Flag{
	cli.IntFlag{
		Name:  "scenes",
		Value: 1,
		Usage: "number of independent scenes simulated in parallel",
	},
	cli.IntFlag{
		Name:  "ticks",
		Value: 1000,
		Usage: "number of simulation ticks per scene",
	},
	cli.IntFlag{
		Name:  "churn",
		Value: 10,
		Usage: "max number of add/remove/move operations per tick",
	},
	cli.IntFlag{
		Name:  "rate-hint",
		Value: 0,
		Usage: "number of ticks a rebuild should take; 0 keeps the configured value",
	},
	cli.BoolFlag{
		Name:  "json",
		Usage: "print statistics as JSON",
	},
}, buildFlags...)

// SceneSettings control a single simulated scene.
type SceneSettings struct {
	Objects  int
	Ticks    int
	Churn    int
	World    float32
	Seed     int64
	RateHint uint32
}

// SceneReport summarizes a simulated scene.
type SceneReport struct {
	Name           string  `json:"name"`
	Objects        int     `json:"objects"`
	Pending        int     `json:"pending"`
	TreeNodes      uint32  `json:"tree_nodes"`
	Adds           int     `json:"adds"`
	Removes        int     `json:"removes"`
	Moves          int     `json:"moves"`
	Rebuilds       int     `json:"rebuilds"`
	Abandoned      int     `json:"abandoned"`
	LastBuildTicks uint32  `json:"last_build_ticks"`
	AdaptiveTerm   int32   `json:"adaptive_term"`
	AvgTickMs      float64 `json:"avg_tick_ms"`
}

// Simulate drives dynamic pruners through random churn and verifies the
// handle to leaf mapping after every tick.
func Simulate(ctx *cli.Context) error {
	cfg, err := setupCommand(ctx)
	if err != nil {
		return err
	}

	numScenes := ctx.Int("scenes")
	if numScenes < 1 {
		return errors.Errorf("invalid --scenes %d", numScenes)
	}

	runID := uuid.New()
	logger.Noticef("simulation run %s: %d scene(s), %d ticks", runID, numScenes, ctx.Int("ticks"))

	reports := make([]SceneReport, numScenes)
	group, groupCtx := errgroup.WithContext(context.Background())
	for i := 0; i < numScenes; i++ {
		sceneIdx := i
		opts := cfg.Pruner
		opts.Kind = pruner.KindDynamic
		opts.Name = fmt.Sprintf("%s-%d", runID.String()[:8], sceneIdx)
		settings := SceneSettings{
			Objects:  ctx.Int("count"),
			Ticks:    ctx.Int("ticks"),
			Churn:    ctx.Int("churn"),
			World:    float32(ctx.Float64("world")),
			Seed:     ctx.Int64("seed") + int64(sceneIdx),
			RateHint: uint32(ctx.Int("rate-hint")),
		}

		group.Go(func() error {
			report, err := SimulateScene(groupCtx, opts, settings)
			if err != nil {
				return errors.Wrapf(err, "scene %s", opts.Name)
			}
			reports[sceneIdx] = report
			return nil
		})
	}
	if err = group.Wait(); err != nil {
		return err
	}

	if ctx.Bool("json") {
		return writeJSON(ctx.App.Writer, reports)
	}
	displaySceneStats(reports)
	return nil
}

// SimulateScene runs a single scene to completion. It returns an error if
// the pruner loses track of an object or ctx is cancelled.
func SimulateScene(ctx context.Context, opts pruner.Options, settings SceneSettings) (SceneReport, error) {
	p := pruner.NewDynamicPruner(opts)
	defer p.Release()

	if settings.RateHint != 0 {
		if err := p.SetRebuildRateHint(settings.RateHint); err != nil {
			return SceneReport{}, err
		}
	}

	report := SceneReport{Name: opts.Name}
	rng := rand.New(rand.NewSource(settings.Seed))
	var live []*pruner.Object
	nextID := 0

	addObject := func() error {
		obj := pruner.NewObject(nextID)
		nextID++
		if err := p.Add(obj, randomBox(rng, settings.World)); err != nil {
			return err
		}
		live = append(live, obj)
		report.Adds++
		return nil
	}

	for i := 0; i < settings.Objects; i++ {
		if err := addObject(); err != nil {
			return report, err
		}
	}

	var tickTime time.Duration
	for tick := 0; tick < settings.Ticks; tick++ {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		ops := 0
		if settings.Churn > 0 {
			ops = rng.Intn(settings.Churn + 1)
		}
		for ; ops > 0; ops-- {
			var err error
			switch choice := rng.Intn(3); {
			case choice == 0 || len(live) == 0:
				err = addObject()
			case choice == 1:
				pos := rng.Intn(len(live))
				err = p.Remove(live[pos])
				live[pos] = live[len(live)-1]
				live = live[:len(live)-1]
				report.Removes++
			default:
				obj := live[rng.Intn(len(live))]
				err = moveObject(p, obj, rng, settings.World)
				report.Moves++
			}
			if err != nil {
				return report, err
			}
		}

		start := time.Now()
		p.Tick()
		tickTime += time.Since(start)

		if !p.CheckMapping() {
			return report, errors.Errorf("object mapping broken at tick %d (state %s)", tick, p.RebuildState())
		}
	}

	stats := p.Stats()
	report.Objects = stats.Objects
	report.Pending = stats.Pending
	report.TreeNodes = stats.TreeNodes
	report.Rebuilds = stats.Rebuilds
	report.Abandoned = stats.Abandoned
	report.LastBuildTicks = stats.LastTicks
	report.AdaptiveTerm = stats.AdaptiveTerm
	if settings.Ticks > 0 {
		report.AvgTickMs = float64(tickTime.Nanoseconds()) / 1e6 / float64(settings.Ticks)
	}
	return report, nil
}

// Translate an object by a small random offset.
func moveObject(p *pruner.DynamicPruner, obj *pruner.Object, rng *rand.Rand, world float32) error {
	box, err := p.Box(obj)
	if err != nil {
		return err
	}
	step := world * 0.01
	offset := types.XYZ(
		(rng.Float32()*2-1)*step,
		(rng.Float32()*2-1)*step,
		(rng.Float32()*2-1)*step,
	)
	return p.Update(obj, types.NewBBox(box.Min.Add(offset), box.Max.Add(offset)))
}

func displaySceneStats(reports []SceneReport) {
	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetHeader([]string{"Scene", "Objects", "Pending", "Nodes", "Adds", "Removes", "Moves", "Rebuilds", "Last build ticks", "Adaptive term", "Avg tick"})
	var totalRebuilds int
	for _, r := range reports {
		totalRebuilds += r.Rebuilds
		table.Append([]string{
			r.Name,
			fmt.Sprintf("%d", r.Objects),
			fmt.Sprintf("%d", r.Pending),
			fmt.Sprintf("%d", r.TreeNodes),
			fmt.Sprintf("%d", r.Adds),
			fmt.Sprintf("%d", r.Removes),
			fmt.Sprintf("%d", r.Moves),
			fmt.Sprintf("%d", r.Rebuilds),
			fmt.Sprintf("%d", r.LastBuildTicks),
			fmt.Sprintf("%d", r.AdaptiveTerm),
			fmt.Sprintf("%.3f ms", r.AvgTickMs),
		})
	}
	table.SetFooter([]string{"", "", "", "", "", "", "TOTAL", fmt.Sprintf("%d", totalRebuilds), "", "", ""})

	table.Render()
	logger.Noticef("simulation statistics\n%s", buf.String())
}
