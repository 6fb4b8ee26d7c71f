package cmd

import (
	"bytes"
	"fmt"
	"io"
	"math/rand"

	"github.com/olekukonko/tablewriter"
	"github.com/pkg/errors"
	"github.com/segmentio/encoding/json"
	"github.com/urfave/cli"

	"github.com/achilleasa/pruner/aabbtree"
)

// BuildFlags are the flags accepted by the build command.
var BuildFlags = append([]cli.Flag{
	cli.StringFlag{
		Name:  "source, s",
		Value: "boxes",
		Usage: "primitive type: boxes, vertices or triangles",
	},
	cli.BoolFlag{
		Name:  "all-rules",
		Usage: "build one tree per split rule and compare them",
	},
	cli.BoolFlag{
		Name:  "json",
		Usage: "print statistics as JSON",
	},
}, buildFlags...)

type buildReport struct {
	Rule          string  `json:"rule"`
	Source        string  `json:"source"`
	Limit         uint32  `json:"limit"`
	Primitives    int     `json:"primitives"`
	Nodes         int     `json:"nodes"`
	Leaves        int     `json:"leaves"`
	MaxDepth      int     `json:"max_depth"`
	InvalidSplits uint32  `json:"invalid_splits"`
	TotalPrims    uint32  `json:"total_prims"`
	SAHCost       float32 `json:"sah_cost"`
	BuildTimeMs   float64 `json:"build_time_ms"`
}

// BuildTree builds trees over random primitives and reports their shape.
func BuildTree(ctx *cli.Context) error {
	cfg, err := setupCommand(ctx)
	if err != nil {
		return err
	}

	rules := []aabbtree.SplitRule{cfg.Pruner.Build.Rule}
	if ctx.Bool("all-rules") {
		rules = aabbtree.SplitRules()
	}

	var reports []buildReport
	for _, rule := range rules {
		settings := cfg.Pruner.Build
		settings.Rule = rule

		// Every rule sees the same primitives.
		rng := rand.New(rand.NewSource(ctx.Int64("seed")))
		builder, err := newRandomBuilder(rng, ctx.String("source"), ctx.Int("count"), float32(ctx.Float64("world")), settings)
		if err != nil {
			return err
		}

		tree := aabbtree.NewTree()
		if err = tree.Build(builder); err != nil {
			return errors.Wrapf(err, "building tree with rule %s", rule)
		}

		stats := tree.Stats()
		reports = append(reports, buildReport{
			Rule:          rule.String(),
			Source:        ctx.String("source"),
			Limit:         settings.Limit,
			Primitives:    stats.Primitives,
			Nodes:         stats.Nodes,
			Leaves:        stats.Leaves,
			MaxDepth:      stats.MaxDepth,
			InvalidSplits: stats.InvalidSplits,
			TotalPrims:    stats.TotalPrims,
			SAHCost:       stats.SAHCost,
			BuildTimeMs:   float64(stats.BuildTime.Nanoseconds()) / 1e6,
		})
	}

	if ctx.Bool("json") {
		return writeJSON(ctx.App.Writer, reports)
	}
	displayBuildStats(reports)
	return nil
}

func newRandomBuilder(rng *rand.Rand, source string, count int, world float32, settings aabbtree.BuildSettings) (aabbtree.Builder, error) {
	if count <= 0 {
		return nil, errors.Errorf("invalid primitive count %d", count)
	}

	switch source {
	case "boxes":
		return aabbtree.NewBoxBuilder(randomBoxes(rng, count, world), settings), nil
	case "vertices":
		return aabbtree.NewVertexBuilder(randomVertices(rng, count, world), settings), nil
	case "triangles":
		return aabbtree.NewTriangleBuilder(randomTriangles(rng, count, world), settings), nil
	}
	return nil, errors.Errorf("unknown primitive source %q", source)
}

func displayBuildStats(reports []buildReport) {
	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetHeader([]string{"Rule", "Source", "Limit", "Primitives", "Nodes", "Leaves", "Depth", "Invalid splits", "SAH cost", "Build time"})
	for _, r := range reports {
		table.Append([]string{
			r.Rule,
			r.Source,
			fmt.Sprintf("%d", r.Limit),
			fmt.Sprintf("%d", r.Primitives),
			fmt.Sprintf("%d", r.Nodes),
			fmt.Sprintf("%d", r.Leaves),
			fmt.Sprintf("%d", r.MaxDepth),
			fmt.Sprintf("%d", r.InvalidSplits),
			fmt.Sprintf("%.2f", r.SAHCost),
			fmt.Sprintf("%.2f ms", r.BuildTimeMs),
		})
	}

	table.Render()
	logger.Noticef("tree statistics\n%s", buf.String())
}

func writeJSON(w io.Writer, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return errors.Wrap(err, "encoding statistics")
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}
