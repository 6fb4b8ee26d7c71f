package cmd

import (
	"os"

	"github.com/pkg/errors"
	"github.com/urfave/cli"
	"gopkg.in/yaml.v3"

	"github.com/achilleasa/pruner/aabbtree"
	"github.com/achilleasa/pruner/pruner"
)

// Config is the optional YAML file passed with --config.
type Config struct {
	LogLevel string         `yaml:"log_level"`
	Pruner   pruner.Options `yaml:"pruner"`
}

// DefaultConfig returns the config used when no file is supplied.
func DefaultConfig() Config {
	return Config{
		LogLevel: "notice",
		Pruner:   pruner.DefaultOptions(),
	}
}

// LoadConfig reads a YAML config file. Fields missing from the file keep
// their default values.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, errors.Wrapf(err, "reading config %q", path)
	}
	if err = yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, errors.Wrapf(err, "parsing config %q", path)
	}
	return cfg, nil
}

// Load the config selected by the global --config flag, overlay the
// command's build flags and set up logging.
func setupCommand(ctx *cli.Context) (Config, error) {
	cfg := DefaultConfig()
	if path := ctx.GlobalString("config"); path != "" {
		var err error
		if cfg, err = LoadConfig(path); err != nil {
			return cfg, err
		}
	}

	if err := setupLogging(ctx, cfg); err != nil {
		return cfg, err
	}

	if err := overlayBuildFlags(ctx, &cfg.Pruner.Build); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func overlayBuildFlags(ctx *cli.Context, settings *aabbtree.BuildSettings) error {
	if ctx.IsSet("rule") {
		rule, err := aabbtree.ParseSplitRule(ctx.String("rule"))
		if err != nil {
			return errors.Wrap(err, "invalid --rule")
		}
		settings.Rule = rule
	}
	if ctx.IsSet("limit") {
		limit := ctx.Int("limit")
		if limit < 1 {
			return errors.Errorf("invalid --limit %d: leaves hold at least one primitive", limit)
		}
		settings.Limit = uint32(limit)
	}
	return nil
}

// Shared flags for commands that build trees.
var buildFlags = []cli.Flag{
	cli.StringFlag{
		Name:  "rule, r",
		Value: aabbtree.SplitSplatter.String(),
		Usage: "split rule: largest-axis, splatter, balanced, best-axis or fifty",
	},
	cli.IntFlag{
		Name:  "limit, l",
		Value: 1,
		Usage: "max number of primitives per leaf",
	},
	cli.IntFlag{
		Name:  "count, n",
		Value: 10000,
		Usage: "number of random primitives",
	},
	cli.Float64Flag{
		Name:  "world",
		Value: 1000,
		Usage: "edge length of the cube primitives are scattered in",
	},
	cli.Int64Flag{
		Name:  "seed",
		Value: 1,
		Usage: "random seed",
	},
}
