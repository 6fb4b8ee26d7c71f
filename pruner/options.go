package pruner

import "github.com/achilleasa/pruner/aabbtree"

// Kind selects the pruner implementation created by New.
type Kind string

const (
	KindStatic  Kind = "static"
	KindDynamic Kind = "dynamic"
)

// RebuildSettings tune the incremental rebuild scheduler of the dynamic
// pruner.
type RebuildSettings struct {
	// Target number of progressive build ticks per rebuild.
	RateHint uint32 `yaml:"rate_hint"`

	// The previous tree's build cost is used as the work estimate for the
	// next rebuild while the fresh estimate stays within this factor of it.
	EstimateTolerance uint32 `yaml:"estimate_tolerance"`

	// Min number of primitives processed per build tick.
	MinStepWork uint32 `yaml:"min_step_work"`
}

// Options configure a pruner.
type Options struct {
	Name string `yaml:"name"`
	Kind Kind   `yaml:"kind"`

	Build   aabbtree.BuildSettings `yaml:"build"`
	Rebuild RebuildSettings        `yaml:"rebuild"`
}

// DefaultOptions returns the options used when no config is supplied.
func DefaultOptions() Options {
	return Options{
		Name:  "default",
		Kind:  KindDynamic,
		Build: aabbtree.DefaultBuildSettings(),
		Rebuild: RebuildSettings{
			RateHint:          100,
			EstimateTolerance: 2,
			MinStepWork:       1,
		},
	}
}

// Fill unset fields with their defaults.
func (o Options) withDefaults() Options {
	def := DefaultOptions()
	if o.Name == "" {
		o.Name = def.Name
	}
	if o.Kind == "" {
		o.Kind = def.Kind
	}
	if o.Rebuild.RateHint == 0 {
		o.Rebuild.RateHint = def.Rebuild.RateHint
	}
	if o.Rebuild.EstimateTolerance == 0 {
		o.Rebuild.EstimateTolerance = def.Rebuild.EstimateTolerance
	}
	if o.Rebuild.MinStepWork == 0 {
		o.Rebuild.MinStepWork = def.Rebuild.MinStepWork
	}
	return o
}
