package aabbtree

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/achilleasa/pruner/types"
)

// SplitRule selects the axis used for subdividing a node.
type SplitRule uint8

const (
	// Split along the axis with the largest node extent.
	SplitLargestAxis SplitRule = iota

	// Split along the axis with the largest variance of primitive split values.
	SplitSplatter

	// Split along the axis whose partition is closest to 50/50.
	SplitBalanced

	// Try axes in order of decreasing extent until one yields a
	// non-degenerate partition.
	SplitBestAxis

	// Split the primitive range in half regardless of geometry.
	SplitFifty
)

var splitRuleNames = map[SplitRule]string{
	SplitLargestAxis: "largest-axis",
	SplitSplatter:    "splatter",
	SplitBalanced:    "balanced",
	SplitBestAxis:    "best-axis",
	SplitFifty:       "fifty",
}

// SplitRules returns all supported split rules.
func SplitRules() []SplitRule {
	return []SplitRule{SplitLargestAxis, SplitSplatter, SplitBalanced, SplitBestAxis, SplitFifty}
}

func (r SplitRule) String() string {
	if name, ok := splitRuleNames[r]; ok {
		return name
	}
	return fmt.Sprintf("rule(%d)", uint8(r))
}

// ParseSplitRule maps a rule name back to its SplitRule value.
func ParseSplitRule(name string) (SplitRule, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for rule, ruleName := range splitRuleNames {
		if ruleName == name {
			return rule, nil
		}
	}
	return SplitLargestAxis, fmt.Errorf("aabbtree: unknown split rule %q", name)
}

func (r SplitRule) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

func (r *SplitRule) UnmarshalText(text []byte) error {
	rule, err := ParseSplitRule(string(text))
	if err != nil {
		return err
	}
	*r = rule
	return nil
}

// BuildSettings controls tree construction.
type BuildSettings struct {
	Rule SplitRule `yaml:"rule"`

	// Use the mean of the primitive split values as the node threshold
	// instead of the node box center.
	GeomCenter bool `yaml:"geom_center"`

	// Max primitives per leaf. A limit of 1 produces a complete tree.
	Limit uint32 `yaml:"limit"`

	// Optionally stretch node boxes along ExtensionAxis so they reach
	// ExtensionValue.
	ExtensionAxis  types.Axis `yaml:"extension_axis"`
	ExtensionValue float32    `yaml:"extension_value"`

	// Inflate every node box by this amount.
	SkinSize float32 `yaml:"skin_size"`
}

// DefaultBuildSettings returns the settings used by the pruners.
func DefaultBuildSettings() BuildSettings {
	return BuildSettings{
		Rule:          SplitSplatter,
		GeomCenter:    true,
		Limit:         1,
		ExtensionAxis: types.NoAxis,
	}
}

// Builder supplies primitive geometry to the tree. Concrete builders embed
// BaseBuilder which provides settings, counters and the default node
// threshold.
type Builder interface {
	Base() *BaseBuilder

	// Return the union of the bounds of the given primitives.
	ComputeGlobalBox(prims []uint32) types.BBox

	// Return the value used for partitioning a primitive along axis.
	SplittingValue(prim uint32, axis types.Axis) float32

	// Return the threshold used for partitioning a node along axis.
	NodeSplittingValue(prims []uint32, box types.BBox, axis types.Axis) float32

	// Return false if the given primitives should form a leaf.
	ValidateSubdivision(prims []uint32) bool
}

// Return true if b is nil or wraps a nil pointer.
func isNilBuilder(b Builder) bool {
	if b == nil {
		return true
	}
	v := reflect.ValueOf(b)
	return v.Kind() == reflect.Ptr && v.IsNil()
}

// BaseBuilder holds state shared by all builders.
type BaseBuilder struct {
	Settings BuildSettings

	numPrims uint32

	// Build-time counters.
	createdNodes  uint32
	invalidSplits uint32
	totalPrims    uint32

	initBox    types.BBox
	initBoxSet bool
}

func newBaseBuilder(numPrims uint32, settings BuildSettings) BaseBuilder {
	return BaseBuilder{Settings: settings, numPrims: numPrims}
}

func (b *BaseBuilder) Base() *BaseBuilder {
	return b
}

// NumPrimitives returns the number of primitives exposed by the builder.
func (b *BaseBuilder) NumPrimitives() uint32 {
	return b.numPrims
}

// CreatedNodes returns the number of nodes created by the last build.
func (b *BaseBuilder) CreatedNodes() uint32 {
	return b.createdNodes
}

// InvalidSplits returns the number of degenerate splits that were forced
// into a 50/50 partition during the last build.
func (b *BaseBuilder) InvalidSplits() uint32 {
	return b.invalidSplits
}

// TotalPrimitives returns the sum of primitive counts over all nodes
// processed by the last build.
func (b *BaseBuilder) TotalPrimitives() uint32 {
	return b.totalPrims
}

func (b *BaseBuilder) ValidateSubdivision(prims []uint32) bool {
	return uint32(len(prims)) > b.Settings.Limit
}

// NodeSplittingValue returns the node box center along axis.
func (b *BaseBuilder) NodeSplittingValue(_ []uint32, box types.BBox, axis types.Axis) float32 {
	return box.Center()[axis]
}

func (b *BaseBuilder) reset() {
	b.createdNodes = 1
	b.invalidSplits = 0
	b.totalPrims = 0
	b.initBoxSet = false
}

// Apply the optional axis extension and skin to a freshly computed node box.
func (b *BaseBuilder) adjustBox(box types.BBox) types.BBox {
	if axis := b.Settings.ExtensionAxis; axis < types.NoAxis {
		if !b.initBoxSet {
			b.initBox = box
			b.initBoxSet = true
		}
		ext := b.Settings.ExtensionValue
		if ext < b.initBox.Min[axis] {
			box.Min[axis] = ext
		} else if ext > b.initBox.Max[axis] {
			box.Max[axis] = ext
		}
	}
	if b.Settings.SkinSize != 0 {
		box = box.Inflate(b.Settings.SkinSize)
	}
	return box
}
