package posterizer

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
	"golang.org/x/image/colornames"
)

const (
	// ThresholdAuto resolves the binary threshold with Otsu's method.
	ThresholdAuto = -1
	// ColorAuto paints black layers on white (blackOnWhite) and white on black otherwise.
	ColorAuto = "auto"
	// Transparent leaves the document without a background rectangle.
	Transparent = "transparent"
)

// FillStrategy selects how a color stop's representative intensity is chosen.
type FillStrategy int

const (
	FillDominant FillStrategy = iota
	FillSpread
	FillMean
	FillMedian
)

func (f FillStrategy) String() string {
	switch f {
	case FillSpread:
		return "spread"
	case FillMean:
		return "mean"
	case FillMedian:
		return "median"
	default:
		return "dominant"
	}
}

// ParseFillStrategy parses "spread", "dominant", "mean" or "median".
func ParseFillStrategy(s string) (FillStrategy, error) {
	for _, f := range []FillStrategy{FillDominant, FillSpread, FillMean, FillMedian} {
		if strings.EqualFold(s, f.String()) {
			return f, nil
		}
	}
	return 0, fmt.Errorf("%w: unknown fill strategy %q", ErrInvalidConfig, s)
}

// RangeDistribution selects how intermediate thresholds are placed.
type RangeDistribution int

const (
	RangesAuto RangeDistribution = iota
	RangesEqual
)

func (r RangeDistribution) String() string {
	if r == RangesEqual {
		return "equal"
	}
	return "auto"
}

// ParseRangeDistribution parses "auto" or "equal".
func ParseRangeDistribution(s string) (RangeDistribution, error) {
	switch strings.ToLower(s) {
	case "auto":
		return RangesAuto, nil
	case "equal":
		return RangesEqual, nil
	}
	return 0, fmt.Errorf("%w: unknown range distribution %q", ErrInvalidConfig, s)
}

type stepsKind int

const (
	stepsAuto stepsKind = iota
	stepsCount
	stepsLevels
)

// Steps is the number of layers: automatic (the zero value), a count, or an explicit
// list of thresholds.
type Steps struct {
	kind   stepsKind
	count  int
	levels []int
}

// StepsAuto lets the planner choose 3 or 4 layers.
var StepsAuto = Steps{}

// StepCount requests n layers, 1..255. With RangesAuto the n-1 intermediate thresholds
// come from an exhaustive multilevel Otsu search whose cost grows with the span raised
// to the n-1, so counts above about 5 get slow; more than 4 thresholds logs a warning.
// Large counts (the extra stop needs 10 or more) are practical only with RangesEqual
// or explicit levels.
func StepCount(n int) Steps {
	return Steps{kind: stepsCount, count: n}
}

// StepLevels requests one layer per listed threshold.
func StepLevels(levels ...int) Steps {
	return Steps{kind: stepsLevels, levels: slices.Clone(levels)}
}

// IsAuto reports whether the step count is chosen automatically.
func (s Steps) IsAuto() bool {
	return s.kind == stepsAuto
}

// IsExplicit reports whether the steps were given as a list of thresholds.
func (s Steps) IsExplicit() bool {
	return s.kind == stepsLevels
}

// Count returns the requested layer count, 0 for auto or explicit levels.
func (s Steps) Count() int {
	return s.count
}

// Levels returns the explicit thresholds, nil unless the steps were given as a list.
func (s Steps) Levels() []int {
	return slices.Clone(s.levels)
}

func (s Steps) String() string {
	switch s.kind {
	case stepsLevels:
		parts := make([]string, len(s.levels))
		for i, v := range s.levels {
			parts[i] = strconv.Itoa(v)
		}
		return strings.Join(parts, ",")
	case stepsCount:
		return strconv.Itoa(s.count)
	default:
		return "auto"
	}
}

func (s Steps) validate() error {
	if s.kind == stepsCount && (s.count < 1 || s.count > 255) {
		return fmt.Errorf("%w: steps must be auto, 1..255 or a list of levels, got %d", ErrInvalidConfig, s.count)
	}
	return nil
}

// ParseSteps parses "auto", a count like "4" or a comma separated level list like
// "20,60,80". A list with a single entry needs a trailing comma ("80,").
func ParseSteps(s string) (Steps, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "auto") {
		return StepsAuto, nil
	}
	if !strings.Contains(s, ",") {
		n, err := strconv.Atoi(s)
		if err != nil {
			return Steps{}, fmt.Errorf("%w: steps %q: %v", ErrInvalidConfig, s, err)
		}
		steps := StepCount(n)
		return steps, steps.validate()
	}
	var levels []int
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		v, err := strconv.Atoi(part)
		if err != nil {
			return Steps{}, fmt.Errorf("%w: steps level %q: %v", ErrInvalidConfig, part, err)
		}
		levels = append(levels, v)
	}
	return StepLevels(levels...), nil
}

// ParseThreshold parses "auto" or a level 0..255.
func ParseThreshold(s string) (int, error) {
	s = strings.TrimSpace(s)
	if strings.EqualFold(s, "auto") {
		return ThresholdAuto, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%w: threshold %q: %v", ErrInvalidConfig, s, err)
	}
	if v < 0 || v > 255 {
		return 0, fmt.Errorf("%w: threshold must be auto or 0..255, got %d", ErrInvalidConfig, v)
	}
	return v, nil
}

// TurnPolicy decides how ambiguous bitmap corners are resolved while tracing.
type TurnPolicy int

const (
	TurnMinority TurnPolicy = iota
	TurnMajority
	TurnBlack
	TurnWhite
	TurnLeft
	TurnRight
)

var turnPolicyNames = map[TurnPolicy]string{
	TurnMinority: "minority",
	TurnMajority: "majority",
	TurnBlack:    "black",
	TurnWhite:    "white",
	TurnLeft:     "left",
	TurnRight:    "right",
}

func (t TurnPolicy) String() string {
	return turnPolicyNames[t]
}

// ParseTurnPolicy parses a turn policy name.
func ParseTurnPolicy(s string) (TurnPolicy, error) {
	for k, v := range turnPolicyNames {
		if strings.EqualFold(s, v) {
			return k, nil
		}
	}
	return 0, fmt.Errorf("%w: unknown turn policy %q", ErrInvalidConfig, s)
}

// TraceParams tune the vectorizer.
type TraceParams struct {
	// Speckles up to this many pixels are suppressed.
	TurdSize int
	// How ambiguous corners are resolved.
	TurnPolicy TurnPolicy
	// Corner threshold. 0 gives a polygon, 4/3 and above no corners at all.
	AlphaMax float64
	// Join adjacent Bezier segments when the error stays below OptTolerance.
	OptCurve     bool
	OptTolerance float64
}

// DefaultTraceParams match potrace's defaults.
func DefaultTraceParams() TraceParams {
	return TraceParams{
		TurdSize:     2,
		TurnPolicy:   TurnMinority,
		AlphaMax:     1,
		OptCurve:     true,
		OptTolerance: 0.2,
	}
}

func (t TraceParams) validate() error {
	if t.TurdSize < 0 {
		return fmt.Errorf("%w: turd size must not be negative", ErrInvalidConfig)
	}
	if _, ok := turnPolicyNames[t.TurnPolicy]; !ok {
		return fmt.Errorf("%w: unknown turn policy %d", ErrInvalidConfig, t.TurnPolicy)
	}
	if t.AlphaMax < 0 || t.OptTolerance < 0 {
		return fmt.Errorf("%w: alpha max and curve tolerance must not be negative", ErrInvalidConfig)
	}
	return nil
}

// Config is an immutable snapshot of posterization settings.
type Config struct {
	// Binary threshold 0..255 or ThresholdAuto.
	Threshold int
	// Dark foreground on a light background. Decides which direction is "more
	// saturated": towards 0 when true, towards 255 otherwise.
	BlackOnWhite bool
	// Layer count or explicit thresholds.
	Steps Steps
	// Representative intensity per color stop.
	FillStrategy FillStrategy
	// Placement of intermediate thresholds. Ignored for explicit steps.
	RangeDistribution RangeDistribution
	// Background rectangle color or Transparent. Hex (#rgb, #rrggbb) or an SVG color
	// name, written to the document as given.
	Background string
	// Layer fill color or ColorAuto, in the same forms as Background.
	Color string
	// Grey reduction of loaded images.
	Channel Channel
	Trace   TraceParams
}

// DefaultConfig returns the settings used when nothing is configured.
func DefaultConfig() Config {
	return Config{
		Threshold:         ThresholdAuto,
		BlackOnWhite:      true,
		Steps:             StepsAuto,
		FillStrategy:      FillDominant,
		RangeDistribution: RangesAuto,
		Background:        Transparent,
		Color:             ColorAuto,
		Channel:           ChannelLuminance,
		Trace:             DefaultTraceParams(),
	}
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	if c.Threshold != ThresholdAuto && (c.Threshold < 0 || c.Threshold > 255) {
		return fmt.Errorf("%w: threshold must be auto or 0..255, got %d", ErrInvalidConfig, c.Threshold)
	}
	if err := c.Steps.validate(); err != nil {
		return err
	}
	if c.FillStrategy < FillDominant || c.FillStrategy > FillMedian {
		return fmt.Errorf("%w: unknown fill strategy %d", ErrInvalidConfig, c.FillStrategy)
	}
	if c.RangeDistribution != RangesAuto && c.RangeDistribution != RangesEqual {
		return fmt.Errorf("%w: unknown range distribution %d", ErrInvalidConfig, c.RangeDistribution)
	}
	if c.Background != Transparent {
		if _, err := ParseColor(c.Background); err != nil {
			return fmt.Errorf("%w: background %q: %v", ErrInvalidConfig, c.Background, err)
		}
	}
	if c.Color != ColorAuto {
		if _, err := ParseColor(c.Color); err != nil {
			return fmt.Errorf("%w: color %q: %v", ErrInvalidConfig, c.Color, err)
		}
	}
	if c.Channel < ChannelLuminance || c.Channel > ChannelBlue {
		return fmt.Errorf("%w: unknown channel %d", ErrInvalidConfig, c.Channel)
	}
	return c.Trace.validate()
}

// ParseColor parses a hex color or an SVG 1.1 color keyword such as "white".
func ParseColor(s string) (colorful.Color, error) {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "#") {
		if rgba, ok := colornames.Map[strings.ToLower(s)]; ok {
			col, _ := colorful.MakeColor(rgba)
			return col, nil
		}
		return colorful.Color{}, fmt.Errorf("unknown color name %q", s)
	}
	return colorful.Hex(s)
}

// FillColor resolves Color to a hex string.
func (c Config) FillColor() string {
	if c.Color != ColorAuto {
		col, err := ParseColor(c.Color)
		if err == nil {
			return col.Hex()
		}
	}
	if c.BlackOnWhite {
		return "#000000"
	}
	return "#ffffff"
}

// Params is a partial configuration; nil fields are left unchanged.
type Params struct {
	Threshold         *int
	BlackOnWhite      *bool
	Steps             *Steps
	FillStrategy      *FillStrategy
	RangeDistribution *RangeDistribution
	Background        *string
	Color             *string
	Channel           *Channel
	Trace             *TraceParams
}

// Apply returns c with the non-nil fields of p merged in.
func (p Params) Apply(c Config) Config {
	if p.Threshold != nil {
		c.Threshold = *p.Threshold
	}
	if p.BlackOnWhite != nil {
		c.BlackOnWhite = *p.BlackOnWhite
	}
	if p.Steps != nil {
		c.Steps = *p.Steps
	}
	if p.FillStrategy != nil {
		c.FillStrategy = *p.FillStrategy
	}
	if p.RangeDistribution != nil {
		c.RangeDistribution = *p.RangeDistribution
	}
	if p.Background != nil {
		c.Background = *p.Background
	}
	if p.Color != nil {
		c.Color = *p.Color
	}
	if p.Channel != nil {
		c.Channel = *p.Channel
	}
	if p.Trace != nil {
		c.Trace = *p.Trace
	}
	return c
}
