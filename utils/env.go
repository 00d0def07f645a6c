package utils

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/setanarut/posterizer"
)

// Environment variables read by ParamsFromEnv.
const (
	EnvThreshold    = "POSTERIZE_THRESHOLD"
	EnvBlackOnWhite = "POSTERIZE_BLACK_ON_WHITE"
	EnvSteps        = "POSTERIZE_STEPS"
	EnvFill         = "POSTERIZE_FILL"
	EnvRanges       = "POSTERIZE_RANGES"
	EnvBackground   = "POSTERIZE_BACKGROUND"
	EnvColor        = "POSTERIZE_COLOR"
	EnvChannel      = "POSTERIZE_CHANNEL"
	EnvTurdSize     = "POSTERIZE_TURD_SIZE"
	EnvTurnPolicy   = "POSTERIZE_TURN_POLICY"
	EnvAlphaMax     = "POSTERIZE_ALPHA_MAX"
	EnvOptCurve     = "POSTERIZE_OPT_CURVE"
	EnvOptTolerance = "POSTERIZE_OPT_TOLERANCE"
)

// ParamsFromEnv loads .env from the working directory, if present, and reads the
// POSTERIZE_* variables into a Params. Unset variables stay nil. Tracing variables
// are merged into base.
func ParamsFromEnv(base posterizer.TraceParams) (posterizer.Params, error) {
	// .env is optional
	_ = godotenv.Load()
	return ParamsFromLookup(os.LookupEnv, base)
}

// ParamsFromLookup is ParamsFromEnv over an arbitrary variable source.
func ParamsFromLookup(lookup func(string) (string, bool), base posterizer.TraceParams) (posterizer.Params, error) {
	var p posterizer.Params
	get := func(key string) (string, bool) {
		v, ok := lookup(key)
		v = strings.TrimSpace(v)
		return v, ok && v != ""
	}

	if v, ok := get(EnvThreshold); ok {
		t, err := posterizer.ParseThreshold(v)
		if err != nil {
			return p, fmt.Errorf("%s: %w", EnvThreshold, err)
		}
		p.Threshold = &t
	}
	if v, ok := get(EnvBlackOnWhite); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return p, fmt.Errorf("%s: %w: %v", EnvBlackOnWhite, posterizer.ErrInvalidConfig, err)
		}
		p.BlackOnWhite = &b
	}
	if v, ok := get(EnvSteps); ok {
		s, err := posterizer.ParseSteps(v)
		if err != nil {
			return p, fmt.Errorf("%s: %w", EnvSteps, err)
		}
		p.Steps = &s
	}
	if v, ok := get(EnvFill); ok {
		f, err := posterizer.ParseFillStrategy(v)
		if err != nil {
			return p, fmt.Errorf("%s: %w", EnvFill, err)
		}
		p.FillStrategy = &f
	}
	if v, ok := get(EnvRanges); ok {
		r, err := posterizer.ParseRangeDistribution(v)
		if err != nil {
			return p, fmt.Errorf("%s: %w", EnvRanges, err)
		}
		p.RangeDistribution = &r
	}
	if v, ok := get(EnvBackground); ok {
		p.Background = &v
	}
	if v, ok := get(EnvColor); ok {
		p.Color = &v
	}
	if v, ok := get(EnvChannel); ok {
		c, err := posterizer.ParseChannel(v)
		if err != nil {
			return p, fmt.Errorf("%s: %w", EnvChannel, err)
		}
		p.Channel = &c
	}

	trace, touched := base, false
	if v, ok := get(EnvTurdSize); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return p, fmt.Errorf("%s: %w: %v", EnvTurdSize, posterizer.ErrInvalidConfig, err)
		}
		trace.TurdSize, touched = n, true
	}
	if v, ok := get(EnvTurnPolicy); ok {
		tp, err := posterizer.ParseTurnPolicy(v)
		if err != nil {
			return p, fmt.Errorf("%s: %w", EnvTurnPolicy, err)
		}
		trace.TurnPolicy, touched = tp, true
	}
	if v, ok := get(EnvAlphaMax); ok {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return p, fmt.Errorf("%s: %w: %v", EnvAlphaMax, posterizer.ErrInvalidConfig, err)
		}
		trace.AlphaMax, touched = f, true
	}
	if v, ok := get(EnvOptCurve); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return p, fmt.Errorf("%s: %w: %v", EnvOptCurve, posterizer.ErrInvalidConfig, err)
		}
		trace.OptCurve, touched = b, true
	}
	if v, ok := get(EnvOptTolerance); ok {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return p, fmt.Errorf("%s: %w: %v", EnvOptTolerance, posterizer.ErrInvalidConfig, err)
		}
		trace.OptTolerance, touched = f, true
	}
	if touched {
		p.Trace = &trace
	}
	return p, nil
}
