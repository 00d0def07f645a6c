package posterizer

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/dennwc/gotrace"
	"github.com/rs/zerolog"
)

// TraceRequest carries everything a tracer needs for one layer, so no tracer state has
// to be set up before the call.
type TraceRequest struct {
	Threshold    int
	BlackOnWhite bool
	Params       TraceParams
}

// Tracer vectorizes the foreground of r at a threshold and returns SVG path data
// (the value of a d attribute). An empty mask yields an empty string.
type Tracer interface {
	Trace(ctx context.Context, r *Raster, req TraceRequest) (string, error)
}

// PotraceTracer traces with the pure Go potrace port. Results are cached per raster
// and request; tracing a different raster drops the cache.
type PotraceTracer struct {
	mu     sync.Mutex
	raster *Raster
	cache  map[TraceRequest]string
	log    zerolog.Logger
}

// NewPotraceTracer returns a tracer with an empty cache.
func NewPotraceTracer() *PotraceTracer {
	return &PotraceTracer{
		cache: make(map[TraceRequest]string),
		log:   componentLogger("tracer"),
	}
}

var gotraceTurnPolicies = map[TurnPolicy]gotrace.TurnPolicy{
	TurnMinority: gotrace.TurnMinority,
	TurnMajority: gotrace.TurnMajority,
	TurnBlack:    gotrace.TurnBlack,
	TurnWhite:    gotrace.TurnWhite,
	TurnLeft:     gotrace.TurnLeft,
	TurnRight:    gotrace.TurnRight,
}

func (t *PotraceTracer) Trace(ctx context.Context, r *Raster, req TraceRequest) (string, error) {
	if r == nil {
		return "", fmt.Errorf("%w: nil raster", ErrNotLoaded)
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	t.mu.Lock()
	if t.raster != r {
		t.raster = r
		t.cache = make(map[TraceRequest]string)
	}
	if d, ok := t.cache[req]; ok {
		t.mu.Unlock()
		return d, nil
	}
	t.mu.Unlock()

	bm := gotrace.NewBitmap(r.W, r.H)
	for y := range r.H {
		for x := range r.W {
			if isForeground(int(r.GreyAt(x, y)), req.Threshold, req.BlackOnWhite) {
				bm.Set(x, y, true)
			}
		}
	}
	params := gotrace.Params{
		TurdSize:     req.Params.TurdSize,
		TurnPolicy:   gotraceTurnPolicies[req.Params.TurnPolicy],
		AlphaMax:     req.Params.AlphaMax,
		OptiCurve:    req.Params.OptCurve,
		OptTolerance: req.Params.OptTolerance,
	}
	paths, err := gotrace.Trace(bm, &params)
	if err != nil {
		return "", fmt.Errorf("trace threshold %d: %w", req.Threshold, err)
	}

	var sb strings.Builder
	for _, p := range paths {
		d := p.ToSvgPath()
		if d == "" {
			continue
		}
		if sb.Len() > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(d)
	}
	d := sb.String()
	t.log.Debug().Int("threshold", req.Threshold).Int("paths", len(paths)).Msg("traced")

	t.mu.Lock()
	if t.raster == r {
		t.cache[req] = d
	}
	t.mu.Unlock()
	return d, nil
}
