package posterizer

import (
	"context"
	"errors"
	"fmt"
	"image"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"
	"github.com/setanarut/posterizer/source"
)

// Decoder turns a source value (path, URL, bytes, reader, image) into an image.
type Decoder interface {
	Decode(ctx context.Context, src any) (image.Image, error)
}

// Posterizer traces an image at several thresholds and stacks the results with fill
// opacities that reproduce its tonal structure.
//
// A Posterizer owns one configuration and at most one loaded image. Only one load may
// run at a time; a second one fails with ErrLoadInProgress instead of queueing.
type Posterizer struct {
	mu  sync.Mutex
	cfg Config

	img    image.Image
	raster *Raster
	hist   *Histogram

	threshold       int
	thresholdCached bool

	loading atomic.Bool
	decoder Decoder
	tracer  Tracer
	log     zerolog.Logger
}

// NewPosterizer validates cfg and returns a posterizer with no image loaded, decoding
// through source.Loader and tracing with PotraceTracer.
func NewPosterizer(cfg Config) (*Posterizer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	loader := source.NewLoader()
	loader.Log = componentLogger("source")
	return &Posterizer{
		cfg:     cfg,
		decoder: loader,
		tracer:  NewPotraceTracer(),
		log:     componentLogger("posterizer"),
	}, nil
}

// SetTracer replaces the vectorizer.
func (p *Posterizer) SetTracer(t Tracer) {
	p.mu.Lock()
	p.tracer = t
	p.mu.Unlock()
}

// SetDecoder replaces the image decoder.
func (p *Posterizer) SetDecoder(d Decoder) {
	p.mu.Lock()
	p.decoder = d
	p.mu.Unlock()
}

// Config returns the current configuration.
func (p *Posterizer) Config() Config {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cfg
}

// Loaded reports whether an image is loaded.
func (p *Posterizer) Loaded() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.raster != nil
}

// ============ LOADING ============

// LoadImage decodes src and makes it the current image. On failure the previously
// loaded image, if any, stays in place.
func (p *Posterizer) LoadImage(ctx context.Context, src any) error {
	if !p.loading.CompareAndSwap(false, true) {
		return ErrLoadInProgress
	}
	defer p.loading.Store(false)
	return p.load(ctx, src)
}

// LoadImageAsync runs LoadImage in the background. The returned channel receives
// exactly one value. A load that is already running makes it receive
// ErrLoadInProgress right away.
func (p *Posterizer) LoadImageAsync(ctx context.Context, src any) <-chan error {
	done := make(chan error, 1)
	if !p.loading.CompareAndSwap(false, true) {
		done <- ErrLoadInProgress
		return done
	}
	go func() {
		defer p.loading.Store(false)
		done <- p.load(ctx, src)
	}()
	return done
}

func (p *Posterizer) load(ctx context.Context, src any) error {
	p.mu.Lock()
	decoder := p.decoder
	ch := p.cfg.Channel
	p.mu.Unlock()

	p.log.Debug().Type("source", src).Msg("loading image")
	img, err := decoder.Decode(ctx, src)
	if err != nil {
		if errors.Is(err, source.ErrUnsupported) {
			err = fmt.Errorf("%w: %w", ErrUnsupportedSource, err)
		}
		p.log.Error().Err(err).Msg("image load failed")
		return fmt.Errorf("%w: %w", ErrImageLoad, err)
	}
	raster, hist, err := reduceImage(img, ch)
	if err != nil {
		p.log.Error().Err(err).Msg("image load failed")
		return fmt.Errorf("%w: %w", ErrImageLoad, err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cfg.Channel != ch {
		// The channel changed while decoding.
		if raster, hist, err = reduceImage(img, p.cfg.Channel); err != nil {
			return fmt.Errorf("%w: %w", ErrImageLoad, err)
		}
	}
	p.img, p.raster, p.hist = img, raster, hist
	p.thresholdCached = false
	p.log.Debug().Int("width", raster.W).Int("height", raster.H).Msg("image loaded")
	return nil
}

func reduceImage(img image.Image, ch Channel) (*Raster, *Histogram, error) {
	raster, err := NewRaster(img, ch)
	if err != nil {
		return nil, nil, err
	}
	hist, err := NewHistogram(raster)
	if err != nil {
		return nil, nil, err
	}
	return raster, hist, nil
}

// ============ PARAMETERS ============

// SetParameters merges params into the configuration. An invalid result is rejected
// with ErrInvalidConfig and leaves the configuration untouched. Any accepted change
// drops the cached threshold.
func (p *Posterizer) SetParameters(params Params) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	cfg := params.Apply(p.cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}
	if cfg.Channel != p.cfg.Channel && p.img != nil {
		raster, hist, err := reduceImage(p.img, cfg.Channel)
		if err != nil {
			return err
		}
		p.raster, p.hist = raster, hist
	}
	p.cfg = cfg
	p.thresholdCached = false
	return nil
}

// Threshold returns the binary threshold: the configured level, or Otsu's threshold
// of the loaded image when it is automatic. The result is cached until the next load
// or parameter change.
func (p *Posterizer) Threshold() (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.raster == nil {
		return 0, ErrNotLoaded
	}
	return p.thresholdLocked(), nil
}

func (p *Posterizer) thresholdLocked() int {
	if p.thresholdCached {
		return p.threshold
	}
	t := p.cfg.Threshold
	if t == ThresholdAuto {
		// The full range is always valid.
		t, _ = p.hist.AutoThreshold(0, 255)
	}
	p.threshold, p.thresholdCached = t, true
	p.log.Debug().Int("threshold", t).Bool("auto", p.cfg.Threshold == ThresholdAuto).Msg("threshold resolved")
	return t
}

// Image returns the loaded image as decoded.
func (p *Posterizer) Image() (image.Image, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.img == nil {
		return nil, ErrNotLoaded
	}
	return p.img, nil
}

// Raster returns the grey raster of the loaded image.
func (p *Posterizer) Raster() (*Raster, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.raster == nil {
		return nil, ErrNotLoaded
	}
	return p.raster, nil
}

// Histogram returns the histogram of the loaded image.
func (p *Posterizer) Histogram() (*Histogram, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.hist == nil {
		return nil, ErrNotLoaded
	}
	return p.hist, nil
}

// ============ RENDERING ============

type snapshot struct {
	cfg       Config
	raster    *Raster
	hist      *Histogram
	threshold int
	tracer    Tracer
}

func (p *Posterizer) snapshot() (snapshot, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.raster == nil {
		return snapshot{}, ErrNotLoaded
	}
	return snapshot{
		cfg:       p.cfg,
		raster:    p.raster,
		hist:      p.hist,
		threshold: p.thresholdLocked(),
		tracer:    p.tracer,
	}, nil
}

func (s snapshot) plan() ([]ColorStop, error) {
	thresholds, err := ResolveColorStops(s.cfg, s.hist, s.threshold)
	if err != nil {
		return nil, err
	}
	stops, err := AssignIntensity(thresholds, s.hist, s.cfg, s.threshold)
	if err != nil {
		return nil, err
	}
	if ResolveStepCount(s.cfg, s.threshold) >= extraStopMinSteps {
		stops, err = AddExtraColorStop(stops, s.hist, s.cfg.BlackOnWhite)
		if err != nil {
			return nil, err
		}
	}
	return stops, nil
}

// Plan returns the color stops of the current image and configuration, ordered from
// least to most saturated.
func (p *Posterizer) Plan() ([]ColorStop, error) {
	s, err := p.snapshot()
	if err != nil {
		return nil, err
	}
	return s.plan()
}

// Layers returns the visible layers with their fill opacities.
func (p *Posterizer) Layers() ([]Layer, error) {
	stops, err := p.Plan()
	if err != nil {
		return nil, err
	}
	return Composite(stops), nil
}

// Render traces every visible layer and assembles the document.
func (p *Posterizer) Render(ctx context.Context) (*Document, error) {
	s, err := p.snapshot()
	if err != nil {
		return nil, err
	}
	stops, err := s.plan()
	if err != nil {
		return nil, err
	}
	layers := Composite(stops)
	p.log.Debug().
		Int("threshold", s.threshold).
		Int("stops", len(stops)).
		Int("layers", len(layers)).
		Msg("rendering")

	doc := &Document{
		Width:      s.raster.W,
		Height:     s.raster.H,
		Background: s.cfg.Background,
		Fill:       s.cfg.FillColor(),
		Layers:     make([]TracedLayer, 0, len(layers)),
	}
	for _, l := range layers {
		path, err := s.tracer.Trace(ctx, s.raster, TraceRequest{
			Threshold:    l.Threshold,
			BlackOnWhite: s.cfg.BlackOnWhite,
			Params:       s.cfg.Trace,
		})
		if err != nil {
			return nil, err
		}
		doc.Layers = append(doc.Layers, TracedLayer{Layer: l, Path: path})
	}
	return doc, nil
}

// SVG renders a standalone SVG document.
func (p *Posterizer) SVG(ctx context.Context) (string, error) {
	doc, err := p.Render(ctx)
	if err != nil {
		return "", err
	}
	return doc.SVG(), nil
}

// Symbol renders the layers as an embeddable <symbol> with the given id.
func (p *Posterizer) Symbol(ctx context.Context, id string) (string, error) {
	doc, err := p.Render(ctx)
	if err != nil {
		return "", err
	}
	return doc.Symbol(id), nil
}
