package posterizer

import "errors"

var (
	// ErrInvalidConfig reports a malformed steps, threshold or enum value.
	ErrInvalidConfig = errors.New("invalid config")
	// ErrInvalidRange reports a histogram query with from > to or a bound outside 0..255.
	ErrInvalidRange = errors.New("invalid range")
	// ErrUnsupportedSource reports an input that cannot be reduced to 8-bit grey levels.
	ErrUnsupportedSource = errors.New("unsupported image source")
	// ErrImageLoad reports a failed decode.
	ErrImageLoad = errors.New("image load failed")
	// ErrLoadInProgress is returned when a load is started while another is running.
	ErrLoadInProgress = errors.New("image load already in progress")
	// ErrNotLoaded is returned when rendering before any image was loaded.
	ErrNotLoaded = errors.New("no image loaded")
)
