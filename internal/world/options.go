package world

import (
	"fmt"

	"go.uber.org/zap"
)

// MaxDimensions is the largest supported dimensionality.
const MaxDimensions = 3

type options[M any] struct {
	log      *zap.Logger
	workers  int
	seed     int64
	coalesce func([]M) M
	err      error
}

// Option configures a World at construction.
type Option[M any] func(*options[M])

// WithLogger sets the logger used for faults and phase tracing.
func WithLogger[M any](log *zap.Logger) Option[M] {
	return func(o *options[M]) {
		if log == nil {
			o.err = fmt.Errorf("nil logger: %w", ErrConfiguration)
			return
		}
		o.log = log
	}
}

// WithParallelUpdate runs the Update phase on up to workers goroutines.
// Behaviors must then only touch their own state. 0 or 1 keeps it serial.
func WithParallelUpdate[M any](workers int) Option[M] {
	return func(o *options[M]) {
		if workers < 0 {
			o.err = fmt.Errorf("parallel workers %d: %w", workers, ErrConfiguration)
			return
		}
		o.workers = workers
	}
}

// WithSeed fixes the seed behind Context.Rand.
func WithSeed[M any](seed int64) Option[M] {
	return func(o *options[M]) { o.seed = seed }
}

// WithCoalesce combines all proximity-scoped messages reaching one entity in
// a tick into a single message. The combined message has the mean position
// of the originals and no single origin when more than one sender is merged.
func WithCoalesce[M any](fn func([]M) M) Option[M] {
	return func(o *options[M]) {
		if fn == nil {
			o.err = fmt.Errorf("nil coalesce function: %w", ErrConfiguration)
			return
		}
		o.coalesce = fn
	}
}
