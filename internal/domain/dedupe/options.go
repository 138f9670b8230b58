package dedupe

// Option applies a configuration option to the in-memory deduper.
type Option func(*inMemoryDeduper)

// WithMaxSize sets the number of ids remembered.
// If maxSize > 0: bounded mode, oldest ids are evicted first.
// If maxSize <= 0: unbounded mode.
func WithMaxSize(maxSize int) Option {
	return func(d *inMemoryDeduper) {
		d.maxSize = maxSize
	}
}
