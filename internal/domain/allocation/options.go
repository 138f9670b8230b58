package allocation

// Option applies a configuration option to the Allocator.
type Option func(*Allocator)

// WithShareBounds sets the per-channel clamp as fractions of the total.
func WithShareBounds(minShare, maxShare float64) Option {
	return func(a *Allocator) {
		a.minShare = minShare
		a.maxShare = maxShare
	}
}

// WithWeights sets the efficiency score weights for ROAS, conversion rate
// (in percent) and volume potential.
func WithWeights(roas, cvr, volume float64) Option {
	return func(a *Allocator) {
		a.weights = Weights{ROAS: roas, CVR: cvr, Volume: volume}
	}
}
