package engine

// Option configures Recompute.
type Option func(*config)

type config struct {
	resolve     ResolveFunc
	skipRecords bool
}

// WithResolver sets the country code resolver used for the country breakdown.
func WithResolver(fn ResolveFunc) Option {
	return func(c *config) { c.resolve = fn }
}

// WithoutRecords leaves Result.Records nil for callers that only need figures.
func WithoutRecords() Option {
	return func(c *config) { c.skipRecords = true }
}

func applyOptions(opts []Option) *config {
	cfg := &config{}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}
