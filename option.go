package blockframe

// Options configures frame and manager behavior.
type Options struct {
	policy       CopyPolicy
	logger       Logger
	locCacheSize int // Capacity of the column label lookup cache.
}

// DefaultOptions returns the default configuration: copy-on-write policy,
// discarded logs, a 64-entry label cache.
func DefaultOptions() Options {
	return Options{
		policy:       CopyOnWrite,
		logger:       DiscardLogger{},
		locCacheSize: 64,
	}
}

// Option configures behavior using the functional options pattern.
type Option func(*Options)

// WithEagerCopy selects the legacy eager-copy policy: relabeling
// derivations copy data immediately and shallow copies alias without
// copy-on-write tracking.
//
//goland:noinspection GoUnusedExportedFunction
func WithEagerCopy() Option {
	return func(opts *Options) {
		opts.policy = EagerCopy
	}
}

// WithLogger sets the logger. The standard library's slog.Logger satisfies
// the interface directly.
//
//goland:noinspection GoUnusedExportedFunction
func WithLogger(l Logger) Option {
	return func(opts *Options) {
		opts.logger = l
	}
}

// WithLocCacheSize sets the capacity of the column label lookup cache.
//
//goland:noinspection GoUnusedExportedFunction
func WithLocCacheSize(n int) Option {
	return func(opts *Options) {
		opts.locCacheSize = n
	}
}
