package cache

import "log/slog"

type storeOptions struct {
	logger *slog.Logger
}

// StoreBuilderOption is a functional option for configuring a Store.
type StoreBuilderOption func(*storeOptions)

// WithLogger sets the logger used for disposal failures.
//
// Parameters:
//   - logger: the logger to use; nil keeps slog.Default()
//
// Returns:
//   - StoreBuilderOption: option function to apply
func WithLogger(logger *slog.Logger) StoreBuilderOption {
	return func(o *storeOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}
