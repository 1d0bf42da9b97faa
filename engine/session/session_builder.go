package session

import "log/slog"

// SessionBuilderOption is a functional option for configuring a Session.
type SessionBuilderOption func(*session)

// WithSettings sets the quality and camera settings.
//
// Parameters:
//   - st: the settings
//
// Returns:
//   - SessionBuilderOption: option function to apply
func WithSettings(st Settings) SessionBuilderOption {
	return func(s *session) {
		s.settings = st
	}
}

// WithLogger sets the session's logger.
func WithLogger(logger *slog.Logger) SessionBuilderOption {
	return func(s *session) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithOnFatal sets the callback invoked when the render goroutine recovers from a panic.
// The session is already disposed when it runs.
//
// Parameters:
//   - cb: receives the recovered panic as an error
//
// Returns:
//   - SessionBuilderOption: option function to apply
func WithOnFatal(cb func(err error)) SessionBuilderOption {
	return func(s *session) {
		s.onFatal = cb
	}
}
