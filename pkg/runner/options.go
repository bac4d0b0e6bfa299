package runner

import (
	"log/slog"

	"github.com/aretw0/perennial/internal/logging"
	"github.com/aretw0/perennial/pkg/session"
)

// settings collects the non-generic configuration so options stay free of
// type parameters.
type settings struct {
	sessions *session.Manager
	logger   *slog.Logger
	hooks    Hooks
	bufCap   int
}

func newSettings(opts ...Option) settings {
	s := settings{
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(&s)
	}
	if s.sessions == nil {
		s.sessions = session.NewManager()
	}
	return s
}

// Option defines a functional option for configuring the Runner.
type Option func(*settings)

// WithSessions configures the session manager, typically to share one lock
// space between several runners or to enable distributed locking.
func WithSessions(m *session.Manager) Option {
	return func(s *settings) {
		s.sessions = m
	}
}

// WithLogger configures the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *settings) {
		s.logger = logger
	}
}

// WithHooks configures observation hooks.
func WithHooks(hooks Hooks) Option {
	return func(s *settings) {
		s.hooks = hooks
	}
}

// WithBufferCapacity pre-sizes the action buffers handed to the machine.
func WithBufferCapacity(capacity int) Option {
	return func(s *settings) {
		s.bufCap = capacity
	}
}
