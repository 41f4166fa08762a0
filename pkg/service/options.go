package service

import (
	"log/slog"

	"github.com/teacurran/village-jobs/pkg/retry"
)

// Option configures a Service.
type Option interface {
	Apply(*Service)
}

type optionFunc func(*Service)

func (f optionFunc) Apply(s *Service) { f(s) }

// WithRetryPolicy sets the backoff policy used for recoverable failures.
func WithRetryPolicy(p retry.Policy) Option {
	return optionFunc(func(s *Service) {
		s.policy = p
	})
}

// WithLogger sets the structured logger used by the service.
func WithLogger(l *slog.Logger) Option {
	return optionFunc(func(s *Service) {
		if l != nil {
			s.logger = l
		}
	})
}
