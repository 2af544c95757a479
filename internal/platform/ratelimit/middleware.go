package ratelimit

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"complaintdesk/pkg/platform/httputil"
	"complaintdesk/pkg/requestcontext"
)

// RejectionCounter is notified when a request is refused.
type RejectionCounter interface {
	IncrementRateLimited()
}

// Middleware limits requests per client IP. Limiter errors fail open.
type Middleware struct {
	limiter Limiter
	limit   int
	window  time.Duration
	scope   string
	logger  *slog.Logger
	counter RejectionCounter
}

// Option configures a Middleware.
type Option func(*Middleware)

// WithRejectionCounter records refused requests.
func WithRejectionCounter(c RejectionCounter) Option {
	return func(m *Middleware) {
		m.counter = c
	}
}

// NewMiddleware builds a per-IP limiter for one route group named by scope.
func NewMiddleware(limiter Limiter, scope string, limit int, window time.Duration, logger *slog.Logger, opts ...Option) *Middleware {
	m := &Middleware{
		limiter: limiter,
		limit:   limit,
		window:  window,
		scope:   scope,
		logger:  logger,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Handler wraps next.
func (m *Middleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		ip := requestcontext.ClientIP(ctx)

		result, err := m.limiter.Allow(ctx, m.scope+":"+ip, m.limit, m.window)
		if err != nil {
			m.logger.ErrorContext(ctx, "failed to check rate limit",
				"error", err,
				"scope", m.scope,
				"request_id", requestcontext.RequestID(ctx),
			)
			next.ServeHTTP(w, r)
			return
		}

		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(result.Limit))
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
		w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(result.ResetAt.Unix(), 10))

		if !result.Allowed {
			if m.counter != nil {
				m.counter.IncrementRateLimited()
			}
			retryAfter := result.RetryAfter(time.Now())
			w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
			httputil.WriteJSON(w, http.StatusTooManyRequests, httputil.Outcome{
				Success: false,
				Error:   "rate_limit_exceeded",
				Message: "Too many submissions from this address. Please try again later.",
			})
			return
		}

		next.ServeHTTP(w, r)
	})
}
