package refetch

import (
	"context"
	"time"

	"github.com/zoobzio/pipz"
)

// Option configures the transport pipeline of an Orchestrator. Pipeline
// options wrap the transport call with middleware for retry, timeout,
// fallback and custom processing.
//
// Instance configuration (clock, cache, observers, strict status) is
// handled via chainable methods on the Orchestrator before Activate().
type Option func(pipz.Chainable[*Exchange]) pipz.Chainable[*Exchange]

// buildPipeline wraps a terminal with pipeline options.
func buildPipeline(terminal pipz.Chainable[*Exchange], opts []Option) pipz.Chainable[*Exchange] {
	pipeline := terminal
	for _, opt := range opts {
		pipeline = opt(pipeline)
	}
	return pipeline
}

// -----------------------------------------------------------------------------
// Pipeline Options - Wrapping (With*)
// -----------------------------------------------------------------------------
// These options wrap the entire pipeline, providing protection at the
// transport boundary.

// WithRetry wraps the pipeline with retry logic.
// Failed transport calls are retried immediately up to maxAttempts times.
// For exponential backoff between retries, use WithBackoff instead.
func WithRetry(maxAttempts int) Option {
	return func(p pipz.Chainable[*Exchange]) pipz.Chainable[*Exchange] {
		return pipz.NewRetry("retry", p, maxAttempts)
	}
}

// WithBackoff wraps the pipeline with exponential backoff retry logic.
// Failed calls are retried with increasing delays: baseDelay, 2*baseDelay,
// 4*baseDelay, etc.
func WithBackoff(maxAttempts int, baseDelay time.Duration) Option {
	return func(p pipz.Chainable[*Exchange]) pipz.Chainable[*Exchange] {
		return pipz.NewBackoff("backoff", p, maxAttempts, baseDelay)
	}
}

// WithTimeout wraps the pipeline with a deadline. If the transport call
// takes longer than the specified duration, the operation fails with a
// timeout error.
func WithTimeout(d time.Duration) Option {
	return func(p pipz.Chainable[*Exchange]) pipz.Chainable[*Exchange] {
		return pipz.NewTimeout("timeout", p, d)
	}
}

// WithCircuitBreaker wraps the pipeline with a circuit breaker. After the
// given number of consecutive failures the circuit opens and rejects
// further requests until the recovery duration has passed.
//
// The circuit breaker is stateful and protects the entire pipeline; it is
// shared across every operation the orchestrator issues.
func WithCircuitBreaker(failures int, recovery time.Duration) Option {
	return func(p pipz.Chainable[*Exchange]) pipz.Chainable[*Exchange] {
		return pipz.NewCircuitBreaker("circuit-breaker", p, failures, recovery)
	}
}

// WithErrorHandler adds error observation to the pipeline.
// Errors are passed to the handler for logging, metrics, or alerting, but
// the error still propagates. Use this for observability, not recovery.
func WithErrorHandler(handler pipz.Chainable[*pipz.Error[*Exchange]]) Option {
	return func(p pipz.Chainable[*Exchange]) pipz.Chainable[*Exchange] {
		return pipz.NewHandle("error-handler", p, handler)
	}
}

// WithFallback wraps the pipeline with fallback processors.
// If the primary pipeline fails, each fallback is tried in order until one
// succeeds.
func WithFallback(fallbacks ...pipz.Chainable[*Exchange]) Option {
	return func(p pipz.Chainable[*Exchange]) pipz.Chainable[*Exchange] {
		all := append([]pipz.Chainable[*Exchange]{p}, fallbacks...)
		return pipz.NewFallback("fallback", all...)
	}
}

// WithMiddleware wraps the pipeline with a sequence of processors.
// Processors execute in order, with the wrapped transport call last.
//
// Use the Use* functions to create processors for common patterns, or
// provide custom pipz.Chainable implementations directly.
//
// Example:
//
//	refetch.New(render,
//	    refetch.WithMiddleware(
//	        refetch.UseTransform("auth", attachToken),
//	        refetch.UseEffect("log", logRequest),
//	    ),
//	    refetch.WithRetry(3),
//	)
func WithMiddleware(processors ...pipz.Chainable[*Exchange]) Option {
	return func(p pipz.Chainable[*Exchange]) pipz.Chainable[*Exchange] {
		all := make([]pipz.Chainable[*Exchange], 0, len(processors)+1)
		all = append(all, processors...)
		all = append(all, p)
		return pipz.NewSequence("middleware", all...)
	}
}

// -----------------------------------------------------------------------------
// Middleware Processors - Adapters (Use*)
// -----------------------------------------------------------------------------
// These create processors for use inside WithMiddleware. They observe or
// rewrite the exchange as it flows toward the transport call.

// UseTransform creates a processor that rewrites the exchange.
// Cannot fail. Use for pure request rewrites that always succeed, like
// attaching headers.
func UseTransform(name string, fn func(context.Context, *Exchange) *Exchange) pipz.Chainable[*Exchange] {
	return pipz.Transform(pipz.Name(name), fn)
}

// UseApply creates a processor that can rewrite the exchange and fail.
// Use for request preparation that may produce errors, like signing.
func UseApply(name string, fn func(context.Context, *Exchange) (*Exchange, error)) pipz.Chainable[*Exchange] {
	return pipz.Apply(pipz.Name(name), fn)
}

// UseEffect creates a processor that performs a side effect.
// The exchange passes through unchanged. Use for logging, metrics, or
// notifications that should not affect the request.
func UseEffect(name string, fn func(context.Context, *Exchange) error) pipz.Chainable[*Exchange] {
	return pipz.Effect(pipz.Name(name), fn)
}
