package refetch

import "time"

// MetricsProvider allows integration with metrics systems like Prometheus, StatsD, etc.
// Implement this interface to receive callbacks on key orchestrator events.
type MetricsProvider interface {
	// OnIssue is called when an operation is issued. Reused reports
	// whether a cached future was adopted instead of a transport call.
	OnIssue(reused bool)

	// OnComplete is called when a completion is published.
	// Duration is the time from issue to publish.
	OnComplete(duration time.Duration)

	// OnDiscard is called when a stale completion is dropped by the
	// watermark rule.
	OnDiscard()

	// OnFailure is called when an operation fails. Stage indicates where
	// the failure occurred: "transport", "decode" or "status".
	OnFailure(stage string, duration time.Duration)
}

// NoOpMetricsProvider is a no-op implementation of MetricsProvider.
// Use this as an embedded type to implement only the methods you need.
type NoOpMetricsProvider struct{}

func (NoOpMetricsProvider) OnIssue(_ bool)                      {}
func (NoOpMetricsProvider) OnComplete(_ time.Duration)          {}
func (NoOpMetricsProvider) OnDiscard()                          {}
func (NoOpMetricsProvider) OnFailure(_ string, _ time.Duration) {}
