package refetch

import "github.com/zoobzio/capitan"

// Orchestrator lifecycle signals.
var (
	// OrchestratorActivated is emitted when an Orchestrator receives its
	// first configuration.
	OrchestratorActivated = capitan.NewSignal(
		"refetch.orchestrator.activated",
		"Orchestrator received its first configuration",
	)

	// OrchestratorDisposed is emitted when an Orchestrator is disposed
	// and its render observer muted.
	OrchestratorDisposed = capitan.NewSignal(
		"refetch.orchestrator.disposed",
		"Orchestrator disposed",
	)
)

// Operation signals.
var (
	// OperationIssued is emitted when an operation is assigned a sequence
	// number and registered in the outstanding set.
	OperationIssued = capitan.NewSignal(
		"refetch.operation.issued",
		"Operation issued",
	)

	// OperationReused is emitted when an issue adopts a cached future
	// instead of starting a new transport call.
	OperationReused = capitan.NewSignal(
		"refetch.operation.reused",
		"Cached future reused for matching signature",
	)

	// OperationCompleted is emitted when a completion advances the
	// watermark and is published.
	OperationCompleted = capitan.NewSignal(
		"refetch.operation.completed",
		"Operation completed and published",
	)

	// OperationDiscarded is emitted when a stale completion is dropped
	// by the watermark rule.
	OperationDiscarded = capitan.NewSignal(
		"refetch.operation.discarded",
		"Stale completion discarded",
	)

	// OperationFailed is emitted when a transport call or decode fails.
	OperationFailed = capitan.NewSignal(
		"refetch.operation.failed",
		"Operation failed",
	)
)
