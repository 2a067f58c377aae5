package refetch

import "github.com/zoobzio/capitan"

// Field keys for orchestrator events.
var (
	// KeySequence is the sequence number of an operation.
	KeySequence = capitan.NewIntKey("sequence")

	// KeyWatermark is the highest published sequence number at the time
	// of a discard.
	KeyWatermark = capitan.NewIntKey("watermark")

	// KeySignature is the cache signature of an operation.
	KeySignature = capitan.NewStringKey("signature")

	// KeyTarget is the request URL.
	KeyTarget = capitan.NewStringKey("target")

	// KeyMethod is the request method.
	KeyMethod = capitan.NewStringKey("method")

	// KeyStatus is the response status code.
	KeyStatus = capitan.NewIntKey("status")

	// KeyError is the error message when an operation fails.
	KeyError = capitan.NewStringKey("error")

	// KeyStage is the stage where a failure occurred: "transport",
	// "decode" or "status".
	KeyStage = capitan.NewStringKey("stage")

	// KeyElapsed is the time from issue to published completion.
	KeyElapsed = capitan.NewDurationKey("elapsed")
)
