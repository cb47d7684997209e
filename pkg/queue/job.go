package queue

import "context"

// Job defines a queue job handler.
type Job interface {
	// Name identifies the job in logs.
	Name() string

	// Type is the message type routed to this job.
	Type() string

	// Handle processes one payload; see ParsePayload for decoding.
	Handle(ctx context.Context, payload interface{}) error
}
