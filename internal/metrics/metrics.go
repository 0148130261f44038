// Package metrics provides lightweight hooks for instrumentation.
package metrics

// Entity operations.
const (
	OpCreated = "created"
	OpUpdated = "updated"
	OpDeleted = "deleted"
)

// Login outcomes.
const (
	LoginSucceeded = "success"
	LoginFailed    = "failed"
)

// Recorder captures metric events for the application.
type Recorder interface {
	// IncEntityOperation counts a successful write on an entity type.
	IncEntityOperation(entity, op string)
	// IncEntityNotFound counts lookups of unknown ids.
	IncEntityNotFound(entity string)
	IncLogin(status string)
	IncAPIKeyIssued()
}

// Snapshotter exposes a snapshot of current metrics.
type Snapshotter interface {
	Snapshot() Snapshot
}
