package types

import "context"

// ShareDriver is the operation contract between the orchestration layer
// and a share backend. Every method is idempotent against array-observed
// state: invoking it twice after a caller-side timeout leaves the backend
// in the same end state as invoking it once. The driver never retries
// internally; retryability is signaled through the error taxonomy.
type ShareDriver interface {
	// CreateShare provisions a filesystem for the spec. Re-creating an
	// identical share succeeds and returns the same handle; a name
	// collision with a different size is a conflict.
	CreateShare(ctx context.Context, spec ShareSpec) (*ShareHandle, error)

	// EnsureShare verifies the share's filesystem exists on the array.
	EnsureShare(ctx context.Context, handle ShareHandle) error

	// DeleteShare destroys (or eradicates, per backend policy) the
	// share's filesystem. An already-absent share is a success.
	DeleteShare(ctx context.Context, handle ShareHandle) error

	// ExtendShare grows the share's provisioned capacity.
	ExtendShare(ctx context.Context, handle ShareHandle, newSizeBytes int64) error

	// ShrinkShare reduces provisioned capacity. Shrinking below the
	// array-reported used space fails without touching the array.
	ShrinkShare(ctx context.Context, handle ShareHandle, newSizeBytes int64) error

	// CreateSnapshot captures a point-in-time snapshot of the share.
	CreateSnapshot(ctx context.Context, handle ShareHandle, spec SnapshotSpec) (*SnapshotHandle, error)

	// DeleteSnapshot destroys (or eradicates) a snapshot. An
	// already-absent snapshot is a success.
	DeleteSnapshot(ctx context.Context, snapshot SnapshotHandle) error

	// RevertToSnapshot restores the share's filesystem content to the
	// snapshot's point in time. The snapshot must belong to the share.
	RevertToSnapshot(ctx context.Context, handle ShareHandle, snapshot SnapshotHandle) error

	// UpdateAccess reconciles the share's live access rules against the
	// declared set and reports a per-rule outcome.
	UpdateAccess(ctx context.Context, handle ShareHandle, declared []AccessRule) ([]RuleOutcome, error)

	// Stats reports backend capacity and capabilities.
	Stats(ctx context.Context) (*BackendStats, error)
}
