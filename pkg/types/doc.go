/*
Package types defines the orchestrator-facing data model and the ShareDriver
operation contract for BladeShare.

The types here are plain data: share and snapshot specs and handles, access
rules, per-rule outcomes, and the backend stats report. The array-side wire
types live with the array client facade; translation between the two models
is the driver's job.

All state described by these types is owned by the array. Handles carry
enough information to re-derive the array resource they address, so any
operation can be safely re-invoked after a caller-side timeout.
*/
package types
