/*
Package driver implements the share lifecycle manager for a BladeShare
backend.

The driver translates orchestrator operations (create, delete, resize,
snapshot, access update) into management API calls against one array. It
keeps no state of its own: array object names are derived
deterministically from orchestrator identifiers, and every operation
consults the array's current state first, so a repeated call after a
caller-side timeout converges instead of failing.

Access rules are reconciled by diffing the declared set against the live
export rules and applying removals before additions, which keeps
unchanged clients mounted through the update and never widens access
transiently.
*/
package driver
