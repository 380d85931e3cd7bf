/*
Package metrics provides Prometheus metrics for BladeShare.

The collector owns a private registry so the /metrics endpoint only ever
exposes driver metrics: lifecycle operation counts and latencies, error
counts by taxonomy code, and the array capacity gauges refreshed by the
capability reporter.
*/
package metrics
