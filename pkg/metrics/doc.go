// Package metrics aggregates toggle usage into time-windowed buckets and
// delivers them to the toggle service.
//
// Counting is always local and cheap. When started with a positive interval
// the Reporter registers the instance once (POST client/register) and then,
// on every tick, swaps the current bucket for a fresh one and posts the old
// one (POST client/metrics) unless it is empty. A 404 from either endpoint
// disables transport for the rest of the process; other failures are
// reported and the next tick tries again.
package metrics
