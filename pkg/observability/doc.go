/*
Package observability bridges the host loop to Prometheus.

It owns the collectors for transitions, emitted actions, dispatches,
recovery replays and checkpoints, and exposes them as runner.Hooks so a host
wires metrics in one option.
*/
package observability
