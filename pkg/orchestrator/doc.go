// Package orchestrator wires the loader → resolver → schema decoder → type
// synthesizer → renderer pipeline, providing dependency injection friendly
// helpers for consumers that prefer a single entry point.
package orchestrator
