// Package store manages the in-memory analysis state. It provides a
// thread-safe store keyed by source ID with TTL eviction: a sampling point
// that stops reporting disappears from lists once its TTL elapses.
package store
