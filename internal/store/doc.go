// Package store provides SQLite-backed storage for verification runs and
// latch analyses.
//
// Tables:
//   - runs: one row per consistency check
//   - divergences: the first disagreement of a failed run
//   - latch_analyses / latches: cached latch annotations per circuit hash
//
// Circuits are identified by their content hash, so a cached analysis is
// reused only for a byte-identical circuit.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
//
// States are stored as canonical JSON arrays of facts (see ir.MarshalCanonical).
package store
