// Package store provides SQLite-backed durable storage for a cauldron world.
//
// The store holds three tables:
//   - blocks: block state by position (unset positions are air)
//   - frames: detached frames and their canonical JSON payloads
//   - journal: processed events and their results, keyed by seq
//
// Store implements world.Blocks, world.Payloads and engine.Journal, so the
// same engine and registry run against it as against world.Memory.
//
// # Ordering
//
// Frames are returned oldest first (ORDER BY id). The journal is read in
// ORDER BY seq. Ordering never depends on wall-clock time.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait on lock contention
//   - One open connection: SQLite has a single writer
package store
