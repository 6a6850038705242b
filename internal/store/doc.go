// Package store provides SQLite-backed durable storage for the patch journal.
//
// The journal is append-only: every apply, replay, revert and removal the
// engine performs becomes one row keyed by its logical clock value.
//
// # Critical Patterns
//
// Logical time:
//   - All ordering uses seq INTEGER (logical clock), NEVER timestamps
//   - Reopening a database resumes the clock from LastSeq
//
// Deterministic reads:
//   - All queries ORDER BY seq ASC
//
// # Database Configuration
//
//   - WAL mode: concurrent reads during writes
//   - synchronous=NORMAL: balance durability/performance
//   - busy_timeout=5000: wait on lock contention
//   - Single connection: one writer, and ":memory:" databases stay alive
//
// Schema versions are tracked in PRAGMA user_version.
package store
