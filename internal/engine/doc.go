// Package engine orders and applies extensions against the identity binding
// table.
//
// ARCHITECTURE:
//
// Two components share one registry.Registry:
//   - Resolver turns unordered extension descriptors into one deterministic
//     application order (load order sort, ancestor-chain merge, combine).
//   - Engine is the patch state machine: Apply chains an extension onto the
//     path its parent is bound at and takes that path over; RevertAll,
//     RemoveOne and RemoveAllForPackage undo patches by revert and replay.
//
// Every transition is stamped by the logical Clock and handed to an optional
// Journal under the session token of its top-level operation.
//
// CRITICAL PATTERNS:
//
// Checks before mutation:
// Every operation validates storage existence and chain state before it
// touches the binding table. A PatchError never leaves a half-applied state.
//
// Determinism:
// Given the same descriptors, load order and storage, HandleAll produces the
// same order, the same bindings and the same journal (modulo session tokens).
//
// Single-threaded:
// Nothing in this package locks. Callers serialize operations.
package engine
