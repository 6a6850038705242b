// Package registry holds the extension registry: the identity binding table,
// the saved chain per patched target, and package attribution records.
//
// Everything that earlier designs kept as process-wide ambient state lives in
// one explicitly constructed Registry. Callers create it with New, pass it to
// the runtime and the engine, and drop it with Reset.
//
// # Binding Table
//
// The Table maps a storage path to the unit currently bound there. Loading by
// path always goes through it, so rebinding a path (identity takeover)
// replaces a unit system-wide without touching any other unit.
//
// # Saved Chains
//
// A saved chain is the history of one target: index 0 is the pristine unit
// captured before the first patch, indices 1..n are applied extensions in
// application order. A chain is never empty once created; its absence means
// the target is unpatched.
//
// # Concurrency
//
// Nothing here is locked. The engine is single-threaded and callers must
// serialize access.
package registry
