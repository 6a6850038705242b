// Package unit provides the shared data model for patchwork.
//
// This package contains type definitions only. All other internal packages
// import unit; unit imports nothing internal.
//
// Key design constraints:
//   - A Unit never changes after it is loaded. Its parent link is compile
//     state owned by the runtime, not a field of the unit.
//   - Storage paths are always normalized with CleanPath before they are
//     used as map keys.
//   - All JSON tags use snake_case
//   - Journal ordering uses logical seq numbers, never wall-clock timestamps
package unit
