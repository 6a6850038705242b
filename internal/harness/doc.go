// Package harness runs conformance scenarios against the patch engine.
//
// A scenario is a YAML file holding an inline CUE world, a list of steps
// (handle_all, apply, remove, remove_package, revert) and assertions over
// the resulting order, chains, method dispatch and journal. Each run uses a
// fresh in-memory journal, a fresh logical clock and a fixed session token,
// so the journal trace is byte-identical across runs and is compared with a
// golden file.
//
// Example:
//
//	name: remove_replays_survivors
//	description: removing the middle extension replays the others
//	world: |
//	  load_order: ["A", "B"]
//	  units: "res/root": methods: greet: "root"
//	  packages: A: extensions: "mods/A/a": {extends: "res/root", methods: greet: "a>{super}"}
//	  packages: B: extensions: "mods/B/b": {extends: "res/root", methods: greet: "b>{super}"}
//	steps:
//	  - op: handle_all
//	  - op: remove
//	    path: mods/A/a
//	assertions:
//	  - type: call
//	    path: res/root
//	    method: greet
//	    expect: b>root
package harness
