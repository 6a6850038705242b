// Package world loads a patchable world from CUE: base units, extension
// packages and the load order.
//
// Layout:
//
//	mods_root:  "mods"                 // optional, default "mods"
//	load_order: ["M2", "M1", "M3"]
//	units: "res/root":  { methods: greet: "root" }
//	units: "res/child": { extends: "res/root" }
//	packages: M1: extensions: "mods/M1/e1": {
//		extends: "res/root"
//		methods: greet: "e1>{super}"
//	}
//
// A World is storage (runtime.Source), class metadata (runtime.ClassIndex),
// the load order provider and the descriptor discovery the engine consumes.
package world
