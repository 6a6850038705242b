// Package runtime models the host runtime that patchwork patches: storage,
// loading by path, compilation, and method dispatch.
//
// Loading is by path. Runtime.Load returns whatever unit the binding table
// holds for a path and only reads storage when nothing is bound there.
//
// Compilation is lazy by default: a unit's parent link is resolved on first
// dispatch. The engine forces Compile eagerly whenever the link has to be
// current, because a link resolved later would see a different binding.
//
// Method bodies may contain the token {super}, which is replaced by the
// parent link's result for the same method. This is what makes a chain of
// extensions observable:
//
//	res/root       greet: "root"
//	mods/M1/e1     greet: "e1>{super}"
//	mods/M3/e3     greet: "e3>{super}"
//
//	Call("res/root", "greet") == "e3>e1>root"   // after E1 then E3
package runtime
