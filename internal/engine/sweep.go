package engine

import (
	"github.com/roach88/patchwork/internal/unit"
)

// sweep recompiles the direct children of target so their parent links
// follow the new binding.
//
// Only children that were already compiled are touched; the rest resolve
// against the current binding on first use. A patched child is relinked
// through its pristine unit, since the bound extension's parent is the
// child's own path.
func (e *Engine) sweep(target unit.Path) {
	for _, child := range e.classes.Children(target) {
		u, ok := e.reg.Pristine(child)
		if !ok {
			u, ok = e.reg.Table().Lookup(child)
		}
		if !ok || !e.rt.IsCompiled(u) {
			continue
		}
		if err := e.rt.Compile(u); err != nil {
			e.logger.Warn("child recompile failed", "target", target, "child", child, "error", err)
			continue
		}
		e.logger.Debug("child relinked", "target", target, "child", child)
	}
}
