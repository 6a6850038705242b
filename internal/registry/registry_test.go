package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/patchwork/internal/unit"
)

// =============================================================================
// Saved chain tests
// =============================================================================

func TestRegistry_ChainLifecycle(t *testing.T) {
	r := New()
	root := newUnit("res/root", "")
	e1 := newUnit("mods/M1/e1", "res/root")
	e3 := newUnit("mods/M3/e3", "res/root")

	_, present := r.Chain("res/root")
	assert.False(t, present, "unpatched target has no chain")
	assert.False(t, r.IsPatched("res/root"))

	r.StartChain("res/root", root)
	assert.Equal(t, 1, r.AppendChain("res/root", e1))
	r.StartChain("res/root", newUnit("res/other", "")) // no-op on existing chain
	assert.Equal(t, 2, r.AppendChain("res/root", e3))

	chain, present := r.Chain("res/root")
	require.True(t, present)
	require.Len(t, chain, 3)
	assert.Same(t, root, chain[0])
	assert.Same(t, e1, chain[1])
	assert.Same(t, e3, chain[2])

	pristine, ok := r.Pristine("res/root")
	require.True(t, ok)
	assert.Same(t, root, pristine)

	assert.Equal(t, []unit.Path{"mods/M1/e1", "mods/M3/e3"}, r.Extensions("res/root"))
	assert.Equal(t, []unit.Path{"res/root"}, r.PatchedTargets())

	target, ok := r.TargetOf("mods/M3/e3")
	require.True(t, ok)
	assert.Equal(t, unit.Path("res/root"), target)

	r.EraseChain("res/root")
	assert.False(t, r.IsPatched("res/root"))
	_, ok = r.TargetOf("mods/M1/e1")
	assert.False(t, ok, "erasing a chain forgets its extension targets")
	assert.Empty(t, r.PatchedTargets())
}

func TestRegistry_ChainReturnsCopy(t *testing.T) {
	r := New()
	r.StartChain("res/root", newUnit("res/root", ""))
	r.AppendChain("res/root", newUnit("mods/M1/e1", "res/root"))

	chain, _ := r.Chain("res/root")
	chain[1] = nil

	again, _ := r.Chain("res/root")
	assert.NotNil(t, again[1])
}

func TestRegistry_ExtensionsOfPristineOnlyChain(t *testing.T) {
	r := New()
	r.StartChain("res/root", newUnit("res/root", ""))
	assert.Nil(t, r.Extensions("res/root"))
	assert.Nil(t, r.Extensions("res/missing"))
}

// =============================================================================
// Attribution tests
// =============================================================================

func TestRegistry_Attribution(t *testing.T) {
	r := New()
	r.Attribute("M1", "mods/M1/a")
	r.Attribute("M1", "mods/M1/b")
	r.Attribute("M1", "mods/M1/a") // duplicate keeps position
	r.Attribute("M2", "mods/M2/c")

	assert.Equal(t, []unit.Path{"mods/M1/a", "mods/M1/b"}, r.Attributed("M1"))
	assert.Equal(t, []unit.PackageID{"M1", "M2"}, r.Packages())

	owner, ok := r.OwnerOf("mods/M2/c")
	require.True(t, ok)
	assert.Equal(t, unit.PackageID("M2"), owner)

	r.DropAttribution("M1", "mods/M1/a")
	assert.Equal(t, []unit.Path{"mods/M1/b"}, r.Attributed("M1"))
	_, ok = r.OwnerOf("mods/M1/a")
	assert.False(t, ok)

	r.DropAttribution("M1", "mods/M1/b")
	assert.Empty(t, r.Attributed("M1"))
	assert.Equal(t, []unit.PackageID{"M2"}, r.Packages())
}

func TestRegistry_Reset(t *testing.T) {
	r := New()
	r.Table().Bind("res/root", newUnit("res/root", ""))
	r.StartChain("res/root", newUnit("res/root", ""))
	r.Attribute("M1", "mods/M1/a")

	r.Reset()

	assert.Equal(t, 0, r.Table().Len())
	assert.Empty(t, r.PatchedTargets())
	assert.Empty(t, r.Packages())
}
