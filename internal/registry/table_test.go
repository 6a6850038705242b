package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/patchwork/internal/unit"
)

func newUnit(path, base string) *unit.Unit {
	return unit.NewUnit(unit.Definition{Path: unit.Path(path), Base: unit.Path(base)})
}

func TestTable_BindAndLookup(t *testing.T) {
	tbl := NewTable()
	root := newUnit("res/root", "")

	_, ok := tbl.Lookup("res/root")
	assert.False(t, ok)

	tbl.Bind("res/root", root)
	got, ok := tbl.Lookup("res/root")
	require.True(t, ok)
	assert.Same(t, root, got)
	assert.Equal(t, unit.Path("res/root"), tbl.PathOf(root))
	assert.Equal(t, 1, tbl.Len())
}

func TestTable_TakeoverReleasesPreviousPath(t *testing.T) {
	tbl := NewTable()
	root := newUnit("res/root", "")
	ext := newUnit("mods/M1/e1", "res/root")
	tbl.Bind("res/root", root)
	tbl.Bind("mods/M1/e1", ext)

	tbl.Takeover("res/root", ext)

	got, ok := tbl.Lookup("res/root")
	require.True(t, ok)
	assert.Same(t, ext, got)

	_, ok = tbl.Lookup("mods/M1/e1")
	assert.False(t, ok, "extension path must be released after takeover")

	assert.Equal(t, unit.Path("res/root"), tbl.PathOf(ext))
	assert.Equal(t, unit.Path("res/root"), tbl.PathOf(root), "displaced unit keeps its last identity")
	assert.Equal(t, []unit.Path{"res/root"}, tbl.Paths())
}

func TestTable_TakeoverKeepsPathReboundToOtherUnit(t *testing.T) {
	tbl := NewTable()
	first := newUnit("mods/M1/e1", "res/root")
	second := newUnit("mods/M1/e1", "res/root")
	tbl.Bind("mods/M1/e1", first)
	tbl.Bind("mods/M1/e1", second)

	tbl.Takeover("res/root", first)

	got, ok := tbl.Lookup("mods/M1/e1")
	require.True(t, ok)
	assert.Same(t, second, got)
}

func TestTable_PathOfUnboundUnit(t *testing.T) {
	tbl := NewTable()
	u := newUnit("res/orphan", "")
	assert.Equal(t, unit.Path("res/orphan"), tbl.PathOf(u))
}
