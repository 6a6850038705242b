package world

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/patchwork/internal/unit"
)

// =============================================================================
// Load
// =============================================================================

func TestLoad_Reference(t *testing.T) {
	w, err := Load("testdata/reference")
	require.NoError(t, err)

	assert.Equal(t, unit.LoadOrder{"M2", "M1", "M3"}, w.LoadOrder())
	assert.Equal(t, unit.DefaultModsRoot, w.ModsRoot())

	assert.Equal(t, []unit.Descriptor{
		{Path: "mods/M1/e1", Package: "M1"},
		{Path: "mods/M2/e2", Package: "M2"},
		{Path: "mods/M3/e3", Package: "M3"},
	}, w.Descriptors())

	assert.Equal(t, 3, w.Classes().Len(), "only base units are class metadata")
	assert.Equal(t, []unit.Path{"res/child"}, w.Classes().Children("res/root"))

	def, err := w.Source().Read("mods/M2/e2")
	require.NoError(t, err)
	assert.Equal(t, unit.Path("res/child"), def.Base)
	assert.Equal(t, "e2>{super}", def.Methods["greet"])

	pkg, ok := w.PackageOf("mods/M3/e3")
	require.True(t, ok)
	assert.Equal(t, unit.PackageID("M3"), pkg)

	assert.Empty(t, w.Validate())
}

func TestLoad_MissingDirectory(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope"))
	require.Error(t, err)

	var le *LoadError
	require.True(t, errors.As(err, &le))
	assert.Equal(t, ErrCodeNotFound, le.Code)
}

func TestLoad_NoFiles(t *testing.T) {
	_, err := Load(t.TempDir())
	require.Error(t, err)

	var le *LoadError
	require.True(t, errors.As(err, &le))
	assert.Equal(t, ErrCodeNoFiles, le.Code)
}

func TestLoad_BuildErrorHasPosition(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "world.cue"), []byte("package world\n\nunits: {\n"), 0o644))

	_, err := Load(dir)
	require.Error(t, err)

	var le *LoadError
	require.True(t, errors.As(err, &le))
	assert.Contains(t, []string{ErrCodeLoadFailed, ErrCodeBuildFailed}, le.Code)
	assert.True(t, le.Pos.IsValid())
	assert.Contains(t, err.Error(), "world.cue:")
}

// =============================================================================
// LoadString
// =============================================================================

func TestLoadString_PathsNormalized(t *testing.T) {
	w, err := LoadString(`
		mods_root: "./addons/"
		load_order: ["P"]
		units: "res//root/": methods: greet: "root"
		packages: P: extensions: "addons/P/x": extends: "res/root/"
	`, "inline.cue")
	require.NoError(t, err)

	assert.Equal(t, "addons", w.ModsRoot())
	assert.True(t, w.Source().Exists("res/root"))

	exts := w.Extensions()
	require.Len(t, exts, 1)
	assert.Equal(t, unit.Path("res/root"), exts[0].Base)
	assert.Equal(t, unit.PackageID("P"), exts[0].Package)
	assert.Empty(t, exts[0].Methods)

	pkgs := w.Packages()
	require.Len(t, pkgs, 1)
	assert.Equal(t, []unit.Path{"addons/P/x"}, pkgs[0].Extensions)
}

func TestLoadString_ModsRootOption(t *testing.T) {
	src := `
		load_order: ["P"]
		units: "res/root": {}
		packages: P: extensions: "addons/P/x": extends: "res/root"
	`

	w, err := LoadString(src, "inline.cue", WithModsRoot("addons/"))
	require.NoError(t, err)
	assert.Equal(t, "addons", w.ModsRoot())
	pkg, ok := w.PackageOf("addons/P/x")
	require.True(t, ok)
	assert.Equal(t, unit.PackageID("P"), pkg)

	declared, err := LoadString(`mods_root: "mods"`+src, "inline.cue", WithModsRoot("addons"))
	require.NoError(t, err)
	assert.Equal(t, "mods", declared.ModsRoot(), "declared mods_root wins")
}

func TestLoadString_DuplicatePath(t *testing.T) {
	_, err := LoadString(`
		units: "res/root": {}
		packages: P: extensions: "res/root": extends: "res/root"
	`, "dup.cue")
	require.Error(t, err)

	var le *LoadError
	require.True(t, errors.As(err, &le))
	assert.Equal(t, ErrCodeDuplicatePath, le.Code)
	assert.Contains(t, le.Message, "declared twice")
}

func TestLoadString_InvalidField(t *testing.T) {
	tests := []struct {
		name  string
		src   string
		field string
	}{
		{"load order not a list", `load_order: "M1"`, "load_order"},
		{"extends not a string", `units: a: extends: 3`, "a.extends"},
		{"method not a string", `units: a: methods: greet: 1`, "a.methods.greet"},
		{"mods root not a string", `mods_root: 1`, "mods_root"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadString(tt.src, "bad.cue")
			require.Error(t, err)

			var le *LoadError
			require.True(t, errors.As(err, &le))
			assert.Equal(t, ErrCodeInvalidField, le.Code)
			assert.Equal(t, tt.field, le.Field)
		})
	}
}

func TestLoadString_Empty(t *testing.T) {
	w, err := LoadString(``, "empty.cue")
	require.NoError(t, err)
	assert.Empty(t, w.Descriptors())
	assert.Empty(t, w.LoadOrder())
	assert.Empty(t, w.Validate())
}

// =============================================================================
// Validate
// =============================================================================

func TestValidate(t *testing.T) {
	w, err := LoadString(`
		load_order: ["A", "Ghost"]
		units: "res/root": {}
		units: "res/orphan": extends: "res/missing"
		units: "res/x": extends: "res/y"
		units: "res/y": extends: "res/x"
		packages: A: extensions: {
			"mods/A/ok":      extends: "res/root"
			"mods/A/stacked": extends: "mods/A/ok"
			"mods/A/nobase":  {}
			"elsewhere/bad":  extends: "res/nowhere"
		}
		packages: B: extensions: "mods/B/b": extends: "res/root"
	`, "validate.cue")
	require.NoError(t, err)

	issues := w.Validate()
	require.True(t, HasErrors(issues))

	var codes []string
	for _, i := range issues {
		codes = append(codes, i.Code+" "+i.Subject)
	}
	assert.Equal(t, []string{
		ErrCodeUnknownBase + " res/orphan",
		ErrCodeBaseCycle + " res/x",
		ErrCodeUnknownBase + " mods/A/nobase",
		ErrCodeUnknownBase + " elsewhere/bad",
		ErrCodeOutsideModRoot + " elsewhere/bad",
		ErrCodeUnknownPackage + " Ghost",
		ErrCodeUnordered + " B",
	}, codes)

	assert.Contains(t, issues[1].Message, "res/x -> res/y -> res/x")
	assert.Equal(t, SeverityWarning, issues[4].Severity)
}

func TestHasErrors(t *testing.T) {
	assert.False(t, HasErrors(nil))
	assert.False(t, HasErrors([]Issue{{Severity: SeverityWarning}}))
	assert.True(t, HasErrors([]Issue{{Severity: SeverityWarning}, {Severity: SeverityError}}))
}

func TestLoadError_Format(t *testing.T) {
	assert.Equal(t, "W101: a.extends: bad", (&LoadError{Code: ErrCodeInvalidField, Field: "a.extends", Message: "bad"}).Error())
	assert.Equal(t, "W005: gone", (&LoadError{Code: ErrCodeNotFound, Message: "gone"}).Error())
}
