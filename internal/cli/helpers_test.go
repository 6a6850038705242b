package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

const referenceWorld = `package world

load_order: ["M2", "M1", "M3"]

units: "res/root": methods: {
	greet: "root"
	name:  "root"
}
units: "res/child": {
	extends: "res/root"
	methods: greet: "child>{super}"
}
units: "res/grandchild": {
	extends: "res/child"
	methods: greet: "grandchild>{super}"
}

packages: M1: extensions: "mods/M1/e1": {
	extends: "res/root"
	methods: greet: "e1>{super}"
}
packages: M2: extensions: "mods/M2/e2": {
	extends: "res/child"
	methods: greet: "e2>{super}"
}
packages: M3: extensions: "mods/M3/e3": {
	extends: "res/root"
	methods: greet: "e3>{super}"
}
`

// unmappedWorld has a package, Z, that is missing from the load order.
const unmappedWorld = `package world

load_order: ["A"]

units: "res/root": methods: greet: "root"

packages: A: extensions: "mods/A/a": {
	extends: "res/root"
	methods: greet: "a>{super}"
}
packages: Z: extensions: "mods/Z/z": {
	extends: "res/root"
	methods: greet: "z>{super}"
}
`

// writeWorld writes src as the only CUE file of a new world directory.
func writeWorld(t *testing.T, src string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "world.cue"), []byte(src), 0644))
	return dir
}

// runCLI executes the root command with args, isolated from any user
// config file.
func runCLI(t *testing.T, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	t.Setenv("PATCHWORK_CONFIG", "")

	outBuf := &bytes.Buffer{}
	errBuf := &bytes.Buffer{}
	cmd := NewRootCommand()
	cmd.SetArgs(args)
	cmd.SetOut(outBuf)
	cmd.SetErr(errBuf)

	err = cmd.Execute()
	return outBuf.String(), errBuf.String(), err
}
