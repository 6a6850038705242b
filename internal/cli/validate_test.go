package cli

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/patchwork/internal/world"
)

func TestValidateCommandValid(t *testing.T) {
	stdout, _, err := runCLI(t, "validate", writeWorld(t, referenceWorld))
	require.NoError(t, err)
	assert.Contains(t, stdout, "✓ World valid")
	assert.NotContains(t, stdout, "!")
}

func TestValidateCommandWarningsOnly(t *testing.T) {
	stdout, _, err := runCLI(t, "validate", writeWorld(t, unmappedWorld))
	require.NoError(t, err)
	assert.Contains(t, stdout, "! W107 Z:")
	assert.Contains(t, stdout, "✓ World valid")
}

func TestValidateCommandUnknownBase(t *testing.T) {
	src := `package world

load_order: ["A"]
units: "res/root": {}
packages: A: extensions: "mods/A/a": extends: "res/missing"
`
	stdout, _, err := runCLI(t, "validate", writeWorld(t, src))
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, stdout, "✗ Validation failed")
	assert.Contains(t, stdout, "W103 mods/A/a")
}

func TestValidateCommandStrictJSON(t *testing.T) {
	stdout, _, err := runCLI(t, "validate", writeWorld(t, unmappedWorld), "--strict", "--format", "json")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var resp struct {
		Status string           `json:"status"`
		Data   ValidationResult `json:"data"`
		Error  *CLIError        `json:"error"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &resp))
	assert.Equal(t, "error", resp.Status)
	assert.False(t, resp.Data.Valid)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "AMBIGUOUS_MOD_MAPPING", resp.Error.Code)

	var codes []string
	for _, i := range resp.Data.Issues {
		codes = append(codes, i.Code)
	}
	assert.Contains(t, codes, world.ErrCodeUnordered)
	assert.Contains(t, codes, "AMBIGUOUS_MOD_MAPPING")
}

func TestValidateCommandSyntaxError(t *testing.T) {
	stdout, _, err := runCLI(t, "validate", writeWorld(t, "package world\n\nunits: {\n"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, stdout, "Error [W00")
}

func TestValidateCommandMissingDirectory(t *testing.T) {
	stdout, _, err := runCLI(t, "validate", "/nonexistent/world")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, stdout, "Error [W005]")
}
