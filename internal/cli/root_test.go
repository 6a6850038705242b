package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "patchwork", cmd.Use)
	assert.Contains(t, cmd.Long, "load order")
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	commands := []string{"order", "apply", "remove", "call", "trace", "validate", "test"}

	for _, cmdName := range commands {
		t.Run(cmdName, func(t *testing.T) {
			subCmd, _, err := cmd.Find([]string{cmdName})
			require.NoError(t, err, "Command %s should exist", cmdName)
			require.NotNil(t, subCmd)
			assert.Equal(t, cmdName, subCmd.Name())
		})
	}
}

func TestGlobalFlags(t *testing.T) {
	cmd := NewRootCommand()

	verboseFlag := cmd.PersistentFlags().Lookup("verbose")
	require.NotNil(t, verboseFlag)
	assert.Equal(t, "v", verboseFlag.Shorthand)
	assert.Equal(t, "false", verboseFlag.DefValue)

	formatFlag := cmd.PersistentFlags().Lookup("format")
	require.NotNil(t, formatFlag)
	assert.Equal(t, "text", formatFlag.DefValue)

	for _, name := range []string{"config", "strict", "no-color"} {
		assert.NotNil(t, cmd.PersistentFlags().Lookup(name), name)
	}
}

func TestDatabaseFlags(t *testing.T) {
	cmd := NewRootCommand()
	for _, name := range []string{"apply", "remove", "trace"} {
		t.Run(name, func(t *testing.T) {
			sub, _, err := cmd.Find([]string{name})
			require.NoError(t, err)
			dbFlag := sub.Flags().Lookup("db")
			require.NotNil(t, dbFlag)
			// --db falls back to database.path, so it is not required
			assert.Equal(t, "", dbFlag.DefValue)
		})
	}
}

func TestInvalidFormat(t *testing.T) {
	_, _, err := runCLI(t, "order", writeWorld(t, referenceWorld), "--format", "yaml")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), `invalid format "yaml"`)
}

// =============================================================================
// Configuration and logging
// =============================================================================

func TestConfigFileStrict(t *testing.T) {
	dir := writeWorld(t, unmappedWorld)
	cfgPath := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("[order]\nstrict = true\n"), 0644))

	stdout, _, err := runCLI(t, "order", dir, "--config", cfgPath)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, stdout, "AMBIGUOUS_MOD_MAPPING")

	// The flag overrides the file.
	stdout, _, err = runCLI(t, "order", dir, "--config", cfgPath, "--strict=false")
	require.NoError(t, err)
	assert.Contains(t, stdout, "mods/A/a")
}

func TestConfigFileInvalidLogLevel(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("[log]\nlevel = \"loud\"\n"), 0644))

	_, _, err := runCLI(t, "order", writeWorld(t, referenceWorld), "--config", cfgPath)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestConfigFileMissing(t *testing.T) {
	_, _, err := runCLI(t, "order", writeWorld(t, referenceWorld), "--config", "/nonexistent/config.toml")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "failed to load config")
}

func TestVerboseLogging(t *testing.T) {
	dir := writeWorld(t, referenceWorld)

	_, stderr, err := runCLI(t, "apply", dir)
	require.NoError(t, err)
	assert.Contains(t, stderr, "extension applied")
	assert.NotContains(t, stderr, "child relinked")

	_, stderr, err = runCLI(t, "apply", dir, "--verbose")
	require.NoError(t, err)
	assert.Contains(t, stderr, "level=DEBUG")
	assert.Contains(t, stderr, "child relinked")
}

// =============================================================================
// Execute
// =============================================================================

func TestExecuteExitCodes(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("PATCHWORK_CONFIG", "")
	dir := writeWorld(t, referenceWorld)

	tests := []struct {
		name string
		args []string
		want int
	}{
		{"success", []string{"order", dir}, ExitSuccess},
		{"missing world", []string{"order", "/nonexistent/world"}, ExitCommandError},
		{"patch failure", []string{"remove", dir, "--extension", "mods/M9/x"}, ExitFailure},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stdout := &bytes.Buffer{}
			stderr := &bytes.Buffer{}
			code := Execute(tt.args, stdout, stderr)
			assert.Equal(t, tt.want, code)
			if tt.want != ExitSuccess {
				assert.Contains(t, stderr.String(), "Error:")
			}
		})
	}
}
