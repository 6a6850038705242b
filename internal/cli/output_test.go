package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/patchwork/internal/engine"
)

func TestOutputFormatter_JSONSuccess(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format: "json",
		Writer: buf,
	}

	data := map[string]string{"result": "success"}
	err := formatter.Success(data)
	require.NoError(t, err)

	var resp CLIResponse
	err = json.Unmarshal(buf.Bytes(), &resp)
	require.NoError(t, err)
	assert.Equal(t, "ok", resp.Status)
	assert.NotNil(t, resp.Data)
}

func TestOutputFormatter_JSONError(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format: "json",
		Writer: buf,
	}

	err := formatter.Error("W004", "world load failed", nil)
	require.NoError(t, err)

	var resp CLIResponse
	err = json.Unmarshal(buf.Bytes(), &resp)
	require.NoError(t, err)
	assert.Equal(t, "error", resp.Status)
	assert.NotNil(t, resp.Error)
	assert.Equal(t, "W004", resp.Error.Code)
	assert.Equal(t, "world load failed", resp.Error.Message)
}

func TestOutputFormatter_JSONErrorWithDetails(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format: "json",
		Writer: buf,
	}

	details := map[string]string{"file": "world.cue", "line": "42"}
	err := formatter.Error("W006", "syntax error", details)
	require.NoError(t, err)

	var resp CLIResponse
	err = json.Unmarshal(buf.Bytes(), &resp)
	require.NoError(t, err)
	assert.Equal(t, "error", resp.Status)
	assert.NotNil(t, resp.Error)
	assert.NotNil(t, resp.Error.Details)
}

func TestOutputFormatter_TextSuccess(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format: "text",
		Writer: buf,
	}

	err := formatter.Success("World valid")
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "World valid")
}

func TestOutputFormatter_TextError(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format:  "text",
		Writer:  buf,
		Verbose: false,
	}

	err := formatter.Error("W004", "world load failed", nil)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "Error [W004]")
	assert.Contains(t, buf.String(), "world load failed")
}

func TestOutputFormatter_TextErrorVerbose(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format:  "text",
		Writer:  buf,
		Verbose: true,
	}

	details := map[string]string{"file": "world.cue"}
	err := formatter.Error("W004", "world load failed", details)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "Error [W004]")
	assert.Contains(t, buf.String(), "Details:")
}

func TestOutputFormatter_VerboseLog(t *testing.T) {
	tests := []struct {
		name    string
		verbose bool
		wantLog bool
	}{
		{"verbose_enabled", true, true},
		{"verbose_disabled", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := &bytes.Buffer{}
			formatter := &OutputFormatter{
				Format:  "text",
				Writer:  buf,
				Verbose: tt.verbose,
			}

			formatter.VerboseLog("Processing %s", "world.cue")

			if tt.wantLog {
				assert.Contains(t, buf.String(), "Processing world.cue")
			} else {
				assert.Empty(t, buf.String())
			}
		})
	}
}

func TestCLIResponse_JSON(t *testing.T) {
	resp := CLIResponse{
		Status: "ok",
		Data:   map[string]int{"count": 42},
	}

	data, err := json.Marshal(resp)
	require.NoError(t, err)

	var decoded CLIResponse
	err = json.Unmarshal(data, &decoded)
	require.NoError(t, err)
	assert.Equal(t, "ok", decoded.Status)
}

func TestCLIError_JSON(t *testing.T) {
	cliErr := CLIError{
		Code:    "W101",
		Message: "validation failed",
		Details: []string{"load_order: not a list"},
	}

	data, err := json.Marshal(cliErr)
	require.NoError(t, err)

	var decoded CLIError
	err = json.Unmarshal(data, &decoded)
	require.NoError(t, err)
	assert.Equal(t, "W101", decoded.Code)
	assert.Equal(t, "validation failed", decoded.Message)
}

func TestGetExitCode(t *testing.T) {
	assert.Equal(t, ExitCommandError, GetExitCode(NewExitError(ExitCommandError, "bad path")))
	assert.Equal(t, ExitFailure, GetExitCode(WrapExitError(ExitFailure, "remove failed", errors.New("boom"))))
	assert.Equal(t, ExitFailure, GetExitCode(errors.New("plain")))
	assert.Equal(t, ExitCommandError, GetExitCode(fmt.Errorf("wrapped: %w", NewExitError(ExitCommandError, "x"))))
}

func TestExitError_Message(t *testing.T) {
	err := WrapExitError(ExitFailure, "remove failed", errors.New("boom"))
	assert.Equal(t, "remove failed: boom", err.Error())
	assert.Equal(t, "bad path", NewExitError(ExitCommandError, "bad path").Error())
}

func TestSetColor_DisabledForNonTerminal(t *testing.T) {
	setColor(&bytes.Buffer{}, false)
	assert.True(t, color.NoColor)
	assert.Equal(t, "✓", okMark())
	assert.Equal(t, "res/root", pathText("res/root"))

	// Explicitly disabled even if the writer were a terminal.
	setColor(os.Stdout, true)
	assert.True(t, color.NoColor)
	assert.Equal(t, "✗", failMark())
}

func TestPatchErrorCode(t *testing.T) {
	err := fmt.Errorf("remove: %w", engine.NewNotExtendedError("mods/A/a", "res/root"))
	assert.Equal(t, "NOT_EXTENDED", patchErrorCode(err, "E_REMOVE"))
	assert.Equal(t, "E_REMOVE", patchErrorCode(errors.New("other"), "E_REMOVE"))
}
