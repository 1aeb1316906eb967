package cli

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateText(t *testing.T) {
	path := writeDef(t, userDef)

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewValidateCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{path})

	err := cmd.Execute()
	require.NoError(t, err)

	output := buf.String()
	assert.Contains(t, output, "valid (entity User, 2 filter(s))")
	assert.NotContains(t, output, "warning")
}

func TestValidateJSON(t *testing.T) {
	path := writeDef(t, userDef)

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "json"}
	cmd := NewValidateCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{path})

	require.NoError(t, cmd.Execute())

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)

	data, ok := resp.Data.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "User", data["entity"])
	assert.Equal(t, float64(2), data["filters"])
}

func TestValidateInvalidDefinition(t *testing.T) {
	path := writeDef(t, `query: {
	entity: "User"
	filters: [{field: "status", op: "MAYBE", value: 1}]
}`)

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewValidateCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{path})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, buf.String(), "Error [E_BUILD]")
}

func TestValidateWarnings(t *testing.T) {
	path := writeDef(t, `query: {
	entity: "Order"
	having: [{target: "SUM(total)", op: ">", value: 100}]
}`)

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewValidateCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{path})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, buf.String(), "warning: having without groupBy")
}

func TestValidateNativeFilterWarning(t *testing.T) {
	path := writeDef(t, `query: {
	entity: "Order"
	native: "SELECT 1"
	filters: [{field: "id", value: 1}]
}`)

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewValidateCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{path})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, buf.String(), "filters are ignored")
}
