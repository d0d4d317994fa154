package cmd

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	defer func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	}()
	err := Execute()
	return out.String(), err
}

func TestExecute_Help(t *testing.T) {
	out, err := execute(t, "--help")
	require.NoError(t, err)
	for _, name := range []string{"add", "edit", "delete", "activate", "list", "show", "reset", "export", "serve", "doctor", "init", "version"} {
		assert.Contains(t, out, name)
	}
}

func TestVersionCommand(t *testing.T) {
	SetVersion("v1.2.3", "abc123def", "2024-01-15")
	defer SetVersion("", "", "")

	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "pinlog v1.2.3")
	assert.Contains(t, out, "commit: abc123def")
	assert.Contains(t, out, "built:  2024-01-15")
	assert.Equal(t, "v1.2.3", GetVersion())
}

func TestExecute_AddRequiresPosition(t *testing.T) {
	setupProject(t)

	_, err := execute(t, "add", "--distance", "5")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "lat")
}

func TestExecute_UnknownCommand(t *testing.T) {
	_, err := execute(t, "fly")
	assert.Error(t, err)
}
