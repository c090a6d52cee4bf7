package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleTranscript = `<!DOCTYPE html>
<html><head><title>Planning session</title></head><body>
<div data-message-author-role="user" data-message-id="m1"><div>Draft the migration plan</div></div>
<div data-message-author-role="assistant"><div>Here is a draft plan.</div></div>
<div data-message-author-role="user" data-message-id="m2"><div>Now estimate the rollout risk</div></div>
</body></html>`

// testEnv isolates a test from the host: fresh home, fresh data dir, sqlite
// backend so indexed records survive across command invocations, and a temp
// working directory so no project config leaks in.
func testEnv(t *testing.T) {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(home, ".config"))
	t.Setenv("PROMPTDEX_DATA_DIR", t.TempDir())
	t.Setenv("PROMPTDEX_STORAGE_BACKEND", "sqlite")

	wd := t.TempDir()
	oldDir, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(wd))
	t.Cleanup(func() { _ = os.Chdir(oldDir) })
}

// writeTranscript writes the sample transcript and returns its path.
func writeTranscript(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "planning-session.html")
	require.NoError(t, os.WriteFile(path, []byte(sampleTranscript), 0o644))
	return path
}

// runCLI executes the root command with args and returns combined output.
func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func TestRootCmd_ShowsHelp(t *testing.T) {
	testEnv(t)

	// When: executing with --help
	output, err := runCLI(t, "--help")

	// Then: it should show usage information
	require.NoError(t, err)
	assert.Contains(t, output, "promptdex", "Help should mention program name")
	assert.Contains(t, output, "Usage:", "Help should show usage")
}

func TestRootCmd_ShowsVersion(t *testing.T) {
	testEnv(t)

	// When: executing with --version
	output, err := runCLI(t, "--version")

	// Then: it should show the version string
	require.NoError(t, err)
	assert.Contains(t, output, "promptdex version")
}

func TestRootCmd_HasSubcommands(t *testing.T) {
	// Given: a root command
	cmd := NewRootCmd()

	// When: checking available commands
	var names []string
	for _, sub := range cmd.Commands() {
		names = append(names, sub.Name())
	}

	// Then: every promptdex operation should be registered
	assert.Contains(t, names, "index", "Should have index subcommand")
	assert.Contains(t, names, "search", "Should have search subcommand")
	assert.Contains(t, names, "browse", "Should have browse subcommand")
	assert.Contains(t, names, "export", "Should have export subcommand")
	assert.Contains(t, names, "watch", "Should have watch subcommand")
	assert.Contains(t, names, "clear", "Should have clear subcommand")
	assert.Contains(t, names, "version", "Should have version subcommand")
}

func TestRootCmd_UnknownCommand(t *testing.T) {
	testEnv(t)

	// When: executing an unknown subcommand
	_, err := runCLI(t, "frobnicate")

	// Then: it should fail
	assert.Error(t, err)
}
