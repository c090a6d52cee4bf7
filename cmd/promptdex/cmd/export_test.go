package cmd

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExportCmd_MarkdownToStdout(t *testing.T) {
	testEnv(t)
	path := writeTranscript(t)
	_, err := runCLI(t, "index", path)
	require.NoError(t, err)

	// When: exporting as Markdown to stdout
	output, err := runCLI(t, "export", "--file", path, "--stdout")

	// Then: the header and numbered entries are present
	require.NoError(t, err)
	assert.Contains(t, output, "# Conversation Index")
	assert.Contains(t, output, "Draft the migration plan")
	assert.Contains(t, output, "Now estimate the rollout risk")
}

func TestExportCmd_TextToFile(t *testing.T) {
	testEnv(t)
	path := writeTranscript(t)
	_, err := runCLI(t, "index", path)
	require.NoError(t, err)

	out := filepath.Join(t.TempDir(), "export.txt")

	// When: exporting as plain text to a file
	output, err := runCLI(t, "export", "--file", path, "--format", "txt", "--out", out)

	// Then: the file holds the numbered index without Markdown escaping
	require.NoError(t, err)
	assert.Contains(t, output, "Exported 2 prompts")

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	content := string(data)
	assert.Contains(t, content, "  1. Draft the migration plan")
	assert.Contains(t, content, "  2. Now estimate the rollout risk")
	assert.NotContains(t, content, `\.`)
}

func TestExportCmd_GeneratedFilename(t *testing.T) {
	testEnv(t)
	path := writeTranscript(t)
	_, err := runCLI(t, "index", path)
	require.NoError(t, err)

	// When: exporting without --out (writes into the working directory)
	output, err := runCLI(t, "export", "--file", path)

	// Then: the generated name carries the conversation id and extension
	require.NoError(t, err)
	assert.Contains(t, output, "promptdex_planning-session_")
	assert.Contains(t, output, ".md")

	wd, err := os.Getwd()
	require.NoError(t, err)
	matches, err := filepath.Glob(filepath.Join(wd, "promptdex_planning-session_*.md"))
	require.NoError(t, err)
	require.Len(t, matches, 1)
}

func TestExportCmd_EmptyConversation(t *testing.T) {
	testEnv(t)

	// When: exporting a conversation with no indexed prompts
	output, err := runCLI(t, "export",
		"--url", "https://chat.example.com/c/none", "--stdout")

	// Then: the header is written with zero entries
	require.NoError(t, err)
	assert.Contains(t, output, "# Conversation Index")
	assert.False(t, strings.Contains(output, "  1."), "No entries expected")
}

func TestExportCmd_RejectsUnknownFormat(t *testing.T) {
	testEnv(t)

	// When: exporting with an unsupported format
	_, err := runCLI(t, "export", "--format", "pdf", "--stdout")

	// Then: it should fail
	assert.Error(t, err)
}
