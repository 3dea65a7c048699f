package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRun_ShouldExit(t *testing.T) {
	t.Parallel()

	// The "-h" (help) flag should cause cli.Parse to return shouldExit=true.
	out := &bytes.Buffer{}
	err := run(out, []string{"-h"})

	require.NoError(t, err, "run() should return a nil error when shouldExit is true")
	require.Contains(t, out.String(), "Usage:", "expected help text in the output buffer")
}

func TestRun_ParseError(t *testing.T) {
	t.Parallel()

	out := &bytes.Buffer{}
	err := run(out, []string{"--this-is-not-a-valid-flag"})
	require.Error(t, err)
}

func TestRun_InvalidManifest(t *testing.T) {
	t.Parallel()

	tempDir := t.TempDir()
	filePath := filepath.Join(tempDir, "platform.hcl")
	require.NoError(t, os.WriteFile(filePath, []byte(`config "serial" {`), 0o600))

	out := &bytes.Buffer{}
	err := run(out, []string{filePath})
	require.Error(t, err)
	require.Contains(t, err.Error(), "failed to load platform manifest")
}

func TestRun_EndToEnd(t *testing.T) {
	t.Parallel()

	manifest := `
config "serial" {
  port      = "COM1"
  baud_rate = 115200
  enabled   = true
}

component "hob_parser" {}
component "serial_init" {}
component "boot_banner" {}
`
	tempDir := t.TempDir()
	filePath := filepath.Join(tempDir, "platform.hcl")
	require.NoError(t, os.WriteFile(filePath, []byte(manifest), 0o600))

	out := &bytes.Buffer{}
	err := run(out, []string{"-log-level", "error", filePath})
	require.NoError(t, err)
	require.Contains(t, out.String(), "[COM1] console on Acpi:")
}
