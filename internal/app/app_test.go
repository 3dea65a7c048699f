package app_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fwforge/fwsched/internal/app"
)

func writeManifest(t *testing.T, src string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "platform.hcl")
	require.NoError(t, os.WriteFile(path, []byte(src), 0o644))
	return path
}

func TestApp_Run_EndToEnd(t *testing.T) {
	path := writeManifest(t, `
platform "qemu-q35" {
  description = "QEMU Q35 bring-up"
}

config "serial" {
  port      = "COM1"
  baud_rate = 115200
  enabled   = true
}

component "hob_parser" {}
component "serial_init" {}
component "boot_banner" {}
`)

	testApp, out := app.SetupAppTest(t, &app.Config{ManifestPath: path, LogFormat: "text"})
	require.NoError(t, testApp.Run(context.Background(), &app.Config{ManifestPath: path}))

	require.Contains(t, out.String(), "[COM1] console on Acpi:")
	require.Contains(t, out.String(), "[COM1] memory: 2 ranges,")
	require.NotContains(t, out.String(), "component never ran")
}

func TestApp_Run_DisabledConsoleStalls(t *testing.T) {
	path := writeManifest(t, `
config "serial" {
  port    = "COM1"
  enabled = false
}

component "serial_init" {}
component "boot_banner" {}
`)

	testApp, out := app.SetupAppTest(t, &app.Config{ManifestPath: path, LogFormat: "text"})
	require.NoError(t, testApp.Run(context.Background(), &app.Config{ManifestPath: path}))

	require.Contains(t, out.String(), "component never ran")
	require.Contains(t, out.String(), "boot-banner")
}

func TestApp_Run_EmptyManifest(t *testing.T) {
	path := writeManifest(t, `platform "bare" {}`)

	testApp, out := app.SetupAppTest(t, &app.Config{ManifestPath: path, LogFormat: "text"})
	require.NoError(t, testApp.Run(context.Background(), &app.Config{ManifestPath: path}))
	require.Contains(t, out.String(), "nothing to dispatch")
}

func TestApp_Run_MissingManifest(t *testing.T) {
	testApp, _ := app.SetupAppTest(t, &app.Config{ManifestPath: "does-not-exist.hcl", LogFormat: "text"})
	err := testApp.Run(context.Background(), &app.Config{ManifestPath: "does-not-exist.hcl"})
	require.Error(t, err)
	require.Contains(t, err.Error(), "failed to load platform manifest")
}

func TestNewConfig_RequiresManifestPath(t *testing.T) {
	_, err := app.NewConfig(app.Config{})
	require.Error(t, err)

	cfg, err := app.NewConfig(app.Config{ManifestPath: "p.hcl"})
	require.NoError(t, err)
	require.Equal(t, "p.hcl", cfg.ManifestPath)
}
