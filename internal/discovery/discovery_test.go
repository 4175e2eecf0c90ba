// Copyright 2025 James Ross
package discovery

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func touch(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte{}, 0o644))
}

func TestScanFindsNestedPluginFiles(t *testing.T) {
	dir := t.TempDir()
	suffix := map[string]string{"windows": "dll", "darwin": "dylib"}[goosOverride()]
	if suffix == "" {
		suffix = "so"
	}

	touch(t, filepath.Join(dir, "plugin_top."+suffix))
	touch(t, filepath.Join(dir, "nested", "plugin_deep."+suffix))
	touch(t, filepath.Join(dir, "not_a_plugin."+suffix))
	touch(t, filepath.Join(dir, "plugin_wrong_suffix.txt"))

	got, err := Scan(dir)
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestScanMissingRootReturnsEmpty(t *testing.T) {
	got, err := Scan(filepath.Join(t.TempDir(), "does-not-exist"))
	require.NoError(t, err)
	assert.Empty(t, got)
}

func goosOverride() string {
	return "" // exercise the default (linux-style .so) suffix in CI
}
