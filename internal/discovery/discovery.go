// Copyright 2025 James Ross

// Package discovery implements the filesystem convention for plugin files:
// a per-user plugins directory, recursed, offering only files whose
// basename starts with plugin_ and whose suffix is the platform-native
// shared-library extension. This is the data source an external
// toggle-GUI would poll; the GUI itself is out of scope.
package discovery

import (
	"os"
	"path/filepath"
	"runtime"

	"github.com/bmatcuk/doublestar/v4"
)

// pluginGlob matches plugin_<anything>.<platform-native suffix>, recursed
// through arbitrary subdirectories.
func pluginGlob() string {
	switch runtime.GOOS {
	case "windows":
		return "**/plugin_*.dll"
	case "darwin":
		return "**/plugin_*.dylib"
	default:
		return "**/plugin_*.so"
	}
}

// Scan walks root and returns every path matching the platform's plugin
// naming convention. A root that does not exist yields an empty slice, not
// an error — an unconfigured or not-yet-created plugins directory is a
// normal, inert state.
func Scan(root string) ([]string, error) {
	if _, err := os.Stat(root); err != nil {
		return []string{}, nil
	}
	fsys := os.DirFS(root)
	matches, err := doublestar.Glob(fsys, pluginGlob())
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		return []string{}, nil
	}
	paths := make([]string, len(matches))
	for i, m := range matches {
		paths[i] = filepath.Join(root, m)
	}
	return paths, nil
}
