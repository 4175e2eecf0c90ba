// Copyright 2025 James Ross
package discovery

import (
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Manifest is optional per-plugin metadata a toggle-GUI can surface
// alongside a loaded plugin's path. It has no bearing on whether a plugin
// is admitted — Load never reads it — it exists purely for display.
type Manifest struct {
	Name        string `yaml:"name"`
	Author      string `yaml:"author"`
	Version     string `yaml:"version"`
	Description string `yaml:"description"`
}

// ReadManifest looks for a sidecar manifest next to pluginPath (the same
// basename with .so/.dll/.dylib replaced by .yaml or .yml) and parses it.
// A missing sidecar is not an error: it returns a zero-value Manifest.
func ReadManifest(pluginPath string) (Manifest, error) {
	for _, suffix := range []string{".yaml", ".yml"} {
		candidate := manifestPathFor(pluginPath, suffix)
		data, err := os.ReadFile(candidate)
		if os.IsNotExist(err) {
			continue
		}
		if err != nil {
			return Manifest{}, err
		}
		var m Manifest
		if err := yaml.Unmarshal(data, &m); err != nil {
			return Manifest{}, err
		}
		return m, nil
	}
	return Manifest{}, nil
}

func manifestPathFor(pluginPath, suffix string) string {
	base := pluginPath
	if idx := strings.LastIndexByte(base, '.'); idx != -1 {
		base = base[:idx]
	}
	return base + suffix
}
